package repository

import (
	"context"

	"github.com/alexanderramin/sillage/internal/domain"
)

type CategoryRepo interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetByName(ctx context.Context, ownerID, name string) (*domain.Category, error)
	List(ctx context.Context, ownerID string) ([]*domain.Category, error)
}

type MaterialRepo interface {
	Create(ctx context.Context, m *domain.Material) error
	GetByID(ctx context.Context, id string) (*domain.Material, error)
	GetByTitle(ctx context.Context, ownerID, title string) (*domain.Material, error)
	List(ctx context.Context, ownerID string, includeArchived bool) ([]*domain.Material, error)
	Search(ctx context.Context, ownerID, query string) ([]*domain.Material, error)
	Update(ctx context.Context, m *domain.Material) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// BlendFilter narrows BlendRepo.List. An empty Kind lists both kinds.
type BlendFilter struct {
	OwnerID         string
	Kind            domain.BlendKind
	IncludeArchived bool
	OnlyArchived    bool
}

type BlendRepo interface {
	Create(ctx context.Context, b *domain.Blend) error
	GetByID(ctx context.Context, id string) (*domain.Blend, error)
	List(ctx context.Context, f BlendFilter) ([]*domain.Blend, error)
	Update(ctx context.Context, b *domain.Blend) error
	// ReplaceLines rewrites every line of the blend in slice order.
	ReplaceLines(ctx context.Context, blendID string, lines []domain.IngredientLine) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// CountReferences reports how many blends contain a line pointing at refID.
	CountReferences(ctx context.Context, refID string) (int, error)
}
