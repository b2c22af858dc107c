package service

import (
	"context"

	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/importer"
)

type MaterialService interface {
	Create(ctx context.Context, m *domain.Material) error
	Get(ctx context.Context, id string) (*domain.Material, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Material, error)
	Search(ctx context.Context, query string) ([]*domain.Material, error)
	Update(ctx context.Context, m *domain.Material) error
	SetDilutions(ctx context.Context, id string, dilutions []float64) (*domain.Material, error)
	Archive(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	RemoveField(ctx context.Context, id, field string) error
}

type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Create(ctx context.Context, name, color string) (*domain.Category, error)
	// EnsureDefaults seeds the built-in categories the first time an owner
	// touches the catalog.
	EnsureDefaults(ctx context.Context) error
}

// BlendListFilter selects blends of the acting owner.
type BlendListFilter struct {
	Kind            domain.BlendKind
	IncludeArchived bool
	OnlyArchived    bool
}

// BlendPatch updates only the non-nil fields.
type BlendPatch struct {
	Title       *string
	Note        *string
	IsBase      *bool
	IsPublished *bool
}

type BlendService interface {
	Create(ctx context.Context, kind domain.BlendKind, title string) (*domain.Blend, error)
	Get(ctx context.Context, id string) (*domain.Blend, error)
	List(ctx context.Context, f BlendListFilter) ([]*domain.Blend, error)
	Update(ctx context.Context, id string, patch BlendPatch) (*domain.Blend, error)
	Archive(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int, error)
	Duplicate(ctx context.Context, id string) (*domain.Blend, error)

	AddLine(ctx context.Context, id string, kind domain.LineKind, refID string) (*Sheet, error)
	SetWeight(ctx context.Context, id, refID string, weight float64) (*Sheet, error)
	SetDilution(ctx context.Context, id, refID string, dilution float64) (*Sheet, error)
	RemoveLine(ctx context.Context, id, refID string) (*Sheet, error)
	SetDiluent(ctx context.Context, id, name string, weight float64) (*Sheet, error)

	Sheet(ctx context.Context, id string) (*Sheet, error)
	ScaleToWeight(ctx context.Context, id string, target float64) (*Sheet, error)
	ScaleToDilution(ctx context.Context, id string, target float64) (*Sheet, error)
	// SaveSnapshot persists weights edited outside the service, such as in
	// the interactive editor. The snapshot must match the stored lines.
	SaveSnapshot(ctx context.Context, id string, s calc.Snapshot) (*Sheet, error)
}

// ImportResult counts what an import created or reused.
type ImportResult struct {
	MaterialsCreated int
	MaterialsReused  int
	Blends           []*domain.Blend
}

type ImportService interface {
	ImportFile(ctx context.Context, path string) (*ImportResult, error)
	ImportDocument(ctx context.Context, doc *importer.Document) (*ImportResult, error)
	// Export returns a document holding the blend, every accord it uses and
	// every referenced material, ordered so it can be imported again.
	Export(ctx context.Context, id string) (*importer.Document, error)
}
