package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sillage/internal/db"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/repository"
	"github.com/google/uuid"
)

type materialService struct {
	materials  repository.MaterialRepo
	categories repository.CategoryRepo
	blends     repository.BlendRepo
	uow        db.UnitOfWork
	observer   UseCaseObserver
}

func NewMaterialService(
	materials repository.MaterialRepo,
	categories repository.CategoryRepo,
	blends repository.BlendRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) MaterialService {
	return &materialService{
		materials:  materials,
		categories: categories,
		blends:     blends,
		uow:        uow,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *materialService) Create(ctx context.Context, m *domain.Material) (err error) {
	defer observe(ctx, s.observer, "material-create", time.Now(), map[string]any{"title": m.Title}, &err)

	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.OwnerID = owner
	m.Title = strings.TrimSpace(m.Title)
	if m.Dilutions, err = domain.NormalizeDilutions(m.Dilutions); err != nil {
		return err
	}
	if err = resolveCategory(ctx, s.categories, owner, &m.Category); err != nil {
		return err
	}
	if err = m.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteMaterialRepo(tx).Create(ctx, m)
	})
}

// Get returns the material when the caller owns it or it is published and
// not archived.
func (s *materialService) Get(ctx context.Context, id string) (*domain.Material, error) {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, _ := OwnerFrom(ctx)
	if m.OwnerID == owner || (m.IsPublished && !m.IsArchived()) {
		return m, nil
	}
	return nil, ErrUnauthorized
}

func (s *materialService) List(ctx context.Context, includeArchived bool) ([]*domain.Material, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.materials.List(ctx, owner, includeArchived)
}

func (s *materialService) Search(ctx context.Context, query string) ([]*domain.Material, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return s.materials.List(ctx, owner, false)
	}
	return s.materials.Search(ctx, owner, query)
}

func (s *materialService) Update(ctx context.Context, m *domain.Material) (err error) {
	defer observe(ctx, s.observer, "material-update", time.Now(), map[string]any{"material_id": m.ID}, &err)

	stored, err := s.owned(ctx, m.ID)
	if err != nil {
		return err
	}
	m.OwnerID = stored.OwnerID
	m.CreatedAt = stored.CreatedAt
	m.ArchivedAt = stored.ArchivedAt
	m.Title = strings.TrimSpace(m.Title)
	if m.Dilutions, err = domain.NormalizeDilutions(m.Dilutions); err != nil {
		return err
	}
	if err = resolveCategory(ctx, s.categories, m.OwnerID, &m.Category); err != nil {
		return err
	}
	if err = m.Validate(); err != nil {
		return err
	}
	return s.save(ctx, m)
}

func (s *materialService) SetDilutions(ctx context.Context, id string, dilutions []float64) (*domain.Material, error) {
	m, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Dilutions, err = domain.NormalizeDilutions(dilutions); err != nil {
		return nil, err
	}
	if err := s.save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *materialService) Archive(ctx context.Context, id string) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	return s.materials.Archive(ctx, id)
}

func (s *materialService) Restore(ctx context.Context, id string) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	return s.materials.Unarchive(ctx, id)
}

// Delete refuses materials still used by a blend, since removing them would
// change that blend's totals.
func (s *materialService) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.observer, "material-delete", time.Now(), map[string]any{"material_id": id}, &err)

	if _, err = s.owned(ctx, id); err != nil {
		return err
	}
	n, err := s.blends.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w (%d blends)", ErrMaterialInUse, n)
	}
	return s.materials.Delete(ctx, id)
}

func (s *materialService) RemoveField(ctx context.Context, id, field string) error {
	field = strings.ToLower(strings.TrimSpace(field))
	if !domain.RemovableMaterialFields[field] {
		return fmt.Errorf("%w: %q (removable: cas, alt_name)", ErrFieldNotRemovable, field)
	}
	m, err := s.owned(ctx, id)
	if err != nil {
		return err
	}
	switch field {
	case "cas":
		m.CAS = ""
	case "alt_name":
		m.AltName = ""
	}
	return s.save(ctx, m)
}

func (s *materialService) owned(ctx context.Context, id string) (*domain.Material, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != owner {
		return nil, ErrUnauthorized
	}
	return m, nil
}

func (s *materialService) save(ctx context.Context, m *domain.Material) error {
	m.UpdatedAt = time.Now().UTC()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteMaterialRepo(tx).Update(ctx, m)
	})
}

// resolveCategory fills c from storage by ID or, failing that, by name. An
// empty category is left alone.
func resolveCategory(ctx context.Context, repo repository.CategoryRepo, owner string, c *domain.Category) error {
	var (
		found *domain.Category
		err   error
	)
	switch {
	case c.ID != "":
		found, err = repo.GetByID(ctx, c.ID)
	case strings.TrimSpace(c.Name) != "":
		found, err = repo.GetByName(ctx, owner, strings.TrimSpace(c.Name))
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("category %q: %w", c.Name+c.ID, err)
	}
	if found.OwnerID != owner {
		return ErrUnauthorized
	}
	*c = *found
	return nil
}
