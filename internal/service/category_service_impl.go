package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alexanderramin/sillage/internal/db"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/repository"
	"github.com/google/uuid"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

const defaultCategoryColor = "#928374"

type categoryService struct {
	categories repository.CategoryRepo
	uow        db.UnitOfWork
}

func NewCategoryService(categories repository.CategoryRepo, uow db.UnitOfWork) CategoryService {
	return &categoryService{categories: categories, uow: uow}
}

func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.categories.List(ctx, owner)
}

func (s *categoryService) Create(ctx context.Context, name, color string) (*domain.Category, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	if color == "" {
		color = defaultCategoryColor
	}
	if !hexColor.MatchString(color) {
		return nil, fmt.Errorf("category color %q must look like #rrggbb", color)
	}
	if _, err := s.categories.GetByName(ctx, owner, name); err == nil {
		return nil, fmt.Errorf("category %q already exists", name)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	c := &domain.Category{
		ID:       uuid.New().String(),
		OwnerID:  owner,
		Name:     name,
		Color:    color,
		IsCustom: true,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *categoryService) EnsureDefaults(ctx context.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteCategoryRepo(tx)
		for _, def := range domain.DefaultCategories() {
			if _, err := repo.GetByName(ctx, owner, def.Name); err == nil {
				continue
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			def.ID = uuid.New().String()
			def.OwnerID = owner
			if err := repo.Create(ctx, &def); err != nil {
				return fmt.Errorf("seeding category %s: %w", def.Name, err)
			}
		}
		return nil
	})
}
