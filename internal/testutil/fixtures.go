package testutil

import (
	"time"

	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/google/uuid"
)

// Owner is the account fixtures belong to unless overridden.
const Owner = "perfumer"

type MaterialOption func(*domain.Material)

func WithIFRALimit(limit float64) MaterialOption {
	return func(m *domain.Material) {
		m.IFRALimit = limit
	}
}

func WithDilutions(ds ...float64) MaterialOption {
	return func(m *domain.Material) {
		m.Dilutions = ds
	}
}

func WithCAS(cas string) MaterialOption {
	return func(m *domain.Material) {
		m.CAS = cas
	}
}

func WithCategory(c domain.Category) MaterialOption {
	return func(m *domain.Material) {
		m.Category = c
	}
}

func WithMaterialOwner(owner string) MaterialOption {
	return func(m *domain.Material) {
		m.OwnerID = owner
	}
}

func NewTestMaterial(title string, opts ...MaterialOption) *domain.Material {
	now := time.Now().UTC().Truncate(time.Second)
	m := &domain.Material{
		ID:        uuid.New().String(),
		OwnerID:   Owner,
		Title:     title,
		Dilutions: []float64{100},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type BlendOption func(*domain.Blend)

func WithDiluent(name string, weight float64) BlendOption {
	return func(b *domain.Blend) {
		b.Diluent = domain.Diluent{Name: name, Weight: weight}
	}
}

// WithLine appends a line without the checks Blend.AddLine performs.
func WithLine(refID string, kind domain.LineKind, weight, dilution float64) BlendOption {
	return func(b *domain.Blend) {
		b.Lines = append(b.Lines, domain.IngredientLine{RefID: refID, Kind: kind, Weight: weight, Dilution: dilution})
	}
}

func WithBlendOwner(owner string) BlendOption {
	return func(b *domain.Blend) {
		b.OwnerID = owner
	}
}

func Published() BlendOption {
	return func(b *domain.Blend) {
		b.IsPublished = true
	}
}

func NewTestBlend(kind domain.BlendKind, title string, opts ...BlendOption) *domain.Blend {
	now := time.Now().UTC().Truncate(time.Second)
	b := &domain.Blend{
		ID:        uuid.New().String(),
		OwnerID:   Owner,
		Kind:      kind,
		Title:     title,
		Diluent:   domain.Diluent{Name: domain.DefaultDiluentName},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func NewTestCategory(name string) *domain.Category {
	return &domain.Category{
		ID:       uuid.New().String(),
		OwnerID:  Owner,
		Name:     name,
		Color:    "#83a598",
		IsCustom: true,
	}
}
