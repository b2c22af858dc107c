package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/db"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/repository"
	"github.com/google/uuid"
)

type blendService struct {
	blends         repository.BlendRepo
	materials      repository.MaterialRepo
	uow            db.UnitOfWork
	defaultDiluent string
	observer       UseCaseObserver
}

// NewBlendService serves accords and formulas. New blends get a diluent
// named defaultDiluent, or "Solvent" when it is empty.
func NewBlendService(
	blends repository.BlendRepo,
	materials repository.MaterialRepo,
	uow db.UnitOfWork,
	defaultDiluent string,
	observers ...UseCaseObserver,
) BlendService {
	if strings.TrimSpace(defaultDiluent) == "" {
		defaultDiluent = domain.DefaultDiluentName
	}
	return &blendService{
		blends:         blends,
		materials:      materials,
		uow:            uow,
		defaultDiluent: defaultDiluent,
		observer:       useCaseObserverOrNoop(observers),
	}
}

func (s *blendService) Create(ctx context.Context, kind domain.BlendKind, title string) (*domain.Blend, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if !domain.ValidBlendKinds[string(kind)] {
		return nil, fmt.Errorf("unknown blend kind %q (expected accord or formula)", kind)
	}
	now := time.Now().UTC()
	b := &domain.Blend{
		ID:        uuid.New().String(),
		OwnerID:   owner,
		Kind:      kind,
		Title:     strings.TrimSpace(title),
		Diluent:   domain.Diluent{Name: s.defaultDiluent},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.blends.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns the blend when the caller owns it or it is published and not
// archived.
func (s *blendService) Get(ctx context.Context, id string) (*domain.Blend, error) {
	b, err := s.blends.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !readable(ctx, b.OwnerID, b.IsPublished, b.IsArchived()) {
		return nil, ErrUnauthorized
	}
	return b, nil
}

func (s *blendService) List(ctx context.Context, f BlendListFilter) ([]*domain.Blend, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.blends.List(ctx, repository.BlendFilter{
		OwnerID:         owner,
		Kind:            f.Kind,
		IncludeArchived: f.IncludeArchived,
		OnlyArchived:    f.OnlyArchived,
	})
}

func (s *blendService) Update(ctx context.Context, id string, patch BlendPatch) (*domain.Blend, error) {
	b, err := s.owned(ctx, s.blends, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		b.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Note != nil {
		b.Note = *patch.Note
	}
	if patch.IsBase != nil {
		b.IsBase = *patch.IsBase
	}
	if patch.IsPublished != nil {
		b.IsPublished = *patch.IsPublished
	}
	b.UpdatedAt = time.Now().UTC()
	if err := s.blends.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *blendService) Archive(ctx context.Context, id string) error {
	if _, err := s.owned(ctx, s.blends, id); err != nil {
		return err
	}
	return s.blends.Archive(ctx, id)
}

func (s *blendService) Restore(ctx context.Context, id string) error {
	if _, err := s.owned(ctx, s.blends, id); err != nil {
		return err
	}
	return s.blends.Unarchive(ctx, id)
}

func (s *blendService) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.observer, "blend-delete", time.Now(), map[string]any{"blend_id": id}, &err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return s.deleteOne(ctx, repository.NewSQLiteBlendRepo(tx), id)
	})
}

// BulkDelete removes every listed blend or none of them.
func (s *blendService) BulkDelete(ctx context.Context, ids []string) (n int, err error) {
	defer observe(ctx, s.observer, "blend-bulk-delete", time.Now(), map[string]any{"count": len(ids)}, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteBlendRepo(tx)
		for _, id := range ids {
			if err := s.deleteOne(ctx, repo, id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *blendService) deleteOne(ctx context.Context, repo repository.BlendRepo, id string) error {
	b, err := s.owned(ctx, repo, id)
	if err != nil {
		return err
	}
	if b.Kind == domain.BlendAccord {
		n, err := repo.CountReferences(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w (%d formulas)", ErrAccordInUse, n)
		}
	}
	return repo.Delete(ctx, id)
}

// Duplicate copies a readable blend into the caller's catalog as an
// unpublished draft.
func (s *blendService) Duplicate(ctx context.Context, id string) (dup *domain.Blend, err error) {
	defer observe(ctx, s.observer, "blend-duplicate", time.Now(), map[string]any{"blend_id": id}, &err)

	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	dup = &domain.Blend{
		ID:        uuid.New().String(),
		OwnerID:   owner,
		Kind:      src.Kind,
		Title:     src.DisplayTitle() + " (copy)",
		Note:      src.Note,
		IsBase:    src.IsBase,
		Diluent:   src.Diluent,
		Lines:     append([]domain.IngredientLine(nil), src.Lines...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteBlendRepo(tx).Create(ctx, dup)
	})
	if err != nil {
		return nil, err
	}
	return dup, nil
}

// AddLine appends refID with zero weight. Materials start at their first
// dilution option; accords at their current computed concentration.
func (s *blendService) AddLine(ctx context.Context, id string, kind domain.LineKind, refID string) (*Sheet, error) {
	fields := map[string]any{"blend_id": id, "ref_id": refID, "kind": string(kind)}
	return s.edit(ctx, "blend-add-line", id, fields, func(b *domain.Blend) error {
		line := domain.IngredientLine{RefID: refID, Kind: kind}
		switch kind {
		case domain.LineMaterial:
			m, err := s.materials.GetByID(ctx, refID)
			if err != nil {
				return err
			}
			if !readable(ctx, m.OwnerID, m.IsPublished, false) {
				return ErrUnauthorized
			}
			if m.IsArchived() {
				return ErrArchived
			}
			line.Dilution = m.DefaultDilution()
		case domain.LineAccord:
			a, err := s.blends.GetByID(ctx, refID)
			if err != nil {
				return err
			}
			if a.Kind != domain.BlendAccord {
				return fmt.Errorf("%s is a formula; only accords can be used as ingredients", a.DisplayTitle())
			}
			if !readable(ctx, a.OwnerID, a.IsPublished, false) {
				return ErrUnauthorized
			}
			if a.IsArchived() {
				return ErrArchived
			}
			line.Dilution = accordDilution(a)
		default:
			return fmt.Errorf("unknown line kind %q", kind)
		}
		return b.AddLine(line)
	})
}

func (s *blendService) SetWeight(ctx context.Context, id, refID string, weight float64) (*Sheet, error) {
	fields := map[string]any{"blend_id": id, "ref_id": refID, "weight": weight}
	return s.edit(ctx, "blend-set-weight", id, fields, func(b *domain.Blend) error {
		return b.SetWeight(refID, weight)
	})
}

// SetDilution switches a material line to another of the material's stock
// dilutions.
func (s *blendService) SetDilution(ctx context.Context, id, refID string, dilution float64) (*Sheet, error) {
	fields := map[string]any{"blend_id": id, "ref_id": refID, "dilution": dilution}
	return s.edit(ctx, "blend-set-dilution", id, fields, func(b *domain.Blend) error {
		i := b.LineIndex(refID)
		if i < 0 {
			return domain.ErrLineNotFound
		}
		if b.Lines[i].Kind == domain.LineAccord {
			return ErrAccordLineFixed
		}
		if err := domain.ValidateDilution(dilution); err != nil {
			return err
		}
		m, err := s.materials.GetByID(ctx, refID)
		if err != nil {
			return err
		}
		if !m.AllowsDilution(dilution) {
			return fmt.Errorf("%w: %s offers %s", ErrDilutionNotOffered, m.Title, formatDilutions(m.Dilutions))
		}
		b.Lines[i].Dilution = dilution
		return nil
	})
}

func (s *blendService) RemoveLine(ctx context.Context, id, refID string) (*Sheet, error) {
	fields := map[string]any{"blend_id": id, "ref_id": refID}
	return s.edit(ctx, "blend-remove-line", id, fields, func(b *domain.Blend) error {
		return b.RemoveLine(refID)
	})
}

// SetDiluent changes the diluent weight and, when name is not empty, its name.
func (s *blendService) SetDiluent(ctx context.Context, id, name string, weight float64) (*Sheet, error) {
	fields := map[string]any{"blend_id": id, "diluent_weight": weight}
	return s.edit(ctx, "blend-set-diluent", id, fields, func(b *domain.Blend) error {
		if name = strings.TrimSpace(name); name != "" {
			b.Diluent.Name = name
		}
		return b.SetDiluentWeight(weight)
	})
}

func (s *blendService) Sheet(ctx context.Context, id string) (*Sheet, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.sheet(ctx, b)
}

// ScaleToWeight rescales every line and the diluent to reach target grams.
func (s *blendService) ScaleToWeight(ctx context.Context, id string, target float64) (*Sheet, error) {
	fields := map[string]any{"blend_id": id, "target_weight": target}
	return s.scale(ctx, "blend-scale-weight", id, fields, func(snap calc.Snapshot) (calc.Snapshot, error) {
		return calc.ScaleToTotalWeight(snap, target)
	})
}

// ScaleToDilution changes only the diluent so the blend reaches target
// percent concentration.
func (s *blendService) ScaleToDilution(ctx context.Context, id string, target float64) (*Sheet, error) {
	fields := map[string]any{"blend_id": id, "target_dilution": target}
	return s.scale(ctx, "blend-scale-dilution", id, fields, func(snap calc.Snapshot) (calc.Snapshot, error) {
		return calc.ScaleToTargetDilution(snap, target)
	})
}

func (s *blendService) SaveSnapshot(ctx context.Context, id string, snap calc.Snapshot) (*Sheet, error) {
	fields := map[string]any{"blend_id": id, "lines": len(snap.Lines)}
	return s.scale(ctx, "blend-save-snapshot", id, fields, func(stored calc.Snapshot) (calc.Snapshot, error) {
		if err := snap.Validate(); err != nil {
			return calc.Snapshot{}, err
		}
		if err := s.checkDilutionChanges(ctx, stored, snap); err != nil {
			return calc.Snapshot{}, err
		}
		out := snap.Clone()
		for i := range out.Lines {
			out.Lines[i].Weight = calc.RoundWeight(out.Lines[i].Weight)
		}
		out.Diluent.Weight = calc.RoundWeight(out.Diluent.Weight)
		return out, nil
	})
}

// checkDilutionChanges holds a changed line dilution to the same rules as
// SetDilution. Lines are matched by reference; ApplySnapshot rejects
// mismatched line sets.
func (s *blendService) checkDilutionChanges(ctx context.Context, stored, next calc.Snapshot) error {
	prev := make(map[string]calc.Line, len(stored.Lines))
	for _, l := range stored.Lines {
		prev[l.RefID] = l
	}
	for _, l := range next.Lines {
		old, ok := prev[l.RefID]
		if !ok || old.Dilution == l.Dilution {
			continue
		}
		if old.Kind == domain.LineAccord {
			return ErrAccordLineFixed
		}
		m, err := s.materials.GetByID(ctx, l.RefID)
		if err != nil {
			return err
		}
		if !m.AllowsDilution(l.Dilution) {
			return fmt.Errorf("%w: %s offers %s", ErrDilutionNotOffered, m.Title, formatDilutions(m.Dilutions))
		}
	}
	return nil
}

// scale runs op on the stored blend's snapshot and persists the result. Any
// error from op is returned unchanged and nothing is written.
func (s *blendService) scale(ctx context.Context, name, id string, fields map[string]any, op func(calc.Snapshot) (calc.Snapshot, error)) (sheet *Sheet, err error) {
	defer observe(ctx, s.observer, name, time.Now(), fields, &err)

	b, err := s.owned(ctx, s.blends, id)
	if err != nil {
		return nil, err
	}
	before, err := s.sheet(ctx, b)
	if err != nil {
		return nil, err
	}
	next, err := op(before.Snapshot)
	if err != nil {
		return nil, err
	}
	if err = b.ApplySnapshot(next); err != nil {
		return nil, err
	}
	if err = s.persist(ctx, b); err != nil {
		return nil, err
	}
	sheet = NewSheet(b, before.refs)
	fields["total_weight"] = sheet.Totals.TotalWeight
	fields["final_dilution"] = sheet.Totals.FinalDilution
	return sheet, nil
}

// edit loads an owned blend, applies fn and stores header and lines together.
func (s *blendService) edit(ctx context.Context, name, id string, fields map[string]any, fn func(b *domain.Blend) error) (sheet *Sheet, err error) {
	defer observe(ctx, s.observer, name, time.Now(), fields, &err)

	b, err := s.owned(ctx, s.blends, id)
	if err != nil {
		return nil, err
	}
	if err = fn(b); err != nil {
		return nil, err
	}
	if err = s.persist(ctx, b); err != nil {
		return nil, err
	}
	return s.sheet(ctx, b)
}

func (s *blendService) persist(ctx context.Context, b *domain.Blend) error {
	b.UpdatedAt = time.Now().UTC()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteBlendRepo(tx)
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		return repo.ReplaceLines(ctx, b.ID, b.Lines)
	})
}

// sheet resolves every line's reference. References that no longer exist
// are left out of refs and render as missing.
func (s *blendService) sheet(ctx context.Context, b *domain.Blend) (*Sheet, error) {
	refs := make(map[string]LineRef, len(b.Lines))
	for _, l := range b.Lines {
		switch l.Kind {
		case domain.LineMaterial:
			m, err := s.materials.GetByID(ctx, l.RefID)
			if err != nil {
				if isNotFound(err) {
					continue
				}
				return nil, err
			}
			refs[l.RefID] = LineRef{Title: m.Title, Category: m.Category, IFRALimit: m.IFRALimit}
		case domain.LineAccord:
			a, err := s.blends.GetByID(ctx, l.RefID)
			if err != nil {
				if isNotFound(err) {
					continue
				}
				return nil, err
			}
			refs[l.RefID] = LineRef{Title: a.DisplayTitle()}
		}
	}
	return NewSheet(b, refs), nil
}

func (s *blendService) owned(ctx context.Context, repo repository.BlendRepo, id string) (*domain.Blend, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	b, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != owner {
		return nil, ErrUnauthorized
	}
	return b, nil
}

func readable(ctx context.Context, ownerID string, published, archived bool) bool {
	owner, _ := OwnerFrom(ctx)
	return ownerID == owner || (published && !archived)
}

// accordDilution is the dilution an accord line starts with: the accord's
// concentration, or 100 when the accord has no active substance yet.
func accordDilution(a *domain.Blend) float64 {
	if c := a.Concentration(); c > 0 {
		return c
	}
	return 100
}

func formatDilutions(ds []float64) string {
	if len(ds) == 0 {
		ds = []float64{100}
	}
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = calc.FormatPercent(d)
	}
	return strings.Join(parts, ", ")
}
