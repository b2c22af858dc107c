package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sillage/internal/db"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/importer"
	"github.com/alexanderramin/sillage/internal/repository"
	"github.com/google/uuid"
)

type importService struct {
	materials      repository.MaterialRepo
	blends         repository.BlendRepo
	uow            db.UnitOfWork
	defaultDiluent string
	observer       UseCaseObserver
}

func NewImportService(
	materials repository.MaterialRepo,
	blends repository.BlendRepo,
	uow db.UnitOfWork,
	defaultDiluent string,
	observers ...UseCaseObserver,
) ImportService {
	if strings.TrimSpace(defaultDiluent) == "" {
		defaultDiluent = domain.DefaultDiluentName
	}
	return &importService{
		materials:      materials,
		blends:         blends,
		uow:            uow,
		defaultDiluent: defaultDiluent,
		observer:       useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	doc, err := importer.LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportDocument(ctx, doc)
}

// ImportDocument stores the whole document in one transaction. Materials are
// matched to the catalog by title and only created when missing.
func (s *importService) ImportDocument(ctx context.Context, doc *importer.Document) (res *ImportResult, err error) {
	fields := map[string]any{"materials": len(doc.Materials), "blends": len(doc.Blends)}
	defer observe(ctx, s.observer, "import", time.Now(), fields, &err)

	if errs := importer.ValidateDocument(doc); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		run := &importRun{
			owner:          owner,
			defaultDiluent: s.defaultDiluent,
			materials:      repository.NewSQLiteMaterialRepo(tx),
			categories:     repository.NewSQLiteCategoryRepo(tx),
			blends:         repository.NewSQLiteBlendRepo(tx),
			byTitle:        make(map[string]*domain.Material),
			accords:        make(map[string]*domain.Blend),
			result:         &ImportResult{},
		}
		if err := run.loadAccords(ctx); err != nil {
			return err
		}
		for _, mi := range doc.Materials {
			if _, err := run.material(ctx, mi); err != nil {
				return fmt.Errorf("material %q: %w", mi.Title, err)
			}
		}
		for _, bi := range doc.Blends {
			if err := run.blend(ctx, bi); err != nil {
				return fmt.Errorf("%s %q: %w", bi.Kind, bi.Title, err)
			}
		}
		res = run.result
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["materials_created"] = res.MaterialsCreated
	return res, nil
}

type importRun struct {
	owner          string
	defaultDiluent string
	materials      *repository.SQLiteMaterialRepo
	categories     *repository.SQLiteCategoryRepo
	blends         *repository.SQLiteBlendRepo
	byTitle        map[string]*domain.Material
	accords        map[string]*domain.Blend
	result         *ImportResult
}

func (r *importRun) loadAccords(ctx context.Context) error {
	existing, err := r.blends.List(ctx, repository.BlendFilter{OwnerID: r.owner, Kind: domain.BlendAccord})
	if err != nil {
		return err
	}
	for _, a := range existing {
		r.accords[importer.NormalizeTitle(a.Title)] = a
	}
	return nil
}

// material returns the catalog material titled mi.Title, creating it from
// mi when the owner has none.
func (r *importRun) material(ctx context.Context, mi importer.MaterialImport) (*domain.Material, error) {
	key := importer.NormalizeTitle(mi.Title)
	if m, ok := r.byTitle[key]; ok {
		return m, nil
	}
	m, err := r.materials.GetByTitle(ctx, r.owner, mi.Title)
	if err == nil {
		r.byTitle[key] = m
		r.result.MaterialsReused++
		return m, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	m = &domain.Material{
		ID:          uuid.New().String(),
		OwnerID:     r.owner,
		Title:       strings.TrimSpace(mi.Title),
		CAS:         mi.CAS,
		AltName:     mi.AltName,
		IFRALimit:   mi.IFRALimit,
		Description: mi.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, p := range mi.Pyramid {
		m.Pyramid = append(m.Pyramid, domain.PyramidLevel(p))
	}
	if mi.DateObtained != "" {
		d, err := time.Parse("2006-01-02", mi.DateObtained)
		if err != nil {
			return nil, fmt.Errorf("parsing date_obtained: %w", err)
		}
		m.DateObtained = &d
	}
	if m.Dilutions, err = domain.NormalizeDilutions(mi.Dilutions); err != nil {
		return nil, err
	}
	if mi.Category != "" {
		c, err := r.category(ctx, mi.Category)
		if err != nil {
			return nil, err
		}
		m.Category = *c
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := r.materials.Create(ctx, m); err != nil {
		return nil, err
	}
	r.byTitle[key] = m
	r.result.MaterialsCreated++
	return m, nil
}

// category finds the owner's category by name, adding a custom one if needed.
func (r *importRun) category(ctx context.Context, name string) (*domain.Category, error) {
	c, err := r.categories.GetByName(ctx, r.owner, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	c = &domain.Category{
		ID:       uuid.New().String(),
		OwnerID:  r.owner,
		Name:     strings.TrimSpace(name),
		Color:    defaultCategoryColor,
		IsCustom: true,
	}
	if err := r.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *importRun) blend(ctx context.Context, bi importer.BlendImport) error {
	now := time.Now().UTC()
	b := &domain.Blend{
		ID:        uuid.New().String(),
		OwnerID:   r.owner,
		Kind:      domain.BlendKind(bi.Kind),
		Title:     strings.TrimSpace(bi.Title),
		Note:      bi.Note,
		IsBase:    bi.IsBase,
		Diluent:   domain.Diluent{Name: r.defaultDiluent},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if bi.Diluent != nil {
		if bi.Diluent.Name != "" {
			b.Diluent.Name = bi.Diluent.Name
		}
		if err := b.SetDiluentWeight(bi.Diluent.Weight); err != nil {
			return err
		}
	}

	for _, li := range bi.Lines {
		line := domain.IngredientLine{Weight: li.Weight}
		if li.Accord != "" {
			a, ok := r.accords[importer.NormalizeTitle(li.Accord)]
			if !ok {
				return fmt.Errorf("accord %q: %w", li.Accord, ErrNotFound)
			}
			line.RefID, line.Kind, line.Dilution = a.ID, domain.LineAccord, accordDilution(a)
		} else {
			seed := importer.MaterialImport{Title: li.Material}
			if li.Dilution != 0 {
				seed.Dilutions = []float64{li.Dilution}
			}
			m, err := r.material(ctx, seed)
			if err != nil {
				return fmt.Errorf("material %q: %w", li.Material, err)
			}
			d := li.Dilution
			if d == 0 {
				d = m.DefaultDilution()
			}
			if !m.AllowsDilution(d) {
				return fmt.Errorf("%w: %s offers %s", ErrDilutionNotOffered, m.Title, formatDilutions(m.Dilutions))
			}
			line.RefID, line.Kind, line.Dilution = m.ID, domain.LineMaterial, d
		}
		if err := b.AddLine(line); err != nil {
			return err
		}
	}

	if err := r.blends.Create(ctx, b); err != nil {
		return err
	}
	if b.Kind == domain.BlendAccord {
		r.accords[importer.NormalizeTitle(b.Title)] = b
	}
	r.result.Blends = append(r.result.Blends, b)
	return nil
}

func (s *importService) Export(ctx context.Context, id string) (*importer.Document, error) {
	b, err := s.blends.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !readable(ctx, b.OwnerID, b.IsPublished, b.IsArchived()) {
		return nil, ErrUnauthorized
	}

	ex := &exporter{svc: s, seen: make(map[string]bool)}
	if err := ex.addBlend(ctx, b); err != nil {
		return nil, err
	}
	return &importer.Document{
		Version:   importer.CurrentVersion,
		Materials: ex.materials,
		Blends:    ex.blends,
	}, nil
}

type exporter struct {
	svc       *importService
	seen      map[string]bool
	materials []importer.MaterialImport
	blends    []importer.BlendImport
}

// addBlend appends b after every accord it depends on.
func (e *exporter) addBlend(ctx context.Context, b *domain.Blend) error {
	bi := importer.BlendImport{
		Kind:    string(b.Kind),
		Title:   b.DisplayTitle(),
		Note:    b.Note,
		IsBase:  b.IsBase,
		Diluent: &importer.DiluentImport{Name: b.Diluent.Name, Weight: b.Diluent.Weight},
	}
	for _, l := range b.Lines {
		switch l.Kind {
		case domain.LineMaterial:
			m, err := e.svc.materials.GetByID(ctx, l.RefID)
			if err != nil {
				return fmt.Errorf("exporting %s: %w", b.DisplayTitle(), err)
			}
			e.addMaterial(m)
			bi.Lines = append(bi.Lines, importer.LineImport{Material: m.Title, Weight: l.Weight, Dilution: l.Dilution})
		case domain.LineAccord:
			a, err := e.svc.blends.GetByID(ctx, l.RefID)
			if err != nil {
				return fmt.Errorf("exporting %s: %w", b.DisplayTitle(), err)
			}
			if !e.seen[a.ID] {
				e.seen[a.ID] = true
				if err := e.addBlend(ctx, a); err != nil {
					return err
				}
			}
			bi.Lines = append(bi.Lines, importer.LineImport{Accord: a.DisplayTitle(), Weight: l.Weight})
		}
	}
	e.blends = append(e.blends, bi)
	return nil
}

func (e *exporter) addMaterial(m *domain.Material) {
	if e.seen[m.ID] {
		return
	}
	e.seen[m.ID] = true
	mi := importer.MaterialImport{
		Title:       m.Title,
		CAS:         m.CAS,
		AltName:     m.AltName,
		Category:    m.Category.Name,
		IFRALimit:   m.IFRALimit,
		Dilutions:   m.Dilutions,
		Description: m.Description,
	}
	for _, p := range m.Pyramid {
		mi.Pyramid = append(mi.Pyramid, string(p))
	}
	if m.DateObtained != nil {
		mi.DateObtained = m.DateObtained.Format("2006-01-02")
	}
	e.materials = append(e.materials, mi)
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
