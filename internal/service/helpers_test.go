package service

import (
	"context"
	"sync"
	"testing"

	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/repository"
	"github.com/alexanderramin/sillage/internal/testutil"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	for i, e := range o.events {
		out[i] = e.Name
	}
	return out
}

type testServices struct {
	materials  MaterialService
	categories CategoryService
	blends     BlendService
	imports    ImportService
	observer   *recordingObserver

	materialRepo repository.MaterialRepo
	blendRepo    repository.BlendRepo
}

func setupServices(t *testing.T) *testServices {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	obs := &recordingObserver{}

	materials := repository.NewSQLiteMaterialRepo(database)
	categories := repository.NewSQLiteCategoryRepo(database)
	blends := repository.NewSQLiteBlendRepo(database)

	return &testServices{
		materials:    NewMaterialService(materials, categories, blends, uow, obs),
		categories:   NewCategoryService(categories, uow),
		blends:       NewBlendService(blends, materials, uow, "", obs),
		imports:      NewImportService(materials, blends, uow, "Ethanol", obs),
		observer:     obs,
		materialRepo: materials,
		blendRepo:    blends,
	}
}

func ownerCtx() context.Context {
	return WithOwner(context.Background(), testutil.Owner)
}

func otherCtx() context.Context {
	return WithOwner(context.Background(), "someone-else")
}

func (ts *testServices) material(t *testing.T, ctx context.Context, title string, opts ...testutil.MaterialOption) *domain.Material {
	t.Helper()
	m := testutil.NewTestMaterial(title, opts...)
	m.ID = ""
	require.NoError(t, ts.materials.Create(ctx, m))
	return m
}

func (ts *testServices) blend(t *testing.T, ctx context.Context, kind domain.BlendKind, title string) *domain.Blend {
	t.Helper()
	b, err := ts.blends.Create(ctx, kind, title)
	require.NoError(t, err)
	return b
}
