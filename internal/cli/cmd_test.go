package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexanderramin/sillage/internal/config"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/repository"
	"github.com/alexanderramin/sillage/internal/service"
	"github.com/alexanderramin/sillage/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires a full App backed by an in-memory catalog for CLI tests.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	materials := repository.NewSQLiteMaterialRepo(database)
	categories := repository.NewSQLiteCategoryRepo(database)
	blends := repository.NewSQLiteBlendRepo(database)

	app := &App{
		Materials:  service.NewMaterialService(materials, categories, blends, uow),
		Categories: service.NewCategoryService(categories, uow),
		Blends:     service.NewBlendService(blends, materials, uow, domain.DefaultDiluentName),
		Import:     service.NewImportService(materials, blends, uow, domain.DefaultDiluentName),
		Owner:      testutil.Owner,
		Config: config.Config{
			DBPath:         ":memory:",
			Owner:          testutil.Owner,
			LogLevel:       "info",
			DefaultDiluent: domain.DefaultDiluentName,
		},
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
	}
	require.NoError(t, app.Categories.EnsureDefaults(ownerCtx()))
	return app
}

func ownerCtx() context.Context {
	return service.WithOwner(context.Background(), testutil.Owner)
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func mustExecute(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "sillage %s\n%s", strings.Join(args, " "), out)
	return out
}

// fakePrompter answers prompts from fixed values and records the titles.
type fakePrompter struct {
	input   string
	confirm bool
	asked   []string
}

func (p *fakePrompter) Input(title, _ string, validate func(string) error) (string, error) {
	p.asked = append(p.asked, title)
	if err := validate(p.input); err != nil {
		return "", err
	}
	return p.input, nil
}

func (p *fakePrompter) Confirm(title string) (bool, error) {
	p.asked = append(p.asked, title)
	return p.confirm, nil
}

func interactive(app *App, p *fakePrompter) {
	app.IsInteractive = func() bool { return true }
	app.Prompter = p
}

// seedFormula creates Bergamot at 100% and a "Chypre" formula holding 10 g of
// it plus 90 g of diluent.
func seedFormula(t *testing.T, app *App) (formulaID, materialID string) {
	t.Helper()
	ctx := ownerCtx()
	m := &domain.Material{Title: "Bergamot", Dilutions: []float64{100}}
	require.NoError(t, app.Materials.Create(ctx, m))
	b, err := app.Blends.Create(ctx, domain.BlendFormula, "Chypre")
	require.NoError(t, err)
	_, err = app.Blends.AddLine(ctx, b.ID, domain.LineMaterial, m.ID)
	require.NoError(t, err)
	_, err = app.Blends.SetWeight(ctx, b.ID, m.ID, 10)
	require.NoError(t, err)
	_, err = app.Blends.SetDiluent(ctx, b.ID, "Ethanol", 90)
	require.NoError(t, err)
	return b.ID, m.ID
}

func weightOf(t *testing.T, app *App, blendID, refID string) float64 {
	t.Helper()
	sheet, err := app.Blends.Sheet(ownerCtx(), blendID)
	require.NoError(t, err)
	for _, r := range sheet.Rows {
		if r.RefID == refID {
			return r.Weight
		}
	}
	t.Fatalf("line %s not on sheet", refID)
	return 0
}

// --- Materials ---

func TestMaterialCmd_AddAndList(t *testing.T) {
	app := testApp(t)

	out := mustExecute(t, app, "material", "add", "--title", "Hedione",
		"--category", "floral", "--pyramid", "heart", "--ifra", "20%", "--dilutions", "100,10")
	assert.Contains(t, out, "Added material Hedione")

	out = mustExecute(t, app, "material", "list")
	assert.Contains(t, out, "Hedione")
	assert.Contains(t, out, "Floral")
	assert.Contains(t, out, "100%, 10%")
}

func TestMaterialCmd_AddRejectsBadPercent(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "material", "add", "--title", "Iso E Super", "--ifra", "120")
	require.Error(t, err)

	_, err = executeCmd(t, app, "material", "add", "--title", "Iso E Super", "--dilutions", "0")
	require.Error(t, err)

	_, err = executeCmd(t, app, "material", "add", "--title", "Iso E Super", "--ifra", "nan")
	require.Error(t, err)

	_, err = executeCmd(t, app, "material", "add", "--title", "Iso E Super", "--dilutions", "inf")
	require.Error(t, err)

	out := mustExecute(t, app, "material", "list")
	assert.NotContains(t, out, "Iso E Super")
}

func TestMaterialCmd_AddRequiresTitle(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "material", "add", "--cas", "54464-57-2")
	assert.Error(t, err)
}

func TestMaterialCmd_InspectByTitle(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Ambroxan", "--cas", "6790-58-5", "--obtained", "2024-03-01")

	out := mustExecute(t, app, "material", "inspect", "ambroxan")
	assert.Contains(t, out, "Ambroxan")
	assert.Contains(t, out, "6790-58-5")
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "Private")
}

func TestMaterialCmd_UpdateAndClear(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Vanillin", "--cas", "121-33-5", "--alt-name", "Vanilla")

	mustExecute(t, app, "material", "update", "Vanillin", "--ifra", "5", "--clear", "cas,alt_name")

	materials, err := app.Materials.Search(ownerCtx(), "vanillin")
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, 5.0, materials[0].IFRALimit)
	assert.Empty(t, materials[0].CAS)
	assert.Empty(t, materials[0].AltName)
}

func TestMaterialCmd_Dilutions(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Indole")

	out := mustExecute(t, app, "material", "dilutions", "Indole", "1", "10%")
	assert.Contains(t, out, "Indole is available at 10%, 1%")
}

func TestMaterialCmd_ArchiveHidesFromList(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Civet")

	mustExecute(t, app, "material", "archive", "Civet")
	out := mustExecute(t, app, "material", "list")
	assert.NotContains(t, out, "Civet")

	out = mustExecute(t, app, "material", "list", "--all")
	assert.Contains(t, out, "Civet (archived)")

	mustExecute(t, app, "material", "restore", "Civet")
	out = mustExecute(t, app, "material", "list")
	assert.Contains(t, out, "Civet")
}

func TestMaterialCmd_RemoveNeedsYesWhenNotInteractive(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Coumarin")

	_, err := executeCmd(t, app, "material", "remove", "Coumarin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out := mustExecute(t, app, "material", "remove", "Coumarin", "--yes")
	assert.Contains(t, out, "Deleted material")
}

func TestMaterialCmd_RemoveAsksOnTerminal(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Coumarin")

	p := &fakePrompter{confirm: false}
	interactive(app, p)
	_, err := executeCmd(t, app, "material", "remove", "Coumarin")
	require.Error(t, err)
	assert.Equal(t, "cancelled", err.Error())
	require.Len(t, p.asked, 1)

	p.confirm = true
	mustExecute(t, app, "material", "remove", "Coumarin")
	out := mustExecute(t, app, "material", "list", "--all")
	assert.NotContains(t, out, "Coumarin")
}

func TestMaterialCmd_RemoveInUseFails(t *testing.T) {
	app := testApp(t)
	seedFormula(t, app)

	_, err := executeCmd(t, app, "material", "remove", "Bergamot", "--yes")
	assert.Error(t, err)
}

func TestMaterialCmd_Search(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Iso E Super", "--cas", "54464-57-2")
	mustExecute(t, app, "material", "add", "--title", "Hedione")

	out := mustExecute(t, app, "material", "search", "54464")
	assert.Contains(t, out, "Iso E Super")
	assert.NotContains(t, out, "Hedione")
}

func TestCategoryCmd_ListAndAdd(t *testing.T) {
	app := testApp(t)

	out := mustExecute(t, app, "category", "list")
	assert.Contains(t, out, "Citrus")
	assert.Contains(t, out, "built-in")

	mustExecute(t, app, "category", "add", "Gourmand", "--color", "#d65d0e")
	out = mustExecute(t, app, "category", "list")
	assert.Contains(t, out, "Gourmand")
	assert.Contains(t, out, "custom")

	_, err := executeCmd(t, app, "category", "add", "Leather", "--color", "brown")
	assert.Error(t, err)
}

// --- Blends ---

func TestFormulaCmd_NewAndList(t *testing.T) {
	app := testApp(t)

	out := mustExecute(t, app, "formula", "new", "Green", "Chypre")
	assert.Contains(t, out, "Created formula Green Chypre")

	out = mustExecute(t, app, "formula", "list")
	assert.Contains(t, out, "Formulas")
	assert.Contains(t, out, "Green Chypre")

	out = mustExecute(t, app, "accord", "list")
	assert.Contains(t, out, "No accords found.")
}

func TestFormulaCmd_BuildSheet(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Bergamot")
	mustExecute(t, app, "formula", "new", "Chypre")

	out := mustExecute(t, app, "formula", "add", "Chypre", "Bergamot", "--weight", "10")
	assert.Contains(t, out, "Bergamot")
	assert.Contains(t, out, "10 g")

	out = mustExecute(t, app, "formula", "diluent", "Chypre", "--name", "Ethanol", "--weight", "90")
	assert.Contains(t, out, "Ethanol")
	assert.Contains(t, out, "Final")
	assert.Contains(t, out, "100 g")
	assert.Contains(t, out, "10.00%")
}

func TestFormulaCmd_DiluentKeepsUnsetValues(t *testing.T) {
	app := testApp(t)
	id, _ := seedFormula(t, app)

	mustExecute(t, app, "formula", "diluent", "Chypre", "--weight", "40")

	sheet, err := app.Blends.Sheet(ownerCtx(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ethanol", sheet.Snapshot.Diluent.Name)
	assert.Equal(t, 40.0, sheet.Snapshot.Diluent.Weight)
}

func TestFormulaCmd_WeightAndDrop(t *testing.T) {
	app := testApp(t)
	id, mid := seedFormula(t, app)

	mustExecute(t, app, "formula", "weight", "Chypre", "bergamot", "25g")
	assert.Equal(t, 25.0, weightOf(t, app, id, mid))

	for _, bad := range []string{"-1", "inf", "NaN", "+Inf"} {
		_, err := executeCmd(t, app, "formula", "weight", "Chypre", "bergamot", bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, 25.0, weightOf(t, app, id, mid))

	_, err := executeCmd(t, app, "formula", "diluent", "Chypre", "--weight", "inf")
	assert.Error(t, err)

	out := mustExecute(t, app, "formula", "drop", "Chypre", "Bergamot")
	assert.NotContains(t, out, "Bergamot")
}

func TestFormulaCmd_DilutionMustBeAnOption(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Indole", "--dilutions", "10,1")
	mustExecute(t, app, "formula", "new", "Jasmine Sambac")
	mustExecute(t, app, "formula", "add", "Jasmine Sambac", "Indole")

	out := mustExecute(t, app, "formula", "dilution", "Jasmine Sambac", "Indole", "1")
	assert.Contains(t, out, "1.00%")

	_, err := executeCmd(t, app, "formula", "dilution", "Jasmine Sambac", "Indole", "5")
	assert.Error(t, err)
}

func TestFormulaCmd_AddAccord(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Hedione")
	mustExecute(t, app, "accord", "new", "Jasmine")
	mustExecute(t, app, "accord", "add", "Jasmine", "Hedione", "--weight", "5")
	mustExecute(t, app, "formula", "new", "Eau Fraiche")

	out := mustExecute(t, app, "formula", "add", "Eau Fraiche", "Jasmine", "--accord", "--weight", "2")
	assert.Contains(t, out, "Jasmine")
	assert.Contains(t, out, "accord")

	_, err := executeCmd(t, app, "accord", "add", "Jasmine", "Jasmine", "--accord")
	assert.Error(t, err, "accords have no --accord flag")
}

func TestFormulaCmd_ShowTreeAndIFRA(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Oakmoss", "--ifra", "0.1")
	mustExecute(t, app, "material", "add", "--title", "Hedione")
	mustExecute(t, app, "accord", "new", "Jasmine")
	mustExecute(t, app, "accord", "add", "Jasmine", "Hedione", "--weight", "5")
	mustExecute(t, app, "formula", "new", "Chypre")
	mustExecute(t, app, "formula", "add", "Chypre", "Oakmoss", "--weight", "1")
	mustExecute(t, app, "formula", "add", "Chypre", "Jasmine", "--accord", "--weight", "4")

	out := mustExecute(t, app, "formula", "show", "Chypre")
	assert.Contains(t, out, "1 ingredient exceeds its IFRA limit")

	out = mustExecute(t, app, "formula", "show", "Chypre", "--tree")
	assert.Contains(t, out, "Jasmine")
	assert.Contains(t, out, "Hedione")

	out = mustExecute(t, app, "formula", "show", "Chypre", "--ifra")
	assert.Contains(t, out, "Oakmoss")
	assert.NotContains(t, out, "Hedione")
}

func TestFormulaCmd_Scale(t *testing.T) {
	app := testApp(t)
	id, mid := seedFormula(t, app)

	out := mustExecute(t, app, "formula", "scale", "Chypre", "200")
	assert.Contains(t, out, "200 g")
	assert.Contains(t, out, "10.00%")
	assert.Equal(t, 20.0, weightOf(t, app, id, mid))
}

func TestFormulaCmd_ScaleNeedsValueWhenNotInteractive(t *testing.T) {
	app := testApp(t)
	seedFormula(t, app)

	_, err := executeCmd(t, app, "formula", "scale", "Chypre")
	assert.ErrorIs(t, err, errNeedsValue)
}

func TestFormulaCmd_ScalePromptsOnTerminal(t *testing.T) {
	app := testApp(t)
	id, mid := seedFormula(t, app)
	p := &fakePrompter{input: "50"}
	interactive(app, p)

	mustExecute(t, app, "formula", "scale", "Chypre")
	assert.Equal(t, []string{"Scale to total weight (g)"}, p.asked)
	assert.Equal(t, 5.0, weightOf(t, app, id, mid))
}

func TestFormulaCmd_Dilute(t *testing.T) {
	app := testApp(t)
	id, _ := seedFormula(t, app)

	out := mustExecute(t, app, "formula", "dilute", "Chypre", "5%")
	assert.Contains(t, out, "5.00%")

	sheet, err := app.Blends.Sheet(ownerCtx(), id)
	require.NoError(t, err)
	assert.InDelta(t, 190.0, sheet.Snapshot.Diluent.Weight, 1e-9)

	_, err = executeCmd(t, app, "formula", "dilute", "Chypre", "150")
	assert.Error(t, err)
}

func TestFormulaCmd_DiluteUnreachable(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Indole", "--dilutions", "10")
	mustExecute(t, app, "formula", "new", "Animalic")
	mustExecute(t, app, "formula", "add", "Animalic", "Indole", "--weight", "10")

	_, err := executeCmd(t, app, "formula", "dilute", "Animalic", "20")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not possible to scale to the desired dilution")
}

func TestFormulaCmd_ResolveErrors(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "formula", "new", "Fougere")
	mustExecute(t, app, "formula", "new", "fougere")

	_, err := executeCmd(t, app, "formula", "show", "Fougere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = executeCmd(t, app, "formula", "show", "Cologne")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = executeCmd(t, app, "accord", "show", "Fougere")
	assert.Error(t, err, "formulas are not listed as accords")
}

func TestFormulaCmd_ArchiveRestore(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "formula", "new", "Cologne")

	mustExecute(t, app, "formula", "archive", "Cologne")
	out := mustExecute(t, app, "formula", "list")
	assert.NotContains(t, out, "Cologne")
	out = mustExecute(t, app, "formula", "list", "--archived")
	assert.Contains(t, out, "Archived")

	mustExecute(t, app, "formula", "restore", "Cologne")
	out = mustExecute(t, app, "formula", "list")
	assert.Contains(t, out, "Cologne")
}

func TestFormulaCmd_RemoveMany(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "formula", "new", "One")
	mustExecute(t, app, "formula", "new", "Two")

	_, err := executeCmd(t, app, "formula", "remove", "One", "Two")
	require.Error(t, err)

	out := mustExecute(t, app, "formula", "remove", "One", "Two", "-y")
	assert.Contains(t, out, "Deleted 2 formulas")

	out = mustExecute(t, app, "formula", "list", "--all")
	assert.Contains(t, out, "No formulas found.")
}

func TestFormulaCmd_DuplicatePublishBaseRenameNote(t *testing.T) {
	app := testApp(t)
	seedFormula(t, app)

	out := mustExecute(t, app, "formula", "duplicate", "Chypre")
	assert.Contains(t, out, "Chypre (copy)")

	out = mustExecute(t, app, "formula", "publish", "Chypre")
	assert.Contains(t, out, "Published")
	out = mustExecute(t, app, "formula", "publish", "Chypre", "--undo")
	assert.Contains(t, out, "Private")

	out = mustExecute(t, app, "formula", "base", "Chypre")
	assert.Contains(t, out, "is now a base")

	mustExecute(t, app, "formula", "rename", "Chypre (copy)", "Chypre", "Two")
	mustExecute(t, app, "formula", "note", "Chypre Two", "needs", "more", "moss")

	out = mustExecute(t, app, "formula", "show", "Chypre Two")
	assert.Contains(t, out, "needs more moss")
}

// --- Import / export ---

func TestFormulaCmd_ExportThenImport(t *testing.T) {
	app := testApp(t)
	seedFormula(t, app)

	out := mustExecute(t, app, "formula", "export", "Chypre")
	assert.Contains(t, out, "title: Chypre")
	assert.Contains(t, out, "material: Bergamot")

	path := filepath.Join(t.TempDir(), "chypre.yaml")
	out = mustExecute(t, app, "formula", "export", "Chypre", "-o", path)
	assert.Contains(t, out, "Exported 1 materials and 1 blends")

	other := testApp(t)
	out = mustExecute(t, other, "import", path)
	assert.Contains(t, out, "Import complete")
	assert.Contains(t, out, "materials: 1 created, 0 reused")

	out = mustExecute(t, other, "formula", "show", "Chypre")
	assert.Contains(t, out, "100 g")
}

func TestImportCmd_InvalidFile(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("blends:\n  - kind: perfume\n"), 0o644))

	_, err := executeCmd(t, app, "import", path)
	assert.Error(t, err)

	out := mustExecute(t, app, "formula", "list", "--all")
	assert.Contains(t, out, "No formulas found.")
}

// --- Config ---

func TestConfigCmd_ShowAndInit(t *testing.T) {
	app := testApp(t)

	out := mustExecute(t, app, "config")
	assert.Contains(t, out, app.ConfigPath)
	assert.Contains(t, out, `owner = "perfumer"`)

	out = mustExecute(t, app, "config", "init")
	assert.Contains(t, out, "Wrote")

	saved, err := config.Load(app.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, testutil.Owner, saved.Owner)

	_, err = executeCmd(t, app, "config", "init")
	assert.Error(t, err)
	mustExecute(t, app, "config", "init", "--force")
}

// --- Owner ---

func TestOwnerFlag_SeparatesCatalogs(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "material", "add", "--title", "Bergamot")

	out := mustExecute(t, app, "--owner", "guest", "material", "list")
	assert.Contains(t, out, "No materials yet")
}
