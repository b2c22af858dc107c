package service

import (
	"math"
	"testing"

	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlendService_CreateUsesDefaultDiluent(t *testing.T) {
	ts := setupServices(t)
	b := ts.blend(t, ownerCtx(), domain.BlendFormula, " Chypre ")

	assert.Equal(t, "Chypre", b.Title)
	assert.Equal(t, domain.DefaultDiluentName, b.Diluent.Name)
	assert.Zero(t, b.Diluent.Weight)

	_, err := ts.blends.Create(ownerCtx(), "perfume", "x")
	assert.Error(t, err)
}

func TestBlendService_AddMaterialLineUsesFirstDilution(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()
	m := ts.material(t, ctx, "Indole", testutil.WithDilutions(1, 10))
	b := ts.blend(t, ctx, domain.BlendAccord, "Jasmine")

	sheet, err := ts.blends.AddLine(ctx, b.ID, domain.LineMaterial, m.ID)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, 10.0, sheet.Rows[0].Dilution, "options are ordered strongest first")
	assert.Zero(t, sheet.Rows[0].Weight)
	assert.Equal(t, "Indole", sheet.Rows[0].Title)

	_, err = ts.blends.AddLine(ctx, b.ID, domain.LineMaterial, m.ID)
	assert.ErrorIs(t, err, domain.ErrDuplicateLine)
}

func TestBlendService_AddAccordLineUsesComputedConcentration(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()
	m := ts.material(t, ctx, "Phenylethyl Alcohol", testutil.WithDilutions(10))
	accord := ts.blend(t, ctx, domain.BlendAccord, "Rose")
	_, err := ts.blends.AddLine(ctx, accord.ID, domain.LineMaterial, m.ID)
	require.NoError(t, err)
	_, err = ts.blends.SetWeight(ctx, accord.ID, m.ID, 10)
	require.NoError(t, err)
	_, err = ts.blends.SetDiluent(ctx, accord.ID, "", 90)
	require.NoError(t, err)

	empty := ts.blend(t, ctx, domain.BlendAccord, "Empty")
	formula := ts.blend(t, ctx, domain.BlendFormula, "Rose Soliflore")

	sheet, err := ts.blends.AddLine(ctx, formula.ID, domain.LineAccord, accord.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sheet.Rows[0].Dilution, 1e-9)
	assert.Equal(t, "Rose", sheet.Rows[0].Title)

	sheet, err = ts.blends.AddLine(ctx, formula.ID, domain.LineAccord, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sheet.Rows[1].Dilution)
}

func TestBlendService_AccordsOnlyHoldMaterials(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()
	inner := ts.blend(t, ctx, domain.BlendAccord, "Inner")
	outer := ts.blend(t, ctx, domain.BlendAccord, "Outer")
	formula := ts.blend(t, ctx, domain.BlendFormula, "F")

	_, err := ts.blends.AddLine(ctx, outer.ID, domain.LineAccord, inner.ID)
	assert.ErrorIs(t, err, domain.ErrLineKindNotAllowed)

	_, err = ts.blends.AddLine(ctx, formula.ID, domain.LineAccord, formula.ID)
	assert.Error(t, err)
}

func TestBlendService_AddLineRejectsArchivedAndPrivateReferences(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()
	archived := ts.material(t, ctx, "Old Stock")
	require.NoError(t, ts.materials.Archive(ctx, archived.ID))
	private := ts.material(t, otherCtx(), "Their Material")
	b := ts.blend(t, ctx, domain.BlendFormula, "F")

	_, err := ts.blends.AddLine(ctx, b.ID, domain.LineMaterial, archived.ID)
	assert.ErrorIs(t, err, ErrArchived)

	_, err = ts.blends.AddLine(ctx, b.ID, domain.LineMaterial, private.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBlendService_SetDilution(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()
	m := ts.material(t, ctx, "Ambrox", testutil.WithDilutions(100, 10))
	accord := ts.blend(t, ctx, domain.BlendAccord, "Amber")
	formula := ts.blend(t, ctx, domain.BlendFormula, "F")
	_, err := ts.blends.AddLine(ctx, formula.ID, domain.LineMaterial, m.ID)
	require.NoError(t, err)
	_, err = ts.blends.AddLine(ctx, formula.ID, domain.LineAccord, accord.ID)
	require.NoError(t, err)

	sheet, err := ts.blends.SetDilution(ctx, formula.ID, m.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, sheet.Rows[0].Dilution)

	_, err = ts.blends.SetDilution(ctx, formula.ID, m.ID, 5)
	assert.ErrorIs(t, err, ErrDilutionNotOffered)

	_, err = ts.blends.SetDilution(ctx, formula.ID, accord.ID, 50)
	assert.ErrorIs(t, err, ErrAccordLineFixed)

	_, err = ts.blends.SetDilution(ctx, formula.ID, "missing", 10)
	assert.ErrorIs(t, err, domain.ErrLineNotFound)
}

// buildFormula creates 10 g of a 10% material plus 90 g diluent.
func buildFormula(t *testing.T, ts *testServices, opts ...testutil.MaterialOption) (*domain.Blend, *domain.Material) {
	t.Helper()
	ctx := ownerCtx()
	m := ts.material(t, ctx, "Coumarin", append([]testutil.MaterialOption{testutil.WithDilutions(10)}, opts...)...)
	b := ts.blend(t, ctx, domain.BlendFormula, "Fougere")
	_, err := ts.blends.AddLine(ctx, b.ID, domain.LineMaterial, m.ID)
	require.NoError(t, err)
	_, err = ts.blends.SetWeight(ctx, b.ID, m.ID, 10)
	require.NoError(t, err)
	_, err = ts.blends.SetDiluent(ctx, b.ID, "Ethanol", 90)
	require.NoError(t, err)
	return b, m
}

func TestBlendService_Sheet(t *testing.T) {
	ts := setupServices(t)
	b, _ := buildFormula(t, ts, testutil.WithIFRALimit(0.5))

	sheet, err := ts.blends.Sheet(ownerCtx(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sheet.Totals.TotalWeight)
	assert.InDelta(t, 1.0, sheet.Totals.FinalDilution, 1e-9)
	require.Len(t, sheet.Rows, 1)
	assert.InDelta(t, 10.0, sheet.Rows[0].Percent, 1e-9)
	assert.InDelta(t, 1.0, sheet.Rows[0].PurePercent, 1e-9)
	assert.False(t, sheet.Rows[0].Compliant, "1% pure exceeds the 0.5% limit")
	assert.False(t, sheet.Compliant())
	assert.Equal(t, "Ethanol", sheet.Blend.Diluent.Name)
}

func TestBlendService_SheetShowsMissingReferences(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()
	b := testutil.NewTestBlend(domain.BlendFormula, "Orphan", testutil.WithLine("gone", domain.LineMaterial, 5, 100))
	require.NoError(t, ts.blendRepo.Create(ctx, b))

	sheet, err := ts.blends.Sheet(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "(missing)", sheet.Rows[0].Title)
	assert.True(t, sheet.Rows[0].Compliant)
}

func TestBlendService_ScaleToWeightPersists(t *testing.T) {
	ts := setupServices(t)
	b, m := buildFormula(t, ts)

	sheet, err := ts.blends.ScaleToWeight(ownerCtx(), b.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, 200.0, sheet.Totals.TotalWeight)
	assert.InDelta(t, 1.0, sheet.Totals.FinalDilution, 1e-9)

	stored, err := ts.blendRepo.GetByID(ownerCtx(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, stored.Lines[0].Weight)
	assert.Equal(t, m.ID, stored.Lines[0].RefID)
	assert.Equal(t, 180.0, stored.Diluent.Weight)
	assert.Contains(t, ts.observer.names(), "blend-scale-weight")
}

func TestBlendService_ScaleToDilutionPersists(t *testing.T) {
	ts := setupServices(t)
	b, _ := buildFormula(t, ts)

	sheet, err := ts.blends.ScaleToDilution(ownerCtx(), b.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 20.0, sheet.Totals.TotalWeight)
	assert.Equal(t, 10.0, sheet.Snapshot.Diluent.Weight)

	stored, err := ts.blendRepo.GetByID(ownerCtx(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.Lines[0].Weight, "only the diluent changes")
	assert.Equal(t, 10.0, stored.Diluent.Weight)
}

func TestBlendService_ScaleErrorsPassThroughAndKeepBlend(t *testing.T) {
	ts := setupServices(t)
	b, _ := buildFormula(t, ts)
	ctx := ownerCtx()

	_, err := ts.blends.ScaleToDilution(ctx, b.ID, 20)
	assert.ErrorIs(t, err, calc.ErrUnreachableConcentration)

	_, err = ts.blends.ScaleToDilution(ctx, b.ID, 0)
	assert.ErrorIs(t, err, calc.ErrInvalidArgument)

	_, err = ts.blends.ScaleToWeight(ctx, b.ID, -5)
	assert.ErrorIs(t, err, calc.ErrInvalidArgument)

	stored, err := ts.blendRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.Lines[0].Weight)
	assert.Equal(t, 90.0, stored.Diluent.Weight)

	empty := ts.blend(t, ctx, domain.BlendFormula, "Empty")
	_, err = ts.blends.ScaleToWeight(ctx, empty.ID, 100)
	assert.ErrorIs(t, err, calc.ErrInvalidScaleOperation)
}

func TestBlendService_SaveSnapshot(t *testing.T) {
	ts := setupServices(t)
	b, _ := buildFormula(t, ts)
	ctx := ownerCtx()

	sheet, err := ts.blends.Sheet(ctx, b.ID)
	require.NoError(t, err)
	snap := sheet.Snapshot.Clone()
	snap.Lines[0].Weight = 12.34567
	snap.Diluent.Weight = 50

	saved, err := ts.blends.SaveSnapshot(ctx, b.ID, snap)
	require.NoError(t, err)
	assert.Equal(t, 12.346, saved.Rows[0].Weight)
	assert.Equal(t, 50.0, saved.Blend.Diluent.Weight)

	snap.Lines = nil
	_, err = ts.blends.SaveSnapshot(ctx, b.ID, snap)
	assert.Error(t, err)
}

func TestBlendService_SaveSnapshotHoldsDilutionRules(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()
	m := ts.material(t, ctx, "Indole", testutil.WithDilutions(10, 1))
	accord := ts.blend(t, ctx, domain.BlendAccord, "Jasmine")
	formula := ts.blend(t, ctx, domain.BlendFormula, "White Floral")
	_, err := ts.blends.AddLine(ctx, formula.ID, domain.LineMaterial, m.ID)
	require.NoError(t, err)
	sheet, err := ts.blends.AddLine(ctx, formula.ID, domain.LineAccord, accord.ID)
	require.NoError(t, err)

	offNumber := sheet.Snapshot.Clone()
	offNumber.Lines[0].Dilution = 37.5
	_, err = ts.blends.SaveSnapshot(ctx, formula.ID, offNumber)
	assert.ErrorIs(t, err, ErrDilutionNotOffered)

	accordChanged := sheet.Snapshot.Clone()
	accordChanged.Lines[1].Dilution = 50
	_, err = ts.blends.SaveSnapshot(ctx, formula.ID, accordChanged)
	assert.ErrorIs(t, err, ErrAccordLineFixed)

	stored, err := ts.blends.Sheet(ctx, formula.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.Rows[0].Dilution)
	assert.Equal(t, 100.0, stored.Rows[1].Dilution)

	offered := sheet.Snapshot.Clone()
	offered.Lines[0].Dilution = 1
	offered.Lines[0].Weight = 4
	saved, err := ts.blends.SaveSnapshot(ctx, formula.ID, offered)
	require.NoError(t, err)
	assert.Equal(t, 1.0, saved.Rows[0].Dilution)
	assert.Equal(t, 4.0, saved.Rows[0].Weight)
}

func TestBlendService_RejectsNonFiniteWeights(t *testing.T) {
	ts := setupServices(t)
	b, m := buildFormula(t, ts)
	ctx := ownerCtx()

	_, err := ts.blends.SetWeight(ctx, b.ID, m.ID, math.Inf(1))
	assert.Error(t, err)
	_, err = ts.blends.SetDiluent(ctx, b.ID, "", math.Inf(1))
	assert.Error(t, err)
	_, err = ts.blends.SetWeight(ctx, b.ID, m.ID, math.NaN())
	assert.Error(t, err)

	sheet, err := ts.blends.Sheet(ctx, b.ID)
	require.NoError(t, err)
	snap := sheet.Snapshot.Clone()
	snap.Diluent.Weight = math.Inf(1)
	_, err = ts.blends.SaveSnapshot(ctx, b.ID, snap)
	assert.ErrorIs(t, err, calc.ErrInvalidArgument)

	sheet, err = ts.blends.Sheet(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sheet.Totals.TotalWeight)
	assert.InDelta(t, 1.0, sheet.Totals.FinalDilution, 1e-9)
}

func TestBlendService_RemoveLine(t *testing.T) {
	ts := setupServices(t)
	b, m := buildFormula(t, ts)

	sheet, err := ts.blends.RemoveLine(ownerCtx(), b.ID, m.ID)
	require.NoError(t, err)
	assert.Empty(t, sheet.Rows)
	assert.Equal(t, 90.0, sheet.Totals.TotalWeight)
}

func TestBlendService_PublishedBlendsAreReadableButNotEditable(t *testing.T) {
	ts := setupServices(t)
	b, m := buildFormula(t, ts)
	published := true
	_, err := ts.blends.Update(ownerCtx(), b.ID, BlendPatch{IsPublished: &published})
	require.NoError(t, err)

	sheet, err := ts.blends.Sheet(otherCtx(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fougere", sheet.Blend.Title)

	_, err = ts.blends.SetWeight(otherCtx(), b.ID, m.ID, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = ts.blends.ScaleToWeight(otherCtx(), b.ID, 50)
	assert.ErrorIs(t, err, ErrUnauthorized)

	private := ts.blend(t, ownerCtx(), domain.BlendFormula, "Private")
	_, err = ts.blends.Get(otherCtx(), private.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBlendService_DuplicateIntoCallersCatalog(t *testing.T) {
	ts := setupServices(t)
	b, _ := buildFormula(t, ts)
	published := true
	_, err := ts.blends.Update(ownerCtx(), b.ID, BlendPatch{IsPublished: &published})
	require.NoError(t, err)

	dup, err := ts.blends.Duplicate(otherCtx(), b.ID)
	require.NoError(t, err)
	assert.NotEqual(t, b.ID, dup.ID)
	assert.Equal(t, "Fougere (copy)", dup.Title)
	assert.Equal(t, "someone-else", dup.OwnerID)
	assert.False(t, dup.IsPublished)
	assert.Nil(t, dup.ArchivedAt)

	stored, err := ts.blendRepo.GetByID(ownerCtx(), dup.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, 10.0, stored.Lines[0].Weight)
	assert.Equal(t, 90.0, stored.Diluent.Weight)
}

func TestBlendService_UpdateArchiveRestoreList(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()
	accord := ts.blend(t, ctx, domain.BlendAccord, "Rose")
	formula := ts.blend(t, ctx, domain.BlendFormula, "Chypre")

	title, note, base := "Rose de Mai", "needs more citronellol", true
	updated, err := ts.blends.Update(ctx, accord.ID, BlendPatch{Title: &title, Note: &note, IsBase: &base})
	require.NoError(t, err)
	assert.Equal(t, "Rose de Mai", updated.Title)
	assert.True(t, updated.IsBase)

	require.NoError(t, ts.blends.Archive(ctx, formula.ID))
	active, err := ts.blends.List(ctx, BlendListFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, accord.ID, active[0].ID)

	archived, err := ts.blends.List(ctx, BlendListFilter{Kind: domain.BlendFormula, OnlyArchived: true})
	require.NoError(t, err)
	require.Len(t, archived, 1)

	require.NoError(t, ts.blends.Restore(ctx, formula.ID))
	all, err := ts.blends.List(ctx, BlendListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBlendService_DeleteRefusesAccordInUse(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()
	accord := ts.blend(t, ctx, domain.BlendAccord, "Amber")
	formula := ts.blend(t, ctx, domain.BlendFormula, "Oriental")
	_, err := ts.blends.AddLine(ctx, formula.ID, domain.LineAccord, accord.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, ts.blends.Delete(ctx, accord.ID), ErrAccordInUse)
	require.NoError(t, ts.blends.Delete(ctx, formula.ID))
	require.NoError(t, ts.blends.Delete(ctx, accord.ID))
}

func TestBlendService_BulkDeleteIsAllOrNothing(t *testing.T) {
	ts := setupServices(t)
	mine1 := ts.blend(t, ownerCtx(), domain.BlendFormula, "A")
	mine2 := ts.blend(t, ownerCtx(), domain.BlendFormula, "B")
	theirs := ts.blend(t, otherCtx(), domain.BlendFormula, "C")

	_, err := ts.blends.BulkDelete(ownerCtx(), []string{mine1.ID, theirs.ID, mine2.ID})
	assert.ErrorIs(t, err, ErrUnauthorized)

	list, err := ts.blends.List(ownerCtx(), BlendListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	n, err := ts.blends.BulkDelete(ownerCtx(), []string{mine1.ID, mine2.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err = ts.blends.List(ownerCtx(), BlendListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
