package service

import (
	"testing"

	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_EnsureDefaultsIsIdempotent(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()

	require.NoError(t, ts.categories.EnsureDefaults(ctx))
	require.NoError(t, ts.categories.EnsureDefaults(ctx))

	list, err := ts.categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(domain.DefaultCategories()))
	for _, c := range list {
		assert.False(t, c.IsCustom)
	}

	other, err := ts.categories.List(otherCtx())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCategoryService_Create(t *testing.T) {
	ts := setupServices(t)
	ctx := ownerCtx()

	c, err := ts.categories.Create(ctx, "Animalic", "")
	require.NoError(t, err)
	assert.True(t, c.IsCustom)
	assert.Equal(t, defaultCategoryColor, c.Color)

	_, err = ts.categories.Create(ctx, "animalic", "#ffffff")
	assert.Error(t, err)

	_, err = ts.categories.Create(ctx, "Leather", "brown")
	assert.Error(t, err)

	_, err = ts.categories.Create(ctx, " ", "")
	assert.Error(t, err)
}
