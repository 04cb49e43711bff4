package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
)

func texts(versionID id.VersionID) []models.LocalizedText {
	return []models.LocalizedText{
		{VersionID: versionID, Language: models.LanguageNL},
		{VersionID: versionID, Language: models.LanguageEN},
	}
}

func TestVersionsEnforceInvariants(t *testing.T) {
	ctx := context.Background()
	store := NewVersions()
	productID := id.NewProductID()

	concept := &models.ProductVersion{ID: id.NewVersionID(), ProductID: productID, Version: 1}
	require.NoError(t, store.CreateVersion(ctx, concept, texts(concept.ID)))

	t.Run("duplicate version number", func(t *testing.T) {
		dup := &models.ProductVersion{ID: id.NewVersionID(), ProductID: productID, Version: 1}
		err := store.CreateVersion(ctx, dup, texts(dup.ID))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("second concept", func(t *testing.T) {
		second := &models.ProductVersion{ID: id.NewVersionID(), ProductID: productID, Version: 2}
		err := store.CreateVersion(ctx, second, texts(second.ID))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("published second version is fine", func(t *testing.T) {
		pub := models.Day(time.Now())
		second := &models.ProductVersion{
			ID: id.NewVersionID(), ProductID: productID, Version: 2,
			PublicationDate: &pub,
		}
		assert.NoError(t, store.CreateVersion(ctx, second, texts(second.ID)))
	})

	t.Run("duplicate language row", func(t *testing.T) {
		v := &models.ProductVersion{ID: id.NewVersionID(), ProductID: id.NewProductID(), Version: 1}
		bad := []models.LocalizedText{
			{VersionID: v.ID, Language: models.LanguageNL},
			{VersionID: v.ID, Language: models.LanguageNL},
		}
		err := store.CreateVersion(ctx, v, bad)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("text row for foreign version", func(t *testing.T) {
		v := &models.ProductVersion{ID: id.NewVersionID(), ProductID: id.NewProductID(), Version: 1}
		bad := []models.LocalizedText{{VersionID: id.NewVersionID(), Language: models.LanguageNL}}
		err := store.CreateVersion(ctx, v, bad)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})
}

func TestVersionsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := NewVersions()
	productID := id.NewProductID()

	v := &models.ProductVersion{ID: id.NewVersionID(), ProductID: productID, Version: 1, InternalRemarks: "origineel"}
	require.NoError(t, store.CreateVersion(ctx, v, texts(v.ID)))

	loaded, err := store.Versions(ctx, productID)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	loaded[0].InternalRemarks = "aangepast"

	again, err := store.Versions(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, "origineel", again[0].InternalRemarks)
}

func TestChangedSince(t *testing.T) {
	ctx := context.Background()
	store := NewVersions()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	old := &models.ProductVersion{
		ID: id.NewVersionID(), ProductID: id.NewProductID(), Version: 1,
		ModifiedAt: now.AddDate(0, 0, -10),
	}
	recent := &models.ProductVersion{
		ID: id.NewVersionID(), ProductID: id.NewProductID(), Version: 1,
		ModifiedAt: now.Add(-time.Hour),
	}
	require.NoError(t, store.CreateVersion(ctx, old, texts(old.ID)))
	require.NoError(t, store.CreateVersion(ctx, recent, texts(recent.ID)))

	changed, err := store.ChangedSince(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, recent.ID, changed[0].ID)
}

func TestProductsUniquePerCatalogFamily(t *testing.T) {
	ctx := context.Background()
	store := NewProducts()
	catalogID := id.NewCatalogID()
	genericID := id.NewGenericProductID()

	first := &models.Product{ID: id.NewProductID(), CatalogID: catalogID, GenericProductID: genericID}
	require.NoError(t, store.CreateProduct(ctx, first))

	shadow := &models.Product{ID: id.NewProductID(), CatalogID: catalogID, GenericProductID: genericID}
	assert.ErrorIs(t, store.CreateProduct(ctx, shadow), sentinel.ErrConflict)

	elsewhere := &models.Product{ID: id.NewProductID(), CatalogID: id.NewCatalogID(), GenericProductID: genericID}
	assert.NoError(t, store.CreateProduct(ctx, elsewhere))
}
