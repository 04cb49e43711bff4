package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/store/memory"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/requestcontext"
)

type SynchronizerSuite struct {
	suite.Suite
	orgs     *memory.Organizations
	catalogs *memory.Catalogs
	products *memory.Products
	versions *memory.Versions
	syncer   *Synchronizer

	today time.Time
	ctx   context.Context

	refCatalog *models.Catalog
	refProduct *models.Product
	refVersion *models.ProductVersion
	utrecht    *models.Organization
	amersfoort *models.Organization
}

func TestSynchronizerSuite(t *testing.T) {
	suite.Run(t, new(SynchronizerSuite))
}

func (s *SynchronizerSuite) SetupTest() {
	s.orgs = memory.NewOrganizations()
	s.catalogs = memory.NewCatalogs()
	s.products = memory.NewProducts()
	s.versions = memory.NewVersions()
	s.syncer = NewSynchronizer(s.orgs, s.catalogs, s.products, s.versions)

	s.today = time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.today)

	s.seedWorld()
}

func (s *SynchronizerSuite) seedWorld() {
	ctx := context.Background()

	national := &models.Organization{ID: id.NewOrganizationID(), Name: "Rijksoverheid"}
	national.ResponsibleID = national.ID
	s.Require().NoError(s.orgs.CreateOrganization(ctx, national))

	s.utrecht = &models.Organization{
		ID:          id.NewOrganizationID(),
		Name:        "Gemeente Utrecht",
		AutoCatalog: true,
	}
	s.utrecht.ResponsibleID = s.utrecht.ID
	s.Require().NoError(s.orgs.CreateOrganization(ctx, s.utrecht))

	s.amersfoort = &models.Organization{
		ID:          id.NewOrganizationID(),
		Name:        "Gemeente Amersfoort",
		AutoCatalog: true,
	}
	s.amersfoort.ResponsibleID = s.amersfoort.ID
	s.Require().NoError(s.orgs.CreateOrganization(ctx, s.amersfoort))

	// A body without auto catalogs stays out of the sweep.
	manual := &models.Organization{ID: id.NewOrganizationID(), Name: "Gemeente Zeist"}
	manual.ResponsibleID = manual.ID
	s.Require().NoError(s.orgs.CreateOrganization(ctx, manual))

	s.refCatalog = &models.Catalog{
		ID:             id.NewCatalogID(),
		OrganizationID: national.ID,
		Name:           "SDG Referentiecatalogus",
		Domain:         "sdg",
		Version:        1,
	}
	s.Require().NoError(s.catalogs.CreateCatalog(ctx, s.refCatalog))

	s.refProduct = &models.Product{
		ID:               id.NewProductID(),
		GenericProductID: id.NewGenericProductID(),
		CatalogID:        s.refCatalog.ID,
	}
	s.Require().NoError(s.products.CreateProduct(ctx, s.refProduct))

	pub := models.Day(s.today.AddDate(0, 0, -30))
	s.refVersion = &models.ProductVersion{
		ID:              id.NewVersionID(),
		ProductID:       s.refProduct.ID,
		Version:         1,
		PublicationDate: &pub,
		CreatedAt:       s.today.AddDate(0, 0, -30),
		ModifiedAt:      s.today.AddDate(0, 0, -30),
	}
	refTexts := []models.LocalizedText{
		{VersionID: s.refVersion.ID, Language: models.LanguageNL, Title: "Paspoort", Description: "landelijke tekst"},
		{VersionID: s.refVersion.ID, Language: models.LanguageEN, Title: "Passport", Description: "national text"},
	}
	s.Require().NoError(s.versions.CreateVersion(ctx, s.refVersion, refTexts))
}

// shadowOf resolves the shadow product the sweep made for a body.
func (s *SynchronizerSuite) shadowOf(body *models.Organization) *models.Product {
	catalog, err := s.catalogs.SpecificCatalog(s.ctx, s.refCatalog.ID, body.ID)
	s.Require().NoError(err)
	shadow, err := s.products.ShadowProduct(s.ctx, catalog.ID, s.refProduct.GenericProductID)
	s.Require().NoError(err)
	return shadow
}

func (s *SynchronizerSuite) TestSweepCreatesCatalogsAndShadows() {
	result, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)

	s.Equal(2, result.CatalogsCreated)
	s.Equal(2, result.ProductsCreated)
	s.Zero(result.TextsBackfilled)
	s.Zero(result.AutoSynced)
	s.Empty(result.Failures)

	for _, body := range []*models.Organization{s.utrecht, s.amersfoort} {
		catalog, err := s.catalogs.SpecificCatalog(s.ctx, s.refCatalog.ID, body.ID)
		s.Require().NoError(err)
		s.Equal(body.Name+" (SDG Referentiecatalogus)", catalog.Name)
		s.Equal("sdg", catalog.Domain)

		shadow := s.shadowOf(body)
		s.Require().NotNil(shadow.ReferenceProductID)
		s.Equal(s.refProduct.ID, *shadow.ReferenceProductID)

		versions, err := s.versions.Versions(s.ctx, shadow.ID)
		s.Require().NoError(err)
		s.Require().Len(versions, 1)
		s.Equal(1, versions[0].Version)
		s.Nil(versions[0].PublicationDate)

		texts, err := s.versions.TextsFor(s.ctx, versions[0].ID)
		s.Require().NoError(err)
		s.Require().Len(texts, 2)
		byLang := map[models.Language]models.LocalizedText{}
		for _, t := range texts {
			byLang[t.Language] = t
		}
		// Main texts come from the reference; toelichtingen start empty.
		s.Equal("landelijke tekst", byLang[models.LanguageNL].Description)
		s.Equal("national text", byLang[models.LanguageEN].Description)
		s.Empty(byLang[models.LanguageNL].AvailabilityNote)
	}

	// The body without auto catalogs got nothing.
	zeistCatalogs, err := s.catalogs.ReferenceCatalogs(s.ctx)
	s.Require().NoError(err)
	s.Len(zeistCatalogs, 1)
}

func (s *SynchronizerSuite) TestSweepIsIdempotent() {
	_, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)

	result, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)
	s.Zero(result.CatalogsCreated)
	s.Zero(result.ProductsCreated)
	s.Zero(result.TextsBackfilled)
	s.Zero(result.AutoSynced)
	s.Empty(result.Failures)
}

func (s *SynchronizerSuite) TestBackfillAddsMissingLanguageRows() {
	_, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)

	// Strip the English row from one shadow, as if the language was added
	// to the platform after the version was generated.
	shadow := s.shadowOf(s.utrecht)
	versions, err := s.versions.Versions(s.ctx, shadow.ID)
	s.Require().NoError(err)
	only := versions[0]
	s.Require().NoError(s.versions.UpdateVersion(s.ctx, only, []models.LocalizedText{
		{VersionID: only.ID, Language: models.LanguageNL, Title: "Paspoort", Description: "landelijke tekst"},
	}))

	result, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.TextsBackfilled)

	texts, err := s.versions.TextsFor(s.ctx, only.ID)
	s.Require().NoError(err)
	s.Len(texts, 2)
}

func (s *SynchronizerSuite) TestAutoSyncRefreshesUntouchedConcept() {
	_, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)

	// The reference publishes newer texts after the initial sweep.
	pub := models.Day(s.today.AddDate(0, 0, -1))
	newer := &models.ProductVersion{
		ID:              id.NewVersionID(),
		ProductID:       s.refProduct.ID,
		Version:         2,
		PublicationDate: &pub,
		CreatedAt:       s.today.Add(time.Hour),
		ModifiedAt:      s.today.Add(time.Hour),
	}
	s.Require().NoError(s.versions.CreateVersion(s.ctx, newer, []models.LocalizedText{
		{VersionID: newer.ID, Language: models.LanguageNL, Title: "Paspoort", Description: "herziene tekst"},
		{VersionID: newer.ID, Language: models.LanguageEN, Title: "Passport", Description: "revised text"},
	}))

	// Next day's sweep refreshes the untouched concepts.
	nextDay := requestcontext.WithTime(context.Background(), s.today.AddDate(0, 0, 1))
	result, err := s.syncer.Run(nextDay)
	s.Require().NoError(err)
	s.Equal(2, result.AutoSynced)

	shadow := s.shadowOf(s.utrecht)
	versions, err := s.versions.Versions(s.ctx, shadow.ID)
	s.Require().NoError(err)
	s.Require().Len(versions, 1)
	only := versions[0]

	texts, err := s.versions.TextsFor(s.ctx, only.ID)
	s.Require().NoError(err)
	byLang := map[models.Language]models.LocalizedText{}
	for _, t := range texts {
		byLang[t.Language] = t
	}
	s.Equal("herziene tekst", byLang[models.LanguageNL].Description)

	// Timestamps stay put so the concept keeps counting as untouched for
	// later sweeps.
	s.True(only.Untouched())
	s.Equal(s.today, only.CreatedAt)
	s.Equal(s.today, only.ModifiedAt)
}

func (s *SynchronizerSuite) TestAutoSyncSkipsHumanEditedConcept() {
	_, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)

	// A redactor edits the Utrecht concept.
	shadow := s.shadowOf(s.utrecht)
	versions, err := s.versions.Versions(s.ctx, shadow.ID)
	s.Require().NoError(err)
	edited := versions[0]
	edited.ModifiedAt = edited.CreatedAt.Add(2 * time.Hour)
	texts, err := s.versions.TextsFor(s.ctx, edited.ID)
	s.Require().NoError(err)
	texts[0].Description = "eigen tekst"
	s.Require().NoError(s.versions.UpdateVersion(s.ctx, edited, texts))

	// The reference publishes newer texts.
	pub := models.Day(s.today)
	newer := &models.ProductVersion{
		ID:              id.NewVersionID(),
		ProductID:       s.refProduct.ID,
		Version:         2,
		PublicationDate: &pub,
		CreatedAt:       s.today.Add(3 * time.Hour),
		ModifiedAt:      s.today.Add(3 * time.Hour),
	}
	s.Require().NoError(s.versions.CreateVersion(s.ctx, newer, []models.LocalizedText{
		{VersionID: newer.ID, Language: models.LanguageNL, Title: "Paspoort", Description: "herziene tekst"},
		{VersionID: newer.ID, Language: models.LanguageEN, Title: "Passport", Description: "revised text"},
	}))

	nextDay := requestcontext.WithTime(context.Background(), s.today.AddDate(0, 0, 1))
	result, err := s.syncer.Run(nextDay)
	s.Require().NoError(err)

	// Amersfoort's untouched concept synced; Utrecht's edited one did not.
	s.Equal(1, result.AutoSynced)

	kept, err := s.versions.TextsFor(s.ctx, edited.ID)
	s.Require().NoError(err)
	byLang := map[models.Language]models.LocalizedText{}
	for _, t := range kept {
		byLang[t.Language] = t
	}
	s.Equal("eigen tekst", byLang[models.LanguageNL].Description)
}

// recordingRunner counts transaction scopes so tests can assert a write ran
// inside one.
type recordingRunner struct{ calls int }

func (r *recordingRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

func (s *SynchronizerSuite) TestCorrectiveWritesRunInTransactions() {
	runner := &recordingRunner{}
	s.syncer = NewSynchronizer(s.orgs, s.catalogs, s.products, s.versions,
		WithTxRunner(runner))

	_, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)
	// One scope per shadow product plus its initial version.
	s.Equal(2, runner.calls)

	// Strip a language row: the backfill rewrites all text rows, so it has
	// to happen inside a transaction or a failure loses the existing rows.
	shadow := s.shadowOf(s.utrecht)
	versions, err := s.versions.Versions(s.ctx, shadow.ID)
	s.Require().NoError(err)
	only := versions[0]
	s.Require().NoError(s.versions.UpdateVersion(s.ctx, only, []models.LocalizedText{
		{VersionID: only.ID, Language: models.LanguageNL, Title: "Paspoort", Description: "landelijke tekst"},
	}))

	result, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.TextsBackfilled)
	s.Equal(3, runner.calls)

	// The auto-sync refresh rewrites text rows the same way.
	pub := models.Day(s.today)
	newer := &models.ProductVersion{
		ID:              id.NewVersionID(),
		ProductID:       s.refProduct.ID,
		Version:         2,
		PublicationDate: &pub,
		CreatedAt:       s.today.Add(time.Hour),
		ModifiedAt:      s.today.Add(time.Hour),
	}
	s.Require().NoError(s.versions.CreateVersion(s.ctx, newer, []models.LocalizedText{
		{VersionID: newer.ID, Language: models.LanguageNL, Title: "Paspoort", Description: "herziene tekst"},
		{VersionID: newer.ID, Language: models.LanguageEN, Title: "Passport", Description: "revised text"},
	}))

	nextDay := requestcontext.WithTime(context.Background(), s.today.AddDate(0, 0, 1))
	result, err = s.syncer.Run(nextDay)
	s.Require().NoError(err)
	s.Equal(2, result.AutoSynced)
	s.Equal(5, runner.calls)
}

func (s *SynchronizerSuite) TestReferenceProductWithoutActiveVersion() {
	// A second reference product that only has a concept.
	bare := &models.Product{
		ID:               id.NewProductID(),
		GenericProductID: id.NewGenericProductID(),
		CatalogID:        s.refCatalog.ID,
	}
	s.Require().NoError(s.products.CreateProduct(context.Background(), bare))
	concept := &models.ProductVersion{
		ID:         id.NewVersionID(),
		ProductID:  bare.ID,
		Version:    1,
		CreatedAt:  s.today.AddDate(0, 0, -1),
		ModifiedAt: s.today.AddDate(0, 0, -1),
	}
	s.Require().NoError(s.versions.CreateVersion(context.Background(), concept, []models.LocalizedText{
		{VersionID: concept.ID, Language: models.LanguageNL, Title: "Nieuw product"},
		{VersionID: concept.ID, Language: models.LanguageEN, Title: "New product"},
	}))

	result, err := s.syncer.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, result.ProductsCreated)
	s.Empty(result.Failures)

	// The shadow exists but its texts start empty: only published reference
	// texts seed shadows.
	catalog, err := s.catalogs.SpecificCatalog(s.ctx, s.refCatalog.ID, s.utrecht.ID)
	s.Require().NoError(err)
	shadow, err := s.products.ShadowProduct(s.ctx, catalog.ID, bare.GenericProductID)
	s.Require().NoError(err)

	versions, err := s.versions.Versions(s.ctx, shadow.ID)
	s.Require().NoError(err)
	s.Require().Len(versions, 1)
	texts, err := s.versions.TextsFor(s.ctx, versions[0].ID)
	s.Require().NoError(err)
	s.Require().Len(texts, 2)
	for _, t := range texts {
		s.Empty(t.Title)
	}
}
