package pressthrough

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/service/versioning"
	"sdgcatalog/internal/catalog/store/memory"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
	"sdgcatalog/pkg/requestcontext"
)

type PropagatorSuite struct {
	suite.Suite
	orgs     *memory.Organizations
	catalogs *memory.Catalogs
	products *memory.Products
	versions *memory.Versions
	engine   *versioning.Engine
	prop     *Propagator

	today time.Time
	ctx   context.Context

	body        *models.Organization
	specCatalog *models.Catalog
	refProduct  *models.Product
	specific    *models.Product
}

func TestPropagatorSuite(t *testing.T) {
	suite.Run(t, new(PropagatorSuite))
}

func (s *PropagatorSuite) SetupTest() {
	s.orgs = memory.NewOrganizations()
	s.catalogs = memory.NewCatalogs()
	s.products = memory.NewProducts()
	s.versions = memory.NewVersions()
	s.engine = versioning.NewEngine(s.products, s.versions, s.catalogs, s.orgs)
	s.prop = NewPropagator(s.products, s.versions, s.catalogs, s.orgs, s.engine)

	s.today = time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.today)

	s.seedWorld()
}

func (s *PropagatorSuite) seedWorld() {
	ctx := context.Background()

	national := &models.Organization{ID: id.NewOrganizationID(), Name: "Rijksoverheid"}
	national.ResponsibleID = national.ID
	s.Require().NoError(s.orgs.CreateOrganization(ctx, national))

	s.body = &models.Organization{ID: id.NewOrganizationID(), Name: "Gemeente Utrecht"}
	s.body.ResponsibleID = s.body.ID
	s.Require().NoError(s.orgs.CreateOrganization(ctx, s.body))

	refCatalog := &models.Catalog{
		ID:             id.NewCatalogID(),
		OrganizationID: national.ID,
		Name:           "SDG Referentiecatalogus",
	}
	s.Require().NoError(s.catalogs.CreateCatalog(ctx, refCatalog))

	refCatalogID := refCatalog.ID
	s.specCatalog = &models.Catalog{
		ID:                 id.NewCatalogID(),
		OrganizationID:     s.body.ID,
		ReferenceCatalogID: &refCatalogID,
		Name:               "Gemeente Utrecht (SDG Referentiecatalogus)",
	}
	s.Require().NoError(s.catalogs.CreateCatalog(ctx, s.specCatalog))

	generic := id.NewGenericProductID()
	due := s.today.AddDate(0, 0, -1)
	s.refProduct = &models.Product{
		ID:                   id.NewProductID(),
		GenericProductID:     generic,
		CatalogID:            refCatalog.ID,
		Available:            boolPtr(true),
		AutoPressThrough:     true,
		AutoPressThroughDate: &due,
	}
	s.Require().NoError(s.products.CreateProduct(ctx, s.refProduct))

	refProductID := s.refProduct.ID
	s.specific = &models.Product{
		ID:                   id.NewProductID(),
		GenericProductID:     generic,
		CatalogID:            s.specCatalog.ID,
		ReferenceProductID:   &refProductID,
		Available:            boolPtr(true),
		AutoPressThrough:     true,
		AutoPressThroughDate: &due,
	}
	s.Require().NoError(s.products.CreateProduct(ctx, s.specific))

	// The reference product's active version carries the texts to press.
	pub := models.Day(s.today.AddDate(0, 0, -3))
	refVersion := &models.ProductVersion{
		ID:              id.NewVersionID(),
		ProductID:       s.refProduct.ID,
		Version:         1,
		PublicationDate: &pub,
		CreatedAt:       s.today.AddDate(0, 0, -3),
		ModifiedAt:      s.today.AddDate(0, 0, -3),
	}
	refTexts := []models.LocalizedText{
		{VersionID: refVersion.ID, Language: models.LanguageNL, Title: "Paspoort", Description: "landelijke tekst"},
		{VersionID: refVersion.ID, Language: models.LanguageEN, Title: "Passport", Description: "national text"},
	}
	s.Require().NoError(s.versions.CreateVersion(context.Background(), refVersion, refTexts))
}

// seedSpecificVersion gives the specific product a published version with
// its own texts.
func (s *PropagatorSuite) seedSpecificVersion() {
	pub := models.Day(s.today.AddDate(0, 0, -2))
	v := &models.ProductVersion{
		ID:              id.NewVersionID(),
		ProductID:       s.specific.ID,
		Version:         1,
		PublicationDate: &pub,
		CreatedAt:       s.today.AddDate(0, 0, -2),
		ModifiedAt:      s.today.AddDate(0, 0, -2),
	}
	texts := []models.LocalizedText{
		{VersionID: v.ID, Language: models.LanguageNL, Title: "Paspoort", Description: "lokale tekst"},
		{VersionID: v.ID, Language: models.LanguageEN, Title: "Passport", Description: "local text"},
	}
	s.Require().NoError(s.versions.CreateVersion(context.Background(), v, texts))
}

func boolPtr(b bool) *bool { return &b }

func (s *PropagatorSuite) TestPressThroughPropagatesTexts() {
	s.seedSpecificVersion()

	result, err := s.prop.Run(s.ctx)
	s.Require().NoError(err)

	s.Equal(1, result.ReferencesDue)
	s.Equal(1, result.SpecificsUpdated)
	s.Empty(result.Failures)

	// The specific product got a new published version with the national
	// texts.
	versions, err := s.versions.Versions(s.ctx, s.specific.ID)
	s.Require().NoError(err)
	active := models.ActiveVersion(versions, s.today)
	s.Require().NotNil(active)
	s.Equal(2, active.Version)
	s.Equal(models.Day(s.today), *active.PublicationDate)

	texts, err := s.versions.TextsFor(s.ctx, active.ID)
	s.Require().NoError(err)
	byLang := map[models.Language]models.LocalizedText{}
	for _, t := range texts {
		byLang[t.Language] = t
	}
	s.Equal("landelijke tekst", byLang[models.LanguageNL].Description)
	s.Equal("national text", byLang[models.LanguageEN].Description)

	// Flags reset on both products.
	ref, err := s.products.Product(s.ctx, s.refProduct.ID)
	s.Require().NoError(err)
	s.False(ref.AutoPressThrough)
	s.Nil(ref.AutoPressThroughDate)

	specific, err := s.products.Product(s.ctx, s.specific.ID)
	s.Require().NoError(err)
	s.False(specific.AutoPressThrough)
	s.Nil(specific.AutoPressThroughDate)
}

func (s *PropagatorSuite) TestSecondRunIsNoOp() {
	s.seedSpecificVersion()

	first, err := s.prop.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, first.SpecificsUpdated)

	// The flags are gone, so a repeat sweep finds nothing to do.
	second, err := s.prop.Run(s.ctx)
	s.Require().NoError(err)
	s.Zero(second.ReferencesDue)
	s.Zero(second.SpecificsUpdated)
	s.Empty(second.Failures)

	versions, err := s.versions.Versions(s.ctx, s.specific.ID)
	s.Require().NoError(err)
	s.Require().Len(versions, 2)
	s.Equal(2, models.MostRecentVersion(versions).Version)
}

// clearFailProducts fails every bulk flag reset; everything else delegates
// to the in-memory store.
type clearFailProducts struct {
	*memory.Products
}

func (clearFailProducts) ClearPressThroughBulk(context.Context, []id.ProductID) error {
	return sentinel.ErrUnavailable
}

func (s *PropagatorSuite) TestFailedFlagResetDoesNotInflateCount() {
	s.seedSpecificVersion()

	prop := NewPropagator(clearFailProducts{s.products}, s.versions, s.catalogs, s.orgs, s.engine)
	result, err := prop.Run(s.ctx)
	s.Require().NoError(err)

	// One specific got its texts; the failed reset surfaces as a failure and
	// must not count the reference as a second update.
	s.Equal(1, result.SpecificsUpdated)
	s.Require().Len(result.Failures, 1)
	s.Equal(s.refProduct.ID, result.Failures[0].ProductID)
}

func (s *PropagatorSuite) TestNewlyUnavailableSeedsPlaceholderNote() {
	s.seedSpecificVersion()

	// The reference flips to unavailable; the specific was available.
	s.refProduct.Available = boolPtr(false)
	s.Require().NoError(s.products.UpdateProduct(context.Background(), s.refProduct))

	result, err := s.prop.Run(s.ctx)
	s.Require().NoError(err)
	s.Empty(result.Failures)

	specific, err := s.products.Product(s.ctx, s.specific.ID)
	s.Require().NoError(err)
	s.Require().NotNil(specific.Available)
	s.False(*specific.Available)

	versions, err := s.versions.Versions(s.ctx, s.specific.ID)
	s.Require().NoError(err)
	active := models.ActiveVersion(versions, s.today)
	s.Require().NotNil(active)

	texts, err := s.versions.TextsFor(s.ctx, active.ID)
	s.Require().NoError(err)
	byLang := map[models.Language]models.LocalizedText{}
	for _, t := range texts {
		byLang[t.Language] = t
	}
	s.Equal("Gemeente Utrecht levert het product Paspoort niet.",
		byLang[models.LanguageNL].AvailabilityNote)
	s.Equal("Gemeente Utrecht does not offer the product Passport.",
		byLang[models.LanguageEN].AvailabilityNote)
}

func (s *PropagatorSuite) TestReferenceWithoutActiveVersionIsSkipped() {
	// A second due reference product without any published version.
	generic := id.NewGenericProductID()
	due := s.today.AddDate(0, 0, -1)
	bare := &models.Product{
		ID:                   id.NewProductID(),
		GenericProductID:     generic,
		CatalogID:            s.refProduct.CatalogID,
		AutoPressThrough:     true,
		AutoPressThroughDate: &due,
	}
	s.Require().NoError(s.products.CreateProduct(context.Background(), bare))
	s.seedSpecificVersion()

	result, err := s.prop.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, result.ReferencesDue)
	s.Empty(result.Failures)

	// The bare reference keeps its flag for the next run.
	stored, err := s.products.Product(s.ctx, bare.ID)
	s.Require().NoError(err)
	s.True(stored.AutoPressThrough)
}

func (s *PropagatorSuite) TestPartialFailureKeepsReferenceFlag() {
	s.seedSpecificVersion()

	// A second opted-in specific product in a catalog whose owning body is
	// missing, so its press-through cannot resolve a bevoegde organisatie.
	orphanCatalogID := id.NewCatalogID()
	refCatalogID := s.refProduct.CatalogID
	orphanCatalog := &models.Catalog{
		ID:                 orphanCatalogID,
		OrganizationID:     id.NewOrganizationID(),
		ReferenceCatalogID: &refCatalogID,
		Name:               "Zwevende catalogus",
	}
	s.Require().NoError(s.catalogs.CreateCatalog(context.Background(), orphanCatalog))

	due := s.today.AddDate(0, 0, -1)
	refProductID := s.refProduct.ID
	orphan := &models.Product{
		ID:                   id.NewProductID(),
		GenericProductID:     s.refProduct.GenericProductID,
		CatalogID:            orphanCatalogID,
		ReferenceProductID:   &refProductID,
		Available:            boolPtr(true),
		AutoPressThrough:     true,
		AutoPressThroughDate: &due,
	}
	s.Require().NoError(s.products.CreateProduct(context.Background(), orphan))

	result, err := s.prop.Run(s.ctx)
	s.Require().NoError(err)

	s.Equal(1, result.SpecificsUpdated)
	s.Require().Len(result.Failures, 1)
	s.Equal(orphan.ID, result.Failures[0].ProductID)

	// The healthy specific product is done, the failed one and the
	// reference retry next run.
	healthy, err := s.products.Product(s.ctx, s.specific.ID)
	s.Require().NoError(err)
	s.False(healthy.AutoPressThrough)

	failed, err := s.products.Product(s.ctx, orphan.ID)
	s.Require().NoError(err)
	s.True(failed.AutoPressThrough)

	ref, err := s.products.Product(s.ctx, s.refProduct.ID)
	s.Require().NoError(err)
	s.True(ref.AutoPressThrough)
}
