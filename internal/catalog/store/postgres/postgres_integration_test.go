//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/service/versioning"
	"sdgcatalog/internal/catalog/store/postgres"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
	"sdgcatalog/pkg/platform/tx"
	"sdgcatalog/pkg/requestcontext"
	"sdgcatalog/pkg/testutil/containers"
)

type PostgresSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	orgs     *postgres.Organizations
	catalogs *postgres.Catalogs
	products *postgres.Products
	versions *postgres.Versions

	today time.Time
	ctx   context.Context

	body    *models.Organization
	catalog *models.Catalog
	product *models.Product
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T(), "../../../../migrations")
	s.orgs = postgres.NewOrganizations(s.pg.DB)
	s.catalogs = postgres.NewCatalogs(s.pg.DB)
	s.products = postgres.NewProducts(s.pg.DB)
	s.versions = postgres.NewVersions(s.pg.DB)
}

func (s *PostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(),
		"outbox", "localized_texts", "product_versions", "products",
		"generic_texts", "generic_products", "catalogs", "roles", "organizations"))

	s.today = time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.today)

	s.seedWorld()
}

func (s *PostgresSuite) seedWorld() {
	ctx := context.Background()

	s.body = &models.Organization{
		ID:        id.NewOrganizationID(),
		Name:      "Gemeente Utrecht",
		CreatedAt: s.today,
	}
	s.body.ResponsibleID = s.body.ID
	s.Require().NoError(s.orgs.CreateOrganization(ctx, s.body))

	s.catalog = &models.Catalog{
		ID:             id.NewCatalogID(),
		OrganizationID: s.body.ID,
		Name:           "Gemeente Utrecht",
		Version:        1,
		CreatedAt:      s.today,
	}
	s.Require().NoError(s.catalogs.CreateCatalog(ctx, s.catalog))

	genericID := id.NewGenericProductID()
	_, err := s.pg.DB.ExecContext(ctx, `
		INSERT INTO generic_products (id, upn, target_audience)
		VALUES ($1, 'nld000000001', 'eu-burger')`, uuid.UUID(genericID))
	s.Require().NoError(err)

	s.product = &models.Product{
		ID:               id.NewProductID(),
		GenericProductID: genericID,
		CatalogID:        s.catalog.ID,
		CreatedAt:        s.today,
		UpdatedAt:        s.today,
	}
	s.Require().NoError(s.products.CreateProduct(ctx, s.product))
}

func (s *PostgresSuite) fullTexts() []versioning.TextPayload {
	return []versioning.TextPayload{
		{Language: models.LanguageNL, Title: "Paspoort", Description: "Aanvraag van een paspoort."},
		{Language: models.LanguageEN, Title: "Passport", Description: "Applying for a passport."},
	}
}

func (s *PostgresSuite) TestOrganizationRoundTrip() {
	got, err := s.orgs.Organization(s.ctx, s.body.ID)
	s.Require().NoError(err)
	s.Equal(s.body.Name, got.Name)
	s.True(got.IsSelfResponsible())

	_, err = s.orgs.Organization(s.ctx, id.NewOrganizationID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestSpecificCatalogUniqueness() {
	ctx := context.Background()
	refID := s.catalog.ID

	specific := &models.Catalog{
		ID:                 id.NewCatalogID(),
		OrganizationID:     s.body.ID,
		ReferenceCatalogID: &refID,
		Name:               "Gemeente Utrecht (schaduw)",
		CreatedAt:          s.today,
	}
	s.Require().NoError(s.catalogs.CreateCatalog(ctx, specific))

	dup := &models.Catalog{
		ID:                 id.NewCatalogID(),
		OrganizationID:     s.body.ID,
		ReferenceCatalogID: &refID,
		Name:               "Gemeente Utrecht (dubbel)",
		CreatedAt:          s.today,
	}
	s.Require().ErrorIs(s.catalogs.CreateCatalog(ctx, dup), sentinel.ErrConflict)

	found, err := s.catalogs.SpecificCatalog(ctx, refID, s.body.ID)
	s.Require().NoError(err)
	s.Equal(specific.ID, found.ID)
}

func (s *PostgresSuite) TestSingleConceptConstraint() {
	ctx := context.Background()

	first := &models.ProductVersion{
		ID: id.NewVersionID(), ProductID: s.product.ID, Version: 1,
		CreatedAt: s.today, ModifiedAt: s.today,
	}
	s.Require().NoError(s.versions.CreateVersion(ctx, first, nil))

	second := &models.ProductVersion{
		ID: id.NewVersionID(), ProductID: s.product.ID, Version: 2,
		CreatedAt: s.today, ModifiedAt: s.today,
	}
	s.Require().ErrorIs(s.versions.CreateVersion(ctx, second, nil), sentinel.ErrConflict)
}

func (s *PostgresSuite) TestEngineEndToEnd() {
	engine := versioning.NewEngine(s.products, s.versions, s.catalogs, s.orgs,
		versioning.WithTxRunner(tx.SQLRunner{DB: s.pg.DB}))

	available := true
	result, err := engine.ApplyEdit(s.ctx, s.product.ID, versioning.EditRequest{
		Available: &available,
		Texts:     s.fullTexts(),
	})
	s.Require().NoError(err)
	s.True(result.Created)
	s.Equal(1, result.Version.Version)

	// Publish, then edit again: the published version forks.
	pub := s.today
	result, err = engine.ApplyEdit(s.ctx, s.product.ID, versioning.EditRequest{
		PublicationDate: &pub,
		Available:       &available,
		Texts:           s.fullTexts(),
	})
	s.Require().NoError(err)
	s.False(result.Created)

	result, err = engine.ApplyEdit(s.ctx, s.product.ID, versioning.EditRequest{
		Available: &available,
		Texts:     s.fullTexts(),
	})
	s.Require().NoError(err)
	s.True(result.Created)
	s.Equal(2, result.Version.Version)

	versions, err := s.versions.Versions(s.ctx, s.product.ID)
	s.Require().NoError(err)
	s.Len(versions, 2)

	texts, err := s.versions.TextsFor(s.ctx, result.Version.ID)
	s.Require().NoError(err)
	s.Len(texts, 2)
}

func (s *PostgresSuite) TestTransactionRollsBackOnFailure() {
	engine := versioning.NewEngine(s.products, s.versions, s.catalogs, s.orgs,
		versioning.WithTxRunner(tx.SQLRunner{DB: s.pg.DB}))

	available := true
	_, err := engine.ApplyEdit(s.ctx, s.product.ID, versioning.EditRequest{
		Available: &available,
		Texts:     s.fullTexts(),
	})
	s.Require().NoError(err)

	// A write whose text rows violate the (version, language) key must roll
	// back the version row it already inserted.
	pub := models.Day(s.today)
	next := &models.ProductVersion{
		ID: id.NewVersionID(), ProductID: s.product.ID, Version: 2,
		PublicationDate: &pub, CreatedAt: s.today, ModifiedAt: s.today,
	}
	runner := tx.SQLRunner{DB: s.pg.DB}
	err = runner.RunInTx(s.ctx, func(txCtx context.Context) error {
		return s.versions.CreateVersion(txCtx, next, []models.LocalizedText{
			{VersionID: next.ID, Language: models.LanguageNL},
			{VersionID: next.ID, Language: models.LanguageNL},
		})
	})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		`SELECT count(*) FROM product_versions WHERE id = $1`,
		uuid.UUID(next.ID)).Scan(&count))
	s.Zero(count)
}

func (s *PostgresSuite) TestPressThroughDueQueries() {
	ctx := context.Background()

	due := s.today.AddDate(0, 0, -1)
	s.product.AutoPressThrough = true
	s.product.AutoPressThroughDate = &due
	s.Require().NoError(s.products.UpdateProduct(ctx, s.product))

	refs, err := s.products.ReferenceProductsDue(ctx, s.today)
	s.Require().NoError(err)
	s.Require().Len(refs, 1)
	s.Equal(s.product.ID, refs[0].ID)

	// Not due tomorrow's sweep once cleared.
	s.Require().NoError(s.products.ClearPressThroughBulk(ctx, []id.ProductID{s.product.ID}))
	refs, err = s.products.ReferenceProductsDue(ctx, s.today)
	s.Require().NoError(err)
	s.Empty(refs)
}
