package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/store/memory"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/requestcontext"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want models.GenericStatus
	}{
		{
			name: "upn removed wins over everything",
			in:   Inputs{UPNRemoved: true, EndDateSet: true, EndDatePassed: true, HasGenericText: true, HasActiveReference: true},
			want: models.GenericStatusDeleted,
		},
		{
			name: "end date passed",
			in:   Inputs{EndDateSet: true, EndDatePassed: true, HasGenericText: true, HasActiveReference: true},
			want: models.GenericStatusExpired,
		},
		{
			name: "end date set but not passed",
			in:   Inputs{EndDateSet: true, HasGenericText: true, HasActiveReference: true},
			want: models.GenericStatusEOL,
		},
		{
			name: "no generic text",
			in:   Inputs{HasActiveReference: true},
			want: models.GenericStatusMissing,
		},
		{
			name: "text without active reference",
			in:   Inputs{HasGenericText: true},
			want: models.GenericStatusReadyForAdmin,
		},
		{
			name: "text and active reference",
			in:   Inputs{HasGenericText: true, HasActiveReference: true},
			want: models.GenericStatusReadyForPublication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.in))
		})
	}
}

type RecomputerSuite struct {
	suite.Suite
	generics *memory.Generics
	products *memory.Products
	versions *memory.Versions
	rec      *Recomputer

	today time.Time
	ctx   context.Context
}

func TestRecomputerSuite(t *testing.T) {
	suite.Run(t, new(RecomputerSuite))
}

func (s *RecomputerSuite) SetupTest() {
	s.generics = memory.NewGenerics()
	s.products = memory.NewProducts()
	s.versions = memory.NewVersions()
	s.rec = NewRecomputer(s.generics, s.products, s.versions, nil)

	s.today = time.Date(2026, 8, 28, 4, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.today)
}

func (s *RecomputerSuite) seedGeneric(status models.GenericStatus) *models.GenericProduct {
	g := &models.GenericProduct{
		ID:             id.NewGenericProductID(),
		UPN:            "nld000000001",
		UPNLabel:       "paspoort",
		TargetAudience: models.AudienceCitizen,
		Status:         status,
	}
	s.generics.SeedGenericProduct(g)
	return g
}

// seedPublishedReference gives a generic family a reference product with an
// active version.
func (s *RecomputerSuite) seedPublishedReference(genericID id.GenericProductID) {
	catalogID := id.NewCatalogID()
	ref := &models.Product{
		ID:               id.NewProductID(),
		GenericProductID: genericID,
		CatalogID:        catalogID,
	}
	s.Require().NoError(s.products.CreateProduct(context.Background(), ref))

	pub := models.Day(s.today.AddDate(0, 0, -7))
	v := &models.ProductVersion{
		ID:              id.NewVersionID(),
		ProductID:       ref.ID,
		Version:         1,
		PublicationDate: &pub,
		CreatedAt:       s.today.AddDate(0, 0, -7),
		ModifiedAt:      s.today.AddDate(0, 0, -7),
	}
	s.Require().NoError(s.versions.CreateVersion(context.Background(), v, []models.LocalizedText{
		{VersionID: v.ID, Language: models.LanguageNL, Title: "Paspoort"},
		{VersionID: v.ID, Language: models.LanguageEN, Title: "Passport"},
	}))
}

func (s *RecomputerSuite) TestNewProductWithoutTextGoesMissing() {
	g := s.seedGeneric(models.GenericStatusNew)

	got, err := s.rec.RecomputeOne(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(models.GenericStatusMissing, got)

	stored, err := s.generics.GenericProduct(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(models.GenericStatusMissing, stored.Status)
}

func (s *RecomputerSuite) TestTextPromotesToReadyForAdmin() {
	g := s.seedGeneric(models.GenericStatusMissing)
	s.generics.SeedLocalizedText(g.ID)

	got, err := s.rec.RecomputeOne(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(models.GenericStatusReadyForAdmin, got)
}

func (s *RecomputerSuite) TestActiveReferencePromotesToReadyForPublication() {
	g := s.seedGeneric(models.GenericStatusReadyForAdmin)
	s.generics.SeedLocalizedText(g.ID)
	s.seedPublishedReference(g.ID)

	got, err := s.rec.RecomputeOne(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(models.GenericStatusReadyForPublication, got)
}

func (s *RecomputerSuite) TestEndDateDemotesDespiteActiveReference() {
	g := s.seedGeneric(models.GenericStatusReadyForPublication)
	s.generics.SeedLocalizedText(g.ID)
	s.seedPublishedReference(g.ID)

	end := s.today.AddDate(0, 1, 0)
	g.EndDate = &end
	s.Require().NoError(s.generics.UpdateGenericProduct(context.Background(), g))

	got, err := s.rec.RecomputeOne(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(models.GenericStatusEOL, got)

	// Once the end date passes, the next recompute expires it.
	later := requestcontext.WithTime(context.Background(), s.today.AddDate(0, 2, 0))
	got, err = s.rec.RecomputeOne(later, g.ID)
	s.Require().NoError(err)
	s.Equal(models.GenericStatusExpired, got)
}

func (s *RecomputerSuite) TestRunCountsChanges() {
	missing := s.seedGeneric(models.GenericStatusNew)
	_ = missing

	steady := s.seedGeneric(models.GenericStatusReadyForPublication)
	s.generics.SeedLocalizedText(steady.ID)
	s.seedPublishedReference(steady.ID)

	result, err := s.rec.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, result.Examined)
	s.Equal(1, result.Changed)
	s.Empty(result.Failures)
}

func (s *RecomputerSuite) TestRecomputeOneUnknownGeneric() {
	_, err := s.rec.RecomputeOne(s.ctx, id.NewGenericProductID())
	require.Error(s.T(), err)
}
