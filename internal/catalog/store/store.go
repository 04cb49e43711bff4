// Package store defines the persistence interfaces of the catalog domain.
// Implementations live in the memory and postgres subpackages; both return
// sentinel errors (pkg/platform/sentinel) for store facts and leave domain
// error translation to the services.
package store

import (
	"context"
	"time"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
)

// OrganizationStore persists government bodies and editorial roles.
type OrganizationStore interface {
	Organization(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	// AutoCatalogOrganizations lists bodies with catalog auto-creation
	// enabled, the synchronizer's working set.
	AutoCatalogOrganizations(ctx context.Context) ([]*models.Organization, error)
	RolesFor(ctx context.Context, orgID id.OrganizationID) ([]models.Role, error)
	CreateOrganization(ctx context.Context, org *models.Organization) error
	// CreateRole fails with sentinel.ErrConflict when the (user, body)
	// pair already exists.
	CreateRole(ctx context.Context, role models.Role) error
}

// CatalogStore persists reference and specific catalogs.
type CatalogStore interface {
	Catalog(ctx context.Context, catalogID id.CatalogID) (*models.Catalog, error)
	ReferenceCatalogs(ctx context.Context) ([]*models.Catalog, error)
	// SpecificCatalog resolves the unique specific catalog for a
	// (reference catalog, government body) pair, or sentinel.ErrNotFound.
	SpecificCatalog(ctx context.Context, refID id.CatalogID, orgID id.OrganizationID) (*models.Catalog, error)
	// CreateCatalog fails with sentinel.ErrConflict when a specific
	// catalog already exists for the same (reference catalog, body) pair.
	CreateCatalog(ctx context.Context, catalog *models.Catalog) error
}

// GenericStore persists generic products and their national texts.
type GenericStore interface {
	GenericProduct(ctx context.Context, genericID id.GenericProductID) (*models.GenericProduct, error)
	AllGenericProducts(ctx context.Context) ([]*models.GenericProduct, error)
	UpdateGenericProduct(ctx context.Context, generic *models.GenericProduct) error
	// HasLocalizedText reports whether any national generic text exists
	// for the generic product; an input to the status recompute.
	HasLocalizedText(ctx context.Context, genericID id.GenericProductID) (bool, error)
}

// ProductStore persists reference and specific products.
type ProductStore interface {
	Product(ctx context.Context, productID id.ProductID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	ProductsInCatalog(ctx context.Context, catalogID id.CatalogID) ([]*models.Product, error)
	// SpecificProductsOf lists the specific products linking to a
	// reference product.
	SpecificProductsOf(ctx context.Context, refID id.ProductID) ([]*models.Product, error)
	// ShadowProduct resolves the specific product mirroring a generic
	// product inside one catalog, or sentinel.ErrNotFound.
	ShadowProduct(ctx context.Context, catalogID id.CatalogID, genericID id.GenericProductID) (*models.Product, error)
	// ReferenceProductsForGeneric lists the reference products of one
	// generic family.
	ReferenceProductsForGeneric(ctx context.Context, genericID id.GenericProductID) ([]*models.Product, error)
	// ReferenceProductsDue selects reference products whose automatic
	// press-through is enabled and due.
	ReferenceProductsDue(ctx context.Context, today time.Time) ([]*models.Product, error)
	// SpecificProductsDue selects the specific products of one reference
	// product with the same flag/date condition.
	SpecificProductsDue(ctx context.Context, refID id.ProductID, today time.Time) ([]*models.Product, error)
	// SetAvailabilityBulk updates product_aanwezig on the given rows
	// without touching anything else. The propagator relies on this
	// running before text propagation (no per-row side effects).
	SetAvailabilityBulk(ctx context.Context, productIDs []id.ProductID, available *bool) error
	// ClearPressThroughBulk resets the press-through flag and date on the
	// given rows.
	ClearPressThroughBulk(ctx context.Context, productIDs []id.ProductID) error
}

// VersionStore persists product versions with their localized texts.
// CreateVersion and UpdateVersion write the version and its full text set
// together; partial text writes do not exist at this interface.
type VersionStore interface {
	// Versions returns all versions of a product, unordered. Use the
	// models query functions (ActiveVersion, MostRecentVersion, ...) to
	// pick one.
	Versions(ctx context.Context, productID id.ProductID) ([]*models.ProductVersion, error)
	TextsFor(ctx context.Context, versionID id.VersionID) ([]models.LocalizedText, error)
	// CreateVersion fails with sentinel.ErrConflict when the product
	// already has a concept and the new version is a concept, or when the
	// (product, version number) pair exists.
	CreateVersion(ctx context.Context, version *models.ProductVersion, texts []models.LocalizedText) error
	// UpdateVersion replaces the version row and its text set.
	UpdateVersion(ctx context.Context, version *models.ProductVersion, texts []models.LocalizedText) error
	// ChangedSince lists versions modified at or after the given moment,
	// for the change notification digest.
	ChangedSince(ctx context.Context, since time.Time) ([]*models.ProductVersion, error)
}
