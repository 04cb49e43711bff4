package notify

import (
	"context"
	"time"

	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/store"
	id "sdgcatalog/pkg/domain"
	dErrors "sdgcatalog/pkg/domain-errors"
)

// AudienceQuery answers "who should be mailed about what" for the external
// notifier: the recipients per government body and the recently changed
// versions grouped per body.
type AudienceQuery struct {
	orgs     store.OrganizationStore
	catalogs store.CatalogStore
	products store.ProductStore
	versions store.VersionStore
}

func NewAudienceQuery(
	orgs store.OrganizationStore,
	catalogs store.CatalogStore,
	products store.ProductStore,
	versions store.VersionStore,
) *AudienceQuery {
	return &AudienceQuery{orgs: orgs, catalogs: catalogs, products: products, versions: versions}
}

// Recipients returns the notification audience of one government body:
// redactors with mail enabled, else managers with mail enabled.
func (q *AudienceQuery) Recipients(ctx context.Context, orgID id.OrganizationID) ([]models.Role, error) {
	roles, err := q.orgs.RolesFor(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load roles")
	}
	return models.NotificationAudience(roles), nil
}

// ChangedProduct pairs a changed version with the body that owns it.
type ChangedProduct struct {
	OrganizationID id.OrganizationID
	Product        *models.Product
	Version        *models.ProductVersion
}

// ChangedSince lists versions modified in the window, resolved to their
// owning government body. Reference-catalog products have no body to mail
// and are skipped.
func (q *AudienceQuery) ChangedSince(ctx context.Context, since time.Time) ([]ChangedProduct, error) {
	versions, err := q.versions.ChangedSince(ctx, since)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load changed versions")
	}

	var out []ChangedProduct
	for _, v := range versions {
		product, err := q.products.Product(ctx, v.ProductID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load changed product")
		}
		if product.IsReference() {
			continue
		}
		catalog, err := q.catalogs.Catalog(ctx, product.CatalogID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product catalog")
		}
		out = append(out, ChangedProduct{
			OrganizationID: catalog.OrganizationID,
			Product:        product,
			Version:        v,
		})
	}
	return out, nil
}
