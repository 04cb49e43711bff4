package models

import (
	"time"

	id "sdgcatalog/pkg/domain"
	dErrors "sdgcatalog/pkg/domain-errors"
)

// Product is the catalog-scoped instance of a generic product. Two variants
// share the struct:
//
//   - Reference product: lives in a reference catalog, ReferenceProductID nil
//   - Specific product: lives in a government body's specific catalog and
//     links to exactly one reference product of the same generic family
//
// Invariants:
//   - a reference product's catalog must be a reference catalog
//   - a specific product's catalog must not be a reference catalog
//   - Available is tri-state: true (offered), false (not offered, requires a
//     toelichting per language), nil (unknown)
//   - FallsUnderID must not create a cycle (validated at write time)
type Product struct {
	ID               id.ProductID        `json:"id"`
	GenericProductID id.GenericProductID `json:"generic_product_id"`
	CatalogID        id.CatalogID        `json:"catalog_id"`
	// ReferenceProductID is nil for reference products.
	ReferenceProductID *id.ProductID `json:"reference_product_id,omitempty"`
	// Available mirrors product_aanwezig: whether this body offers the
	// product. nil means "unknown" and carries no toelichting requirement.
	Available *bool `json:"product_aanwezig"`
	// FallsUnderID mirrors product_valt_onder: this product is handled as
	// part of another product, which requires an explanatory text.
	FallsUnderID *id.ProductID `json:"product_valt_onder,omitempty"`
	// AuthorizedOrganizationID is the bevoegde organisatie for a specific
	// product. Resolved at first version creation (explicit or fallback).
	AuthorizedOrganizationID id.OrganizationID `json:"authorized_organization_id"`

	// Press-through scheduling (reference products schedule, specific
	// products opt in).
	AutoPressThrough     bool       `json:"automatisch_doordrukken"`
	AutoPressThroughDate *time.Time `json:"automatisch_doordrukken_datum,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsReference reports whether this is a reference product.
func (p *Product) IsReference() bool { return p.ReferenceProductID == nil }

// PressThroughDue reports whether automatic press-through is enabled and
// its scheduled date has arrived.
func (p *Product) PressThroughDue(today time.Time) bool {
	return p.AutoPressThrough &&
		p.AutoPressThroughDate != nil &&
		!Day(*p.AutoPressThroughDate).After(Day(today))
}

// ClearPressThrough resets the press-through flag and scheduled date after
// a completed propagation.
func (p *Product) ClearPressThrough() {
	p.AutoPressThrough = false
	p.AutoPressThroughDate = nil
}

// ValidateVariant checks the product's structural invariants against its
// catalog. The caller resolves the catalog; the product cannot.
func (p *Product) ValidateVariant(catalog *Catalog) error {
	if catalog.ID != p.CatalogID {
		return dErrors.New(dErrors.CodeInternal, "catalog does not belong to product")
	}
	if p.IsReference() && !catalog.IsReference() {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"reference product must live in a reference catalog")
	}
	if !p.IsReference() && catalog.IsReference() {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"specific product cannot live in a reference catalog")
	}
	return nil
}
