package models

import (
	"fmt"
	"time"

	id "sdgcatalog/pkg/domain"
	dErrors "sdgcatalog/pkg/domain-errors"
)

// Catalog is a named collection of products for one government body.
//
// Invariants:
//   - a reference catalog has no parent (ReferenceCatalogID is nil)
//   - a specific catalog has exactly one reference catalog parent
//   - at most one specific catalog per (reference catalog, organization),
//     enforced by the store's uniqueness constraint
type Catalog struct {
	ID             id.CatalogID      `json:"id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	// ReferenceCatalogID is nil for reference catalogs and set to the
	// parent reference catalog for specific catalogs.
	ReferenceCatalogID *id.CatalogID `json:"reference_catalog_id,omitempty"`
	Name               string        `json:"name"`
	Domain             string        `json:"domain"`
	Version            int           `json:"version"`
	CreatedAt          time.Time     `json:"created_at"`
}

// IsReference reports whether this is a national reference catalog.
func (c *Catalog) IsReference() bool { return c.ReferenceCatalogID == nil }

// Validate checks the reference/specific structural invariants.
func (c *Catalog) Validate() error {
	if c.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "catalog name cannot be empty")
	}
	if c.ReferenceCatalogID != nil && c.ReferenceCatalogID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "specific catalog needs a non-nil reference catalog")
	}
	return nil
}

// NewSpecificCatalog derives a government body's specific catalog from a
// reference catalog, copying domain and version metadata. The synchronizer
// uses this when a body with AutoCatalog enabled lacks a shadow catalog.
func NewSpecificCatalog(ref *Catalog, body *Organization, now time.Time) (*Catalog, error) {
	if !ref.IsReference() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "parent catalog must be a reference catalog")
	}
	refID := ref.ID
	c := &Catalog{
		ID:                 id.NewCatalogID(),
		OrganizationID:     body.ID,
		ReferenceCatalogID: &refID,
		Name:               fmt.Sprintf("%s (%s)", body.Name, ref.Name),
		Domain:             ref.Domain,
		Version:            ref.Version,
		CreatedAt:          now,
	}
	return c, c.Validate()
}
