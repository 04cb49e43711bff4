// Package memory provides in-memory store implementations backed by maps
// and RWMutexes. They carry the same sentinel-error contract as the
// postgres package and double as test fixtures for the services.
package memory

import (
	"sdgcatalog/internal/catalog/models"
)

func copyOrganization(o *models.Organization) *models.Organization {
	c := *o
	return &c
}

func copyCatalog(c *models.Catalog) *models.Catalog {
	cp := *c
	if c.ReferenceCatalogID != nil {
		ref := *c.ReferenceCatalogID
		cp.ReferenceCatalogID = &ref
	}
	return &cp
}

func copyGeneric(g *models.GenericProduct) *models.GenericProduct {
	c := *g
	if g.EndDate != nil {
		d := *g.EndDate
		c.EndDate = &d
	}
	return &c
}

func copyProduct(p *models.Product) *models.Product {
	c := *p
	if p.ReferenceProductID != nil {
		ref := *p.ReferenceProductID
		c.ReferenceProductID = &ref
	}
	if p.Available != nil {
		a := *p.Available
		c.Available = &a
	}
	if p.FallsUnderID != nil {
		f := *p.FallsUnderID
		c.FallsUnderID = &f
	}
	if p.AutoPressThroughDate != nil {
		d := *p.AutoPressThroughDate
		c.AutoPressThroughDate = &d
	}
	return &c
}

func copyVersion(v *models.ProductVersion) *models.ProductVersion {
	c := *v
	if v.PublicationDate != nil {
		d := *v.PublicationDate
		c.PublicationDate = &d
	}
	c.EditedFields = append([]string(nil), v.EditedFields...)
	return &c
}

func copyTexts(texts []models.LocalizedText) []models.LocalizedText {
	return append([]models.LocalizedText(nil), texts...)
}
