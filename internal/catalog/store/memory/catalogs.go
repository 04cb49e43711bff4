package memory

import (
	"context"
	"sync"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
)

// Catalogs is the in-memory CatalogStore.
type Catalogs struct {
	mu       sync.RWMutex
	catalogs map[id.CatalogID]*models.Catalog
}

func NewCatalogs() *Catalogs {
	return &Catalogs{catalogs: make(map[id.CatalogID]*models.Catalog)}
}

func (s *Catalogs) Catalog(_ context.Context, catalogID id.CatalogID) (*models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.catalogs[catalogID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyCatalog(c), nil
}

func (s *Catalogs) ReferenceCatalogs(_ context.Context) ([]*models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Catalog
	for _, c := range s.catalogs {
		if c.IsReference() {
			out = append(out, copyCatalog(c))
		}
	}
	return out, nil
}

func (s *Catalogs) SpecificCatalog(_ context.Context, refID id.CatalogID, orgID id.OrganizationID) (*models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.catalogs {
		if c.ReferenceCatalogID != nil && *c.ReferenceCatalogID == refID && c.OrganizationID == orgID {
			return copyCatalog(c), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Catalogs) CreateCatalog(_ context.Context, catalog *models.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catalogs[catalog.ID]; ok {
		return sentinel.ErrConflict
	}
	// Uniqueness: one specific catalog per (reference catalog, body).
	if catalog.ReferenceCatalogID != nil {
		for _, c := range s.catalogs {
			if c.ReferenceCatalogID != nil &&
				*c.ReferenceCatalogID == *catalog.ReferenceCatalogID &&
				c.OrganizationID == catalog.OrganizationID {
				return sentinel.ErrConflict
			}
		}
	}
	s.catalogs[catalog.ID] = copyCatalog(catalog)
	return nil
}
