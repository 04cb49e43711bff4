package memory

import (
	"context"
	"sync"
	"time"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
)

// Products is the in-memory ProductStore.
type Products struct {
	mu       sync.RWMutex
	products map[id.ProductID]*models.Product
}

func NewProducts() *Products {
	return &Products{products: make(map[id.ProductID]*models.Product)}
}

func (s *Products) Product(_ context.Context, productID id.ProductID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyProduct(p), nil
}

func (s *Products) CreateProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; ok {
		return sentinel.ErrConflict
	}
	// Uniqueness: one shadow product per (catalog, generic product).
	for _, p := range s.products {
		if p.CatalogID == product.CatalogID && p.GenericProductID == product.GenericProductID {
			return sentinel.ErrConflict
		}
	}
	s.products[product.ID] = copyProduct(product)
	return nil
}

func (s *Products) UpdateProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.products[product.ID] = copyProduct(product)
	return nil
}

func (s *Products) ProductsInCatalog(_ context.Context, catalogID id.CatalogID) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Product
	for _, p := range s.products {
		if p.CatalogID == catalogID {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (s *Products) SpecificProductsOf(_ context.Context, refID id.ProductID) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Product
	for _, p := range s.products {
		if p.ReferenceProductID != nil && *p.ReferenceProductID == refID {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (s *Products) ShadowProduct(_ context.Context, catalogID id.CatalogID, genericID id.GenericProductID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.CatalogID == catalogID && p.GenericProductID == genericID {
			return copyProduct(p), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Products) ReferenceProductsForGeneric(_ context.Context, genericID id.GenericProductID) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Product
	for _, p := range s.products {
		if p.GenericProductID == genericID && p.IsReference() {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (s *Products) ReferenceProductsDue(_ context.Context, today time.Time) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Product
	for _, p := range s.products {
		if p.IsReference() && p.PressThroughDue(today) {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (s *Products) SpecificProductsDue(_ context.Context, refID id.ProductID, today time.Time) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Product
	for _, p := range s.products {
		if p.ReferenceProductID != nil && *p.ReferenceProductID == refID && p.PressThroughDue(today) {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (s *Products) SetAvailabilityBulk(_ context.Context, productIDs []id.ProductID, available *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range productIDs {
		p, ok := s.products[pid]
		if !ok {
			return sentinel.ErrNotFound
		}
		if available == nil {
			p.Available = nil
		} else {
			a := *available
			p.Available = &a
		}
	}
	return nil
}

func (s *Products) ClearPressThroughBulk(_ context.Context, productIDs []id.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range productIDs {
		p, ok := s.products[pid]
		if !ok {
			return sentinel.ErrNotFound
		}
		p.ClearPressThrough()
	}
	return nil
}
