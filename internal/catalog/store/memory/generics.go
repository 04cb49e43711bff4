package memory

import (
	"context"
	"sync"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
)

// Generics is the in-memory GenericStore.
type Generics struct {
	mu       sync.RWMutex
	generics map[id.GenericProductID]*models.GenericProduct
	// texts marks generic products that have at least one national
	// localized text; the real rows live outside this core.
	texts map[id.GenericProductID]bool
}

func NewGenerics() *Generics {
	return &Generics{
		generics: make(map[id.GenericProductID]*models.GenericProduct),
		texts:    make(map[id.GenericProductID]bool),
	}
}

func (s *Generics) GenericProduct(_ context.Context, genericID id.GenericProductID) (*models.GenericProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.generics[genericID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyGeneric(g), nil
}

func (s *Generics) AllGenericProducts(_ context.Context) ([]*models.GenericProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.GenericProduct, 0, len(s.generics))
	for _, g := range s.generics {
		out = append(out, copyGeneric(g))
	}
	return out, nil
}

func (s *Generics) UpdateGenericProduct(_ context.Context, generic *models.GenericProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generics[generic.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.generics[generic.ID] = copyGeneric(generic)
	return nil
}

func (s *Generics) HasLocalizedText(_ context.Context, genericID id.GenericProductID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.texts[genericID], nil
}

// Seed helpers for tests.

func (s *Generics) SeedGenericProduct(generic *models.GenericProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generics[generic.ID] = copyGeneric(generic)
}

func (s *Generics) SeedLocalizedText(genericID id.GenericProductID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[genericID] = true
}
