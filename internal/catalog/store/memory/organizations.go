package memory

import (
	"context"
	"sync"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
)

// Organizations is the in-memory OrganizationStore.
type Organizations struct {
	mu    sync.RWMutex
	orgs  map[id.OrganizationID]*models.Organization
	roles map[id.OrganizationID][]models.Role
}

func NewOrganizations() *Organizations {
	return &Organizations{
		orgs:  make(map[id.OrganizationID]*models.Organization),
		roles: make(map[id.OrganizationID][]models.Role),
	}
}

func (s *Organizations) Organization(_ context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyOrganization(org), nil
}

func (s *Organizations) AutoCatalogOrganizations(_ context.Context) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Organization
	for _, org := range s.orgs {
		if org.AutoCatalog {
			out = append(out, copyOrganization(org))
		}
	}
	return out, nil
}

func (s *Organizations) RolesFor(_ context.Context, orgID id.OrganizationID) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Role(nil), s.roles[orgID]...), nil
}

func (s *Organizations) CreateOrganization(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[org.ID]; ok {
		return sentinel.ErrConflict
	}
	s.orgs[org.ID] = copyOrganization(org)
	return nil
}

func (s *Organizations) CreateRole(_ context.Context, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles[role.OrganizationID] {
		if existing.UserID == role.UserID {
			return sentinel.ErrConflict
		}
	}
	s.roles[role.OrganizationID] = append(s.roles[role.OrganizationID], role)
	return nil
}
