package memory

import (
	"context"
	"sync"
	"time"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
)

// Versions is the in-memory VersionStore.
type Versions struct {
	mu       sync.RWMutex
	versions map[id.VersionID]*models.ProductVersion
	texts    map[id.VersionID][]models.LocalizedText
}

func NewVersions() *Versions {
	return &Versions{
		versions: make(map[id.VersionID]*models.ProductVersion),
		texts:    make(map[id.VersionID][]models.LocalizedText),
	}
}

func (s *Versions) Versions(_ context.Context, productID id.ProductID) ([]*models.ProductVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ProductVersion
	for _, v := range s.versions {
		if v.ProductID == productID {
			out = append(out, copyVersion(v))
		}
	}
	return out, nil
}

func (s *Versions) TextsFor(_ context.Context, versionID id.VersionID) ([]models.LocalizedText, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	texts, ok := s.texts[versionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyTexts(texts), nil
}

func (s *Versions) CreateVersion(_ context.Context, version *models.ProductVersion, texts []models.LocalizedText) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[version.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, v := range s.versions {
		if v.ProductID != version.ProductID {
			continue
		}
		// (product, version number) uniqueness and the single-concept
		// invariant, matching the postgres partial unique index.
		if v.Version == version.Version {
			return sentinel.ErrConflict
		}
		if v.IsConcept() && version.IsConcept() {
			return sentinel.ErrConflict
		}
	}
	if err := checkTextLanguages(version.ID, texts); err != nil {
		return err
	}
	s.versions[version.ID] = copyVersion(version)
	s.texts[version.ID] = copyTexts(texts)
	return nil
}

func (s *Versions) UpdateVersion(_ context.Context, version *models.ProductVersion, texts []models.LocalizedText) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[version.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if err := checkTextLanguages(version.ID, texts); err != nil {
		return err
	}
	s.versions[version.ID] = copyVersion(version)
	s.texts[version.ID] = copyTexts(texts)
	return nil
}

func (s *Versions) ChangedSince(_ context.Context, since time.Time) ([]*models.ProductVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ProductVersion
	for _, v := range s.versions {
		if !v.ModifiedAt.Before(since) {
			out = append(out, copyVersion(v))
		}
	}
	return out, nil
}

// checkTextLanguages enforces the (version, language) uniqueness the
// postgres schema carries as a unique index.
func checkTextLanguages(versionID id.VersionID, texts []models.LocalizedText) error {
	seen := make(map[models.Language]bool, len(texts))
	for _, t := range texts {
		if t.VersionID != versionID {
			return sentinel.ErrInvalidState
		}
		if seen[t.Language] {
			return sentinel.ErrConflict
		}
		seen[t.Language] = true
	}
	return nil
}
