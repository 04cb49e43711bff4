// Package products is the request-facing facade over the catalog stores:
// the edit entry point and the cached read model.
package products

import (
	"context"
	"errors"
	"log/slog"

	"sdgcatalog/internal/catalog/cache"
	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/service/versioning"
	"sdgcatalog/internal/catalog/store"
	id "sdgcatalog/pkg/domain"
	dErrors "sdgcatalog/pkg/domain-errors"
	"sdgcatalog/pkg/platform/sentinel"
	"sdgcatalog/pkg/requestcontext"
)

// Service serves the product read and write operations.
type Service struct {
	engine   *versioning.Engine
	products store.ProductStore
	versions store.VersionStore
	cache    *cache.ProductCache
	logger   *slog.Logger
}

type Option func(*Service)

// WithCache attaches the optional Redis read cache.
func WithCache(c *cache.ProductCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(engine *versioning.Engine, products store.ProductStore, versions store.VersionStore, opts ...Option) *Service {
	s := &Service{
		engine:   engine,
		products: products,
		versions: versions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Edit applies one authoring request and invalidates the read cache.
func (s *Service) Edit(ctx context.Context, productID id.ProductID, req versioning.EditRequest) (versioning.Result, error) {
	result, err := s.engine.ApplyEdit(ctx, productID, req)
	if err != nil {
		return versioning.Result{}, err
	}
	if cerr := s.cache.Invalidate(ctx, productID); cerr != nil {
		// Stale-until-TTL beats failing a committed write.
		s.logger.WarnContext(ctx, "cache invalidation failed",
			"product_id", productID.String(), "error", cerr)
	}
	return result, nil
}

// Get returns the product with its active version and texts, preferring the
// cache.
func (s *Service) Get(ctx context.Context, productID id.ProductID) (*cache.Summary, error) {
	if summary, err := s.cache.Get(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "cache lookup failed",
			"product_id", productID.String(), "error", err)
	} else if summary != nil {
		return summary, nil
	}

	product, err := s.products.Product(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}

	versions, err := s.versions.Versions(ctx, productID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load versions")
	}

	summary := &cache.Summary{Product: product}
	if active := models.ActiveVersion(versions, requestcontext.Now(ctx)); active != nil {
		texts, err := s.versions.TextsFor(ctx, active.ID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load texts")
		}
		summary.Version = active
		summary.Texts = texts
	}

	if cerr := s.cache.Set(ctx, productID, summary); cerr != nil {
		s.logger.WarnContext(ctx, "cache fill failed",
			"product_id", productID.String(), "error", cerr)
	}
	return summary, nil
}
