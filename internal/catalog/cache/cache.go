// Package cache holds the Redis-backed product summary cache used by the
// read endpoint. The cache is optional: a nil cache degrades to store reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
)

var (
	lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sdgcatalog_product_cache_lookup_duration_ms",
		Help:    "Latency of product summary cache lookups in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
	hits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sdgcatalog_product_cache_hits_total",
		Help: "Product summary cache hits",
	})
	misses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sdgcatalog_product_cache_misses_total",
		Help: "Product summary cache misses",
	})
)

const productKeyPrefix = "pdc:product:"

// Summary is the cached read model of one product: the product row, its
// active version, and that version's texts.
type Summary struct {
	Product *models.Product        `json:"product"`
	Version *models.ProductVersion `json:"version,omitempty"`
	Texts   []models.LocalizedText `json:"texts,omitempty"`
}

// ProductCache is a Redis-backed cache of product summaries. Writers
// invalidate, readers fill.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures a ProductCache.
type Option func(*ProductCache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *ProductCache) { c.ttl = ttl }
}

// NewProductCache constructs a cache on an externally managed client.
func NewProductCache(client *redis.Client, opts ...Option) *ProductCache {
	c := &ProductCache{
		client: client,
		ttl:    5 * time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached summary, or (nil, nil) on a miss. A nil receiver
// is always a miss.
func (c *ProductCache) Get(ctx context.Context, productID id.ProductID) (*Summary, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := c.client.Get(ctx, productKeyPrefix+productID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		misses.Inc()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// A corrupt entry behaves like a miss; the next Set replaces it.
		misses.Inc()
		return nil, nil
	}
	hits.Inc()
	return &summary, nil
}

// Set stores the summary with the configured TTL.
func (c *ProductCache) Set(ctx context.Context, productID id.ProductID, summary *Summary) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKeyPrefix+productID.String(), raw, c.ttl).Err()
}

// Invalidate drops the cached summaries of the given products. Called after
// every successful edit and after batch runs.
func (c *ProductCache) Invalidate(ctx context.Context, productIDs ...id.ProductID) error {
	if c == nil || c.client == nil || len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(productIDs))
	for _, pid := range productIDs {
		keys = append(keys, productKeyPrefix+pid.String())
	}
	return c.client.Del(ctx, keys...).Err()
}
