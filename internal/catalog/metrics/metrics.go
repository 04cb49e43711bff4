// Package metrics holds the Prometheus metrics of the catalog domain.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the domain operations that matter operationally: version
// writes, rejected edits, and batch job output.
type Metrics struct {
	VersionsCreated     prometheus.Counter
	VersionsMutated     prometheus.Counter
	EditsRejected       prometheus.Counter
	PressThroughUpdated prometheus.Counter
	PressThroughFailed  prometheus.Counter
	CatalogsCreated     prometheus.Counter
	ProductsCreated     prometheus.Counter
}

// New creates and registers all catalog metrics.
func New() *Metrics {
	return &Metrics{
		VersionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdgcatalog_versions_created_total",
			Help: "Total number of product versions created by the versioning engine",
		}),
		VersionsMutated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdgcatalog_versions_mutated_total",
			Help: "Total number of in-place product version updates",
		}),
		EditsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdgcatalog_edits_rejected_total",
			Help: "Total number of edits rejected by validation",
		}),
		PressThroughUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdgcatalog_press_through_updated_total",
			Help: "Total number of specific products updated by press-through runs",
		}),
		PressThroughFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdgcatalog_press_through_failed_total",
			Help: "Total number of specific products that failed press-through propagation",
		}),
		CatalogsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdgcatalog_catalogs_created_total",
			Help: "Total number of specific catalogs created by the synchronizer",
		}),
		ProductsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdgcatalog_products_created_total",
			Help: "Total number of specific products created by the synchronizer",
		}),
	}
}

func (m *Metrics) IncVersionsCreated() {
	if m != nil {
		m.VersionsCreated.Inc()
	}
}

func (m *Metrics) IncVersionsMutated() {
	if m != nil {
		m.VersionsMutated.Inc()
	}
}

func (m *Metrics) IncEditsRejected() {
	if m != nil {
		m.EditsRejected.Inc()
	}
}

func (m *Metrics) AddPressThroughUpdated(n int) {
	if m != nil {
		m.PressThroughUpdated.Add(float64(n))
	}
}

func (m *Metrics) AddPressThroughFailed(n int) {
	if m != nil {
		m.PressThroughFailed.Add(float64(n))
	}
}

func (m *Metrics) AddCatalogsCreated(n int) {
	if m != nil {
		m.CatalogsCreated.Add(float64(n))
	}
}

func (m *Metrics) AddProductsCreated(n int) {
	if m != nil {
		m.ProductsCreated.Add(float64(n))
	}
}
