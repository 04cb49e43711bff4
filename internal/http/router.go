// Package httpapi assembles the public HTTP surface: the product routes,
// health, and the Prometheus scrape endpoint.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sdgcatalog/internal/catalog/handler"
	"sdgcatalog/internal/platform/metrics"
)

// NewRouter wires all public endpoints.
func NewRouter(products *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	products.Register(r)
	return r
}
