// Package handler exposes the catalog write/read REST surface.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sdgcatalog/internal/catalog/cache"
	"sdgcatalog/internal/catalog/service/versioning"
	"sdgcatalog/internal/platform/metrics"
	"sdgcatalog/internal/platform/middleware"
	id "sdgcatalog/pkg/domain"
	dErrors "sdgcatalog/pkg/domain-errors"
	"sdgcatalog/pkg/requestcontext"
)

// Service defines the product operations the handler needs.
type Service interface {
	Edit(ctx context.Context, productID id.ProductID, req versioning.EditRequest) (versioning.Result, error)
	Get(ctx context.Context, productID id.ProductID) (*cache.Summary, error)
}

// Handler handles the product endpoints.
type Handler struct {
	logger       *slog.Logger
	products     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new product Handler.
func New(
	products Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		products:     products,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the product routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	productRouter := chi.NewRouter()
	productRouter.Use(middleware.Recovery(h.logger))
	productRouter.Use(middleware.RequestID)
	productRouter.Use(middleware.RequestTime)
	productRouter.Use(middleware.Logger(h.logger))
	productRouter.Use(middleware.Timeout(30 * time.Second))
	productRouter.Use(middleware.ContentTypeJSON)
	productRouter.Use(middleware.Latency(h.metrics))

	productRouter.Get("/products/{productID}", h.handleGetProduct)

	productRouter.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Put("/products/{productID}", h.handleEditProduct)
	})

	r.Mount("/", productRouter)
}

// handleEditProduct applies one authoring request to a product.
func (h *Handler) handleEditProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product id"))
		return
	}

	var payload editRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.WarnContext(ctx, "invalid edit request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	req, err := payload.toEditRequest()
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.products.Edit(ctx, productID, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) ||
			dErrors.Is(err, dErrors.CodeConflict) ||
			dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.WarnContext(ctx, "edit rejected",
				"request_id", requestID,
				"product_id", productID.String(),
				"error", err.Error(),
			)
			WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "edit failed",
			"request_id", requestID,
			"product_id", productID.String(),
			"error", err.Error(),
		)
		WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to apply edit"))
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, newEditResponse(result, requestcontext.Now(ctx)))
}

// handleGetProduct returns the product with its active version.
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product id"))
		return
	}

	summary, err := h.products.Get(ctx, productID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "get product failed",
			"request_id", middleware.GetRequestID(ctx),
			"product_id", productID.String(),
			"error", err.Error(),
		)
		WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load product"))
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
