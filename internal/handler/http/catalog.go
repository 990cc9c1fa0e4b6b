package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/sakachris/ecom-frontend/pkg/errors"
	"github.com/sakachris/ecom-frontend/pkg/httputil"
	"github.com/sakachris/ecom-frontend/pkg/pagination"

	"github.com/sakachris/ecom-frontend/internal/service"
)

// CatalogHandler exposes product browsing endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates the catalog handler.
func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// ListProducts serves the catalog listing with search, filters, sort, and
// pagination.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.catalog.ListProducts(r.Context(), service.ListQuery{
		Search:    q.Get("search"),
		Category:  q.Get("category"),
		PriceMin:  q.Get("price_min"),
		PriceMax:  q.Get("price_max"),
		MinRating: q.Get("min_rating"),
		Sort:      q.Get("sort"),
		Page:      pagination.FromRequest(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// GetProduct serves the assembled product detail page.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid product id"), h.logger)
		return
	}

	detail, err := h.catalog.GetProductDetail(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// GetCategory serves the category landing page: the category plus one page
// of its products.
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid category id"), h.logger)
		return
	}

	page, err := h.catalog.GetCategoryPage(r.Context(), id, service.ListQuery{
		Sort: r.URL.Query().Get("sort"),
		Page: pagination.FromRequest(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// ListCategories serves the category list for navigation.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}
