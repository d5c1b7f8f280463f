package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evergreenmart/storefront/internal/backend"
)

// CatalogHandler proxies the paginated product listing for the
// client-rendered catalog pages. It is a thin pass-through; filtering and
// search happen client-side.
type CatalogHandler struct {
	Backend *backend.Client
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.Backend.ListProducts(r.Context(), page, pageSize)
	if err != nil {
		slog.Warn("Product listing failed", "page", page, "error", err)
		respondError(w, http.StatusBadGateway, "Could not load products. Please try again.")
		return
	}
	respondData(w, http.StatusOK, result)
}
