package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/evergreenmart/storefront/internal/backend"
	"github.com/evergreenmart/storefront/internal/models"
	"github.com/evergreenmart/storefront/internal/pricing"
	"github.com/evergreenmart/storefront/internal/store"
)

type CartHandler struct {
	Store        *store.Store
	Backend      *backend.Client
	SessionStore *sessions.CookieStore
}

type cartView struct {
	models.CartSnapshot
	Totals pricing.Totals `json:"totals"`
}

func (h *CartHandler) view(c *store.Cart) cartView {
	snap := c.Snapshot()
	return cartView{CartSnapshot: snap, Totals: pricing.Calculate(snap.TotalAmount)}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid := shopperID(h.SessionStore, w, r)
	respondData(w, http.StatusOK, h.view(h.Store.Cart(sid)))
}

// AddItem puts a product in the cart. Name, price and image come from the
// catalog, not the request, so the client cannot invent prices.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid := shopperID(h.SessionStore, w, r)

	var body struct {
		ProductID int `json:"product_id"`
		Quantity  int `json:"quantity"`
	}
	if err := decodeBody(r, &body); err != nil || body.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	product, err := h.Backend.Product(r.Context(), body.ProductID)
	if err != nil {
		slog.Warn("Product lookup failed", "product_id", body.ProductID, "error", err)
		respondError(w, http.StatusBadGateway, "Could not load product. Please try again.")
		return
	}
	if product.Status != "available" {
		respondError(w, http.StatusConflict, "This product is not available right now.")
		return
	}

	cart := h.Store.Cart(sid)
	cart.Add(models.CartItem{
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductImage: product.ImageURL,
		Quantity:     body.Quantity,
		Price:        product.Price,
	})
	respondData(w, http.StatusOK, h.view(cart))
}

// UpdateItem changes a line quantity; zero removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sid := shopperID(h.SessionStore, w, r)

	var body struct {
		ProductID int `json:"product_id"`
		Quantity  int `json:"quantity"`
	}
	if err := decodeBody(r, &body); err != nil || body.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	cart := h.Store.Cart(sid)
	cart.SetQuantity(body.ProductID, body.Quantity)
	respondData(w, http.StatusOK, h.view(cart))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sid := shopperID(h.SessionStore, w, r)
	cart := h.Store.Cart(sid)
	cart.Clear()
	respondData(w, http.StatusOK, h.view(cart))
}
