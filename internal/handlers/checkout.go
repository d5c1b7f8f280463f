package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/evergreenmart/storefront/internal/backend"
	"github.com/evergreenmart/storefront/internal/checkout"
	"github.com/evergreenmart/storefront/internal/models"
	"github.com/evergreenmart/storefront/internal/store"
)

type CheckoutHandler struct {
	Store        *store.Store
	Backend      *backend.Client
	SessionStore *sessions.CookieStore
}

// Start opens a checkout session. The empty-cart guard answers 409 so the
// client can send the shopper back to the cart instead of showing an
// error page.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	sid := shopperID(h.SessionStore, w, r)
	cart := h.Store.Cart(sid)
	user, token := identity(h.SessionStore, r)

	cfg := checkout.Config{
		ID:          uuid.New().String(),
		Cart:        cart,
		API:         h.Backend,
		OTP:         h.Backend,
		User:        user,
		BearerToken: token,
	}
	if user == nil {
		cfg.GuestSession = newGuestSession()
	}

	sess, err := checkout.New(cfg)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			respondError(w, http.StatusConflict, "Your cart is empty.")
			return
		}
		slog.Error("Failed to start checkout", "error", err)
		respondError(w, http.StatusInternalServerError, "Could not start checkout.")
		return
	}

	h.Store.PutCheckout(sid, sess)
	slog.Info("Checkout started", "session", sess.ID(), "authenticated", user != nil)
	respondData(w, http.StatusOK, sess.View())
}

// State returns the live session for the polling client.
func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, sess.View())
}

// UpdateForm merges the shopper's edits into the session form.
func (h *CheckoutHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var form models.CheckoutForm
	if err := decodeBody(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid form data.")
		return
	}
	sess.UpdateForm(form)
	respondData(w, http.StatusOK, sess.View())
}

// SetStep moves the wizard; navigation is free in both directions.
func (h *CheckoutHandler) SetStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Step int `json:"step"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid step.")
		return
	}
	sess.GoToStep(checkout.Step(body.Step))
	respondData(w, http.StatusOK, sess.View())
}

// SendOTP kicks off guest phone verification.
func (h *CheckoutHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}
	sess.OTP().Send(r.Context(), body.PhoneNumber)
	respondData(w, http.StatusOK, sess.View())
}

// VerifyOTP checks the code the shopper received.
func (h *CheckoutHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		PhoneNumber string `json:"phone_number"`
		Otp         string `json:"otp"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}
	sess.OTP().Verify(r.Context(), body.PhoneNumber, body.Otp)
	respondData(w, http.StatusOK, sess.View())
}

// Submit runs placeOrder. 422 carries field errors (the wizard is already
// forced back to step 1), 502 is a backend failure retryable from Review,
// 200 is the confirmed order.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.PlaceOrder(r.Context())

	view := sess.View()
	switch {
	case len(view.FieldErrors) > 0:
		respondData(w, http.StatusUnprocessableEntity, view)
	case view.Status == checkout.StatusFailed:
		respondData(w, http.StatusBadGateway, view)
	default:
		respondData(w, http.StatusOK, view)
	}
}

// Cancel abandons the shopper's checkout session. The cart is left
// intact; only the wizard state and its OTP ticker go away. Cancelling
// with no active session is fine.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sid := shopperID(h.SessionStore, w, r)
	h.Store.DropCheckout(sid)
	respondData(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	sid := shopperID(h.SessionStore, w, r)
	sess, ok := h.Store.Checkout(sid)
	if !ok {
		respondError(w, http.StatusNotFound, "No active checkout. Start one first.")
		return nil, false
	}
	sess.Touch()
	return sess, true
}
