// Package checkout owns the multi-step checkout state machine: form state,
// step navigation, guest OTP gating, pricing and order submission.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/evergreenmart/storefront/internal/backend"
	"github.com/evergreenmart/storefront/internal/models"
	"github.com/evergreenmart/storefront/internal/otp"
	"github.com/evergreenmart/storefront/internal/pricing"
	"github.com/evergreenmart/storefront/internal/validate"
)

// Step is the wizard position. Steps gate nothing on their own; validation
// runs at submit time.
type Step int

const (
	StepShipping Step = 1
	StepPayment  Step = 2
	StepReview   Step = 3
)

// Status is the submission state of the session.
type Status string

const (
	StatusEditing Status = "editing"
	StatusPlacing Status = "placing"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrEmptyCart is returned when checkout is started on an empty cart.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// Cart is the external cart collaborator. Checkout reads snapshots and
// clears it exactly once on success; it never mutates line items.
type Cart interface {
	Snapshot() models.CartSnapshot
	Clear()
}

// OrderAPI places orders with the backend. Implemented by backend.Client.
type OrderAPI interface {
	CreateOrder(ctx context.Context, bearerToken string, payload models.OrderPayload) (*models.OrderResult, error)
	CreateGuestOrder(ctx context.Context, sessionID string, payload models.OrderPayload) (*models.OrderResult, error)
}

// GuestSession is the anonymous-session collaborator for guest orders. The
// token is discarded after a successful guest order.
type GuestSession interface {
	ID() string
	Discard()
}

// Config wires the collaborators into a new session. User and BearerToken
// are nil/empty for guests.
type Config struct {
	ID           string
	Cart         Cart
	API          OrderAPI
	OTP          otp.Sender
	User         *models.UserProfile
	BearerToken  string
	GuestSession GuestSession
}

// Session is one shopper's checkout, from entering the wizard to a placed
// order. All methods are safe for concurrent use; at most one order
// submission is in flight at a time.
type Session struct {
	mu sync.Mutex

	id     string
	form   models.CheckoutForm
	step   Step
	status Status

	placing     bool
	fieldErrors validate.Errors
	generalErr  string
	order       *models.OrderResult

	otp    *otp.Controller
	cart   Cart
	api    OrderAPI
	user   *models.UserProfile
	bearer string
	guest  GuestSession

	lastActive time.Time
}

// New starts a checkout session. The empty-cart guard lives here: a
// session cannot exist without items to buy.
func New(cfg Config) (*Session, error) {
	if cfg.Cart == nil || cfg.API == nil {
		return nil, errors.New("checkout: cart and API collaborators are required")
	}
	if cfg.Cart.Snapshot().Empty() {
		return nil, ErrEmptyCart
	}

	s := &Session{
		id:     cfg.ID,
		step:   StepShipping,
		status: StatusEditing,
		form: models.CheckoutForm{
			PaymentMethod: models.PaymentCOD,
		},
		otp:        otp.NewController(cfg.OTP),
		cart:       cfg.Cart,
		api:        cfg.API,
		user:       cfg.User,
		bearer:     cfg.BearerToken,
		guest:      cfg.GuestSession,
		lastActive: time.Now(),
	}
	s.prefill()
	return s, nil
}

// prefill seeds contact and shipping fields from the signed-in profile.
// Guests start blank.
func (s *Session) prefill() {
	if s.user == nil {
		return
	}
	s.form.ShippingAddress.FullName = s.user.Name
	s.form.ShippingAddress.Phone = s.user.Phone
	s.form.CustomerEmail = s.user.Email
	s.form.CustomerPhone = s.user.Phone
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// OTP exposes the per-session OTP controller.
func (s *Session) OTP() *otp.Controller { return s.otp }

// Touch refreshes the idle clock; the registry sweeps stale sessions.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// GoToStep moves the wizard. Forward and back navigation are both free and
// non-destructive; entered data survives. Ignored once an order is placed
// or while one is being placed.
func (s *Session) GoToStep(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step < StepShipping || step > StepReview {
		return
	}
	if s.placing || s.status == StatusSuccess {
		return
	}
	s.step = step
}

// UpdateForm replaces the form with the shopper's latest edits. Field
// errors are cleared only for the fields that changed; untouched errors
// stay visible until the next submit recomputes the whole map.
func (s *Session) UpdateForm(next models.CheckoutForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.placing || s.status == StatusSuccess {
		return
	}
	if next.PaymentMethod == "" {
		next.PaymentMethod = models.PaymentCOD
	}
	if len(s.fieldErrors) > 0 {
		for _, ch := range changedFields(s.form, next) {
			delete(s.fieldErrors, ch)
		}
	}
	s.form = next
}

func changedFields(old, next models.CheckoutForm) []validate.Field {
	var out []validate.Field
	addr := func(name, a, b string) {
		if a != b {
			out = append(out, validate.Field{Section: "shipping_address", Name: name})
		}
	}
	addr("full_name", old.ShippingAddress.FullName, next.ShippingAddress.FullName)
	addr("phone", old.ShippingAddress.Phone, next.ShippingAddress.Phone)
	addr("address_line1", old.ShippingAddress.AddressLine1, next.ShippingAddress.AddressLine1)
	addr("address_line2", old.ShippingAddress.AddressLine2, next.ShippingAddress.AddressLine2)
	addr("city", old.ShippingAddress.City, next.ShippingAddress.City)
	addr("state", old.ShippingAddress.State, next.ShippingAddress.State)
	addr("zip_code", old.ShippingAddress.ZipCode, next.ShippingAddress.ZipCode)
	addr("country", old.ShippingAddress.Country, next.ShippingAddress.Country)
	if old.CustomerEmail != next.CustomerEmail {
		out = append(out, validate.Field{Name: "customer_email"})
	}
	if old.CustomerPhone != next.CustomerPhone {
		out = append(out, validate.Field{Name: "customer_phone"})
	}
	return out
}

// PlaceOrder validates and submits the order. Validation failures abort
// the submission and force the wizard back to step 1, wherever the shopper
// was. A backend failure keeps them at Review with a general message and a
// free retry; nothing here is fatal.
func (s *Session) PlaceOrder(ctx context.Context) {
	s.mu.Lock()
	if s.placing || s.status == StatusSuccess {
		s.mu.Unlock()
		return
	}

	errs := validate.Checkout(s.form, s.user != nil, s.otp.Verified())
	if !errs.Valid() {
		s.fieldErrors = errs
		s.generalErr = ""
		// An earlier failed submission is superseded by the new field
		// errors; the shopper is editing again.
		s.status = StatusEditing
		s.step = StepShipping
		s.mu.Unlock()
		return
	}

	s.placing = true
	s.status = StatusPlacing
	s.fieldErrors = nil
	s.generalErr = ""
	payload := s.buildPayloadLocked()
	authenticated := s.user != nil
	bearer := s.bearer
	var guestID string
	if !authenticated && s.guest != nil {
		guestID = s.guest.ID()
	}
	s.mu.Unlock()

	var (
		order *models.OrderResult
		err   error
	)
	if authenticated {
		order, err = s.api.CreateOrder(ctx, bearer, payload)
	} else {
		order, err = s.api.CreateGuestOrder(ctx, guestID, payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.placing = false
	if err != nil {
		slog.Warn("order submission failed", "session", s.id, "error", err)
		s.status = StatusFailed
		s.step = StepReview
		s.generalErr = orderErrorMessage(err)
		return
	}

	s.status = StatusSuccess
	s.order = order
	s.cart.Clear()
	if !authenticated && s.guest != nil {
		s.guest.Discard()
	}
	s.otp.Close()
	slog.Info("order placed", "session", s.id, "order_number", order.OrderNumber)
}

// buildPayloadLocked composes the order from the cart snapshot, the form
// and the price breakdown. Caller holds mu.
func (s *Session) buildPayloadLocked() models.OrderPayload {
	snap := s.cart.Snapshot()
	totals := pricing.Calculate(snap.TotalAmount)

	items := make([]models.OrderItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, models.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			Price:        it.Price,
			TotalPrice:   it.Price * float64(it.Quantity),
		})
	}

	return models.OrderPayload{
		Items:           items,
		ShippingAddress: s.form.ShippingAddress,
		TotalAmount:     totals.Subtotal,
		TaxAmount:       totals.TaxAmount,
		ShippingCost:    totals.ShippingCost,
		DiscountAmount:  totals.DiscountAmount,
		FinalAmount:     totals.FinalAmount,
		PaymentMethod:   s.form.PaymentMethod,
		Notes:           s.form.Notes,
		CustomerEmail:   s.form.CustomerEmail,
		CustomerPhone:   s.form.CustomerPhone,
	}
}

func orderErrorMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Failed to place order. Please try again."
}

// Close releases session resources (the OTP countdown ticker).
func (s *Session) Close() {
	s.otp.Close()
}

// View is the session state rendered for the client UI.
type View struct {
	Step        Step                `json:"step"`
	Status      Status              `json:"status"`
	Form        models.CheckoutForm `json:"form"`
	Cart        models.CartSnapshot `json:"cart"`
	Totals      pricing.Totals      `json:"totals"`
	Otp         otp.Snapshot        `json:"otp"`
	FieldErrors map[string]string   `json:"field_errors,omitempty"`
	Error       string              `json:"error,omitempty"`
	Order       *models.OrderResult `json:"order,omitempty"`
}

// View snapshots the session for one response.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.cart.Snapshot()
	return View{
		Step:        s.step,
		Status:      s.status,
		Form:        s.form,
		Cart:        snap,
		Totals:      pricing.Calculate(snap.TotalAmount),
		Otp:         s.otp.State(),
		FieldErrors: s.fieldErrors.ByKey(),
		Error:       s.generalErr,
		Order:       s.order,
	}
}
