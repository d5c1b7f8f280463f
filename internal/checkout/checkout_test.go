package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evergreenmart/storefront/internal/backend"
	"github.com/evergreenmart/storefront/internal/models"
)

type fakeCart struct {
	snap   models.CartSnapshot
	clears int
}

func (c *fakeCart) Snapshot() models.CartSnapshot { return c.snap }
func (c *fakeCart) Clear()                        { c.clears++ }

type fakeAPI struct {
	authCalls  int
	guestCalls int
	lastBearer string
	lastGuest  string
	lastPayload models.OrderPayload
	result     *models.OrderResult
	err        error
}

func (a *fakeAPI) CreateOrder(ctx context.Context, bearer string, p models.OrderPayload) (*models.OrderResult, error) {
	a.authCalls++
	a.lastBearer = bearer
	a.lastPayload = p
	return a.result, a.err
}

func (a *fakeAPI) CreateGuestOrder(ctx context.Context, sessionID string, p models.OrderPayload) (*models.OrderResult, error) {
	a.guestCalls++
	a.lastGuest = sessionID
	a.lastPayload = p
	return a.result, a.err
}

func (a *fakeAPI) SendOTP(ctx context.Context, phone string) error        { return nil }
func (a *fakeAPI) VerifyOTP(ctx context.Context, phone, otp string) error { return nil }

type fakeGuest struct {
	id       string
	discards int
}

func (g *fakeGuest) ID() string { return g.id }
func (g *fakeGuest) Discard()   { g.discards++ }

func testCart() *fakeCart {
	return &fakeCart{snap: models.CartSnapshot{
		Items: []models.CartItem{
			{ProductID: 7, ProductName: "Desk Lamp", Quantity: 2, Price: 19.99},
		},
		TotalAmount: 39.98,
	}}
}

func fillForm(s *Session) {
	s.UpdateForm(models.CheckoutForm{
		ShippingAddress: models.ShippingAddress{
			FullName:     "Asha Verma",
			Phone:        "9876543210",
			AddressLine1: "12 Lake View Road",
			City:         "Pune",
			State:        "MH",
			ZipCode:      "411001",
		},
		CustomerEmail: "asha@example.com",
		CustomerPhone: "9876543210",
	})
}

func newGuestSession(t *testing.T, cart *fakeCart, api *fakeAPI) *Session {
	t.Helper()
	s, err := New(Config{
		ID:           "chk-1",
		Cart:         cart,
		API:          api,
		OTP:          api,
		GuestSession: &fakeGuest{id: "sess-abc"},
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewRejectsEmptyCart(t *testing.T) {
	_, err := New(Config{
		ID:   "chk-1",
		Cart: &fakeCart{},
		API:  &fakeAPI{},
		OTP:  &fakeAPI{},
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPrefillFromProfile(t *testing.T) {
	api := &fakeAPI{}
	s, err := New(Config{
		ID:          "chk-1",
		Cart:        testCart(),
		API:         api,
		OTP:         api,
		User:        &models.UserProfile{Name: "Asha Verma", Email: "asha@example.com", Phone: "9876543210"},
		BearerToken: "tok-123",
	})
	require.NoError(t, err)
	defer s.Close()

	v := s.View()
	assert.Equal(t, "Asha Verma", v.Form.ShippingAddress.FullName)
	assert.Equal(t, "9876543210", v.Form.ShippingAddress.Phone)
	assert.Equal(t, "asha@example.com", v.Form.CustomerEmail)
	assert.Equal(t, models.PaymentCOD, v.Form.PaymentMethod)
}

func TestGuestStartsBlank(t *testing.T) {
	s := newGuestSession(t, testCart(), &fakeAPI{})
	v := s.View()
	assert.Empty(t, v.Form.ShippingAddress.FullName)
	assert.Empty(t, v.Form.CustomerEmail)
	assert.Equal(t, StepShipping, v.Step)
}

func TestStepNavigationIsFree(t *testing.T) {
	s := newGuestSession(t, testCart(), &fakeAPI{})

	s.GoToStep(StepPayment)
	assert.Equal(t, StepPayment, s.View().Step)
	s.GoToStep(StepReview)
	assert.Equal(t, StepReview, s.View().Step)
	s.GoToStep(StepShipping)
	assert.Equal(t, StepShipping, s.View().Step)

	// Out-of-range steps are ignored.
	s.GoToStep(Step(9))
	assert.Equal(t, StepShipping, s.View().Step)
}

func TestPlaceOrderValidationForcesStepOne(t *testing.T) {
	for _, start := range []Step{StepPayment, StepReview} {
		api := &fakeAPI{}
		s := newGuestSession(t, testCart(), api)
		s.GoToStep(start)

		s.PlaceOrder(context.Background())

		v := s.View()
		assert.Equal(t, StepShipping, v.Step, "starting step %d", start)
		assert.NotEmpty(t, v.FieldErrors)
		assert.Contains(t, v.FieldErrors, "otp_verification")
		assert.Zero(t, api.guestCalls)
		assert.Equal(t, StatusEditing, v.Status)
	}
}

func TestPlaceOrderGuestSuccess(t *testing.T) {
	cart := testCart()
	api := &fakeAPI{result: &models.OrderResult{ID: 42, OrderNumber: "EV-1042", FinalAmount: 49.1684, Status: "pending"}}
	guest := &fakeGuest{id: "sess-abc"}
	s, err := New(Config{ID: "chk-1", Cart: cart, API: api, OTP: api, GuestSession: guest})
	require.NoError(t, err)
	defer s.Close()

	fillForm(s)
	s.OTP().Send(context.Background(), "9876543210")
	s.OTP().Verify(context.Background(), "9876543210", "123456")
	s.GoToStep(StepReview)

	s.PlaceOrder(context.Background())

	v := s.View()
	assert.Equal(t, StatusSuccess, v.Status)
	require.NotNil(t, v.Order)
	assert.Equal(t, "EV-1042", v.Order.OrderNumber)
	assert.Equal(t, 1, cart.clears)
	assert.Equal(t, 1, guest.discards)
	assert.Equal(t, 1, api.guestCalls)
	assert.Zero(t, api.authCalls)
	assert.Equal(t, "sess-abc", api.lastGuest)

	// Payload carries cart, totals and form.
	p := api.lastPayload
	require.Len(t, p.Items, 1)
	assert.Equal(t, 39.98, p.Items[0].TotalPrice)
	assert.InDelta(t, 39.98, p.TotalAmount, 1e-9)
	assert.InDelta(t, 3.1984, p.TaxAmount, 1e-9)
	assert.InDelta(t, 5.99, p.ShippingCost, 1e-9)
	assert.InDelta(t, 49.1684, p.FinalAmount, 1e-9)
	assert.Equal(t, models.PaymentCOD, p.PaymentMethod)
	assert.Equal(t, "asha@example.com", p.CustomerEmail)

	// A placed order is terminal: repeat submissions are ignored.
	s.PlaceOrder(context.Background())
	assert.Equal(t, 1, api.guestCalls)
	assert.Equal(t, 1, cart.clears)
}

func TestPlaceOrderAuthenticatedUsesBearer(t *testing.T) {
	cart := testCart()
	api := &fakeAPI{result: &models.OrderResult{OrderNumber: "EV-1100", Status: "pending"}}
	s, err := New(Config{
		ID:          "chk-1",
		Cart:        cart,
		API:         api,
		OTP:         api,
		User:        &models.UserProfile{Name: "Asha Verma", Email: "asha@example.com", Phone: "9876543210"},
		BearerToken: "tok-123",
	})
	require.NoError(t, err)
	defer s.Close()

	fillForm(s)
	s.PlaceOrder(context.Background())

	v := s.View()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Equal(t, 1, api.authCalls)
	assert.Zero(t, api.guestCalls)
	assert.Equal(t, "tok-123", api.lastBearer)
	assert.Equal(t, 1, cart.clears)
}

func TestPlaceOrderFailureKeepsReviewAndCart(t *testing.T) {
	cart := testCart()
	api := &fakeAPI{err: &backend.APIError{Status: 503, Message: "inventory check failed"}}
	guest := &fakeGuest{id: "sess-abc"}
	s, err := New(Config{ID: "chk-1", Cart: cart, API: api, OTP: api, GuestSession: guest})
	require.NoError(t, err)
	defer s.Close()

	fillForm(s)
	s.OTP().Send(context.Background(), "9876543210")
	s.OTP().Verify(context.Background(), "9876543210", "123456")
	s.GoToStep(StepReview)

	s.PlaceOrder(context.Background())

	v := s.View()
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, StepReview, v.Step)
	assert.Equal(t, "inventory check failed", v.Error)
	assert.Zero(t, cart.clears)
	assert.Zero(t, guest.discards)
	assert.Nil(t, v.Order)
	assert.Empty(t, v.FieldErrors)

	// Retry from Review succeeds without re-entering anything.
	api.err = nil
	api.result = &models.OrderResult{OrderNumber: "EV-1101", Status: "pending"}
	s.PlaceOrder(context.Background())
	assert.Equal(t, StatusSuccess, s.View().Status)
	assert.Equal(t, 1, cart.clears)
}

func TestValidationAfterFailureResetsStatus(t *testing.T) {
	cart := testCart()
	api := &fakeAPI{err: &backend.APIError{Status: 503, Message: "inventory check failed"}}
	s, err := New(Config{ID: "chk-1", Cart: cart, API: api, OTP: api, GuestSession: &fakeGuest{id: "sess-abc"}})
	require.NoError(t, err)
	defer s.Close()

	fillForm(s)
	s.OTP().Send(context.Background(), "9876543210")
	s.OTP().Verify(context.Background(), "9876543210", "123456")
	s.PlaceOrder(context.Background())
	require.Equal(t, StatusFailed, s.View().Status)

	// Blanking a required field and resubmitting puts the shopper back
	// into editing; the stale failure does not linger alongside the new
	// field errors.
	form := s.View().Form
	form.ShippingAddress.City = ""
	s.UpdateForm(form)
	s.PlaceOrder(context.Background())

	v := s.View()
	assert.Equal(t, StatusEditing, v.Status)
	assert.Equal(t, StepShipping, v.Step)
	assert.Contains(t, v.FieldErrors, "shipping_address.city")
	assert.Equal(t, 1, api.guestCalls)
}

func TestUpdateFormClearsOnlyEditedErrors(t *testing.T) {
	s := newGuestSession(t, testCart(), &fakeAPI{})

	// Submit the empty form to populate the error map.
	s.PlaceOrder(context.Background())
	v := s.View()
	require.Contains(t, v.FieldErrors, "shipping_address.full_name")
	require.Contains(t, v.FieldErrors, "shipping_address.city")

	form := v.Form
	form.ShippingAddress.FullName = "Asha Verma"
	s.UpdateForm(form)

	v = s.View()
	assert.NotContains(t, v.FieldErrors, "shipping_address.full_name")
	assert.Contains(t, v.FieldErrors, "shipping_address.city")
}

func TestViewTotalsFollowCart(t *testing.T) {
	cart := testCart()
	s := newGuestSession(t, cart, &fakeAPI{})

	v := s.View()
	assert.InDelta(t, 49.1684, v.Totals.FinalAmount, 1e-9)

	cart.snap.TotalAmount = 60
	v = s.View()
	assert.InDelta(t, 64.8, v.Totals.FinalAmount, 1e-9)
	assert.Zero(t, v.Totals.ShippingCost)
}
