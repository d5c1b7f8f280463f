package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evergreenmart/storefront/internal/models"
)

func validForm() models.CheckoutForm {
	return models.CheckoutForm{
		ShippingAddress: models.ShippingAddress{
			FullName:     "Asha Verma",
			Phone:        "9876543210",
			AddressLine1: "12 Lake View Road",
			City:         "Pune",
			State:        "MH",
			ZipCode:      "411001",
			Country:      "IN",
		},
		PaymentMethod: models.PaymentCOD,
		CustomerEmail: "asha@example.com",
		CustomerPhone: "9876543210",
	}
}

func TestCheckoutEmptyGuestForm(t *testing.T) {
	errs := Checkout(models.CheckoutForm{}, false, false)

	wantKeys := []string{
		"shipping_address.full_name",
		"shipping_address.phone",
		"shipping_address.address_line1",
		"shipping_address.city",
		"shipping_address.state",
		"shipping_address.zip_code",
		"customer_email",
		"customer_phone",
		"otp_verification",
	}
	byKey := errs.ByKey()
	require.Len(t, byKey, len(wantKeys))
	for _, k := range wantKeys {
		assert.Contains(t, byKey, k)
	}
}

func TestCheckoutValidGuestForm(t *testing.T) {
	errs := Checkout(validForm(), false, true)
	assert.True(t, errs.Valid(), "unexpected errors: %v", errs.ByKey())
}

func TestCheckoutAuthenticatedSkipsGuestRules(t *testing.T) {
	form := validForm()
	form.CustomerEmail = ""
	form.CustomerPhone = ""
	// OTP never verified, but the shopper is signed in.
	errs := Checkout(form, true, false)
	assert.True(t, errs.Valid(), "unexpected errors: %v", errs.ByKey())
}

func TestCheckoutPhoneDigits(t *testing.T) {
	tests := []struct {
		phone string
		ok    bool
	}{
		{"123-456-789", false}, // 9 digits
		{"1234567890", true},
		{"(987) 654-3210", true}, // formatting stripped
		{"12345678901", false},
	}
	for _, tt := range tests {
		form := validForm()
		form.ShippingAddress.Phone = tt.phone
		errs := Checkout(form, true, false)
		_, found := errs[Field{Section: "shipping_address", Name: "phone"}]
		assert.Equal(t, !tt.ok, found, "phone %q", tt.phone)
	}
}

func TestCheckoutZipDigits(t *testing.T) {
	tests := []struct {
		zip string
		ok  bool
	}{
		{"12345", false},
		{"123456", true},
		{"411 001", true},
		{"1234567", false},
	}
	for _, tt := range tests {
		form := validForm()
		form.ShippingAddress.ZipCode = tt.zip
		errs := Checkout(form, true, false)
		_, found := errs[Field{Section: "shipping_address", Name: "zip_code"}]
		assert.Equal(t, !tt.ok, found, "zip %q", tt.zip)
	}
}

func TestCheckoutGuestPhoneHasNoDigitRule(t *testing.T) {
	form := validForm()
	form.CustomerPhone = "12345" // short, but only presence is required
	errs := Checkout(form, false, true)
	assert.True(t, errs.Valid(), "unexpected errors: %v", errs.ByKey())
}

func TestCheckoutEmailShape(t *testing.T) {
	form := validForm()
	form.CustomerEmail = "not-an-email"
	errs := Checkout(form, false, true)
	assert.Contains(t, errs.ByKey(), "customer_email")
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "shipping_address.city", Field{Section: "shipping_address", Name: "city"}.Key())
	assert.Equal(t, "customer_email", Field{Name: "customer_email"}.Key())
}
