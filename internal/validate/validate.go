// Package validate checks the checkout form before submission.
package validate

import (
	"regexp"
	"strings"

	"github.com/evergreenmart/storefront/internal/models"
)

// Field identifies a form field by section and name instead of a
// concatenated string key. Section is empty for top-level fields.
type Field struct {
	Section string
	Name    string
}

// Key renders the wire key used in JSON responses, e.g.
// "shipping_address.full_name" or "customer_email".
func (f Field) Key() string {
	if f.Section == "" {
		return f.Name
	}
	return f.Section + "." + f.Name
}

// Errors maps fields to human-readable messages. An empty map means the
// form is valid.
type Errors map[Field]string

func (e Errors) Add(section, name, msg string) {
	e[Field{Section: section, Name: name}] = msg
}

func (e Errors) Valid() bool { return len(e) == 0 }

// ByKey flattens the map to wire keys for the JSON response.
func (e Errors) ByKey() map[string]string {
	if len(e) == 0 {
		return nil
	}
	out := make(map[string]string, len(e))
	for f, msg := range e {
		out[f.Key()] = msg
	}
	return out
}

// Basic email validation, same shape the order form has always accepted.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Checkout validates the full form and collects every failure; it never
// short-circuits and never returns an error itself. Guest shoppers get the
// additional contact and OTP requirements.
//
// Note the shipping phone requires exactly 10 digits while the guest
// contact phone has no digit-count rule. That asymmetry is inherited from
// the original order form and kept on purpose.
func Checkout(form models.CheckoutForm, authenticated, otpVerified bool) Errors {
	errs := make(Errors)
	addr := form.ShippingAddress

	if blank(addr.FullName) {
		errs.Add("shipping_address", "full_name", "Full name is required.")
	}
	if blank(addr.Phone) {
		errs.Add("shipping_address", "phone", "Phone number is required.")
	} else if len(digits(addr.Phone)) != 10 {
		errs.Add("shipping_address", "phone", "Please enter a valid 10-digit phone number.")
	}
	if blank(addr.AddressLine1) {
		errs.Add("shipping_address", "address_line1", "Address is required.")
	}
	if blank(addr.City) {
		errs.Add("shipping_address", "city", "City is required.")
	}
	if blank(addr.State) {
		errs.Add("shipping_address", "state", "State is required.")
	}
	if blank(addr.ZipCode) {
		errs.Add("shipping_address", "zip_code", "ZIP code is required.")
	} else if len(digits(addr.ZipCode)) != 6 {
		errs.Add("shipping_address", "zip_code", "Please enter a valid 6-digit ZIP code.")
	}

	if !authenticated {
		if blank(form.CustomerEmail) {
			errs.Add("", "customer_email", "Email address is required.")
		} else if !emailRegex.MatchString(form.CustomerEmail) {
			errs.Add("", "customer_email", "Please enter a valid email address.")
		}
		if blank(form.CustomerPhone) {
			errs.Add("", "customer_phone", "Phone number is required.")
		}
		if !otpVerified {
			errs.Add("", "otp_verification", "Please verify your phone number before placing the order.")
		}
	}

	return errs
}
