// Package pricing computes the order totals shown at checkout.
package pricing

const (
	// TaxRate is the flat tax applied to every order.
	TaxRate = 0.08

	// FreeShippingThreshold is the subtotal (major currency unit) at which
	// shipping becomes free.
	FreeShippingThreshold = 50.0

	// FlatShippingCost is charged below the free-shipping threshold.
	FlatShippingCost = 5.99
)

// Totals is the full price breakdown for a cart subtotal.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	ShippingCost   float64 `json:"shipping_cost"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
}

// Calculate derives tax, shipping and the final amount from the cart
// subtotal. Pure function: no rounding, no state. Display rounding is a
// presentation concern, see Format.
func Calculate(subtotal float64) Totals {
	tax := subtotal * TaxRate
	shipping := FlatShippingCost
	if subtotal >= FreeShippingThreshold {
		shipping = 0
	}
	return Totals{
		Subtotal:     subtotal,
		TaxAmount:    tax,
		ShippingCost: shipping,
		FinalAmount:  subtotal + tax + shipping,
	}
}
