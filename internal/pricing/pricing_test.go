package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name         string
		subtotal     float64
		wantTax      float64
		wantShipping float64
		wantFinal    float64
	}{
		{
			name:         "below free shipping threshold",
			subtotal:     49.99,
			wantTax:      3.9992,
			wantShipping: 5.99,
			wantFinal:    59.9792,
		},
		{
			name:         "exactly at threshold ships free",
			subtotal:     50.00,
			wantTax:      4.00,
			wantShipping: 0,
			wantFinal:    54.00,
		},
		{
			name:         "well above threshold",
			subtotal:     200,
			wantTax:      16,
			wantShipping: 0,
			wantFinal:    216,
		},
		{
			name:         "zero subtotal still pays shipping",
			subtotal:     0,
			wantTax:      0,
			wantShipping: 5.99,
			wantFinal:    5.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.subtotal)
			assert.Equal(t, tt.subtotal, got.Subtotal)
			assert.InDelta(t, tt.wantTax, got.TaxAmount, 1e-9)
			assert.InDelta(t, tt.wantShipping, got.ShippingCost, 1e-9)
			assert.InDelta(t, tt.wantFinal, got.FinalAmount, 1e-9)
			assert.Zero(t, got.DiscountAmount)
		})
	}
}

func TestCalculateIsPure(t *testing.T) {
	first := Calculate(49.99)
	second := Calculate(49.99)
	assert.Equal(t, first, second)
}

func TestFormatDefault(t *testing.T) {
	// Rounding to currency precision happens at display time only.
	assert.Contains(t, FormatDefault(54), "54.00")
	assert.Contains(t, FormatDefault(59.9792), "59.98")
	assert.Contains(t, FormatDefault(54), "$")
}
