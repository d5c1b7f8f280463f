package pricing

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format renders an amount for display in the shopper's locale. Amounts are
// rounded to the currency's precision here and only here; Calculate keeps
// full precision.
func Format(tag language.Tag, amount float64) string {
	p := message.NewPrinter(tag)
	return p.Sprint(currency.NarrowSymbol(currency.USD.Amount(amount)))
}

// FormatDefault renders an amount for en-US, the storefront's fallback
// locale.
func FormatDefault(amount float64) string {
	return Format(language.AmericanEnglish, amount)
}
