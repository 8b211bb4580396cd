package pricing

import (
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	DefaultShippingFee = decimal.RequireFromString("5.99")
	DefaultTaxRate     = decimal.RequireFromString("0.10")
)

// Calculator derives totals with a flat shipping fee and a flat tax rate.
// Values are never rounded here; use Format for display.
type Calculator struct {
	shippingFee decimal.Decimal
	taxRate     decimal.Decimal
}

func NewCalculator(shippingFee, taxRate decimal.Decimal) *Calculator {
	return &Calculator{shippingFee: shippingFee, taxRate: taxRate}
}

func Default() *Calculator {
	return NewCalculator(DefaultShippingFee, DefaultTaxRate)
}

func (c *Calculator) Compute(items []domain.LineItem) domain.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = c.shippingFee
	}
	tax := subtotal.Mul(c.taxRate)

	return domain.Totals{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Tax:         tax,
		GrandTotal:  subtotal.Add(shipping).Add(tax),
	}
}

// Format renders an amount with two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
