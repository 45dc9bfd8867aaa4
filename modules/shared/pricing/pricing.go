// Package pricing computes cart and order totals.
//
// All arithmetic is exact decimal; each reported amount is rounded half-even
// to two decimal places and Total is the sum of the rounded components, so
// the figures a customer sees always add up.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

var (
	// TaxRate is applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.08")
	// FreeShippingThreshold is the subtotal at or above which shipping is free.
	FreeShippingThreshold = types.USD("100.00")
	// FlatShippingFee is charged below FreeShippingThreshold.
	FlatShippingFee = types.USD("10.00")
)

const places = 2

// Line is one priced line of a cart or order.
type Line struct {
	UnitPrice types.Money
	Quantity  int
}

// Totals is the price breakdown of a set of lines.
type Totals struct {
	Subtotal    types.Money
	Tax         types.Money
	ShippingFee types.Money
	Total       types.Money
}

// ZeroTotals is the breakdown of an empty cart. No shipping is charged when
// there is nothing to ship.
func ZeroTotals() Totals {
	z := types.Zero(types.DefaultCurrency)
	return Totals{Subtotal: z, Tax: z, ShippingFee: z, Total: z}
}

// Calculate prices the given lines. Lines are assumed to share one currency.
func Calculate(lines []Line) Totals {
	if len(lines) == 0 {
		return ZeroTotals()
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Amount().Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.RoundBank(places)

	tax := subtotal.Mul(TaxRate).RoundBank(places)

	shipping := FlatShippingFee.Amount()
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold.Amount()) {
		shipping = decimal.Zero
	}

	total := subtotal.Add(tax).Add(shipping)

	currency := lines[0].UnitPrice.Currency()
	return Totals{
		Subtotal:    types.MustNewMoney(subtotal, currency),
		Tax:         types.MustNewMoney(tax, currency),
		ShippingFee: types.MustNewMoney(shipping, currency),
		Total:       types.MustNewMoney(total, currency),
	}
}
