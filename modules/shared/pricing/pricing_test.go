package pricing_test

import (
	"testing"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/pricing"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

func assertMoney(t *testing.T, name string, got types.Money, want string) {
	t.Helper()
	if got.StringFixed() != want {
		t.Errorf("%s = %s, want %s", name, got.StringFixed(), want)
	}
}

func TestCalculate_BelowFreeShipping(t *testing.T) {
	totals := pricing.Calculate([]pricing.Line{
		{UnitPrice: types.USD("29.99"), Quantity: 2},
		{UnitPrice: types.USD("15.00"), Quantity: 1},
	})

	assertMoney(t, "subtotal", totals.Subtotal, "74.98")
	assertMoney(t, "tax", totals.Tax, "6.00")
	assertMoney(t, "shipping", totals.ShippingFee, "10.00")
	assertMoney(t, "total", totals.Total, "90.98")
}

func TestCalculate_FreeShippingAtThreshold(t *testing.T) {
	totals := pricing.Calculate([]pricing.Line{
		{UnitPrice: types.USD("50.00"), Quantity: 2},
	})

	assertMoney(t, "subtotal", totals.Subtotal, "100.00")
	assertMoney(t, "tax", totals.Tax, "8.00")
	assertMoney(t, "shipping", totals.ShippingFee, "0.00")
	assertMoney(t, "total", totals.Total, "108.00")
}

func TestCalculate_JustBelowThreshold(t *testing.T) {
	totals := pricing.Calculate([]pricing.Line{
		{UnitPrice: types.USD("99.99"), Quantity: 1},
	})

	assertMoney(t, "shipping", totals.ShippingFee, "10.00")
	// 99.99 * 0.08 = 7.9992
	assertMoney(t, "tax", totals.Tax, "8.00")
	assertMoney(t, "total", totals.Total, "117.99")
}

func TestCalculate_TaxRoundsHalfEven(t *testing.T) {
	totals := pricing.Calculate([]pricing.Line{
		{UnitPrice: types.USD("0.3125"), Quantity: 1},
	})
	assertMoney(t, "subtotal", totals.Subtotal, "0.31")
	// 0.31 * 0.08 = 0.0248
	assertMoney(t, "tax", totals.Tax, "0.02")

	totals = pricing.Calculate([]pricing.Line{
		{UnitPrice: types.USD("0.3125"), Quantity: 2},
	})
	// 0.625 rounds half-even to 0.62
	assertMoney(t, "subtotal", totals.Subtotal, "0.62")
}

func TestCalculate_Empty(t *testing.T) {
	totals := pricing.Calculate(nil)

	assertMoney(t, "subtotal", totals.Subtotal, "0.00")
	assertMoney(t, "tax", totals.Tax, "0.00")
	assertMoney(t, "shipping", totals.ShippingFee, "0.00")
	assertMoney(t, "total", totals.Total, "0.00")
}

func TestCalculate_TotalIsSumOfParts(t *testing.T) {
	totals := pricing.Calculate([]pricing.Line{
		{UnitPrice: types.USD("3.33"), Quantity: 3},
		{UnitPrice: types.USD("0.07"), Quantity: 7},
	})

	sum, err := totals.Subtotal.Add(totals.Tax)
	if err != nil {
		t.Fatal(err)
	}
	sum, err = sum.Add(totals.ShippingFee)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Equals(totals.Total) {
		t.Errorf("total %s != subtotal+tax+shipping %s", totals.Total, sum)
	}
}
