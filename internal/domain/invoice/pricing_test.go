package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoicehub/internal/core/types"
)

func mustMoney(s string) types.Money { return types.MustMoney(s) }

func strPtr(s string) *string { return &s }

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, mustMoney(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestParseDiscount(t *testing.T) {
	v := mustMoney("5")

	tests := []struct {
		name string
		raw  *string
		want DiscountKind
	}{
		{"absent", nil, DiscountNone},
		{"flat", strPtr("flat"), DiscountFlat},
		{"percentage mixed case", strPtr(" Percentage "), DiscountPercentage},
		{"unknown", strPtr("bogo"), DiscountNone},
		{"empty", strPtr(""), DiscountNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDiscount(tt.raw, v)
			assert.Equal(t, tt.want, d.Kind)
			assertMoney(t, "5", d.Value)
		})
	}
}

func TestCalcDiscount(t *testing.T) {
	tests := []struct {
		name     string
		discount Discount
		subTotal string
		want     string
	}{
		{"percentage of 200 at 10", Discount{DiscountPercentage, mustMoney("10")}, "200", "20"},
		{"percentage above 100 is not capped", Discount{DiscountPercentage, mustMoney("150")}, "20", "30"},
		{"flat below subtotal", Discount{DiscountFlat, mustMoney("15")}, "200", "15"},
		{"flat capped at subtotal", Discount{DiscountFlat, mustMoney("500")}, "200", "200"},
		{"zero value", Discount{DiscountFlat, mustMoney("0")}, "200", "0"},
		{"negative value", Discount{DiscountPercentage, mustMoney("-5")}, "200", "0"},
		{"none", Discount{DiscountNone, mustMoney("50")}, "200", "0"},
		{"unrecognized kind", Discount{DiscountKind("bogo"), mustMoney("50")}, "200", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMoney(t, tt.want, CalcDiscount(tt.discount, mustMoney(tt.subTotal)))
		})
	}
}

func TestCalcDiscount_FlatNeverExceedsSubTotal(t *testing.T) {
	for _, sub := range []string{"0", "0.01", "1", "99.99", "1000"} {
		for _, val := range []string{"0", "0.5", "1", "100", "100000"} {
			got := CalcDiscount(Discount{DiscountFlat, mustMoney(val)}, mustMoney(sub))
			assert.True(t, got.LessThanOrEqual(mustMoney(sub)), "sub=%s val=%s got=%s", sub, val, got)
			assert.False(t, got.IsNegative())
		}
	}
}

func TestComputeTotals_EndToEndExample(t *testing.T) {
	lines := []ValidatedLine{{LineNo: 1, ProductID: 1, Quantity: 3, UnitPrice: mustMoney("10"), LineTotal: mustMoney("30")}}

	totals := ComputeTotals(lines, NoDiscount(), mustMoney("5"))

	assertMoney(t, "30", totals.SubTotal)
	assertMoney(t, "0", totals.DiscountAmount)
	assertMoney(t, "1.5", totals.TaxAmount)
	assertMoney(t, "31.5", totals.GrandTotal)
}

func TestComputeTotals_TaxOnDiscountedAmount(t *testing.T) {
	lines := []ValidatedLine{
		{LineTotal: mustMoney("100")},
		{LineTotal: mustMoney("50")},
	}

	totals := ComputeTotals(lines, Discount{DiscountPercentage, mustMoney("10")}, mustMoney("20"))

	assertMoney(t, "150", totals.SubTotal)
	assertMoney(t, "15", totals.DiscountAmount)
	assertMoney(t, "27", totals.TaxAmount)
	assertMoney(t, "162", totals.GrandTotal)
}

func TestComputeTotals_GrandTotalIdentity(t *testing.T) {
	discounts := []Discount{
		NoDiscount(),
		{DiscountFlat, mustMoney("7.77")},
		{DiscountFlat, mustMoney("10000")},
		{DiscountPercentage, mustMoney("33.3")},
		{DiscountKind("other"), mustMoney("10")},
	}
	lineSets := [][]string{{"0.1", "0.2"}, {"19.99"}, {"1", "2", "3", "1000.005"}, {}}

	for _, set := range lineSets {
		var lines []ValidatedLine
		for _, total := range set {
			lines = append(lines, ValidatedLine{LineTotal: mustMoney(total)})
		}
		for _, d := range discounts {
			for _, rate := range []string{"0", "5", "12.5", "100"} {
				tot := ComputeTotals(lines, d, mustMoney(rate))
				want := tot.SubTotal.Sub(tot.DiscountAmount).Add(tot.TaxAmount)
				assert.True(t, want.Equal(tot.GrandTotal), "lines=%v discount=%v rate=%s", set, d, rate)
				assert.True(t, CalcDiscount(d, tot.SubTotal).Equal(tot.DiscountAmount))
				assert.False(t, tot.GrandTotal.IsNegative())
			}
		}
	}
}
