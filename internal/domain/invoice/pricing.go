package invoice

import (
	"strings"

	"invoicehub/internal/core/types"
)

// DiscountKind is the discount policy of an invoice.
type DiscountKind string

const (
	DiscountNone       DiscountKind = "none"
	DiscountFlat       DiscountKind = "flat"
	DiscountPercentage DiscountKind = "percentage"
)

// Discount is a closed variant: Kind selects how Value is applied.
type Discount struct {
	Kind  DiscountKind
	Value types.Money
}

// NoDiscount is the zero-discount policy.
func NoDiscount() Discount {
	return Discount{Kind: DiscountNone, Value: types.Zero()}
}

// ParseDiscount maps the client's discount type onto a policy.
// A missing or unrecognized type means no discount; it is not an error.
func ParseDiscount(raw *string, value types.Money) Discount {
	if raw == nil {
		return Discount{Kind: DiscountNone, Value: value}
	}
	switch kind := DiscountKind(strings.ToLower(strings.TrimSpace(*raw))); kind {
	case DiscountFlat, DiscountPercentage:
		return Discount{Kind: kind, Value: value}
	default:
		return Discount{Kind: DiscountNone, Value: value}
	}
}

// CalcDiscount returns the discount amount for subTotal.
// A flat discount is capped at subTotal so the payable amount never goes negative.
func CalcDiscount(d Discount, subTotal types.Money) types.Money {
	if !d.Value.IsPositive() {
		return types.Zero()
	}
	switch d.Kind {
	case DiscountFlat:
		return types.MinMoney(d.Value, subTotal)
	case DiscountPercentage:
		return types.Percent(subTotal, d.Value)
	default:
		return types.Zero()
	}
}

// ValidatedLine is a requested line after stock validation, priced at the current product price.
type ValidatedLine struct {
	LineNo    int
	ProductID int64
	Quantity  int
	UnitPrice types.Money
	LineTotal types.Money
}

// Totals are the monetary fields of an invoice.
type Totals struct {
	SubTotal       types.Money
	DiscountAmount types.Money
	TaxAmount      types.Money
	GrandTotal     types.Money
}

// ComputeTotals prices an invoice. Tax applies to the discounted amount.
// Arithmetic is exact decimal; nothing is rounded.
func ComputeTotals(lines []ValidatedLine, discount Discount, taxRate types.Money) Totals {
	subTotal := types.Zero()
	for _, l := range lines {
		subTotal = subTotal.Add(l.LineTotal)
	}

	discountAmount := CalcDiscount(discount, subTotal)
	taxable := subTotal.Sub(discountAmount)
	taxAmount := types.Percent(taxable, taxRate)

	return Totals{
		SubTotal:       subTotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		GrandTotal:     taxable.Add(taxAmount),
	}
}
