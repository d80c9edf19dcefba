// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Percent returns amount * rate / 100.
func Percent(amount, rate Money) Money {
	return amount.Mul(rate).Div(hundred)
}

// Sum adds up values. Sum() is zero.
func Sum(values ...Money) Money {
	return decimal.Sum(decimal.Zero, values...)
}

// InPercentRange reports 0 <= rate <= 100.
func InPercentRange(rate Money) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}

// MinMoney returns the smaller of a and b.
func MinMoney(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}

// FromInt converts a count, such as a line quantity, to Money.
func FromInt(n int) Money {
	return decimal.NewFromInt(int64(n))
}
