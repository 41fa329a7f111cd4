// Package money provides exact euro arithmetic over integer cents.
// Payslip amounts arrive as floats from text extraction; every sum or
// difference that must reconcile goes through this package instead.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// EUR is the only currency payslips are issued in.
const EUR = "EUR"

// Money is a euro amount held in cents.
// It wraps go-money for arithmetic and shopspring/decimal for conversions.
type Money struct {
	m *money.Money
}

// New creates Money from cents.
func New(cents int64) *Money {
	return &Money{m: money.New(cents, EUR)}
}

// Zero returns 0.00 EUR.
func Zero() *Money {
	return New(0)
}

// NewFromFloat rounds a float euro amount to the nearest cent.
func NewFromFloat(amount float64) *Money {
	return NewFromDecimal(decimal.NewFromFloat(amount))
}

// NewFromDecimal rounds a decimal euro amount to the nearest cent.
func NewFromDecimal(amount decimal.Decimal) *Money {
	fraction := money.GetCurrency(EUR).Fraction
	cents := amount.Shift(int32(fraction)).Round(0).IntPart()
	return New(cents)
}

// FromOptional treats an absent amount as zero. Only callers that have
// decided absence means nothing to them (variance, totals) should use it.
func FromOptional(amount *float64) *Money {
	if amount == nil {
		return Zero()
	}
	return NewFromFloat(*amount)
}

// Sum adds all amounts; nil entries count as zero.
func Sum(amounts ...*Money) *Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Amount returns the value in cents.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// IsZero reports whether the amount is 0.00.
func (m *Money) IsZero() bool {
	return m.Amount() == 0
}

// IsNegative reports whether the amount is below zero.
func (m *Money) IsNegative() bool {
	return m.Amount() < 0
}

// Abs returns the absolute value.
func (m *Money) Abs() *Money {
	if m.IsNegative() {
		return m.Negate()
	}
	return New(m.Amount())
}

// Negate flips the sign.
func (m *Money) Negate() *Money {
	return New(-m.Amount())
}

// Add returns m + other. Both operands are EUR so the currency check
// inside go-money cannot fail.
func (m *Money) Add(other *Money) *Money {
	result, err := m.money().Add(other.money())
	if err != nil {
		panic(fmt.Sprintf("money: %v", err))
	}
	return &Money{m: result}
}

// Subtract returns m - other.
func (m *Money) Subtract(other *Money) *Money {
	result, err := m.money().Subtract(other.money())
	if err != nil {
		panic(fmt.Sprintf("money: %v", err))
	}
	return &Money{m: result}
}

// Compare returns -1, 0 or 1.
func (m *Money) Compare(other *Money) int {
	a, b := m.Amount(), other.Amount()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Display formats for humans, e.g. "€1,234.56".
func (m *Money) Display() string {
	return m.money().Display()
}

// String returns the plain decimal form, e.g. "1234.56".
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(2)
}

// ToDecimal converts cents back to a euro decimal.
func (m *Money) ToDecimal() decimal.Decimal {
	fraction := money.GetCurrency(EUR).Fraction
	return decimal.New(m.Amount(), -int32(fraction))
}

// ToFloat64 converts to float euros for JSON and display.
func (m *Money) ToFloat64() float64 {
	return m.ToDecimal().InexactFloat64()
}

// MarshalJSON encodes as a number of euros.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToFloat64())
}

// UnmarshalJSON decodes a number of euros.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid money value: %w", err)
	}
	*m = *NewFromDecimal(d)
	return nil
}

func (m *Money) money() *money.Money {
	if m == nil || m.m == nil {
		return money.New(0, EUR)
	}
	return m.m
}
