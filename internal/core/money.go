// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals; anything shown to a user or returned by an
// aggregate is rounded to cents with banker's rounding (half-even).
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is a non-negative monetary amount in the transaction's currency.
type Money struct {
	Amount decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{Amount: decimal.Zero}

func NewMoney(d decimal.Decimal) Money {
	return Money{Amount: d}
}

// MoneyFromFloat is intended for tests and JSON numbers; prefer ParseAmount.
func MoneyFromFloat(f float64) Money {
	return Money{Amount: decimal.NewFromFloat(f)}
}

// MustParseAmount panics on invalid input. Used for literals in tests and seeds.
func MustParseAmount(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseAmount converts a decimal string to Money rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-even on the third decimal place. Negative, signed, zero and malformed
// values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.34 (half-even)
//	ParseAmount("12.355") -> 12.36 (half-even)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Amount: d}.Round2()
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Validate requires a strictly positive amount, as the API does on input.
func (m Money) Validate() error {
	if !m.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Round2 rounds to cents, half-even.
func (m Money) Round2() Money {
	return Money{Amount: m.Amount.RoundBank(2)}
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount.Add(o.Amount)}
}

func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount.Sub(o.Amount)}
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }
func (m Money) Equal(o Money) bool {
	return m.Amount.Equal(o.Amount)
}

// String formats with exactly two decimals.
func (m Money) String() string {
	return m.Amount.StringFixedBank(2)
}

// Float64 returns the value for JSON responses and display.
// Note: use Amount for calculations.
func (m Money) Float64() float64 {
	return m.Amount.InexactFloat64()
}
