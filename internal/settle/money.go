package settle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidFraction is returned when a share value is not a finite number in [0, 1].
	ErrInvalidFraction = errors.New("settle: fraction must be a finite number in [0, 1]")
	// ErrCurrencyMismatch is returned when two Money values of different currencies are combined.
	ErrCurrencyMismatch = errors.New("settle: currency mismatch")
	// ErrInvalidAmount is returned when a decimal amount cannot be parsed into minor units.
	ErrInvalidAmount = errors.New("settle: invalid amount")
)

// Money is an exact amount in integer minor currency units (e.g. cents).
// All arithmetic stays in integer minor units; fractional cents are never
// accumulated silently.
type Money struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// NewMoney constructs a Money value from minor units.
func NewMoney(amountMinor int64, currency string) Money {
	return Money{AmountMinor: amountMinor, Currency: currency}
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{AmountMinor: m.AmountMinor + other.AmountMinor, Currency: m.Currency}, nil
}

// Sub returns m - other. Both operands must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{AmountMinor: m.AmountMinor - other.AmountMinor, Currency: m.Currency}, nil
}

// MulFraction multiplies the amount by a share fraction and rounds to the
// nearest minor unit, ties away from zero. The fraction must be a finite
// number in [0, 1].
func (m Money) MulFraction(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 1 {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidFraction, f)
	}
	product := float64(m.AmountMinor) * f
	return Money{AmountMinor: int64(math.Round(product)), Currency: m.Currency}, nil
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.AmountMinor < 0 {
		return Money{AmountMinor: -m.AmountMinor, Currency: m.Currency}
	}
	return m
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{AmountMinor: -m.AmountMinor, Currency: m.Currency}
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.AmountMinor < 0 }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.AmountMinor > 0 }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.AmountMinor == 0 }

// Cmp compares two amounts of the same currency. It returns -1, 0, or 1.
func (m Money) Cmp(other Money) (int, error) {
	if m.Currency != other.Currency {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	switch {
	case m.AmountMinor < other.AmountMinor:
		return -1, nil
	case m.AmountMinor > other.AmountMinor:
		return 1, nil
	default:
		return 0, nil
	}
}

// String renders the amount as a decimal with two fractional digits.
func (m Money) String() string {
	sign := ""
	minor := m.AmountMinor
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, m.Currency)
}

// ParseAmount converts decimal user input such as "12.50" into minor units.
// This is the single place where textual amounts enter the system; no
// currency math ever happens in floating point.
func ParseAmount(input, currency string) (Money, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Money{}, fmt.Errorf("%w: empty input", ErrInvalidAmount)
	}
	negative := false
	switch trimmed[0] {
	case '-':
		negative = true
		trimmed = trimmed[1:]
	case '+':
		trimmed = trimmed[1:]
	}
	whole := trimmed
	frac := ""
	if idx := strings.IndexByte(trimmed, '.'); idx >= 0 {
		whole = trimmed[:idx]
		frac = trimmed[idx+1:]
	}
	if whole == "" && frac == "" {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if len(frac) > 2 {
		return Money{}, fmt.Errorf("%w: %q has sub-minor precision", ErrInvalidAmount, input)
	}
	// ParseInt would tolerate a second sign inside either part.
	if !isDigits(whole) || !isDigits(frac) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	minor := units*100 + cents
	if negative {
		minor = -minor
	}
	return Money{AmountMinor: minor, Currency: currency}, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
