package settle

import (
	"errors"
	"math"
	"testing"
)

func TestMulFractionRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		amount   int64
		fraction float64
		want     int64
	}{
		{100, 0.5, 50},
		{101, 0.5, 51},
		{-101, 0.5, -51},
		{100, 1.0 / 3.0, 33},
		{200, 1.0 / 3.0, 67},
		{10000, 0.3333333333333333, 3333},
		{100, 0, 0},
		{100, 1, 100},
	}
	for _, tc := range cases {
		got, err := NewMoney(tc.amount, cur).MulFraction(tc.fraction)
		if err != nil {
			t.Fatalf("MulFraction(%d, %v): %v", tc.amount, tc.fraction, err)
		}
		if got.AmountMinor != tc.want {
			t.Fatalf("MulFraction(%d, %v) = %d, want %d", tc.amount, tc.fraction, got.AmountMinor, tc.want)
		}
	}
}

func TestMulFractionRejectsInvalidFractions(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.01, 1.01} {
		if _, err := NewMoney(100, cur).MulFraction(f); !errors.Is(err, ErrInvalidFraction) {
			t.Fatalf("fraction %v: expected ErrInvalidFraction, got %v", f, err)
		}
	}
}

func TestThirdsReconcileWithinOneMinorUnit(t *testing.T) {
	amount := NewMoney(100, cur)
	total := int64(0)
	for i := 0; i < 3; i++ {
		share, err := amount.MulFraction(1.0 / 3.0)
		if err != nil {
			t.Fatalf("MulFraction: %v", err)
		}
		total += share.AmountMinor
	}
	if diff := amount.AmountMinor - total; diff < -1 || diff > 1 {
		t.Fatalf("three thirds of 100 sum to %d, off by %d", total, diff)
	}
}

func TestAddSubRequireMatchingCurrency(t *testing.T) {
	if _, err := NewMoney(100, "EUR").Add(NewMoney(50, "USD")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch on add, got %v", err)
	}
	if _, err := NewMoney(100, "EUR").Sub(NewMoney(50, "USD")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch on sub, got %v", err)
	}
	sum, err := NewMoney(100, "EUR").Add(NewMoney(-250, "EUR"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.AmountMinor != -150 {
		t.Fatalf("expected -150, got %d", sum.AmountMinor)
	}
}

func TestCmpAndPredicates(t *testing.T) {
	a := NewMoney(-5, cur)
	if !a.IsNegative() || a.IsPositive() || a.IsZero() {
		t.Fatalf("predicates wrong for %v", a)
	}
	if got := a.Abs().AmountMinor; got != 5 {
		t.Fatalf("Abs = %d, want 5", got)
	}
	cmp, err := a.Cmp(Zero(cur))
	if err != nil {
		t.Fatalf("Cmp: %v", err)
	}
	if cmp != -1 {
		t.Fatalf("Cmp = %d, want -1", cmp)
	}
	if _, err := a.Cmp(Zero("USD")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch on cmp, got %v", err)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"12.50", 1250},
		{"12.5", 1250},
		{"12", 1200},
		{"0.05", 5},
		{".5", 50},
		{"-3.99", -399},
		{"+1.00", 100},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.input, cur)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.input, err)
		}
		if got.AmountMinor != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.input, got.AmountMinor, tc.want)
		}
		if got.Currency != cur {
			t.Fatalf("ParseAmount(%q) currency = %q", tc.input, got.Currency)
		}
	}

	for _, input := range []string{"", ".", "12.505", "abc", "1.2.3", "1,50", "12.-5", "1.-", "1.+5", "--1", "+-2", "1 2"} {
		if _, err := ParseAmount(input, cur); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q): expected ErrInvalidAmount, got %v", input, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := NewMoney(1250, "EUR").String(); got != "12.50 EUR" {
		t.Fatalf("String = %q", got)
	}
	if got := NewMoney(-5, "EUR").String(); got != "-0.05 EUR" {
		t.Fatalf("String = %q", got)
	}
}
