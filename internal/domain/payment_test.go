package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccrualPoints(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		amount   string
		expected int
	}{
		{"exact multiple", "600", 60},
		{"floors fractional points", "659.99", 65},
		{"below threshold", "9.99", 0},
		{"zero", "0", 0},
		{"negative earns nothing", "-50", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tc.amount)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.amount, err)
			}
			if got := AccrualPoints(amount); got != tc.expected {
				t.Fatalf("expected %d points for %s, got %d", tc.expected, tc.amount, got)
			}
		})
	}
}

func TestValidCardNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		number string
		valid  bool
	}{
		{"sixteen digits", "4111111111111111", true},
		{"too short", "411111111111111", false},
		{"too long", "41111111111111111", false},
		{"separators rejected", "4111-1111-1111-11", false},
		{"letters rejected", "4111111111111a11", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidCardNumber(tc.number); got != tc.valid {
				t.Fatalf("ValidCardNumber(%q) = %v, expected %v", tc.number, got, tc.valid)
			}
		})
	}
}

func TestPaymentActive(t *testing.T) {
	t.Parallel()

	for _, status := range []PaymentStatus{PaymentStatusPending, PaymentStatusCompleted, PaymentStatusRefunded} {
		if !(Payment{Status: status}).Active() {
			t.Fatalf("%s payment should count as active", status)
		}
	}
	if (Payment{Status: PaymentStatusFailed}).Active() {
		t.Fatalf("failed payment must not block a retry")
	}
}
