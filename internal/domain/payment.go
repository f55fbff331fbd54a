package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment settles the computed cost of a confirmed booking.
type Payment struct {
	ID        string
	BookingID string
	Amount    decimal.Decimal
	Method    string
	Status    PaymentStatus
	// GrantedPoints records the loyalty points credited when the payment
	// completed. Nil until accrual runs; a refund reverses exactly this value
	// rather than recomputing from the (possibly since-adjusted) amount.
	GrantedPoints *int
	CreatedAt     time.Time
}

// Active reports whether the payment counts against the one-active-payment-
// per-booking rule.
func (p Payment) Active() bool {
	return p.Status != PaymentStatusFailed
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusRefunded || s == PaymentStatusFailed
}

// CanTransitionTo encodes the payment state graph:
// Pending -> Completed -> Refunded, and Pending -> Failed.
func (s PaymentStatus) CanTransitionTo(to PaymentStatus) bool {
	switch to {
	case PaymentStatusCompleted:
		return s == PaymentStatusPending
	case PaymentStatusRefunded:
		return s == PaymentStatusCompleted
	case PaymentStatusFailed:
		return s == PaymentStatusPending
	default:
		return false
	}
}

// Valid is a pure check that the payment could be processed.
func (p Payment) Valid() bool {
	return p.Amount.GreaterThan(decimal.Zero) && p.Method != ""
}

// StayCost computes nights x nightly rate.
func StayCost(nights int, nightlyRate decimal.Decimal) decimal.Decimal {
	return nightlyRate.Mul(decimal.NewFromInt(int64(nights)))
}

// AccrualPoints returns the loyalty points earned for a completed payment:
// one point per 10 spent, floored.
func AccrualPoints(amount decimal.Decimal) int {
	if amount.Sign() <= 0 {
		return 0
	}
	return int(amount.Div(decimal.NewFromInt(10)).IntPart())
}

// ValidCardNumber reports whether a card number is 16 numeric digits.
func ValidCardNumber(number string) bool {
	if len(number) != 16 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
