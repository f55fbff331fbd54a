package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusCheckedOut BookingStatus = "checked_out"
)

// Booking represents a stay reservation. Bookings are never deleted, only
// status-terminated.
type Booking struct {
	ID         string
	GuestID    string
	RoomNumber string
	CheckIn    time.Time
	CheckOut   time.Time
	Status     BookingStatus
	// SpecialRequests is append-only, in submission order.
	SpecialRequests []string
	CreatedAt       time.Time
}

// Active reports whether the booking still occupies its room for overlap
// purposes (Pending or Confirmed).
func (b Booking) Active() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCheckedOut
}

// CanTransitionTo encodes the booking state graph:
// Pending -> Confirmed -> CheckedOut, and Pending/Confirmed -> Cancelled.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	switch to {
	case BookingStatusConfirmed:
		return s == BookingStatusPending
	case BookingStatusCancelled:
		return s == BookingStatusPending || s == BookingStatusConfirmed
	case BookingStatusCheckedOut:
		return s == BookingStatusConfirmed
	default:
		return false
	}
}

// Nights returns the whole calendar days between check-in and check-out.
func (b Booking) Nights() int {
	return NightsBetween(b.CheckIn, b.CheckOut)
}

// OverlapsRange applies the half-open interval test against [in, out).
func (b Booking) OverlapsRange(in, out time.Time) bool {
	return RangesOverlap(b.CheckIn, b.CheckOut, in, out)
}
