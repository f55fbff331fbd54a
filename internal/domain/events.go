package domain

import "time"

// Event names double as queue routing keys for the notification collaborator.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentCompleted = "payment.completed"
	EventPaymentRefunded  = "payment.refunded"
)

// BookingEvent is emitted when a booking is confirmed or cancelled. It carries
// enough context for downstream consumers to notify the guest without querying
// the engine.
type BookingEvent struct {
	BookingID    string    `json:"booking_id"`
	GuestID      string    `json:"guest_id"`
	GuestContact string    `json:"guest_contact"`
	RoomNumber   string    `json:"room_number"`
	CheckIn      string    `json:"check_in"`
	CheckOut     string    `json:"check_out"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PaymentEvent is emitted when a payment completes or is refunded.
type PaymentEvent struct {
	PaymentID    string    `json:"payment_id"`
	BookingID    string    `json:"booking_id"`
	GuestID      string    `json:"guest_id"`
	GuestContact string    `json:"guest_contact"`
	Amount       string    `json:"amount"`
	OccurredAt   time.Time `json:"occurred_at"`
}
