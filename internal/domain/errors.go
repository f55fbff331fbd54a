package domain

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrGuestNotFound       = errors.New("guest not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrDuplicateRoom       = errors.New("room number already registered")
	ErrRoomUnavailable     = errors.New("room unavailable")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrInvalidBookingState = errors.New("invalid booking state")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrAmountMismatch      = errors.New("split amounts do not match payment amount")
	ErrInvalidCoupon       = errors.New("invalid coupon code")
	ErrInsufficientPoints  = errors.New("insufficient loyalty points")
	ErrAlreadyEnrolled     = errors.New("already enrolled in loyalty program")
	ErrGuestBlocked        = errors.New("guest is blocked from booking")
	ErrPaymentExists       = errors.New("booking already has an active payment")
	ErrInvalidID           = errors.New("invalid id")
)
