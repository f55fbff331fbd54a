package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/clock"
	"github.com/harborstay/reservations/internal/domain"
	"github.com/harborstay/reservations/internal/notify"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetRoom(ctx context.Context, number string) (domain.Room, error)
	GetRoomForUpdate(ctx context.Context, number string) (domain.Room, error)
	UpdateRoomAvailability(ctx context.Context, number string, available bool) error
	GetGuest(ctx context.Context, id string) (domain.Guest, error)
	GetGuestForUpdate(ctx context.Context, id string) (domain.Guest, error)
	AppendGuestReservation(ctx context.Context, guestID, bookingID string) error
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
	GetBookingForUpdate(ctx context.Context, id string) (domain.Booking, error)
	// ListActiveBookingsForRoom returns the room's Pending and Confirmed
	// bookings, the set the no-double-booking invariant ranges over.
	ListActiveBookingsForRoom(ctx context.Context, roomNumber string) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, booking domain.Booking) error
	UpdateBooking(ctx context.Context, booking domain.Booking) error
	AppendSpecialRequest(ctx context.Context, bookingID, request string) error
}

// BookingService drives the booking state machine and the no-double-booking
// invariant. The overlap check and the room mutation always run inside one
// transaction that holds the room row lock, so two concurrent requests cannot
// both pass the check.
type BookingService struct {
	repo      BookingRepository
	clock     clock.Clock
	publisher notify.Publisher
}

func NewBookingService(repo BookingRepository, clk clock.Clock, opts ...BookingServiceOption) *BookingService {
	svc := &BookingService{
		repo:      repo,
		clock:     clk,
		publisher: notify.Nop{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type BookingServiceOption func(*BookingService)

// WithBookingPublisher sets the emitter for confirmed/cancelled events.
func WithBookingPublisher(p notify.Publisher) BookingServiceOption {
	return func(s *BookingService) {
		if p != nil {
			s.publisher = p
		}
	}
}

type CreateBookingInput struct {
	GuestID    string
	RoomNumber string
	CheckIn    time.Time
	CheckOut   time.Time
}

func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	if in.GuestID == "" || in.RoomNumber == "" {
		return domain.Booking{}, fmt.Errorf("%w: guest id and room number are required", domain.ErrInvalidArgument)
	}
	checkIn := domain.DateOnly(in.CheckIn)
	checkOut := domain.DateOnly(in.CheckOut)
	if !checkOut.After(checkIn) {
		return domain.Booking{}, fmt.Errorf("%w: check-out %s must be after check-in %s",
			domain.ErrInvalidDateRange, checkOut.Format(time.DateOnly), checkIn.Format(time.DateOnly))
	}

	now := s.clock.Now()
	var result domain.Booking

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		guest, err := s.repo.GetGuestForUpdate(txCtx, in.GuestID)
		if err != nil {
			return err
		}
		if guest.Blocked {
			return fmt.Errorf("%w: guest %s", domain.ErrGuestBlocked, guest.ID)
		}

		// Room row lock: held until commit so the overlap check below and the
		// reservation are one atomic step.
		room, err := s.repo.GetRoomForUpdate(txCtx, in.RoomNumber)
		if err != nil {
			return err
		}

		active, err := s.repo.ListActiveBookingsForRoom(txCtx, room.Number)
		if err != nil {
			return err
		}
		for _, b := range active {
			if b.OverlapsRange(checkIn, checkOut) {
				return fmt.Errorf("%w: room %s conflicts with booking %s", domain.ErrRoomUnavailable, room.Number, b.ID)
			}
		}

		booking := domain.Booking{
			ID:         newID(),
			GuestID:    guest.ID,
			RoomNumber: room.Number,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Status:     domain.BookingStatusPending,
			CreatedAt:  now,
		}

		if err := s.repo.CreateBooking(txCtx, booking); err != nil {
			return err
		}
		if err := s.repo.UpdateRoomAvailability(txCtx, room.Number, false); err != nil {
			return err
		}
		if err := s.repo.AppendGuestReservation(txCtx, guest.ID, booking.ID); err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (domain.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) Confirm(ctx context.Context, id string) (domain.Booking, error) {
	var (
		result domain.Booking
		event  domain.BookingEvent
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !booking.Status.CanTransitionTo(domain.BookingStatusConfirmed) {
			return transitionErr("booking", booking.ID, string(booking.Status), string(domain.BookingStatusConfirmed))
		}
		booking.Status = domain.BookingStatusConfirmed
		if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
			return err
		}
		result = booking
		event, err = s.bookingEvent(txCtx, booking)
		return err
	})
	if err != nil {
		return domain.Booking{}, err
	}
	_ = s.publisher.Publish(ctx, domain.EventBookingConfirmed, event)
	return result, nil
}

func (s *BookingService) Cancel(ctx context.Context, id string) (domain.Booking, error) {
	var (
		result domain.Booking
		event  domain.BookingEvent
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !booking.Status.CanTransitionTo(domain.BookingStatusCancelled) {
			return transitionErr("booking", booking.ID, string(booking.Status), string(domain.BookingStatusCancelled))
		}
		booking.Status = domain.BookingStatusCancelled
		if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
			return err
		}
		if err := s.repo.UpdateRoomAvailability(txCtx, booking.RoomNumber, true); err != nil {
			return err
		}
		result = booking
		event, err = s.bookingEvent(txCtx, booking)
		return err
	})
	if err != nil {
		return domain.Booking{}, err
	}
	_ = s.publisher.Publish(ctx, domain.EventBookingCancelled, event)
	return result, nil
}

func (s *BookingService) CheckOut(ctx context.Context, id string) (domain.Booking, error) {
	var result domain.Booking
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !booking.Status.CanTransitionTo(domain.BookingStatusCheckedOut) {
			return transitionErr("booking", booking.ID, string(booking.Status), string(domain.BookingStatusCheckedOut))
		}
		booking.Status = domain.BookingStatusCheckedOut
		if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
			return err
		}
		if err := s.repo.UpdateRoomAvailability(txCtx, booking.RoomNumber, true); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

// ModifyDates reschedules a Pending or Confirmed booking, re-running the
// overlap check against the room's other active bookings.
func (s *BookingService) ModifyDates(ctx context.Context, id string, newCheckIn, newCheckOut time.Time) (domain.Booking, error) {
	checkIn := domain.DateOnly(newCheckIn)
	checkOut := domain.DateOnly(newCheckOut)
	if !checkOut.After(checkIn) {
		return domain.Booking{}, fmt.Errorf("%w: check-out %s must be after check-in %s",
			domain.ErrInvalidDateRange, checkOut.Format(time.DateOnly), checkIn.Format(time.DateOnly))
	}

	var result domain.Booking
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		rescheduled, err := s.rescheduleLocked(txCtx, booking, checkIn, checkOut)
		if err != nil {
			return err
		}
		result = rescheduled
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

// Extend advances the check-out by extraNights whole nights.
func (s *BookingService) Extend(ctx context.Context, id string, extraNights int) (domain.Booking, error) {
	if extraNights <= 0 {
		return domain.Booking{}, fmt.Errorf("%w: extraNights must be positive, got %d", domain.ErrInvalidArgument, extraNights)
	}

	var result domain.Booking
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		newCheckOut := booking.CheckOut.AddDate(0, 0, extraNights)
		rescheduled, err := s.rescheduleLocked(txCtx, booking, booking.CheckIn, newCheckOut)
		if err != nil {
			return err
		}
		result = rescheduled
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

// rescheduleLocked runs inside the caller's transaction with the booking row
// already locked.
func (s *BookingService) rescheduleLocked(txCtx context.Context, booking domain.Booking, checkIn, checkOut time.Time) (domain.Booking, error) {
	if !booking.Active() {
		return domain.Booking{}, transitionErr("booking", booking.ID, string(booking.Status), "rescheduled")
	}

	if _, err := s.repo.GetRoomForUpdate(txCtx, booking.RoomNumber); err != nil {
		return domain.Booking{}, err
	}
	active, err := s.repo.ListActiveBookingsForRoom(txCtx, booking.RoomNumber)
	if err != nil {
		return domain.Booking{}, err
	}
	for _, other := range active {
		if other.ID == booking.ID {
			continue
		}
		if other.OverlapsRange(checkIn, checkOut) {
			return domain.Booking{}, fmt.Errorf("%w: room %s conflicts with booking %s",
				domain.ErrRoomUnavailable, booking.RoomNumber, other.ID)
		}
	}

	booking.CheckIn = checkIn
	booking.CheckOut = checkOut
	if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
		return domain.Booking{}, err
	}
	return booking, nil
}

// AssignRoom moves a booking to a different room. Both room locks are taken in
// ascending room-number order; the release of the old room and the reservation
// of the new one commit together or not at all.
func (s *BookingService) AssignRoom(ctx context.Context, id, newRoomNumber string) (domain.Booking, error) {
	if newRoomNumber == "" {
		return domain.Booking{}, fmt.Errorf("%w: room number is required", domain.ErrInvalidArgument)
	}

	var result domain.Booking
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !booking.Active() {
			return transitionErr("booking", booking.ID, string(booking.Status), "reassigned")
		}
		if booking.RoomNumber == newRoomNumber {
			result = booking
			return nil
		}

		// Fixed global lock order prevents deadlock between two concurrent
		// reassignments crossing the same pair of rooms.
		first, second := booking.RoomNumber, newRoomNumber
		if second < first {
			first, second = second, first
		}
		if _, err := s.repo.GetRoomForUpdate(txCtx, first); err != nil {
			return err
		}
		if _, err := s.repo.GetRoomForUpdate(txCtx, second); err != nil {
			return err
		}

		active, err := s.repo.ListActiveBookingsForRoom(txCtx, newRoomNumber)
		if err != nil {
			return err
		}
		for _, other := range active {
			if other.ID == booking.ID {
				continue
			}
			if other.OverlapsRange(booking.CheckIn, booking.CheckOut) {
				return fmt.Errorf("%w: room %s conflicts with booking %s",
					domain.ErrRoomUnavailable, newRoomNumber, other.ID)
			}
		}

		oldRoom := booking.RoomNumber
		booking.RoomNumber = newRoomNumber
		if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
			return err
		}
		if err := s.repo.UpdateRoomAvailability(txCtx, oldRoom, true); err != nil {
			return err
		}
		if err := s.repo.UpdateRoomAvailability(txCtx, newRoomNumber, false); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

// Cost computes the stay price: whole nights times the room's nightly rate.
func (s *BookingService) Cost(ctx context.Context, id string) (decimal.Decimal, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return decimal.Decimal{}, err
	}
	nights := booking.Nights()
	if nights <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: booking %s spans %d nights", domain.ErrInvalidDateRange, booking.ID, nights)
	}
	room, err := s.repo.GetRoom(ctx, booking.RoomNumber)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return domain.StayCost(nights, room.NightlyRate), nil
}

func (s *BookingService) AddSpecialRequest(ctx context.Context, id, request string) error {
	if request == "" {
		return fmt.Errorf("%w: request text is required", domain.ErrInvalidArgument)
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		return s.repo.AppendSpecialRequest(txCtx, booking.ID, request)
	})
}

func (s *BookingService) bookingEvent(txCtx context.Context, booking domain.Booking) (domain.BookingEvent, error) {
	guest, err := s.repo.GetGuest(txCtx, booking.GuestID)
	if err != nil {
		return domain.BookingEvent{}, err
	}
	return domain.BookingEvent{
		BookingID:    booking.ID,
		GuestID:      guest.ID,
		GuestContact: guest.Contact,
		RoomNumber:   booking.RoomNumber,
		CheckIn:      booking.CheckIn.Format(time.DateOnly),
		CheckOut:     booking.CheckOut.Format(time.DateOnly),
		OccurredAt:   s.clock.Now(),
	}, nil
}

func transitionErr(entity, id, from, to string) error {
	return fmt.Errorf("%w: %s %s cannot go from %s to %s", domain.ErrInvalidTransition, entity, id, from, to)
}
