// Package memory implements the app repository interfaces on process-local
// maps. It backs tests and small single-node deployments (DATABASE_URL=memory).
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harborstay/reservations/internal/domain"
)

// Store holds all engine state behind one mutex. WithTx serializes mutating
// sections, which subsumes the per-room/per-guest lock ordering the services
// request through the ForUpdate accessors. Mutating calls inside a
// transaction cannot fail after their row has been fetched, so a failed
// transaction leaves no partial writes behind.
type Store struct {
	mu       sync.Mutex
	rooms    map[string]domain.Room
	guests   map[string]domain.Guest
	bookings map[string]domain.Booking
	payments map[string]domain.Payment
}

func NewStore() *Store {
	return &Store{
		rooms:    make(map[string]domain.Room),
		guests:   make(map[string]domain.Guest),
		bookings: make(map[string]domain.Booking),
		payments: make(map[string]domain.Payment),
	}
}

type txKey struct{}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// locked takes the store mutex unless the context already runs inside WithTx.
func (s *Store) locked(ctx context.Context, fn func() error) error {
	if ctx.Value(txKey{}) == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}

// Rooms

func (s *Store) CreateRoom(ctx context.Context, room domain.Room) error {
	return s.locked(ctx, func() error {
		if _, ok := s.rooms[room.Number]; ok {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRoom, room.Number)
		}
		s.rooms[room.Number] = copyRoom(room)
		return nil
	})
}

func (s *Store) GetRoom(ctx context.Context, number string) (domain.Room, error) {
	var room domain.Room
	err := s.locked(ctx, func() error {
		stored, ok := s.rooms[number]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, number)
		}
		room = copyRoom(stored)
		return nil
	})
	return room, err
}

// GetRoomForUpdate matches the Postgres row-lock accessor; the store mutex
// already provides the exclusion.
func (s *Store) GetRoomForUpdate(ctx context.Context, number string) (domain.Room, error) {
	return s.GetRoom(ctx, number)
}

func (s *Store) UpdateRoom(ctx context.Context, room domain.Room) error {
	return s.locked(ctx, func() error {
		if _, ok := s.rooms[room.Number]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, room.Number)
		}
		s.rooms[room.Number] = copyRoom(room)
		return nil
	})
}

func (s *Store) UpdateRoomAvailability(ctx context.Context, number string, available bool) error {
	return s.locked(ctx, func() error {
		room, ok := s.rooms[number]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, number)
		}
		room.Available = available
		s.rooms[number] = room
		return nil
	})
}

func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := s.locked(ctx, func() error {
		for _, room := range s.rooms {
			rooms = append(rooms, copyRoom(room))
		}
		return nil
	})
	return rooms, err
}

func (s *Store) ListAvailableRooms(ctx context.Context, roomType string, checkIn, checkOut time.Time) ([]domain.Room, error) {
	var rooms []domain.Room
	err := s.locked(ctx, func() error {
	next:
		for _, room := range s.rooms {
			if roomType != "" && room.Type != roomType {
				continue
			}
			for _, b := range s.bookings {
				if b.RoomNumber == room.Number && b.Active() && b.OverlapsRange(checkIn, checkOut) {
					continue next
				}
			}
			rooms = append(rooms, copyRoom(room))
		}
		return nil
	})
	return rooms, err
}

// Guests

func (s *Store) CreateGuest(ctx context.Context, guest domain.Guest) error {
	return s.locked(ctx, func() error {
		if _, ok := s.guests[guest.ID]; ok {
			return fmt.Errorf("%w: guest %s exists", domain.ErrInvalidID, guest.ID)
		}
		s.guests[guest.ID] = copyGuest(guest)
		return nil
	})
}

func (s *Store) GetGuest(ctx context.Context, id string) (domain.Guest, error) {
	var guest domain.Guest
	err := s.locked(ctx, func() error {
		stored, ok := s.guests[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrGuestNotFound, id)
		}
		guest = copyGuest(stored)
		return nil
	})
	return guest, err
}

func (s *Store) GetGuestForUpdate(ctx context.Context, id string) (domain.Guest, error) {
	return s.GetGuest(ctx, id)
}

func (s *Store) UpdateGuestProfile(ctx context.Context, id, name, contact string) error {
	return s.locked(ctx, func() error {
		guest, ok := s.guests[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrGuestNotFound, id)
		}
		guest.Name = name
		guest.Contact = contact
		s.guests[id] = guest
		return nil
	})
}

func (s *Store) SetGuestBlocked(ctx context.Context, id string, blocked bool) error {
	return s.locked(ctx, func() error {
		guest, ok := s.guests[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrGuestNotFound, id)
		}
		guest.Blocked = blocked
		s.guests[id] = guest
		return nil
	})
}

func (s *Store) UpdateGuestLoyalty(ctx context.Context, id string, enrolled bool, points int) error {
	return s.locked(ctx, func() error {
		guest, ok := s.guests[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrGuestNotFound, id)
		}
		guest.LoyaltyEnrolled = enrolled
		guest.LoyaltyPoints = points
		s.guests[id] = guest
		return nil
	})
}

func (s *Store) AppendGuestReservation(ctx context.Context, guestID, bookingID string) error {
	return s.locked(ctx, func() error {
		guest, ok := s.guests[guestID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrGuestNotFound, guestID)
		}
		guest.Reservations = append(guest.Reservations, bookingID)
		s.guests[guestID] = guest
		return nil
	})
}

// Bookings

func (s *Store) CreateBooking(ctx context.Context, booking domain.Booking) error {
	return s.locked(ctx, func() error {
		if _, ok := s.bookings[booking.ID]; ok {
			return fmt.Errorf("%w: booking %s exists", domain.ErrInvalidID, booking.ID)
		}
		s.bookings[booking.ID] = copyBooking(booking)
		return nil
	})
}

func (s *Store) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	var booking domain.Booking
	err := s.locked(ctx, func() error {
		stored, ok := s.bookings[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
		}
		booking = copyBooking(stored)
		return nil
	})
	return booking, err
}

func (s *Store) GetBookingForUpdate(ctx context.Context, id string) (domain.Booking, error) {
	return s.GetBooking(ctx, id)
}

func (s *Store) UpdateBooking(ctx context.Context, booking domain.Booking) error {
	return s.locked(ctx, func() error {
		stored, ok := s.bookings[booking.ID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrBookingNotFound, booking.ID)
		}
		// The request log is append-only and owned by AppendSpecialRequest.
		booking.SpecialRequests = stored.SpecialRequests
		s.bookings[booking.ID] = copyBooking(booking)
		return nil
	})
}

func (s *Store) ListActiveBookingsForRoom(ctx context.Context, roomNumber string) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := s.locked(ctx, func() error {
		for _, b := range s.bookings {
			if b.RoomNumber == roomNumber && b.Active() {
				bookings = append(bookings, copyBooking(b))
			}
		}
		return nil
	})
	return bookings, err
}

func (s *Store) AppendSpecialRequest(ctx context.Context, bookingID, request string) error {
	return s.locked(ctx, func() error {
		booking, ok := s.bookings[bookingID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrBookingNotFound, bookingID)
		}
		booking.SpecialRequests = append(booking.SpecialRequests, request)
		s.bookings[bookingID] = booking
		return nil
	})
}

// Payments

func (s *Store) CreatePayment(ctx context.Context, payment domain.Payment) error {
	return s.locked(ctx, func() error {
		if _, ok := s.payments[payment.ID]; ok {
			return fmt.Errorf("%w: payment %s exists", domain.ErrInvalidID, payment.ID)
		}
		s.payments[payment.ID] = copyPayment(payment)
		return nil
	})
}

func (s *Store) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	var payment domain.Payment
	err := s.locked(ctx, func() error {
		stored, ok := s.payments[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, id)
		}
		payment = copyPayment(stored)
		return nil
	})
	return payment, err
}

func (s *Store) GetPaymentForUpdate(ctx context.Context, id string) (domain.Payment, error) {
	return s.GetPayment(ctx, id)
}

func (s *Store) UpdatePayment(ctx context.Context, payment domain.Payment) error {
	return s.locked(ctx, func() error {
		stored, ok := s.payments[payment.ID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, payment.ID)
		}
		// The grant marker is owned by SetPaymentGrantedPoints.
		payment.GrantedPoints = stored.GrantedPoints
		s.payments[payment.ID] = copyPayment(payment)
		return nil
	})
}

func (s *Store) FindActivePaymentByBooking(ctx context.Context, bookingID string) (*domain.Payment, error) {
	var found *domain.Payment
	err := s.locked(ctx, func() error {
		for _, p := range s.payments {
			if p.BookingID == bookingID && p.Active() {
				cp := copyPayment(p)
				found = &cp
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *Store) SetPaymentGrantedPoints(ctx context.Context, paymentID string, points *int) error {
	return s.locked(ctx, func() error {
		payment, ok := s.payments[paymentID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, paymentID)
		}
		if points == nil {
			payment.GrantedPoints = nil
		} else {
			v := *points
			payment.GrantedPoints = &v
		}
		s.payments[paymentID] = payment
		return nil
	})
}

// Copies keep callers from aliasing stored slices and pointers.

func copyRoom(r domain.Room) domain.Room {
	r.Amenities = append([]string(nil), r.Amenities...)
	return r
}

func copyGuest(g domain.Guest) domain.Guest {
	g.Reservations = append([]string(nil), g.Reservations...)
	return g
}

func copyBooking(b domain.Booking) domain.Booking {
	b.SpecialRequests = append([]string(nil), b.SpecialRequests...)
	return b
}

func copyPayment(p domain.Payment) domain.Payment {
	if p.GrantedPoints != nil {
		v := *p.GrantedPoints
		p.GrantedPoints = &v
	}
	return p
}
