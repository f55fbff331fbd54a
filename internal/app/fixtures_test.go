package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/clock"
	"github.com/harborstay/reservations/internal/domain"
	"github.com/harborstay/reservations/internal/storage/memory"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	rooms    *RoomService
	guests   *GuestService
	loyalty  *LoyaltyService
	bookings *BookingService
	payments *PaymentService
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFixed(testNow)
	events := &recordingPublisher{}
	loyalty := NewLoyaltyService(store)
	return &fixture{
		store:    store,
		rooms:    NewRoomService(store),
		guests:   NewGuestService(store),
		loyalty:  loyalty,
		bookings: NewBookingService(store, clk, WithBookingPublisher(events)),
		payments: NewPaymentService(store, clk, loyalty, WithPaymentPublisher(events)),
		events:   events,
	}
}

func (f *fixture) seedRoom(t *testing.T, number, roomType string, rate float64) domain.Room {
	t.Helper()
	room, err := f.rooms.Register(context.Background(), RegisterRoomInput{
		Number:      number,
		Type:        roomType,
		NightlyRate: decimal.NewFromFloat(rate),
	})
	if err != nil {
		t.Fatalf("seed room %s: %v", number, err)
	}
	return room
}

func (f *fixture) seedGuest(t *testing.T, name string) domain.Guest {
	t.Helper()
	guest, err := f.guests.Create(context.Background(), CreateGuestInput{
		Name:    name,
		Contact: name + "@example.com",
	})
	if err != nil {
		t.Fatalf("seed guest %s: %v", name, err)
	}
	return guest
}

func (f *fixture) seedBooking(t *testing.T, guestID, roomNumber string, checkIn, checkOut time.Time) domain.Booking {
	t.Helper()
	booking, err := f.bookings.Create(context.Background(), CreateBookingInput{
		GuestID:    guestID,
		RoomNumber: roomNumber,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return booking
}

func (f *fixture) seedConfirmedBooking(t *testing.T, guestID, roomNumber string, checkIn, checkOut time.Time) domain.Booking {
	t.Helper()
	booking := f.seedBooking(t, guestID, roomNumber, checkIn, checkOut)
	confirmed, err := f.bookings.Confirm(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("seed confirm: %v", err)
	}
	return confirmed
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(_ context.Context, event string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
