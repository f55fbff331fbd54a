package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/clock"
	"github.com/harborstay/reservations/internal/domain"
	"github.com/harborstay/reservations/internal/storage/memory"
)

func (f *fixture) seedPayment(t *testing.T, method string) domain.Payment {
	t.Helper()
	guest := f.seedGuest(t, "alice")
	f.seedRoom(t, "101", "suite", 150)
	booking := f.seedConfirmedBooking(t, guest.ID, "101", date(2025, 7, 1), date(2025, 7, 5))
	payment, err := f.payments.Create(context.Background(), CreatePaymentInput{
		BookingID: booking.ID,
		Method:    method,
	})
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return payment
}

func TestPaymentService_Create(t *testing.T) {
	t.Parallel()

	t.Run("initializes amount from stay cost", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Credit Card")

		if payment.Status != domain.PaymentStatusPending {
			t.Fatalf("expected pending, got %s", payment.Status)
		}
		if payment.Amount.String() != "600" {
			t.Fatalf("expected amount 600, got %s", payment.Amount)
		}
	})

	t.Run("requires confirmed booking", func(t *testing.T) {
		f := newFixture(t)
		guest := f.seedGuest(t, "alice")
		f.seedRoom(t, "101", "suite", 150)
		booking := f.seedBooking(t, guest.ID, "101", date(2025, 7, 1), date(2025, 7, 5))

		_, err := f.payments.Create(context.Background(), CreatePaymentInput{
			BookingID: booking.ID,
			Method:    "Cash",
		})
		if !errors.Is(err, domain.ErrInvalidBookingState) {
			t.Fatalf("expected ErrInvalidBookingState, got %v", err)
		}
	})

	t.Run("rejects malformed card numbers", func(t *testing.T) {
		f := newFixture(t)
		guest := f.seedGuest(t, "alice")
		f.seedRoom(t, "101", "suite", 150)
		booking := f.seedConfirmedBooking(t, guest.ID, "101", date(2025, 7, 1), date(2025, 7, 5))

		_, err := f.payments.Create(context.Background(), CreatePaymentInput{
			BookingID:  booking.ID,
			Method:     "Card",
			CardNumber: "4111-1111",
		})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument for card number, got %v", err)
		}

		if _, err := f.payments.Create(context.Background(), CreatePaymentInput{
			BookingID:  booking.ID,
			Method:     "Card",
			CardNumber: "4111111111111111",
		}); err != nil {
			t.Fatalf("expected 16-digit card to pass, got %v", err)
		}
	})

	t.Run("one active payment per booking", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Cash")

		_, err := f.payments.Create(context.Background(), CreatePaymentInput{
			BookingID: payment.BookingID,
			Method:    "Card",
		})
		if !errors.Is(err, domain.ErrPaymentExists) {
			t.Fatalf("expected ErrPaymentExists, got %v", err)
		}
	})

	t.Run("failed payment can be replaced", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Cash")
		if _, err := f.payments.RecordFailure(context.Background(), payment.ID); err != nil {
			t.Fatalf("record failure: %v", err)
		}

		if _, err := f.payments.Create(context.Background(), CreatePaymentInput{
			BookingID: payment.BookingID,
			Method:    "Card",
		}); err != nil {
			t.Fatalf("expected retry after failure to succeed, got %v", err)
		}
	})
}

func TestPaymentService_Adjustments(t *testing.T) {
	t.Parallel()

	t.Run("VAT then discount compose multiplicatively", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")

		withVAT, err := f.payments.ApplyVAT(context.Background(), payment.ID, decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("vat: %v", err)
		}
		if withVAT.Amount.String() != "660" {
			t.Fatalf("expected 660 after 10%% VAT, got %s", withVAT.Amount)
		}

		discounted, err := f.payments.ApplyDiscount(context.Background(), payment.ID, decimal.NewFromInt(50))
		if err != nil {
			t.Fatalf("discount: %v", err)
		}
		if discounted.Amount.String() != "330" {
			t.Fatalf("expected 330 after 50%% discount, got %s", discounted.Amount)
		}
	})

	t.Run("negative percent is rejected", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")

		if _, err := f.payments.ApplyDiscount(context.Background(), payment.ID, decimal.NewFromInt(-5)); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument for discount, got %v", err)
		}
		if _, err := f.payments.ApplyVAT(context.Background(), payment.ID, decimal.NewFromInt(-5)); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument for VAT, got %v", err)
		}
	})

	t.Run("known coupon discounts, unknown coupon fails", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")

		discounted, err := f.payments.ApplyCoupon(context.Background(), payment.ID, "DISCOUNT10")
		if err != nil {
			t.Fatalf("coupon: %v", err)
		}
		if discounted.Amount.String() != "540" {
			t.Fatalf("expected 540 after DISCOUNT10, got %s", discounted.Amount)
		}

		if _, err := f.payments.ApplyCoupon(context.Background(), payment.ID, "BOGUS"); !errors.Is(err, domain.ErrInvalidCoupon) {
			t.Fatalf("expected ErrInvalidCoupon, got %v", err)
		}
		unchanged, _ := f.payments.Get(context.Background(), payment.ID)
		if unchanged.Amount.String() != "540" {
			t.Fatalf("expected amount untouched by invalid coupon, got %s", unchanged.Amount)
		}
	})

	t.Run("no adjustments after processing", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")
		if _, err := f.payments.Process(context.Background(), payment.ID); err != nil {
			t.Fatalf("process: %v", err)
		}

		if _, err := f.payments.ApplyVAT(context.Background(), payment.ID, decimal.NewFromInt(10)); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestPaymentService_Split(t *testing.T) {
	t.Parallel()

	t.Run("matching amounts set the combined method", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")

		split, err := f.payments.Split(context.Background(), payment.ID,
			[]string{"Cash", "Card"},
			[]decimal.Decimal{decimal.NewFromInt(300), decimal.NewFromInt(300)},
		)
		if err != nil {
			t.Fatalf("split: %v", err)
		}
		if split.Method != "Cash, Card" {
			t.Fatalf("expected combined method label, got %q", split.Method)
		}
	})

	t.Run("mismatch leaves method and amount unchanged", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")

		_, err := f.payments.Split(context.Background(), payment.ID,
			[]string{"Cash"},
			[]decimal.Decimal{decimal.NewFromInt(100)},
		)
		if !errors.Is(err, domain.ErrAmountMismatch) {
			t.Fatalf("expected ErrAmountMismatch, got %v", err)
		}
		unchanged, _ := f.payments.Get(context.Background(), payment.ID)
		if unchanged.Method != "Card" || unchanged.Amount.String() != "600" {
			t.Fatalf("expected payment untouched, got method=%q amount=%s", unchanged.Method, unchanged.Amount)
		}
	})
}

func TestPaymentService_Process(t *testing.T) {
	t.Parallel()

	t.Run("settles and grants loyalty points", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")

		processed, err := f.payments.Process(context.Background(), payment.ID)
		if err != nil {
			t.Fatalf("process: %v", err)
		}
		if processed.Status != domain.PaymentStatusCompleted {
			t.Fatalf("expected completed, got %s", processed.Status)
		}
		if processed.GrantedPoints == nil || *processed.GrantedPoints != 60 {
			t.Fatalf("expected 60 granted points recorded, got %v", processed.GrantedPoints)
		}

		booking, _ := f.bookings.Get(context.Background(), payment.BookingID)
		guest, _ := f.guests.Get(context.Background(), booking.GuestID)
		if guest.LoyaltyPoints != 60 {
			t.Fatalf("expected guest balance 60, got %d", guest.LoyaltyPoints)
		}
		if got := f.events.names(); len(got) == 0 || got[len(got)-1] != domain.EventPaymentCompleted {
			t.Fatalf("expected %s emitted, got %v", domain.EventPaymentCompleted, got)
		}
	})

	t.Run("second process fails and changes nothing", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")
		if _, err := f.payments.Process(context.Background(), payment.ID); err != nil {
			t.Fatalf("process: %v", err)
		}

		if _, err := f.payments.Process(context.Background(), payment.ID); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
		unchanged, _ := f.payments.Get(context.Background(), payment.ID)
		if unchanged.Amount.String() != "600" || unchanged.Status != domain.PaymentStatusCompleted {
			t.Fatalf("expected payment unchanged, got amount=%s status=%s", unchanged.Amount, unchanged.Status)
		}

		booking, _ := f.bookings.Get(context.Background(), payment.BookingID)
		guest, _ := f.guests.Get(context.Background(), booking.GuestID)
		if guest.LoyaltyPoints != 60 {
			t.Fatalf("expected no double grant, balance %d", guest.LoyaltyPoints)
		}
	})

	t.Run("refund reverses exactly the granted points", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")
		if _, err := f.payments.Process(context.Background(), payment.ID); err != nil {
			t.Fatalf("process: %v", err)
		}

		refunded, err := f.payments.Refund(context.Background(), payment.ID)
		if err != nil {
			t.Fatalf("refund: %v", err)
		}
		if refunded.Status != domain.PaymentStatusRefunded {
			t.Fatalf("expected refunded, got %s", refunded.Status)
		}

		booking, _ := f.bookings.Get(context.Background(), payment.BookingID)
		guest, _ := f.guests.Get(context.Background(), booking.GuestID)
		if guest.LoyaltyPoints != 0 {
			t.Fatalf("expected balance back to 0, got %d", guest.LoyaltyPoints)
		}
		if got := f.events.names(); len(got) == 0 || got[len(got)-1] != domain.EventPaymentRefunded {
			t.Fatalf("expected %s emitted, got %v", domain.EventPaymentRefunded, got)
		}
	})

	t.Run("refund requires completed", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")

		if _, err := f.payments.Refund(context.Background(), payment.ID); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("failure is terminal and grants nothing", func(t *testing.T) {
		f := newFixture(t)
		payment := f.seedPayment(t, "Card")

		failed, err := f.payments.RecordFailure(context.Background(), payment.ID)
		if err != nil {
			t.Fatalf("record failure: %v", err)
		}
		if failed.Status != domain.PaymentStatusFailed {
			t.Fatalf("expected failed, got %s", failed.Status)
		}
		if _, err := f.payments.Process(context.Background(), payment.ID); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition after failure, got %v", err)
		}

		booking, _ := f.bookings.Get(context.Background(), payment.BookingID)
		guest, _ := f.guests.Get(context.Background(), booking.GuestID)
		if guest.LoyaltyPoints != 0 {
			t.Fatalf("expected no points for failed payment, got %d", guest.LoyaltyPoints)
		}
	})
}

func TestPaymentService_TimestampsFollowClock(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	clk := clock.NewManual(testNow)
	loyalty := NewLoyaltyService(store)
	rooms := NewRoomService(store)
	guests := NewGuestService(store)
	bookings := NewBookingService(store, clk)
	payments := NewPaymentService(store, clk, loyalty)

	ctx := context.Background()
	guest, err := guests.Create(ctx, CreateGuestInput{Name: "alice", Contact: "alice@example.com"})
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if _, err := rooms.Register(ctx, RegisterRoomInput{
		Number:      "101",
		Type:        "suite",
		NightlyRate: decimal.NewFromInt(150),
	}); err != nil {
		t.Fatalf("register room: %v", err)
	}

	booking, err := bookings.Create(ctx, CreateBookingInput{
		GuestID:    guest.ID,
		RoomNumber: "101",
		CheckIn:    date(2025, 7, 1),
		CheckOut:   date(2025, 7, 5),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if !booking.CreatedAt.Equal(testNow) {
		t.Fatalf("expected booking created at %s, got %s", testNow, booking.CreatedAt)
	}
	if _, err := bookings.Confirm(ctx, booking.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	clk.Advance(48 * time.Hour)

	payment, err := payments.Create(ctx, CreatePaymentInput{BookingID: booking.ID, Method: "Card"})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if want := testNow.Add(48 * time.Hour); !payment.CreatedAt.Equal(want) {
		t.Fatalf("expected payment created at %s, got %s", want, payment.CreatedAt)
	}
}

func TestPaymentService_Validate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.seedPayment(t, "Card")

	ok, err := f.payments.Validate(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Fatalf("expected a positive-amount payment with a method to validate")
	}
}
