package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/clock"
	"github.com/harborstay/reservations/internal/domain"
	"github.com/harborstay/reservations/internal/notify"
)

type PaymentRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
	GetBookingForUpdate(ctx context.Context, id string) (domain.Booking, error)
	GetRoom(ctx context.Context, number string) (domain.Room, error)
	GetGuest(ctx context.Context, id string) (domain.Guest, error)
	// FindActivePaymentByBooking returns the booking's non-Failed payment,
	// or nil when none exists.
	FindActivePaymentByBooking(ctx context.Context, bookingID string) (*domain.Payment, error)
	CreatePayment(ctx context.Context, payment domain.Payment) error
	GetPayment(ctx context.Context, id string) (domain.Payment, error)
	GetPaymentForUpdate(ctx context.Context, id string) (domain.Payment, error)
	UpdatePayment(ctx context.Context, payment domain.Payment) error
}

// accruer is the slice of LoyaltyService the payment processor needs.
type accruer interface {
	AccruePayment(ctx context.Context, paymentID string) (int, error)
	ReversePayment(ctx context.Context, paymentID string) (int, error)
}

// PaymentService manages the payment lifecycle against a booking's computed
// cost. Amount adjustments (discount, VAT, coupon) are only legal while the
// payment is Pending; settlement and refund drive loyalty accrual.
type PaymentService struct {
	repo      PaymentRepository
	clock     clock.Clock
	loyalty   accruer
	publisher notify.Publisher
}

func NewPaymentService(repo PaymentRepository, clk clock.Clock, loyalty *LoyaltyService, opts ...PaymentServiceOption) *PaymentService {
	svc := &PaymentService{
		repo:      repo,
		clock:     clk,
		loyalty:   loyalty,
		publisher: notify.Nop{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PaymentServiceOption func(*PaymentService)

// WithPaymentPublisher sets the emitter for completed/refunded events.
func WithPaymentPublisher(p notify.Publisher) PaymentServiceOption {
	return func(s *PaymentService) {
		if p != nil {
			s.publisher = p
		}
	}
}

type CreatePaymentInput struct {
	BookingID  string
	Method     string
	CardNumber string
}

// Create opens a Pending payment for a Confirmed booking, amount initialized
// from the computed stay cost. A booking carries at most one non-Failed
// payment at a time.
func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (domain.Payment, error) {
	if in.BookingID == "" || in.Method == "" {
		return domain.Payment{}, fmt.Errorf("%w: booking id and payment method are required", domain.ErrInvalidArgument)
	}
	if in.CardNumber != "" && !domain.ValidCardNumber(in.CardNumber) {
		return domain.Payment{}, fmt.Errorf("%w: card number must be 16 digits", domain.ErrInvalidArgument)
	}

	now := s.clock.Now()
	var result domain.Payment

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, in.BookingID)
		if err != nil {
			return err
		}
		if booking.Status != domain.BookingStatusConfirmed {
			return fmt.Errorf("%w: booking %s is %s, payment requires confirmed",
				domain.ErrInvalidBookingState, booking.ID, booking.Status)
		}

		existing, err := s.repo.FindActivePaymentByBooking(txCtx, booking.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: booking %s already has payment %s", domain.ErrPaymentExists, booking.ID, existing.ID)
		}

		nights := booking.Nights()
		if nights <= 0 {
			return fmt.Errorf("%w: booking %s spans %d nights", domain.ErrInvalidDateRange, booking.ID, nights)
		}
		room, err := s.repo.GetRoom(txCtx, booking.RoomNumber)
		if err != nil {
			return err
		}

		payment := domain.Payment{
			ID:        newID(),
			BookingID: booking.ID,
			Amount:    domain.StayCost(nights, room.NightlyRate),
			Method:    in.Method,
			Status:    domain.PaymentStatusPending,
			CreatedAt: now,
		}
		if err := s.repo.CreatePayment(txCtx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return result, nil
}

func (s *PaymentService) Get(ctx context.Context, id string) (domain.Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ApplyDiscount reduces the amount by a percentage. Pending payments only.
func (s *PaymentService) ApplyDiscount(ctx context.Context, id string, percent decimal.Decimal) (domain.Payment, error) {
	if percent.Sign() < 0 || percent.GreaterThan(decimal.NewFromInt(100)) {
		return domain.Payment{}, fmt.Errorf("%w: discount percent %s out of range", domain.ErrInvalidArgument, percent)
	}
	factor := decimal.NewFromInt(1).Sub(percent.Div(decimal.NewFromInt(100)))
	return s.adjustAmount(ctx, id, factor)
}

// ApplyVAT adds a percentage tax. Pending payments only.
func (s *PaymentService) ApplyVAT(ctx context.Context, id string, percent decimal.Decimal) (domain.Payment, error) {
	if percent.Sign() < 0 {
		return domain.Payment{}, fmt.Errorf("%w: VAT percent %s is negative", domain.ErrInvalidArgument, percent)
	}
	factor := decimal.NewFromInt(1).Add(percent.Div(decimal.NewFromInt(100)))
	return s.adjustAmount(ctx, id, factor)
}

// ApplyCoupon applies a fixed-table coupon code.
func (s *PaymentService) ApplyCoupon(ctx context.Context, id, code string) (domain.Payment, error) {
	percent, err := domain.CouponDiscount(code)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("%w: %q", domain.ErrInvalidCoupon, code)
	}
	factor := decimal.NewFromInt(1).Sub(percent.Div(decimal.NewFromInt(100)))
	return s.adjustAmount(ctx, id, factor)
}

func (s *PaymentService) adjustAmount(ctx context.Context, id string, factor decimal.Decimal) (domain.Payment, error) {
	var result domain.Payment
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if payment.Status != domain.PaymentStatusPending {
			return transitionErr("payment", payment.ID, string(payment.Status), "adjusted")
		}
		payment.Amount = payment.Amount.Mul(factor)
		if err := s.repo.UpdatePayment(txCtx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return result, nil
}

// Split divides the payment across methods. The amounts must sum to the
// payment amount exactly (decimal equality, no tolerance); on mismatch the
// method and amount are left untouched.
func (s *PaymentService) Split(ctx context.Context, id string, methods []string, amounts []decimal.Decimal) (domain.Payment, error) {
	if len(methods) == 0 || len(methods) != len(amounts) {
		return domain.Payment{}, fmt.Errorf("%w: %d methods for %d amounts", domain.ErrInvalidArgument, len(methods), len(amounts))
	}
	total := decimal.Zero
	for i, amount := range amounts {
		if methods[i] == "" {
			return domain.Payment{}, fmt.Errorf("%w: empty payment method", domain.ErrInvalidArgument)
		}
		if amount.Sign() < 0 {
			return domain.Payment{}, fmt.Errorf("%w: negative split amount %s", domain.ErrInvalidArgument, amount)
		}
		total = total.Add(amount)
	}

	var result domain.Payment
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if payment.Status != domain.PaymentStatusPending {
			return transitionErr("payment", payment.ID, string(payment.Status), "split")
		}
		if !total.Equal(payment.Amount) {
			return fmt.Errorf("%w: payment %s amount %s, split total %s",
				domain.ErrAmountMismatch, payment.ID, payment.Amount, total)
		}
		payment.Method = strings.Join(methods, ", ")
		if err := s.repo.UpdatePayment(txCtx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return result, nil
}

// Process settles a Pending payment and triggers loyalty accrual with the
// settled amount.
func (s *PaymentService) Process(ctx context.Context, id string) (domain.Payment, error) {
	var (
		result domain.Payment
		event  domain.PaymentEvent
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !payment.Status.CanTransitionTo(domain.PaymentStatusCompleted) {
			return transitionErr("payment", payment.ID, string(payment.Status), string(domain.PaymentStatusCompleted))
		}
		payment.Status = domain.PaymentStatusCompleted
		if err := s.repo.UpdatePayment(txCtx, payment); err != nil {
			return err
		}
		result = payment
		event, err = s.paymentEvent(txCtx, payment)
		return err
	})
	if err != nil {
		return domain.Payment{}, err
	}

	// Accrual runs in its own transaction after the settlement commits; the
	// grant recorded on the payment keeps it idempotent under retries.
	if _, err := s.loyalty.AccruePayment(ctx, result.ID); err != nil {
		return domain.Payment{}, err
	}
	_ = s.publisher.Publish(ctx, domain.EventPaymentCompleted, event)
	return s.repo.GetPayment(ctx, result.ID)
}

// Refund reverses a Completed payment and takes back exactly the points that
// were granted for it.
func (s *PaymentService) Refund(ctx context.Context, id string) (domain.Payment, error) {
	var (
		result domain.Payment
		event  domain.PaymentEvent
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !payment.Status.CanTransitionTo(domain.PaymentStatusRefunded) {
			return transitionErr("payment", payment.ID, string(payment.Status), string(domain.PaymentStatusRefunded))
		}
		payment.Status = domain.PaymentStatusRefunded
		if err := s.repo.UpdatePayment(txCtx, payment); err != nil {
			return err
		}
		result = payment
		event, err = s.paymentEvent(txCtx, payment)
		return err
	})
	if err != nil {
		return domain.Payment{}, err
	}

	if _, err := s.loyalty.ReversePayment(ctx, result.ID); err != nil {
		return domain.Payment{}, err
	}
	_ = s.publisher.Publish(ctx, domain.EventPaymentRefunded, event)
	return s.repo.GetPayment(ctx, result.ID)
}

// RecordFailure marks a Pending payment Failed. No accrual happened, so
// nothing is reversed.
func (s *PaymentService) RecordFailure(ctx context.Context, id string) (domain.Payment, error) {
	var result domain.Payment
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !payment.Status.CanTransitionTo(domain.PaymentStatusFailed) {
			return transitionErr("payment", payment.ID, string(payment.Status), string(domain.PaymentStatusFailed))
		}
		payment.Status = domain.PaymentStatusFailed
		if err := s.repo.UpdatePayment(txCtx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return result, nil
}

// Validate is a pure check: positive amount and a non-empty method.
func (s *PaymentService) Validate(ctx context.Context, id string) (bool, error) {
	payment, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return false, err
	}
	return payment.Valid(), nil
}

func (s *PaymentService) paymentEvent(txCtx context.Context, payment domain.Payment) (domain.PaymentEvent, error) {
	booking, err := s.repo.GetBooking(txCtx, payment.BookingID)
	if err != nil {
		return domain.PaymentEvent{}, err
	}
	guest, err := s.repo.GetGuest(txCtx, booking.GuestID)
	if err != nil {
		return domain.PaymentEvent{}, err
	}
	return domain.PaymentEvent{
		PaymentID:    payment.ID,
		BookingID:    booking.ID,
		GuestID:      guest.ID,
		GuestContact: guest.Contact,
		Amount:       payment.Amount.String(),
		OccurredAt:   s.clock.Now(),
	}, nil
}
