package app

import (
	"context"
	"fmt"

	"github.com/harborstay/reservations/internal/domain"
)

type LoyaltyRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetGuestForUpdate(ctx context.Context, id string) (domain.Guest, error)
	UpdateGuestLoyalty(ctx context.Context, guestID string, enrolled bool, points int) error
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
	GetPaymentForUpdate(ctx context.Context, id string) (domain.Payment, error)
	// SetPaymentGrantedPoints stores the accrued point count on the payment;
	// nil clears it after a reversal.
	SetPaymentGrantedPoints(ctx context.Context, paymentID string, points *int) error
}

// LoyaltyService derives point grants and reversals from payment settlement
// and owns explicit enrollment and redemption. Guest balances only change
// here.
type LoyaltyService struct {
	repo LoyaltyRepository
}

func NewLoyaltyService(repo LoyaltyRepository) *LoyaltyService {
	return &LoyaltyService{repo: repo}
}

// AccruePayment grants floor(amount/10) points to the paying guest. The grant
// is recorded on the payment itself, which makes a second invocation for the
// same payment a no-op and gives the refund path the exact value to reverse.
func (s *LoyaltyService) AccruePayment(ctx context.Context, paymentID string) (int, error) {
	var granted int
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != domain.PaymentStatusCompleted {
			return fmt.Errorf("%w: payment %s is %s, accrual requires completed",
				domain.ErrInvalidBookingState, payment.ID, payment.Status)
		}
		if payment.GrantedPoints != nil {
			granted = *payment.GrantedPoints
			return nil
		}

		booking, err := s.repo.GetBooking(txCtx, payment.BookingID)
		if err != nil {
			return err
		}
		guest, err := s.repo.GetGuestForUpdate(txCtx, booking.GuestID)
		if err != nil {
			return err
		}

		points := domain.AccrualPoints(payment.Amount)
		if err := s.repo.UpdateGuestLoyalty(txCtx, guest.ID, guest.LoyaltyEnrolled, guest.LoyaltyPoints+points); err != nil {
			return err
		}
		if err := s.repo.SetPaymentGrantedPoints(txCtx, payment.ID, &points); err != nil {
			return err
		}
		granted = points
		return nil
	})
	if err != nil {
		return 0, err
	}
	return granted, nil
}

// ReversePayment takes back exactly the points granted for the payment,
// regardless of how the amount was adjusted after accrual. The balance never
// goes below zero even if points were redeemed in between.
func (s *LoyaltyService) ReversePayment(ctx context.Context, paymentID string) (int, error) {
	var reversed int
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if payment.GrantedPoints == nil {
			return nil
		}
		points := *payment.GrantedPoints

		booking, err := s.repo.GetBooking(txCtx, payment.BookingID)
		if err != nil {
			return err
		}
		guest, err := s.repo.GetGuestForUpdate(txCtx, booking.GuestID)
		if err != nil {
			return err
		}

		balance := guest.LoyaltyPoints - points
		if balance < 0 {
			balance = 0
		}
		if err := s.repo.UpdateGuestLoyalty(txCtx, guest.ID, guest.LoyaltyEnrolled, balance); err != nil {
			return err
		}
		if err := s.repo.SetPaymentGrantedPoints(txCtx, payment.ID, nil); err != nil {
			return err
		}
		reversed = points
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reversed, nil
}

// Enroll joins the guest to the loyalty program with a fixed 50-point bonus.
func (s *LoyaltyService) Enroll(ctx context.Context, guestID string) (domain.Guest, error) {
	var result domain.Guest
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		guest, err := s.repo.GetGuestForUpdate(txCtx, guestID)
		if err != nil {
			return err
		}
		if guest.LoyaltyEnrolled {
			return fmt.Errorf("%w: guest %s", domain.ErrAlreadyEnrolled, guest.ID)
		}
		guest.LoyaltyEnrolled = true
		guest.LoyaltyPoints += domain.EnrollmentBonus
		if err := s.repo.UpdateGuestLoyalty(txCtx, guest.ID, guest.LoyaltyEnrolled, guest.LoyaltyPoints); err != nil {
			return err
		}
		result = guest
		return nil
	})
	if err != nil {
		return domain.Guest{}, err
	}
	return result, nil
}

// Redeem decrements the balance atomically under the guest lock.
func (s *LoyaltyService) Redeem(ctx context.Context, guestID string, points int) (domain.Guest, error) {
	if points <= 0 {
		return domain.Guest{}, fmt.Errorf("%w: points must be positive, got %d", domain.ErrInvalidArgument, points)
	}
	var result domain.Guest
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		guest, err := s.repo.GetGuestForUpdate(txCtx, guestID)
		if err != nil {
			return err
		}
		if points > guest.LoyaltyPoints {
			return fmt.Errorf("%w: guest %s has %d points, asked to redeem %d",
				domain.ErrInsufficientPoints, guest.ID, guest.LoyaltyPoints, points)
		}
		guest.LoyaltyPoints -= points
		if err := s.repo.UpdateGuestLoyalty(txCtx, guest.ID, guest.LoyaltyEnrolled, guest.LoyaltyPoints); err != nil {
			return err
		}
		result = guest
		return nil
	})
	if err != nil {
		return domain.Guest{}, err
	}
	return result, nil
}
