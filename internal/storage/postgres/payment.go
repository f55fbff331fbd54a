package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/domain"
)

const paymentColumns = `id, booking_id, amount::text, method, status, granted_points, created_at`

func (s *Store) CreatePayment(ctx context.Context, payment domain.Payment) error {
	const stmt = `
INSERT INTO payments (id, booking_id, amount, method, status, granted_points, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.exec(ctx, stmt,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.GrantedPoints,
		payment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: booking %s", domain.ErrPaymentExists, payment.BookingID)
		}
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidID, payment.ID)
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	return s.getPayment(ctx, id, "")
}

// GetPaymentForUpdate locks the payment row across adjust, settle and accrual
// steps.
func (s *Store) GetPaymentForUpdate(ctx context.Context, id string) (domain.Payment, error) {
	return s.getPayment(ctx, id, " FOR UPDATE")
}

func (s *Store) getPayment(ctx context.Context, id, suffix string) (domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1` + suffix

	payment, err := scanPayment(s.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Payment{}, fmt.Errorf("%w: %s", domain.ErrInvalidID, id)
		}
		if err == pgx.ErrNoRows {
			return domain.Payment{}, fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, id)
		}
		return domain.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return payment, nil
}

// UpdatePayment writes amount, method and status. The grant marker is owned by
// SetPaymentGrantedPoints.
func (s *Store) UpdatePayment(ctx context.Context, payment domain.Payment) error {
	const stmt = `
UPDATE payments
SET amount = $2, method = $3, status = $4
WHERE id = $1`

	tag, err := s.exec(ctx, stmt,
		payment.ID,
		payment.Amount,
		payment.Method,
		payment.Status,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidID, payment.ID)
		}
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, payment.ID)
	}
	return nil
}

// FindActivePaymentByBooking returns the booking's non-Failed payment, or nil
// when none exists. The partial unique index guarantees at most one row.
func (s *Store) FindActivePaymentByBooking(ctx context.Context, bookingID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 AND status <> 'failed'`

	payment, err := scanPayment(s.queryRow(ctx, query, bookingID))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidID, bookingID)
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active payment: %w", err)
	}
	return &payment, nil
}

func (s *Store) SetPaymentGrantedPoints(ctx context.Context, paymentID string, points *int) error {
	const stmt = `UPDATE payments SET granted_points = $2 WHERE id = $1`

	tag, err := s.exec(ctx, stmt, paymentID, points)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidID, paymentID)
		}
		return fmt.Errorf("set granted points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, paymentID)
	}
	return nil
}

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var (
		p         domain.Payment
		amountStr string
		status    string
	)
	err := row.Scan(&p.ID, &p.BookingID, &amountStr, &p.Method, &status, &p.GrantedPoints, &p.CreatedAt)
	if err != nil {
		return domain.Payment{}, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("parse amount: %w", err)
	}
	p.Amount = amount
	p.Status = domain.PaymentStatus(status)
	return p, nil
}
