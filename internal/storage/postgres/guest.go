package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/harborstay/reservations/internal/domain"
)

const guestColumns = `
g.id, g.name, g.contact, g.blocked, g.loyalty_enrolled, g.loyalty_points,
COALESCE(
	(SELECT array_agg(gr.booking_id::text ORDER BY gr.position)
	 FROM guest_reservations gr WHERE gr.guest_id = g.id),
	'{}')`

func (s *Store) CreateGuest(ctx context.Context, guest domain.Guest) error {
	const stmt = `
INSERT INTO guests (id, name, contact, blocked, loyalty_enrolled, loyalty_points)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.exec(ctx, stmt,
		guest.ID,
		guest.Name,
		guest.Contact,
		guest.Blocked,
		guest.LoyaltyEnrolled,
		guest.LoyaltyPoints,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: guest %s exists", domain.ErrInvalidID, guest.ID)
		}
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidID, guest.ID)
		}
		return fmt.Errorf("create guest: %w", err)
	}
	return nil
}

func (s *Store) GetGuest(ctx context.Context, id string) (domain.Guest, error) {
	return s.getGuest(ctx, id, "")
}

// GetGuestForUpdate locks the guest row; loyalty balance mutations and the
// blocked check run under this lock.
func (s *Store) GetGuestForUpdate(ctx context.Context, id string) (domain.Guest, error) {
	return s.getGuest(ctx, id, " FOR UPDATE OF g")
}

func (s *Store) getGuest(ctx context.Context, id, suffix string) (domain.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests g WHERE g.id = $1` + suffix

	var g domain.Guest
	err := s.queryRow(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.Contact, &g.Blocked, &g.LoyaltyEnrolled, &g.LoyaltyPoints, &g.Reservations,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Guest{}, fmt.Errorf("%w: %s", domain.ErrInvalidID, id)
		}
		if err == pgx.ErrNoRows {
			return domain.Guest{}, fmt.Errorf("%w: %s", domain.ErrGuestNotFound, id)
		}
		return domain.Guest{}, fmt.Errorf("get guest: %w", err)
	}
	return g, nil
}

func (s *Store) UpdateGuestProfile(ctx context.Context, id, name, contact string) error {
	const stmt = `UPDATE guests SET name = $2, contact = $3 WHERE id = $1`
	return s.execGuestUpdate(ctx, "update guest profile", stmt, id, name, contact)
}

func (s *Store) SetGuestBlocked(ctx context.Context, id string, blocked bool) error {
	const stmt = `UPDATE guests SET blocked = $2 WHERE id = $1`
	return s.execGuestUpdate(ctx, "set guest blocked", stmt, id, blocked)
}

func (s *Store) UpdateGuestLoyalty(ctx context.Context, id string, enrolled bool, points int) error {
	const stmt = `UPDATE guests SET loyalty_enrolled = $2, loyalty_points = $3 WHERE id = $1`
	return s.execGuestUpdate(ctx, "update guest loyalty", stmt, id, enrolled, points)
}

func (s *Store) AppendGuestReservation(ctx context.Context, guestID, bookingID string) error {
	const stmt = `
INSERT INTO guest_reservations (guest_id, position, booking_id)
SELECT $1, COALESCE(MAX(position) + 1, 0), $2
FROM guest_reservations
WHERE guest_id = $1`

	_, err := s.exec(ctx, stmt, guestID, bookingID)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidID, guestID)
		}
		return fmt.Errorf("append guest reservation: %w", err)
	}
	return nil
}

func (s *Store) execGuestUpdate(ctx context.Context, op, stmt string, id string, args ...any) error {
	tag, err := s.exec(ctx, stmt, append([]any{id}, args...)...)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidID, id)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrGuestNotFound, id)
	}
	return nil
}
