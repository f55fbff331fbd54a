package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/harborstay/reservations/internal/domain"
)

const bookingColumns = `
b.id, b.guest_id, b.room_number, b.check_in, b.check_out, b.status, b.created_at,
COALESCE(
	(SELECT array_agg(br.request ORDER BY br.position)
	 FROM booking_requests br WHERE br.booking_id = b.id),
	'{}')`

func (s *Store) CreateBooking(ctx context.Context, booking domain.Booking) error {
	const stmt = `
INSERT INTO bookings (id, guest_id, room_number, check_in, check_out, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.exec(ctx, stmt,
		booking.ID,
		booking.GuestID,
		booking.RoomNumber,
		booking.CheckIn,
		booking.CheckOut,
		booking.Status,
		booking.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: booking %s exists", domain.ErrInvalidID, booking.ID)
		}
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidID, booking.ID)
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return s.getBooking(ctx, id, "")
}

// GetBookingForUpdate locks the booking row while its status or dates change.
func (s *Store) GetBookingForUpdate(ctx context.Context, id string) (domain.Booking, error) {
	return s.getBooking(ctx, id, " FOR UPDATE OF b")
}

func (s *Store) getBooking(ctx context.Context, id, suffix string) (domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1` + suffix

	booking, err := scanBooking(s.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, fmt.Errorf("%w: %s", domain.ErrInvalidID, id)
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// UpdateBooking writes the mutable columns. The request log lives in
// booking_requests and is only touched by AppendSpecialRequest.
func (s *Store) UpdateBooking(ctx context.Context, booking domain.Booking) error {
	const stmt = `
UPDATE bookings
SET room_number = $2, check_in = $3, check_out = $4, status = $5
WHERE id = $1`

	tag, err := s.exec(ctx, stmt,
		booking.ID,
		booking.RoomNumber,
		booking.CheckIn,
		booking.CheckOut,
		booking.Status,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidID, booking.ID)
		}
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrBookingNotFound, booking.ID)
	}
	return nil
}

// ListActiveBookingsForRoom returns the room's Pending and Confirmed bookings,
// the set the overlap check ranges over.
func (s *Store) ListActiveBookingsForRoom(ctx context.Context, roomNumber string) ([]domain.Booking, error) {
	query := `
SELECT ` + bookingColumns + `
FROM bookings b
WHERE b.room_number = $1 AND b.status IN ('pending', 'confirmed')
ORDER BY b.check_in`

	rows, err := s.query(ctx, query, roomNumber)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

func (s *Store) AppendSpecialRequest(ctx context.Context, bookingID, request string) error {
	const stmt = `
INSERT INTO booking_requests (booking_id, position, request)
SELECT $1, COALESCE(MAX(position) + 1, 0), $2
FROM booking_requests
WHERE booking_id = $1`

	_, err := s.exec(ctx, stmt, bookingID, request)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidID, bookingID)
		}
		return fmt.Errorf("append special request: %w", err)
	}
	return nil
}

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var (
		b      domain.Booking
		status string
	)
	err := row.Scan(
		&b.ID, &b.GuestID, &b.RoomNumber, &b.CheckIn, &b.CheckOut, &status, &b.CreatedAt, &b.SpecialRequests,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	// DATE columns scan at local-zone midnight depending on server config;
	// normalize back to the UTC day the engine works in.
	b.CheckIn = domain.DateOnly(b.CheckIn)
	b.CheckOut = domain.DateOnly(b.CheckOut)
	return b, nil
}
