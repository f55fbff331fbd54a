package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/domain"
)

const roomColumns = `number, type, amenities, nightly_rate::text, available`

func (s *Store) CreateRoom(ctx context.Context, room domain.Room) error {
	const stmt = `
INSERT INTO rooms (number, type, amenities, nightly_rate, available)
VALUES ($1, $2, $3, $4, $5)`

	_, err := s.exec(ctx, stmt,
		room.Number,
		room.Type,
		textArray(room.Amenities),
		room.NightlyRate,
		room.Available,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRoom, room.Number)
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// textArray keeps a nil slice from encoding as SQL NULL.
func textArray(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func (s *Store) GetRoom(ctx context.Context, number string) (domain.Room, error) {
	return s.getRoom(ctx, number, "")
}

// GetRoomForUpdate locks the room row for the rest of the transaction.
func (s *Store) GetRoomForUpdate(ctx context.Context, number string) (domain.Room, error) {
	return s.getRoom(ctx, number, " FOR UPDATE")
}

func (s *Store) getRoom(ctx context.Context, number, suffix string) (domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE number = $1` + suffix

	room, err := scanRoom(s.queryRow(ctx, query, number))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Room{}, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, number)
		}
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

func (s *Store) UpdateRoom(ctx context.Context, room domain.Room) error {
	const stmt = `
UPDATE rooms
SET type = $2, amenities = $3, nightly_rate = $4, available = $5
WHERE number = $1`

	tag, err := s.exec(ctx, stmt,
		room.Number,
		room.Type,
		textArray(room.Amenities),
		room.NightlyRate,
		room.Available,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, room.Number)
	}
	return nil
}

func (s *Store) UpdateRoomAvailability(ctx context.Context, number string, available bool) error {
	const stmt = `UPDATE rooms SET available = $2 WHERE number = $1`

	tag, err := s.exec(ctx, stmt, number, available)
	if err != nil {
		return fmt.Errorf("update room availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, number)
	}
	return nil
}

func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY number`

	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()
	return collectRooms(rows)
}

// ListAvailableRooms returns rooms of the given type (empty matches all) with
// no Pending or Confirmed booking overlapping [checkIn, checkOut).
func (s *Store) ListAvailableRooms(ctx context.Context, roomType string, checkIn, checkOut time.Time) ([]domain.Room, error) {
	query := `
SELECT ` + roomColumns + `
FROM rooms r
WHERE ($1 = '' OR r.type = $1)
  AND NOT EXISTS (
    SELECT 1 FROM bookings b
    WHERE b.room_number = r.number
      AND b.status IN ('pending', 'confirmed')
      AND b.check_in < $3 AND $2 < b.check_out
  )
ORDER BY r.number`

	rows, err := s.query(ctx, query, roomType, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("list available rooms: %w", err)
	}
	defer rows.Close()
	return collectRooms(rows)
}

func scanRoom(row pgx.Row) (domain.Room, error) {
	var (
		room    domain.Room
		rateStr string
	)
	if err := row.Scan(&room.Number, &room.Type, &room.Amenities, &rateStr, &room.Available); err != nil {
		return domain.Room{}, err
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return domain.Room{}, fmt.Errorf("parse nightly rate: %w", err)
	}
	room.NightlyRate = rate
	return room, nil
}

func collectRooms(rows pgx.Rows) ([]domain.Room, error) {
	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}
