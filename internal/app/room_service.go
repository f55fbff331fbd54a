package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/domain"
)

type RoomRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateRoom(ctx context.Context, room domain.Room) error
	GetRoom(ctx context.Context, number string) (domain.Room, error)
	GetRoomForUpdate(ctx context.Context, number string) (domain.Room, error)
	UpdateRoom(ctx context.Context, room domain.Room) error
	ListRooms(ctx context.Context) ([]domain.Room, error)
	// ListAvailableRooms scans rooms of the given type (empty matches all)
	// with no Pending/Confirmed booking overlapping [checkIn, checkOut).
	ListAvailableRooms(ctx context.Context, roomType string, checkIn, checkOut time.Time) ([]domain.Room, error)
}

// RoomService owns the room registry: inventory, pricing, amenities and the
// availability flag. Side effects stay confined to the targeted room.
type RoomService struct {
	repo RoomRepository
}

func NewRoomService(repo RoomRepository) *RoomService {
	return &RoomService{repo: repo}
}

type RegisterRoomInput struct {
	Number      string
	Type        string
	Amenities   []string
	NightlyRate decimal.Decimal
}

func (s *RoomService) Register(ctx context.Context, in RegisterRoomInput) (domain.Room, error) {
	if in.Number == "" || in.Type == "" {
		return domain.Room{}, fmt.Errorf("%w: room number and type are required", domain.ErrInvalidArgument)
	}
	if in.NightlyRate.Sign() < 0 {
		return domain.Room{}, fmt.Errorf("%w: nightly rate %s", domain.ErrInvalidPrice, in.NightlyRate)
	}

	room := domain.Room{
		Number:      in.Number,
		Type:        in.Type,
		NightlyRate: in.NightlyRate,
		Available:   true,
	}
	for _, a := range in.Amenities {
		room.AddAmenity(a)
	}

	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (s *RoomService) Get(ctx context.Context, number string) (domain.Room, error) {
	return s.repo.GetRoom(ctx, number)
}

func (s *RoomService) List(ctx context.Context) ([]domain.Room, error) {
	return s.repo.ListRooms(ctx)
}

// FindAvailable returns rooms of the matching type whose reservations do not
// overlap [checkIn, checkOut). Single pass over the registry.
func (s *RoomService) FindAvailable(ctx context.Context, roomType string, checkIn, checkOut time.Time) ([]domain.Room, error) {
	checkIn = domain.DateOnly(checkIn)
	checkOut = domain.DateOnly(checkOut)
	if !checkOut.After(checkIn) {
		return nil, fmt.Errorf("%w: check-out %s must be after check-in %s",
			domain.ErrInvalidDateRange, checkOut.Format(time.DateOnly), checkIn.Format(time.DateOnly))
	}
	return s.repo.ListAvailableRooms(ctx, roomType, checkIn, checkOut)
}

// Reserve marks a room occupied. It fails when the room is already held.
func (s *RoomService) Reserve(ctx context.Context, number string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		room, err := s.repo.GetRoomForUpdate(txCtx, number)
		if err != nil {
			return err
		}
		if !room.Available {
			return fmt.Errorf("%w: room %s is already reserved", domain.ErrRoomUnavailable, number)
		}
		room.Available = false
		return s.repo.UpdateRoom(txCtx, room)
	})
}

// Release marks a room available again. Releasing an already-available room
// is a no-op.
func (s *RoomService) Release(ctx context.Context, number string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		room, err := s.repo.GetRoomForUpdate(txCtx, number)
		if err != nil {
			return err
		}
		room.Available = true
		return s.repo.UpdateRoom(txCtx, room)
	})
}

func (s *RoomService) Reprice(ctx context.Context, number string, newRate decimal.Decimal) (domain.Room, error) {
	if newRate.Sign() < 0 {
		return domain.Room{}, fmt.Errorf("%w: nightly rate %s", domain.ErrInvalidPrice, newRate)
	}
	var updated domain.Room
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		room, err := s.repo.GetRoomForUpdate(txCtx, number)
		if err != nil {
			return err
		}
		room.NightlyRate = newRate
		updated = room
		return s.repo.UpdateRoom(txCtx, room)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return updated, nil
}

func (s *RoomService) AddAmenity(ctx context.Context, number, amenity string) (domain.Room, error) {
	if amenity == "" {
		return domain.Room{}, fmt.Errorf("%w: amenity name is required", domain.ErrInvalidArgument)
	}
	var updated domain.Room
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		room, err := s.repo.GetRoomForUpdate(txCtx, number)
		if err != nil {
			return err
		}
		if room.AddAmenity(amenity) {
			if err := s.repo.UpdateRoom(txCtx, room); err != nil {
				return err
			}
		}
		updated = room
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	return updated, nil
}

func (s *RoomService) RemoveAmenity(ctx context.Context, number, amenity string) (domain.Room, error) {
	var updated domain.Room
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		room, err := s.repo.GetRoomForUpdate(txCtx, number)
		if err != nil {
			return err
		}
		if room.RemoveAmenity(amenity) {
			if err := s.repo.UpdateRoom(txCtx, room); err != nil {
				return err
			}
		}
		updated = room
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	return updated, nil
}

// ScheduleMaintenance takes the room out of the bookable pool until released.
func (s *RoomService) ScheduleMaintenance(ctx context.Context, number string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		room, err := s.repo.GetRoomForUpdate(txCtx, number)
		if err != nil {
			return err
		}
		room.Available = false
		return s.repo.UpdateRoom(txCtx, room)
	})
}
