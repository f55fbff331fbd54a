package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/domain"
)

func TestRoomService_Register(t *testing.T) {
	t.Parallel()

	t.Run("new room starts available", func(t *testing.T) {
		f := newFixture(t)
		room, err := f.rooms.Register(context.Background(), RegisterRoomInput{
			Number:      "101",
			Type:        "suite",
			Amenities:   []string{"wifi", "wifi", "minibar"},
			NightlyRate: decimal.NewFromInt(150),
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if !room.Available {
			t.Fatalf("expected new room to be available")
		}
		if len(room.Amenities) != 2 {
			t.Fatalf("expected duplicate amenities collapsed, got %v", room.Amenities)
		}
	})

	t.Run("duplicate number", func(t *testing.T) {
		f := newFixture(t)
		f.seedRoom(t, "101", "suite", 150)

		_, err := f.rooms.Register(context.Background(), RegisterRoomInput{
			Number:      "101",
			Type:        "double",
			NightlyRate: decimal.NewFromInt(90),
		})
		if !errors.Is(err, domain.ErrDuplicateRoom) {
			t.Fatalf("expected ErrDuplicateRoom, got %v", err)
		}
	})

	t.Run("negative rate", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.rooms.Register(context.Background(), RegisterRoomInput{
			Number:      "101",
			Type:        "suite",
			NightlyRate: decimal.NewFromInt(-1),
		})
		if !errors.Is(err, domain.ErrInvalidPrice) {
			t.Fatalf("expected ErrInvalidPrice, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.rooms.Register(context.Background(), RegisterRoomInput{Number: "101"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestRoomService_FindAvailable(t *testing.T) {
	t.Parallel()

	t.Run("filters by type and booking overlap", func(t *testing.T) {
		f := newFixture(t)
		guest := f.seedGuest(t, "alice")
		f.seedRoom(t, "101", "suite", 150)
		f.seedRoom(t, "102", "suite", 150)
		f.seedRoom(t, "201", "double", 90)
		f.seedBooking(t, guest.ID, "101", date(2025, 7, 1), date(2025, 7, 5))

		rooms, err := f.rooms.FindAvailable(context.Background(), "suite", date(2025, 7, 3), date(2025, 7, 6))
		if err != nil {
			t.Fatalf("find available: %v", err)
		}
		if len(rooms) != 1 || rooms[0].Number != "102" {
			t.Fatalf("expected only 102, got %+v", rooms)
		}
	})

	t.Run("empty type matches all rooms", func(t *testing.T) {
		f := newFixture(t)
		f.seedRoom(t, "101", "suite", 150)
		f.seedRoom(t, "201", "double", 90)

		rooms, err := f.rooms.FindAvailable(context.Background(), "", date(2025, 7, 1), date(2025, 7, 2))
		if err != nil {
			t.Fatalf("find available: %v", err)
		}
		if len(rooms) != 2 {
			t.Fatalf("expected both rooms, got %+v", rooms)
		}
	})

	t.Run("cancelled booking does not block", func(t *testing.T) {
		f := newFixture(t)
		guest := f.seedGuest(t, "alice")
		f.seedRoom(t, "101", "suite", 150)
		booking := f.seedBooking(t, guest.ID, "101", date(2025, 7, 1), date(2025, 7, 5))
		if _, err := f.bookings.Cancel(context.Background(), booking.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		rooms, err := f.rooms.FindAvailable(context.Background(), "suite", date(2025, 7, 2), date(2025, 7, 4))
		if err != nil {
			t.Fatalf("find available: %v", err)
		}
		if len(rooms) != 1 {
			t.Fatalf("expected cancelled stay to free the room, got %+v", rooms)
		}
	})

	t.Run("invalid range", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.rooms.FindAvailable(context.Background(), "", date(2025, 7, 5), date(2025, 7, 5)); !errors.Is(err, domain.ErrInvalidDateRange) {
			t.Fatalf("expected ErrInvalidDateRange, got %v", err)
		}
	})
}

func TestRoomService_ReserveRelease(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRoom(t, "101", "suite", 150)

	if err := f.rooms.Reserve(context.Background(), "101"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := f.rooms.Reserve(context.Background(), "101"); !errors.Is(err, domain.ErrRoomUnavailable) {
		t.Fatalf("expected ErrRoomUnavailable on second reserve, got %v", err)
	}

	if err := f.rooms.Release(context.Background(), "101"); err != nil {
		t.Fatalf("release: %v", err)
	}
	// Releasing a free room stays a no-op.
	if err := f.rooms.Release(context.Background(), "101"); err != nil {
		t.Fatalf("repeat release: %v", err)
	}

	room, _ := f.rooms.Get(context.Background(), "101")
	if !room.Available {
		t.Fatalf("expected room available after release")
	}

	if err := f.rooms.Reserve(context.Background(), "999"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomService_Reprice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRoom(t, "101", "suite", 150)

	room, err := f.rooms.Reprice(context.Background(), "101", decimal.NewFromInt(175))
	if err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if room.NightlyRate.String() != "175" {
		t.Fatalf("expected rate 175, got %s", room.NightlyRate)
	}

	if _, err := f.rooms.Reprice(context.Background(), "101", decimal.NewFromInt(-10)); !errors.Is(err, domain.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestRoomService_Amenities(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRoom(t, "101", "suite", 150)

	room, err := f.rooms.AddAmenity(context.Background(), "101", "wifi")
	if err != nil {
		t.Fatalf("add amenity: %v", err)
	}
	if !room.HasAmenity("wifi") {
		t.Fatalf("expected wifi present")
	}

	room, err = f.rooms.AddAmenity(context.Background(), "101", "wifi")
	if err != nil {
		t.Fatalf("repeat add: %v", err)
	}
	if len(room.Amenities) != 1 {
		t.Fatalf("expected set semantics, got %v", room.Amenities)
	}

	room, err = f.rooms.RemoveAmenity(context.Background(), "101", "wifi")
	if err != nil {
		t.Fatalf("remove amenity: %v", err)
	}
	if room.HasAmenity("wifi") {
		t.Fatalf("expected wifi removed")
	}

	// Removing an absent amenity is a no-op.
	if _, err := f.rooms.RemoveAmenity(context.Background(), "101", "sauna"); err != nil {
		t.Fatalf("remove absent amenity: %v", err)
	}

	if _, err := f.rooms.AddAmenity(context.Background(), "101", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty amenity, got %v", err)
	}
}

func TestRoomService_ScheduleMaintenance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRoom(t, "101", "suite", 150)

	if err := f.rooms.ScheduleMaintenance(context.Background(), "101"); err != nil {
		t.Fatalf("maintenance: %v", err)
	}
	room, _ := f.rooms.Get(context.Background(), "101")
	if room.Available {
		t.Fatalf("expected room held for maintenance")
	}

	if err := f.rooms.Release(context.Background(), "101"); err != nil {
		t.Fatalf("release: %v", err)
	}
	room, _ = f.rooms.Get(context.Background(), "101")
	if !room.Available {
		t.Fatalf("expected room returned to the pool")
	}
}
