package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/app"
	"github.com/harborstay/reservations/internal/domain"
)

// RoomRegistry is the slice of the room service the room endpoints need.
type RoomRegistry interface {
	Register(ctx context.Context, in app.RegisterRoomInput) (domain.Room, error)
	Get(ctx context.Context, number string) (domain.Room, error)
	List(ctx context.Context) ([]domain.Room, error)
	FindAvailable(ctx context.Context, roomType string, checkIn, checkOut time.Time) ([]domain.Room, error)
	Reprice(ctx context.Context, number string, newRate decimal.Decimal) (domain.Room, error)
	AddAmenity(ctx context.Context, number, amenity string) (domain.Room, error)
	RemoveAmenity(ctx context.Context, number, amenity string) (domain.Room, error)
	ScheduleMaintenance(ctx context.Context, number string) error
	Release(ctx context.Context, number string) error
}

type roomResponse struct {
	Number      string   `json:"number"`
	Type        string   `json:"type"`
	Amenities   []string `json:"amenities"`
	NightlyRate string   `json:"nightly_rate"`
	Available   bool     `json:"available"`
}

func toRoomResponse(room domain.Room) roomResponse {
	amenities := room.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return roomResponse{
		Number:      room.Number,
		Type:        room.Type,
		Amenities:   amenities,
		NightlyRate: room.NightlyRate.String(),
		Available:   room.Available,
	}
}

// HandleRegisterRoom returns the handler for POST /rooms.
func HandleRegisterRoom(svc RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		rate, err := decimal.NewFromString(req.NightlyRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidPrice, "invalid nightly_rate")
			return
		}

		room, err := svc.Register(r.Context(), app.RegisterRoomInput{
			Number:      req.Number,
			Type:        req.Type,
			Amenities:   req.Amenities,
			NightlyRate: rate,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRoomResponse(room))
	}
}

type registerRoomRequest struct {
	Number      string   `json:"number"`
	Type        string   `json:"type"`
	Amenities   []string `json:"amenities"`
	NightlyRate string   `json:"nightly_rate"`
}

// HandleListRooms returns the handler for GET /rooms.
func HandleListRooms(svc RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]roomResponse, 0, len(rooms))
		for _, room := range rooms {
			resp = append(resp, toRoomResponse(room))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleGetRoom returns the handler for GET /rooms/{number}.
func HandleGetRoom(svc RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := svc.Get(r.Context(), r.PathValue("number"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRoomResponse(room))
	}
}

// HandleFindAvailableRooms returns the handler for GET /rooms/available.
// Query parameters: type (optional), check_in, check_out.
func HandleFindAvailableRooms(svc RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		checkIn, err := parseDate(q.Get("check_in"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDateRange, "invalid check_in date")
			return
		}
		checkOut, err := parseDate(q.Get("check_out"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDateRange, "invalid check_out date")
			return
		}

		rooms, err := svc.FindAvailable(r.Context(), q.Get("type"), checkIn, checkOut)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]roomResponse, 0, len(rooms))
		for _, room := range rooms {
			resp = append(resp, toRoomResponse(room))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleRepriceRoom returns the handler for POST /rooms/{number}/price.
func HandleRepriceRoom(svc RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			NightlyRate string `json:"nightly_rate"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		rate, err := decimal.NewFromString(req.NightlyRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidPrice, "invalid nightly_rate")
			return
		}

		room, err := svc.Reprice(r.Context(), r.PathValue("number"), rate)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRoomResponse(room))
	}
}

// HandleAddAmenity returns the handler for POST /rooms/{number}/amenities.
func HandleAddAmenity(svc RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amenity string `json:"amenity"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		room, err := svc.AddAmenity(r.Context(), r.PathValue("number"), req.Amenity)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRoomResponse(room))
	}
}

// HandleRemoveAmenity returns the handler for
// DELETE /rooms/{number}/amenities/{amenity}.
func HandleRemoveAmenity(svc RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := svc.RemoveAmenity(r.Context(), r.PathValue("number"), r.PathValue("amenity"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRoomResponse(room))
	}
}

// HandleRoomMaintenance returns the handler for
// POST /rooms/{number}/maintenance.
func HandleRoomMaintenance(svc RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := r.PathValue("number")
		if err := svc.ScheduleMaintenance(r.Context(), number); err != nil {
			writeServiceError(w, err)
			return
		}
		room, err := svc.Get(r.Context(), number)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRoomResponse(room))
	}
}

// HandleReleaseRoom returns the handler for POST /rooms/{number}/release.
func HandleReleaseRoom(svc RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := r.PathValue("number")
		if err := svc.Release(r.Context(), number); err != nil {
			writeServiceError(w, err)
			return
		}
		room, err := svc.Get(r.Context(), number)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRoomResponse(room))
	}
}
