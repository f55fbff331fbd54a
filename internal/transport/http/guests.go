package http

import (
	"context"
	"net/http"

	"github.com/harborstay/reservations/internal/app"
	"github.com/harborstay/reservations/internal/domain"
)

// GuestDirectory is the slice of the guest service the guest endpoints need.
type GuestDirectory interface {
	Create(ctx context.Context, in app.CreateGuestInput) (domain.Guest, error)
	Get(ctx context.Context, id string) (domain.Guest, error)
	UpdateProfile(ctx context.Context, id, name, contact string) (domain.Guest, error)
	Block(ctx context.Context, id string) error
	Unblock(ctx context.Context, id string) error
}

// LoyaltyProgram is the slice of the loyalty service the guest endpoints need.
type LoyaltyProgram interface {
	Enroll(ctx context.Context, guestID string) (domain.Guest, error)
	Redeem(ctx context.Context, guestID string, points int) (domain.Guest, error)
}

type guestResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Contact         string   `json:"contact"`
	Blocked         bool     `json:"blocked"`
	LoyaltyEnrolled bool     `json:"loyalty_enrolled"`
	LoyaltyPoints   int      `json:"loyalty_points"`
	Reservations    []string `json:"reservations"`
}

func toGuestResponse(guest domain.Guest) guestResponse {
	reservations := guest.Reservations
	if reservations == nil {
		reservations = []string{}
	}
	return guestResponse{
		ID:              guest.ID,
		Name:            guest.Name,
		Contact:         guest.Contact,
		Blocked:         guest.Blocked,
		LoyaltyEnrolled: guest.LoyaltyEnrolled,
		LoyaltyPoints:   guest.LoyaltyPoints,
		Reservations:    reservations,
	}
}

// HandleCreateGuest returns the handler for POST /guests.
func HandleCreateGuest(svc GuestDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name    string `json:"name"`
			Contact string `json:"contact"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		guest, err := svc.Create(r.Context(), app.CreateGuestInput{
			Name:    req.Name,
			Contact: req.Contact,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGuestResponse(guest))
	}
}

// HandleGetGuest returns the handler for GET /guests/{id}.
func HandleGetGuest(svc GuestDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guest, err := svc.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGuestResponse(guest))
	}
}

// HandleUpdateGuestProfile returns the handler for POST /guests/{id}/profile.
func HandleUpdateGuestProfile(svc GuestDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name    string `json:"name"`
			Contact string `json:"contact"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		guest, err := svc.UpdateProfile(r.Context(), r.PathValue("id"), req.Name, req.Contact)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGuestResponse(guest))
	}
}

// HandleBlockGuest returns the handler for POST /guests/{id}/block. The body
// selects the direction: {"blocked": false} lifts the block.
func HandleBlockGuest(svc GuestDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := struct {
			Blocked bool `json:"blocked"`
		}{Blocked: true}
		if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
			return
		}

		id := r.PathValue("id")
		var err error
		if req.Blocked {
			err = svc.Block(r.Context(), id)
		} else {
			err = svc.Unblock(r.Context(), id)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		guest, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGuestResponse(guest))
	}
}

// HandleEnrollGuest returns the handler for POST /guests/{id}/enroll.
func HandleEnrollGuest(svc LoyaltyProgram) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guest, err := svc.Enroll(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGuestResponse(guest))
	}
}

// HandleRedeemPoints returns the handler for POST /guests/{id}/redeem.
func HandleRedeemPoints(svc LoyaltyProgram) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Points int `json:"points"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		guest, err := svc.Redeem(r.Context(), r.PathValue("id"), req.Points)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGuestResponse(guest))
	}
}
