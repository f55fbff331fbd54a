package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/app"
	"github.com/harborstay/reservations/internal/domain"
)

// BookingEngine is the slice of the booking service the booking endpoints
// need.
type BookingEngine interface {
	Create(ctx context.Context, in app.CreateBookingInput) (domain.Booking, error)
	Get(ctx context.Context, id string) (domain.Booking, error)
	Confirm(ctx context.Context, id string) (domain.Booking, error)
	Cancel(ctx context.Context, id string) (domain.Booking, error)
	CheckOut(ctx context.Context, id string) (domain.Booking, error)
	ModifyDates(ctx context.Context, id string, newCheckIn, newCheckOut time.Time) (domain.Booking, error)
	Extend(ctx context.Context, id string, extraNights int) (domain.Booking, error)
	AssignRoom(ctx context.Context, id, newRoomNumber string) (domain.Booking, error)
	Cost(ctx context.Context, id string) (decimal.Decimal, error)
	AddSpecialRequest(ctx context.Context, id, request string) error
}

type bookingResponse struct {
	ID              string    `json:"id"`
	GuestID         string    `json:"guest_id"`
	RoomNumber      string    `json:"room_number"`
	CheckIn         string    `json:"check_in"`
	CheckOut        string    `json:"check_out"`
	Status          string    `json:"status"`
	Nights          int       `json:"nights"`
	SpecialRequests []string  `json:"special_requests"`
	CreatedAt       time.Time `json:"created_at"`
}

func toBookingResponse(booking domain.Booking) bookingResponse {
	requests := booking.SpecialRequests
	if requests == nil {
		requests = []string{}
	}
	return bookingResponse{
		ID:              booking.ID,
		GuestID:         booking.GuestID,
		RoomNumber:      booking.RoomNumber,
		CheckIn:         booking.CheckIn.Format(time.DateOnly),
		CheckOut:        booking.CheckOut.Format(time.DateOnly),
		Status:          string(booking.Status),
		Nights:          booking.Nights(),
		SpecialRequests: requests,
		CreatedAt:       booking.CreatedAt,
	}
}

// HandleCreateBooking returns the handler for POST /bookings.
func HandleCreateBooking(svc BookingEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBookingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		checkIn, checkOut, ok := req.parseDates(w)
		if !ok {
			return
		}

		booking, err := svc.Create(r.Context(), app.CreateBookingInput{
			GuestID:    req.GuestID,
			RoomNumber: req.RoomNumber,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBookingResponse(booking))
	}
}

type createBookingRequest struct {
	GuestID    string `json:"guest_id"`
	RoomNumber string `json:"room_number"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

func (req createBookingRequest) parseDates(w http.ResponseWriter) (checkIn, checkOut time.Time, ok bool) {
	var err error
	if checkIn, err = parseDate(req.CheckIn); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDateRange, "invalid check_in date")
		return checkIn, checkOut, false
	}
	if checkOut, err = parseDate(req.CheckOut); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDateRange, "invalid check_out date")
		return checkIn, checkOut, false
	}
	return checkIn, checkOut, true
}

// HandleGetBooking returns the handler for GET /bookings/{id}.
func HandleGetBooking(svc BookingEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		booking, err := svc.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(booking))
	}
}

// HandleBookingTransition builds the handler shared by
// POST /bookings/{id}/confirm, /cancel and /checkout.
func HandleBookingTransition(transition func(ctx context.Context, id string) (domain.Booking, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		booking, err := transition(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(booking))
	}
}

// HandleModifyBookingDates returns the handler for POST /bookings/{id}/dates.
func HandleModifyBookingDates(svc BookingEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBookingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		checkIn, checkOut, ok := req.parseDates(w)
		if !ok {
			return
		}

		booking, err := svc.ModifyDates(r.Context(), r.PathValue("id"), checkIn, checkOut)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(booking))
	}
}

// HandleExtendBooking returns the handler for POST /bookings/{id}/extend.
func HandleExtendBooking(svc BookingEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExtraNights int `json:"extra_nights"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		booking, err := svc.Extend(r.Context(), r.PathValue("id"), req.ExtraNights)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(booking))
	}
}

// HandleAssignRoom returns the handler for POST /bookings/{id}/room.
func HandleAssignRoom(svc BookingEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RoomNumber string `json:"room_number"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		booking, err := svc.AssignRoom(r.Context(), r.PathValue("id"), req.RoomNumber)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(booking))
	}
}

// HandleBookingCost returns the handler for GET /bookings/{id}/cost.
func HandleBookingCost(svc BookingEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		cost, err := svc.Cost(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			BookingID string `json:"booking_id"`
			Cost      string `json:"cost"`
		}{BookingID: id, Cost: cost.String()})
	}
}

// HandleAddSpecialRequest returns the handler for POST /bookings/{id}/requests.
func HandleAddSpecialRequest(svc BookingEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Request string `json:"request"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		id := r.PathValue("id")
		if err := svc.AddSpecialRequest(r.Context(), id, req.Request); err != nil {
			writeServiceError(w, err)
			return
		}
		booking, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(booking))
	}
}
