package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harborstay/reservations/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidArgument     = "invalid_argument"
	codeInvalidDateRange    = "invalid_date_range"
	codeInvalidPrice        = "invalid_price"
	codeInvalidID           = "invalid_id"
	codeInvalidCoupon       = "invalid_coupon"
	codeRoomNotFound        = "room_not_found"
	codeGuestNotFound       = "guest_not_found"
	codeBookingNotFound     = "booking_not_found"
	codePaymentNotFound     = "payment_not_found"
	codeRoomExists          = "room_exists"
	codeRoomUnavailable     = "room_unavailable"
	codeInvalidTransition   = "invalid_transition"
	codeInvalidBookingState = "invalid_booking_state"
	codePaymentExists       = "payment_exists"
	codeAmountMismatch      = "amount_mismatch"
	codeAlreadyEnrolled     = "already_enrolled"
	codeInsufficientPoints  = "insufficient_points"
	codeGuestBlocked        = "guest_blocked"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps domain sentinels to stable HTTP statuses and codes.
// Services wrap sentinels with context, so matching goes through errors.Is.
func writeServiceError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

var errorMappings = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrInvalidArgument, http.StatusBadRequest, codeInvalidArgument},
	{domain.ErrInvalidDateRange, http.StatusBadRequest, codeInvalidDateRange},
	{domain.ErrInvalidPrice, http.StatusBadRequest, codeInvalidPrice},
	{domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID},
	{domain.ErrInvalidCoupon, http.StatusBadRequest, codeInvalidCoupon},
	{domain.ErrAmountMismatch, http.StatusBadRequest, codeAmountMismatch},
	{domain.ErrRoomNotFound, http.StatusNotFound, codeRoomNotFound},
	{domain.ErrGuestNotFound, http.StatusNotFound, codeGuestNotFound},
	{domain.ErrBookingNotFound, http.StatusNotFound, codeBookingNotFound},
	{domain.ErrPaymentNotFound, http.StatusNotFound, codePaymentNotFound},
	{domain.ErrDuplicateRoom, http.StatusConflict, codeRoomExists},
	{domain.ErrRoomUnavailable, http.StatusConflict, codeRoomUnavailable},
	{domain.ErrInvalidTransition, http.StatusConflict, codeInvalidTransition},
	{domain.ErrInvalidBookingState, http.StatusConflict, codeInvalidBookingState},
	{domain.ErrPaymentExists, http.StatusConflict, codePaymentExists},
	{domain.ErrAlreadyEnrolled, http.StatusConflict, codeAlreadyEnrolled},
	{domain.ErrInsufficientPoints, http.StatusConflict, codeInsufficientPoints},
	{domain.ErrGuestBlocked, http.StatusForbidden, codeGuestBlocked},
}
