package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harborstay/reservations/internal/app"
	"github.com/harborstay/reservations/internal/clock"
	"github.com/harborstay/reservations/internal/storage/memory"
)

// newTestRouter wires the real services over the memory store, the same shape
// main assembles for DATABASE_URL=memory.
func newTestRouter() *http.ServeMux {
	store := memory.NewStore()
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	loyalty := app.NewLoyaltyService(store)
	return NewRouter(Services{
		Rooms:    app.NewRoomService(store),
		Guests:   app.NewGuestService(store),
		Loyalty:  loyalty,
		Bookings: app.NewBookingService(store, clk),
		Payments: app.NewPaymentService(store, clk, loyalty),
	})
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		var payload any
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
		if m, ok := payload.(map[string]any); ok {
			decoded = m
		}
	}
	return rec, decoded
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestRouter_StayLifecycle(t *testing.T) {
	t.Parallel()
	mux := newTestRouter()

	rec, _ := doRequest(t, mux, http.MethodPost, "/rooms",
		`{"number":"101","type":"suite","amenities":["wifi"],"nightly_rate":"150"}`)
	expectStatus(t, rec, http.StatusCreated)

	rec, guest := doRequest(t, mux, http.MethodPost, "/guests",
		`{"name":"Alice","contact":"alice@example.com"}`)
	expectStatus(t, rec, http.StatusCreated)
	guestID := guest["id"].(string)

	rec, booking := doRequest(t, mux, http.MethodPost, "/bookings", fmt.Sprintf(
		`{"guest_id":"%s","room_number":"101","check_in":"2025-07-01","check_out":"2025-07-05"}`, guestID))
	expectStatus(t, rec, http.StatusCreated)
	bookingID := booking["id"].(string)
	if booking["status"] != "pending" || booking["nights"] != float64(4) {
		t.Fatalf("unexpected booking: %v", booking)
	}

	rec, cost := doRequest(t, mux, http.MethodGet, "/bookings/"+bookingID+"/cost", "")
	expectStatus(t, rec, http.StatusOK)
	if cost["cost"] != "600" {
		t.Fatalf("expected cost 600, got %v", cost["cost"])
	}

	rec, _ = doRequest(t, mux, http.MethodPost, "/bookings/"+bookingID+"/confirm", "")
	expectStatus(t, rec, http.StatusOK)

	rec, payment := doRequest(t, mux, http.MethodPost, "/payments", fmt.Sprintf(
		`{"booking_id":"%s","method":"Card"}`, bookingID))
	expectStatus(t, rec, http.StatusCreated)
	paymentID := payment["id"].(string)
	if payment["amount"] != "600" {
		t.Fatalf("expected amount 600, got %v", payment["amount"])
	}

	rec, adjusted := doRequest(t, mux, http.MethodPost, "/payments/"+paymentID+"/vat",
		`{"percent":"10"}`)
	expectStatus(t, rec, http.StatusOK)
	if adjusted["amount"] != "660" {
		t.Fatalf("expected amount 660 after VAT, got %v", adjusted["amount"])
	}

	rec, processed := doRequest(t, mux, http.MethodPost, "/payments/"+paymentID+"/process", "")
	expectStatus(t, rec, http.StatusOK)
	if processed["status"] != "completed" || processed["granted_points"] != float64(66) {
		t.Fatalf("unexpected processed payment: %v", processed)
	}

	rec, shown := doRequest(t, mux, http.MethodGet, "/guests/"+guestID, "")
	expectStatus(t, rec, http.StatusOK)
	if shown["loyalty_points"] != float64(66) {
		t.Fatalf("expected 66 points, got %v", shown["loyalty_points"])
	}

	rec, _ = doRequest(t, mux, http.MethodPost, "/bookings/"+bookingID+"/checkout", "")
	expectStatus(t, rec, http.StatusOK)

	rec, room := doRequest(t, mux, http.MethodGet, "/rooms/101", "")
	expectStatus(t, rec, http.StatusOK)
	if room["available"] != true {
		t.Fatalf("expected room released after checkout, got %v", room)
	}
}

func TestRouter_ConflictAndErrorShapes(t *testing.T) {
	t.Parallel()
	mux := newTestRouter()

	doRequest(t, mux, http.MethodPost, "/rooms",
		`{"number":"101","type":"suite","nightly_rate":"150"}`)
	_, guest := doRequest(t, mux, http.MethodPost, "/guests", `{"name":"Alice"}`)
	guestID := guest["id"].(string)

	rec, _ := doRequest(t, mux, http.MethodPost, "/bookings", fmt.Sprintf(
		`{"guest_id":"%s","room_number":"101","check_in":"2025-07-01","check_out":"2025-07-05"}`, guestID))
	expectStatus(t, rec, http.StatusCreated)

	rec, conflict := doRequest(t, mux, http.MethodPost, "/bookings", fmt.Sprintf(
		`{"guest_id":"%s","room_number":"101","check_in":"2025-07-03","check_out":"2025-07-06"}`, guestID))
	expectStatus(t, rec, http.StatusConflict)
	if conflict["code"] != codeRoomUnavailable {
		t.Fatalf("expected code %s, got %v", codeRoomUnavailable, conflict["code"])
	}

	rec, dup := doRequest(t, mux, http.MethodPost, "/rooms",
		`{"number":"101","type":"double","nightly_rate":"90"}`)
	expectStatus(t, rec, http.StatusConflict)
	if dup["code"] != codeRoomExists {
		t.Fatalf("expected code %s, got %v", codeRoomExists, dup["code"])
	}

	rec, missing := doRequest(t, mux, http.MethodGet, "/rooms/999", "")
	expectStatus(t, rec, http.StatusNotFound)
	if missing["code"] != codeRoomNotFound {
		t.Fatalf("expected code %s, got %v", codeRoomNotFound, missing["code"])
	}

	rec, unknown := doRequest(t, mux, http.MethodGet, "/nope", "")
	expectStatus(t, rec, http.StatusNotFound)
	if unknown["code"] != codeNotFound {
		t.Fatalf("expected code %s, got %v", codeNotFound, unknown["code"])
	}
}

func TestRouter_LoyaltyEndpoints(t *testing.T) {
	t.Parallel()
	mux := newTestRouter()

	_, guest := doRequest(t, mux, http.MethodPost, "/guests", `{"name":"Alice"}`)
	guestID := guest["id"].(string)

	rec, enrolled := doRequest(t, mux, http.MethodPost, "/guests/"+guestID+"/enroll", "")
	expectStatus(t, rec, http.StatusOK)
	if enrolled["loyalty_points"] != float64(50) {
		t.Fatalf("expected 50 bonus points, got %v", enrolled["loyalty_points"])
	}

	rec, again := doRequest(t, mux, http.MethodPost, "/guests/"+guestID+"/enroll", "")
	expectStatus(t, rec, http.StatusConflict)
	if again["code"] != codeAlreadyEnrolled {
		t.Fatalf("expected code %s, got %v", codeAlreadyEnrolled, again["code"])
	}

	rec, redeemed := doRequest(t, mux, http.MethodPost, "/guests/"+guestID+"/redeem",
		`{"points":20}`)
	expectStatus(t, rec, http.StatusOK)
	if redeemed["loyalty_points"] != float64(30) {
		t.Fatalf("expected 30 points left, got %v", redeemed["loyalty_points"])
	}

	rec, over := doRequest(t, mux, http.MethodPost, "/guests/"+guestID+"/redeem",
		`{"points":1000}`)
	expectStatus(t, rec, http.StatusConflict)
	if over["code"] != codeInsufficientPoints {
		t.Fatalf("expected code %s, got %v", codeInsufficientPoints, over["code"])
	}
}
