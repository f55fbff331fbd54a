package http

import "net/http"

// Services bundles the application services the router exposes.
type Services struct {
	Rooms    RoomRegistry
	Guests   GuestDirectory
	Loyalty  LoyaltyProgram
	Bookings BookingEngine
	Payments PaymentProcessor
}

// NewRouter wires every endpoint onto a ServeMux. Method and path matching is
// delegated to the mux patterns; unknown routes fall through to the JSON 404.
func NewRouter(svcs Services) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", HealthHandler)

	mux.Handle("POST /rooms", HandleRegisterRoom(svcs.Rooms))
	mux.Handle("GET /rooms", HandleListRooms(svcs.Rooms))
	mux.Handle("GET /rooms/available", HandleFindAvailableRooms(svcs.Rooms))
	mux.Handle("GET /rooms/{number}", HandleGetRoom(svcs.Rooms))
	mux.Handle("POST /rooms/{number}/price", HandleRepriceRoom(svcs.Rooms))
	mux.Handle("POST /rooms/{number}/amenities", HandleAddAmenity(svcs.Rooms))
	mux.Handle("DELETE /rooms/{number}/amenities/{amenity}", HandleRemoveAmenity(svcs.Rooms))
	mux.Handle("POST /rooms/{number}/maintenance", HandleRoomMaintenance(svcs.Rooms))
	mux.Handle("POST /rooms/{number}/release", HandleReleaseRoom(svcs.Rooms))

	mux.Handle("POST /guests", HandleCreateGuest(svcs.Guests))
	mux.Handle("GET /guests/{id}", HandleGetGuest(svcs.Guests))
	mux.Handle("POST /guests/{id}/profile", HandleUpdateGuestProfile(svcs.Guests))
	mux.Handle("POST /guests/{id}/block", HandleBlockGuest(svcs.Guests))
	mux.Handle("POST /guests/{id}/enroll", HandleEnrollGuest(svcs.Loyalty))
	mux.Handle("POST /guests/{id}/redeem", HandleRedeemPoints(svcs.Loyalty))

	mux.Handle("POST /bookings", HandleCreateBooking(svcs.Bookings))
	mux.Handle("GET /bookings/{id}", HandleGetBooking(svcs.Bookings))
	mux.Handle("GET /bookings/{id}/cost", HandleBookingCost(svcs.Bookings))
	mux.Handle("POST /bookings/{id}/confirm", HandleBookingTransition(svcs.Bookings.Confirm))
	mux.Handle("POST /bookings/{id}/cancel", HandleBookingTransition(svcs.Bookings.Cancel))
	mux.Handle("POST /bookings/{id}/checkout", HandleBookingTransition(svcs.Bookings.CheckOut))
	mux.Handle("POST /bookings/{id}/dates", HandleModifyBookingDates(svcs.Bookings))
	mux.Handle("POST /bookings/{id}/extend", HandleExtendBooking(svcs.Bookings))
	mux.Handle("POST /bookings/{id}/room", HandleAssignRoom(svcs.Bookings))
	mux.Handle("POST /bookings/{id}/requests", HandleAddSpecialRequest(svcs.Bookings))

	mux.Handle("POST /payments", HandleCreatePayment(svcs.Payments))
	mux.Handle("GET /payments/{id}", HandleGetPayment(svcs.Payments))
	mux.Handle("GET /payments/{id}/validate", HandleValidatePayment(svcs.Payments))
	mux.Handle("POST /payments/{id}/discount", HandlePaymentAdjustment(svcs.Payments.ApplyDiscount))
	mux.Handle("POST /payments/{id}/vat", HandlePaymentAdjustment(svcs.Payments.ApplyVAT))
	mux.Handle("POST /payments/{id}/coupon", HandleApplyCoupon(svcs.Payments))
	mux.Handle("POST /payments/{id}/split", HandleSplitPayment(svcs.Payments))
	mux.Handle("POST /payments/{id}/process", HandlePaymentTransition(svcs.Payments.Process))
	mux.Handle("POST /payments/{id}/refund", HandlePaymentTransition(svcs.Payments.Refund))
	mux.Handle("POST /payments/{id}/fail", HandlePaymentTransition(svcs.Payments.RecordFailure))

	mux.Handle("/", NotFoundHandler())

	return mux
}
