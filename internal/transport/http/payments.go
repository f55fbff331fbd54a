package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservations/internal/app"
	"github.com/harborstay/reservations/internal/domain"
)

// PaymentProcessor is the slice of the payment service the payment endpoints
// need.
type PaymentProcessor interface {
	Create(ctx context.Context, in app.CreatePaymentInput) (domain.Payment, error)
	Get(ctx context.Context, id string) (domain.Payment, error)
	ApplyDiscount(ctx context.Context, id string, percent decimal.Decimal) (domain.Payment, error)
	ApplyVAT(ctx context.Context, id string, percent decimal.Decimal) (domain.Payment, error)
	ApplyCoupon(ctx context.Context, id, code string) (domain.Payment, error)
	Split(ctx context.Context, id string, methods []string, amounts []decimal.Decimal) (domain.Payment, error)
	Process(ctx context.Context, id string) (domain.Payment, error)
	Refund(ctx context.Context, id string) (domain.Payment, error)
	RecordFailure(ctx context.Context, id string) (domain.Payment, error)
	Validate(ctx context.Context, id string) (bool, error)
}

type paymentResponse struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	Amount        string    `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	GrantedPoints *int      `json:"granted_points,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPaymentResponse(payment domain.Payment) paymentResponse {
	return paymentResponse{
		ID:            payment.ID,
		BookingID:     payment.BookingID,
		Amount:        payment.Amount.String(),
		Method:        payment.Method,
		Status:        string(payment.Status),
		GrantedPoints: payment.GrantedPoints,
		CreatedAt:     payment.CreatedAt,
	}
}

// HandleCreatePayment returns the handler for POST /payments.
func HandleCreatePayment(svc PaymentProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BookingID  string `json:"booking_id"`
			Method     string `json:"method"`
			CardNumber string `json:"card_number"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		payment, err := svc.Create(r.Context(), app.CreatePaymentInput{
			BookingID:  req.BookingID,
			Method:     req.Method,
			CardNumber: req.CardNumber,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
	}
}

// HandleGetPayment returns the handler for GET /payments/{id}.
func HandleGetPayment(svc PaymentProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payment, err := svc.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPaymentResponse(payment))
	}
}

// HandlePaymentAdjustment builds the handler shared by
// POST /payments/{id}/discount and /vat; the body carries the percent.
func HandlePaymentAdjustment(adjust func(ctx context.Context, id string, percent decimal.Decimal) (domain.Payment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Percent string `json:"percent"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		percent, err := decimal.NewFromString(req.Percent)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidArgument, "invalid percent")
			return
		}

		payment, err := adjust(r.Context(), r.PathValue("id"), percent)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPaymentResponse(payment))
	}
}

// HandleApplyCoupon returns the handler for POST /payments/{id}/coupon.
func HandleApplyCoupon(svc PaymentProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		payment, err := svc.ApplyCoupon(r.Context(), r.PathValue("id"), req.Code)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPaymentResponse(payment))
	}
}

// HandleSplitPayment returns the handler for POST /payments/{id}/split.
func HandleSplitPayment(svc PaymentProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Parts []struct {
				Method string `json:"method"`
				Amount string `json:"amount"`
			} `json:"parts"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		methods := make([]string, 0, len(req.Parts))
		amounts := make([]decimal.Decimal, 0, len(req.Parts))
		for _, part := range req.Parts {
			amount, err := decimal.NewFromString(part.Amount)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidArgument, "invalid split amount")
				return
			}
			methods = append(methods, part.Method)
			amounts = append(amounts, amount)
		}

		payment, err := svc.Split(r.Context(), r.PathValue("id"), methods, amounts)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPaymentResponse(payment))
	}
}

// HandlePaymentTransition builds the handler shared by
// POST /payments/{id}/process, /refund and /fail.
func HandlePaymentTransition(transition func(ctx context.Context, id string) (domain.Payment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payment, err := transition(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPaymentResponse(payment))
	}
}

// HandleValidatePayment returns the handler for GET /payments/{id}/validate.
func HandleValidatePayment(svc PaymentProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		ok, err := svc.Validate(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			PaymentID string `json:"payment_id"`
			Valid     bool   `json:"valid"`
		}{PaymentID: id, Valid: ok})
	}
}
