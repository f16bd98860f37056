package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/reservations"
	"github.com/marcioluisms/hotelly2-sub001/internal/httpapi/middleware"
	"github.com/marcioluisms/hotelly2-sub001/internal/payment/broker"
	"github.com/marcioluisms/hotelly2-sub001/internal/store"
)

// handlePostCheckout implements `POST /payments/holds/{hold_id}/checkout`.
func handlePostCheckout(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := middleware.PropertyID(r.Context())
		holdID := chi.URLParam(r, "hold_id")
		if holdID == "" {
			writeError(w, r, apperr.Validation("missing_hold_id", "hold_id path parameter is required"))
			return
		}

		var result broker.CheckoutResult
		err := store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			result, innerErr = broker.CreateCheckoutSession(ctx, tx, deps.Provider, propertyID, holdID)
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"payment_id":         result.PaymentID,
			"provider_object_id": result.ProviderObjectID,
			"checkout_url":       result.CheckoutURL,
		})
	}
}

type postFolioPaymentRequest struct {
	AmountCents int64                           `json:"amount_cents"`
	Method      reservations.FolioPaymentMethod `json:"method"`
}

// handlePostReservationPayment implements `POST /reservations/{id}/payments`.
func handlePostReservationPayment(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reservationID := chi.URLParam(r, "id")
		if reservationID == "" {
			writeError(w, r, apperr.Validation("missing_reservation_id", "id path parameter is required"))
			return
		}

		var req postFolioPaymentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		var payment reservations.FolioPayment
		err := store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			payment, innerErr = reservations.RecordFolioPayment(ctx, tx, reservationID, req.AmountCents, req.Method, nil)
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, payment)
	}
}

// handleGetFolio implements `GET /reservations/{id}/folio`.
func handleGetFolio(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reservationID := chi.URLParam(r, "id")
		if reservationID == "" {
			writeError(w, r, apperr.Validation("missing_reservation_id", "id path parameter is required"))
			return
		}

		var summary reservations.FolioSummary
		err := store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			summary, innerErr = reservations.LoadFolioSummary(ctx, tx, reservationID)
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
