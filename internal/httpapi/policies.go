package httpapi

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/domain/pricing"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/reservations"
	"github.com/marcioluisms/hotelly2-sub001/internal/httpapi/middleware"
	"github.com/marcioluisms/hotelly2-sub001/internal/store"
)

// handleGetChildPolicies implements `GET /child-policies`.
func handleGetChildPolicies(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := middleware.PropertyID(r.Context())

		var buckets []pricing.ChildAgeBucket
		err := store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			buckets, innerErr = pricing.LoadChildAgeBuckets(ctx, tx, propertyID)
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"buckets": buckets})
	}
}

type putChildPoliciesRequest struct {
	Buckets []pricing.ChildAgeBucket `json:"buckets"`
}

// handlePutChildPolicies implements `PUT /child-policies`.
func handlePutChildPolicies(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := middleware.PropertyID(r.Context())

		var req putChildPoliciesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		err := store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			return pricing.SaveChildAgeBuckets(ctx, tx, propertyID, req.Buckets)
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"buckets": req.Buckets})
	}
}

// handleGetCancellationPolicy implements `GET /cancellation-policy`.
func handleGetCancellationPolicy(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := middleware.PropertyID(r.Context())

		var policy reservations.CancellationPolicy
		err := store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			policy, innerErr = reservations.GetCancellationPolicy(ctx, tx, propertyID)
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, policy)
	}
}

// handlePutCancellationPolicy implements `PUT /cancellation-policy`.
func handlePutCancellationPolicy(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := middleware.PropertyID(r.Context())

		var policy reservations.CancellationPolicy
		if err := decodeJSON(r, &policy); err != nil {
			writeError(w, r, err)
			return
		}

		var saved reservations.CancellationPolicy
		err := store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			saved, innerErr = reservations.PutCancellationPolicy(ctx, tx, propertyID, policy)
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, saved)
	}
}
