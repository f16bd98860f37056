package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/pricing"
	"github.com/marcioluisms/hotelly2-sub001/internal/httpapi/middleware"
	"github.com/marcioluisms/hotelly2-sub001/internal/store"
)

const rateDateLayout = "2006-01-02"

type rateDayWire struct {
	RoomTypeID     string `json:"room_type_id"`
	Date           string `json:"date"`
	Price1Pax      *int64 `json:"price_1pax_cents,omitempty"`
	Price2Pax      *int64 `json:"price_2pax_cents,omitempty"`
	Price3Pax      *int64 `json:"price_3pax_cents,omitempty"`
	Price4Pax      *int64 `json:"price_4pax_cents,omitempty"`
	Bucket1Chd     *int64 `json:"price_bucket1_chd_cents,omitempty"`
	Bucket2Chd     *int64 `json:"price_bucket2_chd_cents,omitempty"`
	Bucket3Chd     *int64 `json:"price_bucket3_chd_cents,omitempty"`
	ClosedCheckin  bool   `json:"closed_checkin"`
	ClosedCheckout bool   `json:"closed_checkout"`
	IsBlocked      bool   `json:"is_blocked"`
}

func rateDayToWire(r pricing.RateDay) rateDayWire {
	return rateDayWire{
		RoomTypeID:     r.RoomTypeID,
		Date:           r.Date.Format(rateDateLayout),
		Price1Pax:      r.Price1Pax,
		Price2Pax:      r.Price2Pax,
		Price3Pax:      r.Price3Pax,
		Price4Pax:      r.Price4Pax,
		Bucket1Chd:     r.Bucket1Chd,
		Bucket2Chd:     r.Bucket2Chd,
		Bucket3Chd:     r.Bucket3Chd,
		ClosedCheckin:  r.ClosedCheckin,
		ClosedCheckout: r.ClosedCheckout,
		IsBlocked:      r.IsBlocked,
	}
}

func rateDayFromWire(w rateDayWire) (pricing.RateDay, error) {
	if w.RoomTypeID == "" {
		return pricing.RateDay{}, apperr.Validation("missing_room_type_id", "each rate row requires a room_type_id")
	}
	date, err := time.Parse(rateDateLayout, w.Date)
	if err != nil {
		return pricing.RateDay{}, apperr.Validation("invalid_date", "each rate row requires a date in YYYY-MM-DD form")
	}
	return pricing.RateDay{
		RoomTypeID:     w.RoomTypeID,
		Date:           date,
		Price1Pax:      w.Price1Pax,
		Price2Pax:      w.Price2Pax,
		Price3Pax:      w.Price3Pax,
		Price4Pax:      w.Price4Pax,
		Bucket1Chd:     w.Bucket1Chd,
		Bucket2Chd:     w.Bucket2Chd,
		Bucket3Chd:     w.Bucket3Chd,
		ClosedCheckin:  w.ClosedCheckin,
		ClosedCheckout: w.ClosedCheckout,
		IsBlocked:      w.IsBlocked,
	}, nil
}

// handleGetRates implements `GET /rates?start_date&end_date&room_type_id?`.
func handleGetRates(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := middleware.PropertyID(r.Context())
		q := r.URL.Query()
		startRaw, endRaw := q.Get("start_date"), q.Get("end_date")
		if startRaw == "" || endRaw == "" {
			writeError(w, r, apperr.Validation("missing_date_range", "start_date and end_date are required"))
			return
		}
		start, err := time.Parse(rateDateLayout, startRaw)
		if err != nil {
			writeError(w, r, apperr.Validation("invalid_start_date", "start_date must be YYYY-MM-DD"))
			return
		}
		end, err := time.Parse(rateDateLayout, endRaw)
		if err != nil {
			writeError(w, r, apperr.Validation("invalid_end_date", "end_date must be YYYY-MM-DD"))
			return
		}
		roomTypeID := q.Get("room_type_id")

		var rows []pricing.RateDay
		err = store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			rows, innerErr = pricing.ListRateDays(ctx, tx, propertyID, start, end, roomTypeID)
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		wire := make([]rateDayWire, 0, len(rows))
		for _, row := range rows {
			wire = append(wire, rateDayToWire(row))
		}
		writeJSON(w, http.StatusOK, map[string]any{"rates": wire})
	}
}

type putRatesRequest struct {
	Rates []rateDayWire `json:"rates"`
}

// handlePutRates implements `PUT /rates`.
func handlePutRates(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := middleware.PropertyID(r.Context())

		var req putRatesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		rows := make([]pricing.RateDay, 0, len(req.Rates))
		for _, rd := range req.Rates {
			row, err := rateDayFromWire(rd)
			if err != nil {
				writeError(w, r, err)
				return
			}
			rows = append(rows, row)
		}

		var upserted int
		err := store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			upserted, innerErr = pricing.UpsertRateDays(ctx, tx, propertyID, rows)
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]int{"upserted": upserted})
	}
}
