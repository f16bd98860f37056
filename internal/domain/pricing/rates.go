package pricing

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// MaxRateUpsertBatch mirrors spec §6's `PUT /rates` body limit: at most
// 366 rows (one calendar year plus a day of slack) per call.
const MaxRateUpsertBatch = 366

// RateDay is one row of the `GET /rates` / `PUT /rates` wire shape.
type RateDay struct {
	RoomTypeID     string
	Date           time.Time
	Price1Pax      *int64
	Price2Pax      *int64
	Price3Pax      *int64
	Price4Pax      *int64
	Bucket1Chd     *int64
	Bucket2Chd     *int64
	Bucket3Chd     *int64
	ClosedCheckin  bool
	ClosedCheckout bool
	IsBlocked      bool
}

// ListRateDays returns every rate day in [start, end] for propertyID,
// optionally narrowed to one room type.
func ListRateDays(ctx context.Context, tx pgx.Tx, propertyID string, start, end time.Time, roomTypeID string) ([]RateDay, error) {
	query := `
		SELECT room_type_id, date, price_1pax_cents, price_2pax_cents, price_3pax_cents, price_4pax_cents,
		       price_bucket1_chd_cents, price_bucket2_chd_cents, price_bucket3_chd_cents,
		       closed_checkin, closed_checkout, is_blocked
		FROM room_type_rates
		WHERE property_id = $1 AND date >= $2 AND date <= $3`
	args := []any{propertyID, start, end}
	if roomTypeID != "" {
		query += " AND room_type_id = $4"
		args = append(args, roomTypeID)
	}
	query += " ORDER BY room_type_id, date"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RateDay
	for rows.Next() {
		var r RateDay
		if err := rows.Scan(&r.RoomTypeID, &r.Date, &r.Price1Pax, &r.Price2Pax, &r.Price3Pax, &r.Price4Pax,
			&r.Bucket1Chd, &r.Bucket2Chd, &r.Bucket3Chd, &r.ClosedCheckin, &r.ClosedCheckout, &r.IsBlocked); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertRateDays writes every row of rates in one statement-per-row
// batch, validating the §6 body-size limit upfront. It returns the
// number of rows upserted.
func UpsertRateDays(ctx context.Context, tx pgx.Tx, propertyID string, rates []RateDay) (int, error) {
	if len(rates) == 0 {
		return 0, apperr.Validation("empty_rates", "rates must not be empty")
	}
	if len(rates) > MaxRateUpsertBatch {
		return 0, apperr.Validation("too_many_rates", "rates batch exceeds the maximum of 366 rows")
	}

	for _, r := range rates {
		if r.RoomTypeID == "" {
			return 0, apperr.Validation("missing_room_type_id", "each rate row requires a room_type_id")
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO room_type_rates (property_id, room_type_id, date, price_1pax_cents, price_2pax_cents,
			                              price_3pax_cents, price_4pax_cents, price_bucket1_chd_cents,
			                              price_bucket2_chd_cents, price_bucket3_chd_cents,
			                              closed_checkin, closed_checkout, is_blocked, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now())
			ON CONFLICT (property_id, room_type_id, date) DO UPDATE
			SET price_1pax_cents = EXCLUDED.price_1pax_cents,
			    price_2pax_cents = EXCLUDED.price_2pax_cents,
			    price_3pax_cents = EXCLUDED.price_3pax_cents,
			    price_4pax_cents = EXCLUDED.price_4pax_cents,
			    price_bucket1_chd_cents = EXCLUDED.price_bucket1_chd_cents,
			    price_bucket2_chd_cents = EXCLUDED.price_bucket2_chd_cents,
			    price_bucket3_chd_cents = EXCLUDED.price_bucket3_chd_cents,
			    closed_checkin = EXCLUDED.closed_checkin,
			    closed_checkout = EXCLUDED.closed_checkout,
			    is_blocked = EXCLUDED.is_blocked,
			    updated_at = now()
		`, propertyID, r.RoomTypeID, r.Date, r.Price1Pax, r.Price2Pax, r.Price3Pax, r.Price4Pax,
			r.Bucket1Chd, r.Bucket2Chd, r.Bucket3Chd, r.ClosedCheckin, r.ClosedCheckout, r.IsBlocked); err != nil {
			return 0, err
		}
	}

	return len(rates), nil
}

// SaveChildAgeBuckets validates and replaces a property's three child
// age buckets in one transaction, per spec §3/§4.E.
func SaveChildAgeBuckets(ctx context.Context, tx pgx.Tx, propertyID string, buckets []ChildAgeBucket) error {
	if err := ValidateBucketPartition(buckets); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM property_child_age_buckets WHERE property_id = $1`, propertyID); err != nil {
		return err
	}
	for _, b := range buckets {
		if _, err := tx.Exec(ctx, `
			INSERT INTO property_child_age_buckets (property_id, bucket_number, min_age, max_age)
			VALUES ($1, $2, $3, $4)
		`, propertyID, b.Number, b.MinAge, b.MaxAge); err != nil {
			return err
		}
	}
	return nil
}
