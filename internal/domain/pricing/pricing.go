// Package pricing implements the Pricing & Availability engine
// (spec §4.E): a per-night ARI availability check folded together
// with PAX-matrix rate resolution into a single minimum-total quote.
package pricing

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// ErrUnavailable is returned whenever any night in the requested range
// cannot be priced: missing ARI, exhausted inventory, currency
// mismatch, or no resolvable rate. The engine never distinguishes the
// cause to the caller; the distinction only matters for logging.
var ErrUnavailable = apperr.Unavailable("unavailable", "requested stay is unavailable")

// Quote is the result of a successful pricing run.
type Quote struct {
	PropertyID string
	RoomTypeID string
	Checkin    time.Time
	Checkout   time.Time
	TotalCents int64
	Currency   string
	Nights     int
}

// ChildAgeBucket is one of a property's exactly-three age bands used
// to resolve a per-child surcharge column. MinAge/MaxAge are
// inclusive; the three buckets for a property must partition 0..17
// without gaps, a contract enforced at bucket-configuration time, not
// here.
type ChildAgeBucket struct {
	Number int // 1, 2, or 3
	MinAge int
	MaxAge int
}

// BucketFor returns the bucket number covering age, or 0 if no bucket
// covers it (meaning the property's bucket configuration has a gap,
// which should already be impossible at the point pricing runs).
func BucketFor(buckets []ChildAgeBucket, age int) int {
	for _, b := range buckets {
		if age >= b.MinAge && age <= b.MaxAge {
			return b.Number
		}
	}
	return 0
}

type ariNight struct {
	invTotal      int
	invBooked     int
	invHeld       int
	currency      string
	baseRateCents *int64
}

type rateNight struct {
	paxCents    map[int]int64 // adults -> price_{adults}pax_cents
	bucketCents map[int]int64 // bucket number -> price_bucketN_chd_cents
}

// Quote computes the minimum total for (propertyID, roomTypeID,
// checkin, checkout, adults, childrenAges), walking the range night by
// night exactly as spec §4.E describes. tx must already be open;
// pricing never starts its own transaction since it is always a
// sub-step of a larger operation (hold placement or a standalone quote
// request, both read-only from pricing's point of view).
func Quote(ctx context.Context, tx pgx.Tx, propertyID, roomTypeID string, checkin, checkout time.Time, adults int, childrenAges []int, buckets []ChildAgeBucket) (*Quote, error) {
	if !checkin.Before(checkout) {
		return nil, apperr.New(apperr.KindValidation, "invalid_range", "checkin must be before checkout")
	}
	if adults < 1 || adults > 4 {
		return nil, apperr.New(apperr.KindValidation, "invalid_adults", "adults must be between 1 and 4")
	}
	if len(childrenAges) > 3 {
		return nil, apperr.New(apperr.KindValidation, "invalid_children", "children count must be between 0 and 3")
	}
	for _, age := range childrenAges {
		if age < 0 || age > 17 {
			return nil, apperr.New(apperr.KindValidation, "invalid_child_age", "child age must be between 0 and 17")
		}
	}

	nights := int(checkout.Sub(checkin).Hours() / 24)

	ariByDate, err := loadARI(ctx, tx, propertyID, roomTypeID, checkin, checkout)
	if err != nil {
		return nil, err
	}
	rateByDate, err := loadRates(ctx, tx, propertyID, roomTypeID, checkin, checkout, adults, buckets, childrenAges)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	property := propertyCurrency(ariByDate)

	for d := checkin; d.Before(checkout); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		ari, ok := ariByDate[key]
		if !ok {
			return nil, ErrUnavailable
		}
		if ari.currency != property {
			return nil, ErrUnavailable
		}
		available := ari.invTotal - ari.invBooked - ari.invHeld
		if available < 1 {
			return nil, ErrUnavailable
		}

		nightly, ok := nightlyPrice(rateByDate[key], ari, adults, childrenAges, buckets)
		if !ok {
			return nil, ErrUnavailable
		}
		total = total.Add(decimal.NewFromInt(nightly))
	}

	return &Quote{
		PropertyID: propertyID,
		RoomTypeID: roomTypeID,
		Checkin:    checkin,
		Checkout:   checkout,
		TotalCents: total.IntPart(),
		Currency:   property,
		Nights:     nights,
	}, nil
}

func nightlyPrice(rate *rateNight, ari ariNight, adults int, childrenAges []int, buckets []ChildAgeBucket) (int64, bool) {
	if rate != nil {
		if paxPrice, ok := rate.paxCents[adults]; ok {
			total := paxPrice
			for _, age := range childrenAges {
				bucketNum := BucketFor(buckets, age)
				if surcharge, ok := rate.bucketCents[bucketNum]; ok {
					total += surcharge
				}
			}
			return total, true
		}
	}
	if ari.baseRateCents != nil {
		return *ari.baseRateCents, true
	}
	return 0, false
}

func propertyCurrency(ariByDate map[string]ariNight) string {
	for _, n := range ariByDate {
		return n.currency
	}
	return ""
}

func loadARI(ctx context.Context, tx pgx.Tx, propertyID, roomTypeID string, checkin, checkout time.Time) (map[string]ariNight, error) {
	rows, err := tx.Query(ctx, `
		SELECT date, inv_total, inv_booked, inv_held, currency, base_rate_cents
		FROM ari_days
		WHERE property_id = $1 AND room_type_id = $2 AND date >= $3 AND date < $4
	`, propertyID, roomTypeID, checkin, checkout)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]ariNight)
	for rows.Next() {
		var d time.Time
		var n ariNight
		if err := rows.Scan(&d, &n.invTotal, &n.invBooked, &n.invHeld, &n.currency, &n.baseRateCents); err != nil {
			return nil, err
		}
		result[d.Format("2006-01-02")] = n
	}
	return result, rows.Err()
}

func loadRates(ctx context.Context, tx pgx.Tx, propertyID, roomTypeID string, checkin, checkout time.Time, adults int, buckets []ChildAgeBucket, childrenAges []int) (map[string]*rateNight, error) {
	rows, err := tx.Query(ctx, `
		SELECT date, price_1pax_cents, price_2pax_cents, price_3pax_cents, price_4pax_cents,
		       price_bucket1_chd_cents, price_bucket2_chd_cents, price_bucket3_chd_cents
		FROM room_type_rates
		WHERE property_id = $1 AND room_type_id = $2 AND date >= $3 AND date < $4
	`, propertyID, roomTypeID, checkin, checkout)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]*rateNight)
	for rows.Next() {
		var d time.Time
		var p1, p2, p3, p4, b1, b2, b3 *int64
		if err := rows.Scan(&d, &p1, &p2, &p3, &p4, &b1, &b2, &b3); err != nil {
			return nil, err
		}
		rn := &rateNight{
			paxCents:    map[int]int64{},
			bucketCents: map[int]int64{},
		}
		for adultCount, price := range map[int]*int64{1: p1, 2: p2, 3: p3, 4: p4} {
			if price != nil {
				rn.paxCents[adultCount] = *price
			}
		}
		for bucketNum, surcharge := range map[int]*int64{1: b1, 2: b2, 3: b3} {
			if surcharge != nil {
				rn.bucketCents[bucketNum] = *surcharge
			}
		}
		result[d.Format("2006-01-02")] = rn
	}
	return result, rows.Err()
}

// LoadChildAgeBuckets reads a property's three age buckets, falling
// back to the system default partition if none are configured.
func LoadChildAgeBuckets(ctx context.Context, tx pgx.Tx, propertyID string) ([]ChildAgeBucket, error) {
	rows, err := tx.Query(ctx, `
		SELECT bucket_number, min_age, max_age
		FROM property_child_age_buckets
		WHERE property_id = $1
		ORDER BY bucket_number
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []ChildAgeBucket
	for rows.Next() {
		var b ChildAgeBucket
		if err := rows.Scan(&b.Number, &b.MinAge, &b.MaxAge); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return DefaultChildAgeBuckets, nil
	}
	return buckets, nil
}

// DefaultChildAgeBuckets is the fallback partition used when a
// property has not configured its own: infant/child/teen, covering
// 0..17 with no gaps.
var DefaultChildAgeBuckets = []ChildAgeBucket{
	{Number: 1, MinAge: 0, MaxAge: 5},
	{Number: 2, MinAge: 6, MaxAge: 12},
	{Number: 3, MinAge: 13, MaxAge: 17},
}

// ValidateBucketPartition reports whether buckets fully covers 0..17
// without gaps or overlaps, per spec §4.E.
func ValidateBucketPartition(buckets []ChildAgeBucket) error {
	if len(buckets) != 3 {
		return apperr.New(apperr.KindValidation, "invalid_buckets", "exactly three child age buckets are required")
	}
	covered := make([]bool, 18)
	for _, b := range buckets {
		if b.MinAge < 0 || b.MaxAge > 17 || b.MinAge > b.MaxAge {
			return apperr.New(apperr.KindValidation, "invalid_buckets", "bucket range must fall within 0..17")
		}
		for age := b.MinAge; age <= b.MaxAge; age++ {
			if covered[age] {
				return apperr.New(apperr.KindValidation, "invalid_buckets", "bucket ranges must not overlap")
			}
			covered[age] = true
		}
	}
	for age, ok := range covered {
		if !ok {
			return apperr.New(apperr.KindValidation, "invalid_buckets", "bucket ranges must cover every age from 0 to 17")
		}
		_ = age
	}
	return nil
}
