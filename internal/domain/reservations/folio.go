package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// FolioPaymentMethod enumerates the manual payment instruments staff
// can record against a reservation's folio.
type FolioPaymentMethod string

const (
	FolioMethodCreditCard FolioPaymentMethod = "credit_card"
	FolioMethodDebitCard  FolioPaymentMethod = "debit_card"
	FolioMethodCash       FolioPaymentMethod = "cash"
	FolioMethodPix        FolioPaymentMethod = "pix"
	FolioMethodTransfer   FolioPaymentMethod = "transfer"
)

// FolioPaymentStatus is the lifecycle of one folio payment row.
type FolioPaymentStatus string

const (
	FolioStatusCaptured FolioPaymentStatus = "captured"
	FolioStatusVoided   FolioPaymentStatus = "voided"
)

var validFolioMethods = map[FolioPaymentMethod]bool{
	FolioMethodCreditCard: true,
	FolioMethodDebitCard:  true,
	FolioMethodCash:       true,
	FolioMethodPix:        true,
	FolioMethodTransfer:   true,
}

// payableStatuses are the reservation statuses a folio payment may be
// recorded against.
var payableStatuses = map[Status]bool{
	StatusConfirmed: true,
	StatusInHouse:   true,
}

// FolioPayment mirrors the folio_payments row described in spec §3.
type FolioPayment struct {
	ID            string
	ReservationID string
	PropertyID    string
	AmountCents   int64
	Method        FolioPaymentMethod
	Status        FolioPaymentStatus
	RecordedAt    time.Time
	RecordedBy    *string
}

// RecordFolioPayment inserts a captured folio payment against a
// reservation, after validating the reservation is in a payable
// status and the amount/method are well formed.
func RecordFolioPayment(ctx context.Context, tx pgx.Tx, reservationID string, amountCents int64, method FolioPaymentMethod, recordedBy *string) (FolioPayment, error) {
	if amountCents <= 0 {
		return FolioPayment{}, apperr.Validation("invalid_amount", "amount_cents must be positive")
	}
	if !validFolioMethods[method] {
		return FolioPayment{}, apperr.Validation("invalid_method", "unknown folio payment method")
	}

	var propertyID string
	var status Status
	err := tx.QueryRow(ctx, `
		SELECT property_id, status FROM reservations WHERE id = $1 FOR UPDATE
	`, reservationID).Scan(&propertyID, &status)
	if err == pgx.ErrNoRows {
		return FolioPayment{}, ErrReservationNotFound
	}
	if err != nil {
		return FolioPayment{}, fmt.Errorf("reservations: lock for folio payment: %w", err)
	}
	if !payableStatuses[status] {
		return FolioPayment{}, apperr.ConflictBusiness("reservation_not_payable", fmt.Sprintf("reservation status %q does not accept folio payments", status))
	}

	id := uuid.NewString()
	recordedAt := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		INSERT INTO folio_payments (id, reservation_id, property_id, amount_cents, method, status, recorded_at, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, id, reservationID, propertyID, amountCents, method, FolioStatusCaptured, recordedAt, recordedBy); err != nil {
		return FolioPayment{}, fmt.Errorf("reservations: insert folio payment: %w", err)
	}

	return FolioPayment{
		ID: id, ReservationID: reservationID, PropertyID: propertyID,
		AmountCents: amountCents, Method: method, Status: FolioStatusCaptured,
		RecordedAt: recordedAt, RecordedBy: recordedBy,
	}, nil
}

// VoidFolioPayment flips a captured folio payment to voided.
func VoidFolioPayment(ctx context.Context, tx pgx.Tx, paymentID string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE folio_payments SET status = $1 WHERE id = $2 AND status = $3
	`, FolioStatusVoided, paymentID, FolioStatusCaptured)
	if err != nil {
		return fmt.Errorf("reservations: void folio payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("folio_payment_not_found", "folio payment not found or already voided")
	}
	return nil
}

// FolioSummary is the `GET /reservations/{id}/folio` read model: the
// reservation total, every extra consumed, every captured/voided
// folio payment, and the resulting balance due.
type FolioSummary struct {
	ReservationID string
	TotalCents    int64
	Currency      string
	ExtrasCents   int64
	PaymentsCents int64
	BalanceCents  int64
	FolioPayments []FolioPayment
}

// LoadFolioSummary assembles the folio read model for reservationID.
func LoadFolioSummary(ctx context.Context, tx pgx.Tx, reservationID string) (FolioSummary, error) {
	var summary FolioSummary
	summary.ReservationID = reservationID

	err := tx.QueryRow(ctx, `
		SELECT total_cents, currency FROM reservations WHERE id = $1
	`, reservationID).Scan(&summary.TotalCents, &summary.Currency)
	if err == pgx.ErrNoRows {
		return FolioSummary{}, ErrReservationNotFound
	}
	if err != nil {
		return FolioSummary{}, fmt.Errorf("reservations: load for folio: %w", err)
	}

	var extrasCents *int64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_price_cents), 0) FROM reservation_extras WHERE reservation_id = $1
	`, reservationID).Scan(&extrasCents); err != nil && err != pgx.ErrNoRows {
		return FolioSummary{}, fmt.Errorf("reservations: sum extras: %w", err)
	}
	if extrasCents != nil {
		summary.ExtrasCents = *extrasCents
	}

	rows, err := tx.Query(ctx, `
		SELECT id, reservation_id, property_id, amount_cents, method, status, recorded_at, recorded_by
		FROM folio_payments
		WHERE reservation_id = $1
		ORDER BY recorded_at
	`, reservationID)
	if err != nil {
		return FolioSummary{}, fmt.Errorf("reservations: load folio payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fp FolioPayment
		if err := rows.Scan(&fp.ID, &fp.ReservationID, &fp.PropertyID, &fp.AmountCents, &fp.Method, &fp.Status, &fp.RecordedAt, &fp.RecordedBy); err != nil {
			return FolioSummary{}, err
		}
		summary.FolioPayments = append(summary.FolioPayments, fp)
		if fp.Status == FolioStatusCaptured {
			summary.PaymentsCents += fp.AmountCents
		}
	}
	if err := rows.Err(); err != nil {
		return FolioSummary{}, err
	}

	summary.BalanceCents = summary.TotalCents + summary.ExtrasCents - summary.PaymentsCents
	return summary, nil
}
