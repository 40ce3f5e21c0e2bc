package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type IdempotencyRecord struct {
	EventTypeID     string
	IdempotencyKey  string
	BookingID       string
	StatusCode      int
	ResponsePayload []byte
}

// Completed reports whether an earlier request with the same key already
// produced a response.
func (r IdempotencyRecord) Completed() bool {
	return r.StatusCode != 0 && len(r.ResponsePayload) > 0
}

// LockIdempotencyKey claims (eventTypeID, key) for the current transaction.
// existed is true when the row was there before this call.
func (r *Repository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, eventTypeID, key string) (rec IdempotencyRecord, existed bool, err error) {
	rec, err = r.selectIdempotencyForUpdate(ctx, tx, eventTypeID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (event_type_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (event_type_id, idempotency_key) DO NOTHING
	`, eventTypeID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, eventTypeID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *Repository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, eventTypeID, key, bookingID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE event_type_id = $1 AND idempotency_key = $2
	`, eventTypeID, key, bookingID, statusCode, response)
	return err
}

func (r *Repository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, eventTypeID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT event_type_id::text,
			idempotency_key,
			COALESCE(booking_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE event_type_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, eventTypeID, key).Scan(
		&rec.EventTypeID,
		&rec.IdempotencyKey,
		&rec.BookingID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}
