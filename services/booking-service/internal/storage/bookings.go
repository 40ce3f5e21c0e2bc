package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
)

const bookingColumns = `
	id::text, event_type_id::text, host_user_id::text,
	guest_name, guest_email, guest_phone, guest_timezone,
	start_time, end_time, status, reschedule_token_hash, responses,
	cancelled_at, COALESCE(cancellation_reason, ''), created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var b model.Booking
	var start, end time.Time
	var status string
	var responses []byte
	err := row.Scan(
		&b.ID, &b.EventTypeID, &b.HostUserID,
		&b.Guest.Name, &b.Guest.Email, &b.Guest.Phone, &b.Guest.Timezone,
		&start, &end, &status, &b.RescheduleTokenHash, &responses,
		&b.CancelledAt, &b.CancelReason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.Status(status)
	if b.Slot, err = policy.NewTimeSlot(start, end); err != nil {
		return model.Booking{}, err
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &b.Responses); err != nil {
			return model.Booking{}, err
		}
	}
	return b, nil
}

func collectBookings(rows pgx.Rows) ([]model.Booking, error) {
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) InsertBooking(ctx context.Context, q db.Querier, b model.Booking) error {
	responses, err := marshalResponses(b.Responses)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO bookings
			(id, event_type_id, host_user_id, guest_name, guest_email, guest_phone, guest_timezone,
			 start_time, end_time, status, reschedule_token_hash, responses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, b.ID, b.EventTypeID, b.HostUserID, b.Guest.Name, b.Guest.Email, b.Guest.Phone, b.Guest.Timezone,
		b.Slot.Start(), b.Slot.End(), string(b.Status), b.RescheduleTokenHash, responses, b.CreatedAt, b.UpdatedAt)
	return err
}

// SaveBooking writes back the mutable state of b: status, slot, token and
// cancellation details.
func (r *Repository) SaveBooking(ctx context.Context, q db.Querier, b model.Booking) error {
	tag, err := q.Exec(ctx, `
		UPDATE bookings
		SET start_time = $2,
			end_time = $3,
			status = $4,
			reschedule_token_hash = $5,
			cancelled_at = $6,
			cancellation_reason = NULLIF($7, ''),
			updated_at = $8
		WHERE id = $1
	`, b.ID, b.Slot.Start(), b.Slot.End(), string(b.Status), b.RescheduleTokenHash, b.CancelledAt, b.CancelReason, b.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) GetBooking(ctx context.Context, q db.Querier, id string) (model.Booking, error) {
	return scanBooking(q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (r *Repository) GetBookingForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Booking, error) {
	return scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
}

// ListActiveBookings returns the host's non-cancelled bookings touching
// [from, to), across all event types.
func (r *Repository) ListActiveBookings(ctx context.Context, q db.Querier, hostUserID string, from, to time.Time) ([]model.Booking, error) {
	rows, err := q.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE host_user_id = $1
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, hostUserID, from, to)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *Repository) ListHostBookings(ctx context.Context, q db.Querier, hostUserID string, limit int) ([]model.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := q.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE host_user_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, hostUserID, limit)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ClaimEndedBookings locks confirmed bookings that ended before cutoff.
// Concurrent sweepers skip each other's rows.
func (r *Repository) ClaimEndedBookings(ctx context.Context, tx pgx.Tx, cutoff time.Time, limit int) ([]model.Booking, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'confirmed' AND end_time <= $1
		ORDER BY end_time ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func marshalResponses(v []model.Response) ([]byte, error) {
	if v == nil {
		v = []model.Response{}
	}
	return json.Marshal(v)
}
