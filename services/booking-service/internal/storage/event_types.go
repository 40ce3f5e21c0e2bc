package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
)

// EventType is a bookable meeting kind. The time zone in Settings comes
// from the host profile.
type EventType struct {
	ID          string
	HostUserID  string
	Title       string
	Description string
	Settings    policy.Settings
	Questions   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e EventType) Policy() (policy.EventPolicy, error) {
	return policy.New(e.ID, e.HostUserID, e.Settings)
}

const eventTypeColumns = `
	e.id::text, e.host_user_id::text, e.title, e.description,
	e.duration_minutes, e.buffer_before_minutes, e.buffer_after_minutes,
	e.minimum_notice_minutes, e.booking_window_days, e.max_bookings_per_day,
	e.is_active, h.timezone, e.questions, e.created_at, e.updated_at`

func scanEventType(row interface{ Scan(...any) error }) (EventType, error) {
	var e EventType
	var questions []byte
	err := row.Scan(
		&e.ID, &e.HostUserID, &e.Title, &e.Description,
		&e.Settings.DurationMinutes, &e.Settings.BufferBeforeMinutes, &e.Settings.BufferAfterMinutes,
		&e.Settings.MinimumNoticeMinutes, &e.Settings.BookingWindowDays, &e.Settings.MaxBookingsPerDay,
		&e.Settings.IsActive, &e.Settings.HostTimezone, &questions, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return EventType{}, err
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &e.Questions); err != nil {
			return EventType{}, err
		}
	}
	return e, nil
}

func (r *Repository) GetEventType(ctx context.Context, q db.Querier, id string) (EventType, error) {
	return scanEventType(q.QueryRow(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types e
		JOIN host_profiles h ON h.host_user_id = e.host_user_id
		WHERE e.id = $1
	`, id))
}

func (r *Repository) ListEventTypes(ctx context.Context, q db.Querier, hostUserID string) ([]EventType, error) {
	rows, err := q.Query(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types e
		JOIN host_profiles h ON h.host_user_id = e.host_user_id
		WHERE e.host_user_id = $1
		ORDER BY e.created_at ASC
	`, hostUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventType
	for rows.Next() {
		e, err := scanEventType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) CreateEventType(ctx context.Context, q db.Querier, e EventType) (string, error) {
	questions, err := marshalStrings(e.Questions)
	if err != nil {
		return "", err
	}
	s := e.Settings
	var id string
	err = q.QueryRow(ctx, `
		INSERT INTO event_types
			(host_user_id, title, description, duration_minutes, buffer_before_minutes, buffer_after_minutes,
			 minimum_notice_minutes, booking_window_days, max_bookings_per_day, is_active, questions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id::text
	`, e.HostUserID, e.Title, e.Description, s.DurationMinutes, s.BufferBeforeMinutes, s.BufferAfterMinutes,
		s.MinimumNoticeMinutes, s.BookingWindowDays, s.MaxBookingsPerDay, s.IsActive, questions).Scan(&id)
	return id, err
}

// UpdateEventType overwrites the host-editable fields. Existing bookings are
// untouched.
func (r *Repository) UpdateEventType(ctx context.Context, q db.Querier, e EventType) error {
	questions, err := marshalStrings(e.Questions)
	if err != nil {
		return err
	}
	s := e.Settings
	tag, err := q.Exec(ctx, `
		UPDATE event_types
		SET title = $3,
			description = $4,
			duration_minutes = $5,
			buffer_before_minutes = $6,
			buffer_after_minutes = $7,
			minimum_notice_minutes = $8,
			booking_window_days = $9,
			max_bookings_per_day = $10,
			is_active = $11,
			questions = $12,
			updated_at = now()
		WHERE id = $1 AND host_user_id = $2
	`, e.ID, e.HostUserID, e.Title, e.Description, s.DurationMinutes, s.BufferBeforeMinutes, s.BufferAfterMinutes,
		s.MinimumNoticeMinutes, s.BookingWindowDays, s.MaxBookingsPerDay, s.IsActive, questions)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func marshalStrings(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	return json.Marshal(v)
}
