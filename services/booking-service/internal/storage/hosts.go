package storage

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
)

type HostProfile struct {
	HostUserID string
	Timezone   string
}

// EnsureHost creates the host profile and the default weekly rules on first
// access. Existing rows are left alone.
func (r *Repository) EnsureHost(ctx context.Context, q db.Querier, hostUserID string) (HostProfile, error) {
	if _, err := q.Exec(ctx, `
		INSERT INTO host_profiles (host_user_id)
		VALUES ($1)
		ON CONFLICT (host_user_id) DO NOTHING
	`, hostUserID); err != nil {
		return HostProfile{}, err
	}
	for _, rule := range availability.DefaultWeeklyRules() {
		if _, err := q.Exec(ctx, `
			INSERT INTO weekly_availability (host_user_id, weekday, start_minute, end_minute, enabled)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (host_user_id, weekday) DO NOTHING
		`, hostUserID, int(rule.Weekday), int(rule.Start), int(rule.End), rule.Enabled); err != nil {
			return HostProfile{}, err
		}
	}

	p := HostProfile{HostUserID: hostUserID}
	err := q.QueryRow(ctx, `
		SELECT timezone FROM host_profiles WHERE host_user_id = $1
	`, hostUserID).Scan(&p.Timezone)
	return p, err
}

func (r *Repository) UpdateHostTimezone(ctx context.Context, q db.Querier, hostUserID, timezone string) error {
	_, err := q.Exec(ctx, `
		UPDATE host_profiles
		SET timezone = $2, updated_at = now()
		WHERE host_user_id = $1
	`, hostUserID, timezone)
	return err
}

func (r *Repository) ListWeeklyRules(ctx context.Context, q db.Querier, hostUserID string) ([]availability.WeeklyRule, error) {
	rows, err := q.Query(ctx, `
		SELECT weekday, start_minute, end_minute, enabled
		FROM weekly_availability
		WHERE host_user_id = $1
		ORDER BY weekday ASC
	`, hostUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.WeeklyRule
	for rows.Next() {
		var wd, start, end int
		var rule availability.WeeklyRule
		if err := rows.Scan(&wd, &start, &end, &rule.Enabled); err != nil {
			return nil, err
		}
		rule.Weekday = time.Weekday(wd)
		rule.Start = availability.TimeOfDay(start)
		rule.End = availability.TimeOfDay(end)
		out = append(out, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// UpsertWeeklyRules replaces the rules for the weekdays given. Weekdays not
// in rules keep their current row; rules are never deleted.
func (r *Repository) UpsertWeeklyRules(ctx context.Context, q db.Querier, hostUserID string, rules []availability.WeeklyRule) error {
	for _, rule := range rules {
		if _, err := q.Exec(ctx, `
			INSERT INTO weekly_availability (host_user_id, weekday, start_minute, end_minute, enabled)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (host_user_id, weekday) DO UPDATE
			SET start_minute = EXCLUDED.start_minute,
				end_minute = EXCLUDED.end_minute,
				enabled = EXCLUDED.enabled,
				updated_at = now()
		`, hostUserID, int(rule.Weekday), int(rule.Start), int(rule.End), rule.Enabled); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) ListOverrides(ctx context.Context, q db.Querier, hostUserID string, from, to civil.Date) ([]availability.DateOverride, error) {
	rows, err := q.Query(ctx, `
		SELECT id::text, override_date, is_blocked, start_minute, end_minute, reason
		FROM date_overrides
		WHERE host_user_id = $1 AND override_date BETWEEN $2 AND $3
		ORDER BY override_date ASC, created_at ASC
	`, hostUserID, from.In(time.UTC), to.In(time.UTC))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.DateOverride
	for rows.Next() {
		var o availability.DateOverride
		var date time.Time
		var start, end *int
		if err := rows.Scan(&o.ID, &date, &o.IsBlocked, &start, &end, &o.Reason); err != nil {
			return nil, err
		}
		o.Date = civil.DateOf(date)
		if start != nil && end != nil {
			o.Range = &availability.TimeRange{Start: availability.TimeOfDay(*start), End: availability.TimeOfDay(*end)}
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) CreateOverride(ctx context.Context, q db.Querier, hostUserID string, o availability.DateOverride) (string, error) {
	var start, end *int
	if o.Range != nil {
		s, e := int(o.Range.Start), int(o.Range.End)
		start, end = &s, &e
	}
	var id string
	err := q.QueryRow(ctx, `
		INSERT INTO date_overrides (host_user_id, override_date, is_blocked, start_minute, end_minute, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text
	`, hostUserID, o.Date.In(time.UTC), o.IsBlocked, start, end, o.Reason).Scan(&id)
	return id, err
}

func (r *Repository) DeleteOverride(ctx context.Context, q db.Querier, hostUserID, overrideID string) error {
	tag, err := q.Exec(ctx, `
		DELETE FROM date_overrides
		WHERE host_user_id = $1 AND id = $2
	`, hostUserID, overrideID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
