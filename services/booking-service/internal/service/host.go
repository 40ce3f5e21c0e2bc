package service

import (
	"context"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
)

// HostAvailability is the host's time zone and one rule per weekday.
type HostAvailability struct {
	Timezone string
	Rules    []availability.WeeklyRule
}

func validHost(hostUserID string) error {
	if _, err := uuid.Parse(hostUserID); err != nil {
		return apperr.Unauthorized("Invalid host identity")
	}
	return nil
}

func (s *Service) ensureHost(ctx context.Context, tx pgx.Tx, hostUserID string) (storage.HostProfile, error) {
	if err := validHost(hostUserID); err != nil {
		return storage.HostProfile{}, err
	}
	return s.repo.EnsureHost(ctx, tx, hostUserID)
}

// Availability returns the host's weekly rules, creating the defaults on
// first access.
func (s *Service) Availability(ctx context.Context, hostUserID string) (HostAvailability, error) {
	var out HostAvailability
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		profile, err := s.ensureHost(ctx, tx, hostUserID)
		if err != nil {
			return err
		}
		rules, err := s.repo.ListWeeklyRules(ctx, tx, hostUserID)
		if err != nil {
			return err
		}
		out = HostAvailability{Timezone: profile.Timezone, Rules: rules}
		return nil
	})
	return out, err
}

// UpdateAvailability upserts the given weekday rules and, when timezone is
// non-empty, moves the host to that zone.
func (s *Service) UpdateAvailability(ctx context.Context, hostUserID, timezone string, rules []availability.WeeklyRule) (HostAvailability, error) {
	for _, r := range rules {
		if _, err := availability.NewWeeklyRule(r.Weekday, r.Start, r.End, r.Enabled); err != nil {
			return HostAvailability{}, err
		}
	}
	if err := availability.ValidateWeek(rules); err != nil {
		return HostAvailability{}, err
	}
	timezone = strings.TrimSpace(timezone)
	if timezone != "" {
		loc, err := policy.LoadLocation(timezone)
		if err != nil {
			return HostAvailability{}, err
		}
		timezone = loc.String()
	}

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.ensureHost(ctx, tx, hostUserID); err != nil {
			return err
		}
		if err := s.repo.LockHost(ctx, tx, hostUserID); err != nil {
			return err
		}
		if timezone != "" {
			if err := s.repo.UpdateHostTimezone(ctx, tx, hostUserID, timezone); err != nil {
				return err
			}
		}
		return s.repo.UpsertWeeklyRules(ctx, tx, hostUserID, rules)
	})
	if err != nil {
		return HostAvailability{}, err
	}
	s.logger.Info("availability updated", "host_user_id", hostUserID, "rules", len(rules))
	return s.Availability(ctx, hostUserID)
}

// Overrides lists the host's overrides from today (host time zone) on.
func (s *Service) Overrides(ctx context.Context, hostUserID string) ([]availability.DateOverride, error) {
	var out []availability.DateOverride
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		profile, err := s.ensureHost(ctx, tx, hostUserID)
		if err != nil {
			return err
		}
		today, err := s.today(profile.Timezone)
		if err != nil {
			return err
		}
		out, err = s.repo.ListOverrides(ctx, tx, hostUserID, today, today.AddDays(policy.MaxWindowDays+1))
		return err
	})
	return out, err
}

// OverrideInput is a host's request for a date override.
type OverrideInput struct {
	Date      civil.Date
	IsBlocked bool
	Range     *availability.TimeRange
	Reason    string
}

func (s *Service) CreateOverride(ctx context.Context, hostUserID string, in OverrideInput) (availability.DateOverride, error) {
	var out availability.DateOverride
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		profile, err := s.ensureHost(ctx, tx, hostUserID)
		if err != nil {
			return err
		}
		today, err := s.today(profile.Timezone)
		if err != nil {
			return err
		}
		o, err := availability.NewDateOverride("", in.Date, in.IsBlocked, in.Range, in.Reason, today)
		if err != nil {
			return err
		}
		if err := s.repo.LockHost(ctx, tx, hostUserID); err != nil {
			return err
		}
		if o.ID, err = s.repo.CreateOverride(ctx, tx, hostUserID, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return availability.DateOverride{}, err
	}
	s.logger.Info("override created", "host_user_id", hostUserID, "override_id", out.ID, "kind", out.Kind().String(), "date", out.Date.String())
	return out, nil
}

func (s *Service) DeleteOverride(ctx context.Context, hostUserID, overrideID string) error {
	if err := validHost(hostUserID); err != nil {
		return err
	}
	if err := validID(overrideID, msgOverrideNotFound); err != nil {
		return err
	}
	err := s.repo.DeleteOverride(ctx, s.pool, hostUserID, overrideID)
	if storage.IsNotFound(err) {
		return apperr.NotFound(msgOverrideNotFound)
	}
	return err
}

// EventTypeInput is a host's create or update request. Settings.HostTimezone
// is ignored; event types follow the host profile's zone.
type EventTypeInput struct {
	Title       string
	Description string
	Settings    policy.Settings
	Questions   []string
}

func (in EventTypeInput) validate(hostUserID, timezone string) (storage.EventType, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return storage.EventType{}, apperr.Validation("Title is required")
	}
	if len(title) > 200 {
		return storage.EventType{}, apperr.Validation("Title is too long")
	}
	settings := in.Settings
	settings.HostTimezone = timezone
	if _, err := policy.New("", hostUserID, settings); err != nil {
		return storage.EventType{}, err
	}
	questions := make([]string, 0, len(in.Questions))
	for _, q := range in.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	return storage.EventType{
		HostUserID:  hostUserID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Settings:    settings,
		Questions:   questions,
	}, nil
}

func (s *Service) CreateEventType(ctx context.Context, hostUserID string, in EventTypeInput) (storage.EventType, error) {
	var out storage.EventType
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		profile, err := s.ensureHost(ctx, tx, hostUserID)
		if err != nil {
			return err
		}
		et, err := in.validate(hostUserID, profile.Timezone)
		if err != nil {
			return err
		}
		id, err := s.repo.CreateEventType(ctx, tx, et)
		if err != nil {
			return err
		}
		out, err = s.repo.GetEventType(ctx, tx, id)
		return err
	})
	return out, err
}

func (s *Service) UpdateEventType(ctx context.Context, hostUserID, eventTypeID string, in EventTypeInput) (storage.EventType, error) {
	if err := validID(eventTypeID, msgEventTypeNotFound); err != nil {
		return storage.EventType{}, err
	}
	var out storage.EventType
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		profile, err := s.ensureHost(ctx, tx, hostUserID)
		if err != nil {
			return err
		}
		et, err := in.validate(hostUserID, profile.Timezone)
		if err != nil {
			return err
		}
		et.ID = eventTypeID
		if err := s.repo.UpdateEventType(ctx, tx, et); err != nil {
			if storage.IsNotFound(err) {
				return apperr.NotFound(msgEventTypeNotFound)
			}
			return err
		}
		out, err = s.repo.GetEventType(ctx, tx, eventTypeID)
		return err
	})
	return out, err
}

func (s *Service) EventTypes(ctx context.Context, hostUserID string) ([]storage.EventType, error) {
	if err := validHost(hostUserID); err != nil {
		return nil, err
	}
	return s.repo.ListEventTypes(ctx, s.pool, hostUserID)
}

func (s *Service) today(timezone string) (civil.Date, error) {
	loc, err := policy.LoadLocation(timezone)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(s.now().In(loc)), nil
}
