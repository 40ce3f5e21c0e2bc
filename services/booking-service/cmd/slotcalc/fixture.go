package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
)

// fixture is the on-disk description of one host and event type. Omitted
// policy fields take the event type defaults; omitted rules take the default
// week.
type fixture struct {
	Timezone             string         `json:"timezone"`
	DurationMinutes      int            `json:"duration_minutes"`
	BufferBeforeMinutes  int            `json:"buffer_before_minutes"`
	BufferAfterMinutes   int            `json:"buffer_after_minutes"`
	MinimumNoticeMinutes *int           `json:"minimum_notice_minutes"`
	BookingWindowDays    int            `json:"booking_window_days"`
	MaxBookingsPerDay    *int           `json:"max_bookings_per_day"`
	Inactive             bool           `json:"inactive"`
	Rules                []fixtureRule  `json:"rules"`
	Overrides            []fixtureBlock `json:"overrides"`
	Bookings             []fixtureBusy  `json:"bookings"`
}

type fixtureRule struct {
	Weekday string                 `json:"weekday"`
	Start   availability.TimeOfDay `json:"start"`
	End     availability.TimeOfDay `json:"end"`
	Enabled bool                   `json:"enabled"`
}

type fixtureBlock struct {
	Date      civil.Date              `json:"date"`
	IsBlocked bool                    `json:"is_blocked"`
	Start     *availability.TimeOfDay `json:"start"`
	End       *availability.TimeOfDay `json:"end"`
}

type fixtureBusy struct {
	ID        string    `json:"id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Cancelled bool      `json:"cancelled"`
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

func readFixture(r io.Reader) (fixture, error) {
	var f fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// input builds the calculator input. Overrides are not checked against
// today so fixtures can describe past dates.
func (f fixture) input(now time.Time) (availability.DayInput, error) {
	s := policy.DefaultSettings()
	s.HostTimezone = f.Timezone
	if f.DurationMinutes != 0 {
		s.DurationMinutes = f.DurationMinutes
	}
	s.BufferBeforeMinutes = f.BufferBeforeMinutes
	s.BufferAfterMinutes = f.BufferAfterMinutes
	if f.MinimumNoticeMinutes != nil {
		s.MinimumNoticeMinutes = *f.MinimumNoticeMinutes
	}
	if f.BookingWindowDays != 0 {
		s.BookingWindowDays = f.BookingWindowDays
	}
	s.MaxBookingsPerDay = f.MaxBookingsPerDay
	s.IsActive = !f.Inactive

	p, err := policy.New("fixture", "fixture", s)
	if err != nil {
		return availability.DayInput{}, err
	}
	in := availability.DayInput{Policy: p, Now: now, Rules: availability.DefaultWeeklyRules()}

	for _, fr := range f.Rules {
		wd, ok := weekdays[strings.ToLower(fr.Weekday)]
		if !ok {
			return availability.DayInput{}, fmt.Errorf("unknown weekday %q", fr.Weekday)
		}
		rule, err := availability.NewWeeklyRule(wd, fr.Start, fr.End, fr.Enabled)
		if err != nil {
			return availability.DayInput{}, err
		}
		in.Rules[wd] = rule
	}

	for i, fo := range f.Overrides {
		var rng *availability.TimeRange
		if fo.Start != nil && fo.End != nil {
			r, err := availability.NewTimeRange(*fo.Start, *fo.End)
			if err != nil {
				return availability.DayInput{}, err
			}
			rng = &r
		}
		o, err := availability.NewDateOverride(fmt.Sprintf("o%d", i+1), fo.Date, fo.IsBlocked, rng, "", fo.Date)
		if err != nil {
			return availability.DayInput{}, err
		}
		in.Overrides = append(in.Overrides, o)
	}

	for i, fb := range f.Bookings {
		slot, err := policy.NewTimeSlot(fb.Start, fb.End)
		if err != nil {
			return availability.DayInput{}, err
		}
		id := fb.ID
		if id == "" {
			id = fmt.Sprintf("b%d", i+1)
		}
		in.Bookings = append(in.Bookings, availability.Busy{ID: id, Slot: slot, Cancelled: fb.Cancelled})
	}
	return in, nil
}
