package policy

import (
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
)

// EventPolicy is the part of an event type the slot calculator needs.
type EventPolicy struct {
	EventTypeID       string
	HostUserID        string
	Duration          Duration
	Buffer            BufferTime
	Notice            MinimumNotice
	Window            BookingWindow
	MaxBookingsPerDay *int
	IsActive          bool
	HostTimezone      string

	loc *time.Location
}

// Settings is the raw, unvalidated form of an EventPolicy as stored or
// submitted by a host.
type Settings struct {
	DurationMinutes      int
	BufferBeforeMinutes  int
	BufferAfterMinutes   int
	MinimumNoticeMinutes int
	BookingWindowDays    int
	MaxBookingsPerDay    *int
	IsActive             bool
	HostTimezone         string
}

func DefaultSettings() Settings {
	return Settings{
		DurationMinutes:      30,
		MinimumNoticeMinutes: 240,
		BookingWindowDays:    60,
		IsActive:             true,
		HostTimezone:         "UTC",
	}
}

// New validates s and returns the policy for the given event type and host.
func New(eventTypeID, hostUserID string, s Settings) (EventPolicy, error) {
	d, err := NewDuration(s.DurationMinutes)
	if err != nil {
		return EventPolicy{}, err
	}
	b, err := NewBufferTime(s.BufferBeforeMinutes, s.BufferAfterMinutes)
	if err != nil {
		return EventPolicy{}, err
	}
	n, err := NewMinimumNotice(s.MinimumNoticeMinutes)
	if err != nil {
		return EventPolicy{}, err
	}
	w, err := NewBookingWindow(s.BookingWindowDays)
	if err != nil {
		return EventPolicy{}, err
	}
	if s.MaxBookingsPerDay != nil && *s.MaxBookingsPerDay < 1 {
		return EventPolicy{}, apperr.Validation("Max bookings per day must be at least 1")
	}
	loc, err := LoadLocation(s.HostTimezone)
	if err != nil {
		return EventPolicy{}, err
	}
	return EventPolicy{
		EventTypeID:       eventTypeID,
		HostUserID:        hostUserID,
		Duration:          d,
		Buffer:            b,
		Notice:            n,
		Window:            w,
		MaxBookingsPerDay: s.MaxBookingsPerDay,
		IsActive:          s.IsActive,
		HostTimezone:      loc.String(),
		loc:               loc,
	}, nil
}

// Settings returns the raw form of p.
func (p EventPolicy) Settings() Settings {
	return Settings{
		DurationMinutes:      p.Duration.Minutes(),
		BufferBeforeMinutes:  p.Buffer.BeforeMinutes(),
		BufferAfterMinutes:   p.Buffer.AfterMinutes(),
		MinimumNoticeMinutes: p.Notice.Minutes(),
		BookingWindowDays:    p.Window.Days(),
		MaxBookingsPerDay:    p.MaxBookingsPerDay,
		IsActive:             p.IsActive,
		HostTimezone:         p.HostTimezone,
	}
}

// Location returns the host time zone. A policy built without New falls
// back to UTC.
func (p EventPolicy) Location() *time.Location {
	if p.loc != nil {
		return p.loc
	}
	if loc, err := LoadLocation(p.HostTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// LoadLocation resolves an IANA zone name. Empty means UTC; "Local" is
// rejected since it depends on the server.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	if name == "Local" {
		return nil, apperr.Validation("Invalid time zone %q", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperr.Validation("Invalid time zone %q", name)
	}
	return loc, nil
}
