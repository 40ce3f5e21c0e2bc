package policy

import (
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
)

const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 480
	MaxBufferMinutes   = 120
	MaxNoticeMinutes   = 10080
	MaxWindowDays      = 365
)

// Duration is the length of a meeting.
type Duration struct {
	minutes int
}

func NewDuration(minutes int) (Duration, error) {
	if minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		return Duration{}, apperr.Validation("Duration must be between %d and %d minutes", MinDurationMinutes, MaxDurationMinutes)
	}
	if minutes%5 != 0 {
		return Duration{}, apperr.Validation("Duration must be in 5-minute increments")
	}
	return Duration{minutes: minutes}, nil
}

func (d Duration) Minutes() int       { return d.minutes }
func (d Duration) Std() time.Duration { return time.Duration(d.minutes) * time.Minute }

// BufferTime is idle time required before and after a meeting.
type BufferTime struct {
	before int
	after  int
}

func NewBufferTime(beforeMinutes, afterMinutes int) (BufferTime, error) {
	if err := checkBuffer("Buffer before", beforeMinutes); err != nil {
		return BufferTime{}, err
	}
	if err := checkBuffer("Buffer after", afterMinutes); err != nil {
		return BufferTime{}, err
	}
	return BufferTime{before: beforeMinutes, after: afterMinutes}, nil
}

func checkBuffer(label string, minutes int) error {
	if minutes < 0 || minutes > MaxBufferMinutes {
		return apperr.Validation("%s must be between 0 and %d minutes", label, MaxBufferMinutes)
	}
	if minutes%5 != 0 {
		return apperr.Validation("%s must be in 5-minute increments", label)
	}
	return nil
}

func (b BufferTime) BeforeMinutes() int { return b.before }
func (b BufferTime) AfterMinutes() int  { return b.after }
func (b BufferTime) Before() time.Duration {
	return time.Duration(b.before) * time.Minute
}
func (b BufferTime) After() time.Duration {
	return time.Duration(b.after) * time.Minute
}

// MinimumNotice is the shortest gap allowed between now and a bookable start.
type MinimumNotice struct {
	minutes int
}

func NewMinimumNotice(minutes int) (MinimumNotice, error) {
	if minutes < 0 || minutes > MaxNoticeMinutes {
		return MinimumNotice{}, apperr.Validation("Minimum notice must be between 0 and %d minutes", MaxNoticeMinutes)
	}
	return MinimumNotice{minutes: minutes}, nil
}

func (n MinimumNotice) Minutes() int       { return n.minutes }
func (n MinimumNotice) Std() time.Duration { return time.Duration(n.minutes) * time.Minute }

// BookingWindow is how many days ahead guests may book.
type BookingWindow struct {
	days int
}

func NewBookingWindow(days int) (BookingWindow, error) {
	if days < 1 || days > MaxWindowDays {
		return BookingWindow{}, apperr.Validation("Booking window must be between 1 and %d days", MaxWindowDays)
	}
	return BookingWindow{days: days}, nil
}

func (w BookingWindow) Days() int { return w.days }

// TimeSlot is a UTC interval, half-open.
type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if start.IsZero() || end.IsZero() {
		return TimeSlot{}, apperr.Validation("Start and end time are required")
	}
	if !end.After(start) {
		return TimeSlot{}, apperr.Validation("End time must be after start time")
	}
	return TimeSlot{start: start.UTC(), end: end.UTC()}, nil
}

// SlotOf builds a slot of length d starting at start.
func SlotOf(start time.Time, d Duration) (TimeSlot, error) {
	return NewTimeSlot(start, start.Add(d.Std()))
}

func (s TimeSlot) Start() time.Time { return s.start }
func (s TimeSlot) End() time.Time   { return s.end }
func (s TimeSlot) IsZero() bool     { return s.start.IsZero() }

func (s TimeSlot) Length() time.Duration {
	return s.end.Sub(s.start)
}

// Overlaps: [a.start,a.end) overlaps [b.start,b.end) iff a.start < b.end && a.end > b.start.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.start.Before(o.end) && s.end.After(o.start)
}

// Contains reports whether t lies in [start,end).
func (s TimeSlot) Contains(t time.Time) bool {
	return !t.Before(s.start) && t.Before(s.end)
}

// Padded widens the slot by the buffer on each side.
func (s TimeSlot) Padded(b BufferTime) TimeSlot {
	return TimeSlot{start: s.start.Add(-b.Before()), end: s.end.Add(b.After())}
}

func (s TimeSlot) Equal(o TimeSlot) bool {
	return s.start.Equal(o.start) && s.end.Equal(o.end)
}
