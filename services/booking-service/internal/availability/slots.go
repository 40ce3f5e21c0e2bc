package availability

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
)

// SlotStep is the fixed spacing between candidate starts, independent of
// the event duration. Two event types with different durations can
// therefore yield non-aligned starts on the same calendar.
const SlotStep = 15

// Busy is an existing booking as seen by the calculator.
type Busy struct {
	ID        string
	Slot      policy.TimeSlot
	Cancelled bool
}

// DayInput is everything CalculateSlotsForDate needs. Now is the evaluation
// instant; callers pass time.Now() in production.
type DayInput struct {
	Policy    policy.EventPolicy
	Rules     []WeeklyRule
	Overrides []DateOverride
	Bookings  []Busy
	Date      civil.Date
	Now       time.Time

	// ExcludeBookingID drops one booking from the conflict set. Reschedules
	// use it so a booking does not collide with itself.
	ExcludeBookingID string
}

// CalculatedSlot is one candidate. Never persisted.
type CalculatedSlot struct {
	Start     civil.DateTime
	End       civil.DateTime
	StartUTC  time.Time
	EndUTC    time.Time
	Available bool
}

// interval is a half-open range of wall-clock minutes relative to the
// target date's local midnight. Only partial blocks are compared this way;
// bookings are compared as instants.
type interval struct {
	start int
	end   int
}

func (a interval) overlaps(b interval) bool {
	return a.start < b.end && a.end > b.start
}

func overlapsAny(c interval, blocks []interval) bool {
	for _, b := range blocks {
		if c.overlaps(b) {
			return true
		}
	}
	return false
}

func overlapsBooked(padded policy.TimeSlot, booked []policy.TimeSlot) bool {
	for _, b := range booked {
		if padded.Overlaps(b) {
			return true
		}
	}
	return false
}

// CalculateSlotsForDate returns every candidate slot for in.Date in order,
// each flagged available or not. Policy violations (inactive event type,
// date beyond the booking window, full-day block, daily cap reached, no
// window that day) yield an empty result rather than an error.
//
// Local starts that do not exist on in.Date (a spring-forward gap) produce
// no candidate. Each candidate's end is its start plus the duration in real
// time, so starts are strictly increasing and no slot is inverted.
func CalculateSlotsForDate(in DayInput) []CalculatedSlot {
	p := in.Policy
	if !p.IsActive || p.Duration.Minutes() <= 0 || !in.Date.IsValid() {
		return []CalculatedSlot{}
	}
	loc := p.Location()
	if in.Date.After(LastBookableDate(p, in.Now)) {
		return []CalculatedSlot{}
	}

	var extra *TimeRange
	var blocked []interval
	for _, o := range in.Overrides {
		if o.Date != in.Date {
			continue
		}
		switch o.Kind() {
		case FullDayBlock:
			return []CalculatedSlot{}
		case PartialBlock:
			blocked = append(blocked, interval{start: int(o.Range.Start), end: int(o.Range.End)})
		case ExtraAvailability:
			if o.Range != nil && (extra == nil || o.Range.Start < extra.Start) {
				extra = o.Range
			}
		}
	}

	if p.MaxBookingsPerDay != nil && countOnDate(in.Bookings, in.Date, loc, in.ExcludeBookingID) >= *p.MaxBookingsPerDay {
		return []CalculatedSlot{}
	}

	window, ok := baseWindow(in.Rules, extra, in.Date)
	if !ok {
		return []CalculatedSlot{}
	}

	booked := bookedSlots(in.Bookings, in.ExcludeBookingID)
	duration := p.Duration.Minutes()
	before, after := p.Buffer.BeforeMinutes(), p.Buffer.AfterMinutes()
	earliest := in.Now.Add(p.Notice.Std())

	slots := make([]CalculatedSlot, 0, window.Minutes()/SlotStep)
	var prev time.Time
	for step := int(window.Start); step+duration <= int(window.End); step += SlotStep {
		startUTC, ok := wallClock(in.Date, step, loc)
		if !ok || (!prev.IsZero() && !startUTC.After(prev)) {
			continue
		}
		slot, err := policy.SlotOf(startUTC, p.Duration)
		if err != nil {
			continue
		}
		endLocal := minutesFrom(in.Date, slot.End().In(loc))
		if endLocal > int(window.End) {
			continue
		}
		prev = startUTC

		// On a fall-back day the wall-clock end can land before step+duration.
		local := interval{start: step - before, end: max(endLocal, step+duration) + after}
		available := !overlapsAny(local, blocked) &&
			!overlapsBooked(slot.Padded(p.Buffer), booked) &&
			startUTC.After(earliest) &&
			startUTC.After(in.Now)

		slots = append(slots, CalculatedSlot{
			Start:     civil.DateTimeOf(startUTC.In(loc)),
			End:       civil.DateTimeOf(slot.End().In(loc)),
			StartUTC:  startUTC,
			EndUTC:    slot.End(),
			Available: available,
		})
	}
	return slots
}

// LastBookableDate is the last host-local date inside p's booking window
// when evaluated at now: today plus the window's days.
func LastBookableDate(p policy.EventPolicy, now time.Time) civil.Date {
	return civil.DateOf(now.In(p.Location())).AddDays(p.Window.Days())
}

// IsSlotAvailable reports whether proposedStart (any zone) matches an
// available slot for its host-local date. in.Date is ignored.
func IsSlotAvailable(in DayInput, proposedStart time.Time) bool {
	in.Date = civil.DateOf(proposedStart.In(in.Policy.Location()))
	for _, s := range CalculateSlotsForDate(in) {
		if s.StartUTC.Equal(proposedStart) {
			return s.Available
		}
	}
	return false
}

// AvailableOnly filters slots down to the bookable ones.
func AvailableOnly(slots []CalculatedSlot) []CalculatedSlot {
	out := make([]CalculatedSlot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

func baseWindow(rules []WeeklyRule, extra *TimeRange, date civil.Date) (TimeRange, bool) {
	if extra != nil {
		return *extra, true
	}
	wd := date.In(time.UTC).Weekday()
	for _, r := range rules {
		if r.Weekday == wd {
			if !r.Enabled || r.End <= r.Start {
				return TimeRange{}, false
			}
			return TimeRange{Start: r.Start, End: r.End}, true
		}
	}
	return TimeRange{}, false
}

func countOnDate(bookings []Busy, date civil.Date, loc *time.Location, exclude string) int {
	n := 0
	for _, b := range bookings {
		if b.Cancelled || (exclude != "" && b.ID == exclude) {
			continue
		}
		if civil.DateOf(b.Slot.Start().In(loc)) == date {
			n++
		}
	}
	return n
}

func bookedSlots(bookings []Busy, exclude string) []policy.TimeSlot {
	var out []policy.TimeSlot
	for _, b := range bookings {
		if b.Cancelled || (exclude != "" && b.ID == exclude) {
			continue
		}
		out = append(out, b.Slot)
	}
	return out
}

// minutesFrom is the wall-clock distance from date's midnight to t, which
// must already be in the host location.
func minutesFrom(date civil.Date, t time.Time) int {
	d := civil.DateOf(t)
	return d.DaysSince(date)*minutesPerDay + t.Hour()*60 + t.Minute()
}

// wallClock converts a host-local minute of date to an instant. It reports
// false when that wall time does not exist on date in loc.
func wallClock(date civil.Date, minute int, loc *time.Location) (time.Time, bool) {
	t := time.Date(date.Year, date.Month, date.Day, 0, minute, 0, 0, loc)
	if minutesFrom(date, t) != minute {
		return time.Time{}, false
	}
	return t.UTC(), true
}
