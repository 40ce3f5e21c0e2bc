package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
)

const (
	minutesPerDay = 24 * 60

	// MinRuleMinutes is the shortest weekly window a host may publish.
	MinRuleMinutes = 15
)

// TimeOfDay is a host-local wall-clock time, stored as minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, apperr.Validation("Invalid time %02d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS. Seconds must be zero.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, apperr.Validation("Invalid time %q, expected HH:MM", s)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || len(p) != 2 {
			return 0, apperr.Validation("Invalid time %q, expected HH:MM", s)
		}
		nums[i] = n
	}
	if len(nums) == 3 && nums[2] != 0 {
		return 0, apperr.Validation("Invalid time %q, seconds are not supported", s)
	}
	return NewTimeOfDay(nums[0], nums[1])
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TimeRange is a host-local [Start, End) range within one day.
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

func NewTimeRange(start, end TimeOfDay) (TimeRange, error) {
	if end <= start {
		return TimeRange{}, apperr.Validation("End time must be after start time")
	}
	return TimeRange{Start: start, End: end}, nil
}

func (r TimeRange) Minutes() int { return int(r.End - r.Start) }

// WeeklyRule is a host's recurring availability for one weekday.
type WeeklyRule struct {
	Weekday time.Weekday
	Start   TimeOfDay
	End     TimeOfDay
	Enabled bool
}

func NewWeeklyRule(day time.Weekday, start, end TimeOfDay, enabled bool) (WeeklyRule, error) {
	if day < time.Sunday || day > time.Saturday {
		return WeeklyRule{}, apperr.Validation("Invalid weekday %d", day)
	}
	if end <= start {
		return WeeklyRule{}, apperr.Validation("End time must be after start time")
	}
	if int(end-start) < MinRuleMinutes {
		return WeeklyRule{}, apperr.Validation("Availability window must be at least %d minutes", MinRuleMinutes)
	}
	return WeeklyRule{Weekday: day, Start: start, End: end, Enabled: enabled}, nil
}

// DefaultWeeklyRules is what a host gets on first access: weekdays 09:00-17:00,
// weekends present but disabled.
func DefaultWeeklyRules() []WeeklyRule {
	rules := make([]WeeklyRule, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		rules = append(rules, WeeklyRule{
			Weekday: d,
			Start:   9 * 60,
			End:     17 * 60,
			Enabled: d != time.Saturday && d != time.Sunday,
		})
	}
	return rules
}

// ValidateWeek rejects a rule set with more than one rule for a weekday.
func ValidateWeek(rules []WeeklyRule) error {
	var seen [7]bool
	for _, r := range rules {
		if seen[r.Weekday] {
			return apperr.Validation("Duplicate rule for %s", r.Weekday)
		}
		seen[r.Weekday] = true
	}
	return nil
}

// OverrideKind tells the three override shapes apart.
type OverrideKind int

const (
	FullDayBlock OverrideKind = iota + 1
	PartialBlock
	ExtraAvailability
)

func (k OverrideKind) String() string {
	switch k {
	case FullDayBlock:
		return "full_day_block"
	case PartialBlock:
		return "partial_block"
	case ExtraAvailability:
		return "extra_availability"
	default:
		return "unknown"
	}
}

// DateOverride is a date-specific exception to the weekly rules. Immutable;
// hosts delete and recreate to change one.
type DateOverride struct {
	ID        string
	Date      civil.Date
	IsBlocked bool
	Range     *TimeRange
	Reason    string
}

// NewDateOverride validates an override. today is the current date in the
// host's time zone.
func NewDateOverride(id string, date civil.Date, isBlocked bool, rng *TimeRange, reason string, today civil.Date) (DateOverride, error) {
	if !date.IsValid() {
		return DateOverride{}, apperr.Validation("Invalid date")
	}
	if date.Before(today) {
		return DateOverride{}, apperr.Validation("Cannot create an override for a past date")
	}
	if rng != nil && rng.End <= rng.Start {
		return DateOverride{}, apperr.Validation("End time must be after start time")
	}
	if !isBlocked && rng == nil {
		return DateOverride{}, apperr.Validation("Extra availability requires a start and end time")
	}
	o := DateOverride{ID: id, Date: date, IsBlocked: isBlocked, Reason: strings.TrimSpace(reason)}
	if rng != nil {
		r := *rng
		o.Range = &r
	}
	return o, nil
}

func (o DateOverride) Kind() OverrideKind {
	switch {
	case o.IsBlocked && o.Range == nil:
		return FullDayBlock
	case o.IsBlocked:
		return PartialBlock
	default:
		return ExtraAvailability
	}
}
