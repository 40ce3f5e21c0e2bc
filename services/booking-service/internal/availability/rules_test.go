package availability

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]int{"09:00": 540, "17:30:00": 1050, "00:00": 0, "23:59": 1439}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		if err != nil || int(got) != want {
			t.Fatalf("ParseTimeOfDay(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, bad := range []string{"24:00", "9:00", "09:60", "09:00:30", "noon"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if TimeOfDay(545).String() != "09:05" {
		t.Fatalf("unexpected format %s", TimeOfDay(545))
	}
}

func TestNewWeeklyRule(t *testing.T) {
	if _, err := NewWeeklyRule(time.Monday, 540, 550, true); err == nil {
		t.Fatalf("expected minimum span error")
	}
	if _, err := NewWeeklyRule(time.Monday, 600, 540, true); err == nil {
		t.Fatalf("expected ordering error")
	}
	if _, err := NewWeeklyRule(time.Monday, 540, 555, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultWeeklyRules(t *testing.T) {
	rules := DefaultWeeklyRules()
	if len(rules) != 7 {
		t.Fatalf("expected one rule per weekday, got %d", len(rules))
	}
	if err := ValidateWeek(rules); err != nil {
		t.Fatalf("ValidateWeek failed: %v", err)
	}
	for _, r := range rules {
		weekend := r.Weekday == time.Saturday || r.Weekday == time.Sunday
		if r.Enabled == weekend {
			t.Fatalf("unexpected enabled=%v for %s", r.Enabled, r.Weekday)
		}
		if r.Start.String() != "09:00" || r.End.String() != "17:00" {
			t.Fatalf("unexpected default hours %s-%s", r.Start, r.End)
		}
	}
	if err := ValidateWeek(append(rules, rules[1])); err == nil {
		t.Fatalf("expected duplicate weekday error")
	}
}

func TestNewDateOverride(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.March, Day: 3}
	rng := &TimeRange{Start: 720, End: 780}

	o, err := NewDateOverride("o1", today, true, nil, " vacation ", today)
	if err != nil || o.Kind() != FullDayBlock || o.Reason != "vacation" {
		t.Fatalf("unexpected full-day block: %+v, %v", o, err)
	}
	o, err = NewDateOverride("o2", today.AddDays(1), true, rng, "", today)
	if err != nil || o.Kind() != PartialBlock {
		t.Fatalf("unexpected partial block: %+v, %v", o, err)
	}
	o, err = NewDateOverride("o3", today.AddDays(1), false, rng, "", today)
	if err != nil || o.Kind() != ExtraAvailability {
		t.Fatalf("unexpected extra availability: %+v, %v", o, err)
	}

	if _, err := NewDateOverride("p", today.AddDays(-1), true, nil, "", today); err == nil {
		t.Fatalf("expected past date error")
	}
	if _, err := NewDateOverride("e", today, false, nil, "", today); err == nil {
		t.Fatalf("expected extra availability without range error")
	}
	if _, err := NewDateOverride("r", today, true, &TimeRange{Start: 780, End: 720}, "", today); err == nil {
		t.Fatalf("expected range ordering error")
	}
}
