package policy

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
)

func TestDurationBounds(t *testing.T) {
	cases := []struct {
		minutes int
		ok      bool
	}{
		{10, false},
		{15, true},
		{17, false},
		{30, true},
		{480, true},
		{485, false},
	}
	for _, tc := range cases {
		_, err := NewDuration(tc.minutes)
		if (err == nil) != tc.ok {
			t.Fatalf("NewDuration(%d): ok=%v err=%v", tc.minutes, tc.ok, err)
		}
		if err != nil && !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
}

func TestBufferNoticeWindowBounds(t *testing.T) {
	if _, err := NewBufferTime(0, 120); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewBufferTime(7, 0); err == nil {
		t.Fatalf("expected 5-minute increment error")
	}
	if _, err := NewBufferTime(0, 125); err == nil {
		t.Fatalf("expected upper bound error")
	}
	if _, err := NewMinimumNotice(10080); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewMinimumNotice(-1); err == nil {
		t.Fatalf("expected negative notice error")
	}
	if _, err := NewBookingWindow(0); err == nil {
		t.Fatalf("expected zero window error")
	}
	if _, err := NewBookingWindow(366); err == nil {
		t.Fatalf("expected window upper bound error")
	}
}

func TestTimeSlotOverlap(t *testing.T) {
	base := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	a, _ := NewTimeSlot(base, base.Add(30*time.Minute))
	b, _ := NewTimeSlot(base.Add(30*time.Minute), base.Add(60*time.Minute))
	c, _ := NewTimeSlot(base.Add(15*time.Minute), base.Add(45*time.Minute))

	if a.Overlaps(b) || b.Overlaps(a) {
		t.Fatalf("adjacent slots must not overlap")
	}
	if !a.Overlaps(c) || !c.Overlaps(b) {
		t.Fatalf("expected overlap")
	}
	buf, _ := NewBufferTime(0, 5)
	if !a.Padded(buf).Overlaps(b) {
		t.Fatalf("padded slot should reach into the next one")
	}
	if !a.Contains(base) || a.Contains(base.Add(30*time.Minute)) {
		t.Fatalf("contains must be half-open")
	}
	if _, err := NewTimeSlot(base, base); err == nil {
		t.Fatalf("expected end after start error")
	}
}

func TestNewEventPolicy(t *testing.T) {
	s := DefaultSettings()
	s.HostTimezone = "America/New_York"
	p, err := New("evt", "host", s)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Location().String() != "America/New_York" {
		t.Fatalf("unexpected location %s", p.Location())
	}
	if got := p.Settings(); got != s {
		t.Fatalf("settings round trip mismatch: %+v vs %+v", got, s)
	}

	s.HostTimezone = "Mars/Olympus"
	if _, err := New("evt", "host", s); err == nil {
		t.Fatalf("expected invalid time zone error")
	}

	zero := 0
	s = DefaultSettings()
	s.MaxBookingsPerDay = &zero
	if _, err := New("evt", "host", s); err == nil {
		t.Fatalf("expected cap error")
	}
}
