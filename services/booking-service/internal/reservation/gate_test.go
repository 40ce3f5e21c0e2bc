package reservation

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
)

var (
	now       = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tenAM     = time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC) // Monday 10:00 New York
	guest     = model.Guest{Name: "Grace", Email: "grace@example.com", Timezone: "Europe/London"}
	hostActor = Actor{HostUserID: "host-1"}
)

func snapshot(t *testing.T, mutate func(*policy.Settings)) Snapshot {
	t.Helper()
	s := policy.DefaultSettings()
	s.HostTimezone = "America/New_York"
	s.MinimumNoticeMinutes = 0
	if mutate != nil {
		mutate(&s)
	}
	p, err := policy.New("evt-1", "host-1", s)
	if err != nil {
		t.Fatalf("policy.New failed: %v", err)
	}
	return Snapshot{Policy: p, Rules: availability.DefaultWeeklyRules()}
}

func book(t *testing.T, s Snapshot, start time.Time) Result {
	t.Helper()
	res, err := Create(s, CreateRequest{Start: start, Guest: guest}, now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return res
}

func TestCreate(t *testing.T) {
	s := snapshot(t, nil)
	res := book(t, s, tenAM)
	if res.Booking.Status != model.StatusConfirmed || res.Token == "" || res.Booking.RescheduleTokenHash == "" {
		t.Fatalf("unexpected result %+v", res.Booking)
	}
	if !res.Booking.Slot.End().Equal(tenAM.Add(30 * time.Minute)) {
		t.Fatalf("expected policy duration, got %s", res.Booking.Slot.End())
	}
	if len(res.Events) != 1 || res.Events[0].Type != model.EventBookingCreated {
		t.Fatalf("unexpected events %+v", res.Events)
	}

	// The committed booking makes the instant unavailable to the next guest.
	s.Bookings = append(s.Bookings, res.Booking)
	_, err := Create(s, CreateRequest{Start: tenAM, Guest: guest}, now)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for double booking, got %v", err)
	}
	_, err = Create(s, CreateRequest{Start: tenAM.Add(15 * time.Minute), Guest: guest}, now)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for overlapping booking, got %v", err)
	}
}

func TestCreateRejections(t *testing.T) {
	s := snapshot(t, nil)
	if _, err := Create(s, CreateRequest{Start: now.Add(-time.Hour), Guest: guest}, now); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected past start validation error, got %v", err)
	}
	if _, err := Create(s, CreateRequest{Start: tenAM.Add(7 * time.Minute), Guest: guest}, now); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected off-grid start conflict, got %v", err)
	}

	end := tenAM.Add(45 * time.Minute)
	if _, err := Create(s, CreateRequest{Start: tenAM, End: &end, Guest: guest}, now); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected duration mismatch error, got %v", err)
	}
	nearly := tenAM.Add(30*time.Minute + 40*time.Second)
	if _, err := Create(s, CreateRequest{Start: tenAM, End: &nearly, Guest: guest}, now); err != nil {
		t.Fatalf("expected end within tolerance to pass, got %v", err)
	}

	inactive := snapshot(t, func(p *policy.Settings) { p.IsActive = false })
	if _, err := Create(inactive, CreateRequest{Start: tenAM, Guest: guest}, now); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected inactive policy error, got %v", err)
	}
}

func TestRescheduleExcludesOwnSlot(t *testing.T) {
	s := snapshot(t, nil)
	created := book(t, s, tenAM)
	s.Bookings = []model.Booking{created.Booking}

	// Moving 15 minutes later overlaps only the booking's own current slot.
	res, err := Reschedule(s, created.Booking, Actor{Token: created.Token}, tenAM.Add(15*time.Minute), now)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if res.Token == "" || res.Token == created.Token {
		t.Fatalf("expected a rotated token")
	}
	if Authorize(res.Booking, Actor{Token: created.Token}) == nil {
		t.Fatalf("expected old token to stop working")
	}
	if err := Authorize(res.Booking, Actor{Token: res.Token}); err != nil {
		t.Fatalf("expected new token to work: %v", err)
	}
	if len(res.Events) != 2 || res.Events[1].Type != model.EventSlotReleased {
		t.Fatalf("unexpected events %+v", res.Events)
	}
}

func TestRescheduleAuthorizationAndConflict(t *testing.T) {
	s := snapshot(t, nil)
	first := book(t, s, tenAM)
	second := book(t, s, tenAM.Add(2*time.Hour))
	s.Bookings = []model.Booking{first.Booking, second.Booking}

	_, err := Reschedule(s, first.Booking, Actor{Token: "wrong"}, tenAM.Add(time.Hour), now)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for bad token, got %v", err)
	}
	_, err = Reschedule(s, first.Booking, Actor{HostUserID: "someone-else"}, tenAM.Add(time.Hour), now)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for other host, got %v", err)
	}
	_, err = Reschedule(s, first.Booking, hostActor, tenAM.Add(2*time.Hour), now)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict with the other booking, got %v", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	s := snapshot(t, nil)
	created := book(t, s, tenAM)

	res, err := Cancel(created.Booking, Actor{Token: created.Token}, "conflict", now)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if len(res.Events) != 2 || res.Events[0].Type != model.EventBookingCancelled {
		t.Fatalf("unexpected events %+v", res.Events)
	}

	s.Bookings = []model.Booking{res.Booking}
	if _, err := Create(s, CreateRequest{Start: tenAM, Guest: guest}, now); err != nil {
		t.Fatalf("expected cancelled slot to be bookable again: %v", err)
	}

	if _, err := Cancel(res.Booking, hostActor, "", now); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected second cancel to conflict, got %v", err)
	}
	if _, err := Cancel(created.Booking, Actor{}, "", now); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected anonymous cancel to be rejected, got %v", err)
	}
}

func TestMarkNoShow(t *testing.T) {
	created := book(t, snapshot(t, nil), tenAM)
	if _, err := MarkNoShow(created.Booking, "other", tenAM.Add(time.Hour)); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for other host, got %v", err)
	}
	res, err := MarkNoShow(created.Booking, "host-1", tenAM.Add(time.Hour))
	if err != nil || res.Booking.Status != model.StatusNoShow {
		t.Fatalf("MarkNoShow: %+v, %v", res.Booking, err)
	}
}
