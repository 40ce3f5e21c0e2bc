package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
)

func testBooking(t *testing.T) model.Booking {
	t.Helper()
	start := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	slot, err := policy.NewTimeSlot(start, start.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("NewTimeSlot failed: %v", err)
	}
	return model.Booking{
		ID:        "b-1",
		Guest:     model.Guest{Name: "Grace Hopper", Email: "grace@example.com"},
		Slot:      slot,
		Status:    model.StatusConfirmed,
		Responses: []model.Response{{Question: "Topic", Answer: "Compilers"}},
		CreatedAt: start.Add(-48 * time.Hour),
		UpdatedAt: start.Add(-48 * time.Hour),
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := Encode(Invite{Booking: testBooking(t), Title: "Intro call", Domain: "example.com"}, now)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	cal, err := ical.NewDecoder(bytes.NewReader(raw)).Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	ev := events[0]
	if uid, _ := ev.Props.Text(ical.PropUID); uid != "b-1@example.com" {
		t.Fatalf("unexpected uid %q", uid)
	}
	if sum, _ := ev.Props.Text(ical.PropSummary); sum != "Intro call with Grace Hopper" {
		t.Fatalf("unexpected summary %q", sum)
	}
	start, err := ev.DateTimeStart(time.UTC)
	if err != nil || !start.Equal(time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s, %v", start, err)
	}
	if desc, _ := ev.Props.Text(ical.PropDescription); !strings.Contains(desc, "Topic: Compilers") {
		t.Fatalf("expected responses in description, got %q", desc)
	}
}

func TestEncodeCancelled(t *testing.T) {
	b := testBooking(t)
	b.Status = model.StatusCancelled
	b.CancelReason = "sick"
	raw, err := Encode(Invite{Booking: b}, time.Now())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	s := string(raw)
	if !strings.Contains(s, "METHOD:CANCEL") || !strings.Contains(s, "STATUS:CANCELLED") {
		t.Fatalf("expected cancellation markers, got:\n%s", s)
	}
}
