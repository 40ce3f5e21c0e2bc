package model

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func slotAt(t *testing.T, start time.Time) policy.TimeSlot {
	t.Helper()
	s, err := policy.NewTimeSlot(start, start.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("NewTimeSlot failed: %v", err)
	}
	return s
}

func newConfirmed(t *testing.T) Booking {
	t.Helper()
	b, events, err := NewBooking("b1", "evt", "host", Guest{Name: " Ada ", Email: "ada@example.com"}, slotAt(t, now.Add(48*time.Hour)), "hash", now)
	if err != nil {
		t.Fatalf("NewBooking failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventBookingCreated || events[0].BookingID != "b1" {
		t.Fatalf("unexpected events: %+v", events)
	}
	return b
}

func TestNewBooking(t *testing.T) {
	b := newConfirmed(t)
	if b.Status != StatusConfirmed || b.Guest.Name != "Ada" {
		t.Fatalf("unexpected booking %+v", b)
	}

	_, _, err := NewBooking("b2", "evt", "host", Guest{Name: "Ada", Email: "not-an-email"}, slotAt(t, now.Add(time.Hour)), "", now)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected email validation error, got %v", err)
	}
	_, _, err = NewBooking("b3", "evt", "host", Guest{Name: "Ada", Email: "ada@example.com"}, slotAt(t, now.Add(-time.Hour)), "", now)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected past booking error, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	b := newConfirmed(t)
	cancelled, events, err := b.Cancel(" changed plans ", now)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if b.Status != StatusConfirmed {
		t.Fatalf("original value must not change")
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelledAt == nil || cancelled.CancelReason != "changed plans" {
		t.Fatalf("unexpected cancelled booking %+v", cancelled)
	}
	if len(events) != 2 || events[0].Type != EventBookingCancelled || events[1].Type != EventSlotReleased {
		t.Fatalf("unexpected events %+v", events)
	}

	if _, _, err := cancelled.Cancel("", now); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected terminal state conflict, got %v", err)
	}
	if _, _, err := b.Cancel("", b.Slot.Start()); err == nil {
		t.Fatalf("expected started booking cancel to fail")
	}
}

func TestReschedule(t *testing.T) {
	b := newConfirmed(t)
	target := slotAt(t, now.Add(72*time.Hour))
	moved, events, err := b.Reschedule(target, "hash-2", now)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if !moved.Slot.Equal(target) || moved.RescheduleTokenHash != "hash-2" {
		t.Fatalf("unexpected rescheduled booking %+v", moved)
	}
	if len(events) != 2 || events[0].Type != EventBookingRescheduled || events[1].Type != EventSlotReleased {
		t.Fatalf("unexpected events %+v", events)
	}
	if events[0].PreviousStart == nil || !events[0].PreviousStart.Equal(b.Slot.Start()) {
		t.Fatalf("expected previous start on rescheduled event")
	}
	if !events[1].StartTime.Equal(b.Slot.Start()) {
		t.Fatalf("expected released slot to be the old one")
	}
}

func TestCompletionAndNoShow(t *testing.T) {
	b := newConfirmed(t)
	if _, _, err := b.MarkCompleted(now); err == nil {
		t.Fatalf("expected completion before end to fail")
	}
	done, _, err := b.MarkCompleted(b.Slot.End())
	if err != nil || done.Status != StatusCompleted {
		t.Fatalf("MarkCompleted: %+v, %v", done, err)
	}
	if _, _, err := done.MarkNoShow(b.Slot.End()); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected completed booking to be terminal, got %v", err)
	}

	if _, _, err := b.MarkNoShow(now); err == nil {
		t.Fatalf("expected future no-show to fail")
	}
	ns, events, err := b.MarkNoShow(b.Slot.Start().Add(10 * time.Minute))
	if err != nil || ns.Status != StatusNoShow || len(events) != 1 {
		t.Fatalf("MarkNoShow: %+v, %+v, %v", ns, events, err)
	}
}

func TestAttachResponses(t *testing.T) {
	b := newConfirmed(t)
	withAnswers, err := b.AttachResponses([]Response{{Question: "Topic?", Answer: " Roadmap "}, {Question: "Notes", Answer: ""}})
	if err != nil {
		t.Fatalf("AttachResponses failed: %v", err)
	}
	if len(withAnswers.Responses) != 1 || withAnswers.Responses[0].Answer != "Roadmap" {
		t.Fatalf("unexpected responses %+v", withAnswers.Responses)
	}
	if _, err := b.AttachResponses([]Response{{Question: " ", Answer: "x"}}); err == nil {
		t.Fatalf("expected blank question error")
	}
}
