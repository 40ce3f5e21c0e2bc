package service

import (
	"testing"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
)

const hostID = "6f1c1c1e-3c43-4c77-9a51-2b8d4a9f1e10"

func TestEventTypeInputValidate(t *testing.T) {
	in := EventTypeInput{
		Title:     "  Intro call ",
		Settings:  policy.DefaultSettings(),
		Questions: []string{"What should we cover?", "  "},
	}
	et, err := in.validate(hostID, "Europe/Berlin")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if et.Title != "Intro call" || et.Settings.HostTimezone != "Europe/Berlin" || len(et.Questions) != 1 {
		t.Fatalf("unexpected event type %+v", et)
	}

	in.Title = ""
	if _, err := in.validate(hostID, "UTC"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected title validation error, got %v", err)
	}

	in.Title = "Call"
	in.Settings.DurationMinutes = 7
	if _, err := in.validate(hostID, "UTC"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected duration validation error, got %v", err)
	}
}

func TestIDValidation(t *testing.T) {
	if err := validID("nope", "Booking not found"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected malformed id to read as not found, got %v", err)
	}
	if err := validID(hostID, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validHost("admin"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for non-uuid host, got %v", err)
	}
}
