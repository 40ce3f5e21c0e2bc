package service

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

// DaySlots is the result of a slot query for one date.
type DaySlots struct {
	EventType storage.EventType
	Slots     []availability.CalculatedSlot
}

// Slots returns every available slot on date for the event type.
func (s *Service) Slots(ctx context.Context, eventTypeID string, date civil.Date) (DaySlots, error) {
	ctx, span := s.startSpan(ctx, "slots", attribute.String("event_type_id", eventTypeID), attribute.String("date", date.String()))
	defer span.End()

	et, p, err := s.loadEventType(ctx, s.pool, eventTypeID)
	if err != nil {
		return DaySlots{}, err
	}
	snap, err := s.loadSnapshot(ctx, s.pool, p, date, date)
	if err != nil {
		return DaySlots{}, err
	}
	in := snap.DayInput(s.now(), "")
	in.Date = date
	slots := availability.AvailableOnly(availability.CalculateSlotsForDate(in))
	span.SetAttributes(attribute.Int("slots.available", len(slots)))
	return DaySlots{EventType: et, Slots: slots}, nil
}

// DateRange is the date-picker view of an event type's booking window.
type DateRange struct {
	EventType storage.EventType
	Days      []availability.DaySummary
}

func (s *Service) Dates(ctx context.Context, eventTypeID string) (DateRange, error) {
	ctx, span := s.startSpan(ctx, "dates", attribute.String("event_type_id", eventTypeID))
	defer span.End()

	et, p, err := s.loadEventType(ctx, s.pool, eventTypeID)
	if err != nil {
		return DateRange{}, err
	}
	now := s.now()
	today := civil.DateOf(now.In(p.Location()))
	snap, err := s.loadSnapshot(ctx, s.pool, p, today, availability.LastBookableDate(p, now))
	if err != nil {
		return DateRange{}, err
	}
	days := availability.SummarizeRange(snap.DayInput(now, ""))
	return DateRange{EventType: et, Days: days}, nil
}
