package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

func (s Status) Terminal() bool {
	return s != StatusConfirmed
}

type Guest struct {
	Name     string
	Email    string
	Phone    string
	Timezone string
}

// Response is a guest's answer to one of the event type's booking questions.
type Response struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Booking is a guest's reservation of a slot with a host. Values are never
// mutated in place; every transition returns a new Booking.
type Booking struct {
	ID                  string
	EventTypeID         string
	HostUserID          string
	Guest               Guest
	Slot                policy.TimeSlot
	Status              Status
	RescheduleTokenHash string
	Responses           []Response
	CancelledAt         *time.Time
	CancelReason        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewBooking returns a confirmed booking and its booking.created event.
func NewBooking(id, eventTypeID, hostUserID string, guest Guest, slot policy.TimeSlot, tokenHash string, now time.Time) (Booking, []Event, error) {
	if slot.IsZero() {
		return Booking{}, nil, apperr.Validation("Start time is required")
	}
	if !slot.Start().After(now) {
		return Booking{}, nil, apperr.Validation("Cannot book in the past")
	}
	g, err := normalizeGuest(guest)
	if err != nil {
		return Booking{}, nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	b := Booking{
		ID:                  id,
		EventTypeID:         eventTypeID,
		HostUserID:          hostUserID,
		Guest:               g,
		Slot:                slot,
		Status:              StatusConfirmed,
		RescheduleTokenHash: tokenHash,
		CreatedAt:           now.UTC(),
		UpdatedAt:           now.UTC(),
	}
	return b, []Event{b.event(EventBookingCreated, now)}, nil
}

func normalizeGuest(g Guest) (Guest, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.Email = strings.TrimSpace(g.Email)
	g.Phone = strings.TrimSpace(g.Phone)
	g.Timezone = strings.TrimSpace(g.Timezone)
	if g.Name == "" {
		return Guest{}, apperr.Validation("Guest name is required")
	}
	if len(g.Name) > 200 {
		return Guest{}, apperr.Validation("Guest name is too long")
	}
	addr, err := mail.ParseAddress(g.Email)
	if err != nil || addr.Address != g.Email {
		return Guest{}, apperr.Validation("A valid guest email is required")
	}
	if g.Timezone != "" {
		if _, err := policy.LoadLocation(g.Timezone); err != nil {
			return Guest{}, err
		}
	}
	return g, nil
}

// Cancel moves a confirmed booking that has not started to cancelled. The
// vacated interval is announced with a slot_released event.
func (b Booking) Cancel(reason string, now time.Time) (Booking, []Event, error) {
	if b.Status != StatusConfirmed {
		return Booking{}, nil, apperr.Conflict("Only confirmed bookings can be cancelled")
	}
	if !now.Before(b.Slot.Start()) {
		return Booking{}, nil, apperr.Validation("Cannot cancel a booking that has already started")
	}
	at := now.UTC()
	next := b
	next.Status = StatusCancelled
	next.CancelledAt = &at
	next.CancelReason = strings.TrimSpace(reason)
	next.UpdatedAt = at

	cancelled := next.event(EventBookingCancelled, now)
	cancelled.Reason = next.CancelReason
	return next, []Event{cancelled, b.event(EventSlotReleased, now)}, nil
}

// Reschedule replaces the slot and reschedule token of a confirmed booking.
// Availability of the new slot is the caller's concern.
func (b Booking) Reschedule(slot policy.TimeSlot, tokenHash string, now time.Time) (Booking, []Event, error) {
	if b.Status != StatusConfirmed {
		return Booking{}, nil, apperr.Conflict("Only confirmed bookings can be rescheduled")
	}
	if !slot.Start().After(now) {
		return Booking{}, nil, apperr.Validation("Cannot book in the past")
	}
	next := b
	next.Slot = slot
	next.RescheduleTokenHash = tokenHash
	next.UpdatedAt = now.UTC()

	moved := next.event(EventBookingRescheduled, now)
	prevStart, prevEnd := b.Slot.Start(), b.Slot.End()
	moved.PreviousStart, moved.PreviousEnd = &prevStart, &prevEnd
	return next, []Event{moved, b.event(EventSlotReleased, now)}, nil
}

// MarkCompleted closes a confirmed booking whose end has passed.
func (b Booking) MarkCompleted(now time.Time) (Booking, []Event, error) {
	if b.Status != StatusConfirmed {
		return Booking{}, nil, apperr.Conflict("Only confirmed bookings can be completed")
	}
	if now.Before(b.Slot.End()) {
		return Booking{}, nil, apperr.Validation("Booking has not ended yet")
	}
	next := b
	next.Status = StatusCompleted
	next.UpdatedAt = now.UTC()
	return next, []Event{next.event(EventBookingCompleted, now)}, nil
}

// MarkNoShow records that the guest did not attend. Allowed once the
// meeting has started.
func (b Booking) MarkNoShow(now time.Time) (Booking, []Event, error) {
	if b.Status != StatusConfirmed {
		return Booking{}, nil, apperr.Conflict("Only confirmed bookings can be marked as no-show")
	}
	if now.Before(b.Slot.Start()) {
		return Booking{}, nil, apperr.Validation("Cannot mark a future booking as no-show")
	}
	next := b
	next.Status = StatusNoShow
	next.UpdatedAt = now.UTC()
	return next, []Event{next.event(EventBookingNoShow, now)}, nil
}

// AttachResponses stores the guest's answers. Blank answers are dropped.
func (b Booking) AttachResponses(responses []Response) (Booking, error) {
	if b.Status != StatusConfirmed {
		return Booking{}, apperr.Conflict("Responses can only be attached to confirmed bookings")
	}
	out := make([]Response, 0, len(responses))
	for _, r := range responses {
		q, a := strings.TrimSpace(r.Question), strings.TrimSpace(r.Answer)
		if q == "" {
			return Booking{}, apperr.Validation("Question is required for every response")
		}
		if a == "" {
			continue
		}
		out = append(out, Response{Question: q, Answer: a})
	}
	next := b
	next.Responses = out
	return next, nil
}
