// Package reservation decides whether a booking command may proceed. It
// holds no state; callers load a Snapshot inside the transaction that will
// commit the result.
package reservation

import (
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/token"
)

const (
	MsgSlotUnavailable = "This time slot is no longer available"
	MsgNotFound        = "Booking not found"

	endTolerance = time.Minute
)

var newToken = token.New

// Snapshot is the host's committed state as read for one command.
type Snapshot struct {
	Policy    policy.EventPolicy
	Rules     []availability.WeeklyRule
	Overrides []availability.DateOverride
	Bookings  []model.Booking
}

// DayInput converts the snapshot into calculator input. exclude drops one
// booking from the conflict set.
func (s Snapshot) DayInput(now time.Time, exclude string) availability.DayInput {
	busy := make([]availability.Busy, 0, len(s.Bookings))
	for _, b := range s.Bookings {
		busy = append(busy, availability.Busy{ID: b.ID, Slot: b.Slot, Cancelled: b.Status == model.StatusCancelled})
	}
	return availability.DayInput{
		Policy:           s.Policy,
		Rules:            s.Rules,
		Overrides:        s.Overrides,
		Bookings:         busy,
		Now:              now,
		ExcludeBookingID: exclude,
	}
}

// CreateRequest is a guest's booking attempt. End is optional; when given it
// must agree with the event duration.
type CreateRequest struct {
	BookingID string
	Start     time.Time
	End       *time.Time
	Guest     model.Guest
	Responses []model.Response
}

// Actor is whoever issues a reschedule or cancel: an authenticated host, or
// a guest holding the booking's reschedule token.
type Actor struct {
	HostUserID string
	Token      string
}

// Result carries the new booking state, the events to publish and, when one
// was issued, the plaintext reschedule token.
type Result struct {
	Booking model.Booking
	Events  []model.Event
	Token   string
}

func Create(s Snapshot, req CreateRequest, now time.Time) (Result, error) {
	p := s.Policy
	if !p.IsActive {
		return Result{}, apperr.Validation("This event type is not accepting bookings")
	}
	if !req.Start.After(now) {
		return Result{}, apperr.Validation("Cannot book in the past")
	}
	if !availability.IsSlotAvailable(s.DayInput(now, ""), req.Start) {
		return Result{}, apperr.Conflict(MsgSlotUnavailable)
	}
	slot, err := policy.SlotOf(req.Start, p.Duration)
	if err != nil {
		return Result{}, err
	}
	if req.End != nil {
		if diff := req.End.Sub(slot.End()).Abs(); diff > endTolerance {
			return Result{}, apperr.Validation("End time does not match the event duration of %d minutes", p.Duration.Minutes())
		}
	}

	tok, err := newToken()
	if err != nil {
		return Result{}, err
	}
	b, events, err := model.NewBooking(req.BookingID, p.EventTypeID, p.HostUserID, req.Guest, slot, tok.Hash, now)
	if err != nil {
		return Result{}, err
	}
	if len(req.Responses) > 0 {
		if b, err = b.AttachResponses(req.Responses); err != nil {
			return Result{}, err
		}
	}
	return Result{Booking: b, Events: events, Token: tok.Plain}, nil
}

// Authorize lets the owning host or the holder of the current reschedule
// token act on b. Failures look like a missing booking.
func Authorize(b model.Booking, a Actor) error {
	if a.HostUserID != "" && a.HostUserID == b.HostUserID {
		return nil
	}
	if a.Token != "" && token.Matches(b.RescheduleTokenHash, a.Token) {
		return nil
	}
	return apperr.NotFound(MsgNotFound)
}

// Reschedule moves b to newStart after re-running availability with b's own
// slot left out of the conflict set. The reschedule token is rotated.
func Reschedule(s Snapshot, b model.Booking, a Actor, newStart time.Time, now time.Time) (Result, error) {
	if err := Authorize(b, a); err != nil {
		return Result{}, err
	}
	if b.Status != model.StatusConfirmed {
		return Result{}, apperr.Conflict("Only confirmed bookings can be rescheduled")
	}
	if !s.Policy.IsActive {
		return Result{}, apperr.Validation("This event type is not accepting bookings")
	}
	if !newStart.After(now) {
		return Result{}, apperr.Validation("Cannot book in the past")
	}
	if !availability.IsSlotAvailable(s.DayInput(now, b.ID), newStart) {
		return Result{}, apperr.Conflict(MsgSlotUnavailable)
	}
	slot, err := policy.SlotOf(newStart, s.Policy.Duration)
	if err != nil {
		return Result{}, err
	}
	tok, err := newToken()
	if err != nil {
		return Result{}, err
	}
	next, events, err := b.Reschedule(slot, tok.Hash, now)
	if err != nil {
		return Result{}, err
	}
	return Result{Booking: next, Events: events, Token: tok.Plain}, nil
}

// Cancel never consults availability; cancelled bookings simply drop out of
// the next calculation.
func Cancel(b model.Booking, a Actor, reason string, now time.Time) (Result, error) {
	if err := Authorize(b, a); err != nil {
		return Result{}, err
	}
	next, events, err := b.Cancel(reason, now)
	if err != nil {
		return Result{}, err
	}
	return Result{Booking: next, Events: events}, nil
}

// MarkNoShow is host-only.
func MarkNoShow(b model.Booking, hostUserID string, now time.Time) (Result, error) {
	if hostUserID == "" || hostUserID != b.HostUserID {
		return Result{}, apperr.NotFound(MsgNotFound)
	}
	next, events, err := b.MarkNoShow(now)
	if err != nil {
		return Result{}, err
	}
	return Result{Booking: next, Events: events}, nil
}
