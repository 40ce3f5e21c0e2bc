package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated     = "booking.created.v1"
	EventBookingCancelled   = "booking.cancelled.v1"
	EventBookingRescheduled = "booking.rescheduled.v1"
	EventBookingCompleted   = "booking.completed.v1"
	EventBookingNoShow      = "booking.no_show.v1"
	EventSlotReleased       = "booking.slot_released.v1"
)

// Event is a side effect a transition asks the caller to publish. The JSON
// form is the outbox payload.
type Event struct {
	EventID       string     `json:"event_id"`
	Type          string     `json:"event_type"`
	OccurredAt    time.Time  `json:"occurred_at"`
	BookingID     string     `json:"booking_id"`
	EventTypeID   string     `json:"event_type_id"`
	HostUserID    string     `json:"host_user_id"`
	GuestName     string     `json:"guest_name"`
	GuestEmail    string     `json:"guest_email"`
	GuestTimezone string     `json:"guest_timezone,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	PreviousStart *time.Time `json:"previous_start_time,omitempty"`
	PreviousEnd   *time.Time `json:"previous_end_time,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

func (b Booking) event(eventType string, now time.Time) Event {
	return Event{
		EventID:       uuid.NewString(),
		Type:          eventType,
		OccurredAt:    now.UTC(),
		BookingID:     b.ID,
		EventTypeID:   b.EventTypeID,
		HostUserID:    b.HostUserID,
		GuestName:     b.Guest.Name,
		GuestEmail:    b.Guest.Email,
		GuestTimezone: b.Guest.Timezone,
		StartTime:     b.Slot.Start(),
		EndTime:       b.Slot.End(),
	}
}
