package handlers

import (
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
)

type slotItem struct {
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	HostLocalStart  string `json:"host_local_start"`
	GuestLocalStart string `json:"guest_local_start"`
}

type slotsResponse struct {
	EventTypeID   string     `json:"event_type_id"`
	Date          string     `json:"date"`
	HostTimezone  string     `json:"host_timezone"`
	GuestTimezone string     `json:"guest_timezone"`
	Duration      int        `json:"duration_minutes"`
	Slots         []slotItem `json:"slots"`
}

type dateItem struct {
	Date            string `json:"date"`
	HasAvailability bool   `json:"has_availability"`
	AvailableCount  int    `json:"available_count"`
}

type datesResponse struct {
	EventTypeID   string     `json:"event_type_id"`
	HostTimezone  string     `json:"host_timezone"`
	GuestTimezone string     `json:"guest_timezone"`
	Dates         []dateItem `json:"dates"`
}

type responseItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type createBookingRequest struct {
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time,omitempty"`
	GuestName  string         `json:"guest_name"`
	GuestEmail string         `json:"guest_email"`
	GuestPhone string         `json:"guest_phone,omitempty"`
	GuestTZ    string         `json:"guest_timezone,omitempty"`
	Responses  []responseItem `json:"responses,omitempty"`
}

type rescheduleRequest struct {
	StartTime       string `json:"start_time"`
	RescheduleToken string `json:"reschedule_token,omitempty"`
}

type cancelRequest struct {
	Reason          string `json:"reason,omitempty"`
	RescheduleToken string `json:"reschedule_token,omitempty"`
}

type bookingResponse struct {
	BookingID       string         `json:"booking_id"`
	EventTypeID     string         `json:"event_type_id"`
	Status          string         `json:"status"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
	GuestName       string         `json:"guest_name"`
	GuestEmail      string         `json:"guest_email"`
	GuestTimezone   string         `json:"guest_timezone,omitempty"`
	Responses       []responseItem `json:"responses,omitempty"`
	CancelledAt     string         `json:"cancelled_at,omitempty"`
	CancelReason    string         `json:"cancel_reason,omitempty"`
	RescheduleToken string         `json:"reschedule_token,omitempty"`
	Replayed        bool           `json:"replayed,omitempty"`
}

func toBookingResponse(b model.Booking) bookingResponse {
	out := bookingResponse{
		BookingID:     b.ID,
		EventTypeID:   b.EventTypeID,
		Status:        string(b.Status),
		StartTime:     b.Slot.Start().Format(time.RFC3339),
		EndTime:       b.Slot.End().Format(time.RFC3339),
		GuestName:     b.Guest.Name,
		GuestEmail:    b.Guest.Email,
		GuestTimezone: b.Guest.Timezone,
		CancelReason:  b.CancelReason,
	}
	for _, r := range b.Responses {
		out.Responses = append(out.Responses, responseItem{Question: r.Question, Answer: r.Answer})
	}
	if b.CancelledAt != nil {
		out.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	return out
}

type weeklyRuleItem struct {
	Weekday string                 `json:"weekday"`
	Start   availability.TimeOfDay `json:"start_time"`
	End     availability.TimeOfDay `json:"end_time"`
	Enabled bool                   `json:"enabled"`
}

type availabilityBody struct {
	Timezone string           `json:"timezone"`
	Rules    []weeklyRuleItem `json:"rules"`
}

func toRuleItems(rules []availability.WeeklyRule) []weeklyRuleItem {
	out := make([]weeklyRuleItem, 0, len(rules))
	for _, r := range rules {
		out = append(out, weeklyRuleItem{Weekday: weekdayName(r.Weekday), Start: r.Start, End: r.End, Enabled: r.Enabled})
	}
	return out
}

type overrideRequest struct {
	Date      string                  `json:"date"`
	IsBlocked bool                    `json:"is_blocked"`
	StartTime *availability.TimeOfDay `json:"start_time,omitempty"`
	EndTime   *availability.TimeOfDay `json:"end_time,omitempty"`
	Reason    string                  `json:"reason,omitempty"`
}

type overrideItem struct {
	ID        string                  `json:"id"`
	Date      string                  `json:"date"`
	Kind      string                  `json:"kind"`
	IsBlocked bool                    `json:"is_blocked"`
	StartTime *availability.TimeOfDay `json:"start_time,omitempty"`
	EndTime   *availability.TimeOfDay `json:"end_time,omitempty"`
	Reason    string                  `json:"reason,omitempty"`
}

func toOverrideItem(o availability.DateOverride) overrideItem {
	item := overrideItem{
		ID:        o.ID,
		Date:      o.Date.String(),
		Kind:      o.Kind().String(),
		IsBlocked: o.IsBlocked,
		Reason:    o.Reason,
	}
	if o.Range != nil {
		start, end := o.Range.Start, o.Range.End
		item.StartTime, item.EndTime = &start, &end
	}
	return item
}

type eventTypeBody struct {
	Title                string   `json:"title"`
	Description          string   `json:"description,omitempty"`
	DurationMinutes      int      `json:"duration_minutes"`
	BufferBeforeMinutes  int      `json:"buffer_before_minutes"`
	BufferAfterMinutes   int      `json:"buffer_after_minutes"`
	MinimumNoticeMinutes *int     `json:"minimum_notice_minutes,omitempty"`
	BookingWindowDays    int      `json:"booking_window_days"`
	MaxBookingsPerDay    *int     `json:"max_bookings_per_day,omitempty"`
	IsActive             *bool    `json:"is_active,omitempty"`
	Questions            []string `json:"questions,omitempty"`
}

type eventTypeResponse struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Description          string   `json:"description,omitempty"`
	HostTimezone         string   `json:"host_timezone"`
	DurationMinutes      int      `json:"duration_minutes"`
	BufferBeforeMinutes  int      `json:"buffer_before_minutes"`
	BufferAfterMinutes   int      `json:"buffer_after_minutes"`
	MinimumNoticeMinutes int      `json:"minimum_notice_minutes"`
	BookingWindowDays    int      `json:"booking_window_days"`
	MaxBookingsPerDay    *int     `json:"max_bookings_per_day,omitempty"`
	IsActive             bool     `json:"is_active"`
	Questions            []string `json:"questions"`
}

func toEventTypeResponse(e storage.EventType) eventTypeResponse {
	s := e.Settings
	questions := e.Questions
	if questions == nil {
		questions = []string{}
	}
	return eventTypeResponse{
		ID:                   e.ID,
		Title:                e.Title,
		Description:          e.Description,
		HostTimezone:         s.HostTimezone,
		DurationMinutes:      s.DurationMinutes,
		BufferBeforeMinutes:  s.BufferBeforeMinutes,
		BufferAfterMinutes:   s.BufferAfterMinutes,
		MinimumNoticeMinutes: s.MinimumNoticeMinutes,
		BookingWindowDays:    s.BookingWindowDays,
		MaxBookingsPerDay:    s.MaxBookingsPerDay,
		IsActive:             s.IsActive,
		Questions:            questions,
	}
}
