package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/slotbook/libs/auth"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
)

// HostService is what authenticated host routes need.
type HostService interface {
	Availability(ctx context.Context, hostUserID string) (service.HostAvailability, error)
	UpdateAvailability(ctx context.Context, hostUserID, timezone string, rules []availability.WeeklyRule) (service.HostAvailability, error)
	Overrides(ctx context.Context, hostUserID string) ([]availability.DateOverride, error)
	CreateOverride(ctx context.Context, hostUserID string, in service.OverrideInput) (availability.DateOverride, error)
	DeleteOverride(ctx context.Context, hostUserID, overrideID string) error
	EventTypes(ctx context.Context, hostUserID string) ([]storage.EventType, error)
	CreateEventType(ctx context.Context, hostUserID string, in service.EventTypeInput) (storage.EventType, error)
	UpdateEventType(ctx context.Context, hostUserID, eventTypeID string, in service.EventTypeInput) (storage.EventType, error)
	ListHostBookings(ctx context.Context, hostUserID string, limit int) ([]model.Booking, error)
	MarkNoShow(ctx context.Context, hostUserID, bookingID string) (model.Booking, error)
}

type HostHandler struct {
	svc    HostService
	logger *slog.Logger
}

func NewHostHandler(svc HostService, logger *slog.Logger) *HostHandler {
	return &HostHandler{svc: svc, logger: logger}
}

func hostID(r *http.Request) string {
	return auth.HostIDFromContext(r.Context())
}

func (h *HostHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	av, err := h.svc.Availability(r.Context(), hostID(r))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, availabilityBody{Timezone: av.Timezone, Rules: toRuleItems(av.Rules)})
}

func (h *HostHandler) PutAvailability(w http.ResponseWriter, r *http.Request) {
	var body availabilityBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	rules := make([]availability.WeeklyRule, 0, len(body.Rules))
	for _, item := range body.Rules {
		wd, ok := parseWeekday(item.Weekday)
		if !ok {
			badRequest(w, "invalid weekday "+strconv.Quote(item.Weekday))
			return
		}
		rules = append(rules, availability.WeeklyRule{Weekday: wd, Start: item.Start, End: item.End, Enabled: item.Enabled})
	}
	av, err := h.svc.UpdateAvailability(r.Context(), hostID(r), body.Timezone, rules)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, availabilityBody{Timezone: av.Timezone, Rules: toRuleItems(av.Rules)})
}

func (h *HostHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.svc.Overrides(r.Context(), hostID(r))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	items := make([]overrideItem, 0, len(overrides))
	for _, o := range overrides {
		items = append(items, toOverrideItem(o))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"overrides": items})
}

func (h *HostHandler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	date, err := civil.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}
	in := service.OverrideInput{Date: date, IsBlocked: req.IsBlocked, Reason: req.Reason}
	switch {
	case req.StartTime != nil && req.EndTime != nil:
		in.Range = &availability.TimeRange{Start: *req.StartTime, End: *req.EndTime}
	case req.StartTime != nil || req.EndTime != nil:
		badRequest(w, "start_time and end_time must be given together")
		return
	}
	o, err := h.svc.CreateOverride(r.Context(), hostID(r), in)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toOverrideItem(o))
}

func (h *HostHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteOverride(r.Context(), hostID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HostHandler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	ets, err := h.svc.EventTypes(r.Context(), hostID(r))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	items := make([]eventTypeResponse, 0, len(ets))
	for _, et := range ets {
		items = append(items, toEventTypeResponse(et))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"event_types": items})
}

func (h *HostHandler) CreateEventType(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeEventType(w, r)
	if !ok {
		return
	}
	et, err := h.svc.CreateEventType(r.Context(), hostID(r), in)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toEventTypeResponse(et))
}

func (h *HostHandler) UpdateEventType(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeEventType(w, r)
	if !ok {
		return
	}
	et, err := h.svc.UpdateEventType(r.Context(), hostID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEventTypeResponse(et))
}

func (h *HostHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			badRequest(w, "limit must be between 1 and 200")
			return
		}
		limit = n
	}
	bookings, err := h.svc.ListHostBookings(r.Context(), hostID(r), limit)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	items := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, toBookingResponse(b))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"bookings": items})
}

func (h *HostHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.MarkNoShow(r.Context(), hostID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBookingResponse(b))
}

func decodeEventType(w http.ResponseWriter, r *http.Request) (service.EventTypeInput, bool) {
	var body eventTypeBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return service.EventTypeInput{}, false
	}
	settings := policy.DefaultSettings()
	if body.DurationMinutes != 0 {
		settings.DurationMinutes = body.DurationMinutes
	}
	settings.BufferBeforeMinutes = body.BufferBeforeMinutes
	settings.BufferAfterMinutes = body.BufferAfterMinutes
	if body.MinimumNoticeMinutes != nil {
		settings.MinimumNoticeMinutes = *body.MinimumNoticeMinutes
	}
	if body.BookingWindowDays != 0 {
		settings.BookingWindowDays = body.BookingWindowDays
	}
	settings.MaxBookingsPerDay = body.MaxBookingsPerDay
	if body.IsActive != nil {
		settings.IsActive = *body.IsActive
	}
	return service.EventTypeInput{
		Title:       body.Title,
		Description: body.Description,
		Settings:    settings,
		Questions:   body.Questions,
	}, true
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(s string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return wd, ok
}

func weekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}
