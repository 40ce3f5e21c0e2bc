package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/slotbook/libs/auth"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/reservation"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
)

// BookingService is what guest-facing routes need.
type BookingService interface {
	Slots(ctx context.Context, eventTypeID string, date civil.Date) (service.DaySlots, error)
	Dates(ctx context.Context, eventTypeID string) (service.DateRange, error)
	CreateBooking(ctx context.Context, eventTypeID, idempotencyKey string, req reservation.CreateRequest) (service.BookingResult, error)
	RescheduleBooking(ctx context.Context, bookingID string, actor reservation.Actor, newStart time.Time) (service.BookingResult, error)
	CancelBooking(ctx context.Context, bookingID string, actor reservation.Actor, reason string) (model.Booking, error)
	BookingFor(ctx context.Context, bookingID string, actor reservation.Actor) (model.Booking, storage.EventType, error)
}

type PublicHandler struct {
	svc       BookingService
	logger    *slog.Logger
	icsDomain string
}

func NewPublicHandler(svc BookingService, logger *slog.Logger, icsDomain string) *PublicHandler {
	return &PublicHandler{svc: svc, logger: logger, icsDomain: icsDomain}
}

// Slots handles GET /event-types/{id}/slots?date=YYYY-MM-DD&tz=Zone.
func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	date, err := civil.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}
	guestLoc, err := guestLocation(r)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Slots(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}

	out := slotsResponse{
		EventTypeID:   res.EventType.ID,
		Date:          date.String(),
		HostTimezone:  res.EventType.Settings.HostTimezone,
		GuestTimezone: guestLoc.String(),
		Duration:      res.EventType.Settings.DurationMinutes,
		Slots:         make([]slotItem, 0, len(res.Slots)),
	}
	for _, s := range res.Slots {
		out.Slots = append(out.Slots, slotItem{
			StartTime:       s.StartUTC.Format(time.RFC3339),
			EndTime:         s.EndUTC.Format(time.RFC3339),
			HostLocalStart:  s.Start.String(),
			GuestLocalStart: s.StartUTC.In(guestLoc).Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Dates handles GET /event-types/{id}/dates?tz=Zone.
func (h *PublicHandler) Dates(w http.ResponseWriter, r *http.Request) {
	guestLoc, err := guestLocation(r)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Dates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := datesResponse{
		EventTypeID:   res.EventType.ID,
		HostTimezone:  res.EventType.Settings.HostTimezone,
		GuestTimezone: guestLoc.String(),
		Dates:         make([]dateItem, 0, len(res.Days)),
	}
	for _, d := range res.Days {
		out.Dates = append(out.Dates, dateItem{Date: d.Date.String(), HasAvailability: d.HasAvailability, AvailableCount: d.AvailableCount})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Create handles POST /event-types/{id}/bookings. An Idempotency-Key header
// makes retries return the original booking.
func (h *PublicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	start, err := parseInstant(req.StartTime)
	if err != nil {
		badRequest(w, "start_time must be an RFC3339 timestamp")
		return
	}
	cr := reservation.CreateRequest{
		Start: start,
		Guest: model.Guest{Name: req.GuestName, Email: req.GuestEmail, Phone: req.GuestPhone, Timezone: req.GuestTZ},
	}
	if strings.TrimSpace(req.EndTime) != "" {
		end, err := parseInstant(req.EndTime)
		if err != nil {
			badRequest(w, "end_time must be an RFC3339 timestamp")
			return
		}
		cr.End = &end
	}
	for _, resp := range req.Responses {
		cr.Responses = append(cr.Responses, model.Response{Question: resp.Question, Answer: resp.Answer})
	}

	res, err := h.svc.CreateBooking(r.Context(), chi.URLParam(r, "id"), r.Header.Get("Idempotency-Key"), cr)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := toBookingResponse(res.Booking)
	out.RescheduleToken = res.Token
	out.Replayed = res.Replayed
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, out)
}

// Reschedule handles POST /bookings/{id}/reschedule for hosts (bearer) and
// guests (reschedule_token).
func (h *PublicHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	start, err := parseInstant(req.StartTime)
	if err != nil {
		badRequest(w, "start_time must be an RFC3339 timestamp")
		return
	}
	res, err := h.svc.RescheduleBooking(r.Context(), chi.URLParam(r, "id"), actorFrom(r, req.RescheduleToken), start)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := toBookingResponse(res.Booking)
	out.RescheduleToken = res.Token
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Cancel handles POST /bookings/{id}/cancel.
func (h *PublicHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid json body")
		return
	}
	b, err := h.svc.CancelBooking(r.Context(), chi.URLParam(r, "id"), actorFrom(r, req.RescheduleToken), req.Reason)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBookingResponse(b))
}

// Calendar handles GET /bookings/{id}/calendar.ics?token=.
func (h *PublicHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r, r.URL.Query().Get("token"))
	b, et, err := h.svc.BookingFor(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	raw, err := calendar.Encode(calendar.Invite{
		Booking:     b,
		Title:       et.Title,
		Description: et.Description,
		Domain:      h.icsDomain,
	}, time.Now())
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="booking-`+b.ID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func actorFrom(r *http.Request, token string) reservation.Actor {
	return reservation.Actor{
		HostUserID: auth.HostIDFromContext(r.Context()),
		Token:      strings.TrimSpace(token),
	}
}

func guestLocation(r *http.Request) (*time.Location, error) {
	return policy.LoadLocation(r.URL.Query().Get("tz"))
}

func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
