package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/reservation"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

const maxIdempotencyKeyLen = 200

// BookingResult is returned by commands that may issue a reschedule token.
// Token is empty on idempotent replays; only its hash is kept.
type BookingResult struct {
	Booking  model.Booking
	Token    string
	Replayed bool
}

// CreateBooking books req.Start on the event type. The availability
// re-check and the insert happen under the host's advisory lock.
func (s *Service) CreateBooking(ctx context.Context, eventTypeID, idempotencyKey string, req reservation.CreateRequest) (BookingResult, error) {
	ctx, span := s.startSpan(ctx, "create", attribute.String("event_type_id", eventTypeID))
	defer span.End()

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if len(idempotencyKey) > maxIdempotencyKeyLen {
		return BookingResult{}, apperr.Validation("Idempotency-Key is too long")
	}
	req.BookingID = uuid.NewString()

	var out BookingResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		_, p, err := s.loadEventType(ctx, tx, eventTypeID)
		if err != nil {
			return err
		}

		if idempotencyKey != "" {
			rec, existed, err := s.repo.LockIdempotencyKey(ctx, tx, eventTypeID, idempotencyKey)
			if err != nil {
				return err
			}
			if existed && rec.Completed() {
				b, err := s.repo.GetBooking(ctx, tx, rec.BookingID)
				if err != nil {
					return err
				}
				out = BookingResult{Booking: b, Replayed: true}
				return nil
			}
		}

		if err := s.repo.LockHost(ctx, tx, p.HostUserID); err != nil {
			return err
		}
		day := civil.DateOf(req.Start.In(p.Location()))
		snap, err := s.loadSnapshot(ctx, tx, p, day, day)
		if err != nil {
			return err
		}
		res, err := reservation.Create(snap, req, s.now())
		if err != nil {
			return err
		}
		if err := s.repo.InsertBooking(ctx, tx, res.Booking); err != nil {
			if storage.IsConflict(err) {
				return apperr.Conflict(reservation.MsgSlotUnavailable)
			}
			return err
		}
		if err := s.outbox.Append(ctx, tx, res.Events...); err != nil {
			return err
		}
		if idempotencyKey != "" {
			payload, _ := json.Marshal(map[string]string{"booking_id": res.Booking.ID})
			if err := s.repo.FinalizeIdempotency(ctx, tx, eventTypeID, idempotencyKey, res.Booking.ID, http.StatusCreated, payload); err != nil {
				return err
			}
		}
		out = BookingResult{Booking: res.Booking, Token: res.Token}
		return nil
	})
	if err != nil {
		return BookingResult{}, err
	}
	if !out.Replayed {
		s.logger.Info("booking created",
			"booking_id", out.Booking.ID,
			"event_type_id", eventTypeID,
			"host_user_id", out.Booking.HostUserID,
			"start_time", out.Booking.Slot.Start().Format(time.RFC3339),
		)
	}
	return out, nil
}

// RescheduleBooking moves a booking, rotating its reschedule token.
func (s *Service) RescheduleBooking(ctx context.Context, bookingID string, actor reservation.Actor, newStart time.Time) (BookingResult, error) {
	ctx, span := s.startSpan(ctx, "reschedule", attribute.String("booking_id", bookingID))
	defer span.End()

	if err := validID(bookingID, reservation.MsgNotFound); err != nil {
		return BookingResult{}, err
	}

	var out BookingResult
	var previous time.Time
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		b, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := reservation.Authorize(b, actor); err != nil {
			return err
		}
		_, p, err := s.loadEventType(ctx, tx, b.EventTypeID)
		if err != nil {
			return err
		}
		if err := s.repo.LockHost(ctx, tx, p.HostUserID); err != nil {
			return err
		}
		day := civil.DateOf(newStart.In(p.Location()))
		snap, err := s.loadSnapshot(ctx, tx, p, day, day)
		if err != nil {
			return err
		}
		res, err := reservation.Reschedule(snap, b, actor, newStart, s.now())
		if err != nil {
			return err
		}
		if err := s.repo.SaveBooking(ctx, tx, res.Booking); err != nil {
			if storage.IsConflict(err) {
				return apperr.Conflict(reservation.MsgSlotUnavailable)
			}
			return err
		}
		if err := s.outbox.Append(ctx, tx, res.Events...); err != nil {
			return err
		}
		previous = b.Slot.Start()
		out = BookingResult{Booking: res.Booking, Token: res.Token}
		return nil
	})
	if err != nil {
		return BookingResult{}, err
	}
	s.logger.Info("booking rescheduled",
		"booking_id", bookingID,
		"from", previous.Format(time.RFC3339),
		"to", out.Booking.Slot.Start().Format(time.RFC3339),
	)
	return out, nil
}

func (s *Service) CancelBooking(ctx context.Context, bookingID string, actor reservation.Actor, reason string) (model.Booking, error) {
	ctx, span := s.startSpan(ctx, "cancel", attribute.String("booking_id", bookingID))
	defer span.End()

	if err := validID(bookingID, reservation.MsgNotFound); err != nil {
		return model.Booking{}, err
	}
	if len(reason) > 1000 {
		return model.Booking{}, apperr.Validation("Reason is too long")
	}

	var out model.Booking
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		b, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		res, err := reservation.Cancel(b, actor, reason, s.now())
		if err != nil {
			return err
		}
		if err := s.repo.SaveBooking(ctx, tx, res.Booking); err != nil {
			return err
		}
		if err := s.outbox.Append(ctx, tx, res.Events...); err != nil {
			return err
		}
		out = res.Booking
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}
	s.logger.Info("booking cancelled", "booking_id", bookingID)
	return out, nil
}

func (s *Service) MarkNoShow(ctx context.Context, hostUserID, bookingID string) (model.Booking, error) {
	if err := validID(bookingID, reservation.MsgNotFound); err != nil {
		return model.Booking{}, err
	}
	var out model.Booking
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		b, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		res, err := reservation.MarkNoShow(b, hostUserID, s.now())
		if err != nil {
			return err
		}
		if err := s.repo.SaveBooking(ctx, tx, res.Booking); err != nil {
			return err
		}
		if err := s.outbox.Append(ctx, tx, res.Events...); err != nil {
			return err
		}
		out = res.Booking
		return nil
	})
	return out, err
}

// BookingFor returns a booking the actor may see, together with its event
// type.
func (s *Service) BookingFor(ctx context.Context, bookingID string, actor reservation.Actor) (model.Booking, storage.EventType, error) {
	if err := validID(bookingID, reservation.MsgNotFound); err != nil {
		return model.Booking{}, storage.EventType{}, err
	}
	b, err := s.repo.GetBooking(ctx, s.pool, bookingID)
	if storage.IsNotFound(err) {
		return model.Booking{}, storage.EventType{}, apperr.NotFound(reservation.MsgNotFound)
	}
	if err != nil {
		return model.Booking{}, storage.EventType{}, err
	}
	if err := reservation.Authorize(b, actor); err != nil {
		return model.Booking{}, storage.EventType{}, err
	}
	et, _, err := s.loadEventType(ctx, s.pool, b.EventTypeID)
	if err != nil {
		return model.Booking{}, storage.EventType{}, err
	}
	return b, et, nil
}

func (s *Service) ListHostBookings(ctx context.Context, hostUserID string, limit int) ([]model.Booking, error) {
	if err := validHost(hostUserID); err != nil {
		return nil, err
	}
	return s.repo.ListHostBookings(ctx, s.pool, hostUserID, limit)
}

// CompleteEndedBookings marks up to limit confirmed bookings whose end has
// passed as completed. It returns how many were closed.
func (s *Service) CompleteEndedBookings(ctx context.Context, limit int) (int, error) {
	now := s.now()
	n := 0
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		due, err := s.repo.ClaimEndedBookings(ctx, tx, now, limit)
		if err != nil {
			return err
		}
		for _, b := range due {
			done, events, err := b.MarkCompleted(now)
			if err != nil {
				s.logger.Warn("skip completion", "booking_id", b.ID, "err", err)
				continue
			}
			if err := s.repo.SaveBooking(ctx, tx, done); err != nil {
				return err
			}
			if err := s.outbox.Append(ctx, tx, events...); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Service) lockBooking(ctx context.Context, tx pgx.Tx, bookingID string) (model.Booking, error) {
	b, err := s.repo.GetBookingForUpdate(ctx, tx, bookingID)
	if storage.IsNotFound(err) {
		return model.Booking{}, apperr.NotFound(reservation.MsgNotFound)
	}
	return b, err
}
