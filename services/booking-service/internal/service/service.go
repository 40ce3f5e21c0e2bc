// Package service runs booking-service commands and queries against
// Postgres. Decisions are delegated to the availability and reservation
// packages; this layer owns transactions, locking and the outbox.
package service

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/reservation"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgEventTypeNotFound = "Event type not found"
	msgOverrideNotFound  = "Override not found"
)

type Service struct {
	pool   *db.Pool
	repo   *storage.Repository
	outbox *outbox.Repository
	logger *slog.Logger
	now    func() time.Time
}

func New(pool *db.Pool, repo *storage.Repository, ob *outbox.Repository, logger *slog.Logger) *Service {
	return &Service{
		pool:   pool,
		repo:   repo,
		outbox: ob,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otelx.Tracer().Start(ctx, "booking."+name, trace.WithAttributes(attrs...))
}

// validID rejects ids Postgres would fail to cast, reporting them as
// missing.
func validID(id, notFound string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound(notFound)
	}
	return nil
}

func (s *Service) loadEventType(ctx context.Context, q db.Querier, id string) (storage.EventType, policy.EventPolicy, error) {
	if err := validID(id, msgEventTypeNotFound); err != nil {
		return storage.EventType{}, policy.EventPolicy{}, err
	}
	et, err := s.repo.GetEventType(ctx, q, id)
	if storage.IsNotFound(err) {
		return storage.EventType{}, policy.EventPolicy{}, apperr.NotFound(msgEventTypeNotFound)
	}
	if err != nil {
		return storage.EventType{}, policy.EventPolicy{}, err
	}
	p, err := et.Policy()
	if err != nil {
		return storage.EventType{}, policy.EventPolicy{}, err
	}
	return et, p, nil
}

// loadSnapshot reads the host's rules, overrides and live bookings for the
// local dates [from, to], plus one day either side so bookings that cross
// midnight are seen.
func (s *Service) loadSnapshot(ctx context.Context, q db.Querier, p policy.EventPolicy, from, to civil.Date) (reservation.Snapshot, error) {
	rules, err := s.repo.ListWeeklyRules(ctx, q, p.HostUserID)
	if err != nil {
		return reservation.Snapshot{}, err
	}
	overrides, err := s.repo.ListOverrides(ctx, q, p.HostUserID, from, to)
	if err != nil {
		return reservation.Snapshot{}, err
	}
	loc := p.Location()
	bookings, err := s.repo.ListActiveBookings(ctx, q, p.HostUserID,
		from.AddDays(-1).In(loc), to.AddDays(2).In(loc))
	if err != nil {
		return reservation.Snapshot{}, err
	}
	return reservation.Snapshot{Policy: p, Rules: rules, Overrides: overrides, Bookings: bookings}, nil
}

func (s *Service) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return s.pool.InTx(ctx, fn)
}
