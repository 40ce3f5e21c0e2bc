package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Completer closes confirmed bookings whose end time has passed.
type Completer interface {
	CompleteEndedBookings(ctx context.Context, limit int) (int, error)
}

type Sweeper struct {
	svc       Completer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

func NewSweeper(svc Completer, logger *slog.Logger, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Sweeper{svc: svc, logger: logger, interval: cfg.Interval, batchSize: cfg.BatchSize}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("completion sweep failed", "err", err)
			}
		}
	}
}

// sweep drains every full batch so a backlog clears in one tick.
func (s *Sweeper) sweep(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := s.svc.CompleteEndedBookings(ctx, s.batchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n < s.batchSize || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		s.logger.Info("bookings completed", "count", total)
	}
	return total, nil
}
