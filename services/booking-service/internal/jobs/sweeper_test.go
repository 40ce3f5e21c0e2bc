package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeCompleter struct {
	batches []int
	err     error
	calls   int
}

func (f *fakeCompleter) CompleteEndedBookings(_ context.Context, limit int) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	if n > limit {
		n = limit
	}
	return n, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepDrainsFullBatches(t *testing.T) {
	fc := &fakeCompleter{batches: []int{10, 10, 3}}
	s := NewSweeper(fc, quietLogger(), SweeperConfig{BatchSize: 10})
	n, err := s.sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 23 || fc.calls != 3 {
		t.Fatalf("expected 23 over 3 calls, got %d over %d", n, fc.calls)
	}
}

func TestSweepStopsOnError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("db down")}
	s := NewSweeper(fc, quietLogger(), SweeperConfig{BatchSize: 10})
	if _, err := s.sweep(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if fc.calls != 1 {
		t.Fatalf("expected one call, got %d", fc.calls)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	s := NewSweeper(&fakeCompleter{}, quietLogger(), SweeperConfig{Interval: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestDefaults(t *testing.T) {
	s := NewSweeper(&fakeCompleter{}, quietLogger(), SweeperConfig{})
	if s.interval != time.Minute || s.batchSize != 100 {
		t.Fatalf("unexpected defaults %v %d", s.interval, s.batchSize)
	}
}
