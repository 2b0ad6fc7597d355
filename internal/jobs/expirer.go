// Package jobs holds background maintenance loops. They settle state that
// read paths already infer, so a stalled job never affects correctness.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"tutorlink/internal/pkg/clock"
)

type PendingExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Expirer periodically marks pending bookings past expires_at as expired.
type Expirer struct {
	repo     PendingExpirer
	clock    clock.Clock
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
}

func NewExpirer(repo PendingExpirer, clk clock.Clock, interval time.Duration) *Expirer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Expirer{
		repo:     repo,
		clock:    clk,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (e *Expirer) Start() {
	ticker := time.NewTicker(e.interval)
	go func() {
		defer ticker.Stop()
		defer close(e.stopped)
		for {
			select {
			case <-e.done:
				return
			case <-ticker.C:
				e.sweep()
			}
		}
	}()
}

func (e *Expirer) Stop() {
	close(e.done)
	<-e.stopped
}

func (e *Expirer) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := e.repo.ExpireDue(ctx, e.clock.Now())
	if err != nil {
		slog.Error("booking expiry sweep failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("expired pending bookings", "count", count)
	}
}
