package service

import (
	"context"
	"time"

	"github.com/lanternworks/gatehouse/internal/auth/store"
	"github.com/lanternworks/gatehouse/pkg/slogx"
)

// DefaultHousekeepingInterval is how often expired session rows are swept.
const DefaultHousekeepingInterval = time.Hour

// Housekeeping periodically deletes session rows past their refresh
// horizon. Rotation never depends on the sweep; it only keeps the table
// from growing without bound.
type Housekeeping struct {
	Store    store.Store
	Interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the sweep loop. Call Stop to end it.
func (h *Housekeeping) Start(ctx context.Context) {
	if h.Interval <= 0 {
		h.Interval = DefaultHousekeepingInterval
	}

	ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})

	go h.run(ctx)
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (h *Housekeeping) Stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}

func (h *Housekeeping) run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	h.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(ctx)
		}
	}
}

func (h *Housekeeping) sweep(ctx context.Context) {
	if err := h.Store.Sessions().DeleteExpiredSessions(ctx, time.Now().UTC()); err != nil {
		if ctx.Err() != nil {
			return
		}
		slogx.FromContext(ctx).Error("session sweep failed", "error", err)
	}
}
