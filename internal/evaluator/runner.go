package evaluator

import (
	"context"
	"log/slog"
	"time"

	"vigil-go/internal/domain"
)

// SnapshotSource produces metric snapshots for evaluation.
type SnapshotSource interface {
	Fetch(ctx context.Context) (domain.Snapshot, error)
}

// Runner drives the evaluation loop on a fixed interval. It pulls a
// snapshot from the source each tick and hands it to the service.
type Runner struct {
	service  *Service
	source   SnapshotSource
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a periodic evaluation driver.
func NewRunner(service *Service, source SnapshotSource, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		service:  service,
		source:   source,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the evaluation loop in a background goroutine. The loop
// runs until Stop is called or the parent context is canceled.
func (r *Runner) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	go func() {
		defer close(r.done)

		r.logger.Info("evaluation loop started", "interval", r.interval.String())

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				r.logger.Info("evaluation loop stopped")
				return
			case <-ticker.C:
				r.runOnce(runCtx)
			}
		}
	}()
}

// runOnce fetches one snapshot and evaluates it. A failed fetch skips
// the pass; alert state carries over unchanged to the next tick.
func (r *Runner) runOnce(ctx context.Context) {
	snapshot, err := r.source.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("failed to fetch snapshot, skipping pass", "error", err)
		return
	}

	// Detach so a shutdown mid-pass lets the pass finish writing state.
	transitions, err := r.service.Evaluate(context.WithoutCancel(ctx), snapshot)
	if err != nil {
		r.logger.Error("evaluation pass failed", "error", err)
		return
	}

	if len(transitions) > 0 {
		r.logger.Info("evaluation pass produced transitions", "count", len(transitions))
	}
}

// Stop halts the ticker and waits for the loop goroutine to exit.
// An in-flight pass runs to completion; only future ticks are canceled.
func (r *Runner) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}
