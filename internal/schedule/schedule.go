// Package schedule fires sync runs on an interval. It sits outside the
// sync engine: the coordinator stays trigger-agnostic and the runner only
// observes run outcomes to decide when to fire next.
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/syncer"
)

// Trigger starts one sync run. Implemented by syncer.Coordinator.
type Trigger interface {
	TriggerSync(ctx context.Context) (*syncer.RunResult, error)
}

const defaultBackoffBase = 5 * time.Second

// Runner periodically triggers sync runs. Runs blocked by a precondition
// (no network, no session) retry on a fibonacci backoff capped at the
// regular interval; a successful run resets the backoff. A run already in
// flight is skipped quietly.
type Runner struct {
	trigger    Trigger
	interval   time.Duration
	logger     logging.Logger
	newBackoff func() retry.Backoff
}

func NewRunner(trigger Trigger, interval time.Duration, logger logging.Logger) *Runner {
	return &Runner{
		trigger:  trigger,
		interval: interval,
		logger:   logger.With("component", "schedule"),
		newBackoff: func() retry.Backoff {
			return retry.WithCappedDuration(interval, retry.NewFibonacci(defaultBackoffBase))
		},
	}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	backoff := r.newBackoff()
	delay := r.interval

	for {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		res, err := r.trigger.TriggerSync(ctx)
		switch {
		case errors.Is(err, common.ErrSyncInProgress):
			delay = r.interval
		case err != nil:
			next, stop := backoff.Next()
			if stop {
				next = r.interval
			}
			delay = next
			r.logger.Warn(ctx, "sync run blocked, backing off", "delay", delay, "error", err)
		default:
			backoff = r.newBackoff()
			delay = r.interval
			r.logger.Info(ctx, "scheduled sync finished", "outcome", res.Outcome())
		}
	}
}
