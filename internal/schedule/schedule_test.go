package schedule

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/syncer"
)

type fakeTrigger struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (f *fakeTrigger) TriggerSync(ctx context.Context) (*syncer.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if f.calls < len(f.errs) {
		err = f.errs[f.calls]
	}
	f.calls++
	if err != nil {
		return &syncer.RunResult{Err: err}, err
	}
	return &syncer.RunResult{}, nil
}

func (f *fakeTrigger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestRunner(trigger Trigger, interval time.Duration) *Runner {
	r := NewRunner(trigger, interval, testLogger())
	r.newBackoff = func() retry.Backoff {
		return retry.WithCappedDuration(interval, retry.NewFibonacci(time.Millisecond))
	}
	return r
}

func TestRunner_FiresRepeatedly(t *testing.T) {
	trigger := &fakeTrigger{}
	r := newTestRunner(trigger, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	assert.GreaterOrEqual(t, trigger.count(), 3)
}

func TestRunner_KeepsGoingAfterBlockedRuns(t *testing.T) {
	trigger := &fakeTrigger{errs: []error{common.ErrNoNetwork, common.ErrNoNetwork, common.ErrNoSession}}
	r := newTestRunner(trigger, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	// All injected failures consumed, plus at least one clean run after.
	assert.Greater(t, trigger.count(), 3)
}

func TestRunner_SkipsWhenRunInFlight(t *testing.T) {
	trigger := &fakeTrigger{errs: []error{common.ErrSyncInProgress}}
	r := newTestRunner(trigger, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	assert.Greater(t, trigger.count(), 1)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	trigger := &fakeTrigger{}
	r := newTestRunner(trigger, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on cancel")
	}
	require.Zero(t, trigger.count())
}
