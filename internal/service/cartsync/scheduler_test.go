package cartsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

type countingPusher struct {
	mu    sync.Mutex
	calls int
	err   error
	ch    chan struct{}
}

func newCountingPusher() *countingPusher {
	return &countingPusher{ch: make(chan struct{}, 16)}
}

func (p *countingPusher) SyncNow(context.Context) (domain.SyncResult, error) {
	p.mu.Lock()
	p.calls++
	err := p.err
	p.mu.Unlock()
	p.ch <- struct{}{}
	return domain.SyncResult{RequestID: "req"}, err
}

func (p *countingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func waitPush(t *testing.T, p *countingPusher) {
	t.Helper()
	select {
	case <-p.ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for periodic sync")
	}
}

func TestScheduler_PushesEveryInterval(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	pusher := newCountingPusher()
	scheduler := NewScheduler(pusher, WithClock(clock))
	if scheduler.Interval() != DefaultInterval {
		t.Fatalf("expected default interval %s, got %s", DefaultInterval, scheduler.Interval())
	}

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("scheduler did not create ticker: %v", err)
	}

	if got := pusher.count(); got != 0 {
		t.Fatalf("expected no sync before first interval, got %d", got)
	}

	clock.Advance(DefaultInterval)
	waitPush(t, pusher)
	clock.Advance(DefaultInterval)
	waitPush(t, pusher)

	if got := pusher.count(); got != 2 {
		t.Fatalf("expected 2 periodic syncs, got %d", got)
	}
}

func TestScheduler_FailureDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	pusher := newCountingPusher()
	pusher.err = errors.New("server unreachable")
	scheduler := NewScheduler(pusher, WithClock(clock), WithInterval(time.Second))

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("scheduler did not create ticker: %v", err)
	}

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		waitPush(t, pusher)
	}
	if got := pusher.count(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestScheduler_StopHaltsPushes(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	pusher := newCountingPusher()
	scheduler := NewScheduler(pusher, WithClock(clock), WithInterval(time.Second))

	scheduler.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("scheduler did not create ticker: %v", err)
	}

	scheduler.Stop()
	scheduler.Stop()

	clock.Advance(5 * time.Second)
	if got := pusher.count(); got != 0 {
		t.Fatalf("expected no syncs after stop, got %d", got)
	}
}

func TestScheduler_NilPusherReturnsImmediately(t *testing.T) {
	t.Parallel()

	scheduler := NewScheduler(nil, WithClock(clockwork.NewFakeClock()))
	done := make(chan struct{})
	go func() {
		scheduler.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to return for nil pusher")
	}
}
