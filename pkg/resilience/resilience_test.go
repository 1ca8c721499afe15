package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiterAllowExhaustsBurst(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 2})
	if !l.Allow() || !l.Allow() {
		t.Fatal("burst tokens should be available")
	}
	if l.Allow() {
		t.Fatal("third call should be limited")
	}
}

func TestLimiterCall(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 1})
	calls := 0
	f := func(context.Context) error { calls++; return nil }

	if err := l.Call(context.Background(), f); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := l.Call(context.Background(), f); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("limited call must not run f, calls=%d", calls)
	}
}

func TestLimiterDefaultBurst(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 1})
	if !l.Allow() {
		t.Fatal("burst should default to 1, first call allowed")
	}
}

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	fail := func(context.Context) error { return errors.New("boom") }

	ctx := context.Background()
	b.Call(ctx, fail)
	b.Call(ctx, fail)

	if st := b.State(); st != StateOpen {
		t.Fatalf("expected open, got %s", st)
	}
	if err := b.Call(ctx, fail); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})
	clock := time.Now()
	b.now = func() time.Time { return clock }

	ctx := context.Background()
	b.Call(ctx, func(context.Context) error { return errors.New("boom") })
	if st := b.State(); st != StateOpen {
		t.Fatalf("expected open, got %s", st)
	}

	clock = clock.Add(2 * time.Minute)
	if err := b.Call(ctx, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("probe call should pass: %v", err)
	}
	if st := b.State(); st != StateClosed {
		t.Fatalf("successful probe should close breaker, got %s", st)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})
	clock := time.Now()
	b.now = func() time.Time { return clock }

	ctx := context.Background()
	b.Call(ctx, func(context.Context) error { return errors.New("boom") })
	clock = clock.Add(2 * time.Minute)
	b.Call(ctx, func(context.Context) error { return errors.New("still down") })

	if st := b.State(); st != StateOpen {
		t.Fatalf("failed probe should reopen, got %s", st)
	}
}
