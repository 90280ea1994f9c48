package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, cfg), mr
}

func TestLoginThrottleBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		MaxAttempts: 3,
		Cooldown:    time.Minute,
	})
	ctx := context.Background()

	if err := l.CheckLogin(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("fresh identifier throttled: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := l.IncrementLogin(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
	}
	if err := l.CheckLogin(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("at-budget identifier throttled early: %v", err)
	}

	if err := l.IncrementLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on overflow, got %v", err)
	}
	if err := l.CheckLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// A different identifier has its own budget.
	if err := l.CheckLogin(ctx, "bob@example.com", ""); err != nil {
		t.Fatalf("unrelated identifier throttled: %v", err)
	}
}

func TestLoginThrottleWindowExpiry(t *testing.T) {
	l, mr := newTestLimiter(t, Config{
		MaxAttempts: 1,
		Cooldown:    time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = l.IncrementLogin(ctx, "alice@example.com", "")
	}
	if err := l.CheckLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.CheckLogin(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("window did not expire: %v", err)
	}
}

func TestLoginThrottlePerIP(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		EnableIPThrottle: true,
		MaxAttempts:      2,
		Cooldown:         time.Minute,
	})
	ctx := context.Background()

	// Exhaust the budget from one IP spraying distinct identifiers.
	for _, id := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_ = l.IncrementLogin(ctx, id, "10.0.0.1")
	}

	if err := l.CheckLogin(ctx, "other@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected per-IP throttle, got %v", err)
	}
	if err := l.CheckLogin(ctx, "other@example.com", "10.0.0.2"); err != nil {
		t.Fatalf("unrelated IP throttled: %v", err)
	}
}

func TestResetLoginClearsCounters(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		EnableIPThrottle: true,
		MaxAttempts:      1,
		Cooldown:         time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = l.IncrementLogin(ctx, "alice@example.com", "10.0.0.1")
	}
	if err := l.CheckLogin(ctx, "alice@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	if err := l.ResetLogin(ctx, "alice@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if err := l.CheckLogin(ctx, "alice@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("reset did not clear counters: %v", err)
	}
}

func TestGetLoginAttempts(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		MaxAttempts: 5,
		Cooldown:    time.Minute,
	})
	ctx := context.Background()

	count, err := l.GetLoginAttempts(ctx, "alice@example.com")
	if err != nil || count != 0 {
		t.Fatalf("fresh identifier: count=%d err=%v", count, err)
	}

	for i := 0; i < 2; i++ {
		_ = l.IncrementLogin(ctx, "alice@example.com", "")
	}
	count, err = l.GetLoginAttempts(ctx, "alice@example.com")
	if err != nil || count != 2 {
		t.Fatalf("count=%d err=%v", count, err)
	}
}

func TestLimiterRedisOutage(t *testing.T) {
	l, mr := newTestLimiter(t, Config{
		MaxAttempts: 5,
		Cooldown:    time.Minute,
	})
	ctx := context.Background()

	mr.Close()

	if err := l.CheckLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := l.IncrementLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
