package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "test:ratelimit", limit, window)
	if err != nil {
		t.Fatalf("NewRedisFixedWindowLimiter() error = %v", err)
	}
	t.Cleanup(func() { limiter.Close() })
	return limiter, mr
}

func TestAllow_BlocksAfterLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		ok, err := limiter.Allow(ctx, "user-1")
		if err != nil || !ok {
			t.Fatalf("hit %d: Allow() = %v, %v; want true, nil", i, ok, err)
		}
	}

	ok, err := limiter.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if ok {
		t.Fatal("third hit should be blocked")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "user-a"); !ok {
		t.Fatal("user-a first hit should pass")
	}
	if ok, _ := limiter.Allow(ctx, "user-b"); !ok {
		t.Fatal("user-b must not share user-a's quota")
	}
}

func TestAllow_NewWindowResets(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if ok, _ := limiter.Allow(ctx, "user-1"); !ok {
		t.Fatal("first hit should pass")
	}
	if ok, _ := limiter.Allow(ctx, "user-1"); ok {
		t.Fatal("second hit in the same window should be blocked")
	}

	now = now.Add(time.Minute)
	if ok, _ := limiter.Allow(ctx, "user-1"); !ok {
		t.Fatal("first hit in the next window should pass")
	}
}

func TestAllow_SetsExpiry(t *testing.T) {
	limiter, mr := newTestLimiter(t, 5, time.Minute)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if _, err := limiter.Allow(context.Background(), "user-1"); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("redis keys = %v, want exactly one", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want (0, 1m]", ttl)
	}
}

func TestAllow_FailsClosed(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Second)
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "user-1")

	if ok {
		t.Fatal("limiter should fail closed on redis errors")
	}
	if err == nil {
		t.Fatal("Allow() should report the redis error")
	}
}

func TestNewRedisFixedWindowLimiter_Validation(t *testing.T) {
	tests := []struct {
		name   string
		addr   string
		limit  int
		window time.Duration
	}{
		{"empty addr", "", 1, time.Second},
		{"zero limit", "localhost:6379", 0, time.Second},
		{"zero window", "localhost:6379", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := NewRedisFixedWindowLimiter(tt.addr, "", "p", tt.limit, tt.window)
			if err == nil || limiter != nil {
				t.Fatalf("expected constructor error, got limiter=%v err=%v", limiter, err)
			}
		})
	}
}
