package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "brief"); err != nil {
		t.Errorf("expected first wait for brief to pass, got %v", err)
	}
	if err := limiter.Wait(ctx, "other"); err != nil {
		t.Errorf("expected a different key to have its own budget, got %v", err)
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	if err := limiter.Wait(context.Background(), "brief"); err != nil {
		t.Fatalf("expected burst to cover the first wait, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "brief"); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}

func TestLimiter_BurstPassesWithoutDelay(t *testing.T) {
	limiter := NewLimiter(0.001, 3)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, "brief"); err != nil {
			t.Fatalf("expected wait %d to be covered by the burst, got %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("expected burst to pass immediately, took %v", elapsed)
	}
}
