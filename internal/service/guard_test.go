package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/registration-service/internal/config"
)

func newTestGuard(minMillis, maxMillis int) (*AntiEnumerationGuard, *[]time.Duration) {
	g := NewAntiEnumerationGuard(config.GuardConfig{MinDelayMillis: minMillis, MaxDelayMillis: maxMillis})
	var slept []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return g, &slept
}

func TestGuardSleepsOnMiss(t *testing.T) {
	g, slept := newTestGuard(20, 40)

	for i := 0; i < 50; i++ {
		err := g.Shield(context.Background(), func(context.Context) (bool, error) {
			return false, nil
		})
		if err != nil {
			t.Fatalf("Shield failed: %v", err)
		}
	}

	if len(*slept) != 50 {
		t.Fatalf("expected 50 delays, got %d", len(*slept))
	}
	for _, d := range *slept {
		if d < 20*time.Millisecond || d > 40*time.Millisecond {
			t.Fatalf("delay %v outside the configured bounds", d)
		}
	}
}

func TestGuardSkipsDelayOnHit(t *testing.T) {
	g, slept := newTestGuard(20, 40)

	err := g.Shield(context.Background(), func(context.Context) (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("Shield failed: %v", err)
	}
	if len(*slept) != 0 {
		t.Fatal("hit branch must not be delayed")
	}
}

func TestGuardPassesErrorsThrough(t *testing.T) {
	g, slept := newTestGuard(20, 40)
	boom := errors.New("backend down")

	err := g.Shield(context.Background(), func(context.Context) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the operation error, got %v", err)
	}
	if len(*slept) != 0 {
		t.Fatal("infrastructure errors are not equalized")
	}
}

func TestGuardHonorsCancellation(t *testing.T) {
	g := NewAntiEnumerationGuard(config.GuardConfig{MinDelayMillis: 5000, MaxDelayMillis: 5000})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Shield(ctx, func(context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
