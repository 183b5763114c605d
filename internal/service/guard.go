package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/spec-kit/registration-service/internal/config"
)

// AntiEnumerationGuard makes operations keyed by "does this email exist"
// observationally uniform. When the wrapped operation took the miss
// branch, the guard burns a randomized delay sized to the typical cost of
// the real lookup-and-issue path before returning, so response shape and
// timing do not disclose existence.
type AntiEnumerationGuard struct {
	minDelay time.Duration
	maxDelay time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewAntiEnumerationGuard builds a guard with the configured delay bounds.
func NewAntiEnumerationGuard(cfg config.GuardConfig) *AntiEnumerationGuard {
	minDelay := time.Duration(cfg.MinDelayMillis) * time.Millisecond
	maxDelay := time.Duration(cfg.MaxDelayMillis) * time.Millisecond
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &AntiEnumerationGuard{
		minDelay: minDelay,
		maxDelay: maxDelay,
		sleep:    sleepCtx,
	}
}

// Shield runs op and equalizes the miss branch. op reports whether the
// subject existed; infrastructure errors pass through untouched since
// they occur on either branch.
func (g *AntiEnumerationGuard) Shield(ctx context.Context, op func(ctx context.Context) (bool, error)) error {
	found, err := op(ctx)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return g.delay(ctx)
}

func (g *AntiEnumerationGuard) delay(ctx context.Context) error {
	span := int64(g.maxDelay-g.minDelay) + 1
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return err
	}
	return g.sleep(ctx, g.minDelay+time.Duration(n.Int64()))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
