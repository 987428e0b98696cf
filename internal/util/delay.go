package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// Delayer pauses between steps that would otherwise hit the RPC provider
// back to back.
type Delayer interface {
	Delay(ctx context.Context, min, max time.Duration) error
}

type RandomDelay struct{}

func (RandomDelay) Delay(ctx context.Context, min, max time.Duration) error {
	return Sleep(ctx, RandomDuration(min, max))
}

// NoDelay returns immediately unless ctx is already done.
type NoDelay struct{}

func (NoDelay) Delay(ctx context.Context, _, _ time.Duration) error {
	return ctx.Err()
}

// RandomDuration draws uniformly from [min, max].
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
