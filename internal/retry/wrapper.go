package retry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/swapper/internal/metrics"
)

// Wrapper brackets an operation with the gas gate and the retry policy. The
// gate is checked again before every attempt.
type Wrapper struct {
	gate    *GasGate
	policy  Policy
	metrics *metrics.SwapperMetrics
	logger  *logrus.Entry
}

func NewWrapper(gate *GasGate, policy Policy, m *metrics.SwapperMetrics, logger logrus.FieldLogger) *Wrapper {
	return &Wrapper{
		gate:    gate,
		policy:  policy,
		metrics: m,
		logger:  logger.WithField("pkg", "retry.Wrapper"),
	}
}

func (w *Wrapper) Run(ctx context.Context, op func(ctx context.Context) error) error {
	return Do(ctx, w.policy, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			w.metrics.RecordRetry()
			w.logger.Infof("attempt %d of %d", attempt, w.policy.MaxAttempts)
		}

		if w.gate != nil {
			if err := w.gate.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return Permanent(err)
				}
				return fmt.Errorf("gas gate: %w", err)
			}
		}

		err := op(ctx)
		if err != nil && !IsPermanent(err) {
			if ctx.Err() != nil {
				return Permanent(err)
			}
			w.logger.WithError(err).Warnf("attempt %d failed", attempt)
		}
		return err
	})
}
