package retry

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/swapper/internal/metrics"
	"github.com/vultisig/swapper/internal/util"
)

const DefaultRecheckInterval = 60 * time.Second

type BaseFeeReader interface {
	BaseFee(ctx context.Context) (*big.Int, error)
}

// GasGate blocks while the latest base fee is above maxBaseFee.
type GasGate struct {
	fees       BaseFeeReader
	maxBaseFee *big.Int
	interval   time.Duration
	delay      util.Delayer
	metrics    *metrics.SwapperMetrics
	logger     *logrus.Entry
}

// NewGasGate returns a gate; a nil maxBaseFee lets every attempt through.
func NewGasGate(
	fees BaseFeeReader,
	maxBaseFee *big.Int,
	interval time.Duration,
	delay util.Delayer,
	m *metrics.SwapperMetrics,
	logger logrus.FieldLogger,
) *GasGate {
	if interval <= 0 {
		interval = DefaultRecheckInterval
	}
	if delay == nil {
		delay = util.RandomDelay{}
	}
	return &GasGate{
		fees:       fees,
		maxBaseFee: maxBaseFee,
		interval:   interval,
		delay:      delay,
		metrics:    m,
		logger:     logger.WithField("pkg", "retry.GasGate"),
	}
}

func (g *GasGate) Wait(ctx context.Context) error {
	if g.maxBaseFee == nil {
		return nil
	}

	for {
		fee, err := g.fees.BaseFee(ctx)
		if err != nil {
			return fmt.Errorf("failed to read base fee: %w", err)
		}
		if fee.Cmp(g.maxBaseFee) <= 0 {
			return nil
		}

		g.metrics.RecordGasWait()
		g.logger.WithFields(logrus.Fields{
			"base_fee_gwei": util.FromBaseUnits(fee, 9),
			"max_gwei":      util.FromBaseUnits(g.maxBaseFee, 9),
		}).Infof("base fee above ceiling, rechecking in %s", g.interval)

		if err := g.delay.Delay(ctx, g.interval, g.interval); err != nil {
			return err
		}
	}
}
