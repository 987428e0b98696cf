package status

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// Result is the terminal state of a broadcast tx as seen by the watcher.
type Result string

const (
	Success  Result = "confirmed-success"
	Failed   Result = "confirmed-failure"
	TimedOut Result = "timed-out"
	NotFound Result = "not-found"
)

type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type Status struct {
	caller       ReceiptReader
	pollInterval time.Duration
	maxWait      time.Duration
	clock        Clock
	logger       *logrus.Entry
}

func NewStatus(caller ReceiptReader, pollInterval, maxWait time.Duration, logger logrus.FieldLogger) *Status {
	return &Status{
		caller:       caller,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		clock:        realClock{},
		logger:       logger.WithField("pkg", "status.Status"),
	}
}

func (s *Status) WithClock(c Clock) *Status {
	cp := *s
	cp.clock = c
	return &cp
}

// WaitMined polls for the receipt of txHash until it lands or maxWait runs
// out. It never resubmits. Receipt lookup errors other than not-found are
// treated as transient and polling continues. With maxWait == 0 a single
// lookup is made and NotFound is returned if there is no receipt yet.
func (s *Status) WaitMined(ctx context.Context, txHash common.Hash) (Result, error) {
	start := s.clock.Now()

	for {
		receipt, err := s.caller.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusSuccessful {
				return Success, nil
			}
			return Failed, nil
		case err != nil && ctx.Err() != nil:
			return "", ctx.Err()
		case err != nil && !errors.Is(err, ethereum.NotFound):
			s.logger.WithError(err).WithField("hash", txHash.Hex()).Warn("receipt lookup failed, retrying")
		}

		if s.maxWait <= 0 {
			return NotFound, nil
		}

		elapsed := s.clock.Now().Sub(start)
		if elapsed >= s.maxWait {
			return TimedOut, nil
		}

		wait := s.pollInterval
		if left := s.maxWait - elapsed; wait > left {
			wait = left
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-s.clock.After(wait):
		}
	}
}
