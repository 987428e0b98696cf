package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// scriptedReader returns the scripted responses in order and repeats the
// last one forever.
type scriptedReader struct {
	steps []func() (*types.Receipt, error)
	polls int
}

func (r *scriptedReader) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	i := r.polls
	if i >= len(r.steps) {
		i = len(r.steps) - 1
	}
	r.polls++
	return r.steps[i]()
}

func receipt(status uint64) func() (*types.Receipt, error) {
	return func() (*types.Receipt, error) { return &types.Receipt{Status: status}, nil }
}

func notFound() (*types.Receipt, error) { return nil, ethereum.NotFound }

func newTestStatus(r ReceiptReader, poll, maxWait time.Duration) (*Status, *fakeClock) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	return NewStatus(r, poll, maxWait, logger).WithClock(clock), clock
}

func TestWaitMined(t *testing.T) {
	hash := common.HexToHash("0x01")

	t.Run("success on first poll", func(t *testing.T) {
		r := &scriptedReader{steps: []func() (*types.Receipt, error){receipt(types.ReceiptStatusSuccessful)}}
		s, clock := newTestStatus(r, time.Second, time.Minute)
		start := clock.now

		res, err := s.WaitMined(context.Background(), hash)
		require.NoError(t, err)
		require.Equal(t, Success, res)
		require.Equal(t, 1, r.polls)
		require.Equal(t, start, clock.now)
	})

	t.Run("failure status returns immediately", func(t *testing.T) {
		r := &scriptedReader{steps: []func() (*types.Receipt, error){receipt(types.ReceiptStatusFailed)}}
		s, _ := newTestStatus(r, time.Second, time.Minute)

		res, err := s.WaitMined(context.Background(), hash)
		require.NoError(t, err)
		require.Equal(t, Failed, res)
		require.Equal(t, 1, r.polls)
	})

	t.Run("mined after a few polls", func(t *testing.T) {
		r := &scriptedReader{steps: []func() (*types.Receipt, error){
			notFound,
			notFound,
			receipt(types.ReceiptStatusSuccessful),
		}}
		s, _ := newTestStatus(r, time.Second, time.Minute)

		res, err := s.WaitMined(context.Background(), hash)
		require.NoError(t, err)
		require.Equal(t, Success, res)
		require.Equal(t, 3, r.polls)
	})

	t.Run("times out exactly at max wait", func(t *testing.T) {
		r := &scriptedReader{steps: []func() (*types.Receipt, error){notFound}}
		s, clock := newTestStatus(r, time.Second, 5*time.Second)
		start := clock.now

		res, err := s.WaitMined(context.Background(), hash)
		require.NoError(t, err)
		require.Equal(t, TimedOut, res)
		require.Equal(t, 5*time.Second, clock.now.Sub(start))
		require.Equal(t, 6, r.polls)
	})

	t.Run("last sleep is clamped to max wait", func(t *testing.T) {
		r := &scriptedReader{steps: []func() (*types.Receipt, error){notFound}}
		s, clock := newTestStatus(r, 2*time.Second, 5*time.Second)
		start := clock.now

		res, err := s.WaitMined(context.Background(), hash)
		require.NoError(t, err)
		require.Equal(t, TimedOut, res)
		require.Equal(t, 5*time.Second, clock.now.Sub(start))
	})

	t.Run("transient errors keep polling", func(t *testing.T) {
		r := &scriptedReader{steps: []func() (*types.Receipt, error){
			func() (*types.Receipt, error) { return nil, errors.New("connection reset by peer") },
			receipt(types.ReceiptStatusSuccessful),
		}}
		s, _ := newTestStatus(r, time.Second, time.Minute)

		res, err := s.WaitMined(context.Background(), hash)
		require.NoError(t, err)
		require.Equal(t, Success, res)
		require.Equal(t, 2, r.polls)
	})

	t.Run("zero max wait reports not found", func(t *testing.T) {
		r := &scriptedReader{steps: []func() (*types.Receipt, error){notFound}}
		s, _ := newTestStatus(r, time.Second, 0)

		res, err := s.WaitMined(context.Background(), hash)
		require.NoError(t, err)
		require.Equal(t, NotFound, res)
		require.Equal(t, 1, r.polls)
	})
}

func TestWaitMined_Cancelled(t *testing.T) {
	r := &scriptedReader{steps: []func() (*types.Receipt, error){notFound}}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	s := NewStatus(r, time.Hour, 24*time.Hour, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	var err error
	go func() {
		_, err = s.WaitMined(ctx, common.HexToHash("0x02"))
		close(done)
	}()

	select {
	case <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitMined did not return after cancellation")
	}
}

func TestWaitMined_LookupWarningFields(t *testing.T) {
	r := &scriptedReader{steps: []func() (*types.Receipt, error){
		func() (*types.Receipt, error) { return nil, errors.New("connection reset by peer") },
		receipt(types.ReceiptStatusSuccessful),
	}}
	base, hook := test.NewNullLogger()
	l := base.WithFields(logrus.Fields{"account": 2, "address": "0xdef"})
	s := NewStatus(r, time.Second, time.Minute, l).WithClock(&fakeClock{now: time.Unix(1_700_000_000, 0)})

	res, err := s.WaitMined(context.Background(), common.HexToHash("0x03"))
	require.NoError(t, err)
	require.Equal(t, Success, res)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, "receipt lookup failed, retrying", entry.Message)
	require.Equal(t, 2, entry.Data["account"])
	require.Equal(t, "0xdef", entry.Data["address"])
}
