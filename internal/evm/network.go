package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/swapper/internal/status"
	"github.com/vultisig/swapper/internal/util"
)

var ErrChainMismatch = errors.New("chain id mismatch")

type Options struct {
	GasMultiplier float64
	PollInterval  time.Duration
	MaxWait       time.Duration
	ApprovePause  [2]time.Duration
	Delay         util.Delayer
}

// Network bundles the services one account needs on its own connection.
type Network struct {
	Client   Client
	Builder  *TxBuilder
	Fees     *FeeService
	Signer   *SignerService
	Approve  *ApproveService
	Balance  *BalanceService
	Decimals *DecimalsService
	Status   *status.Status
}

func NewNetwork(ctx context.Context, rpcURL string, opts Options, logger logrus.FieldLogger) (*Network, error) {
	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return NewNetworkWithClient(rpc, opts, logger)
}

func NewNetworkWithClient(client Client, opts Options, logger logrus.FieldLogger) (*Network, error) {
	if opts.GasMultiplier == 0 {
		opts.GasMultiplier = DefaultGasMultiplier
	}
	if opts.Delay == nil {
		opts.Delay = util.RandomDelay{}
	}

	fees, err := NewFeeService(client, opts.GasMultiplier)
	if err != nil {
		return nil, err
	}

	builder := NewTxBuilder(client)
	signer := NewSignerService(client, fees, logger)
	st := status.NewStatus(client, opts.PollInterval, opts.MaxWait, logger)

	return &Network{
		Client:  client,
		Builder: builder,
		Fees:    fees,
		Signer:  signer,
		Approve: NewApproveService(
			client,
			builder,
			signer,
			st,
			opts.Delay,
			opts.ApprovePause[0],
			opts.ApprovePause[1],
			logger,
		),
		Balance:  NewBalanceService(client),
		Decimals: NewDecimalsService(client),
		Status:   st,
	}, nil
}

// CheckChainID fails when the node serves a chain other than want. A zero
// want accepts any chain.
func (n *Network) CheckChainID(ctx context.Context, want uint64) error {
	if want == 0 {
		return nil
	}
	got, err := n.Client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if !got.IsUint64() || got.Uint64() != want {
		return fmt.Errorf("%w: node serves %s, profile expects %d", ErrChainMismatch, got, want)
	}
	return nil
}
