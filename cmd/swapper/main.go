package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vultisig/swapper/internal/account"
	chaincfg "github.com/vultisig/swapper/internal/config"
	"github.com/vultisig/swapper/internal/evm"
	"github.com/vultisig/swapper/internal/graceful"
	"github.com/vultisig/swapper/internal/logging"
	"github.com/vultisig/swapper/internal/metrics"
	"github.com/vultisig/swapper/internal/report"
	"github.com/vultisig/swapper/internal/retry"
	"github.com/vultisig/swapper/internal/swap"
	"github.com/vultisig/swapper/internal/uniswap"
	"github.com/vultisig/swapper/internal/util"
)

func main() {
	if err := start(); err != nil {
		logrus.Fatal(err)
	}
}

// start runs every account and reports setup errors or a failure count.
func start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogFormat, cfg.LogLevel)
	runID := logging.WithRunID(logger)

	go func() {
		sig := <-graceful.MakeSigintChan()
		logger.Infof("received exit signal: %v", sig)
		cancel()
	}()

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceSwapper}, logger)
	defer func() {
		if err := metricsServer.Stop(context.Background()); err != nil {
			logger.Errorf("failed to stop metrics server: %v", err)
		}
	}()

	profile, err := chaincfg.Load(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load chain profile: %w", err)
	}

	entries, err := account.LoadKeys(cfg.KeysPath)
	if err != nil {
		return fmt.Errorf("failed to load keys: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no keys in %s", cfg.KeysPath)
	}

	maxBaseFee, err := cfg.Gas.maxBaseFee()
	if err != nil {
		return fmt.Errorf("failed to parse gas config: %w", err)
	}

	r := &runner{
		cfg:        cfg,
		profile:    *profile,
		request:    cfg.Swap.request(),
		maxBaseFee: maxBaseFee,
		reporter:   report.NewLogrus(logger),
		metrics:    metrics.NewSwapperMetrics(),
	}

	logger.WithFields(logrus.Fields{
		"chain":    profile.Name,
		"accounts": len(entries),
		"from":     r.request.From,
		"to":       r.request.To,
		"run":      runID.String(),
	}).Info("starting swaps")

	var failed atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(cfg.Concurrency)
	for _, entry := range entries {
		g.Go(func() error {
			acct := account.New(entry.ID, entry.Key, r.profile)
			l := accountLogger(logger, acct)
			if er := r.run(ctx, acct, l); er != nil {
				failed.Add(1)
				l.Errorf("swap failed: %v", er)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d accounts failed", n, len(entries))
	}
	logger.Info("all accounts done")
	return nil
}

// accountLogger tags every line with the account id and address.
func accountLogger(logger logrus.FieldLogger, acct account.Account) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"account": acct.ID,
		"address": acct.Address.Hex(),
	})
}

type runner struct {
	cfg        config
	profile    chaincfg.ChainProfile
	request    swap.Request
	maxBaseFee *big.Int
	reporter   report.Reporter
	metrics    *metrics.SwapperMetrics
}

// run executes the configured swap for one account on its own connection.
func (r *runner) run(ctx context.Context, acct account.Account, logger *logrus.Entry) error {
	network, err := evm.NewNetwork(ctx, acct.RPC, evm.Options{
		GasMultiplier: r.cfg.Gas.Multiplier,
		PollInterval:  r.profile.Confirmation.PollInterval,
		MaxWait:       r.profile.Confirmation.MaxWait,
		ApprovePause:  [2]time.Duration{r.cfg.Retry.ApprovePauseMin, r.cfg.Retry.ApprovePauseMax},
		Delay:         util.RandomDelay{},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize network: %w", err)
	}
	if err := network.CheckChainID(ctx, r.profile.ChainID); err != nil {
		return err
	}
	logger.Debugf("initialized %s network with RPC: %s", r.profile.Name, acct.RPC)

	provider := uniswap.NewProviderV3(
		network.Client,
		ecommon.HexToAddress(r.profile.Contracts.Router),
		ecommon.HexToAddress(r.profile.Contracts.Factory),
		ecommon.HexToAddress(r.profile.Contracts.Quoter),
		r.profile.FeeTier,
	)
	swapper := swap.NewSwapper(network, provider, r.reporter, r.metrics, logger)
	gate := retry.NewGasGate(network.Fees, r.maxBaseFee, r.cfg.Gas.RecheckInterval, util.RandomDelay{}, r.metrics, logger)
	wrapper := retry.NewWrapper(gate, r.cfg.Retry.policy(), r.metrics, logger)

	var res swap.Result
	err = wrapper.Run(ctx, func(ctx context.Context) error {
		var er error
		res, er = swapper.Swap(ctx, acct, r.request)
		return er
	})
	if err != nil {
		if errors.Is(err, swap.ErrTxTimedOut) {
			r.reporter.Error(acct.ID, acct.Address, "Swap state unknown, check "+r.profile.TxURL(res.Hash.Hex())+" before running again")
		}
		return err
	}
	if res.Outcome == swap.OutcomeRouteNotFound {
		logger.Warn("no route, nothing swapped")
	}
	return nil
}
