package main

import (
	"fmt"
	"math/big"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/vultisig/swapper/internal/logging"
	"github.com/vultisig/swapper/internal/metrics"
	"github.com/vultisig/swapper/internal/retry"
	"github.com/vultisig/swapper/internal/swap"
	"github.com/vultisig/swapper/internal/util"
)

type config struct {
	ConfigPath  string            `envconfig:"CONFIG_PATH" default:"configs/base.yaml"`
	KeysPath    string            `envconfig:"KEYS_PATH" required:"true"`
	LogFormat   logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel    string            `envconfig:"LOG_LEVEL" default:"info"`
	Concurrency int               `envconfig:"CONCURRENCY" default:"4"`
	Metrics     metrics.Config
	Swap        swapConfig
	Gas         gasConfig
	Retry       retryConfig
}

type swapConfig struct {
	From       string  `envconfig:"SWAP_FROM" default:"ETH"`
	To         string  `envconfig:"SWAP_TO" default:"DAI"`
	MinAmount  float64 `envconfig:"SWAP_MIN_AMOUNT" default:"0.0001"`
	MaxAmount  float64 `envconfig:"SWAP_MAX_AMOUNT" default:"0.0002"`
	Precision  int32   `envconfig:"SWAP_PRECISION" default:"6"`
	Slippage   float64 `envconfig:"SWAP_SLIPPAGE" default:"1"`
	AllAmount  bool    `envconfig:"SWAP_ALL_AMOUNT" default:"false"`
	MinPercent int     `envconfig:"SWAP_MIN_PERCENT" default:"10"`
	MaxPercent int     `envconfig:"SWAP_MAX_PERCENT" default:"90"`
}

type gasConfig struct {
	Multiplier      float64       `envconfig:"GAS_MULTIPLIER" default:"1.2"`
	MaxBaseFeeGwei  string        `envconfig:"MAX_BASE_FEE_GWEI"` // empty disables the gate
	RecheckInterval time.Duration `envconfig:"GAS_RECHECK_INTERVAL" default:"60s"`
}

type retryConfig struct {
	MaxAttempts     int           `envconfig:"RETRY_MAX_ATTEMPTS"` // zero values fall back to retry.DefaultPolicy
	MinBackoff      time.Duration `envconfig:"RETRY_MIN_BACKOFF"`
	MaxBackoff      time.Duration `envconfig:"RETRY_MAX_BACKOFF"`
	ApprovePauseMin time.Duration `envconfig:"APPROVE_PAUSE_MIN" default:"5s"`
	ApprovePauseMax time.Duration `envconfig:"APPROVE_PAUSE_MAX" default:"20s"`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	if cfg.Concurrency < 1 {
		return config{}, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	return cfg, nil
}

func (c swapConfig) request() swap.Request {
	return swap.Request{
		From: c.From,
		To:   c.To,
		Amount: swap.AmountSpec{
			Min:        c.MinAmount,
			Max:        c.MaxAmount,
			Precision:  c.Precision,
			UseBalance: c.AllAmount,
			MinPercent: c.MinPercent,
			MaxPercent: c.MaxPercent,
		},
		Slippage: c.Slippage,
	}
}

// maxBaseFee returns the gas gate ceiling in wei, nil when unset.
func (c gasConfig) maxBaseFee() (*big.Int, error) {
	if c.MaxBaseFeeGwei == "" {
		return nil, nil
	}
	wei, err := util.ToBaseUnits(c.MaxBaseFeeGwei, 9)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_BASE_FEE_GWEI: %w", err)
	}
	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("MAX_BASE_FEE_GWEI must be positive, got %s", c.MaxBaseFeeGwei)
	}
	return wei, nil
}

func (c retryConfig) policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.MaxAttempts,
		MinBackoff:  c.MinBackoff,
		MaxBackoff:  c.MaxBackoff,
	}.WithDefaults()
}
