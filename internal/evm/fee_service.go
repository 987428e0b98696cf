package evm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

const DefaultGasMultiplier = 1.2

var ErrNoBaseFee = errors.New("latest header has no base fee")

type FeeService struct {
	client     Client
	multiplier decimal.Decimal
}

// NewFeeService fails unless multiplier > 1, since the headroom is what keeps
// the max fee above the base fee at inclusion time.
func NewFeeService(client Client, multiplier float64) (*FeeService, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return nil, fmt.Errorf("gas multiplier must be finite, got %v", multiplier)
	}
	m := decimal.NewFromFloat(multiplier)
	if m.LessThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("gas multiplier must be > 1, got %s", m)
	}
	return &FeeService{
		client:     client,
		multiplier: m,
	}, nil
}

func (f *FeeService) BaseFee(ctx context.Context) (*big.Int, error) {
	hdr, err := f.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}
	if hdr.BaseFee == nil {
		return nil, ErrNoBaseFee
	}
	return new(big.Int).Set(hdr.BaseFee), nil
}

// Price attaches tip, max fee and gas limit to d:
//
//	tip    = suggestedTip * m
//	feeCap = (baseFee + tip) * m
//	gas    = estimateGas(d) * m
func (f *FeeService) Price(ctx context.Context, d Draft) (PricedTx, error) {
	suggested, err := f.client.SuggestGasTipCap(ctx)
	if err != nil {
		return PricedTx{}, fmt.Errorf("failed to get priority fee: %w", err)
	}
	baseFee, err := f.BaseFee(ctx)
	if err != nil {
		return PricedTx{}, err
	}

	estimate, err := f.client.EstimateGas(ctx, d.CallMsg())
	if err != nil {
		if isRevert(err) {
			return PricedTx{}, fmt.Errorf("%w: %v", ErrWouldRevert, err)
		}
		return PricedTx{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tip := f.scale(suggested)
	feeCap := f.scale(new(big.Int).Add(baseFee, tip))
	gas := f.scale(new(big.Int).SetUint64(estimate))
	if !gas.IsUint64() {
		return PricedTx{}, fmt.Errorf("gas limit overflow: %s", gas)
	}

	return PricedTx{
		Draft:  d,
		TipCap: tip,
		FeeCap: feeCap,
		Gas:    gas.Uint64(),
	}, nil
}

// scale multiplies and truncates. With m > 1 the result is never below v.
func (f *FeeService) scale(v *big.Int) *big.Int {
	return decimal.NewFromBigInt(v, 0).Mul(f.multiplier).BigInt()
}
