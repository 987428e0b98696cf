package uniswap

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vultisig/swapper/internal/evm"
)

var (
	//go:embed abi/factory.json
	factoryJSON string
	//go:embed abi/quoter.json
	quoterJSON string
	//go:embed abi/router.json
	routerJSON string

	FactoryABI = evm.MustParseABI(factoryJSON)
	QuoterABI  = evm.MustParseABI(quoterJSON)
	RouterABI  = evm.MustParseABI(routerJSON)
)

// AddressThis tells the router to keep swap output on itself, so a following
// unwrapWETH9 in the same multicall can pay it out as native.
var AddressThis = common.HexToAddress("0x0000000000000000000000000000000000000002")

// ErrRouteNotFound means the factory has no pool for the pair at the fee tier.
var ErrRouteNotFound = errors.New("route not found")

const txDeadline = 1_000_000 * time.Second

type Quote struct {
	AmountIn     *big.Int
	AmountOut    *big.Int
	MinAmountOut *big.Int
	FetchedAt    time.Time
}

type quoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

type ProviderV3 struct {
	rpc     evm.Client
	router  common.Address
	factory common.Address
	quoter  common.Address
	feeTier *big.Int
	now     func() time.Time
}

func NewProviderV3(rpc evm.Client, router, factory, quoter common.Address, feeTier uint32) *ProviderV3 {
	return &ProviderV3{
		rpc:     rpc,
		router:  router,
		factory: factory,
		quoter:  quoter,
		feeTier: new(big.Int).SetUint64(uint64(feeTier)),
		now:     time.Now,
	}
}

func (p *ProviderV3) Router() common.Address {
	return p.router
}

// Pool returns the pool for the pair at the configured fee tier, or
// ErrRouteNotFound when the factory reports the zero address.
func (p *ProviderV3) Pool(ctx context.Context, tokenIn, tokenOut common.Address) (common.Address, error) {
	out, err := evm.CallReadonly(ctx, p.rpc, FactoryABI, p.factory, "getPool", tokenIn, tokenOut, p.feeTier)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get pool: %w", err)
	}
	pool, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected getPool result type %T", out[0])
	}
	if pool == (common.Address{}) {
		return common.Address{}, ErrRouteNotFound
	}
	return pool, nil
}

// Quote asks the quoter for the exact-input output and deducts slippage.
// It is a point-in-time read and must be refetched before every swap.
func (p *ProviderV3) Quote(
	ctx context.Context,
	tokenIn, tokenOut common.Address,
	amountIn *big.Int,
	slippageBips uint64,
) (Quote, error) {
	if slippageBips > bipsTotal {
		return Quote{}, fmt.Errorf("slippage %d bips out of range", slippageBips)
	}

	out, err := evm.CallReadonly(ctx, p.rpc, QuoterABI, p.quoter, "quoteExactInputSingle", quoteParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               p.feeTier,
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return Quote{}, fmt.Errorf("failed to compute amount out: %w", err)
	}
	amountOut, ok := out[0].(*big.Int)
	if !ok {
		return Quote{}, fmt.Errorf("unexpected quote result type %T", out[0])
	}

	return Quote{
		AmountIn:     amountIn,
		AmountOut:    amountOut,
		MinAmountOut: deductSlippage(amountOut, slippageBips),
		FetchedAt:    p.now(),
	}, nil
}

// ExactInputSingle encodes a router swap leg.
func (p *ProviderV3) ExactInputSingle(
	tokenIn, tokenOut, recipient common.Address,
	amountIn, minAmountOut *big.Int,
) ([]byte, error) {
	return RouterABI.Pack("exactInputSingle", exactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               p.feeTier,
		Recipient:         recipient,
		AmountIn:          amountIn,
		AmountOutMinimum:  minAmountOut,
		SqrtPriceLimitX96: big.NewInt(0),
	})
}

func (p *ProviderV3) UnwrapWETH9(minAmount *big.Int, recipient common.Address) ([]byte, error) {
	return RouterABI.Pack("unwrapWETH9", minAmount, recipient)
}

// Multicall bundles calls into one router tx that reverts as a whole.
func (p *ProviderV3) Multicall(calls [][]byte) ([]byte, error) {
	deadline := big.NewInt(p.now().Add(txDeadline).Unix())
	return RouterABI.Pack("multicall", deadline, calls)
}

const bipsTotal = 10000

// SlippageBips converts a percentage in [0, 100] to basis points.
func SlippageBips(percent float64) (uint64, error) {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return 0, fmt.Errorf("slippage %v%% out of range [0, 100]", percent)
	}
	return uint64(decimal.NewFromFloat(percent).Mul(decimal.NewFromInt(100)).IntPart()), nil
}

func deductSlippage(amount *big.Int, slippageBips uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}

	total := big.NewInt(bipsTotal)
	slippageBig := new(big.Int).SetUint64(slippageBips)

	// amount * (10000 - slippageBips) / 10000
	multiplier := new(big.Int).Sub(total, slippageBig)
	result := new(big.Int).Mul(amount, multiplier)
	result.Div(result, total)

	return result
}
