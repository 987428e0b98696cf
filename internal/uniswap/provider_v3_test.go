package uniswap

import (
	"context"
	"errors"
	"math"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/swapper/internal/evm/evmtest"
)

var (
	router  = common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481")
	factory = common.HexToAddress("0x33128a8fC17869897dcE68Ed026d694621f6FDfD")
	quoter  = common.HexToAddress("0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a")
	weth    = common.HexToAddress("0x4200000000000000000000000000000000000006")
	dai     = common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb")
	pool    = common.HexToAddress("0x9999999999999999999999999999999999999999")
	wallet  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
)

func field(v any, name string) any {
	return reflect.ValueOf(v).FieldByName(name).Interface()
}

func TestTruncSlippage(t *testing.T) {
	tests := []struct {
		name         string
		amount       *big.Int
		slippageBips uint64
		expected     *big.Int
	}{
		{
			name:         "5% slippage (500 bips)",
			amount:       big.NewInt(1000),
			slippageBips: 500,
			expected:     big.NewInt(950),
		},
		{
			name:         "fractional result",
			amount:       big.NewInt(999),
			slippageBips: 100,             // 1%
			expected:     big.NewInt(989), // 999 * 0.99 = 989.01, truncated to 989
		},
		{
			name:         "zero slippage keeps amount",
			amount:       big.NewInt(12345),
			slippageBips: 0,
			expected:     big.NewInt(12345),
		},
		{
			name:         "full slippage accepts nothing",
			amount:       big.NewInt(12345),
			slippageBips: 10000,
			expected:     big.NewInt(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := deductSlippage(tt.amount, tt.slippageBips)
			if result.Cmp(tt.expected) != 0 {
				t.Errorf("deductSlippage(%v, %v) = %v, expected %v",
					tt.amount, tt.slippageBips, result, tt.expected)
			}
		})
	}
}

func TestDeductSlippage_WholePercents(t *testing.T) {
	expected, _ := new(big.Int).SetString("1000000000000000000001", 10)

	for s := uint64(0); s <= 100; s++ {
		bips, err := SlippageBips(float64(s))
		require.NoError(t, err)
		require.Equal(t, s*100, bips)

		// floor(E * (100 - s) / 100)
		want := new(big.Int).Mul(expected, new(big.Int).SetUint64(100-s))
		want.Div(want, big.NewInt(100))

		first := deductSlippage(expected, bips)
		second := deductSlippage(expected, bips)
		require.Zero(t, want.Cmp(first), "slippage %d%%", s)
		require.Zero(t, first.Cmp(second))
		require.True(t, first.Cmp(expected) <= 0)
	}
}

func TestSlippageBips(t *testing.T) {
	bips, err := SlippageBips(0.5)
	require.NoError(t, err)
	require.Equal(t, uint64(50), bips)

	for _, bad := range []float64{-1, 100.01, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = SlippageBips(bad)
		require.Error(t, err)
	}
}

func newTestProvider(chain *evmtest.Chain) *ProviderV3 {
	p := NewProviderV3(chain, router, factory, quoter, 500)
	p.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return p
}

func TestProviderV3_Pool(t *testing.T) {
	ctx := context.Background()
	chain := evmtest.NewChain(8453)
	p := newTestProvider(chain)

	var gotFee *big.Int
	chain.Handle(factory, FactoryABI, "getPool", func(args []any) ([]any, error) {
		gotFee = args[2].(*big.Int)
		if args[0].(common.Address) == weth && args[1].(common.Address) == dai {
			return []any{pool}, nil
		}
		return []any{common.Address{}}, nil
	})

	got, err := p.Pool(ctx, weth, dai)
	require.NoError(t, err)
	require.Equal(t, pool, got)
	require.Equal(t, int64(500), gotFee.Int64())

	_, err = p.Pool(ctx, dai, common.HexToAddress("0x01"))
	require.ErrorIs(t, err, ErrRouteNotFound)
}

func TestProviderV3_Quote(t *testing.T) {
	ctx := context.Background()
	chain := evmtest.NewChain(8453)
	p := newTestProvider(chain)

	expected := new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))
	amountIn := big.NewInt(5e17)

	chain.Handle(quoter, QuoterABI, "quoteExactInputSingle", func(args []any) ([]any, error) {
		params := args[0]
		require.Equal(t, weth, field(params, "TokenIn"))
		require.Equal(t, dai, field(params, "TokenOut"))
		require.Zero(t, amountIn.Cmp(field(params, "AmountIn").(*big.Int)))
		require.Equal(t, int64(500), field(params, "Fee").(*big.Int).Int64())
		return []any{expected, big.NewInt(1), uint32(2), big.NewInt(90_000)}, nil
	})

	q, err := p.Quote(ctx, weth, dai, amountIn, 100)
	require.NoError(t, err)
	require.Zero(t, expected.Cmp(q.AmountOut))

	want := new(big.Int).Mul(big.NewInt(990), big.NewInt(1e18))
	require.Zero(t, want.Cmp(q.MinAmountOut))
	require.Equal(t, time.Unix(1_700_000_000, 0), q.FetchedAt)

	_, err = p.Quote(ctx, weth, dai, amountIn, 10001)
	require.Error(t, err)
}

func TestProviderV3_QuoteError(t *testing.T) {
	chain := evmtest.NewChain(8453)
	p := newTestProvider(chain)
	chain.Handle(quoter, QuoterABI, "quoteExactInputSingle", func([]any) ([]any, error) {
		return nil, errors.New("execution reverted")
	})

	_, err := p.Quote(context.Background(), weth, dai, big.NewInt(1), 100)
	require.Error(t, err)
}

func TestProviderV3_Calldata(t *testing.T) {
	p := newTestProvider(evmtest.NewChain(8453))
	amountIn := big.NewInt(1_000)
	minOut := big.NewInt(990)

	swap, err := p.ExactInputSingle(dai, weth, AddressThis, amountIn, minOut)
	require.NoError(t, err)
	unwrap, err := p.UnwrapWETH9(minOut, wallet)
	require.NoError(t, err)

	data, err := p.Multicall([][]byte{swap, unwrap})
	require.NoError(t, err)

	name, args, err := evmtest.Decode(RouterABI, data)
	require.NoError(t, err)
	require.Equal(t, "multicall", name)

	deadline := args[0].(*big.Int)
	require.Equal(t, int64(1_700_000_000+1_000_000), deadline.Int64())

	calls := args[1].([][]byte)
	require.Len(t, calls, 2)

	name, inner, err := evmtest.Decode(RouterABI, calls[0])
	require.NoError(t, err)
	require.Equal(t, "exactInputSingle", name)
	params := inner[0]
	require.Equal(t, dai, field(params, "TokenIn"))
	require.Equal(t, weth, field(params, "TokenOut"))
	require.Equal(t, AddressThis, field(params, "Recipient"))
	require.Zero(t, amountIn.Cmp(field(params, "AmountIn").(*big.Int)))
	require.Zero(t, minOut.Cmp(field(params, "AmountOutMinimum").(*big.Int)))

	name, inner, err = evmtest.Decode(RouterABI, calls[1])
	require.NoError(t, err)
	require.Equal(t, "unwrapWETH9", name)
	require.Zero(t, minOut.Cmp(inner[0].(*big.Int)))
	require.Equal(t, wallet, inner[1])
}
