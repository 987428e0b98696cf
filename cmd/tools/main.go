package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/swapper/internal/config"
	"github.com/vultisig/swapper/internal/evm"
	"github.com/vultisig/swapper/internal/logging"
	"github.com/vultisig/swapper/internal/uniswap"
	"github.com/vultisig/swapper/internal/util"
)

var (
	configPath = flag.String("config", "configs/base.yaml", "chain profile")
	flatPreset = flag.String("preset", "", "preset to execute: quote, fees, balance")
	fromToken  = flag.String("from", "ETH", "token to sell")
	toToken    = flag.String("to", "DAI", "token to buy")
	amount     = flag.String("amount", "0.001", "amount of -from to quote")
	slippage   = flag.Float64("slippage", 1, "slippage percent")
	address    = flag.String("address", "", "address for balance preset")
)

var presets = map[string]func(context.Context, *config.ChainProfile, *evm.Network) error{
	"quote":   quote,
	"fees":    fees,
	"balance": balance,
}

func main() {
	flag.Parse()

	preset, ok := presets[*flatPreset]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown preset %q\n", *flatPreset)
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	profile, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}

	network, err := evm.NewNetwork(ctx, profile.PickRPC(), evm.Options{}, logging.NewLogger(logging.LogFormatText, "warn"))
	if err != nil {
		fail(err)
	}

	if err := preset(ctx, profile, network); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func decimalsOf(ctx context.Context, profile *config.ChainProfile, network *evm.Network, symbol string) (ecommon.Address, int, error) {
	token, err := profile.Token(symbol)
	if err != nil {
		return ecommon.Address{}, 0, err
	}
	if profile.IsNative(symbol) {
		return token, util.NativeDecimals, nil
	}
	d, err := network.Decimals.GetDecimals(ctx, token)
	if err != nil {
		return ecommon.Address{}, 0, err
	}
	return token, int(d), nil
}

// quote prints what a swap of -amount would return right now. Nothing is sent.
func quote(ctx context.Context, profile *config.ChainProfile, network *evm.Network) error {
	tokenIn, decIn, err := decimalsOf(ctx, profile, network, *fromToken)
	if err != nil {
		return err
	}
	tokenOut, decOut, err := decimalsOf(ctx, profile, network, *toToken)
	if err != nil {
		return err
	}
	amountIn, err := util.ToBaseUnits(*amount, decIn)
	if err != nil {
		return err
	}
	bips, err := uniswap.SlippageBips(*slippage)
	if err != nil {
		return err
	}

	provider := uniswap.NewProviderV3(
		network.Client,
		ecommon.HexToAddress(profile.Contracts.Router),
		ecommon.HexToAddress(profile.Contracts.Factory),
		ecommon.HexToAddress(profile.Contracts.Quoter),
		profile.FeeTier,
	)
	pool, err := provider.Pool(ctx, tokenIn, tokenOut)
	if err != nil {
		return err
	}
	q, err := provider.Quote(ctx, tokenIn, tokenOut, amountIn, bips)
	if err != nil {
		return err
	}

	fmt.Printf("pool:    %s (fee tier %d)\n", pool.Hex(), profile.FeeTier)
	fmt.Printf("in:      %s\n", util.TokenAmount{Symbol: *fromToken, Amount: q.AmountIn, Decimals: decIn})
	fmt.Printf("out:     %s\n", util.TokenAmount{Symbol: *toToken, Amount: q.AmountOut, Decimals: decOut})
	fmt.Printf("min out: %s\n", util.TokenAmount{Symbol: *toToken, Amount: q.MinAmountOut, Decimals: decOut})
	return nil
}

func fees(ctx context.Context, _ *config.ChainProfile, network *evm.Network) error {
	base, err := network.Fees.BaseFee(ctx)
	if err != nil {
		return err
	}
	tip, err := network.Client.SuggestGasTipCap(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("base fee: %s gwei\n", util.FromBaseUnits(base, 9))
	fmt.Printf("tip:      %s gwei\n", util.FromBaseUnits(tip, 9))
	return nil
}

func balance(ctx context.Context, profile *config.ChainProfile, network *evm.Network) error {
	if !ecommon.IsHexAddress(*address) {
		return fmt.Errorf("-address is required")
	}
	owner := ecommon.HexToAddress(*address)

	native, err := network.Balance.GetNativeBalance(ctx, owner)
	if err != nil {
		return err
	}
	fmt.Println(util.TokenAmount{Symbol: profile.NativeSymbol, Amount: native, Decimals: util.NativeDecimals})

	for symbol := range profile.Tokens {
		if profile.IsNative(symbol) {
			continue
		}
		token, dec, er := decimalsOf(ctx, profile, network, symbol)
		if er != nil {
			return er
		}
		b, er := network.Balance.GetERC20Balance(ctx, token, owner)
		if er != nil {
			return er
		}
		fmt.Println(util.TokenAmount{Symbol: symbol, Amount: b, Decimals: dec})
	}
	return nil
}
