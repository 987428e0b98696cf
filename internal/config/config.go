package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var ErrUnknownToken = errors.New("unknown token symbol")

// ChainProfile is the static description of the network the swapper runs on.
type ChainProfile struct {
	Name         string            `yaml:"name"`
	ChainID      uint64            `yaml:"chain_id"` // 0 = trust the node
	RPC          []string          `yaml:"rpc"`
	Explorer     string            `yaml:"explorer"`
	NativeSymbol string            `yaml:"native_symbol"`
	FeeTier      uint32            `yaml:"fee_tier"`
	Contracts    Contracts         `yaml:"contracts"`
	Tokens       map[string]string `yaml:"tokens"`
	Confirmation Confirmation      `yaml:"confirmation"`
}

type Contracts struct {
	Router        string `yaml:"router"`
	Factory       string `yaml:"factory"`
	Quoter        string `yaml:"quoter"`
	WrappedNative string `yaml:"wrapped_native"`
}

type Confirmation struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait"`
}

// PickRPC returns one endpoint at random so accounts spread over providers.
func (p ChainProfile) PickRPC() string {
	if len(p.RPC) == 0 {
		return ""
	}
	return p.RPC[rand.IntN(len(p.RPC))]
}

// Token resolves a symbol from the token table. The native symbol resolves to
// the wrapped-native contract, which is what the pool and router expect.
func (p ChainProfile) Token(symbol string) (common.Address, error) {
	if p.IsNative(symbol) && p.Contracts.WrappedNative != "" {
		return common.HexToAddress(p.Contracts.WrappedNative), nil
	}
	for sym, addr := range p.Tokens {
		if strings.EqualFold(sym, symbol) {
			return common.HexToAddress(addr), nil
		}
	}
	return common.Address{}, fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
}

func (p ChainProfile) IsNative(symbol string) bool {
	return strings.EqualFold(symbol, p.NativeSymbol)
}

func (p ChainProfile) TxURL(hash string) string {
	return strings.TrimRight(p.Explorer, "/") + "/tx/" + hash
}

func (p ChainProfile) validate() error {
	if len(p.RPC) == 0 {
		return fmt.Errorf("no rpc endpoints")
	}
	if p.NativeSymbol == "" {
		return fmt.Errorf("native_symbol is required")
	}
	for name, addr := range map[string]string{
		"router":         p.Contracts.Router,
		"factory":        p.Contracts.Factory,
		"quoter":         p.Contracts.Quoter,
		"wrapped_native": p.Contracts.WrappedNative,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("contracts.%s: invalid address %q", name, addr)
		}
	}
	for sym, addr := range p.Tokens {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("tokens.%s: invalid address %q", sym, addr)
		}
	}
	return nil
}
