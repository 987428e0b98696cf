// Package evmtest provides an in-memory evm.Client for tests. Contract calls
// are served by handlers registered per (contract, method) and decoded with
// the real ABI, so callers exercise their actual packing code.
package evmtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type Handler func(args []any) ([]any, error)

type callKey struct {
	to       common.Address
	selector [4]byte
}

type route struct {
	method  abi.Method
	handler Handler
}

// Chain is safe for concurrent use.
type Chain struct {
	mu sync.Mutex

	chainID     *big.Int
	baseFee     *big.Int
	tip         *big.Int
	gasEstimate uint64
	estimateErr error

	nonces   map[common.Address]uint64
	balances map[common.Address]*big.Int
	routes   map[callKey]route
	receipts map[common.Hash]*types.Receipt

	sent      []*types.Transaction
	estimate  []ethereum.CallMsg
	sendHooks []func(tx *types.Transaction, from common.Address)

	// ReceiptStatus decides the receipt of each sent tx. Returning ok=false
	// keeps the tx pending forever.
	ReceiptStatus func(tx *types.Transaction) (status uint64, ok bool)
	// OnSend runs after a tx is accepted, before its receipt is visible.
	OnSend func(tx *types.Transaction, from common.Address)
}

func NewChain(chainID int64) *Chain {
	return &Chain{
		chainID:     big.NewInt(chainID),
		baseFee:     big.NewInt(1_000_000_000),
		tip:         big.NewInt(100_000_000),
		gasEstimate: 150_000,
		nonces:      make(map[common.Address]uint64),
		balances:    make(map[common.Address]*big.Int),
		routes:      make(map[callKey]route),
		receipts:    make(map[common.Hash]*types.Receipt),
		ReceiptStatus: func(*types.Transaction) (uint64, bool) {
			return types.ReceiptStatusSuccessful, true
		},
	}
}

func (c *Chain) SetFees(baseFee, tip *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseFee, c.tip = baseFee, tip
}

func (c *Chain) SetGasEstimate(gas uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gasEstimate, c.estimateErr = gas, err
}

func (c *Chain) SetBalance(addr common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[addr] = new(big.Int).Set(wei)
}

func (c *Chain) SetNonce(addr common.Address, nonce uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonces[addr] = nonce
}

// Handle serves eth_call and estimation targets of method on contract.
func (c *Chain) Handle(contract common.Address, parsed abi.ABI, method string, h Handler) {
	m, ok := parsed.Methods[method]
	if !ok {
		panic(fmt.Sprintf("evmtest: no method %s in abi", method))
	}
	var sel [4]byte
	copy(sel[:], m.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[callKey{to: contract, selector: sel}] = route{method: m, handler: h}
}

// Sent returns the broadcast txs in order.
func (c *Chain) Sent() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.Transaction(nil), c.sent...)
}

func (c *Chain) Estimates() []ethereum.CallMsg {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ethereum.CallMsg(nil), c.estimate...)
}

func (c *Chain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *Chain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account], nil
}

func (c *Chain) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (c *Chain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("evmtest: malformed call")
	}
	var sel [4]byte
	copy(sel[:], msg.Data[:4])

	c.mu.Lock()
	r, ok := c.routes[callKey{to: *msg.To, selector: sel}]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("evmtest: no handler for %x on %s", sel, msg.To.Hex())
	}

	args, err := r.method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("evmtest: unpack %s: %w", r.method.Name, err)
	}
	out, err := r.handler(args)
	if err != nil {
		return nil, err
	}
	return r.method.Outputs.Pack(out...)
}

func (c *Chain) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.estimate = append(c.estimate, msg)
	return c.gasEstimate, c.estimateErr
}

func (c *Chain) SuggestGasTipCap(context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.tip), nil
}

func (c *Chain) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &types.Header{Number: big.NewInt(1), BaseFee: new(big.Int).Set(c.baseFee)}, nil
}

func (c *Chain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	from, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return fmt.Errorf("evmtest: bad signature: %w", err)
	}

	c.mu.Lock()
	if tx.Nonce() != c.nonces[from] {
		c.mu.Unlock()
		return fmt.Errorf("evmtest: nonce %d, want %d", tx.Nonce(), c.nonces[from])
	}
	c.nonces[from]++
	c.sent = append(c.sent, tx)
	hooks := append([]func(*types.Transaction, common.Address){}, c.sendHooks...)
	if c.OnSend != nil {
		hooks = append(hooks, c.OnSend)
	}
	statusFn := c.ReceiptStatus
	c.mu.Unlock()

	for _, h := range hooks {
		h(tx, from)
	}
	if st, ok := statusFn(tx); ok {
		c.mu.Lock()
		c.receipts[tx.Hash()] = &types.Receipt{Status: st, TxHash: tx.Hash()}
		c.mu.Unlock()
	}
	return nil
}

// SetReceipt mines a previously pending tx with the given status.
func (c *Chain) SetReceipt(hash common.Hash, status uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receipts[hash] = &types.Receipt{Status: status, TxHash: hash}
}

func (c *Chain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// Decode resolves the method called by data and unpacks its inputs.
func Decode(parsed abi.ABI, data []byte) (string, []any, error) {
	if len(data) < 4 {
		return "", nil, errors.New("evmtest: short calldata")
	}
	m, err := parsed.MethodById(data[:4])
	if err != nil {
		return "", nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	return m.Name, args, err
}

// SameSelector reports whether data calls method.
func SameSelector(parsed abi.ABI, method string, data []byte) bool {
	m, ok := parsed.Methods[method]
	return ok && len(data) >= 4 && bytes.Equal(m.ID, data[:4])
}
