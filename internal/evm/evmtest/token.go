package evmtest

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Token is a minimal ERC-20 living on a Chain. Approvals sent as txs take
// effect when the tx is broadcast.
type Token struct {
	mu         sync.Mutex
	address    common.Address
	decimals   uint8
	balances   map[common.Address]*big.Int
	allowances map[[2]common.Address]*big.Int
	approvals  []*big.Int
}

// DeployERC20 installs allowance, approve, balanceOf and decimals handlers
// for erc20 at addr.
func (c *Chain) DeployERC20(addr common.Address, erc20 abi.ABI, decimals uint8) *Token {
	t := &Token{
		address:    addr,
		decimals:   decimals,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[[2]common.Address]*big.Int),
	}

	c.Handle(addr, erc20, "decimals", func([]any) ([]any, error) {
		return []any{t.decimals}, nil
	})
	c.Handle(addr, erc20, "balanceOf", func(args []any) ([]any, error) {
		return []any{t.BalanceOf(args[0].(common.Address))}, nil
	})
	c.Handle(addr, erc20, "allowance", func(args []any) ([]any, error) {
		return []any{t.Allowance(args[0].(common.Address), args[1].(common.Address))}, nil
	})
	c.Handle(addr, erc20, "approve", func([]any) ([]any, error) {
		return []any{true}, nil
	})

	c.mu.Lock()
	c.sendHooks = append(c.sendHooks, func(tx *types.Transaction, from common.Address) {
		if tx.To() == nil || *tx.To() != addr || !SameSelector(erc20, "approve", tx.Data()) {
			return
		}
		_, args, err := Decode(erc20, tx.Data())
		if err != nil {
			return
		}
		t.SetAllowance(from, args[0].(common.Address), args[1].(*big.Int))
		t.mu.Lock()
		t.approvals = append(t.approvals, new(big.Int).Set(args[1].(*big.Int)))
		t.mu.Unlock()
	})
	c.mu.Unlock()

	return t
}

func (t *Token) Address() common.Address { return t.address }

func (t *Token) SetBalance(owner common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[owner] = new(big.Int).Set(amount)
}

func (t *Token) BalanceOf(owner common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.balances[owner]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

func (t *Token) SetAllowance(owner, spender common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[[2]common.Address{owner, spender}] = new(big.Int).Set(amount)
}

func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.allowances[[2]common.Address{owner, spender}]; ok {
		return new(big.Int).Set(a)
	}
	return big.NewInt(0)
}

// Approvals lists the amounts of every approve tx broadcast to this token.
func (t *Token) Approvals() []*big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*big.Int(nil), t.approvals...)
}
