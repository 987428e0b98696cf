package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type BalanceService struct {
	client Client
}

func NewBalanceService(client Client) *BalanceService {
	return &BalanceService{client: client}
}

func (s *BalanceService) GetNativeBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := s.client.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance: %w", err)
	}
	return balance, nil
}

func (s *BalanceService) GetERC20Balance(ctx context.Context, tokenAddress, ownerAddress common.Address) (*big.Int, error) {
	if tokenAddress == (common.Address{}) {
		return s.GetNativeBalance(ctx, ownerAddress)
	}

	out, err := CallReadonly(ctx, s.client, ERC20, tokenAddress, "balanceOf", ownerAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get ERC20 balance: %w", err)
	}
	return bigResult(out, "balanceOf")
}
