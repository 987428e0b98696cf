package evm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type DecimalsService struct {
	client Client
}

func NewDecimalsService(client Client) *DecimalsService {
	return &DecimalsService{client: client}
}

// GetDecimals fetches the decimals for an ERC20 token
func (d *DecimalsService) GetDecimals(ctx context.Context, tokenAddress common.Address) (uint8, error) {
	if tokenAddress == (common.Address{}) {
		return 0, fmt.Errorf("token address cannot be zero")
	}

	out, err := CallReadonly(ctx, d.client, ERC20, tokenAddress, "decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to get decimals for token %s: %w", tokenAddress.Hex(), err)
	}

	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result type %T", out[0])
	}
	return decimals, nil
}
