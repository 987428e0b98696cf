package util

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenAmount is an integer amount of a token in its base units. Arithmetic
// stays on Amount; String is for reporting only.
type TokenAmount struct {
	Symbol   string
	Token    common.Address
	Amount   *big.Int
	Decimals int
}

func (a TokenAmount) String() string {
	s := FromBaseUnits(a.Amount, a.Decimals)
	if a.Symbol == "" {
		return s
	}
	return s + " " + a.Symbol
}
