package swap

import (
	"fmt"
	"math"
	"math/big"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// AmountSpec sizes a swap either as a random amount in [Min, Max] rounded to
// Precision decimal places, or, with UseBalance, as a random whole percentage
// in [MinPercent, MaxPercent] of the current balance.
type AmountSpec struct {
	Min       float64
	Max       float64
	Precision int32

	UseBalance bool
	MinPercent int
	MaxPercent int
}

func (a AmountSpec) validate() error {
	if a.UseBalance {
		if a.MinPercent < 0 || a.MaxPercent > 100 || a.MinPercent > a.MaxPercent {
			return fmt.Errorf("invalid percent range [%d, %d]", a.MinPercent, a.MaxPercent)
		}
		return nil
	}
	if !finite(a.Min) || !finite(a.Max) || a.Min < 0 || a.Min > a.Max {
		return fmt.Errorf("invalid amount range [%v, %v]", a.Min, a.Max)
	}
	if a.Precision < 0 {
		return fmt.Errorf("invalid precision %d", a.Precision)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Rand is the randomness the amount resolution draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// resolveAmount returns the amount to swap in base units of a token with the
// given decimals.
func resolveAmount(spec AmountSpec, balance *big.Int, decimals int, rnd Rand) (*big.Int, error) {
	err := spec.validate()
	if err != nil {
		return nil, err
	}

	if spec.UseBalance {
		pct := spec.MinPercent + rnd.IntN(spec.MaxPercent-spec.MinPercent+1)
		if pct == 100 {
			return new(big.Int).Set(balance), nil
		}
		amount := new(big.Int).Mul(balance, big.NewInt(int64(pct)))
		return amount.Div(amount, big.NewInt(100)), nil
	}

	drawn := spec.Min + rnd.Float64()*(spec.Max-spec.Min)
	return decimal.NewFromFloat(drawn).
		Round(spec.Precision).
		Shift(int32(decimals)).
		Truncate(0).
		BigInt(), nil
}
