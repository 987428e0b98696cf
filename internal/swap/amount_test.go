package swap

import (
	"math"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedRand struct {
	n int
	f float64
}

func (r fixedRand) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

func (r fixedRand) Float64() float64 { return r.f }

func TestResolveAmount(t *testing.T) {
	oneEth := big.NewInt(1_000_000_000_000_000_000)

	tests := []struct {
		name     string
		spec     AmountSpec
		balance  *big.Int
		decimals int
		rnd      Rand
		want     string
		wantErr  bool
	}{
		{
			name:     "half of balance",
			spec:     AmountSpec{UseBalance: true, MinPercent: 50, MaxPercent: 50},
			balance:  oneEth,
			decimals: 18,
			rnd:      fixedRand{},
			want:     "500000000000000000",
		},
		{
			name:     "full balance is exact",
			spec:     AmountSpec{UseBalance: true, MinPercent: 100, MaxPercent: 100},
			balance:  big.NewInt(999_999_999_999_999_999),
			decimals: 18,
			rnd:      fixedRand{},
			want:     "999999999999999999",
		},
		{
			name:     "percent truncates",
			spec:     AmountSpec{UseBalance: true, MinPercent: 33, MaxPercent: 33},
			balance:  big.NewInt(10),
			decimals: 6,
			rnd:      fixedRand{},
			want:     "3",
		},
		{
			name:     "range rounded to precision",
			spec:     AmountSpec{Min: 1, Max: 2, Precision: 2},
			balance:  big.NewInt(0),
			decimals: 6,
			rnd:      fixedRand{f: 0.5},
			want:     "1500000",
		},
		{
			name:     "range rounding drops extra digits",
			spec:     AmountSpec{Min: 0.0001, Max: 0.0002, Precision: 4},
			balance:  big.NewInt(0),
			decimals: 18,
			rnd:      fixedRand{f: 0.2},
			want:     "100000000000000",
		},
		{
			name:    "percent above 100",
			spec:    AmountSpec{UseBalance: true, MinPercent: 10, MaxPercent: 101},
			balance: oneEth,
			rnd:     fixedRand{},
			wantErr: true,
		},
		{
			name:    "inverted percent range",
			spec:    AmountSpec{UseBalance: true, MinPercent: 90, MaxPercent: 10},
			balance: oneEth,
			rnd:     fixedRand{},
			wantErr: true,
		},
		{
			name:    "inverted amount range",
			spec:    AmountSpec{Min: 2, Max: 1},
			balance: oneEth,
			rnd:     fixedRand{},
			wantErr: true,
		},
		{
			name:    "negative precision",
			spec:    AmountSpec{Min: 1, Max: 2, Precision: -1},
			balance: oneEth,
			rnd:     fixedRand{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveAmount(tt.spec, tt.balance, tt.decimals, tt.rnd)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveAmount_PercentBounds(t *testing.T) {
	balance, _ := new(big.Int).SetString("123456789012345678901", 10)
	lower := new(big.Int).Div(new(big.Int).Mul(balance, big.NewInt(10)), big.NewInt(100))
	upper := new(big.Int).Div(new(big.Int).Mul(balance, big.NewInt(90)), big.NewInt(100))

	rnd := rand.New(rand.NewPCG(1, 2))
	spec := AmountSpec{UseBalance: true, MinPercent: 10, MaxPercent: 90}

	for i := 0; i < 1000; i++ {
		got, err := resolveAmount(spec, balance, 18, rnd)
		require.NoError(t, err)
		require.True(t, got.Cmp(lower) >= 0, "%s below 10%%", got)
		require.True(t, got.Cmp(upper) <= 0, "%s above 90%%", got)
	}
}

func TestResolveAmount_NonFiniteRange(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	for _, spec := range []AmountSpec{
		{Min: math.NaN(), Max: 1, Precision: 6},
		{Min: 0.1, Max: math.NaN(), Precision: 6},
		{Min: 0.1, Max: math.Inf(1), Precision: 6},
	} {
		_, err := resolveAmount(spec, big.NewInt(0), 18, rnd)
		require.Error(t, err)
	}
}
