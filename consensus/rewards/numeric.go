package rewards

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Weight is a validator stake weight or token-supply amount, represented as
// a 256-bit fixed-width unsigned integer: wide enough for any weight or
// supply value this engine ever adds or compares. Reward-pot arithmetic
// that can genuinely overflow 256 bits (rate x supply) is done in
// math/big.Rat instead (see Rational).
type Weight = uint256.Int

// Rational is an exact rational number used for reward math until the
// final truncation to a Weight. No third-party exact-rational type fits
// this better than math/big.Rat; see DESIGN.md.
type Rational = big.Rat

// WeightFromUint64 builds a Weight from a uint64.
func WeightFromUint64(v uint64) *Weight {
	return new(Weight).SetUint64(v)
}

// SumWeights returns the sum of ws.
func SumWeights(ws []*Weight) *Weight {
	total := new(Weight)
	for _, w := range ws {
		total.Add(total, w)
	}
	return total
}

// WeightRatio returns weight/total as an exact rational. Returns the zero
// ratio if total is zero.
func WeightRatio(weight, total *Weight) *Rational {
	if total.IsZero() {
		return new(Rational)
	}
	return new(Rational).SetFrac(weight.ToBig(), total.ToBig())
}

// RewardPot returns rate x supply as an exact rational: the total reward
// pot distributed for one round.
func RewardPot(rate *Rational, supply *Weight) *Rational {
	supplyRat := new(Rational).SetInt(supply.ToBig())
	return new(Rational).Mul(rate, supplyRat)
}

// Truncate performs truncating integer division (numerator / denominator),
// the final step of reward finalization.
func Truncate(r *Rational) *Weight {
	q := new(big.Int).Quo(r.Num(), r.Denom())
	out := new(Weight)
	_ = out.SetFromBig(q) // reward pots fit comfortably within 256 bits for any real token supply
	return out
}
