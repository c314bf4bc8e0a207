// Package binomial evaluates the binomial probability mass function with an
// exact integer coefficient.
package binomial

import (
	"math"
	"math/big"
)

// precision is the mantissa width, in bits, of the intermediate product.
// C(2000,345) alone is around 1e400; the product stays in big.Float and is
// rounded to float64 once.
const precision = 256

// Coefficient returns C(n, k) exactly. It is zero when k lies outside [0, n].
func Coefficient(n, k int) *big.Int {
	if n < 0 || k < 0 || k > n {
		return new(big.Int)
	}
	return new(big.Int).Binomial(int64(n), int64(k))
}

// PMF returns C(n,k) * p^k * (1-p)^(n-k) for a single evaluation.
// Callers evaluating one (n, k) against several probabilities should build a
// Tally instead so the coefficient is shared.
func PMF(n, k int, p float64) float64 {
	return NewTally(n, k).PMF(p)
}

// Tally is a fixed (n, k) pair. The coefficient C(n,k) dominates the cost for
// large n, so it is computed once here and shared by every probability the
// tally is evaluated against.
type Tally struct {
	n, k int
	coef *big.Float // nil when k lies outside [0, n]
}

// NewTally computes C(n,k) for later evaluations
func NewTally(n, k int) *Tally {
	t := &Tally{n: n, k: k}
	if k >= 0 && k <= n {
		t.coef = newFloat().SetInt(Coefficient(n, k))
	}
	return t
}

// PMF evaluates the mass at p.
//
// A k outside [0, n] has no combinations and yields 0 rather than an error.
// p outside [0, 1] (or NaN) is not a probability and also yields 0.
// The result is always finite and non-negative; values below the smallest
// float64 round to 0.
func (t *Tally) PMF(p float64) float64 {
	mass := t.mass(p)
	if mass == nil {
		return 0
	}
	v, _ := mass.Float64()
	return v
}

// LogPMF returns the natural log of PMF, computed without underflow.
// It returns -Inf whenever PMF is exactly zero in exact arithmetic.
func (t *Tally) LogPMF(p float64) float64 {
	mass := t.mass(p)
	if mass == nil || mass.Sign() == 0 {
		return math.Inf(-1)
	}
	mant := new(big.Float)
	exp := mass.MantExp(mant)
	m, _ := mant.Float64()
	return math.Log(m) + float64(exp)*math.Ln2
}

func (t *Tally) mass(p float64) *big.Float {
	if t.coef == nil {
		return nil
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil
	}

	success := newFloat().SetFloat64(p)
	failure := newFloat().Sub(newFloat().SetInt64(1), success)

	mass := newFloat().Set(t.coef)
	mass.Mul(mass, pow(success, t.k))
	mass.Mul(mass, pow(failure, t.n-t.k))
	return mass
}

// pow raises x to a non-negative integer power by squaring. pow(0, 0) is 1.
func pow(x *big.Float, e int) *big.Float {
	result := newFloat().SetInt64(1)
	base := newFloat().Set(x)
	for e > 0 {
		if e&1 == 1 {
			result.Mul(result, base)
		}
		e >>= 1
		if e > 0 {
			base.Mul(base, base)
		}
	}
	return result
}

func newFloat() *big.Float {
	return new(big.Float).SetPrec(precision)
}
