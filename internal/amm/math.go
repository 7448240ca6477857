package amm

import (
	"github.com/holiman/uint256"
)

// mulDiv returns floor(a*b/c), or the ceiling when roundUp is set. The product
// is computed in 256 bits; the quotient must fit in 64 bits.
func mulDiv(a, b, c uint64, roundUp bool) (uint64, error) {
	if c == 0 {
		return 0, newError(ErrArithmetic, "", "division by zero")
	}
	num := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	den := uint256.NewInt(c)
	q := new(uint256.Int).Div(num, den)
	r := new(uint256.Int).Mod(num, den)
	if roundUp && !r.IsZero() {
		q.AddUint64(q, 1)
	}
	if !q.IsUint64() {
		return 0, newError(ErrArithmetic, "", "result overflows 64 bits")
	}
	return q.Uint64(), nil
}

// mulDivWide returns floor(a*b/c) without narrowing. c must be non-zero.
func mulDivWide(a, b, c uint64) *uint256.Int {
	num := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return num.Div(num, uint256.NewInt(c))
}

func minWide(a, b *uint256.Int) *uint256.Int {
	if b.Lt(a) {
		return b
	}
	return a
}

// sqrtProduct returns floor(sqrt(a*b)).
func sqrtProduct(a, b uint64) uint64 {
	p := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	// sqrt of a 128-bit value fits in 64 bits
	return new(uint256.Int).Sqrt(p).Uint64()
}

func add(a, b uint64) (uint64, error) {
	s := a + b
	if s < a {
		return 0, newError(ErrArithmetic, "", "addition overflows 64 bits")
	}
	return s, nil
}

func sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, newError(ErrArithmetic, "", "subtraction underflows")
	}
	return a - b, nil
}

// priceIncrement returns (num << PriceScaleBits) / den * elapsed, wrapping
// modulo 2^256 like the accumulators it is added to.
func priceIncrement(num, den, elapsed uint64) *uint256.Int {
	p := new(uint256.Int).Lsh(uint256.NewInt(num), PriceScaleBits)
	p.Div(p, uint256.NewInt(den))
	return p.Mul(p, uint256.NewInt(elapsed))
}
