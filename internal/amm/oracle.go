package amm

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrObservationOrder is returned by TWAP when the observations are not
// strictly increasing in time.
var ErrObservationOrder = errors.New("observations out of order")

// Observation is a snapshot of a pool's price accumulators.
type Observation struct {
	Cumulative1 *uint256.Int
	Cumulative2 *uint256.Int
	Timestamp   uint64
}

// Observation returns the current accumulator values.
func (p *Pool) Observation() Observation {
	return Observation{
		Cumulative1: new(uint256.Int).Set(&p.CumulativePrice1),
		Cumulative2: new(uint256.Int).Set(&p.CumulativePrice2),
		Timestamp:   p.LastUpdateTime,
	}
}

// accrue rolls the accumulators forward to now. Nothing accrues while either
// reserve is empty; the timestamp always advances.
func (p *Pool) accrue(now uint64) {
	if now <= p.LastUpdateTime {
		return
	}
	elapsed := now - p.LastUpdateTime
	if p.Reserve1 > 0 && p.Reserve2 > 0 {
		p.CumulativePrice1.Add(&p.CumulativePrice1, priceIncrement(p.Reserve2, p.Reserve1, elapsed))
		p.CumulativePrice2.Add(&p.CumulativePrice2, priceIncrement(p.Reserve1, p.Reserve2, elapsed))
	}
	p.LastUpdateTime = now
}

// TWAP returns the time-weighted average prices between two observations as
// Q64 fixed-point values: price1 is asset 1 in units of asset 2.
// Accumulator wraparound is handled by modular subtraction.
func TWAP(older, newer Observation) (price1, price2 *uint256.Int, err error) {
	if newer.Timestamp <= older.Timestamp {
		return nil, nil, ErrObservationOrder
	}
	elapsed := uint256.NewInt(newer.Timestamp - older.Timestamp)
	price1 = new(uint256.Int).Sub(newer.Cumulative1, older.Cumulative1)
	price1.Div(price1, elapsed)
	price2 = new(uint256.Int).Sub(newer.Cumulative2, older.Cumulative2)
	price2.Div(price2, elapsed)
	return price1, price2, nil
}

var q64 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), PriceScaleBits))

// Q64ToFloat converts a fixed-point price to a float.
func Q64ToFloat(v *uint256.Int) float64 {
	f := new(big.Float).SetInt(v.ToBig())
	out, _ := f.Quo(f, q64).Float64()
	return out
}
