package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"cpamm/internal/model"
)

// Pool is the working copy of a pool's state during one operation.
type Pool struct {
	Address             common.Address
	Asset1ID            uint64
	Asset2ID            uint64
	ShareAssetID        uint64
	Reserve1            uint64
	Reserve2            uint64
	IssuedShares        uint64
	PoolersFeeShareBps  uint64
	ProtocolFeeShareBps uint64
	ProtocolFees1       uint64
	ProtocolFees2       uint64
	CumulativePrice1    uint256.Int
	CumulativePrice2    uint256.Int
	LastUpdateTime      uint64
}

// PoolFromRecord parses a persisted pool record.
func PoolFromRecord(rec model.Pool) (*Pool, error) {
	p := &Pool{
		Address:             rec.Address,
		Asset1ID:            rec.Asset1ID,
		Asset2ID:            rec.Asset2ID,
		ShareAssetID:        rec.ShareAssetID,
		Reserve1:            rec.Reserve1,
		Reserve2:            rec.Reserve2,
		IssuedShares:        rec.IssuedShares,
		PoolersFeeShareBps:  rec.PoolersFeeShareBps,
		ProtocolFeeShareBps: rec.ProtocolFeeShareBps,
		ProtocolFees1:       rec.ProtocolFees1,
		ProtocolFees2:       rec.ProtocolFees2,
		LastUpdateTime:      rec.LastUpdateTime,
	}
	if err := parseCumulative(&p.CumulativePrice1, rec.CumulativePrice1); err != nil {
		return nil, fmt.Errorf("cumulative price 1: %w", err)
	}
	if err := parseCumulative(&p.CumulativePrice2, rec.CumulativePrice2); err != nil {
		return nil, fmt.Errorf("cumulative price 2: %w", err)
	}
	return p, nil
}

func parseCumulative(dst *uint256.Int, s string) error {
	if s == "" {
		dst.Clear()
		return nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return err
	}
	dst.Set(v)
	return nil
}

// Record converts the pool to its persisted form.
func (p *Pool) Record() model.Pool {
	return model.Pool{
		Address:             p.Address,
		Asset1ID:            p.Asset1ID,
		Asset2ID:            p.Asset2ID,
		ShareAssetID:        p.ShareAssetID,
		Reserve1:            p.Reserve1,
		Reserve2:            p.Reserve2,
		IssuedShares:        p.IssuedShares,
		PoolersFeeShareBps:  p.PoolersFeeShareBps,
		ProtocolFeeShareBps: p.ProtocolFeeShareBps,
		ProtocolFees1:       p.ProtocolFees1,
		ProtocolFees2:       p.ProtocolFees2,
		CumulativePrice1:    p.CumulativePrice1.Dec(),
		CumulativePrice2:    p.CumulativePrice2.Dec(),
		LastUpdateTime:      p.LastUpdateTime,
	}
}

// TotalFeeShareBps is the fee charged on swap input.
func (p *Pool) TotalFeeShareBps() uint64 {
	return p.PoolersFeeShareBps + p.ProtocolFeeShareBps
}

// HasAssets reports whether the pair matches the pool exactly.
func (p *Pool) HasAssets(asset1ID, asset2ID uint64) bool {
	return p.Asset1ID == asset1ID && p.Asset2ID == asset2ID
}

// side returns the reserves oriented for a swap of inputAssetID.
// first is true when the input is asset 1.
func (p *Pool) side(inputAssetID, outputAssetID uint64) (rIn, rOut uint64, first bool, ok bool) {
	switch {
	case inputAssetID == p.Asset1ID && outputAssetID == p.Asset2ID:
		return p.Reserve1, p.Reserve2, true, true
	case inputAssetID == p.Asset2ID && outputAssetID == p.Asset1ID:
		return p.Reserve2, p.Reserve1, false, true
	default:
		return 0, 0, false, false
	}
}
