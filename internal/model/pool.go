package model

import "github.com/ethereum/go-ethereum/common"

// NativeAssetID identifies the ledger's native asset. It is always asset 2 of a pair.
const NativeAssetID uint64 = 0

// Pool is the persisted state record of one trading pair, keyed by the pool's
// custodial account. Cumulative prices are 256-bit decimal strings.
type Pool struct {
	Address             common.Address `json:"address"`
	Asset1ID            uint64         `json:"asset_1_id"`
	Asset2ID            uint64         `json:"asset_2_id"`
	ShareAssetID        uint64         `json:"share_asset_id"`
	Reserve1            uint64         `json:"asset_1_reserves"`
	Reserve2            uint64         `json:"asset_2_reserves"`
	IssuedShares        uint64         `json:"issued_shares"`
	PoolersFeeShareBps  uint64         `json:"poolers_fee_share"`
	ProtocolFeeShareBps uint64         `json:"protocol_fee_share"`
	ProtocolFees1       uint64         `json:"protocol_fees_asset_1"`
	ProtocolFees2       uint64         `json:"protocol_fees_asset_2"`
	CumulativePrice1    string         `json:"cumulative_asset_1_price"`
	CumulativePrice2    string         `json:"cumulative_asset_2_price"`
	LastUpdateTime      uint64         `json:"cumulative_price_update_timestamp"`
}

// Meta extracts the pool metadata used by decoders and aggregators.
func (p Pool) Meta() PoolMeta {
	return PoolMeta{
		Asset1ID:            p.Asset1ID,
		Asset2ID:            p.Asset2ID,
		ShareAssetID:        p.ShareAssetID,
		PoolersFeeShareBps:  p.PoolersFeeShareBps,
		ProtocolFeeShareBps: p.ProtocolFeeShareBps,
	}
}
