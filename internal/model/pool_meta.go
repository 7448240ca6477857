package model

// PoolMeta captures the pair identity and the fee parameters in force.
type PoolMeta struct {
	Asset1ID            uint64 `json:"asset_1_id"`
	Asset2ID            uint64 `json:"asset_2_id"`
	ShareAssetID        uint64 `json:"share_asset_id"`
	PoolersFeeShareBps  uint64 `json:"poolers_fee_share"`
	ProtocolFeeShareBps uint64 `json:"protocol_fee_share"`
}

// TotalFeeShareBps returns the fee charged on swap input.
func (m PoolMeta) TotalFeeShareBps() uint64 {
	return m.PoolersFeeShareBps + m.ProtocolFeeShareBps
}
