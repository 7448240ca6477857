package model

// BootstrapEventData is emitted once per pool.
type BootstrapEventData struct {
	Asset1ID     uint64 `json:"asset_1_id"`
	Asset2ID     uint64 `json:"asset_2_id"`
	ShareAssetID uint64 `json:"share_asset_id"`
}

// LiquidityEventData is the payload of AddLiquidity and RemoveLiquidity.
type LiquidityEventData struct {
	User    string `json:"user"`
	Amount1 uint64 `json:"amount_1"`
	Amount2 uint64 `json:"amount_2"`
	Shares  uint64 `json:"shares"`
}

// SwapEventData is the payload of Swap. AmountIn excludes the refunded change.
type SwapEventData struct {
	User          string `json:"user"`
	InputAssetID  uint64 `json:"input_asset_id"`
	OutputAssetID uint64 `json:"output_asset_id"`
	AmountIn      uint64 `json:"amount_in"`
	AmountOut     uint64 `json:"amount_out"`
	ProtocolFee   uint64 `json:"protocol_fee"`
	PoolersFee    uint64 `json:"poolers_fee"`
	Change        uint64 `json:"change"`
}

// ClaimEventData is the payload of ClaimFees and ClaimExtra.
type ClaimEventData struct {
	Collector string `json:"collector"`
	Amount1   uint64 `json:"amount_1"`
	Amount2   uint64 `json:"amount_2"`
}

// SetFeeEventData is the payload of SetFee.
type SetFeeEventData struct {
	PoolersFeeShareBps  uint64 `json:"poolers_fee_share"`
	ProtocolFeeShareBps uint64 `json:"protocol_fee_share"`
}

// SyncEventData carries the pool state after a transition.
type SyncEventData struct {
	Reserve1         uint64 `json:"asset_1_reserves"`
	Reserve2         uint64 `json:"asset_2_reserves"`
	IssuedShares     uint64 `json:"issued_shares"`
	CumulativePrice1 string `json:"cumulative_asset_1_price"`
	CumulativePrice2 string `json:"cumulative_asset_2_price"`
	Timestamp        uint64 `json:"timestamp"`
}
