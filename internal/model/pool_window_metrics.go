package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window. Amounts are
// base-unit integers as decimal strings.
type PoolWindowMetrics struct {
	AppID          uint64
	PoolAddress    string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	DepositCount   uint64
	WithdrawCount  uint64
	Volume1In      string
	Volume2In      string
	Volume1Out     string
	Volume2Out     string
	PoolersFee1    string
	PoolersFee2    string
	ProtocolFee1   string
	ProtocolFee2   string
	Reserve1       *string
	Reserve2       *string
	IssuedShares   *string
	TWAP1          *string
	TWAP2          *string
	FeeRate1       *string
	FeeRate2       *string
	APR            *string
}
