package amm

import (
	"math"

	"cpamm/internal/model"
)

const (
	TotalBps                   uint64 = 10_000
	MaxTotalFeeBps             uint64 = 100
	DefaultPoolersFeeShareBps  uint64 = 25
	DefaultProtocolFeeShareBps uint64 = 5

	// LockedShares are minted on the first deposit and never redeemable.
	LockedShares uint64 = 1_000

	AssetMinTotal    uint64 = 1_000_000
	ShareTotalSupply uint64 = math.MaxUint64

	ShareUnitName = "CPPOOL"
	ShareDecimals = 6
	ShareURL      = "https://cpamm.invalid"

	// PriceScaleBits is the fixed-point shift applied to cumulative prices.
	PriceScaleBits = 64

	// AppFunding is moved from the pool account to the application at bootstrap.
	AppFunding uint64 = 200_000

	MinBalance         uint64 = 100_000
	AssetMinBalance    uint64 = 100_000
	AppOptInMinBalance uint64 = 100_000

	NativeAssetID = model.NativeAssetID
)

// Swap modes.
const (
	FixedInput  = "fixed-input"
	FixedOutput = "fixed-output"
)

// PoolMinBalance is the minimum native balance of a bootstrapped pool account:
// the base amount, one holding per non-native asset including the share asset,
// and the application local state.
func PoolMinBalance(asset2ID uint64) uint64 {
	holdings := uint64(2)
	if asset2ID != NativeAssetID {
		holdings = 3
	}
	return MinBalance + holdings*AssetMinBalance + AppOptInMinBalance
}
