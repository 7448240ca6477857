package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"cpamm/internal/amm"
	"cpamm/internal/dex"
	"cpamm/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	AppID         uint64
	PoolAddress   string
	PoolMeta      model.PoolMeta
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	Volume1In     *big.Int
	Volume2In     *big.Int
	Volume1Out    *big.Int
	Volume2Out    *big.Int
	PoolersFee1   *big.Int
	PoolersFee2   *big.Int
	ProtocolFee1  *big.Int
	ProtocolFee2  *big.Int
	LastTS        uint64

	// Open is the last observation before the window, or the first one inside
	// it. Close is the latest observation inside the window.
	Open  *amm.Observation
	Close *amm.Observation
	// Last Sync seen inside the window.
	State *model.SyncEventData
}

// NewAccumulator starts a window. prev is the closing observation of the
// pool's previous window, if any.
func NewAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64, prev *amm.Observation) *Accumulator {
	return &Accumulator{
		AppID:        record.AppID,
		PoolAddress:  record.Address,
		PoolMeta:     record.PoolMeta,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		Volume1In:    big.NewInt(0),
		Volume2In:    big.NewInt(0),
		Volume1Out:   big.NewInt(0),
		Volume2Out:   big.NewInt(0),
		PoolersFee1:  big.NewInt(0),
		PoolersFee2:  big.NewInt(0),
		ProtocolFee1: big.NewInt(0),
		ProtocolFee2: big.NewInt(0),
		LastTS:       record.Timestamp,
		Open:         prev,
	}
}

func (a *Accumulator) AddEvent(record model.TypedEventRecord) error {
	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
	}
	// fee changes apply to later swaps of the same window
	if record.PoolMeta != (model.PoolMeta{}) {
		a.PoolMeta = record.PoolMeta
	}

	switch record.EventName {
	case dex.EventSwap:
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap)
	case dex.EventAddLiquidity:
		a.DepositCount++
	case dex.EventRemoveLiquidity:
		a.WithdrawCount++
	case dex.EventSync:
		var sync model.SyncEventData
		if err := json.Unmarshal(record.Decoded, &sync); err != nil {
			return fmt.Errorf("decode sync: %w", err)
		}
		return a.applySync(sync)
	}
	return nil
}

func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	var in, out, poolersFee, protocolFee *big.Int
	switch {
	case swap.InputAssetID == a.PoolMeta.Asset1ID && swap.OutputAssetID == a.PoolMeta.Asset2ID:
		in, out = a.Volume1In, a.Volume2Out
		poolersFee, protocolFee = a.PoolersFee1, a.ProtocolFee1
	case swap.InputAssetID == a.PoolMeta.Asset2ID && swap.OutputAssetID == a.PoolMeta.Asset1ID:
		in, out = a.Volume2In, a.Volume1Out
		poolersFee, protocolFee = a.PoolersFee2, a.ProtocolFee2
	default:
		return fmt.Errorf("swap assets %d/%d do not match pool", swap.InputAssetID, swap.OutputAssetID)
	}

	in.Add(in, new(big.Int).SetUint64(swap.AmountIn))
	out.Add(out, new(big.Int).SetUint64(swap.AmountOut))
	protocolFee.Add(protocolFee, new(big.Int).SetUint64(swap.ProtocolFee))
	poolersFee.Add(poolersFee, new(big.Int).SetUint64(swap.PoolersFee))

	a.SwapCount++
	return nil
}

func (a *Accumulator) applySync(sync model.SyncEventData) error {
	obs, err := observation(sync)
	if err != nil {
		return err
	}
	if a.Open == nil {
		a.Open = &obs
	}
	a.Close = &obs
	a.State = &sync
	return nil
}

// TWAP returns the window's average prices, or false when fewer than two
// distinct observations are available.
func (a *Accumulator) TWAP() (price1, price2 *uint256.Int, ok bool) {
	if a.Open == nil || a.Close == nil || a.Close.Timestamp <= a.Open.Timestamp {
		return nil, nil, false
	}
	price1, price2, err := amm.TWAP(*a.Open, *a.Close)
	if err != nil {
		return nil, nil, false
	}
	return price1, price2, true
}

func observation(sync model.SyncEventData) (amm.Observation, error) {
	c1, err := parseUint256(sync.CumulativePrice1)
	if err != nil {
		return amm.Observation{}, err
	}
	c2, err := parseUint256(sync.CumulativePrice2)
	if err != nil {
		return amm.Observation{}, err
	}
	return amm.Observation{Cumulative1: c1, Cumulative2: c2, Timestamp: sync.Timestamp}, nil
}

func parseUint256(value string) (*uint256.Int, error) {
	if value == "" {
		return uint256.NewInt(0), nil
	}
	parsed, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid cumulative price %q: %w", value, err)
	}
	return parsed, nil
}

