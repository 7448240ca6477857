package aggregate

import (
	"math/big"
	"time"

	"cpamm/internal/amm"
)

const ratioScale = 18

var q64 = new(big.Int).Lsh(big.NewInt(1), amm.PriceScaleBits)

// formatQ64 renders a Q64 fixed-point value as a decimal.
func formatQ64(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return new(big.Rat).SetFrac(value, q64).FloatString(ratioScale)
}

func stringPtr(v string) *string {
	return &v
}

func computeFeeRates(fee1 *big.Int, fee2 *big.Int, reserve1 *big.Int, reserve2 *big.Int) (*string, *string) {
	var feeRate1 *string
	var feeRate2 *string

	if rate := computeRateFromInt(fee1, reserve1); rate != "" {
		feeRate1 = &rate
	}
	if rate := computeRateFromInt(fee2, reserve2); rate != "" {
		feeRate2 = &rate
	}
	return feeRate1, feeRate2
}

func computeRateFromInt(fee *big.Int, reserve *big.Int) string {
	if fee == nil || fee.Sign() == 0 || reserve == nil || reserve.Sign() == 0 {
		return ""
	}
	rat := new(big.Rat).SetFrac(fee, reserve)
	return rat.FloatString(ratioScale)
}

// computeAPR annualizes the window fee rate. Both sides are priced in their
// own asset, so a window that collected fees on both sides has no single rate.
func computeAPR(feeRate1 *string, feeRate2 *string, windowSeconds uint64) *string {
	if windowSeconds == 0 {
		return nil
	}
	var selected string
	if feeRate1 != nil && feeRate2 == nil {
		selected = *feeRate1
	} else if feeRate2 != nil && feeRate1 == nil {
		selected = *feeRate2
	} else {
		return nil
	}

	rat, ok := new(big.Rat).SetString(selected)
	if !ok {
		return nil
	}
	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	window := big.NewRat(int64(windowSeconds), 1)
	apr := new(big.Rat).Mul(rat, yearSeconds)
	apr.Quo(apr, window)
	val := apr.FloatString(ratioScale)
	return &val
}
