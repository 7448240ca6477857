package processor

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/amm"
	"cpamm/internal/dex"
	"cpamm/internal/model"
)

// Application methods.
const (
	MethodBootstrap       = "bootstrap"
	MethodAddLiquidity    = "add_liquidity"
	MethodRemoveLiquidity = "remove_liquidity"
	MethodSwap            = "swap"
	MethodClaimFees       = "claim_fees"
	MethodClaimExtra      = "claim_extra"
	MethodSetFee          = "set_fee"
	MethodSetFeeCollector = "set_fee_collector"
	MethodSetFeeSetter    = "set_fee_setter"
	MethodSetFeeManager   = "set_fee_manager"
)

// dispatch runs a decoded call against the engine. Role changes return the
// updated config; every other method returns env.Config unchanged.
func dispatch(engine *amm.Engine, env amm.Env, req model.CallRequest, call dex.Call) (model.GlobalConfig, error) {
	cfg := env.Config
	a := args{call: call}

	switch call.Method {
	case MethodBootstrap:
		var rekey common.Address
		if req.RekeyTo != nil {
			rekey = *req.RekeyTo
		}
		bargs := amm.BootstrapArgs{Asset1ID: a.u64(0), Asset2ID: a.u64(1), Assets: req.Assets, RekeyTo: rekey}
		if a.err != nil {
			return cfg, a.err
		}
		_, err := engine.Bootstrap(env, bargs)
		return cfg, err

	case MethodAddLiquidity:
		largs := amm.AddLiquidityArgs{Asset1ID: a.u64(0), Asset2ID: a.u64(1), ShareAssetID: a.u64(2), Pool: a.addr(3)}
		if a.err != nil {
			return cfg, a.err
		}
		_, err := engine.AddLiquidity(env, largs)
		return cfg, err

	case MethodRemoveLiquidity:
		rargs := amm.RemoveLiquidityArgs{Asset1ID: a.u64(0), Asset2ID: a.u64(1), Pool: a.addr(2)}
		if a.err != nil {
			return cfg, a.err
		}
		_, err := engine.RemoveLiquidity(env, rargs)
		return cfg, err

	case MethodSwap:
		sargs := amm.SwapArgs{InputAssetID: a.u64(0), OutputAssetID: a.u64(1), Amount: a.u64(2), Mode: a.text(3), Pool: a.addr(4)}
		if a.err != nil {
			return cfg, a.err
		}
		_, err := engine.Swap(env, sargs)
		return cfg, err

	case MethodClaimFees, MethodClaimExtra:
		cargs := amm.ClaimArgs{Asset1ID: a.u64(0), Asset2ID: a.u64(1), Pool: a.addr(2)}
		if a.err != nil {
			return cfg, a.err
		}
		var err error
		if call.Method == MethodClaimFees {
			_, err = engine.ClaimFees(env, cargs)
		} else {
			_, err = engine.ClaimExtra(env, cargs)
		}
		return cfg, err

	case MethodSetFee:
		fargs := amm.SetFeeArgs{PoolersFeeShareBps: a.u64(0), ProtocolFeeShareBps: a.u64(1), Pool: a.addr(2)}
		if a.err != nil {
			return cfg, a.err
		}
		return cfg, engine.SetFee(env, fargs)

	case MethodSetFeeCollector, MethodSetFeeSetter, MethodSetFeeManager:
		account := a.addr(0)
		if a.err != nil {
			return cfg, a.err
		}
		return engine.SetRole(env, strings.TrimPrefix(call.Method, "set_"), account)

	default:
		return cfg, &amm.Error{Kind: amm.ErrValidation, Op: call.Method, Reason: "unsupported method"}
	}
}

// args collects the first argument decoding failure of a call.
type args struct {
	call dex.Call
	err  error
}

func (a *args) u64(i int) uint64 {
	if a.err != nil {
		return 0
	}
	v, err := a.call.Uint64(i)
	a.fail(err)
	return v
}

func (a *args) text(i int) string {
	if a.err != nil {
		return ""
	}
	v, err := a.call.Text(i)
	a.fail(err)
	return v
}

func (a *args) addr(i int) common.Address {
	if a.err != nil {
		return common.Address{}
	}
	v, err := a.call.Address(i)
	a.fail(err)
	return v
}

func (a *args) fail(err error) {
	if err != nil && a.err == nil {
		a.err = &amm.Error{Kind: amm.ErrValidation, Op: a.call.Method, Reason: fmt.Sprintf("bad arguments: %v", err)}
	}
}
