package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"cpamm/internal/model"
)

// SetFeeArgs carry the new fee split for a pool.
type SetFeeArgs struct {
	Pool                common.Address
	PoolersFeeShareBps  uint64
	ProtocolFeeShareBps uint64
}

// SetFee replaces the fee split of a pool. It applies from the next swap.
func (e *Engine) SetFee(env Env, args SetFeeArgs) error {
	const op = "set_fee"
	err := e.setFee(env, args)
	return e.finish(op, env, err,
		zap.String("pool", args.Pool.Hex()),
		zap.Uint64("poolers_fee_share", args.PoolersFeeShareBps),
		zap.Uint64("protocol_fee_share", args.ProtocolFeeShareBps),
	)
}

func (e *Engine) setFee(env Env, args SetFeeArgs) error {
	const op = "set_fee"
	if env.Caller != env.Config.FeeSetter {
		return authorizationf(op, "caller is not the fee setter")
	}
	total, err := add(args.PoolersFeeShareBps, args.ProtocolFeeShareBps)
	if err != nil || total > MaxTotalFeeBps {
		return newError(ErrConfig, op, "total fee share %d+%d exceeds %d",
			args.PoolersFeeShareBps, args.ProtocolFeeShareBps, MaxTotalFeeBps)
	}
	p, err := e.Pool(args.Pool)
	if err != nil {
		return err
	}
	p.PoolersFeeShareBps = args.PoolersFeeShareBps
	p.ProtocolFeeShareBps = args.ProtocolFeeShareBps
	if err := e.save(p); err != nil {
		return err
	}
	return e.record(p.Address, "SetFee", args.PoolersFeeShareBps, args.ProtocolFeeShareBps)
}

// Role names accepted by SetRole.
const (
	RoleFeeCollector = "fee_collector"
	RoleFeeSetter    = "fee_setter"
	RoleFeeManager   = "fee_manager"
)

// SetRole reassigns one of the global role identities. Only the fee manager
// may call it. The updated configuration is returned for the caller to persist.
func (e *Engine) SetRole(env Env, role string, account common.Address) (model.GlobalConfig, error) {
	op := "set_" + role
	cfg, err := setRole(env, role, account)
	return cfg, e.finish(op, env, err, zap.String("role", role), zap.String("account", account.Hex()))
}

func setRole(env Env, role string, account common.Address) (model.GlobalConfig, error) {
	op := "set_" + role
	if env.Caller != env.Config.FeeManager {
		return model.GlobalConfig{}, authorizationf(op, "caller is not the fee manager")
	}
	if account == (common.Address{}) {
		return model.GlobalConfig{}, validationf(op, "zero address")
	}
	cfg := env.Config
	switch role {
	case RoleFeeCollector:
		cfg.FeeCollector = account
	case RoleFeeSetter:
		cfg.FeeSetter = account
	case RoleFeeManager:
		cfg.FeeManager = account
	default:
		return model.GlobalConfig{}, validationf(op, "unknown role %q", role)
	}
	return cfg, nil
}
