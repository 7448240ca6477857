package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ClaimArgs identify the pool a fee collector claims from.
type ClaimArgs struct {
	Asset1ID uint64
	Asset2ID uint64
	Pool     common.Address
}

// ClaimResult is what was transferred to the fee collector.
type ClaimResult struct {
	Amount1 uint64
	Amount2 uint64
}

// ClaimFees transfers the accrued protocol fees to the fee collector and
// zeroes them.
func (e *Engine) ClaimFees(env Env, args ClaimArgs) (ClaimResult, error) {
	const op = "claim_fees"
	res, err := e.claimFees(env, args)
	return res, e.finish(op, env, err,
		zap.String("pool", args.Pool.Hex()),
		zap.Uint64("amount_1", res.Amount1),
		zap.Uint64("amount_2", res.Amount2),
	)
}

func (e *Engine) claimFees(env Env, args ClaimArgs) (ClaimResult, error) {
	const op = "claim_fees"
	if env.Caller != env.Config.FeeCollector {
		return ClaimResult{}, authorizationf(op, "caller is not the fee collector")
	}
	p, err := e.loadPool(op, args.Pool, args.Asset1ID, args.Asset2ID)
	if err != nil {
		return ClaimResult{}, err
	}
	res := ClaimResult{Amount1: p.ProtocolFees1, Amount2: p.ProtocolFees2}
	if res.Amount1 == 0 && res.Amount2 == 0 {
		return ClaimResult{}, validationf(op, "no protocol fees to claim")
	}
	if err := e.pay(op, p.Address, env.Config.FeeCollector,
		payout{p.Asset1ID, res.Amount1}, payout{p.Asset2ID, res.Amount2},
	); err != nil {
		return ClaimResult{}, err
	}
	p.ProtocolFees1, p.ProtocolFees2 = 0, 0
	if err := e.save(p); err != nil {
		return ClaimResult{}, err
	}
	return res, e.record(p.Address, "ClaimFees", env.Config.FeeCollector, res.Amount1, res.Amount2)
}

// ClaimExtra transfers any balance the pool holds beyond its reserves and
// protocol fees to the fee collector. Reserves are not touched.
func (e *Engine) ClaimExtra(env Env, args ClaimArgs) (ClaimResult, error) {
	const op = "claim_extra"
	res, err := e.claimExtra(env, args)
	return res, e.finish(op, env, err,
		zap.String("pool", args.Pool.Hex()),
		zap.Uint64("amount_1", res.Amount1),
		zap.Uint64("amount_2", res.Amount2),
	)
}

func (e *Engine) claimExtra(env Env, args ClaimArgs) (ClaimResult, error) {
	const op = "claim_extra"
	if env.Caller != env.Config.FeeCollector {
		return ClaimResult{}, authorizationf(op, "caller is not the fee collector")
	}
	p, err := e.loadPool(op, args.Pool, args.Asset1ID, args.Asset2ID)
	if err != nil {
		return ClaimResult{}, err
	}
	extra1, err := e.surplus(p, p.Asset1ID, p.Reserve1, p.ProtocolFees1)
	if err != nil {
		return ClaimResult{}, err
	}
	extra2, err := e.surplus(p, p.Asset2ID, p.Reserve2, p.ProtocolFees2)
	if err != nil {
		return ClaimResult{}, err
	}
	if extra1 == 0 && extra2 == 0 {
		return ClaimResult{}, validationf(op, "no surplus to claim")
	}
	if err := e.pay(op, p.Address, env.Config.FeeCollector, payout{p.Asset1ID, extra1}, payout{p.Asset2ID, extra2}); err != nil {
		return ClaimResult{}, err
	}
	res := ClaimResult{Amount1: extra1, Amount2: extra2}
	return res, e.record(p.Address, "ClaimExtra", env.Config.FeeCollector, extra1, extra2)
}

// surplus is balance - reserve - fees. For the native asset the account's
// minimum balance is also held back.
func (e *Engine) surplus(p *Pool, assetID, reserve, fees uint64) (uint64, error) {
	bal, _ := e.ledger.Balance(p.Address, assetID)
	held, err := add(reserve, fees)
	if err != nil {
		return 0, err
	}
	if assetID == NativeAssetID {
		if held, err = add(held, e.ledger.MinBalance(p.Address)); err != nil {
			return 0, err
		}
	}
	if bal <= held {
		return 0, nil
	}
	return bal - held, nil
}
