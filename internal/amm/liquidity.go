package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// AddLiquidityArgs identify the pool a deposit goes to. The deposit itself is
// the bundle's two inbound transfers, asset 1 then asset 2.
type AddLiquidityArgs struct {
	Asset1ID     uint64
	Asset2ID     uint64
	ShareAssetID uint64
	Pool         common.Address
}

// RemoveLiquidityArgs identify the pool shares are redeemed from. The burned
// shares are the bundle's inbound share transfer.
type RemoveLiquidityArgs struct {
	Asset1ID uint64
	Asset2ID uint64
	Pool     common.Address
}

// AddLiquidity deposits both assets and mints shares to the caller.
func (e *Engine) AddLiquidity(env Env, args AddLiquidityArgs) (LiquidityQuote, error) {
	const op = "add_liquidity"
	q, err := e.addLiquidity(env, args)
	return q, e.finish(op, env, err,
		zap.String("pool", args.Pool.Hex()),
		zap.Uint64("amount_1", q.Amount1),
		zap.Uint64("amount_2", q.Amount2),
		zap.Uint64("shares", q.Shares),
	)
}

func (e *Engine) addLiquidity(env Env, args AddLiquidityArgs) (LiquidityQuote, error) {
	const op = "add_liquidity"
	p, err := e.loadPool(op, args.Pool, args.Asset1ID, args.Asset2ID)
	if err != nil {
		return LiquidityQuote{}, err
	}
	if args.ShareAssetID != p.ShareAssetID {
		return LiquidityQuote{}, validationf(op, "share asset %d, want %d", args.ShareAssetID, p.ShareAssetID)
	}
	amount1, err := expectTransfer(op, env, 0, p.Address, p.Asset1ID)
	if err != nil {
		return LiquidityQuote{}, err
	}
	amount2, err := expectTransfer(op, env, 1, p.Address, p.Asset2ID)
	if err != nil {
		return LiquidityQuote{}, err
	}

	p.accrue(e.clock.Now())
	q, err := p.QuoteAddLiquidity(amount1, amount2)
	if err != nil {
		return LiquidityQuote{}, err
	}
	issued := p.IssuedShares
	if issued == 0 {
		issued = LockedShares
	}
	if issued, err = add(issued, q.Shares); err != nil {
		return LiquidityQuote{}, err
	}
	if p.Reserve1, err = add(p.Reserve1, amount1); err != nil {
		return LiquidityQuote{}, err
	}
	if p.Reserve2, err = add(p.Reserve2, amount2); err != nil {
		return LiquidityQuote{}, err
	}
	p.IssuedShares = issued

	if err := e.pay(op, p.Address, env.Caller, payout{p.ShareAssetID, q.Shares}); err != nil {
		return LiquidityQuote{}, err
	}
	if err := e.save(p); err != nil {
		return LiquidityQuote{}, err
	}
	if err := e.record(p.Address, "AddLiquidity", env.Caller, amount1, amount2, q.Shares); err != nil {
		return LiquidityQuote{}, err
	}
	return q, e.sync(p)
}

// RemoveLiquidity burns the inbound shares and pays out the proportional reserves.
func (e *Engine) RemoveLiquidity(env Env, args RemoveLiquidityArgs) (LiquidityQuote, error) {
	const op = "remove_liquidity"
	q, err := e.removeLiquidity(env, args)
	return q, e.finish(op, env, err,
		zap.String("pool", args.Pool.Hex()),
		zap.Uint64("amount_1", q.Amount1),
		zap.Uint64("amount_2", q.Amount2),
		zap.Uint64("shares", q.Shares),
		zap.Bool("full_exit", q.FullExit),
	)
}

func (e *Engine) removeLiquidity(env Env, args RemoveLiquidityArgs) (LiquidityQuote, error) {
	const op = "remove_liquidity"
	p, err := e.loadPool(op, args.Pool, args.Asset1ID, args.Asset2ID)
	if err != nil {
		return LiquidityQuote{}, err
	}
	shares, err := expectTransfer(op, env, 0, p.Address, p.ShareAssetID)
	if err != nil {
		return LiquidityQuote{}, err
	}

	p.accrue(e.clock.Now())
	q, err := p.QuoteRemoveLiquidity(shares)
	if err != nil {
		return LiquidityQuote{}, err
	}
	if q.FullExit {
		p.Reserve1, p.Reserve2, p.IssuedShares = 0, 0, 0
	} else {
		p.Reserve1 -= q.Amount1
		p.Reserve2 -= q.Amount2
		p.IssuedShares -= shares
	}

	if err := e.pay(op, p.Address, env.Caller, payout{p.Asset1ID, q.Amount1}, payout{p.Asset2ID, q.Amount2}); err != nil {
		return LiquidityQuote{}, err
	}
	if err := e.save(p); err != nil {
		return LiquidityQuote{}, err
	}
	if err := e.record(p.Address, "RemoveLiquidity", env.Caller, q.Amount1, q.Amount2, shares); err != nil {
		return LiquidityQuote{}, err
	}
	return q, e.sync(p)
}
