package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// SwapArgs describe a swap. For FixedInput, Amount is the minimum acceptable
// output; for FixedOutput it is the exact output and the inbound transfer is
// the maximum input.
type SwapArgs struct {
	Pool          common.Address
	InputAssetID  uint64
	OutputAssetID uint64
	Amount        uint64
	Mode          string
}

// Swap exchanges the bundle's inbound transfer for the other pool asset.
func (e *Engine) Swap(env Env, args SwapArgs) (SwapQuote, error) {
	const op = "swap"
	q, err := e.swap(env, args)
	return q, e.finish(op, env, err,
		zap.String("pool", args.Pool.Hex()),
		zap.String("mode", args.Mode),
		zap.Uint64("input_asset_id", args.InputAssetID),
		zap.Uint64("amount_in", q.AmountIn),
		zap.Uint64("amount_out", q.AmountOut),
		zap.Uint64("protocol_fee", q.ProtocolFee),
	)
}

func (e *Engine) swap(env Env, args SwapArgs) (SwapQuote, error) {
	const op = "swap"
	p, err := e.Pool(args.Pool)
	if err != nil {
		return SwapQuote{}, withOp(op, err)
	}
	if _, _, _, ok := p.side(args.InputAssetID, args.OutputAssetID); !ok {
		return SwapQuote{}, validationf(op, "assets %d/%d do not belong to the pool", args.InputAssetID, args.OutputAssetID)
	}
	sent, err := expectTransfer(op, env, 0, p.Address, args.InputAssetID)
	if err != nil {
		return SwapQuote{}, err
	}

	p.accrue(e.clock.Now())
	var q SwapQuote
	switch args.Mode {
	case FixedInput:
		q, err = p.QuoteFixedInput(args.InputAssetID, args.OutputAssetID, sent)
		if err == nil && q.AmountOut < args.Amount {
			err = validationf(op, "output %d below minimum %d", q.AmountOut, args.Amount)
		}
	case FixedOutput:
		q, err = p.QuoteFixedOutput(args.InputAssetID, args.OutputAssetID, args.Amount, sent)
	default:
		err = validationf(op, "unknown swap mode %q", args.Mode)
	}
	if err != nil {
		return SwapQuote{}, err
	}
	if err := p.applySwap(args.InputAssetID, q); err != nil {
		return SwapQuote{}, err
	}

	if err := e.pay(op, p.Address, env.Caller, payout{args.OutputAssetID, q.AmountOut}, payout{args.InputAssetID, q.Change}); err != nil {
		return SwapQuote{}, err
	}
	if err := e.save(p); err != nil {
		return SwapQuote{}, err
	}
	if err := e.record(p.Address, "Swap", env.Caller,
		args.InputAssetID, args.OutputAssetID,
		q.AmountIn, q.AmountOut, q.ProtocolFee, q.PoolersFee, q.Change,
	); err != nil {
		return SwapQuote{}, err
	}
	return q, e.sync(p)
}

// applySwap moves the quoted amounts into the reserves. The protocol portion
// of the input is set aside in the fee ledger.
func (p *Pool) applySwap(inputAssetID uint64, q SwapQuote) error {
	rIn, rOut := &p.Reserve1, &p.Reserve2
	fees := &p.ProtocolFees1
	if inputAssetID == p.Asset2ID {
		rIn, rOut = &p.Reserve2, &p.Reserve1
		fees = &p.ProtocolFees2
	}
	in, err := add(*rIn, q.AmountIn-q.ProtocolFee)
	if err != nil {
		return err
	}
	out, err := sub(*rOut, q.AmountOut)
	if err != nil {
		return err
	}
	f, err := add(*fees, q.ProtocolFee)
	if err != nil {
		return err
	}
	*rIn, *rOut, *fees = in, out, f
	return nil
}
