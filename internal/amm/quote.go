package amm

// SwapQuote is the outcome of pricing one swap against a pool.
type SwapQuote struct {
	AmountIn    uint64
	AmountOut   uint64
	ProtocolFee uint64
	PoolersFee  uint64
	Change      uint64
}

// LiquidityQuote is the outcome of a deposit or a redemption.
type LiquidityQuote struct {
	Amount1 uint64
	Amount2 uint64
	Shares  uint64
	// FullExit is set when the redemption drains the pool.
	FullExit bool
}

// QuoteFixedInput prices selling exactly amountIn of inputAssetID.
func (p *Pool) QuoteFixedInput(inputAssetID, outputAssetID, amountIn uint64) (SwapQuote, error) {
	rIn, rOut, _, ok := p.side(inputAssetID, outputAssetID)
	if !ok {
		return SwapQuote{}, validationf("", "assets %d/%d do not belong to the pool", inputAssetID, outputAssetID)
	}
	if rIn == 0 || rOut == 0 {
		return SwapQuote{}, newError(ErrArithmetic, "", "pool has no liquidity")
	}
	if amountIn == 0 {
		return SwapQuote{}, validationf("", "input amount is zero")
	}
	totalFee := p.TotalFeeShareBps()
	inEff, err := mulDiv(amountIn, TotalBps-totalFee, TotalBps, false)
	if err != nil {
		return SwapQuote{}, err
	}
	den, err := add(rIn, inEff)
	if err != nil {
		return SwapQuote{}, err
	}
	out, err := mulDiv(rOut, inEff, den, false)
	if err != nil {
		return SwapQuote{}, err
	}
	if out == 0 {
		return SwapQuote{}, validationf("", "output amount is zero")
	}
	return p.feeSplit(amountIn, inEff, out, 0)
}

// QuoteFixedOutput prices buying exactly amountOut of outputAssetID with at
// most maxIn of inputAssetID. The unused input is returned as Change.
func (p *Pool) QuoteFixedOutput(inputAssetID, outputAssetID, amountOut, maxIn uint64) (SwapQuote, error) {
	rIn, rOut, _, ok := p.side(inputAssetID, outputAssetID)
	if !ok {
		return SwapQuote{}, validationf("", "assets %d/%d do not belong to the pool", inputAssetID, outputAssetID)
	}
	if rIn == 0 || rOut == 0 {
		return SwapQuote{}, newError(ErrArithmetic, "", "pool has no liquidity")
	}
	if amountOut == 0 {
		return SwapQuote{}, validationf("", "output amount is zero")
	}
	if amountOut >= rOut {
		return SwapQuote{}, validationf("", "output %d exceeds reserve %d", amountOut, rOut)
	}
	inEff, err := mulDiv(rIn, amountOut, rOut-amountOut, true)
	if err != nil {
		return SwapQuote{}, err
	}
	in, err := mulDiv(inEff, TotalBps, TotalBps-p.TotalFeeShareBps(), true)
	if err != nil {
		return SwapQuote{}, err
	}
	if in > maxIn {
		return SwapQuote{}, validationf("", "required input %d exceeds maximum %d", in, maxIn)
	}
	return p.feeSplit(in, inEff, amountOut, maxIn-in)
}

func (p *Pool) feeSplit(in, inEff, out, change uint64) (SwapQuote, error) {
	protocolFee, err := mulDiv(in, p.ProtocolFeeShareBps, TotalBps, false)
	if err != nil {
		return SwapQuote{}, err
	}
	// whatever is neither effective input nor protocol fee stays with the poolers
	var poolersFee uint64
	if inEff+protocolFee < in {
		poolersFee = in - inEff - protocolFee
	}
	return SwapQuote{
		AmountIn:    in,
		AmountOut:   out,
		ProtocolFee: protocolFee,
		PoolersFee:  poolersFee,
		Change:      change,
	}, nil
}

// QuoteAddLiquidity returns the shares minted for depositing amount1 and amount2.
func (p *Pool) QuoteAddLiquidity(amount1, amount2 uint64) (LiquidityQuote, error) {
	if amount1 == 0 || amount2 == 0 {
		return LiquidityQuote{}, validationf("", "deposit amounts must be positive")
	}
	q := LiquidityQuote{Amount1: amount1, Amount2: amount2}
	if p.IssuedShares == 0 {
		s := sqrtProduct(amount1, amount2)
		if s <= LockedShares {
			return LiquidityQuote{}, validationf("", "initial liquidity %d does not exceed locked shares", s)
		}
		q.Shares = s - LockedShares
		return q, nil
	}
	if p.Reserve1 == 0 || p.Reserve2 == 0 {
		return LiquidityQuote{}, newError(ErrArithmetic, "", "pool has shares but no reserves")
	}
	// one side may overflow 64 bits on its own; only the smaller must fit
	s := minWide(
		mulDivWide(amount1, p.IssuedShares, p.Reserve1),
		mulDivWide(amount2, p.IssuedShares, p.Reserve2),
	)
	if !s.IsUint64() {
		return LiquidityQuote{}, newError(ErrArithmetic, "", "minted shares overflow 64 bits")
	}
	q.Shares = s.Uint64()
	if q.Shares == 0 {
		return LiquidityQuote{}, validationf("", "deposit mints zero shares")
	}
	return q, nil
}

// QuoteRemoveLiquidity returns the reserves paid out for burning shares.
func (p *Pool) QuoteRemoveLiquidity(shares uint64) (LiquidityQuote, error) {
	if shares == 0 {
		return LiquidityQuote{}, validationf("", "share amount is zero")
	}
	if p.IssuedShares <= LockedShares || shares > p.IssuedShares-LockedShares {
		return LiquidityQuote{}, validationf("", "share amount %d exceeds redeemable shares", shares)
	}
	if p.IssuedShares-shares == LockedShares {
		return LiquidityQuote{Amount1: p.Reserve1, Amount2: p.Reserve2, Shares: shares, FullExit: true}, nil
	}
	out1, err := mulDiv(p.Reserve1, shares, p.IssuedShares, false)
	if err != nil {
		return LiquidityQuote{}, err
	}
	out2, err := mulDiv(p.Reserve2, shares, p.IssuedShares, false)
	if err != nil {
		return LiquidityQuote{}, err
	}
	if out1 == 0 || out2 == 0 {
		return LiquidityQuote{}, validationf("", "redemption pays zero of one asset")
	}
	return LiquidityQuote{Amount1: out1, Amount2: out2, Shares: shares}, nil
}
