package amm_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"cpamm/internal/amm"
	"cpamm/internal/ledger"
	"cpamm/internal/model"
)

const (
	testAppID uint64 = 7
	startTime uint64 = 1_700_000_000
)

var (
	issuer    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	user      = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	collector = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	manager   = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	setter    = common.HexToAddress("0x00000000000000000000000000000000000000e5")
)

type fixture struct {
	t      *testing.T
	ledger *ledger.Memory
	clock  *ledger.ManualClock
	engine *amm.Engine
	cfg    model.GlobalConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := ledger.NewMemory()
	clock := ledger.NewManualClock(startTime)
	f := &fixture{
		t:      t,
		ledger: l,
		clock:  clock,
		engine: amm.NewEngine(testAppID, l, clock),
		cfg:    model.GlobalConfig{FeeCollector: collector, FeeManager: manager, FeeSetter: setter},
	}
	for _, acc := range []common.Address{issuer, user, collector, manager, setter} {
		l.Fund(acc, 10_000_000)
	}
	return f
}

func (f *fixture) env(caller common.Address, transfers ...model.Transfer) amm.Env {
	return amm.Env{Caller: caller, Config: f.cfg, Transfers: transfers}
}

// createAsset registers an asset and hands user and collector a holding.
func (f *fixture) createAsset(unit string, total uint64) uint64 {
	f.t.Helper()
	id, err := f.ledger.CreateAsset(model.AssetParams{Creator: issuer, Total: total, UnitName: unit, Name: unit, Decimals: 6})
	require.NoError(f.t, err)
	f.optIn(user, id)
	f.optIn(collector, id)
	if total >= 100_000_000 {
		f.send(model.Transfer{Sender: issuer, Receiver: user, AssetID: id, Amount: total / 2})
	}
	return id
}

func (f *fixture) optIn(acc common.Address, assetID uint64) {
	f.t.Helper()
	f.send(model.Transfer{Sender: acc, Receiver: acc, AssetID: assetID})
}

func (f *fixture) send(t model.Transfer) {
	f.t.Helper()
	require.NoError(f.t, f.ledger.Transfer(t.Sender, t))
}

func (f *fixture) balance(acc common.Address, assetID uint64) uint64 {
	v, _ := f.ledger.Balance(acc, assetID)
	return v
}

// bootstrap funds the pool account with exactly the required amount and
// bootstraps the pair.
func (f *fixture) bootstrap(asset1ID, asset2ID uint64) model.Pool {
	f.t.Helper()
	pool := f.engine.PoolAddress(asset1ID, asset2ID)
	f.ledger.Fund(pool, amm.PoolMinBalance(asset2ID)+amm.AppFunding)
	rec, err := f.engine.Bootstrap(f.env(pool), amm.BootstrapArgs{
		Asset1ID: asset1ID,
		Asset2ID: asset2ID,
		Assets:   []uint64{asset1ID, asset2ID},
		RekeyTo:  f.engine.AppAddress(),
	})
	require.NoError(f.t, err)
	f.optIn(user, rec.ShareAssetID)
	return rec
}

func (f *fixture) pool(addr common.Address) model.Pool {
	f.t.Helper()
	rec, ok := f.ledger.PoolState(addr)
	require.True(f.t, ok)
	return rec
}

func (f *fixture) addLiquidity(p model.Pool, amount1, amount2 uint64) (amm.LiquidityQuote, error) {
	var q amm.LiquidityQuote
	err := f.ledger.Bundle(func() error {
		t1 := model.Transfer{Sender: user, Receiver: p.Address, AssetID: p.Asset1ID, Amount: amount1}
		t2 := model.Transfer{Sender: user, Receiver: p.Address, AssetID: p.Asset2ID, Amount: amount2}
		for _, t := range []model.Transfer{t1, t2} {
			if err := f.ledger.Transfer(user, t); err != nil {
				return err
			}
		}
		var err error
		q, err = f.engine.AddLiquidity(f.env(user, t1, t2), amm.AddLiquidityArgs{
			Asset1ID:     p.Asset1ID,
			Asset2ID:     p.Asset2ID,
			ShareAssetID: p.ShareAssetID,
			Pool:         p.Address,
		})
		return err
	})
	return q, err
}

func (f *fixture) removeLiquidity(p model.Pool, shares uint64) (amm.LiquidityQuote, error) {
	var q amm.LiquidityQuote
	err := f.ledger.Bundle(func() error {
		t := model.Transfer{Sender: user, Receiver: p.Address, AssetID: p.ShareAssetID, Amount: shares}
		if err := f.ledger.Transfer(user, t); err != nil {
			return err
		}
		var err error
		q, err = f.engine.RemoveLiquidity(f.env(user, t), amm.RemoveLiquidityArgs{
			Asset1ID: p.Asset1ID,
			Asset2ID: p.Asset2ID,
			Pool:     p.Address,
		})
		return err
	})
	return q, err
}

func (f *fixture) swap(p model.Pool, inputID, outputID, sent, amount uint64, mode string) (amm.SwapQuote, error) {
	var q amm.SwapQuote
	err := f.ledger.Bundle(func() error {
		t := model.Transfer{Sender: user, Receiver: p.Address, AssetID: inputID, Amount: sent}
		if err := f.ledger.Transfer(user, t); err != nil {
			return err
		}
		var err error
		q, err = f.engine.Swap(f.env(user, t), amm.SwapArgs{
			Pool:          p.Address,
			InputAssetID:  inputID,
			OutputAssetID: outputID,
			Amount:        amount,
			Mode:          mode,
		})
		return err
	})
	return q, err
}

// twoAssetPool returns a bootstrapped pool over two fresh assets.
func (f *fixture) twoAssetPool() model.Pool {
	f.t.Helper()
	a := f.createAsset("AAA", 1_000_000_000_000)
	b := f.createAsset("BBB", 1_000_000_000_000)
	return f.bootstrap(b, a)
}
