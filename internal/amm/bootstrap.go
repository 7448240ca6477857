package amm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"cpamm/internal/address"
	"cpamm/internal/model"
)

// BootstrapArgs are the arguments of a bootstrap call. Assets is the asset
// list attached to the call; RekeyTo is the authority the pool account hands
// over with it.
type BootstrapArgs struct {
	Asset1ID uint64
	Asset2ID uint64
	Assets   []uint64
	RekeyTo  common.Address
}

// Bootstrap creates the pool for a pair. The caller is the pool's derived
// account and funds the minimum balance and the share asset creation.
func (e *Engine) Bootstrap(env Env, args BootstrapArgs) (model.Pool, error) {
	const op = "bootstrap"
	pool, err := e.bootstrap(env, args)
	if err != nil {
		return model.Pool{}, e.finish(op, env, err, zap.Uint64("asset_1_id", args.Asset1ID), zap.Uint64("asset_2_id", args.Asset2ID))
	}
	return pool, e.finish(op, env, nil, zap.String("pool", pool.Address.Hex()), zap.Uint64("share_asset_id", pool.ShareAssetID))
}

func (e *Engine) bootstrap(env Env, args BootstrapArgs) (model.Pool, error) {
	const op = "bootstrap"
	if args.Asset1ID <= args.Asset2ID {
		return model.Pool{}, validationf(op, "asset 1 id %d must be greater than asset 2 id %d", args.Asset1ID, args.Asset2ID)
	}
	if err := address.Authorize(e.appID, env.Caller, args.Asset1ID, args.Asset2ID, args.Assets); err != nil {
		if errors.Is(err, address.ErrCallerMismatch) {
			return model.Pool{}, authorizationf(op, "%v", err)
		}
		return model.Pool{}, validationf(op, "%v", err)
	}
	if args.RekeyTo != e.appAddress {
		return model.Pool{}, validationf(op, "pool must rekey to the application account")
	}
	pool := env.Caller
	if _, exists := e.ledger.PoolState(pool); exists {
		return model.Pool{}, validationf(op, "pool %s already bootstrapped", pool.Hex())
	}

	unit1, err := e.assetUnit(op, args.Asset1ID)
	if err != nil {
		return model.Pool{}, err
	}
	unit2, err := e.assetUnit(op, args.Asset2ID)
	if err != nil {
		return model.Pool{}, err
	}

	required := PoolMinBalance(args.Asset2ID) + AppFunding
	if bal, _ := e.ledger.Balance(pool, NativeAssetID); bal < required {
		return model.Pool{}, newError(ErrInsufficientFunds, op, "pool balance %d below required %d", bal, required)
	}

	if err := e.ledger.SetAuthority(pool, e.appAddress); err != nil {
		return model.Pool{}, err
	}
	if err := e.pay(op, pool, e.appAddress, payout{NativeAssetID, AppFunding}); err != nil {
		return model.Pool{}, err
	}
	shareID, err := e.ledger.CreateAsset(model.AssetParams{
		Creator:  e.appAddress,
		Total:    ShareTotalSupply,
		Decimals: ShareDecimals,
		UnitName: ShareUnitName,
		Name:     fmt.Sprintf("CPAMM %s-%s", unit1, unit2),
		URL:      ShareURL,
	})
	if err != nil {
		return model.Pool{}, err
	}
	for _, id := range []uint64{args.Asset1ID, args.Asset2ID, shareID} {
		if id == NativeAssetID {
			continue
		}
		if err := e.optIn(pool, id); err != nil {
			return model.Pool{}, err
		}
	}
	// the whole share supply starts uncirculated in the pool
	if err := e.ledger.Transfer(e.appAddress, model.Transfer{
		Sender:   e.appAddress,
		Receiver: pool,
		AssetID:  shareID,
		Amount:   ShareTotalSupply,
	}); err != nil {
		return model.Pool{}, err
	}

	p := &Pool{
		Address:             pool,
		Asset1ID:            args.Asset1ID,
		Asset2ID:            args.Asset2ID,
		ShareAssetID:        shareID,
		PoolersFeeShareBps:  DefaultPoolersFeeShareBps,
		ProtocolFeeShareBps: DefaultProtocolFeeShareBps,
		LastUpdateTime:      e.clock.Now(),
	}
	if err := e.save(p); err != nil {
		return model.Pool{}, err
	}
	if err := e.record(pool, "Bootstrap", args.Asset1ID, args.Asset2ID, shareID); err != nil {
		return model.Pool{}, err
	}
	if err := e.sync(p); err != nil {
		return model.Pool{}, err
	}
	return p.Record(), nil
}

// assetUnit validates a pair asset and returns its unit name.
func (e *Engine) assetUnit(op string, id uint64) (string, error) {
	if id == NativeAssetID {
		return "NATIVE", nil
	}
	params, ok := e.ledger.Asset(id)
	if !ok {
		return "", validationf(op, "asset %d does not exist", id)
	}
	if params.Total < AssetMinTotal {
		return "", validationf(op, "asset %d total %d below minimum %d", id, params.Total, AssetMinTotal)
	}
	return params.UnitName, nil
}

func (e *Engine) optIn(account common.Address, assetID uint64) error {
	return e.ledger.Transfer(e.appAddress, model.Transfer{
		Sender:   account,
		Receiver: account,
		AssetID:  assetID,
	})
}
