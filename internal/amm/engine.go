package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"cpamm/internal/address"
	"cpamm/internal/model"
)

// Ledger is the host ledger the engine requests transfers from. Transfers
// sent from an account require authorizer to hold that account's authority.
type Ledger interface {
	Asset(id uint64) (model.AssetParams, bool)
	// Balance returns the holding of assetID and whether the account holds it.
	Balance(account common.Address, assetID uint64) (uint64, bool)
	MinBalance(account common.Address) uint64
	Transfer(authorizer common.Address, t model.Transfer) error
	CreateAsset(params model.AssetParams) (uint64, error)
	SetAuthority(account, authority common.Address) error
	PoolState(account common.Address) (model.Pool, bool)
	SetPoolState(pool model.Pool) error
}

// Clock supplies the current time in seconds.
type Clock interface {
	Now() uint64
}

// Recorder receives a state-delta event for every applied operation.
type Recorder interface {
	Record(pool common.Address, event string, args ...interface{}) error
}

// Env carries the per-call context: the caller, the role identities, and the
// inbound transfers that preceded the call in its bundle.
type Env struct {
	Caller    common.Address
	Config    model.GlobalConfig
	Transfers []model.Transfer
}

// Engine applies pool transitions for one application. Every call is meant
// to run inside one host-ledger bundle (ledger.Memory.Bundle): the engine
// checks all payouts before moving funds, but the inbound transfers and any
// failure after the payouts are only undone by the bundle.
type Engine struct {
	appID      uint64
	appAddress common.Address
	ledger     Ledger
	clock      Clock
	recorder   Recorder
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder sets the state-delta event recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine builds an engine for appID over ledger.
func NewEngine(appID uint64, ledger Ledger, clock Clock, opts ...Option) *Engine {
	e := &Engine{
		appID:      appID,
		appAddress: address.ApplicationAddress(appID),
		ledger:     ledger,
		clock:      clock,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AppID returns the application id.
func (e *Engine) AppID() uint64 { return e.appID }

// AppAddress returns the application account.
func (e *Engine) AppAddress() common.Address { return e.appAddress }

// PoolAddress returns the custodial account of a pair.
func (e *Engine) PoolAddress(asset1ID, asset2ID uint64) common.Address {
	return address.Derive(e.appID, asset1ID, asset2ID)
}

// Pool loads the state of the pool at addr.
func (e *Engine) Pool(addr common.Address) (*Pool, error) {
	rec, ok := e.ledger.PoolState(addr)
	if !ok {
		return nil, validationf("", "pool %s is not bootstrapped", addr.Hex())
	}
	return PoolFromRecord(rec)
}

// loadPool loads the pool at addr and checks the pair ids.
func (e *Engine) loadPool(op string, addr common.Address, asset1ID, asset2ID uint64) (*Pool, error) {
	p, err := e.Pool(addr)
	if err != nil {
		return nil, withOp(op, err)
	}
	if !p.HasAssets(asset1ID, asset2ID) {
		return nil, validationf(op, "assets %d/%d do not match pool %d/%d", asset1ID, asset2ID, p.Asset1ID, p.Asset2ID)
	}
	return p, nil
}

// expectTransfer checks the i-th inbound transfer of env.
func expectTransfer(op string, env Env, i int, pool common.Address, assetID uint64) (uint64, error) {
	if i >= len(env.Transfers) {
		return 0, validationf(op, "missing inbound transfer %d", i)
	}
	t := env.Transfers[i]
	switch {
	case t.Sender != env.Caller:
		return 0, validationf(op, "transfer %d sender %s is not the caller", i, t.Sender.Hex())
	case t.Receiver != pool:
		return 0, validationf(op, "transfer %d receiver %s is not the pool", i, t.Receiver.Hex())
	case t.AssetID != assetID:
		return 0, validationf(op, "transfer %d asset %d, want %d", i, t.AssetID, assetID)
	case t.Amount == 0:
		return 0, validationf(op, "transfer %d amount is zero", i)
	}
	return t.Amount, nil
}

// payout is one outbound transfer from a pool.
type payout struct {
	assetID uint64
	amount  uint64
}

// pay sends every payout from the pool to receiver. Zero amounts are skipped.
// The receiver must hold each paid asset and the pool must cover each amount;
// both are checked before the first transfer.
func (e *Engine) pay(op string, pool, receiver common.Address, payouts ...payout) error {
	for _, po := range payouts {
		if po.amount == 0 {
			continue
		}
		if _, held := e.ledger.Balance(receiver, po.assetID); !held {
			return newError(ErrInsufficientFunds, op, "%s is not opted in to asset %d", receiver.Hex(), po.assetID)
		}
		need := po.amount
		if po.assetID == NativeAssetID {
			need += e.ledger.MinBalance(pool)
		}
		if bal, _ := e.ledger.Balance(pool, po.assetID); bal < need || need < po.amount {
			return newError(ErrInsufficientFunds, op, "pool holds %d of asset %d, cannot pay %d", bal, po.assetID, po.amount)
		}
	}
	for _, po := range payouts {
		if po.amount == 0 {
			continue
		}
		err := e.ledger.Transfer(e.appAddress, model.Transfer{
			Sender:   pool,
			Receiver: receiver,
			AssetID:  po.assetID,
			Amount:   po.amount,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) save(p *Pool) error {
	return e.ledger.SetPoolState(p.Record())
}

func (e *Engine) record(pool common.Address, event string, args ...interface{}) error {
	if e.recorder == nil {
		return nil
	}
	return e.recorder.Record(pool, event, args...)
}

// sync emits the post-transition reserves and accumulators.
func (e *Engine) sync(p *Pool) error {
	return e.record(p.Address, "Sync",
		p.Reserve1, p.Reserve2, p.IssuedShares,
		p.CumulativePrice1.ToBig(), p.CumulativePrice2.ToBig(),
		p.LastUpdateTime,
	)
}

// finish logs the outcome of op and tags err with it.
func (e *Engine) finish(op string, env Env, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.String("caller", env.Caller.Hex()))
	if err != nil {
		err = withOp(op, err)
		e.logger.Warn("operation rejected", append(fields, zap.Error(err))...)
		return err
	}
	e.logger.Debug("operation applied", fields...)
	return nil
}
