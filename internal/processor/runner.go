package processor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cpamm/internal/amm"
	"cpamm/internal/dex"
	"cpamm/internal/ledger"
	"cpamm/internal/model"
	"cpamm/internal/storage"
)

// StateStore persists the ledger and the role config between runs.
type StateStore interface {
	LoadLedger() (model.LedgerSnapshot, bool, error)
	SaveLedger(snap model.LedgerSnapshot) error
	LoadConfig() (model.GlobalConfig, bool, error)
	SaveConfig(cfg model.GlobalConfig) error
}

// PoolSink receives pool state after every round.
type PoolSink interface {
	UpsertPools(ctx context.Context, appID uint64, pools []model.Pool) error
	InsertPoolSnapshots(ctx context.Context, appID, round uint64, pools []model.Pool) error
}

// RunConfig holds runtime settings for the apply runner.
type RunConfig struct {
	AppID             uint64
	InputPath         string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	// Used when the state store holds no config yet.
	Config model.GlobalConfig
	// Used when the state store holds no ledger yet.
	Genesis *model.LedgerSnapshot
}

// Runner applies call requests to the ledger and writes their state deltas.
type Runner struct {
	cfg        RunConfig
	ledger     *ledger.Memory
	clock      *ledger.ManualClock
	writer     *dex.LogWriter
	engine     *amm.Engine
	storage    storage.Storage
	state      StateStore
	pools      PoolSink
	logger     *zap.Logger
	checkpoint *CheckpointStore
	config     model.GlobalConfig
	round      uint64
}

type pending struct {
	line uint64
	data []byte
}

// NewRunner builds a Runner with its dependencies. state and pools may be nil.
func NewRunner(cfg RunConfig, storageSink storage.Storage, state StateStore, pools PoolSink, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	writer, err := dex.NewLogWriter(cfg.AppID)
	if err != nil {
		return nil, err
	}
	mem := ledger.NewMemory()
	clock := ledger.NewManualClock(0)
	return &Runner{
		cfg:        cfg,
		ledger:     mem,
		clock:      clock,
		writer:     writer,
		engine:     amm.NewEngine(cfg.AppID, mem, clock, amm.WithLogger(logger), amm.WithRecorder(writer)),
		storage:    storageSink,
		state:      state,
		pools:      pools,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		config:     cfg.Config,
	}, nil
}

// Ledger exposes the simulated ledger.
func (r *Runner) Ledger() *ledger.Memory { return r.ledger }

// Config returns the role config in force.
func (r *Runner) Config() model.GlobalConfig { return r.config }

// Run applies every request after the checkpoint.
func (r *Runner) Run(ctx context.Context) error {
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if r.cfg.InputPath == "" {
		return fmt.Errorf("input path is required")
	}

	if err := r.loadState(); err != nil {
		return err
	}

	var after uint64
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return err
	}
	if ok {
		after = cp.LastAppliedLine
		r.round = cp.Round
		r.logger.Info("resume from checkpoint", zap.Uint64("last_applied_line", after), zap.Uint64("round", r.round))
	}

	var requests []pending
	err = storage.ScanLines(r.cfg.InputPath, func(line uint64, data []byte) error {
		if line <= after {
			return nil
		}
		requests = append(requests, pending{line: line, data: append([]byte(nil), data...)})
		return nil
	})
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		r.logger.Info("nothing to apply", zap.Uint64("after_line", after))
		return nil
	}

	rounds, err := splitRounds(requests, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, batch := range rounds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := r.applyRound(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) loadState() error {
	if r.state == nil {
		if r.cfg.Genesis != nil {
			r.ledger.Restore(*r.cfg.Genesis)
		}
		return nil
	}

	snap, ok, err := r.state.LoadLedger()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	switch {
	case ok:
		r.ledger.Restore(snap)
	case r.cfg.Genesis != nil:
		r.ledger.Restore(*r.cfg.Genesis)
	}

	cfg, ok, err := r.state.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if ok {
		r.config = cfg
	}
	return nil
}

func (r *Runner) applyRound(ctx context.Context, batch []pending) error {
	r.round++
	ingestedAt := time.Now().UTC()

	var records []model.LogRecord
	results := make([]model.CallResult, 0, len(batch))
	var applied, rejected int
	for _, p := range batch {
		res, logs := r.apply(p)
		if res.Status == model.CallApplied {
			applied++
		} else {
			rejected++
		}
		results = append(results, res)
		records = append(records, finalizeRecords(logs, r.round, res.ID, r.clock.Now(), ingestedAt)...)
	}

	err := r.retry(ctx, "logs", func(context.Context) error {
		return r.storage.PutLogBatch(records)
	})
	if err != nil {
		return err
	}
	err = r.retry(ctx, "results", func(context.Context) error {
		return r.storage.PutResults(results)
	})
	if err != nil {
		return err
	}

	if err := r.persist(ctx); err != nil {
		return err
	}

	first, last := lineSpan(batch)
	if err := r.checkpoint.Save(last, r.round); err != nil {
		return err
	}

	r.logger.Info("round complete",
		zap.Uint64("round", r.round),
		zap.Int("applied", applied),
		zap.Int("rejected", rejected),
		zap.Int("logs", len(records)),
		zap.Uint64("first_line", first),
		zap.Uint64("last_line", last),
	)
	return nil
}

// apply runs one request as a bundle. A rejected bundle leaves no trace in
// the ledger and emits no logs.
func (r *Runner) apply(p pending) (model.CallResult, []model.LogRecord) {
	res := model.CallResult{Line: p.line, Round: r.round}

	req, err := ParseRequest(p.data)
	res.ID = bundleID(req, p.line)
	if err != nil {
		return r.reject(res, &amm.Error{Kind: amm.ErrValidation, Op: "parse", Reason: err.Error()}), nil
	}
	call, err := dex.DecodeCall(req.Calldata)
	if err != nil {
		return r.reject(res, &amm.Error{Kind: amm.ErrValidation, Op: "decode", Reason: err.Error()}), nil
	}
	res.Method = call.Method

	if req.Timestamp > r.clock.Now() {
		r.clock.Set(req.Timestamp)
	}

	var next model.GlobalConfig
	err = r.ledger.Bundle(func() error {
		for i, t := range req.Transfers {
			if err := r.ledger.Transfer(t.Sender, t); err != nil {
				return fmt.Errorf("inbound transfer %d: %w", i, err)
			}
		}
		env := amm.Env{Caller: req.Sender, Config: r.config, Transfers: payments(req.Transfers)}
		cfg, err := dispatch(r.engine, env, req, call)
		next = cfg
		return err
	})
	if err != nil {
		r.writer.Discard()
		return r.reject(res, err), nil
	}

	r.config = next
	res.Status = model.CallApplied
	return res, r.writer.Drain()
}

// payments drops opt-in transfers, which carry no value for the call.
func payments(transfers []model.Transfer) []model.Transfer {
	out := make([]model.Transfer, 0, len(transfers))
	for _, t := range transfers {
		if t.Sender == t.Receiver && t.Amount == 0 {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (r *Runner) reject(res model.CallResult, err error) model.CallResult {
	res.Status = model.CallRejected
	res.Error = err.Error()
	if kind := amm.Kind(err); kind != nil {
		res.ErrorKind = kind.Error()
	}
	r.logger.Debug("request rejected", zap.String("id", res.ID), zap.Uint64("line", res.Line), zap.Error(err))
	return res
}

func (r *Runner) persist(ctx context.Context) error {
	snap := r.ledger.Snapshot()
	if r.state != nil {
		if err := r.state.SaveLedger(snap); err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
		if err := r.state.SaveConfig(r.config); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}
	if r.pools == nil || len(snap.Pools) == 0 {
		return nil
	}
	return r.retry(ctx, "pools", func(ctx context.Context) error {
		if err := r.pools.UpsertPools(ctx, r.cfg.AppID, snap.Pools); err != nil {
			return err
		}
		return r.pools.InsertPoolSnapshots(ctx, r.cfg.AppID, r.round, snap.Pools)
	})
}
