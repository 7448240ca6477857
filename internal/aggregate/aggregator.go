package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"cpamm/internal/amm"
	"cpamm/internal/model"
	"cpamm/internal/storage"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// MetricsSink receives flushed window metrics.
type MetricsSink interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Aggregator aggregates typed events into pool window metrics.
type Aggregator struct {
	cfg          Config
	sink         MetricsSink
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	// closing observation of each pool's last flushed window
	lastObs map[string]*amm.Observation
	// end of the latest window written to the sink
	lastWindowEnd uint64
}

func NewAggregator(cfg Config, sink MetricsSink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
		lastObs:      make(map[string]*amm.Observation),
	}
}

// Run executes aggregation over a typed events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.sink == nil {
		return fmt.Errorf("metrics sink is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs
	var total, flushed, skipped, failed int

	err = storage.ScanLines(inputPath, func(_ uint64, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			return nil
		}

		if record.Timestamp <= startTs {
			skipped++
			return nil
		}

		windowStart := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		accKey := poolKey(record.Address)
		acc := a.accumulators[accKey]
		if acc == nil {
			acc = NewAccumulator(record, windowStart, windowEnd, a.lastObs[accKey])
			a.accumulators[accKey] = acc
		} else if acc.WindowStart != windowStart {
			if metrics := a.flushAccumulator(acc); metrics != nil {
				batch = append(batch, *metrics)
				flushed++
			}
			acc = NewAccumulator(record, windowStart, windowEnd, a.lastObs[accKey])
			a.accumulators[accKey] = acc
		}

		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Address), zap.String("event", record.EventName))
			return nil
		}

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.upsert(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]

			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, acc := range a.accumulators {
		if metrics := a.flushAccumulator(acc); metrics != nil {
			batch = append(batch, *metrics)
			flushed++
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 {
		if err := a.upsert(ctx, batch); err != nil {
			return err
		}
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", flushed),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Uint64("last_window_end", a.lastWindowEnd),
	)

	return nil
}

func (a *Aggregator) upsert(ctx context.Context, batch []model.PoolWindowMetrics) error {
	if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
		return err
	}
	for _, m := range batch {
		if end := uint64(m.WindowEnd.Unix()); end > a.lastWindowEnd {
			a.lastWindowEnd = end
		}
	}
	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	progress, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if progress.WindowSeconds != 0 && progress.WindowSeconds != a.cfg.WindowSeconds {
		return 0, fmt.Errorf("state was saved for %ds windows, not %ds", progress.WindowSeconds, a.cfg.WindowSeconds)
	}
	a.lastWindowEnd = progress.LastWindowEnd
	return progress.LastProcessed, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	progress := model.AggregateProgress{
		LastProcessed: a.cfg.RecomputeFrom,
		LastWindowEnd: a.lastWindowEnd,
		WindowSeconds: a.cfg.WindowSeconds,
	}
	// events of windows still open are replayed on the next run
	if len(a.accumulators) > 0 {
		if safeTs := minOpenWindowStart(a.accumulators); safeTs > 1 {
			progress.LastProcessed = safeTs - 1
		}
	}
	return a.cfg.StateStore.Save(ctx, progress)
}

func (a *Aggregator) flushAccumulator(acc *Accumulator) *model.PoolWindowMetrics {
	if acc == nil {
		return nil
	}
	key := poolKey(acc.PoolAddress)
	if acc.Close != nil {
		a.lastObs[key] = acc.Close
	}

	if acc.PoolMeta == (model.PoolMeta{}) {
		a.logger.Warn("missing pool meta", zap.String("pool", acc.PoolAddress))
		return nil
	}

	metrics := &model.PoolWindowMetrics{
		AppID:          acc.AppID,
		PoolAddress:    acc.PoolAddress,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		DepositCount:   acc.DepositCount,
		WithdrawCount:  acc.WithdrawCount,
		Volume1In:      acc.Volume1In.String(),
		Volume2In:      acc.Volume2In.String(),
		Volume1Out:     acc.Volume1Out.String(),
		Volume2Out:     acc.Volume2Out.String(),
		PoolersFee1:    acc.PoolersFee1.String(),
		PoolersFee2:    acc.PoolersFee2.String(),
		ProtocolFee1:   acc.ProtocolFee1.String(),
		ProtocolFee2:   acc.ProtocolFee2.String(),
	}

	var reserve1, reserve2 *big.Int
	if acc.State != nil {
		reserve1 = new(big.Int).SetUint64(acc.State.Reserve1)
		reserve2 = new(big.Int).SetUint64(acc.State.Reserve2)
		metrics.Reserve1 = stringPtr(reserve1.String())
		metrics.Reserve2 = stringPtr(reserve2.String())
		metrics.IssuedShares = stringPtr(new(big.Int).SetUint64(acc.State.IssuedShares).String())
	}
	if price1, price2, ok := acc.TWAP(); ok {
		metrics.TWAP1 = stringPtr(formatQ64(price1.ToBig()))
		metrics.TWAP2 = stringPtr(formatQ64(price2.ToBig()))
	}

	metrics.FeeRate1, metrics.FeeRate2 = computeFeeRates(acc.PoolersFee1, acc.PoolersFee2, reserve1, reserve2)
	metrics.APR = computeAPR(metrics.FeeRate1, metrics.FeeRate2, a.cfg.WindowSeconds)

	a.logger.Debug("window flushed",
		zap.String("pool", acc.PoolAddress),
		zap.Uint64("window_start", acc.WindowStart),
		zap.Uint64("swaps", acc.SwapCount),
	)
	return metrics
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func poolKey(address string) string {
	return strings.ToLower(address)
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
