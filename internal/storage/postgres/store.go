package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cpamm/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS pools (
	app_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	asset1_id NUMERIC NOT NULL,
	asset2_id NUMERIC NOT NULL,
	share_asset_id NUMERIC NOT NULL,
	reserve1 NUMERIC NOT NULL,
	reserve2 NUMERIC NOT NULL,
	issued_shares NUMERIC NOT NULL,
	poolers_fee_share_bps INTEGER NOT NULL,
	protocol_fee_share_bps INTEGER NOT NULL,
	protocol_fees1 NUMERIC NOT NULL,
	protocol_fees2 NUMERIC NOT NULL,
	cumulative_price1 NUMERIC NOT NULL,
	cumulative_price2 NUMERIC NOT NULL,
	last_update_ts BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (app_id, pool_address)
);
CREATE TABLE IF NOT EXISTS pool_snapshots (
	app_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	round BIGINT NOT NULL,
	reserve1 NUMERIC NOT NULL,
	reserve2 NUMERIC NOT NULL,
	issued_shares NUMERIC NOT NULL,
	protocol_fees1 NUMERIC NOT NULL,
	protocol_fees2 NUMERIC NOT NULL,
	cumulative_price1 NUMERIC NOT NULL,
	cumulative_price2 NUMERIC NOT NULL,
	last_update_ts BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (app_id, pool_address, round)
);
CREATE TABLE IF NOT EXISTS pool_window_metrics (
	app_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts TIMESTAMPTZ NOT NULL,
	window_end_ts TIMESTAMPTZ NOT NULL,
	swap_count BIGINT NOT NULL,
	deposit_count BIGINT NOT NULL,
	withdraw_count BIGINT NOT NULL,
	volume1_in NUMERIC NOT NULL,
	volume2_in NUMERIC NOT NULL,
	volume1_out NUMERIC NOT NULL,
	volume2_out NUMERIC NOT NULL,
	poolers_fee1 NUMERIC NOT NULL,
	poolers_fee2 NUMERIC NOT NULL,
	protocol_fee1 NUMERIC NOT NULL,
	protocol_fee2 NUMERIC NOT NULL,
	reserve1 NUMERIC,
	reserve2 NUMERIC,
	issued_shares NUMERIC,
	twap1 NUMERIC,
	twap2 NUMERIC,
	fee_rate1 NUMERIC,
	fee_rate2 NUMERIC,
	apr NUMERIC,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (app_id, pool_address, window_size_seconds, window_start_ts)
);
CREATE TABLE IF NOT EXISTS processing_state (
	name TEXT PRIMARY KEY,
	last_processed BIGINT NOT NULL,
	last_window_end BIGINT NOT NULL DEFAULT 0,
	window_seconds BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Store provides Postgres persistence for pool state and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates the latest state of each pool.
func (s *Store) UpsertPools(ctx context.Context, appID uint64, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				app_id, pool_address, asset1_id, asset2_id, share_asset_id,
				reserve1, reserve2, issued_shares, poolers_fee_share_bps, protocol_fee_share_bps,
				protocol_fees1, protocol_fees2, cumulative_price1, cumulative_price2, last_update_ts,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
			ON CONFLICT (app_id, pool_address)
			DO UPDATE SET
				share_asset_id = EXCLUDED.share_asset_id,
				reserve1 = EXCLUDED.reserve1,
				reserve2 = EXCLUDED.reserve2,
				issued_shares = EXCLUDED.issued_shares,
				poolers_fee_share_bps = EXCLUDED.poolers_fee_share_bps,
				protocol_fee_share_bps = EXCLUDED.protocol_fee_share_bps,
				protocol_fees1 = EXCLUDED.protocol_fees1,
				protocol_fees2 = EXCLUDED.protocol_fees2,
				cumulative_price1 = EXCLUDED.cumulative_price1,
				cumulative_price2 = EXCLUDED.cumulative_price2,
				last_update_ts = EXCLUDED.last_update_ts,
				updated_at = now()
		`, poolArgs(appID, pool)...)
	}
	return s.exec(ctx, batch, len(pools))
}

// InsertPoolSnapshots records pool state as of round. Replaying a round
// overwrites its snapshot.
func (s *Store) InsertPoolSnapshots(ctx context.Context, appID, round uint64, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				app_id, pool_address, round, reserve1, reserve2, issued_shares,
				protocol_fees1, protocol_fees2, cumulative_price1, cumulative_price2, last_update_ts, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (app_id, pool_address, round)
			DO UPDATE SET
				reserve1 = EXCLUDED.reserve1,
				reserve2 = EXCLUDED.reserve2,
				issued_shares = EXCLUDED.issued_shares,
				protocol_fees1 = EXCLUDED.protocol_fees1,
				protocol_fees2 = EXCLUDED.protocol_fees2,
				cumulative_price1 = EXCLUDED.cumulative_price1,
				cumulative_price2 = EXCLUDED.cumulative_price2,
				last_update_ts = EXCLUDED.last_update_ts
		`,
			int64(appID),
			pool.Address.Hex(),
			int64(round),
			numeric(pool.Reserve1),
			numeric(pool.Reserve2),
			numeric(pool.IssuedShares),
			numeric(pool.ProtocolFees1),
			numeric(pool.ProtocolFees2),
			pool.CumulativePrice1,
			pool.CumulativePrice2,
			int64(pool.LastUpdateTime),
		)
	}
	return s.exec(ctx, batch, len(pools))
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				app_id, pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, deposit_count, withdraw_count,
				volume1_in, volume2_in, volume1_out, volume2_out,
				poolers_fee1, poolers_fee2, protocol_fee1, protocol_fee2,
				reserve1, reserve2, issued_shares, twap1, twap2, fee_rate1, fee_rate2, apr,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,now(),now())
			ON CONFLICT (app_id, pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdraw_count = EXCLUDED.withdraw_count,
				volume1_in = EXCLUDED.volume1_in,
				volume2_in = EXCLUDED.volume2_in,
				volume1_out = EXCLUDED.volume1_out,
				volume2_out = EXCLUDED.volume2_out,
				poolers_fee1 = EXCLUDED.poolers_fee1,
				poolers_fee2 = EXCLUDED.poolers_fee2,
				protocol_fee1 = EXCLUDED.protocol_fee1,
				protocol_fee2 = EXCLUDED.protocol_fee2,
				reserve1 = EXCLUDED.reserve1,
				reserve2 = EXCLUDED.reserve2,
				issued_shares = EXCLUDED.issued_shares,
				twap1 = EXCLUDED.twap1,
				twap2 = EXCLUDED.twap2,
				fee_rate1 = EXCLUDED.fee_rate1,
				fee_rate2 = EXCLUDED.fee_rate2,
				apr = EXCLUDED.apr,
				updated_at = now()
		`,
			int64(m.AppID),
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.DepositCount),
			int64(m.WithdrawCount),
			m.Volume1In,
			m.Volume2In,
			m.Volume1Out,
			m.Volume2Out,
			m.PoolersFee1,
			m.PoolersFee2,
			m.ProtocolFee1,
			m.ProtocolFee2,
			m.Reserve1,
			m.Reserve2,
			m.IssuedShares,
			m.TWAP1,
			m.TWAP2,
			m.FeeRate1,
			m.FeeRate2,
			m.APR,
		)
	}
	return s.exec(ctx, batch, len(metrics))
}

// LoadState returns the aggregation progress saved under name.
func (s *Store) LoadState(ctx context.Context, name string) (model.AggregateProgress, bool, error) {
	if name == "" {
		return model.AggregateProgress{}, false, fmt.Errorf("state name required")
	}
	var last, windowEnd, windowSecs int64
	row := s.pool.QueryRow(ctx, `
		SELECT last_processed, last_window_end, window_seconds
		FROM processing_state WHERE name=$1
	`, name)
	if err := row.Scan(&last, &windowEnd, &windowSecs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AggregateProgress{}, false, nil
		}
		return model.AggregateProgress{}, false, err
	}
	return model.AggregateProgress{
		LastProcessed: uint64(last),
		LastWindowEnd: uint64(windowEnd),
		WindowSeconds: uint64(windowSecs),
	}, true, nil
}

// SaveState upserts the aggregation progress for name.
func (s *Store) SaveState(ctx context.Context, name string, progress model.AggregateProgress) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processing_state (name, last_processed, last_window_end, window_seconds, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed = EXCLUDED.last_processed,
			last_window_end = EXCLUDED.last_window_end,
			window_seconds = EXCLUDED.window_seconds,
			updated_at = now()
	`, name, int64(progress.LastProcessed), int64(progress.LastWindowEnd), int64(progress.WindowSeconds))
	return err
}

func (s *Store) exec(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func poolArgs(appID uint64, pool model.Pool) []interface{} {
	return []interface{}{
		int64(appID),
		pool.Address.Hex(),
		numeric(pool.Asset1ID),
		numeric(pool.Asset2ID),
		numeric(pool.ShareAssetID),
		numeric(pool.Reserve1),
		numeric(pool.Reserve2),
		numeric(pool.IssuedShares),
		int32(pool.PoolersFeeShareBps),
		int32(pool.ProtocolFeeShareBps),
		numeric(pool.ProtocolFees1),
		numeric(pool.ProtocolFees2),
		pool.CumulativePrice1,
		pool.CumulativePrice2,
		int64(pool.LastUpdateTime),
	}
}
