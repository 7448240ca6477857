package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cpamm/internal/config"
	"cpamm/internal/model"
	"cpamm/internal/processor"
	"cpamm/internal/storage"
	"cpamm/internal/storage/kv"
	"cpamm/internal/storage/postgres"
)

func runApply(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.AppID == 0 {
		return fmt.Errorf("app id is required")
	}
	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	roles, err := cfg.Roles()
	if err != nil {
		return err
	}

	var genesis *model.LedgerSnapshot
	if cfg.Genesis != "" {
		data, err := os.ReadFile(cfg.Genesis)
		if err != nil {
			return fmt.Errorf("read genesis: %w", err)
		}
		genesis = &model.LedgerSnapshot{}
		if err := json.Unmarshal(data, genesis); err != nil {
			return fmt.Errorf("parse genesis: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var state processor.StateStore
	if cfg.StateDir != "" {
		store, err := kv.Open(cfg.StateDir)
		if err != nil {
			return err
		}
		defer store.Close()
		state = store
	}

	var pools processor.PoolSink
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		pools = store
	}

	runner, err := processor.NewRunner(processor.RunConfig{
		AppID:             cfg.AppID,
		InputPath:         cfg.In,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		Config:            roles,
		Genesis:           genesis,
	}, storage.NewJsonlStorage(cfg.Out, cfg.Results), state, pools, logger)
	if err != nil {
		return err
	}

	logger.Info("apply start",
		zap.Uint64("app_id", cfg.AppID),
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("results", cfg.Results),
		zap.String("state_dir", cfg.StateDir),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}
