package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cpamm",
		Short:        "Constant-product AMM pool simulator and indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Print the derived pool and application accounts of a pair",
		RunE:  runAddress,
	}

	addressCmd.Flags().Uint64("app-id", 0, "application id")
	addressCmd.Flags().Uint64("asset-1", 0, "asset 1 id (the larger id)")
	addressCmd.Flags().Uint64("asset-2", 0, "asset 2 id (0 for the native asset)")

	root.AddCommand(addressCmd)

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply call requests to the pool ledger",
		RunE:  runApply,
	}

	applyCmd.Flags().Uint64("app-id", 0, "application id")
	applyCmd.Flags().String("in", "", "input call requests JSONL")
	applyCmd.Flags().String("out", "./data/logs.jsonl", "output state-delta logs JSONL")
	applyCmd.Flags().String("results", "./data/results.jsonl", "output call results JSONL")
	applyCmd.Flags().String("state-dir", "./data/state", "ledger state directory")
	applyCmd.Flags().String("genesis", "", "initial ledger snapshot JSON, used when the state is empty")
	applyCmd.Flags().String("fee-collector", "", "initial fee collector address")
	applyCmd.Flags().String("fee-manager", "", "initial fee manager address")
	applyCmd.Flags().String("fee-setter", "", "initial fee setter address")
	applyCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for pool state")
	applyCmd.Flags().Uint64("batch-size", 100, "requests per round")
	applyCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	applyCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	applyCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	applyCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	applyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(applyCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode state-delta logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("state-dir", "", "optional ledger state directory for pools bootstrapped before the input")
	decodeCmd.Flags().Int("cache-size", 4096, "pool metadata cache size")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate typed events into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "", "input typed events JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("state-name", "aggregate", "progress row name in the processing_state table")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
