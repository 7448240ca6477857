package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cpamm/internal/config"
	"cpamm/internal/dex"
	"cpamm/internal/model"
	"cpamm/internal/storage"
	"cpamm/internal/storage/kv"
)

type decodeStats struct {
	total, decoded, skipped, failed int
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := dex.NewPoolMetaCache(cfg.CacheSize)
	if err != nil {
		return err
	}
	decodeCtx := dex.DecodeContext{
		PoolMetaCache: cache,
		Logger:        logger,
	}
	if cfg.StateDir != "" {
		store, err := kv.Open(cfg.StateDir)
		if err != nil {
			return err
		}
		defer store.Close()
		decodeCtx.MetaSource = store
	}

	decoder, err := dex.NewPoolDecoder()
	if err != nil {
		return err
	}

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("state_dir", cfg.StateDir),
	)

	stats, err := decodeFile(ctx, decoder, decodeCtx, cfg.In, cfg.Out, cfg.Errors)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)
	return nil
}

func decodeFile(ctx context.Context, decoder dex.Decoder, decodeCtx dex.DecodeContext, in, out, errPath string) (decodeStats, error) {
	var stats decodeStats

	outWriter, err := newJSONLWriter(out, false)
	if err != nil {
		return stats, err
	}
	defer outWriter.Close()

	errWriter, err := newJSONLWriter(errPath, false)
	if err != nil {
		return stats, err
	}
	defer errWriter.Close()

	err = storage.ScanLines(in, func(_ uint64, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.failed++
			writeDecodeError(errWriter, model.DecodeError{Error: err.Error()})
			return nil
		}
		if len(record.Topics) == 0 {
			stats.failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, fmt.Errorf("missing topic0")))
			return nil
		}

		if !decoder.CanDecode(record.Topics[0]) {
			stats.skipped++
			return nil
		}

		event, err := decoder.Decode(record, decodeCtx)
		if err != nil {
			stats.failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, err))
			return nil
		}

		if err := outWriter.Write(event); err != nil {
			return err
		}
		stats.decoded++
		return nil
	})
	return stats, err
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string, appendMode bool) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func decodeErrorFromRecord(record model.LogRecord, err error) model.DecodeError {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}

	return model.DecodeError{
		AppID:    record.AppID,
		Round:    record.Round,
		BundleID: record.BundleID,
		LogIndex: record.LogIndex,
		Address:  record.Address,
		Topic0:   topic0,
		Error:    err.Error(),
	}
}

func writeDecodeError(writer *jsonlWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
