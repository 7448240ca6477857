package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cpamm/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	dir := t.TempDir()
	logs := filepath.Join(dir, "out", "logs.jsonl")
	results := filepath.Join(dir, "out", "results.jsonl")
	s := NewJsonlStorage(logs, results)

	require.NoError(t, s.PutLogBatch([]model.LogRecord{{AppID: 1, LogIndex: 0}, {AppID: 1, LogIndex: 1}}))
	require.NoError(t, s.PutLogBatch(nil))
	require.NoError(t, s.PutLogBatch([]model.LogRecord{{AppID: 1, LogIndex: 2}}))
	require.NoError(t, s.PutResults([]model.CallResult{{Line: 3, Status: model.CallRejected, ErrorKind: "validation error"}}))

	var got []model.LogRecord
	require.NoError(t, ScanLines(logs, func(_ uint64, data []byte) error {
		var rec model.LogRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		got = append(got, rec)
		return nil
	}))
	require.Len(t, got, 3)
	require.Equal(t, uint64(2), got[2].LogIndex)

	raw, err := os.ReadFile(results)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"status":"rejected"`)
}

func TestScanLinesSkipsBlankAndNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n\n  \n{\"a\":1}\n"), 0o644))

	var lines []uint64
	require.NoError(t, ScanLines(path, func(line uint64, _ []byte) error {
		lines = append(lines, line)
		return nil
	}))
	require.Equal(t, []uint64{1, 4}, lines)

	stop := errors.New("stop")
	err := ScanLines(path, func(uint64, []byte) error { return stop })
	require.ErrorIs(t, err, stop)

	require.Error(t, ScanLines(filepath.Join(t.TempDir(), "missing"), func(uint64, []byte) error { return nil }))
}
