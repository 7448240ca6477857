package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"cpamm/internal/address"
	"cpamm/internal/dex"
	"cpamm/internal/model"
)

func TestAddressCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"address", "--app-id", "7", "--asset-1", "2", "--asset-2", "1"})
	require.NoError(t, root.Execute())

	var got addressOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Equal(t, address.Derive(7, 2, 1).Hex(), got.Pool)
	require.Equal(t, address.ApplicationAddress(7).Hex(), got.Application)

	root = newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"address", "--app-id", "7", "--asset-1", "1", "--asset-2", "2"})
	require.Error(t, root.Execute())
}

func TestParseWindow(t *testing.T) {
	secs, err := parseWindow("5m")
	require.NoError(t, err)
	require.Equal(t, uint64(300), secs)

	for _, bad := range []string{"", "-1m", "500ms", "soon"} {
		_, err := parseWindow(bad)
		require.Error(t, err, bad)
	}
}

func TestDecodeFile(t *testing.T) {
	pool := address.Derive(7, 2, 1)
	user := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	w, err := dex.NewLogWriter(7)
	require.NoError(t, err)
	require.NoError(t, w.Record(pool, dex.EventBootstrap, uint64(2), uint64(1), uint64(3)))
	require.NoError(t, w.Record(pool, dex.EventSwap, user, uint64(2), uint64(1), uint64(10_000), uint64(9_871), uint64(5), uint64(25), uint64(0)))

	var lines []string
	for _, rec := range w.Drain() {
		raw, err := json.Marshal(rec)
		require.NoError(t, err)
		lines = append(lines, string(raw))
	}
	lines = append(lines,
		"garbage",
		`{"app_id":7,"topics":[]}`,
		`{"app_id":7,"topics":["0x0000000000000000000000000000000000000000000000000000000000000001"]}`,
	)

	dir := t.TempDir()
	in := filepath.Join(dir, "logs.jsonl")
	require.NoError(t, os.WriteFile(in, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	decoder, err := dex.NewPoolDecoder()
	require.NoError(t, err)
	cache, err := dex.NewPoolMetaCache(16)
	require.NoError(t, err)

	out := filepath.Join(dir, "typed.jsonl")
	errs := filepath.Join(dir, "errors.jsonl")
	stats, err := decodeFile(context.Background(), decoder, dex.DecodeContext{PoolMetaCache: cache}, in, out, errs)
	require.NoError(t, err)
	require.Equal(t, decodeStats{total: 5, decoded: 2, skipped: 1, failed: 2}, stats)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	typed := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, typed, 2)

	var swap model.TypedEventRecord
	require.NoError(t, json.Unmarshal([]byte(typed[1]), &swap))
	require.Equal(t, dex.EventSwap, swap.EventName)
	require.Equal(t, uint64(3), swap.PoolMeta.ShareAssetID)

	var data model.SwapEventData
	require.NoError(t, json.Unmarshal(swap.Decoded, &data))
	require.Equal(t, uint64(9_871), data.AmountOut)
	require.Equal(t, uint64(25), data.PoolersFee)

	raw, err = os.ReadFile(errs)
	require.NoError(t, err)
	require.Contains(t, string(raw), "missing topic0")
}
