package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadLayersFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "cpamm.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("app-id: 7\nfee-manager: \"0x00000000000000000000000000000000000000d4\"\nbatch-size: 10\n"), 0o644))

	flags := pflag.NewFlagSet("apply", pflag.ContinueOnError)
	flags.Uint64("batch-size", 0, "")
	flags.String("in", "", "")
	require.NoError(t, flags.Parse([]string{"--batch-size=3", "--in=requests.jsonl"}))

	cfg, err := Load(cfgFile, flags)
	require.NoError(t, err)
	require.Equal(t, uint64(7), cfg.AppID)
	require.Equal(t, uint64(3), cfg.BatchSize)
	require.Equal(t, "requests.jsonl", cfg.In)
	require.Equal(t, "./data/state", cfg.StateDir)
	require.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)

	roles, err := cfg.Roles()
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xd4"), roles.FeeManager)
	require.Equal(t, common.Address{}, roles.FeeCollector)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("CPAMM_PG_DSN", "postgres://localhost/cpamm")
	t.Setenv("CPAMM_WINDOW", "1h")

	cfgFile := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("{}\n"), 0o644))

	cfg, err := LoadAggregate(cfgFile, nil)
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/cpamm", cfg.PGDSN)
	require.Equal(t, "1h", cfg.Window)
	require.Equal(t, "aggregate", cfg.StateName)

	dcfg, err := LoadDecode(cfgFile, nil)
	require.NoError(t, err)
	require.Equal(t, 4096, dcfg.CacheSize)
}

func TestRolesRejectsBadAddress(t *testing.T) {
	_, err := Config{FeeSetter: "setter"}.Roles()
	require.ErrorContains(t, err, "fee-setter")
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("fee-collector", " 0x00000000000000000000000000000000000000c3 ")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xc3"), addr)

	addr, err = ParseAddress("fee-collector", "  ")
	require.NoError(t, err)
	require.Equal(t, common.Address{}, addr)

	_, err = ParseAddress("fee-collector", "0x1234")
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
		err  bool
	}{
		{"", 0, false},
		{"1700000000", 1_700_000_000, false},
		{"2023-11-14T22:13:20Z", 1_700_000_000, false},
		{"yesterday", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if tc.err {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d want %d", tc.in, got, tc.want)
		}
	}
}
