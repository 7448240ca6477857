package kv

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"cpamm/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLedgerRoundTrip(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.LoadLedger()
	require.NoError(t, err)
	require.False(t, ok)

	user := common.HexToAddress("0x01")
	pool := common.HexToAddress("0x02")
	snap := model.LedgerSnapshot{
		Accounts: []model.AccountState{
			{Address: user, Native: 1_000_000, Holdings: map[uint64]uint64{7: 50}},
			{Address: pool, Native: 500_000, Authority: &user},
		},
		Assets:      []model.AssetParams{{ID: 7, Creator: user, Total: 1_000_000, UnitName: "AAA"}},
		Pools:       []model.Pool{{Address: pool, Asset1ID: 7, ShareAssetID: 8, Reserve1: 10, CumulativePrice1: "0", CumulativePrice2: "0"}},
		NextAssetID: 9,
	}
	require.NoError(t, s.SaveLedger(snap))

	got, ok, err := s.LoadLedger()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap, got)

	// A smaller snapshot removes stale entries.
	snap.Accounts = snap.Accounts[:1]
	snap.Pools = nil
	require.NoError(t, s.SaveLedger(snap))
	got, _, err = s.LoadLedger()
	require.NoError(t, err)
	require.Len(t, got.Accounts, 1)
	require.Empty(t, got.Pools)

	_, found, err := s.Pool(pool)
	require.NoError(t, err)
	require.False(t, found)
}

func TestConfigAndPoolMeta(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.LoadConfig()
	require.NoError(t, err)
	require.False(t, ok)

	cfg := model.GlobalConfig{
		FeeCollector: common.HexToAddress("0x0c"),
		FeeManager:   common.HexToAddress("0x0d"),
		FeeSetter:    common.HexToAddress("0x0e"),
	}
	require.NoError(t, s.SaveConfig(cfg))
	got, ok, err := s.LoadConfig()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cfg, got)

	addr := common.HexToAddress("0xaa")
	require.NoError(t, s.SaveLedger(model.LedgerSnapshot{
		Pools:       []model.Pool{{Address: addr, Asset1ID: 5, Asset2ID: 0, ShareAssetID: 6, PoolersFeeShareBps: 25, ProtocolFeeShareBps: 5}},
		NextAssetID: 7,
	}))
	meta, ok, err := s.PoolMeta(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(30), meta.TotalFeeShareBps())
	require.Equal(t, uint64(6), meta.ShareAssetID)

	_, ok, err = s.PoolMeta(common.HexToAddress("0xbb"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err = s.LoadLedger()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.SaveConfig(model.GlobalConfig{}), ErrClosed)
}
