package amm_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"cpamm/internal/amm"
)

func TestSetFee(t *testing.T) {
	f, p := seededPool(t)
	// fees accrued under the old split stay as they are
	_, err := f.swap(p, p.Asset1ID, p.Asset2ID, 10_000, 0, amm.FixedInput)
	require.NoError(t, err)

	err = f.engine.SetFee(f.env(setter), amm.SetFeeArgs{Pool: p.Address, PoolersFeeShareBps: 50, ProtocolFeeShareBps: 10})
	require.NoError(t, err)
	rec := f.pool(p.Address)
	require.Equal(t, uint64(50), rec.PoolersFeeShareBps)
	require.Equal(t, uint64(10), rec.ProtocolFeeShareBps)
	require.Equal(t, uint64(5), rec.ProtocolFees1)

	q, err := f.swap(p, p.Asset2ID, p.Asset1ID, 10_000, 0, amm.FixedInput)
	require.NoError(t, err)
	require.Equal(t, uint64(10), q.ProtocolFee)
	require.Equal(t, uint64(10), f.pool(p.Address).ProtocolFees2)
}

func TestSetFeeBounds(t *testing.T) {
	f, p := seededPool(t)
	cases := []struct {
		name              string
		poolers, protocol uint64
		ok                bool
	}{
		{"zero", 0, 0, true},
		{"at limit", 90, 10, true},
		{"over limit", 90, 11, false},
		{"all protocol over", 0, 101, false},
		{"overflow", ^uint64(0), 2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.engine.SetFee(f.env(setter), amm.SetFeeArgs{
				Pool: p.Address, PoolersFeeShareBps: tc.poolers, ProtocolFeeShareBps: tc.protocol,
			})
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, amm.ErrConfig)
		})
	}
}

func TestSetFeeRequiresSetter(t *testing.T) {
	f, p := seededPool(t)
	err := f.engine.SetFee(f.env(manager), amm.SetFeeArgs{Pool: p.Address, PoolersFeeShareBps: 1, ProtocolFeeShareBps: 1})
	require.ErrorIs(t, err, amm.ErrAuthorization)
	require.Equal(t, amm.DefaultPoolersFeeShareBps, f.pool(p.Address).PoolersFeeShareBps)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	next := common.HexToAddress("0x00000000000000000000000000000000000000f6")

	cfg, err := f.engine.SetRole(f.env(manager), amm.RoleFeeCollector, next)
	require.NoError(t, err)
	require.Equal(t, next, cfg.FeeCollector)
	require.Equal(t, setter, cfg.FeeSetter)

	_, err = f.engine.SetRole(f.env(setter), amm.RoleFeeSetter, next)
	require.ErrorIs(t, err, amm.ErrAuthorization)

	_, err = f.engine.SetRole(f.env(manager), "fee_nobody", next)
	require.ErrorIs(t, err, amm.ErrValidation)

	_, err = f.engine.SetRole(f.env(manager), amm.RoleFeeManager, common.Address{})
	require.ErrorIs(t, err, amm.ErrValidation)

	cfg, err = f.engine.SetRole(f.env(manager), amm.RoleFeeManager, next)
	require.NoError(t, err)
	require.Equal(t, next, cfg.FeeManager)
}
