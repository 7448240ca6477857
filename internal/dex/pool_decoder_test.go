package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cpamm/internal/model"
)

type staticMetaSource map[common.Address]model.PoolMeta

func (s staticMetaSource) PoolMeta(pool common.Address) (model.PoolMeta, bool, error) {
	meta, ok := s[pool]
	return meta, ok, nil
}

func newTestContext(t *testing.T) DecodeContext {
	t.Helper()
	cache, err := NewPoolMetaCache(16)
	require.NoError(t, err)
	return DecodeContext{PoolMetaCache: cache, Logger: zap.NewNop()}
}

func TestPoolDecoderSwap(t *testing.T) {
	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	user := common.HexToAddress("0x2222222222222222222222222222222222222222")
	ctx := newTestContext(t)
	ctx.PoolMetaCache.Set(pool, model.PoolMeta{Asset1ID: 20, Asset2ID: 10, ShareAssetID: 30, PoolersFeeShareBps: 25, ProtocolFeeShareBps: 5})

	w, err := NewLogWriter(7)
	require.NoError(t, err)
	require.NoError(t, w.Record(pool, "Swap", user, uint64(20), uint64(10), uint64(10_000), uint64(9_871), uint64(5), uint64(25), uint64(0)))
	records := w.Drain()
	require.Len(t, records, 1)
	require.Len(t, records[0].Topics, 2)

	decoder, err := NewPoolDecoder()
	require.NoError(t, err)
	require.True(t, decoder.CanDecode(records[0].Topics[0]))

	event, err := decoder.Decode(records[0], ctx)
	require.NoError(t, err)
	require.Equal(t, "Swap", event.EventName)
	require.Equal(t, uint64(7), event.AppID)

	swap, ok := event.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", event.Decoded)
	}
	require.Equal(t, model.SwapEventData{
		User:          user.Hex(),
		InputAssetID:  20,
		OutputAssetID: 10,
		AmountIn:      10_000,
		AmountOut:     9_871,
		ProtocolFee:   5,
		PoolersFee:    25,
	}, swap)
	require.Equal(t, uint64(30), event.PoolMeta.TotalFeeShareBps())
}

func TestPoolDecoderBootstrapSeedsCache(t *testing.T) {
	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")
	ctx := newTestContext(t)
	w, err := NewLogWriter(7)
	require.NoError(t, err)
	require.NoError(t, w.Record(pool, "Bootstrap", uint64(20), uint64(0), uint64(31)))
	require.NoError(t, w.Record(pool, "SetFee", uint64(50), uint64(10)))
	require.NoError(t, w.Record(pool, "Sync", uint64(1_000), uint64(2_000), uint64(1_414),
		new(big.Int).Lsh(big.NewInt(3), 64), big.NewInt(0), uint64(1_700_000_000)))
	records := w.Drain()
	require.Len(t, records, 3)
	require.Empty(t, w.Drain())

	decoder, err := NewPoolDecoder()
	require.NoError(t, err)

	boot, err := decoder.Decode(records[0], ctx)
	require.NoError(t, err)
	require.Equal(t, model.BootstrapEventData{Asset1ID: 20, Asset2ID: 0, ShareAssetID: 31}, boot.Decoded)
	require.Equal(t, uint64(25), boot.PoolMeta.PoolersFeeShareBps)

	fee, err := decoder.Decode(records[1], ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(50), fee.PoolMeta.PoolersFeeShareBps)

	sync, err := decoder.Decode(records[2], ctx)
	require.NoError(t, err)
	data := sync.Decoded.(model.SyncEventData)
	require.Equal(t, new(big.Int).Lsh(big.NewInt(3), 64).String(), data.CumulativePrice1)
	require.Equal(t, "0", data.CumulativePrice2)
	require.Equal(t, uint64(1_414), data.IssuedShares)
	require.Equal(t, uint64(10), sync.PoolMeta.ProtocolFeeShareBps)
	require.Equal(t, uint64(2), records[2].LogIndex)
}

func TestPoolDecoderFallsBackToMetaSource(t *testing.T) {
	pool := common.HexToAddress("0x3333333333333333333333333333333333333333")
	collector := common.HexToAddress("0x4444444444444444444444444444444444444444")
	ctx := newTestContext(t)

	w, err := NewLogWriter(1)
	require.NoError(t, err)
	require.NoError(t, w.Record(pool, "ClaimFees", collector, uint64(5_000), uint64(10_000)))
	rec := w.Drain()[0]

	decoder, err := NewPoolDecoder()
	require.NoError(t, err)
	_, err = decoder.Decode(rec, ctx)
	require.Error(t, err)

	ctx.MetaSource = staticMetaSource{pool: {Asset1ID: 5, Asset2ID: 4}}
	event, err := decoder.Decode(rec, ctx)
	require.NoError(t, err)
	require.Equal(t, model.ClaimEventData{Collector: collector.Hex(), Amount1: 5_000, Amount2: 10_000}, event.Decoded)
	cached, ok := ctx.PoolMetaCache.Get(pool)
	require.True(t, ok)
	require.Equal(t, uint64(5), cached.Asset1ID)
}

func TestPoolDecoderRejectsMalformed(t *testing.T) {
	decoder, err := NewPoolDecoder()
	require.NoError(t, err)
	parsed, err := PoolABI()
	require.NoError(t, err)
	ctx := newTestContext(t)

	_, err = decoder.Decode(model.LogRecord{Address: "0x1"}, ctx)
	require.Error(t, err)

	_, err = decoder.Decode(model.LogRecord{
		Address: "not-an-address",
		Topics:  []string{parsed.Events["Swap"].ID.Hex()},
		Data:    "0x",
	}, ctx)
	require.Error(t, err)

	// swap without its indexed user topic
	_, err = decoder.Decode(model.LogRecord{
		Address: common.HexToAddress("0x1").Hex(),
		Topics:  []string{parsed.Events["Swap"].ID.Hex()},
		Data:    hexutil.Encode(make([]byte, 7*32)),
	}, ctx)
	require.Error(t, err)
	require.False(t, decoder.CanDecode("0xdeadbeef"))
}

func TestLogWriterRejectsUnknownEvent(t *testing.T) {
	w, err := NewLogWriter(1)
	require.NoError(t, err)
	require.Error(t, w.Record(common.Address{}, "Mint", uint64(1)))
	require.Error(t, w.Record(common.Address{}, "SetFee", uint64(1)))
	w.Discard()
	require.Empty(t, w.Drain())
}
