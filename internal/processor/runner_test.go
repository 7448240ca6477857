package processor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"cpamm/internal/address"
	"cpamm/internal/amm"
	"cpamm/internal/dex"
	"cpamm/internal/model"
)

const testAppID uint64 = 7

var (
	user    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	manager = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

type memoryStorage struct {
	logs    []model.LogRecord
	results []model.CallResult
	fail    int
}

func (s *memoryStorage) PutLogBatch(logs []model.LogRecord) error {
	if s.fail > 0 {
		s.fail--
		return os.ErrDeadlineExceeded
	}
	s.logs = append(s.logs, logs...)
	return nil
}

func (s *memoryStorage) PutResults(results []model.CallResult) error {
	s.results = append(s.results, results...)
	return nil
}

type memoryState struct {
	snap   *model.LedgerSnapshot
	config *model.GlobalConfig
}

func (s *memoryState) LoadLedger() (model.LedgerSnapshot, bool, error) {
	if s.snap == nil {
		return model.LedgerSnapshot{}, false, nil
	}
	return *s.snap, true, nil
}

func (s *memoryState) SaveLedger(snap model.LedgerSnapshot) error {
	s.snap = &snap
	return nil
}

func (s *memoryState) LoadConfig() (model.GlobalConfig, bool, error) {
	if s.config == nil {
		return model.GlobalConfig{}, false, nil
	}
	return *s.config, true, nil
}

func (s *memoryState) SaveConfig(cfg model.GlobalConfig) error {
	s.config = &cfg
	return nil
}

type memoryPools struct {
	upserts   int
	snapshots map[uint64][]model.Pool
}

func (p *memoryPools) UpsertPools(_ context.Context, _ uint64, pools []model.Pool) error {
	p.upserts++
	return nil
}

func (p *memoryPools) InsertPoolSnapshots(_ context.Context, _ uint64, round uint64, pools []model.Pool) error {
	if p.snapshots == nil {
		p.snapshots = make(map[uint64][]model.Pool)
	}
	p.snapshots[round] = pools
	return nil
}

func genesis() *model.LedgerSnapshot {
	return &model.LedgerSnapshot{
		Accounts: []model.AccountState{
			{Address: user, Native: 10_000_000, Holdings: map[uint64]uint64{1: 500_000_000, 2: 500_000_000}},
			{Address: manager, Native: 1_000_000},
		},
		Assets: []model.AssetParams{
			{ID: 1, Creator: user, Total: 1_000_000_000, UnitName: "AAA", Decimals: 6},
			{ID: 2, Creator: user, Total: 1_000_000_000, UnitName: "BBB", Decimals: 6},
		},
		NextAssetID: 3,
	}
}

func encode(t *testing.T, method string, args ...interface{}) string {
	t.Helper()
	data, err := dex.EncodeCall(method, args...)
	require.NoError(t, err)
	return data
}

func writeRequests(t *testing.T, lines ...interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requests.jsonl")
	var out []byte
	for _, line := range lines {
		if raw, ok := line.(string); ok {
			out = append(out, raw...)
		} else {
			data, err := json.Marshal(line)
			require.NoError(t, err)
			out = append(out, data...)
		}
		out = append(out, '\n')
	}
	require.NoError(t, os.WriteFile(path, out, 0o644))
	return path
}

func sampleRequests(t *testing.T) []interface{} {
	pool := address.Derive(testAppID, 2, 1)
	app := address.ApplicationAddress(testAppID)
	funding := amm.PoolMinBalance(1) + amm.AppFunding
	return []interface{}{
		model.CallRequest{
			ID:        "bootstrap",
			Sender:    pool,
			Calldata:  encode(t, MethodBootstrap, uint64(2), uint64(1)),
			Transfers: []model.Transfer{{Sender: user, Receiver: pool, AssetID: model.NativeAssetID, Amount: funding}},
			Assets:    []uint64{2, 1},
			RekeyTo:   &app,
			Timestamp: 1_000,
		},
		model.CallRequest{
			ID:       "deposit",
			Sender:   user,
			Calldata: encode(t, MethodAddLiquidity, uint64(2), uint64(1), uint64(3), pool),
			Transfers: []model.Transfer{
				{Sender: user, Receiver: user, AssetID: 3},
				{Sender: user, Receiver: pool, AssetID: 2, Amount: 1_000_000},
				{Sender: user, Receiver: pool, AssetID: 1, Amount: 1_000_000},
			},
			Timestamp: 1_000,
		},
		model.CallRequest{
			ID:        "swap",
			Sender:    user,
			Calldata:  encode(t, MethodSwap, uint64(2), uint64(1), uint64(9_000), amm.FixedInput, pool),
			Transfers: []model.Transfer{{Sender: user, Receiver: pool, AssetID: 2, Amount: 10_000}},
			Timestamp: 1_100,
		},
		model.CallRequest{
			ID:        "slippage",
			Sender:    user,
			Calldata:  encode(t, MethodSwap, uint64(2), uint64(1), uint64(20_000), amm.FixedInput, pool),
			Transfers: []model.Transfer{{Sender: user, Receiver: pool, AssetID: 2, Amount: 10_000}},
			Timestamp: 1_200,
		},
		"{not json",
		model.CallRequest{
			ID:        "takeover",
			Sender:    user,
			Calldata:  encode(t, MethodSetFeeCollector, user),
			Timestamp: 1_300,
		},
	}
}

func newTestRunner(t *testing.T, input string, sink *memoryStorage, state *memoryState, pools PoolSink, checkpoint string) *Runner {
	t.Helper()
	r, err := NewRunner(RunConfig{
		AppID:             testAppID,
		InputPath:         input,
		BatchSize:         2,
		CheckpointPath:    checkpoint,
		CheckpointEnabled: true,
		MaxRetries:        2,
		RetryBackoff:      1,
		Config:            model.GlobalConfig{FeeCollector: manager, FeeManager: manager, FeeSetter: manager},
		Genesis:           genesis(),
	}, sink, state, pools, nil)
	require.NoError(t, err)
	return r
}

func TestRunnerAppliesRequests(t *testing.T) {
	input := writeRequests(t, sampleRequests(t)...)
	checkpoint := filepath.Join(t.TempDir(), "checkpoint.json")
	sink := &memoryStorage{fail: 1}
	state := &memoryState{}
	pools := &memoryPools{}

	r := newTestRunner(t, input, sink, state, pools, checkpoint)
	require.NoError(t, r.Run(context.Background()))

	require.Len(t, sink.results, 6)
	statuses := make([]string, 0, len(sink.results))
	for _, res := range sink.results {
		statuses = append(statuses, res.Status)
	}
	require.Equal(t, []string{
		model.CallApplied, model.CallApplied, model.CallApplied,
		model.CallRejected, model.CallRejected, model.CallRejected,
	}, statuses)
	require.Equal(t, amm.ErrValidation.Error(), sink.results[3].ErrorKind)
	require.Equal(t, "line-5", sink.results[4].ID)
	require.Equal(t, amm.ErrValidation.Error(), sink.results[4].ErrorKind)
	require.Equal(t, amm.ErrAuthorization.Error(), sink.results[5].ErrorKind)
	require.Equal(t, MethodSetFeeCollector, sink.results[5].Method)

	// Bootstrap, AddLiquidity and Swap each emit their event plus Sync.
	require.Len(t, sink.logs, 6)
	require.Equal(t, "swap", sink.logs[4].BundleID)
	require.Equal(t, uint64(2), sink.logs[4].Round)
	require.Equal(t, uint64(1_100), sink.logs[4].Timestamp)
	require.Equal(t, uint64(1), sink.logs[5].LogIndex)
	require.NotEmpty(t, sink.logs[0].IngestedAt)

	decoder, err := dex.NewPoolDecoder()
	require.NoError(t, err)
	cache, err := dex.NewPoolMetaCache(0)
	require.NoError(t, err)
	decodeCtx := dex.DecodeContext{PoolMetaCache: cache}
	_, err = decoder.Decode(sink.logs[0], decodeCtx)
	require.NoError(t, err)
	event, err := decoder.Decode(sink.logs[4], decodeCtx)
	require.NoError(t, err)
	swap, ok := event.Decoded.(model.SwapEventData)
	require.True(t, ok)
	require.Equal(t, uint64(25), swap.PoolersFee)
	require.Equal(t, uint64(5), swap.ProtocolFee)

	pool := address.Derive(testAppID, 2, 1)
	rec, ok := r.Ledger().PoolState(pool)
	require.True(t, ok)
	require.Equal(t, uint64(1_009_995), rec.Reserve1)
	require.Equal(t, uint64(990_129), rec.Reserve2)
	require.Equal(t, uint64(5), rec.ProtocolFees1)

	// the rejected swap's inbound transfer was rolled back
	bal, _ := r.Ledger().Balance(user, 2)
	require.Equal(t, uint64(500_000_000-1_000_000-10_000), bal)
	shares, _ := r.Ledger().Balance(user, 3)
	require.Equal(t, uint64(999_000), shares)
	require.Equal(t, manager, r.Config().FeeCollector)

	require.NotNil(t, state.snap)
	require.NotNil(t, state.config)
	require.Equal(t, 3, pools.upserts)
	require.Len(t, pools.snapshots[3], 1)

	cp, ok, err := NewCheckpointStore(checkpoint, true).Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(6), cp.LastAppliedLine)
	require.Equal(t, uint64(3), cp.Round)

	// a restart resumes from the checkpoint with the persisted ledger
	again := newTestRunner(t, input, sink, state, pools, checkpoint)
	require.NoError(t, again.Run(context.Background()))
	require.Len(t, sink.results, 6)
	rec, ok = again.Ledger().PoolState(pool)
	require.True(t, ok)
	require.Equal(t, uint64(990_129), rec.Reserve2)
}

func TestRunnerRoleChange(t *testing.T) {
	collector := common.HexToAddress("0x00000000000000000000000000000000000000c3")
	input := writeRequests(t, model.CallRequest{
		ID:       "rotate",
		Sender:   manager,
		Calldata: encode(t, MethodSetFeeCollector, collector),
	})
	sink := &memoryStorage{}
	state := &memoryState{}
	r := newTestRunner(t, input, sink, state, nil, "")

	require.NoError(t, r.Run(context.Background()))
	require.Equal(t, model.CallApplied, sink.results[0].Status)
	require.Equal(t, collector, r.Config().FeeCollector)
	require.Equal(t, collector, state.config.FeeCollector)
	require.Empty(t, sink.logs)
}

func TestRunnerGivesUpAfterRetries(t *testing.T) {
	input := writeRequests(t, sampleRequests(t)...)
	checkpoint := filepath.Join(t.TempDir(), "checkpoint.json")
	sink := &memoryStorage{fail: 3}
	r := newTestRunner(t, input, sink, &memoryState{}, nil, checkpoint)

	err := r.Run(context.Background())
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)
	require.ErrorContains(t, err, "store logs for round 1")
	require.Empty(t, sink.results)
	_, ok, err := NewCheckpointStore(checkpoint, true).Load()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRunnerRequiresInput(t *testing.T) {
	r, err := NewRunner(RunConfig{AppID: testAppID, BatchSize: 1}, &memoryStorage{}, nil, nil, nil)
	require.NoError(t, err)
	require.Error(t, r.Run(context.Background()))

	r, err = NewRunner(RunConfig{AppID: testAppID, InputPath: "x"}, &memoryStorage{}, nil, nil, nil)
	require.NoError(t, err)
	require.Error(t, r.Run(context.Background()))
}

func TestParseRequest(t *testing.T) {
	_, err := ParseRequest([]byte(`{"id":"a","calldata":"0x00"}`))
	require.Error(t, err)
	_, err = ParseRequest([]byte(`{"id":"a","sender":"0x00000000000000000000000000000000000000b2"}`))
	require.Error(t, err)
	req, err := ParseRequest([]byte(`{"id":"a","sender":"0x00000000000000000000000000000000000000b2","calldata":"0x01020304"}`))
	require.NoError(t, err)
	require.Equal(t, user, req.Sender)
}
