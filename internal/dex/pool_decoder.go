package dex

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"cpamm/internal/amm"
	"cpamm/internal/model"
)

// Pool event names.
const (
	EventBootstrap       = "Bootstrap"
	EventAddLiquidity    = "AddLiquidity"
	EventRemoveLiquidity = "RemoveLiquidity"
	EventSwap            = "Swap"
	EventClaimFees       = "ClaimFees"
	EventClaimExtra      = "ClaimExtra"
	EventSetFee          = "SetFee"
	EventSync            = "Sync"
)

var eventNames = []string{
	EventBootstrap, EventAddLiquidity, EventRemoveLiquidity, EventSwap,
	EventClaimFees, EventClaimExtra, EventSetFee, EventSync,
}

// PoolDecoder decodes the pool state-delta events.
type PoolDecoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

// NewPoolDecoder builds a pool event decoder.
func NewPoolDecoder() (*PoolDecoder, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, err
	}
	topicToName := make(map[string]string, len(eventNames))
	for _, name := range eventNames {
		topicToName[strings.ToLower(parsed.Events[name].ID.Hex())] = name
	}
	return &PoolDecoder{poolABI: parsed, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *PoolDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent. Bootstrap and SetFee events
// also refresh the pool metadata cache.
func (d *PoolDecoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}
	pool := common.HexToAddress(log.Address)
	event := d.poolABI.Events[name]

	if name == EventBootstrap {
		data, err := decodeBootstrap(event, log)
		if err != nil {
			return nil, err
		}
		meta := model.PoolMeta{
			Asset1ID:            data.Asset1ID,
			Asset2ID:            data.Asset2ID,
			ShareAssetID:        data.ShareAssetID,
			PoolersFeeShareBps:  amm.DefaultPoolersFeeShareBps,
			ProtocolFeeShareBps: amm.DefaultProtocolFeeShareBps,
		}
		if ctx.PoolMetaCache != nil {
			ctx.PoolMetaCache.Set(pool, meta)
		}
		return buildTypedEvent(log, name, data, meta), nil
	}

	var decoded interface{}
	var err error
	switch name {
	case EventAddLiquidity, EventRemoveLiquidity:
		decoded, err = decodeLiquidity(event, log)
	case EventSwap:
		decoded, err = decodeSwap(event, log)
	case EventClaimFees, EventClaimExtra:
		decoded, err = decodeClaim(event, log)
	case EventSetFee:
		decoded, err = decodeSetFee(event, log)
	case EventSync:
		decoded, err = decodeSync(event, log)
	default:
		err = fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, err
	}

	meta, err := getPoolMeta(ctx, pool)
	if err != nil {
		return nil, err
	}
	if fee, ok := decoded.(model.SetFeeEventData); ok {
		meta.PoolersFeeShareBps = fee.PoolersFeeShareBps
		meta.ProtocolFeeShareBps = fee.ProtocolFeeShareBps
		if ctx.PoolMetaCache != nil {
			ctx.PoolMetaCache.Set(pool, meta)
		}
	}
	return buildTypedEvent(log, name, decoded, meta), nil
}

func getPoolMeta(ctx DecodeContext, pool common.Address) (model.PoolMeta, error) {
	if ctx.PoolMetaCache != nil {
		if meta, ok := ctx.PoolMetaCache.Get(pool); ok {
			return meta, nil
		}
	}
	if ctx.MetaSource == nil {
		return model.PoolMeta{}, fmt.Errorf("unknown pool %s", pool.Hex())
	}
	meta, ok, err := ctx.MetaSource.PoolMeta(pool)
	if err != nil {
		return model.PoolMeta{}, fmt.Errorf("pool meta %s: %w", pool.Hex(), err)
	}
	if !ok {
		return model.PoolMeta{}, fmt.Errorf("unknown pool %s", pool.Hex())
	}
	if ctx.PoolMetaCache != nil {
		ctx.PoolMetaCache.Set(pool, meta)
	}
	if ctx.Logger != nil {
		ctx.Logger.Debug("pool meta loaded", zap.String("pool", pool.Hex()))
	}
	return meta, nil
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}, meta model.PoolMeta) *model.TypedEvent {
	raw := &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data}
	return &model.TypedEvent{
		AppID:     log.AppID,
		Round:     log.Round,
		BundleID:  log.BundleID,
		LogIndex:  log.LogIndex,
		Address:   log.Address,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		PoolMeta:  meta,
		Raw:       raw,
	}
}

func decodeBootstrap(event abi.Event, log model.LogRecord) (model.BootstrapEventData, error) {
	if _, err := parseIndexedTopics(event, log.Topics); err != nil {
		return model.BootstrapEventData{}, err
	}
	values, err := unpackUint64s(event, log.Data, 3)
	if err != nil {
		return model.BootstrapEventData{}, err
	}
	return model.BootstrapEventData{Asset1ID: values[0], Asset2ID: values[1], ShareAssetID: values[2]}, nil
}

func decodeLiquidity(event abi.Event, log model.LogRecord) (model.LiquidityEventData, error) {
	user, err := indexedAddress(event, log.Topics)
	if err != nil {
		return model.LiquidityEventData{}, err
	}
	values, err := unpackUint64s(event, log.Data, 3)
	if err != nil {
		return model.LiquidityEventData{}, err
	}
	return model.LiquidityEventData{
		User:    user.Hex(),
		Amount1: values[0],
		Amount2: values[1],
		Shares:  values[2],
	}, nil
}

func decodeSwap(event abi.Event, log model.LogRecord) (model.SwapEventData, error) {
	user, err := indexedAddress(event, log.Topics)
	if err != nil {
		return model.SwapEventData{}, err
	}
	values, err := unpackUint64s(event, log.Data, 7)
	if err != nil {
		return model.SwapEventData{}, err
	}
	return model.SwapEventData{
		User:          user.Hex(),
		InputAssetID:  values[0],
		OutputAssetID: values[1],
		AmountIn:      values[2],
		AmountOut:     values[3],
		ProtocolFee:   values[4],
		PoolersFee:    values[5],
		Change:        values[6],
	}, nil
}

func decodeClaim(event abi.Event, log model.LogRecord) (model.ClaimEventData, error) {
	collector, err := indexedAddress(event, log.Topics)
	if err != nil {
		return model.ClaimEventData{}, err
	}
	values, err := unpackUint64s(event, log.Data, 2)
	if err != nil {
		return model.ClaimEventData{}, err
	}
	return model.ClaimEventData{Collector: collector.Hex(), Amount1: values[0], Amount2: values[1]}, nil
}

func decodeSetFee(event abi.Event, log model.LogRecord) (model.SetFeeEventData, error) {
	if _, err := parseIndexedTopics(event, log.Topics); err != nil {
		return model.SetFeeEventData{}, err
	}
	values, err := unpackUint64s(event, log.Data, 2)
	if err != nil {
		return model.SetFeeEventData{}, err
	}
	return model.SetFeeEventData{PoolersFeeShareBps: values[0], ProtocolFeeShareBps: values[1]}, nil
}

func decodeSync(event abi.Event, log model.LogRecord) (model.SyncEventData, error) {
	if _, err := parseIndexedTopics(event, log.Topics); err != nil {
		return model.SyncEventData{}, err
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SyncEventData{}, err
	}
	if len(values) != 6 {
		return model.SyncEventData{}, fmt.Errorf("unexpected sync values: %d", len(values))
	}
	reserves, err := asUint64s(values[:3])
	if err != nil {
		return model.SyncEventData{}, err
	}
	cum1, err := asBigInt(values[3])
	if err != nil {
		return model.SyncEventData{}, err
	}
	cum2, err := asBigInt(values[4])
	if err != nil {
		return model.SyncEventData{}, err
	}
	ts, err := asUint64(values[5])
	if err != nil {
		return model.SyncEventData{}, err
	}
	return model.SyncEventData{
		Reserve1:         reserves[0],
		Reserve2:         reserves[1],
		IssuedShares:     reserves[2],
		CumulativePrice1: cum1.String(),
		CumulativePrice2: cum2.String(),
		Timestamp:        ts,
	}, nil
}

// indexedAddress parses the single indexed address argument of event.
func indexedAddress(event abi.Event, topics []string) (common.Address, error) {
	indexedTopics, err := parseIndexedTopics(event, topics)
	if err != nil {
		return common.Address{}, err
	}
	args := indexedArguments(event.Inputs)
	if len(args) != 1 {
		return common.Address{}, fmt.Errorf("%s: expected one indexed argument, got %d", event.Name, len(args))
	}
	out := make(map[string]interface{}, 1)
	if err := abi.ParseTopicsIntoMap(out, args, indexedTopics); err != nil {
		return common.Address{}, fmt.Errorf("parse topics: %w", err)
	}
	return asAddress(out[args[0].Name])
}

func unpackUint64s(event abi.Event, dataHex string, want int) ([]uint64, error) {
	values, err := unpackNonIndexed(event, dataHex)
	if err != nil {
		return nil, err
	}
	if len(values) != want {
		return nil, fmt.Errorf("unexpected %s values: %d", strings.ToLower(event.Name), len(values))
	}
	return asUint64s(values)
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
