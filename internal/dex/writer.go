package dex

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"cpamm/internal/model"
)

// LogWriter encodes engine events as ABI logs and buffers them until the
// enclosing bundle commits.
type LogWriter struct {
	mu      sync.Mutex
	poolABI abi.ABI
	appID   uint64
	records []model.LogRecord
}

// NewLogWriter builds a writer for appID.
func NewLogWriter(appID uint64) (*LogWriter, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	return &LogWriter{poolABI: parsed, appID: appID}, nil
}

// Record encodes one event. args follow the event's input order.
func (w *LogWriter) Record(pool common.Address, event string, args ...interface{}) error {
	ev, ok := w.poolABI.Events[event]
	if !ok {
		return fmt.Errorf("unknown event %s", event)
	}
	if len(args) != len(ev.Inputs) {
		return fmt.Errorf("event %s: want %d args, got %d", event, len(ev.Inputs), len(args))
	}

	topics := []string{ev.ID.Hex()}
	nonIndexed := make([]interface{}, 0, len(args))
	for i, input := range ev.Inputs {
		if !input.Indexed {
			nonIndexed = append(nonIndexed, args[i])
			continue
		}
		hashes, err := abi.MakeTopics([]interface{}{args[i]})
		if err != nil {
			return fmt.Errorf("event %s topic %s: %w", event, input.Name, err)
		}
		topics = append(topics, hashes[0][0].Hex())
	}
	data, err := ev.Inputs.NonIndexed().Pack(nonIndexed...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", event, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, model.LogRecord{
		AppID:    w.appID,
		LogIndex: uint64(len(w.records)),
		Address:  pool.Hex(),
		Topics:   topics,
		Data:     hexutil.Encode(data),
	})
	return nil
}

// Drain returns the buffered records and empties the buffer.
func (w *LogWriter) Drain() []model.LogRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.records
	w.records = nil
	return out
}

// Discard drops the buffered records of a failed bundle.
func (w *LogWriter) Discard() {
	w.mu.Lock()
	w.records = nil
	w.mu.Unlock()
}
