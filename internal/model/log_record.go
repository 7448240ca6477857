package model

import (
	"encoding/json"
)

// LogRecord is a state-delta record emitted by the application for indexers.
// Topics and Data follow the ABI log layout of the pool events.
type LogRecord struct {
	AppID      uint64   `json:"app_id"`
	Round      uint64   `json:"round"`
	BundleID   string   `json:"bundle_id"`
	CallIndex  uint64   `json:"call_index"`
	LogIndex   uint64   `json:"log_index"`
	Address    string   `json:"address"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp"`
	IngestedAt string   `json:"ingested_at"`
}

// MarshalJSON ensures LogRecord is encoded with stable field names.
func (lr LogRecord) MarshalJSON() ([]byte, error) {
	type Alias LogRecord
	return json.Marshal(Alias(lr))
}

// UnmarshalJSON decodes a LogRecord from JSON.
func (lr *LogRecord) UnmarshalJSON(data []byte) error {
	type Alias LogRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*lr = LogRecord(a)
	return nil
}
