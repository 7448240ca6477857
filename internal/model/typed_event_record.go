package model

import "encoding/json"

// TypedEventRecord is the JSON representation used for aggregation.
type TypedEventRecord struct {
	AppID     uint64          `json:"app_id"`
	Round     uint64          `json:"round"`
	BundleID  string          `json:"bundle_id"`
	LogIndex  uint64          `json:"log_index"`
	Address   string          `json:"address"`
	EventName string          `json:"event_name"`
	Timestamp uint64          `json:"timestamp"`
	Decoded   json.RawMessage `json:"decoded"`
	PoolMeta  PoolMeta        `json:"pool_meta"`
	Raw       *RawLogRef      `json:"raw,omitempty"`
}
