package model

// DecodeError records a decode failure for a log line.
type DecodeError struct {
	AppID    uint64 `json:"app_id"`
	Round    uint64 `json:"round"`
	BundleID string `json:"bundle_id"`
	LogIndex uint64 `json:"log_index"`
	Address  string `json:"address"`
	Topic0   string `json:"topic0"`
	Error    string `json:"error"`
}
