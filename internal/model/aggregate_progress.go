package model

// AggregateProgress is how far window aggregation has got. LastProcessed is
// the event timestamp it may resume after; LastWindowEnd is the end of the
// latest window written to the sink.
type AggregateProgress struct {
	LastProcessed uint64 `json:"last_processed_ts"`
	LastWindowEnd uint64 `json:"last_window_end"`
	WindowSeconds uint64 `json:"window_seconds"`
}
