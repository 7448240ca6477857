package model

// Call outcomes.
const (
	CallApplied  = "applied"
	CallRejected = "rejected"
)

// CallResult records the outcome of one request processed by the apply runner.
type CallResult struct {
	Line      uint64 `json:"line"`
	ID        string `json:"id"`
	Method    string `json:"method"`
	Status    string `json:"status"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	Round     uint64 `json:"round"`
}
