package model

import "github.com/ethereum/go-ethereum/common"

// CallRequest is one bundle submitted to the application: the inbound
// transfers that precede the call, followed by the ABI-encoded call itself.
type CallRequest struct {
	ID        string          `json:"id"`
	Sender    common.Address  `json:"sender"`
	Calldata  string          `json:"calldata"`
	Transfers []Transfer      `json:"transfers,omitempty"`
	Assets    []uint64        `json:"assets,omitempty"`
	RekeyTo   *common.Address `json:"rekey_to,omitempty"`
	Timestamp uint64          `json:"timestamp"`
}
