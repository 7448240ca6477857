package model

import "github.com/ethereum/go-ethereum/common"

// Transfer moves Amount of AssetID from Sender to Receiver. A zero-amount
// transfer of a non-native asset from an account to itself is an opt-in.
type Transfer struct {
	Sender   common.Address `json:"sender"`
	Receiver common.Address `json:"receiver"`
	AssetID  uint64         `json:"asset_id"`
	Amount   uint64         `json:"amount"`
}
