package model

import "github.com/ethereum/go-ethereum/common"

// GlobalConfig holds the role identities shared by every pool of the application.
type GlobalConfig struct {
	FeeCollector common.Address `json:"fee_collector"`
	FeeManager   common.Address `json:"fee_manager"`
	FeeSetter    common.Address `json:"fee_setter"`
}
