package model

import "github.com/ethereum/go-ethereum/common"

// AccountState is the persisted view of one ledger account.
type AccountState struct {
	Address   common.Address    `json:"address"`
	Native    uint64            `json:"native"`
	Holdings  map[uint64]uint64 `json:"holdings,omitempty"`
	Authority *common.Address   `json:"authority,omitempty"`
}

// LedgerSnapshot is a full copy of the simulated host ledger.
type LedgerSnapshot struct {
	Accounts    []AccountState `json:"accounts"`
	Assets      []AssetParams  `json:"assets"`
	Pools       []Pool         `json:"pools"`
	NextAssetID uint64         `json:"next_asset_id"`
}
