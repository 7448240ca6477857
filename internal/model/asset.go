package model

import "github.com/ethereum/go-ethereum/common"

// AssetParams describes a fungible asset registered on the host ledger.
type AssetParams struct {
	ID       uint64         `json:"id"`
	Creator  common.Address `json:"creator"`
	Total    uint64         `json:"total"`
	Decimals uint8          `json:"decimals"`
	UnitName string         `json:"unit_name"`
	Name     string         `json:"name"`
	URL      string         `json:"url"`
}
