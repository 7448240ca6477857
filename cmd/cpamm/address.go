package main

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"cpamm/internal/address"
)

type addressOutput struct {
	AppID       uint64 `json:"app_id"`
	Asset1ID    uint64 `json:"asset_1_id"`
	Asset2ID    uint64 `json:"asset_2_id"`
	Pool        string `json:"pool"`
	Application string `json:"application"`
	Program     string `json:"program"`
}

func runAddress(cmd *cobra.Command, _ []string) error {
	appID, _ := cmd.Flags().GetUint64("app-id")
	asset1, _ := cmd.Flags().GetUint64("asset-1")
	asset2, _ := cmd.Flags().GetUint64("asset-2")
	if asset1 <= asset2 {
		return fmt.Errorf("asset 1 (%d) must be greater than asset 2 (%d)", asset1, asset2)
	}

	out := addressOutput{
		AppID:       appID,
		Asset1ID:    asset1,
		Asset2ID:    asset2,
		Pool:        address.Derive(appID, asset1, asset2).Hex(),
		Application: address.ApplicationAddress(appID).Hex(),
		Program:     hexutil.Encode(address.Program(appID, asset1, asset2)),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
