package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "name": "asset1Id", "type": "uint64"},
      {"indexed": false, "name": "asset2Id", "type": "uint64"},
      {"indexed": false, "name": "shareAssetId", "type": "uint64"}
    ],
    "name": "Bootstrap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "user", "type": "address"},
      {"indexed": false, "name": "amount1", "type": "uint64"},
      {"indexed": false, "name": "amount2", "type": "uint64"},
      {"indexed": false, "name": "shares", "type": "uint64"}
    ],
    "name": "AddLiquidity",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "user", "type": "address"},
      {"indexed": false, "name": "amount1", "type": "uint64"},
      {"indexed": false, "name": "amount2", "type": "uint64"},
      {"indexed": false, "name": "shares", "type": "uint64"}
    ],
    "name": "RemoveLiquidity",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "user", "type": "address"},
      {"indexed": false, "name": "inputAssetId", "type": "uint64"},
      {"indexed": false, "name": "outputAssetId", "type": "uint64"},
      {"indexed": false, "name": "amountIn", "type": "uint64"},
      {"indexed": false, "name": "amountOut", "type": "uint64"},
      {"indexed": false, "name": "protocolFee", "type": "uint64"},
      {"indexed": false, "name": "poolersFee", "type": "uint64"},
      {"indexed": false, "name": "change", "type": "uint64"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "collector", "type": "address"},
      {"indexed": false, "name": "amount1", "type": "uint64"},
      {"indexed": false, "name": "amount2", "type": "uint64"}
    ],
    "name": "ClaimFees",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "collector", "type": "address"},
      {"indexed": false, "name": "amount1", "type": "uint64"},
      {"indexed": false, "name": "amount2", "type": "uint64"}
    ],
    "name": "ClaimExtra",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "name": "poolersFeeShare", "type": "uint64"},
      {"indexed": false, "name": "protocolFeeShare", "type": "uint64"}
    ],
    "name": "SetFee",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "name": "reserve1", "type": "uint64"},
      {"indexed": false, "name": "reserve2", "type": "uint64"},
      {"indexed": false, "name": "issuedShares", "type": "uint64"},
      {"indexed": false, "name": "cumulativePrice1", "type": "uint256"},
      {"indexed": false, "name": "cumulativePrice2", "type": "uint256"},
      {"indexed": false, "name": "timestamp", "type": "uint64"}
    ],
    "name": "Sync",
    "type": "event"
  },
  {
    "inputs": [
      {"name": "asset1Id", "type": "uint64"},
      {"name": "asset2Id", "type": "uint64"}
    ],
    "name": "bootstrap",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"name": "asset1Id", "type": "uint64"},
      {"name": "asset2Id", "type": "uint64"},
      {"name": "shareAssetId", "type": "uint64"},
      {"name": "pool", "type": "address"}
    ],
    "name": "add_liquidity",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"name": "asset1Id", "type": "uint64"},
      {"name": "asset2Id", "type": "uint64"},
      {"name": "pool", "type": "address"}
    ],
    "name": "remove_liquidity",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"name": "inputAssetId", "type": "uint64"},
      {"name": "outputAssetId", "type": "uint64"},
      {"name": "amount", "type": "uint64"},
      {"name": "mode", "type": "string"},
      {"name": "pool", "type": "address"}
    ],
    "name": "swap",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"name": "asset1Id", "type": "uint64"},
      {"name": "asset2Id", "type": "uint64"},
      {"name": "pool", "type": "address"}
    ],
    "name": "claim_fees",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"name": "asset1Id", "type": "uint64"},
      {"name": "asset2Id", "type": "uint64"},
      {"name": "pool", "type": "address"}
    ],
    "name": "claim_extra",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"name": "poolersFeeShare", "type": "uint64"},
      {"name": "protocolFeeShare", "type": "uint64"},
      {"name": "pool", "type": "address"}
    ],
    "name": "set_fee",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"name": "account", "type": "address"}],
    "name": "set_fee_collector",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"name": "account", "type": "address"}],
    "name": "set_fee_setter",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"name": "account", "type": "address"}],
    "name": "set_fee_manager",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

var (
	poolABI     abi.ABI
	poolABIOnce sync.Once
	poolABIErr  error
)

// PoolABI returns the parsed pool ABI: the application call methods and the
// state-delta events.
func PoolABI() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}
