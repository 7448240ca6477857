package address

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrAssetList is returned when the supplied asset list does not match the pair.
	ErrAssetList = errors.New("asset list mismatch")
	// ErrCallerMismatch is returned when the caller is not the derived pool account.
	ErrCallerMismatch = errors.New("caller is not the derived pool account")
)

// poolTemplate is the pool account program. The three zero words are the
// application id, asset 1 id and asset 2 id, in that order.
var poolTemplate = hexutil.MustDecode("0x" +
	"0620010181" + "0000000000000000" +
	"1781" + "0000000000000000" +
	"1781" + "0000000000000000" +
	"311812311922121043")

const (
	appOffset    = 5
	asset1Offset = 15
	asset2Offset = 25
)

var (
	programPrefix = []byte("Program")
	appPrefix     = []byte("appID")
)

// Program returns the pool template with the pair identity substituted.
func Program(appID, asset1ID, asset2ID uint64) []byte {
	prog := make([]byte, len(poolTemplate))
	copy(prog, poolTemplate)
	binary.BigEndian.PutUint64(prog[appOffset:appOffset+8], appID)
	binary.BigEndian.PutUint64(prog[asset1Offset:asset1Offset+8], asset1ID)
	binary.BigEndian.PutUint64(prog[asset2Offset:asset2Offset+8], asset2ID)
	return prog
}

// Derive returns the custodial account address for a pair. It is pure:
// identical inputs always produce the same address.
func Derive(appID, asset1ID, asset2ID uint64) common.Address {
	hash := crypto.Keccak256(programPrefix, Program(appID, asset1ID, asset2ID))
	return common.BytesToAddress(hash[12:])
}

// ApplicationAddress returns the account controlled by the application itself.
func ApplicationAddress(appID uint64) common.Address {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], appID)
	hash := crypto.Keccak256(appPrefix, id[:])
	return common.BytesToAddress(hash[12:])
}

// Authorize is the bootstrap gate. The asset list must be exactly
// [asset1ID, asset2ID] and the caller must be the derived pool account.
func Authorize(appID uint64, caller common.Address, asset1ID, asset2ID uint64, assets []uint64) error {
	if len(assets) != 2 || assets[0] != asset1ID || assets[1] != asset2ID {
		return fmt.Errorf("%w: want [%d %d] got %v", ErrAssetList, asset1ID, asset2ID, assets)
	}
	if want := Derive(appID, asset1ID, asset2ID); caller != want {
		return fmt.Errorf("%w: want %s got %s", ErrCallerMismatch, want.Hex(), caller.Hex())
	}
	return nil
}
