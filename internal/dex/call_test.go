package dex

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDecodeCallSwap(t *testing.T) {
	pool := common.HexToAddress("0x5555555555555555555555555555555555555555")
	calldata, err := EncodeCall("swap", uint64(20), uint64(10), uint64(9_000), "fixed-input", pool)
	require.NoError(t, err)

	call, err := DecodeCall(calldata)
	require.NoError(t, err)
	require.Equal(t, "swap", call.Method)

	in, err := call.Uint64(0)
	require.NoError(t, err)
	require.Equal(t, uint64(20), in)
	mode, err := call.Text(3)
	require.NoError(t, err)
	require.Equal(t, "fixed-input", mode)
	addr, err := call.Address(4)
	require.NoError(t, err)
	require.Equal(t, pool, addr)

	_, err = call.Uint64(3)
	require.Error(t, err)
	_, err = call.Address(9)
	require.Error(t, err)
}

func TestDecodeCallRejects(t *testing.T) {
	for _, calldata := range []string{"", "0x", "0x1234", "0xdeadbeef", "zz"} {
		_, err := DecodeCall(calldata)
		require.Error(t, err, calldata)
	}
	_, err := EncodeCall("mint", uint64(1))
	require.Error(t, err)
}
