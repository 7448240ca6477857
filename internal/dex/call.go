package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Call is a decoded application call.
type Call struct {
	Method string
	Args   []interface{}
}

// EncodeCall packs a call to method as hex calldata.
func EncodeCall(method string, args ...interface{}) (string, error) {
	parsed, err := PoolABI()
	if err != nil {
		return "", fmt.Errorf("parse pool abi: %w", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("pack %s: %w", method, err)
	}
	return hexutil.Encode(data), nil
}

// DecodeCall resolves the method selector of calldata and unpacks its arguments.
func DecodeCall(calldata string) (Call, error) {
	data, err := hexutil.Decode(calldata)
	if err != nil {
		return Call{}, fmt.Errorf("invalid calldata: %w", err)
	}
	if len(data) < 4 {
		return Call{}, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	parsed, err := PoolABI()
	if err != nil {
		return Call{}, fmt.Errorf("parse pool abi: %w", err)
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return Call{}, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return Call{}, fmt.Errorf("unpack %s: %w", method.Name, err)
	}
	return Call{Method: method.Name, Args: args}, nil
}

// Uint64 returns argument i as a uint64.
func (c Call) Uint64(i int) (uint64, error) {
	if i >= len(c.Args) {
		return 0, fmt.Errorf("%s: missing argument %d", c.Method, i)
	}
	v, err := asBigInt(c.Args[i])
	if err != nil {
		return 0, fmt.Errorf("%s argument %d: %w", c.Method, i, err)
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%s argument %d: out of range", c.Method, i)
	}
	return v.Uint64(), nil
}

// Text returns argument i as a string.
func (c Call) Text(i int) (string, error) {
	if i >= len(c.Args) {
		return "", fmt.Errorf("%s: missing argument %d", c.Method, i)
	}
	s, ok := c.Args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s argument %d: unsupported string type %T", c.Method, i, c.Args[i])
	}
	return s, nil
}

// Address returns argument i as an address.
func (c Call) Address(i int) (common.Address, error) {
	if i >= len(c.Args) {
		return common.Address{}, fmt.Errorf("%s: missing argument %d", c.Method, i)
	}
	addr, err := asAddress(c.Args[i])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s argument %d: %w", c.Method, i, err)
	}
	return addr, nil
}
