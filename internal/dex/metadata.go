package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"cpamm/internal/model"
)

// DefaultPoolMetaCacheSize bounds the number of pools kept in memory.
const DefaultPoolMetaCacheSize = 4096

// PoolMetaCache caches pool metadata by address.
type PoolMetaCache struct {
	cache *lru.Cache[common.Address, model.PoolMeta]
}

// NewPoolMetaCache builds a cache holding up to size pools.
func NewPoolMetaCache(size int) (*PoolMetaCache, error) {
	if size <= 0 {
		size = DefaultPoolMetaCacheSize
	}
	cache, err := lru.New[common.Address, model.PoolMeta](size)
	if err != nil {
		return nil, fmt.Errorf("pool meta cache: %w", err)
	}
	return &PoolMetaCache{cache: cache}, nil
}

func (c *PoolMetaCache) Get(address common.Address) (model.PoolMeta, bool) {
	return c.cache.Get(address)
}

func (c *PoolMetaCache) Set(address common.Address, meta model.PoolMeta) {
	c.cache.Add(address, meta)
}

// PoolMetaSource resolves metadata for pools the cache has not seen.
type PoolMetaSource interface {
	PoolMeta(pool common.Address) (model.PoolMeta, bool, error)
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint64(value interface{}) (uint64, error) {
	switch v := value.(type) {
	case uint64:
		return v, nil
	case *big.Int:
		if !v.IsUint64() {
			return 0, fmt.Errorf("uint64 overflow: %s", v.String())
		}
		return v.Uint64(), nil
	default:
		return 0, fmt.Errorf("unsupported uint64 type %T", value)
	}
}

// asUint64s converts every value, failing on the first mismatch.
func asUint64s(values []interface{}) ([]uint64, error) {
	out := make([]uint64, len(values))
	for i, v := range values {
		n, err := asUint64(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}
