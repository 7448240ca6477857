// Package kv persists the simulated ledger and application config in pebble.
package kv

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/model"
)

var ErrClosed = errors.New("kv store is closed")

var (
	accountPrefix = []byte("a/")
	assetPrefix   = []byte("s/")
	poolPrefix    = []byte("p/")
	nextAssetKey  = []byte("m/next_asset_id")
	configKey     = []byte("m/config")
)

// Store wraps a pebble database.
type Store struct {
	db *pebble.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("state dir is required")
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// SaveLedger replaces the stored ledger with snap in one batch.
func (s *Store) SaveLedger(snap model.LedgerSnapshot) error {
	if s.db == nil {
		return ErrClosed
	}
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, prefix := range [][]byte{accountPrefix, assetPrefix, poolPrefix} {
		if err := batch.DeleteRange(prefix, prefixEnd(prefix), nil); err != nil {
			return err
		}
	}
	for _, acct := range snap.Accounts {
		if err := putJSON(batch, key(accountPrefix, acct.Address.Bytes()), acct); err != nil {
			return err
		}
	}
	for _, asset := range snap.Assets {
		if err := putJSON(batch, key(assetPrefix, be8(asset.ID)), asset); err != nil {
			return err
		}
	}
	for _, pool := range snap.Pools {
		if err := putJSON(batch, key(poolPrefix, pool.Address.Bytes()), pool); err != nil {
			return err
		}
	}
	if err := batch.Set(nextAssetKey, be8(snap.NextAssetID), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// LoadLedger reads the stored ledger. ok is false when nothing was saved yet.
func (s *Store) LoadLedger() (snap model.LedgerSnapshot, ok bool, err error) {
	if s.db == nil {
		return snap, false, ErrClosed
	}
	next, found, err := s.get(nextAssetKey)
	if err != nil || !found {
		return snap, false, err
	}
	if len(next) != 8 {
		return snap, false, fmt.Errorf("corrupt next asset id")
	}
	snap.NextAssetID = binary.BigEndian.Uint64(next)

	if err := s.scan(accountPrefix, func(v []byte) error {
		var acct model.AccountState
		if err := json.Unmarshal(v, &acct); err != nil {
			return fmt.Errorf("decode account: %w", err)
		}
		snap.Accounts = append(snap.Accounts, acct)
		return nil
	}); err != nil {
		return snap, false, err
	}
	if err := s.scan(assetPrefix, func(v []byte) error {
		var asset model.AssetParams
		if err := json.Unmarshal(v, &asset); err != nil {
			return fmt.Errorf("decode asset: %w", err)
		}
		snap.Assets = append(snap.Assets, asset)
		return nil
	}); err != nil {
		return snap, false, err
	}
	if err := s.scan(poolPrefix, func(v []byte) error {
		var pool model.Pool
		if err := json.Unmarshal(v, &pool); err != nil {
			return fmt.Errorf("decode pool: %w", err)
		}
		snap.Pools = append(snap.Pools, pool)
		return nil
	}); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}

// SaveConfig stores the application role config.
func (s *Store) SaveConfig(cfg model.GlobalConfig) error {
	if s.db == nil {
		return ErrClosed
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return s.db.Set(configKey, raw, pebble.Sync)
}

// LoadConfig reads the application role config.
func (s *Store) LoadConfig() (model.GlobalConfig, bool, error) {
	var cfg model.GlobalConfig
	if s.db == nil {
		return cfg, false, ErrClosed
	}
	raw, found, err := s.get(configKey)
	if err != nil || !found {
		return cfg, false, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, false, fmt.Errorf("decode config: %w", err)
	}
	return cfg, true, nil
}

// Pool reads one pool record.
func (s *Store) Pool(address common.Address) (model.Pool, bool, error) {
	var pool model.Pool
	if s.db == nil {
		return pool, false, ErrClosed
	}
	raw, found, err := s.get(key(poolPrefix, address.Bytes()))
	if err != nil || !found {
		return pool, false, err
	}
	if err := json.Unmarshal(raw, &pool); err != nil {
		return pool, false, fmt.Errorf("decode pool: %w", err)
	}
	return pool, true, nil
}

// PoolMeta resolves pool metadata from the stored pool record.
func (s *Store) PoolMeta(address common.Address) (model.PoolMeta, bool, error) {
	pool, found, err := s.Pool(address)
	if err != nil || !found {
		return model.PoolMeta{}, false, err
	}
	return pool.Meta(), true, nil
}

func (s *Store) get(k []byte) ([]byte, bool, error) {
	val, closer, err := s.db.Get(k)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer closer.Close()

	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

func (s *Store) scan(prefix []byte, fn func(value []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func putJSON(batch *pebble.Batch, k []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k[:2], err)
	}
	return batch.Set(k, raw, nil)
}

func key(prefix, suffix []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(suffix))
	out = append(out, prefix...)
	return append(out, suffix...)
}

func be8(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// prefixEnd returns the smallest key greater than every key with prefix.
// Prefixes here never end in 0xff.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	end[len(end)-1]++
	return end
}
