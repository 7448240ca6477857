package ledger

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/model"
)

type state struct {
	accounts    map[common.Address]*account
	assets      map[uint64]model.AssetParams
	pools       map[common.Address]model.Pool
	nextAssetID uint64
}

func (m *Memory) capture() state {
	s := state{
		accounts:    make(map[common.Address]*account, len(m.accounts)),
		assets:      make(map[uint64]model.AssetParams, len(m.assets)),
		pools:       make(map[common.Address]model.Pool, len(m.pools)),
		nextAssetID: m.nextAssetID,
	}
	for k, v := range m.accounts {
		s.accounts[k] = v.clone()
	}
	for k, v := range m.assets {
		s.assets[k] = v
	}
	for k, v := range m.pools {
		s.pools[k] = v
	}
	return s
}

func (m *Memory) restore(s state) {
	m.accounts = s.accounts
	m.assets = s.assets
	m.pools = s.pools
	m.nextAssetID = s.nextAssetID
}

// Bundle runs fn atomically: if fn returns an error every ledger change made
// inside it is discarded. Bundles must not be nested.
func (m *Memory) Bundle(fn func() error) error {
	m.mu.Lock()
	saved := m.capture()
	m.mu.Unlock()

	if err := fn(); err != nil {
		m.mu.Lock()
		m.restore(saved)
		m.mu.Unlock()
		return err
	}
	return nil
}

// Snapshot exports the full ledger.
func (m *Memory) Snapshot() model.LedgerSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := model.LedgerSnapshot{NextAssetID: m.nextAssetID}
	for addr, a := range m.accounts {
		c := a.clone()
		snap.Accounts = append(snap.Accounts, model.AccountState{
			Address:   addr,
			Native:    c.native,
			Holdings:  c.holdings,
			Authority: c.authority,
		})
	}
	sort.Slice(snap.Accounts, func(i, j int) bool {
		return snap.Accounts[i].Address.Hex() < snap.Accounts[j].Address.Hex()
	})
	for _, p := range m.assets {
		snap.Assets = append(snap.Assets, p)
	}
	sort.Slice(snap.Assets, func(i, j int) bool { return snap.Assets[i].ID < snap.Assets[j].ID })
	for _, p := range m.pools {
		snap.Pools = append(snap.Pools, p)
	}
	sort.Slice(snap.Pools, func(i, j int) bool { return snap.Pools[i].Address.Hex() < snap.Pools[j].Address.Hex() })
	return snap
}

// Restore replaces the ledger contents with snap.
func (m *Memory) Restore(snap model.LedgerSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := state{
		accounts:    make(map[common.Address]*account, len(snap.Accounts)),
		assets:      make(map[uint64]model.AssetParams, len(snap.Assets)),
		pools:       make(map[common.Address]model.Pool, len(snap.Pools)),
		nextAssetID: snap.NextAssetID,
	}
	for _, a := range snap.Accounts {
		acc := &account{native: a.Native, holdings: make(map[uint64]uint64, len(a.Holdings)), authority: a.Authority}
		for k, v := range a.Holdings {
			acc.holdings[k] = v
		}
		s.accounts[a.Address] = acc.clone()
	}
	for _, p := range snap.Assets {
		s.assets[p.ID] = p
	}
	for _, p := range snap.Pools {
		s.pools[p.Address] = p
	}
	if s.nextAssetID == 0 {
		s.nextAssetID = 1
	}
	m.restore(s)
}
