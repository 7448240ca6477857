package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/amm"
	"cpamm/internal/model"
)

type account struct {
	native    uint64
	holdings  map[uint64]uint64
	authority *common.Address
}

func (a *account) clone() *account {
	c := &account{native: a.native, holdings: make(map[uint64]uint64, len(a.holdings))}
	for k, v := range a.holdings {
		c.holdings[k] = v
	}
	if a.authority != nil {
		auth := *a.authority
		c.authority = &auth
	}
	return c
}

// Memory is an in-memory host ledger. It holds native and asset balances,
// account authorities and per-account pool state.
type Memory struct {
	mu          sync.Mutex
	accounts    map[common.Address]*account
	assets      map[uint64]model.AssetParams
	pools       map[common.Address]model.Pool
	nextAssetID uint64
}

// NewMemory returns an empty ledger. Asset ids are allocated from 1.
func NewMemory() *Memory {
	return &Memory{
		accounts:    make(map[common.Address]*account),
		assets:      make(map[uint64]model.AssetParams),
		pools:       make(map[common.Address]model.Pool),
		nextAssetID: 1,
	}
}

func (m *Memory) acct(addr common.Address) *account {
	a, ok := m.accounts[addr]
	if !ok {
		a = &account{holdings: make(map[uint64]uint64)}
		m.accounts[addr] = a
	}
	return a
}

// Fund credits native units to an account.
func (m *Memory) Fund(addr common.Address, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acct(addr).native += amount
}

// Asset returns the parameters of asset id.
func (m *Memory) Asset(id uint64) (model.AssetParams, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.assets[id]
	return p, ok
}

// Balance returns the holding of assetID. The native asset is always held.
func (m *Memory) Balance(addr common.Address, assetID uint64) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[addr]
	if assetID == model.NativeAssetID {
		if !ok {
			return 0, true
		}
		return a.native, true
	}
	if !ok {
		return 0, false
	}
	v, held := a.holdings[assetID]
	return v, held
}

// MinBalance is the base amount plus one increment per holding and one for
// pool state.
func (m *Memory) MinBalance(addr common.Address) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minBalance(addr)
}

func (m *Memory) minBalance(addr common.Address) uint64 {
	a, ok := m.accounts[addr]
	if !ok {
		return 0
	}
	min := amm.MinBalance + uint64(len(a.holdings))*amm.AssetMinBalance
	if _, ok := m.pools[addr]; ok {
		min += amm.AppOptInMinBalance
	}
	return min
}

func (m *Memory) authorityOf(addr common.Address) common.Address {
	if a, ok := m.accounts[addr]; ok && a.authority != nil {
		return *a.authority
	}
	return addr
}

// Transfer moves funds. A zero-amount self transfer of a non-native asset
// opts the account in.
func (m *Memory) Transfer(authorizer common.Address, t model.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfer(authorizer, t)
}

func (m *Memory) transfer(authorizer common.Address, t model.Transfer) error {
	if auth := m.authorityOf(t.Sender); auth != authorizer {
		return &amm.Error{Kind: amm.ErrAuthorization, Reason: fmt.Sprintf("%s is not authorized to send from %s", authorizer.Hex(), t.Sender.Hex())}
	}
	from := m.acct(t.Sender)
	if t.AssetID == model.NativeAssetID {
		if from.native < t.Amount || from.native-t.Amount < m.minBalance(t.Sender) {
			return &amm.Error{Kind: amm.ErrInsufficientFunds, Reason: fmt.Sprintf("%s cannot send %d native", t.Sender.Hex(), t.Amount)}
		}
		from.native -= t.Amount
		m.acct(t.Receiver).native += t.Amount
		return nil
	}
	if _, ok := m.assets[t.AssetID]; !ok {
		return &amm.Error{Kind: amm.ErrValidation, Reason: fmt.Sprintf("asset %d does not exist", t.AssetID)}
	}
	if t.Sender == t.Receiver && t.Amount == 0 {
		if _, held := from.holdings[t.AssetID]; !held {
			from.holdings[t.AssetID] = 0
			if from.native < m.minBalance(t.Sender) {
				delete(from.holdings, t.AssetID)
				return &amm.Error{Kind: amm.ErrInsufficientFunds, Reason: fmt.Sprintf("%s cannot cover opt-in to %d", t.Sender.Hex(), t.AssetID)}
			}
		}
		return nil
	}
	bal, held := from.holdings[t.AssetID]
	if !held || bal < t.Amount {
		return &amm.Error{Kind: amm.ErrInsufficientFunds, Reason: fmt.Sprintf("%s holds %d of asset %d, cannot send %d", t.Sender.Hex(), bal, t.AssetID, t.Amount)}
	}
	to := m.acct(t.Receiver)
	if _, ok := to.holdings[t.AssetID]; !ok {
		return &amm.Error{Kind: amm.ErrInsufficientFunds, Reason: fmt.Sprintf("%s is not opted in to asset %d", t.Receiver.Hex(), t.AssetID)}
	}
	from.holdings[t.AssetID] -= t.Amount
	to.holdings[t.AssetID] += t.Amount
	return nil
}

// CreateAsset registers a new asset held in full by its creator.
func (m *Memory) CreateAsset(params model.AssetParams) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	params.ID = m.nextAssetID
	m.nextAssetID++
	m.assets[params.ID] = params
	m.acct(params.Creator).holdings[params.ID] = params.Total
	return params.ID, nil
}

// SetAuthority hands the signing authority of account to authority.
func (m *Memory) SetAuthority(addr, authority common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.acct(addr)
	if authority == addr {
		a.authority = nil
		return nil
	}
	a.authority = &authority
	return nil
}

// Authority returns the account allowed to send from addr.
func (m *Memory) Authority(addr common.Address) common.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authorityOf(addr)
}

// PoolState returns the pool record stored on account addr.
func (m *Memory) PoolState(addr common.Address) (model.Pool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[addr]
	return p, ok
}

// SetPoolState stores a pool record on its account.
func (m *Memory) SetPoolState(pool model.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[pool.Address] = pool
	return nil
}

// Pools lists all pool records ordered by address.
func (m *Memory) Pools() []model.Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Pool, 0, len(m.pools))
	for _, p := range m.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.Hex() < out[j].Address.Hex() })
	return out
}
