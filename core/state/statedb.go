// Package state implements the in-memory ledger the router and its
// collaborators move value on. Every mutation is journalled so a failing call
// can be rolled back to any earlier snapshot.
package state

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientBalance is returned when a debit exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNotOwner is returned when an ERC721 transfer does not come from the
	// current owner.
	ErrNotOwner = errors.New("not token owner")
	// ErrInvalidAmount is returned for negative amounts and amounts or
	// balances that do not fit 256 bits.
	ErrInvalidAmount = errors.New("invalid amount")
)

type balanceKey struct {
	asset common.Address
	owner common.Address
}

type nftKey struct {
	token common.Address
	id    common.Hash
}

type recordKey struct {
	owner common.Address
	key   common.Hash
}

type revision struct {
	id           int
	journalIndex int
}

// StateDB holds fungible balances (the zero asset is the native coin),
// ERC721 ownership, raw storage slots and opaque per-contract records.
//
// Records must be treated as immutable values: callers replace a record with
// SetRecord instead of mutating what GetRecord returned, otherwise neither
// reverts nor copies can isolate the change.
type StateDB struct {
	balances map[balanceKey]*uint256.Int
	owners   map[nftKey]common.Address
	storage  map[common.Address]map[common.Hash]common.Hash
	records  map[recordKey]any

	journal        *journal
	validRevisions []revision
	nextRevisionID int

	hooks *tracing.Hooks
}

// New creates an empty state.
func New() *StateDB {
	return &StateDB{
		balances: make(map[balanceKey]*uint256.Int),
		owners:   make(map[nftKey]common.Address),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		records:  make(map[recordKey]any),
		journal:  new(journal),
	}
}

// SetHooks installs tracing hooks; nil disables them.
func (s *StateDB) SetHooks(hooks *tracing.Hooks) {
	s.hooks = hooks
}

// RecordKey derives a record or storage key from arbitrary parts.
func RecordKey(parts ...[]byte) common.Hash {
	return crypto.Keccak256Hash(parts...)
}

func toUint256(amount *big.Int) (*uint256.Int, error) {
	if amount == nil {
		return new(uint256.Int), nil
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative %v", ErrInvalidAmount, amount)
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: %v exceeds 256 bits", ErrInvalidAmount, amount)
	}
	return v, nil
}

// GetBalance returns the balance of owner in asset.
func (s *StateDB) GetBalance(asset, owner common.Address) *big.Int {
	return toBig(s.balances[balanceKey{asset, owner}])
}

func (s *StateDB) setBalance(key balanceKey, value *uint256.Int, reason tracing.BalanceChangeReason) {
	prev := s.balances[key]
	s.journal.append(balanceChange{key: key, prev: prev})
	s.balances[key] = value
	if s.hooks != nil && s.hooks.OnBalanceChange != nil {
		s.hooks.OnBalanceChange(key.asset, key.owner, toBig(prev), value.ToBig(), reason)
	}
}

// AddBalance credits amount to owner.
func (s *StateDB) AddBalance(asset, owner common.Address, amount *big.Int, reason tracing.BalanceChangeReason) error {
	delta, err := toUint256(amount)
	if err != nil {
		return err
	}
	if delta.IsZero() {
		return nil
	}
	key := balanceKey{asset, owner}
	cur := s.balances[key]
	if cur == nil {
		cur = new(uint256.Int)
	}
	sum, overflow := new(uint256.Int).AddOverflow(cur, delta)
	if overflow {
		return fmt.Errorf("%w: balance of %s overflows", ErrInvalidAmount, owner.Hex())
	}
	s.setBalance(key, sum, reason)
	return nil
}

// SubBalance debits amount from owner.
func (s *StateDB) SubBalance(asset, owner common.Address, amount *big.Int, reason tracing.BalanceChangeReason) error {
	delta, err := toUint256(amount)
	if err != nil {
		return err
	}
	if delta.IsZero() {
		return nil
	}
	key := balanceKey{asset, owner}
	cur := s.balances[key]
	if cur == nil || cur.Lt(delta) {
		return fmt.Errorf("%w: %s holds %v of %s, need %v", ErrInsufficientBalance, owner.Hex(), toBig(cur), asset.Hex(), amount)
	}
	s.setBalance(key, new(uint256.Int).Sub(cur, delta), reason)
	return nil
}

// Transfer moves amount of asset from one owner to another.
func (s *StateDB) Transfer(asset, from, to common.Address, amount *big.Int, reason tracing.BalanceChangeReason) error {
	if err := s.SubBalance(asset, from, amount, reason); err != nil {
		return err
	}
	return s.AddBalance(asset, to, amount, reason)
}

// OwnerOf returns the owner of an ERC721 token, zero if it was never minted.
func (s *StateDB) OwnerOf(token common.Address, id *big.Int) common.Address {
	return s.owners[nftKey{token, common.BigToHash(id)}]
}

// SetOwner assigns an ERC721 token. The zero owner burns it.
func (s *StateDB) SetOwner(token common.Address, id *big.Int, owner common.Address) {
	key := nftKey{token, common.BigToHash(id)}
	prev, existed := s.owners[key]
	s.journal.append(ownerChange{key: key, prev: prev, existed: existed})
	if owner == (common.Address{}) {
		delete(s.owners, key)
		return
	}
	s.owners[key] = owner
}

// TransferNFT moves an ERC721 token that from currently owns.
func (s *StateDB) TransferNFT(token, from, to common.Address, id *big.Int) error {
	if owner := s.OwnerOf(token, id); owner != from || from == (common.Address{}) {
		return fmt.Errorf("%w: token %v of %s is held by %s", ErrNotOwner, id, token.Hex(), owner.Hex())
	}
	s.SetOwner(token, id, to)
	return nil
}

// GetState returns a raw storage slot.
func (s *StateDB) GetState(addr common.Address, slot common.Hash) common.Hash {
	return s.storage[addr][slot]
}

// SetState writes a raw storage slot.
func (s *StateDB) SetState(addr common.Address, slot, value common.Hash) {
	slots := s.storage[addr]
	if slots == nil {
		slots = make(map[common.Hash]common.Hash)
		s.storage[addr] = slots
	}
	prev, existed := slots[slot]
	s.journal.append(storageChange{addr: addr, slot: slot, prev: prev, existed: existed})
	slots[slot] = value
}

// GetRecord returns the record stored under (owner, key).
func (s *StateDB) GetRecord(owner common.Address, key common.Hash) (any, bool) {
	v, ok := s.records[recordKey{owner, key}]
	return v, ok
}

// SetRecord stores value under (owner, key); a nil value deletes the record.
func (s *StateDB) SetRecord(owner common.Address, key common.Hash, value any) {
	k := recordKey{owner, key}
	prev, existed := s.records[k]
	s.journal.append(recordChange{key: k, prev: prev, existed: existed})
	if value == nil {
		delete(s.records, k)
		return
	}
	s.records[k] = value
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionID
	s.nextRevisionID++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// Copy creates a deep, independent copy of the state. Hooks are not copied.
func (s *StateDB) Copy() *StateDB {
	cpy := &StateDB{
		balances:       make(map[balanceKey]*uint256.Int, len(s.balances)),
		owners:         make(map[nftKey]common.Address, len(s.owners)),
		storage:        make(map[common.Address]map[common.Hash]common.Hash, len(s.storage)),
		records:        make(map[recordKey]any, len(s.records)),
		journal:        s.journal.copy(),
		validRevisions: append([]revision(nil), s.validRevisions...),
		nextRevisionID: s.nextRevisionID,
	}
	for k, v := range s.balances {
		cpy.balances[k] = new(uint256.Int).Set(v)
	}
	for k, v := range s.owners {
		cpy.owners[k] = v
	}
	for addr, slots := range s.storage {
		m := make(map[common.Hash]common.Hash, len(slots))
		for k, v := range slots {
			m[k] = v
		}
		cpy.storage[addr] = m
	}
	for k, v := range s.records {
		cpy.records[k] = v
	}
	return cpy
}
