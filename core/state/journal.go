package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// journalEntry is a modification entry in the state change journal that can
// be reverted on demand.
type journalEntry interface {
	revert(*StateDB)
}

// journal contains the list of state modifications applied since the last
// state commit, in application order.
type journal struct {
	entries []journalEntry
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// revert undoes a batch of journalled modifications down to snapshot.
func (j *journal) revert(s *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:snapshot]
}

func (j *journal) length() int {
	return len(j.entries)
}

func (j *journal) copy() *journal {
	return &journal{entries: append([]journalEntry(nil), j.entries...)}
}

type (
	balanceChange struct {
		key  balanceKey
		prev *uint256.Int // nil if the slot did not exist
	}
	ownerChange struct {
		key     nftKey
		prev    common.Address
		existed bool
	}
	storageChange struct {
		addr    common.Address
		slot    common.Hash
		prev    common.Hash
		existed bool
	}
	recordChange struct {
		key     recordKey
		prev    any
		existed bool
	}
)

func (ch balanceChange) revert(s *StateDB) {
	if ch.prev == nil {
		delete(s.balances, ch.key)
		return
	}
	s.balances[ch.key] = ch.prev
}

func (ch ownerChange) revert(s *StateDB) {
	if !ch.existed {
		delete(s.owners, ch.key)
		return
	}
	s.owners[ch.key] = ch.prev
}

func (ch storageChange) revert(s *StateDB) {
	slots := s.storage[ch.addr]
	if !ch.existed {
		delete(slots, ch.slot)
		if len(slots) == 0 {
			delete(s.storage, ch.addr)
		}
		return
	}
	if slots == nil {
		slots = make(map[common.Hash]common.Hash)
		s.storage[ch.addr] = slots
	}
	slots[ch.slot] = ch.prev
}

func (ch recordChange) revert(s *StateDB) {
	if !ch.existed {
		delete(s.records, ch.key)
		return
	}
	s.records[ch.key] = ch.prev
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}
