package vm

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// lock is the router's reentrancy guard. It is held for exactly one
// top-level call and records the account that holds it.
type lock struct {
	mu     sync.Mutex
	locked bool
	holder common.Address
}

// acquire takes the lock for caller and returns the function that releases
// it. It fails with ErrContractLocked while another call is in progress.
func (l *lock) acquire(caller common.Address) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return nil, ErrContractLocked
	}
	l.locked, l.holder = true, caller

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.locked, l.holder = false, common.Address{}
			l.mu.Unlock()
		})
	}, nil
}

// Locker returns the caller holding the lock, zero if the router is idle.
func (l *lock) Locker() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}
