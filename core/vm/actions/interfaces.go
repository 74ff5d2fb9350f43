package actions

import (
	"math/big"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/ethereum/go-ethereum/common"
)

// PoolManager is the singleton pool-settlement service. All pool state and
// the per-session delta ledger live behind it.
type PoolManager interface {
	Address() common.Address
	// Initialize creates a pool at the given price and returns its tick.
	Initialize(key types.PoolKey, sqrtPriceX96 *big.Int) (*big.Int, error)
	// Unlock opens a session for locker and runs callback inside it. The
	// manager rolls back every effect of the session if callback fails or
	// leaves a non-zero delta behind.
	Unlock(locker common.Address, callback func(Session) error) error
}

// Session is the view of an open unlock session. Deltas are signed from the
// locker's point of view: positive is owed to the locker, negative is owed by
// it.
type Session interface {
	Swap(key types.PoolKey, zeroForOne bool, amountSpecified *big.Int, hookData []byte) (delta0, delta1 *big.Int, err error)
	ModifyLiquidity(key types.PoolKey, tickLower, tickUpper, liquidityDelta *big.Int, salt common.Hash, hookData []byte) (delta0, delta1 *big.Int, err error)
	CurrencyDelta(currency common.Address) *big.Int
	// Sync records the manager's current reserve of currency; the next
	// Settle credits whatever arrived since.
	Sync(currency common.Address) error
	Settle() (*big.Int, error)
	Take(currency, to common.Address, amount *big.Int) error
	// Clear forfeits a positive delta of exactly amount.
	Clear(currency common.Address, amount *big.Int) error
}

// Position is a liquidity position tracked by a PositionBook.
type Position struct {
	Key       types.PoolKey
	TickLower *big.Int
	TickUpper *big.Int
	Liquidity *big.Int
}

// PositionBook is the NFT-backed registry of liquidity positions. Only
// position managers provide one; liquidity actions fail without it.
type PositionBook interface {
	Mint(owner common.Address, pos Position) (*big.Int, error)
	Position(tokenID *big.Int) (Position, error)
	SetLiquidity(tokenID, liquidity *big.Int) error
	Burn(tokenID *big.Int) error
	IsApprovedOrOwner(spender common.Address, tokenID *big.Int) bool
}

// Host is the contract that holds the lock: the router, or a position
// manager.
type Host interface {
	// Caller is the account on whose behalf the list runs.
	Caller() common.Address
	// Self is the locker's own address.
	Self() common.Address
	// Pay moves amount of currency from payer to recipient, pulling through
	// the allowance service when payer is not Self.
	Pay(currency, payer, recipient common.Address, amount *big.Int) error
	BalanceOf(currency, owner common.Address) *big.Int
}
