package tracing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type (
	// CommandStartHook is invoked before a command is dispatched. Depth is 0
	// for the top-level plan and grows by one per nested sub-plan.
	CommandStartHook = func(depth, index int, op byte, allowRevert bool)

	// CommandEndHook is invoked after a command ran. Swallowed is set when the
	// command failed but its allow-revert flag kept the plan going.
	CommandEndHook = func(depth, index int, op byte, err error, swallowed bool)

	// BalanceChangeHook is invoked on every ledger movement. Asset is the zero
	// address for the native coin.
	BalanceChangeHook = func(asset, owner common.Address, prev, new *big.Int, reason BalanceChangeReason)

	// NonceChangeHook is invoked when an allowance nonce moves.
	NonceChangeHook = func(owner, token, spender common.Address, prev, new uint64, reason NonceChangeReason)

	// SessionStartHook is invoked when a pool manager session opens.
	SessionStartHook = func(manager, locker common.Address)

	// SessionEndHook is invoked when a pool manager session closes, err is
	// non-nil if the session was rolled back.
	SessionEndHook = func(manager, locker common.Address, err error)
)

// Hooks bundles the tracing callbacks. Any of them may be nil.
type Hooks struct {
	OnCommandStart  CommandStartHook
	OnCommandEnd    CommandEndHook
	OnBalanceChange BalanceChangeHook
	OnNonceChange   NonceChangeHook
	OnSessionStart  SessionStartHook
	OnSessionEnd    SessionEndHook
}
