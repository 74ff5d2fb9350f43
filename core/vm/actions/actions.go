// Package actions implements the pool-level action language that runs inside
// a single pool manager unlock session.
package actions

import (
	"errors"
	"fmt"

	"github.com/clydemeng/bsc-router/core/types"
)

// Action is a single opcode of an action list. The space is disjoint from the
// router's command opcodes and carries no revert flag.
type Action byte

const (
	INCREASE_LIQUIDITY    Action = 0x00
	DECREASE_LIQUIDITY    Action = 0x01
	MINT_POSITION         Action = 0x02
	BURN_POSITION         Action = 0x03
	SWAP_EXACT_IN_SINGLE  Action = 0x06
	SWAP_EXACT_IN         Action = 0x07
	SWAP_EXACT_OUT_SINGLE Action = 0x08
	SWAP_EXACT_OUT        Action = 0x09
	SETTLE                Action = 0x0b
	SETTLE_ALL            Action = 0x0c
	SETTLE_PAIR           Action = 0x0d
	TAKE                  Action = 0x0e
	TAKE_ALL              Action = 0x0f
	TAKE_PORTION          Action = 0x10
	TAKE_PAIR             Action = 0x11
	CLOSE_CURRENCY        Action = 0x12
	CLEAR_OR_TAKE         Action = 0x13
	SWEEP                 Action = 0x14
	SETTLE_WITH_BALANCE   Action = 0x19
)

var actionToString = map[Action]string{
	INCREASE_LIQUIDITY:    "INCREASE_LIQUIDITY",
	DECREASE_LIQUIDITY:    "DECREASE_LIQUIDITY",
	MINT_POSITION:         "MINT_POSITION",
	BURN_POSITION:         "BURN_POSITION",
	SWAP_EXACT_IN_SINGLE:  "SWAP_EXACT_IN_SINGLE",
	SWAP_EXACT_IN:         "SWAP_EXACT_IN",
	SWAP_EXACT_OUT_SINGLE: "SWAP_EXACT_OUT_SINGLE",
	SWAP_EXACT_OUT:        "SWAP_EXACT_OUT",
	SETTLE:                "SETTLE",
	SETTLE_ALL:            "SETTLE_ALL",
	SETTLE_PAIR:           "SETTLE_PAIR",
	TAKE:                  "TAKE",
	TAKE_ALL:              "TAKE_ALL",
	TAKE_PORTION:          "TAKE_PORTION",
	TAKE_PAIR:             "TAKE_PAIR",
	CLOSE_CURRENCY:        "CLOSE_CURRENCY",
	CLEAR_OR_TAKE:         "CLEAR_OR_TAKE",
	SWEEP:                 "SWEEP",
	SETTLE_WITH_BALANCE:   "SETTLE_WITH_BALANCE",
}

func (a Action) String() string {
	if s, ok := actionToString[a]; ok {
		return s
	}
	return fmt.Sprintf("action 0x%02x not defined", byte(a))
}

// IsLiquidity reports whether a modifies pool state (liquidity or swap)
// rather than settling deltas.
func (a Action) IsLiquidity() bool {
	return a < SETTLE
}

// ErrInputLengthMismatch is returned for lists whose two arrays differ in length.
var ErrInputLengthMismatch = errors.New("action list input length mismatch")

// List is a decoded action list.
type List struct {
	Actions []byte
	Params  [][]byte
}

// Decode parses the (bytes actions, bytes[] params) encoding of a list.
func Decode(blob []byte) (List, error) {
	acts, params, err := types.DecodePlan(blob)
	if err != nil {
		return List{}, err
	}
	if len(acts) != len(params) {
		return List{}, fmt.Errorf("%w: %d actions, %d params", ErrInputLengthMismatch, len(acts), len(params))
	}
	return List{Actions: acts, Params: params}, nil
}

// Encode serialises the list.
func (l List) Encode() ([]byte, error) {
	return types.EncodePlan(l.Actions, l.Params)
}

// Len returns the number of actions.
func (l List) Len() int { return len(l.Actions) }

// At returns the action and raw params at index i.
func (l List) At(i int) (Action, []byte) {
	return Action(l.Actions[i]), l.Params[i]
}

// Add encodes p and appends it to the list.
func (l *List) Add(p Params) error {
	blob, err := EncodeParams(p)
	if err != nil {
		return err
	}
	l.Actions = append(l.Actions, byte(p.Action()))
	l.Params = append(l.Params, blob)
	return nil
}

// MustAdd is Add for statically known params; it panics on encoding errors.
func (l *List) MustAdd(p Params) *List {
	if err := l.Add(p); err != nil {
		panic(err)
	}
	return l
}
