package vm

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// OpCode is a router command opcode.
type OpCode byte

const (
	// FlagAllowRevert marks a command whose failure is swallowed.
	FlagAllowRevert byte = 0x80
	// CommandTypeMask selects the opcode bits of a command byte.
	CommandTypeMask byte = 0x7f
)

// 0x0 range - token movement, allowance and swap commands.
const (
	V3_SWAP_EXACT_IN            OpCode = 0x00
	V3_SWAP_EXACT_OUT           OpCode = 0x01
	PERMIT2_TRANSFER_FROM       OpCode = 0x02
	PERMIT2_PERMIT_BATCH        OpCode = 0x03
	SWEEP                       OpCode = 0x04
	TRANSFER                    OpCode = 0x05
	PAY_PORTION                 OpCode = 0x06
	V2_SWAP_EXACT_IN            OpCode = 0x08
	V2_SWAP_EXACT_OUT           OpCode = 0x09
	PERMIT2_PERMIT              OpCode = 0x0a
	WRAP_ETH                    OpCode = 0x0b
	UNWRAP_WETH                 OpCode = 0x0c
	PERMIT2_TRANSFER_FROM_BATCH OpCode = 0x0d
	BALANCE_CHECK_ERC20         OpCode = 0x0e
)

// 0x10 range - pool manager and position manager commands, NFT marketplaces.
const (
	V4_SWAP                    OpCode = 0x10
	V3_POSITION_MANAGER_PERMIT OpCode = 0x11
	V3_POSITION_MANAGER_CALL   OpCode = 0x12
	V4_INITIALIZE_POOL         OpCode = 0x13
	V4_POSITION_MANAGER_CALL   OpCode = 0x14
	SEAPORT_V1_5               OpCode = 0x16
	LOOKS_RARE_V2              OpCode = 0x17
	X2Y2_721                   OpCode = 0x18
	OWNER_CHECK_721            OpCode = 0x1a
	SWEEP_ERC721               OpCode = 0x1b
)

// 0x20 range - nested plans.
const (
	EXECUTE_SUB_PLAN OpCode = 0x21
)

var opCodeToString = map[OpCode]string{
	V3_SWAP_EXACT_IN:            "V3_SWAP_EXACT_IN",
	V3_SWAP_EXACT_OUT:           "V3_SWAP_EXACT_OUT",
	PERMIT2_TRANSFER_FROM:       "PERMIT2_TRANSFER_FROM",
	PERMIT2_PERMIT_BATCH:        "PERMIT2_PERMIT_BATCH",
	SWEEP:                       "SWEEP",
	TRANSFER:                    "TRANSFER",
	PAY_PORTION:                 "PAY_PORTION",
	V2_SWAP_EXACT_IN:            "V2_SWAP_EXACT_IN",
	V2_SWAP_EXACT_OUT:           "V2_SWAP_EXACT_OUT",
	PERMIT2_PERMIT:              "PERMIT2_PERMIT",
	WRAP_ETH:                    "WRAP_ETH",
	UNWRAP_WETH:                 "UNWRAP_WETH",
	PERMIT2_TRANSFER_FROM_BATCH: "PERMIT2_TRANSFER_FROM_BATCH",
	BALANCE_CHECK_ERC20:         "BALANCE_CHECK_ERC20",
	V4_SWAP:                     "V4_SWAP",
	V3_POSITION_MANAGER_PERMIT:  "V3_POSITION_MANAGER_PERMIT",
	V3_POSITION_MANAGER_CALL:    "V3_POSITION_MANAGER_CALL",
	V4_INITIALIZE_POOL:          "V4_INITIALIZE_POOL",
	V4_POSITION_MANAGER_CALL:    "V4_POSITION_MANAGER_CALL",
	SEAPORT_V1_5:                "SEAPORT_V1_5",
	LOOKS_RARE_V2:               "LOOKS_RARE_V2",
	X2Y2_721:                    "X2Y2_721",
	OWNER_CHECK_721:             "OWNER_CHECK_721",
	SWEEP_ERC721:                "SWEEP_ERC721",
	EXECUTE_SUB_PLAN:            "EXECUTE_SUB_PLAN",
}

var (
	// revertibleOps may carry FlagAllowRevert.
	revertibleOps = mapset.NewThreadUnsafeSet(EXECUTE_SUB_PLAN, PERMIT2_PERMIT, PERMIT2_PERMIT_BATCH)
	// passThroughOps hand their input to a collaborator without decoding it.
	passThroughOps = mapset.NewThreadUnsafeSet(V3_POSITION_MANAGER_PERMIT, V3_POSITION_MANAGER_CALL, V4_POSITION_MANAGER_CALL)
)

func (op OpCode) String() string {
	if s, ok := opCodeToString[op]; ok {
		return s
	}
	return fmt.Sprintf("opcode 0x%02x not defined", byte(op))
}

// Defined reports whether op is bound to a handler.
func (op OpCode) Defined() bool {
	_, ok := opCodeToString[op]
	return ok
}

// IsRevertible reports whether op may carry the allow-revert flag.
func (op OpCode) IsRevertible() bool {
	return revertibleOps.Contains(op)
}

// IsPassThrough reports whether op skips structural decoding.
func (op OpCode) IsPassThrough() bool {
	return passThroughOps.Contains(op)
}

// Command is one decoded plan entry. It only lives for the duration of its
// dispatch.
type Command struct {
	Op          OpCode
	AllowRevert bool
	Input       []byte
}

// ParseCommand splits a command byte into opcode and flag.
func ParseCommand(b byte) (OpCode, bool) {
	return OpCode(b & CommandTypeMask), b&FlagAllowRevert != 0
}

// CommandByte is the inverse of ParseCommand.
func CommandByte(op OpCode, allowRevert bool) byte {
	b := byte(op) & CommandTypeMask
	if allowRevert {
		b |= FlagAllowRevert
	}
	return b
}
