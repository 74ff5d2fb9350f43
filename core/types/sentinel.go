package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Reserved addresses that plans use to refer to the submitting account and to
// the router itself before either is known.
var (
	MsgSender   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	AddressThis = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

// Reserved amounts.
var (
	// ContractBalance asks a command to use the router's entire balance.
	ContractBalance = new(big.Int).Lsh(big.NewInt(1), 255)
	// AlreadyPaid marks a V2 input that was moved into the first pair by an
	// earlier command.
	AlreadyPaid = new(big.Int)
	// OpenDelta asks an action to use the full open session delta.
	OpenDelta = new(big.Int)
)

// RecipientKind tags the three shapes an address field can take.
type RecipientKind uint8

const (
	RecipientLiteral RecipientKind = iota
	RecipientCaller
	RecipientRouter
)

// Recipient is an address field as written in a plan. It is resolved against
// the current call at every use and never cached.
type Recipient struct {
	kind    RecipientKind
	literal common.Address
}

// RecipientOf classifies a raw address field.
func RecipientOf(addr common.Address) Recipient {
	switch addr {
	case MsgSender:
		return Recipient{kind: RecipientCaller}
	case AddressThis:
		return Recipient{kind: RecipientRouter}
	default:
		return Recipient{kind: RecipientLiteral, literal: addr}
	}
}

// Kind reports which sentinel, if any, the field carried.
func (r Recipient) Kind() RecipientKind { return r.kind }

// Resolve returns the concrete address for the given caller and router.
func (r Recipient) Resolve(caller, self common.Address) common.Address {
	switch r.kind {
	case RecipientCaller:
		return caller
	case RecipientRouter:
		return self
	default:
		return r.literal
	}
}

// Resolve is shorthand for RecipientOf(addr).Resolve(caller, self).
func Resolve(addr, caller, self common.Address) common.Address {
	return RecipientOf(addr).Resolve(caller, self)
}

// IsContractBalance reports whether amount is the ContractBalance sentinel.
func IsContractBalance(amount *big.Int) bool {
	return amount != nil && amount.Cmp(ContractBalance) == 0
}

// IsOpenDelta reports whether amount is zero, i.e. the OpenDelta sentinel.
func IsOpenDelta(amount *big.Int) bool {
	return amount == nil || amount.Sign() == 0
}
