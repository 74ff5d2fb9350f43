package vm

import (
	"errors"
	"fmt"

	"github.com/clydemeng/bsc-router/core/types"
)

// List of plan and execution errors.
var (
	ErrMalformedPlan             = errors.New("malformed plan")
	ErrMalformedParameters       = types.ErrMalformedParameters
	ErrInvalidCommandType        = errors.New("invalid command type")
	ErrTransactionDeadlinePassed = errors.New("transaction deadline passed")
	ErrContractLocked            = errors.New("contract locked")
	ErrSubPlanDepthExceeded      = errors.New("sub-plan depth exceeded")
	ErrVenueUnavailable          = errors.New("venue unavailable")
)

// Handler errors. They surface as the cause of an ExecutionFailedError.
var (
	ErrNotAuthorizedForToken = errors.New("not authorized for token")
	ErrInvalidAction         = errors.New("invalid action")
	ErrOnlyMintAllowed       = errors.New("only mint allowed")
	ErrBalanceTooLow         = errors.New("balance too low")
	ErrInsufficientToken     = errors.New("insufficient token")
	ErrInsufficientETH       = errors.New("insufficient eth")
	ErrInvalidBips           = errors.New("invalid bips")
	ErrFromAddressIsNotOwner = errors.New("from address is not owner")
	ErrV2TooLittleReceived   = errors.New("v2 too little received")
	ErrV2TooMuchRequested    = errors.New("v2 too much requested")
	ErrV2InvalidPath         = errors.New("v2 invalid path")
	ErrV3TooLittleReceived   = errors.New("v3 too little received")
	ErrV3TooMuchRequested    = errors.New("v3 too much requested")
	ErrV3InvalidPath         = errors.New("v3 invalid path")
	ErrV3InvalidAmountOut    = errors.New("v3 invalid amount out")
	ErrInvalidOwnerERC721    = errors.New("invalid owner erc721")
	ErrInvalidEthSender      = errors.New("invalid eth sender")
)

// ExecutionFailedError is returned when a command without the allow-revert
// flag fails. CommandIndex is the position in the plan level that failed;
// failures inside a sub-plan are reported by the sub-plan command that
// introduced them, with the inner error wrapped.
type ExecutionFailedError struct {
	CommandIndex int
	Op           OpCode
	Err          error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("execution failed at command %d (%v): %v", e.CommandIndex, e.Op, e.Err)
}

func (e *ExecutionFailedError) Unwrap() error { return e.Err }

// Payload is the raw failure output of the handler.
func (e *ExecutionFailedError) Payload() []byte {
	return types.ErrorPayload(e.Err)
}

// structural reports whether err describes a badly formed plan rather than a
// failing handler. Such errors are never swallowed by the allow-revert flag.
func structural(err error) bool {
	return errors.Is(err, ErrMalformedPlan) ||
		errors.Is(err, ErrMalformedParameters) ||
		errors.Is(err, ErrInvalidCommandType) ||
		errors.Is(err, ErrSubPlanDepthExceeded)
}
