package actions

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedAction         = errors.New("unsupported action")
	ErrV4TooLittleReceived       = errors.New("v4 too little received")
	ErrV4TooMuchRequested        = errors.New("v4 too much requested")
	ErrDeltaNotPositive          = errors.New("delta not positive")
	ErrDeltaNotNegative          = errors.New("delta not negative")
	ErrNotApproved               = errors.New("not approved")
	ErrMaximumAmountExceeded     = errors.New("maximum amount exceeded")
	ErrMinimumAmountInsufficient = errors.New("minimum amount insufficient")
	ErrInvalidBips               = errors.New("invalid bips")
	ErrEmptyPath                 = errors.New("empty swap path")
	ErrInsufficientLiquidity     = errors.New("insufficient liquidity")
)

// ActionFailedError reports the first failing action of a list.
type ActionFailedError struct {
	Index  int
	Action Action
	Err    error
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("action %d (%v) failed: %v", e.Index, e.Action, e.Err)
}

func (e *ActionFailedError) Unwrap() error { return e.Err }
