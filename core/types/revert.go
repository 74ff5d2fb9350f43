package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RevertError is a collaborator failure that carries an opaque payload, the
// way a reverting contract call returns revert data.
type RevertError struct {
	Reason string
	Data   []byte
}

// NewRevertError builds a RevertError.
func NewRevertError(reason string, data []byte) *RevertError {
	return &RevertError{Reason: reason, Data: cloneBytes(data)}
}

func (e *RevertError) Error() string {
	if len(e.Data) == 0 {
		return "execution reverted: " + e.Reason
	}
	return fmt.Sprintf("execution reverted: %s (%s)", e.Reason, hexutil.Encode(e.Data))
}

// ErrorPayload returns the raw payload behind err: the revert data if a
// collaborator supplied one, otherwise the error text.
func ErrorPayload(err error) []byte {
	if err == nil {
		return nil
	}
	var rev *RevertError
	if errors.As(err, &rev) && len(rev.Data) > 0 {
		return cloneBytes(rev.Data)
	}
	return []byte(err.Error())
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
