package vm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CallMetadata carries the minimal fields a raw call-through needs: who is
// calling, whom, with which calldata and how much native value. The value has
// already been moved to To when the call is made.
type CallMetadata struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
}
