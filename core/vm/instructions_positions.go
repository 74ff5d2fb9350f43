package vm

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const v3PositionManagerJSON = `[
	{"type":"function","name":"permit","inputs":[
		{"name":"spender","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"deadline","type":"uint256"},
		{"name":"v","type":"uint8"},{"name":"r","type":"bytes32"},{"name":"s","type":"bytes32"}]},
	{"type":"function","name":"decreaseLiquidity","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"tokenId","type":"uint256"},{"name":"liquidity","type":"uint128"},
		{"name":"amount0Min","type":"uint256"},{"name":"amount1Min","type":"uint256"},{"name":"deadline","type":"uint256"}]}]},
	{"type":"function","name":"collect","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"tokenId","type":"uint256"},{"name":"recipient","type":"address"},
		{"name":"amount0Max","type":"uint128"},{"name":"amount1Max","type":"uint128"}]}]},
	{"type":"function","name":"burn","inputs":[{"name":"tokenId","type":"uint256"}]}
]`

const v4PositionManagerJSON = `[
	{"type":"function","name":"modifyLiquidities","inputs":[{"name":"unlockData","type":"bytes"},{"name":"deadline","type":"uint256"}]}
]`

// Call-through ABIs of the position managers.
var (
	V3PositionManagerABI = mustParseABI(v3PositionManagerJSON)
	V4PositionManagerABI = mustParseABI(v4PositionManagerJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

func selector(calldata []byte) []byte {
	if len(calldata) < 4 {
		return nil
	}
	return calldata[:4]
}

// opV3PositionManagerPermit forwards a permit call and nothing else.
func (r *Router) opV3PositionManagerPermit(f *frame, p V3PositionManagerPermitParams) error {
	if !bytes.Equal(selector(p.Calldata), V3PositionManagerABI.Methods["permit"].ID) {
		return fmt.Errorf("%w: not a permit call", ErrInvalidAction)
	}
	return r.backends.PositionManagerV3.Call(r.address, p.Calldata)
}

// opV3PositionManagerCall forwards decreaseLiquidity, collect and burn calls
// on positions the caller controls.
func (r *Router) opV3PositionManagerCall(f *frame, p V3PositionManagerCallParams) error {
	sel := selector(p.Calldata)
	allowed := false
	for _, name := range []string{"decreaseLiquidity", "collect", "burn"} {
		if bytes.Equal(sel, V3PositionManagerABI.Methods[name].ID) {
			allowed = true
			break
		}
	}
	if !allowed || len(p.Calldata) < 4+32 {
		return fmt.Errorf("%w: selector %x", ErrInvalidAction, sel)
	}
	// All three calls start with the token id.
	tokenID := new(big.Int).SetBytes(p.Calldata[4:36])
	if !r.isAuthorizedForToken(f.caller(), tokenID) {
		return fmt.Errorf("%w: %v", ErrNotAuthorizedForToken, tokenID)
	}
	return r.backends.PositionManagerV3.Call(r.address, p.Calldata)
}

func (r *Router) isAuthorizedForToken(caller common.Address, tokenID *big.Int) bool {
	pm := r.backends.PositionManagerV3
	owner, err := pm.OwnerOf(tokenID)
	if err != nil {
		return false
	}
	if owner == caller || pm.IsApprovedForAll(owner, caller) {
		return true
	}
	approved, err := pm.GetApproved(tokenID)
	return err == nil && approved == caller
}

// opV4PositionManagerCall forwards modifyLiquidities calls that may mint
// positions but not touch existing ones. The router's whole native balance
// goes along with the call.
func (r *Router) opV4PositionManagerCall(f *frame, p V4PositionManagerCallParams) error {
	list, err := unlockData(p.Calldata)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	for i := 0; i < list.Len(); i++ {
		if a, _ := list.At(i); a.IsLiquidity() && a != actions.MINT_POSITION {
			return fmt.Errorf("%w: action %d is %v", ErrOnlyMintAllowed, i, a)
		}
	}
	pm := r.backends.PositionManagerV4
	value := r.balanceOf(types.NativeCurrency, r.address)
	if value.Sign() > 0 {
		if err := r.state.Transfer(types.NativeCurrency, r.address, pm.Address(), value, tracing.BalanceChangeTransfer); err != nil {
			return err
		}
	}
	return pm.Call(r.address, value, p.Calldata)
}

// unlockData extracts the action list of a modifyLiquidities call.
func unlockData(calldata []byte) (actions.List, error) {
	method := V4PositionManagerABI.Methods["modifyLiquidities"]
	if !bytes.Equal(selector(calldata), method.ID) {
		return actions.List{}, errors.New("not a modifyLiquidities call")
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return actions.List{}, err
	}
	return actions.Decode(args[0].([]byte))
}
