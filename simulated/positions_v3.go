package simulated

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNotCleared is returned when burning a position that still holds
// liquidity or uncollected tokens.
var ErrNotCleared = errors.New("position not cleared")

// V3Position is the record of one V3 NFT position.
type V3Position struct {
	Token0, Token1 common.Address
	Liquidity      *big.Int
	Owed0, Owed1   *big.Int
}

type decreaseLiquidityParams struct {
	TokenId    *big.Int
	Liquidity  *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	Deadline   *big.Int
}

type collectParams struct {
	TokenId    *big.Int
	Recipient  common.Address
	Amount0Max *big.Int
	Amount1Max *big.Int
}

// PositionManagerV3 is the V3 NFT position manager. Liquidity is backed one
// to one by both tokens, held in the manager's own balance.
type PositionManagerV3 struct {
	address common.Address
	state   *state.StateDB
	now     func() uint64
}

func NewPositionManagerV3(address common.Address, st *state.StateDB, now func() uint64) *PositionManagerV3 {
	return &PositionManagerV3{address: address, state: st, now: now}
}

func (pm *PositionManagerV3) Address() common.Address { return pm.address }

func nonceKey(id *big.Int) common.Hash {
	return state.RecordKey([]byte("nonce"), common.BigToHash(id).Bytes())
}

func operatorKey(owner, operator common.Address) common.Hash {
	return state.RecordKey([]byte("operator"), owner.Bytes(), operator.Bytes())
}

// Mint creates a position for owner and deposits its backing tokens.
func (pm *PositionManagerV3) Mint(owner, token0, token1 common.Address, liquidity *big.Int) (*big.Int, error) {
	id := big.NewInt(1)
	if v, ok := pm.state.GetRecord(pm.address, nextTokenIDKey); ok {
		id = new(big.Int).Set(v.(*big.Int))
	}
	for _, token := range []common.Address{token0, token1} {
		if err := pm.state.AddBalance(token, pm.address, liquidity, tracing.BalanceChangeMint); err != nil {
			return nil, err
		}
	}
	pm.state.SetRecord(pm.address, nextTokenIDKey, new(big.Int).Add(id, big.NewInt(1)))
	pm.state.SetOwner(pm.address, id, owner)
	pm.state.SetRecord(pm.address, positionRecordKey(id), V3Position{
		Token0: token0, Token1: token1,
		Liquidity: new(big.Int).Set(liquidity),
		Owed0:     new(big.Int), Owed1: new(big.Int),
	})
	return id, nil
}

// Position returns the record of id.
func (pm *PositionManagerV3) Position(id *big.Int) (V3Position, error) {
	v, ok := pm.state.GetRecord(pm.address, positionRecordKey(id))
	if !ok {
		return V3Position{}, fmt.Errorf("%w: %v", ErrUnknownToken, id)
	}
	return v.(V3Position), nil
}

func (pm *PositionManagerV3) OwnerOf(id *big.Int) (common.Address, error) {
	owner := pm.state.OwnerOf(pm.address, id)
	if owner == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %v", ErrUnknownToken, id)
	}
	return owner, nil
}

func (pm *PositionManagerV3) GetApproved(id *big.Int) (common.Address, error) {
	if _, err := pm.OwnerOf(id); err != nil {
		return common.Address{}, err
	}
	if v, ok := pm.state.GetRecord(pm.address, approvalKey(id)); ok {
		return v.(common.Address), nil
	}
	return common.Address{}, nil
}

func (pm *PositionManagerV3) IsApprovedForAll(owner, operator common.Address) bool {
	_, ok := pm.state.GetRecord(pm.address, operatorKey(owner, operator))
	return ok
}

// SetApprovalForAll lets operator manage every position of owner.
func (pm *PositionManagerV3) SetApprovalForAll(owner, operator common.Address, approved bool) {
	if approved {
		pm.state.SetRecord(pm.address, operatorKey(owner, operator), true)
	} else {
		pm.state.SetRecord(pm.address, operatorKey(owner, operator), nil)
	}
}

func (pm *PositionManagerV3) isApprovedOrOwner(spender common.Address, id *big.Int) bool {
	owner, err := pm.OwnerOf(id)
	if err != nil {
		return false
	}
	if owner == spender || pm.IsApprovedForAll(owner, spender) {
		return true
	}
	approved, _ := pm.GetApproved(id)
	return approved == spender
}

// PermitDigest is the message the owner of id signs to approve spender.
func (pm *PositionManagerV3) PermitDigest(spender common.Address, id, deadline *big.Int) []byte {
	nonce := new(big.Int)
	if v, ok := pm.state.GetRecord(pm.address, nonceKey(id)); ok {
		nonce = v.(*big.Int)
	}
	return crypto.Keccak256(pm.address.Bytes(), spender.Bytes(), common.BigToHash(id).Bytes(), common.BigToHash(nonce).Bytes(), common.BigToHash(deadline).Bytes())
}

// PermitCalldata signs a permit of id for spender with key and returns the
// permit calldata.
func (pm *PositionManagerV3) PermitCalldata(key *ecdsa.PrivateKey, spender common.Address, id, deadline *big.Int) ([]byte, error) {
	sig, err := crypto.Sign(pm.PermitDigest(spender, id, deadline), key)
	if err != nil {
		return nil, err
	}
	var r, s [32]byte
	copy(r[:], sig[:32])
	copy(s[:], sig[32:64])
	return vm.V3PositionManagerABI.Pack("permit", spender, id, deadline, sig[64]+27, r, s)
}

// Call executes calldata sent by from.
func (pm *PositionManagerV3) Call(from common.Address, calldata []byte) error {
	if len(calldata) < 4 {
		return fmt.Errorf("calldata too short: %d bytes", len(calldata))
	}
	method, err := vm.V3PositionManagerABI.MethodById(calldata[:4])
	if err != nil {
		return err
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return err
	}
	switch method.Name {
	case "permit":
		return pm.permit(args)
	case "decreaseLiquidity":
		return pm.decreaseLiquidity(from, *abi.ConvertType(args[0], new(decreaseLiquidityParams)).(*decreaseLiquidityParams))
	case "collect":
		return pm.collect(from, *abi.ConvertType(args[0], new(collectParams)).(*collectParams))
	case "burn":
		return pm.burn(from, args[0].(*big.Int))
	}
	return fmt.Errorf("unsupported method %s", method.Name)
}

func (pm *PositionManagerV3) permit(args []interface{}) error {
	var (
		spender  = args[0].(common.Address)
		id       = args[1].(*big.Int)
		deadline = args[2].(*big.Int)
		v        = args[3].(uint8)
		r        = args[4].([32]byte)
		s        = args[5].([32]byte)
	)
	if deadline.Cmp(new(big.Int).SetUint64(pm.now())) < 0 {
		return fmt.Errorf("%w: permit deadline %v", ErrDeadlinePassed, deadline)
	}
	owner, err := pm.OwnerOf(id)
	if err != nil {
		return err
	}
	if v < 27 {
		return fmt.Errorf("%w: v %d", ErrInvalidSignature, v)
	}
	sig := append(append(bytes.Clone(r[:]), s[:]...), v-27)
	pub, err := crypto.SigToPub(pm.PermitDigest(spender, id, deadline), sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if signer := crypto.PubkeyToAddress(*pub); signer != owner {
		return fmt.Errorf("%w: signed by %s", ErrInvalidSignature, signer.Hex())
	}
	nonce := new(big.Int)
	if v, ok := pm.state.GetRecord(pm.address, nonceKey(id)); ok {
		nonce = v.(*big.Int)
	}
	pm.state.SetRecord(pm.address, nonceKey(id), new(big.Int).Add(nonce, big.NewInt(1)))
	pm.state.SetRecord(pm.address, approvalKey(id), spender)
	return nil
}

func (pm *PositionManagerV3) decreaseLiquidity(from common.Address, p decreaseLiquidityParams) error {
	if !pm.isApprovedOrOwner(from, p.TokenId) {
		return fmt.Errorf("%w: %s for %v", ErrNotApproved, from.Hex(), p.TokenId)
	}
	if p.Deadline.Cmp(new(big.Int).SetUint64(pm.now())) < 0 {
		return fmt.Errorf("%w: %v", ErrDeadlinePassed, p.Deadline)
	}
	pos, err := pm.Position(p.TokenId)
	if err != nil {
		return err
	}
	if p.Liquidity.Cmp(pos.Liquidity) > 0 {
		return fmt.Errorf("%w: position holds %v", ErrInsufficientLiquidity, pos.Liquidity)
	}
	if p.Liquidity.Cmp(p.Amount0Min) < 0 || p.Liquidity.Cmp(p.Amount1Min) < 0 {
		return fmt.Errorf("price slippage check: %v below minimum", p.Liquidity)
	}
	pos.Liquidity = new(big.Int).Sub(pos.Liquidity, p.Liquidity)
	pos.Owed0 = new(big.Int).Add(pos.Owed0, p.Liquidity)
	pos.Owed1 = new(big.Int).Add(pos.Owed1, p.Liquidity)
	pm.state.SetRecord(pm.address, positionRecordKey(p.TokenId), pos)
	return nil
}

func (pm *PositionManagerV3) collect(from common.Address, p collectParams) error {
	if !pm.isApprovedOrOwner(from, p.TokenId) {
		return fmt.Errorf("%w: %s for %v", ErrNotApproved, from.Hex(), p.TokenId)
	}
	pos, err := pm.Position(p.TokenId)
	if err != nil {
		return err
	}
	amount0 := bigMin(pos.Owed0, p.Amount0Max)
	amount1 := bigMin(pos.Owed1, p.Amount1Max)
	pos.Owed0 = new(big.Int).Sub(pos.Owed0, amount0)
	pos.Owed1 = new(big.Int).Sub(pos.Owed1, amount1)
	pm.state.SetRecord(pm.address, positionRecordKey(p.TokenId), pos)
	if err := pm.state.Transfer(pos.Token0, pm.address, p.Recipient, amount0, tracing.BalanceChangeTransfer); err != nil {
		return err
	}
	return pm.state.Transfer(pos.Token1, pm.address, p.Recipient, amount1, tracing.BalanceChangeTransfer)
}

func (pm *PositionManagerV3) burn(from common.Address, id *big.Int) error {
	if !pm.isApprovedOrOwner(from, id) {
		return fmt.Errorf("%w: %s for %v", ErrNotApproved, from.Hex(), id)
	}
	pos, err := pm.Position(id)
	if err != nil {
		return err
	}
	if pos.Liquidity.Sign() != 0 || pos.Owed0.Sign() != 0 || pos.Owed1.Sign() != 0 {
		return fmt.Errorf("%w: %v", ErrNotCleared, id)
	}
	pm.state.SetOwner(pm.address, id, common.Address{})
	pm.state.SetRecord(pm.address, positionRecordKey(id), nil)
	pm.state.SetRecord(pm.address, approvalKey(id), nil)
	return nil
}

func bigMin(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
