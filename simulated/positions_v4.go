package simulated

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrDeadlinePassed = errors.New("deadline passed")
	ErrNotApproved    = errors.New("not approved")
	ErrUnknownToken   = errors.New("unknown token id")
)

var nextTokenIDKey = state.RecordKey([]byte("nextTokenId"))

// PositionBook is an ERC721 registry of pool manager positions. The NFT
// contract address is the position manager's.
type PositionBook struct {
	token common.Address
	state *state.StateDB
}

func positionRecordKey(id *big.Int) common.Hash {
	return state.RecordKey([]byte("position"), common.BigToHash(id).Bytes())
}

func approvalKey(id *big.Int) common.Hash {
	return state.RecordKey([]byte("approval"), common.BigToHash(id).Bytes())
}

func (b *PositionBook) Mint(owner common.Address, pos actions.Position) (*big.Int, error) {
	id := big.NewInt(1)
	if v, ok := b.state.GetRecord(b.token, nextTokenIDKey); ok {
		id = new(big.Int).Set(v.(*big.Int))
	}
	b.state.SetRecord(b.token, nextTokenIDKey, new(big.Int).Add(id, big.NewInt(1)))
	b.state.SetOwner(b.token, id, owner)
	b.state.SetRecord(b.token, positionRecordKey(id), pos)
	return id, nil
}

func (b *PositionBook) Position(id *big.Int) (actions.Position, error) {
	v, ok := b.state.GetRecord(b.token, positionRecordKey(id))
	if !ok {
		return actions.Position{}, fmt.Errorf("%w: %v", ErrUnknownToken, id)
	}
	return v.(actions.Position), nil
}

func (b *PositionBook) SetLiquidity(id, liquidity *big.Int) error {
	pos, err := b.Position(id)
	if err != nil {
		return err
	}
	pos.Liquidity = new(big.Int).Set(liquidity)
	b.state.SetRecord(b.token, positionRecordKey(id), pos)
	return nil
}

func (b *PositionBook) Burn(id *big.Int) error {
	if _, err := b.Position(id); err != nil {
		return err
	}
	b.state.SetOwner(b.token, id, common.Address{})
	b.state.SetRecord(b.token, positionRecordKey(id), nil)
	b.state.SetRecord(b.token, approvalKey(id), nil)
	return nil
}

// Approve lets spender manage position id.
func (b *PositionBook) Approve(id *big.Int, spender common.Address) {
	b.state.SetRecord(b.token, approvalKey(id), spender)
}

func (b *PositionBook) IsApprovedOrOwner(spender common.Address, id *big.Int) bool {
	owner := b.state.OwnerOf(b.token, id)
	if owner == (common.Address{}) {
		return false
	}
	if owner == spender {
		return true
	}
	v, ok := b.state.GetRecord(b.token, approvalKey(id))
	return ok && v.(common.Address) == spender
}

// PositionManagerV4 mints and manages pool manager positions by running
// action lists in its own unlock sessions.
type PositionManagerV4 struct {
	address common.Address
	state   *state.StateDB
	manager *PoolManager
	permit2 *Permit2
	book    *PositionBook
	now     func() uint64
}

func NewPositionManagerV4(address common.Address, st *state.StateDB, manager *PoolManager, permit2 *Permit2, now func() uint64) *PositionManagerV4 {
	return &PositionManagerV4{
		address: address,
		state:   st,
		manager: manager,
		permit2: permit2,
		book:    &PositionBook{token: address, state: st},
		now:     now,
	}
}

func (pm *PositionManagerV4) Address() common.Address { return pm.address }

// Positions exposes the position registry.
func (pm *PositionManagerV4) Positions() *PositionBook { return pm.book }

// Call executes modifyLiquidities calldata sent by from. The native value has
// already been moved to the manager.
func (pm *PositionManagerV4) Call(from common.Address, value *big.Int, calldata []byte) error {
	method := vm.V4PositionManagerABI.Methods["modifyLiquidities"]
	if len(calldata) < 4 || !bytes.Equal(calldata[:4], method.ID) {
		return fmt.Errorf("unknown selector %x", calldata[:min(4, len(calldata))])
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return err
	}
	deadline := args[1].(*big.Int)
	if deadline.Cmp(new(big.Int).SetUint64(pm.now())) < 0 {
		return fmt.Errorf("%w: %v", ErrDeadlinePassed, deadline)
	}
	list, err := actions.Decode(args[0].([]byte))
	if err != nil {
		return err
	}
	return pm.ModifyLiquidities(from, list)
}

// ModifyLiquidities runs list in one session on behalf of caller.
func (pm *PositionManagerV4) ModifyLiquidities(caller common.Address, list actions.List) error {
	return actions.Execute(actions.Env{
		Manager:   pm.manager,
		Host:      positionHost{pm: pm, caller: caller},
		Positions: pm.book,
	}, list)
}

// positionHost makes the position manager the locker of its sessions.
type positionHost struct {
	pm     *PositionManagerV4
	caller common.Address
}

func (h positionHost) Caller() common.Address { return h.caller }
func (h positionHost) Self() common.Address   { return h.pm.address }

func (h positionHost) Pay(currency, payer, recipient common.Address, amount *big.Int) error {
	if payer == h.pm.address {
		return h.pm.state.Transfer(currency, payer, recipient, amount, tracing.BalanceChangeSettle)
	}
	return h.pm.permit2.TransferFrom(h.pm.address, payer, recipient, amount, currency)
}

func (h positionHost) BalanceOf(currency, owner common.Address) *big.Int {
	return h.pm.state.GetBalance(currency, owner)
}
