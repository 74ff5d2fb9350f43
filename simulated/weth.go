package simulated

import (
	"math/big"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
)

// WETH holds deposited native coin and mints its token one to one. The
// token shares the contract's address.
type WETH struct {
	address common.Address
	state   *state.StateDB
}

func NewWETH(address common.Address, st *state.StateDB) *WETH {
	return &WETH{address: address, state: st}
}

func (w *WETH) Address() common.Address { return w.address }

// Deposit wraps amount of from's native coin.
func (w *WETH) Deposit(from common.Address, amount *big.Int) error {
	if err := w.state.Transfer(types.NativeCurrency, from, w.address, amount, tracing.BalanceChangeWrap); err != nil {
		return err
	}
	return w.state.AddBalance(w.address, from, amount, tracing.BalanceChangeMint)
}

// Withdraw unwraps amount of from's tokens.
func (w *WETH) Withdraw(from common.Address, amount *big.Int) error {
	if err := w.state.SubBalance(w.address, from, amount, tracing.BalanceChangeBurn); err != nil {
		return err
	}
	return w.state.Transfer(types.NativeCurrency, w.address, from, amount, tracing.BalanceChangeUnwrap)
}
