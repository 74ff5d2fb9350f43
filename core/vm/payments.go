package vm

import (
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
)

// maxBips is the denominator of portion payments.
var maxBips = big.NewInt(10_000)

// resolve maps a plan address to a concrete one for the current call.
func (r *Router) resolve(f *frame, addr common.Address) common.Address {
	return types.Resolve(addr, f.caller(), r.address)
}

// payer returns the account that funds a swap.
func (r *Router) payer(f *frame, payerIsUser bool) common.Address {
	if payerIsUser {
		return f.caller()
	}
	return r.address
}

func (r *Router) balanceOf(token, owner common.Address) *big.Int {
	return r.state.GetBalance(token, owner)
}

// pay sends value of token from the router to recipient. ContractBalance
// sends everything the router holds.
func (r *Router) pay(token, recipient common.Address, value *big.Int) error {
	if types.IsContractBalance(value) {
		value = r.balanceOf(token, r.address)
	}
	if recipient == r.address || value.Sign() == 0 {
		return nil
	}
	return r.state.Transfer(token, r.address, recipient, value, tracing.BalanceChangeTransfer)
}

// payOrPermit2Transfer pays from the router's own balance when the router is
// the payer and pulls through the allowance service otherwise.
func (r *Router) payOrPermit2Transfer(token, payer, recipient common.Address, amount *big.Int) error {
	if payer == r.address {
		return r.pay(token, recipient, amount)
	}
	if r.backends.Permit2 == nil {
		return fmt.Errorf("%w: permit2 needed to pull from %s", ErrVenueUnavailable, payer.Hex())
	}
	return r.backends.Permit2.TransferFrom(r.address, payer, recipient, amount, token)
}

func insufficient(token common.Address) error {
	if token == types.NativeCurrency {
		return ErrInsufficientETH
	}
	return ErrInsufficientToken
}

func (r *Router) opSweep(f *frame, p SweepParams) error {
	balance := r.balanceOf(p.Token, r.address)
	if balance.Cmp(p.AmountMin) < 0 {
		return fmt.Errorf("%w: have %v, min %v", insufficient(p.Token), balance, p.AmountMin)
	}
	return r.pay(p.Token, r.resolve(f, p.Recipient), balance)
}

func (r *Router) opTransfer(f *frame, p TransferParams) error {
	return r.pay(p.Token, r.resolve(f, p.Recipient), p.Value)
}

func (r *Router) opPayPortion(f *frame, p PayPortionParams) error {
	if p.Bips.Cmp(maxBips) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidBips, p.Bips)
	}
	amount := new(big.Int).Mul(r.balanceOf(p.Token, r.address), p.Bips)
	amount.Quo(amount, maxBips)
	return r.pay(p.Token, r.resolve(f, p.Recipient), amount)
}

func (r *Router) opWrapETH(f *frame, p WrapETHParams) error {
	balance := r.balanceOf(types.NativeCurrency, r.address)
	amount := p.Amount
	if types.IsContractBalance(amount) {
		amount = balance
	} else if amount.Cmp(balance) > 0 {
		return fmt.Errorf("%w: have %v, wrap %v", ErrInsufficientETH, balance, amount)
	}
	if amount.Sign() == 0 {
		return nil
	}
	weth := r.backends.WETH
	if err := weth.Deposit(r.address, amount); err != nil {
		return err
	}
	return r.pay(weth.Address(), r.resolve(f, p.Recipient), amount)
}

func (r *Router) opUnwrapWETH(f *frame, p UnwrapWETHParams) error {
	weth := r.backends.WETH
	value := r.balanceOf(weth.Address(), r.address)
	if value.Cmp(p.AmountMin) < 0 {
		return fmt.Errorf("%w: have %v, min %v", ErrInsufficientETH, value, p.AmountMin)
	}
	if value.Sign() == 0 {
		return nil
	}
	if err := weth.Withdraw(r.address, value); err != nil {
		return err
	}
	return r.pay(types.NativeCurrency, r.resolve(f, p.Recipient), value)
}

func (r *Router) opBalanceCheckERC20(f *frame, p BalanceCheckERC20Params) error {
	owner := r.resolve(f, p.Owner)
	if balance := r.balanceOf(p.Token, owner); balance.Cmp(p.MinBalance) < 0 {
		return fmt.Errorf("%w: %s holds %v of %s, min %v", ErrBalanceTooLow, owner.Hex(), balance, p.Token.Hex(), p.MinBalance)
	}
	return nil
}
