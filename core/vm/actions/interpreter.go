package actions

import (
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// maxBips is the denominator of portion amounts.
var maxBips = big.NewInt(10_000)

// Env is what a list runs against. Positions may be nil, in which case the
// liquidity actions are unsupported.
type Env struct {
	Manager   PoolManager
	Host      Host
	Positions PositionBook
}

// Execute opens one unlock session on the pool manager and runs every action
// of list inside it, in order. The first failing action aborts the list; the
// manager then rolls the whole session back.
func Execute(env Env, list List) error {
	return env.Manager.Unlock(env.Host.Self(), func(s Session) error {
		in := &interpreter{env: env, session: s}
		return in.run(list)
	})
}

type interpreter struct {
	env     Env
	session Session
}

func (in *interpreter) run(list List) error {
	for i := 0; i < list.Len(); i++ {
		action, blob := list.At(i)
		params, err := DecodeParams(action, blob)
		if err == nil {
			log.Trace("Running action", "index", i, "action", action, "locker", in.env.Host.Self())
			err = in.handle(params)
		}
		if err != nil {
			return &ActionFailedError{Index: i, Action: action, Err: err}
		}
	}
	return nil
}

func (in *interpreter) handle(p Params) error {
	switch p := p.(type) {
	case IncreaseLiquidityParams:
		return in.increaseLiquidity(p)
	case DecreaseLiquidityParams:
		return in.decreaseLiquidity(p)
	case MintPositionParams:
		return in.mintPosition(p)
	case BurnPositionParams:
		return in.burnPosition(p)
	case SwapExactInSingleParams:
		return in.swapExactInSingle(p.Params)
	case SwapExactInParams:
		return in.swapExactIn(p.Params)
	case SwapExactOutSingleParams:
		return in.swapExactOutSingle(p.Params)
	case SwapExactOutParams:
		return in.swapExactOut(p.Params)
	case SettleParams:
		amount, err := in.mapSettleAmount(p.Amount, p.Currency)
		if err != nil {
			return err
		}
		return in.settle(p.Currency, in.mapPayer(p.PayerIsUser), amount)
	case SettleAllParams:
		debt, err := in.fullDebt(p.Currency)
		if err != nil {
			return err
		}
		if debt.Cmp(p.MaxAmount) > 0 {
			return fmt.Errorf("%w: owe %v, max %v", ErrV4TooMuchRequested, debt, p.MaxAmount)
		}
		return in.settle(p.Currency, in.env.Host.Caller(), debt)
	case SettlePairParams:
		for _, c := range []common.Address{p.Currency0, p.Currency1} {
			debt, err := in.fullDebt(c)
			if err != nil {
				return err
			}
			if err := in.settle(c, in.env.Host.Caller(), debt); err != nil {
				return err
			}
		}
		return nil
	case TakeParams:
		amount, err := in.mapTakeAmount(p.Amount, p.Currency)
		if err != nil {
			return err
		}
		return in.take(p.Currency, in.mapRecipient(p.Recipient), amount)
	case TakeAllParams:
		credit, err := in.fullCredit(p.Currency)
		if err != nil {
			return err
		}
		if credit.Cmp(p.MinAmount) < 0 {
			return fmt.Errorf("%w: got %v, min %v", ErrV4TooLittleReceived, credit, p.MinAmount)
		}
		return in.take(p.Currency, in.env.Host.Caller(), credit)
	case TakePortionParams:
		if p.Bips.Cmp(maxBips) > 0 {
			return fmt.Errorf("%w: %v", ErrInvalidBips, p.Bips)
		}
		credit, err := in.fullCredit(p.Currency)
		if err != nil {
			return err
		}
		amount := new(big.Int).Mul(credit, p.Bips)
		amount.Quo(amount, maxBips)
		return in.take(p.Currency, in.mapRecipient(p.Recipient), amount)
	case TakePairParams:
		to := in.mapRecipient(p.Recipient)
		for _, c := range []common.Address{p.Currency0, p.Currency1} {
			credit, err := in.fullCredit(c)
			if err != nil {
				return err
			}
			if err := in.take(c, to, credit); err != nil {
				return err
			}
		}
		return nil
	case CloseCurrencyParams:
		delta := in.session.CurrencyDelta(p.Currency)
		switch delta.Sign() {
		case -1:
			return in.settle(p.Currency, in.env.Host.Caller(), new(big.Int).Neg(delta))
		case 1:
			return in.take(p.Currency, in.env.Host.Caller(), delta)
		}
		return nil
	case ClearOrTakeParams:
		credit, err := in.fullCredit(p.Currency)
		if err != nil {
			return err
		}
		if credit.Sign() == 0 {
			return nil
		}
		if credit.Cmp(p.AmountMax) <= 0 {
			return in.session.Clear(p.Currency, credit)
		}
		return in.take(p.Currency, in.env.Host.Caller(), credit)
	case SweepParams:
		self := in.env.Host.Self()
		balance := in.env.Host.BalanceOf(p.Currency, self)
		if balance.Sign() == 0 {
			return nil
		}
		return in.env.Host.Pay(p.Currency, self, in.mapRecipient(p.Recipient), balance)
	case SettleWithBalanceParams:
		debt, err := in.fullDebt(p.Currency)
		if err != nil {
			return err
		}
		return in.settle(p.Currency, in.env.Host.Self(), debt)
	}
	return fmt.Errorf("%w: %v", ErrUnsupportedAction, p.Action())
}

func (in *interpreter) mapRecipient(addr common.Address) common.Address {
	return types.Resolve(addr, in.env.Host.Caller(), in.env.Host.Self())
}

func (in *interpreter) mapPayer(payerIsUser bool) common.Address {
	if payerIsUser {
		return in.env.Host.Caller()
	}
	return in.env.Host.Self()
}

func (in *interpreter) fullDebt(currency common.Address) (*big.Int, error) {
	delta := in.session.CurrencyDelta(currency)
	if delta.Sign() > 0 {
		return nil, fmt.Errorf("%w: %s delta %v", ErrDeltaNotNegative, currency.Hex(), delta)
	}
	return new(big.Int).Neg(delta), nil
}

func (in *interpreter) fullCredit(currency common.Address) (*big.Int, error) {
	delta := in.session.CurrencyDelta(currency)
	if delta.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s delta %v", ErrDeltaNotPositive, currency.Hex(), delta)
	}
	return new(big.Int).Set(delta), nil
}

func (in *interpreter) mapSettleAmount(amount *big.Int, currency common.Address) (*big.Int, error) {
	switch {
	case types.IsContractBalance(amount):
		return in.env.Host.BalanceOf(currency, in.env.Host.Self()), nil
	case types.IsOpenDelta(amount):
		return in.fullDebt(currency)
	}
	return amount, nil
}

func (in *interpreter) mapTakeAmount(amount *big.Int, currency common.Address) (*big.Int, error) {
	if types.IsOpenDelta(amount) {
		return in.fullCredit(currency)
	}
	return amount, nil
}

func (in *interpreter) settle(currency, payer common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := in.session.Sync(currency); err != nil {
		return err
	}
	if err := in.env.Host.Pay(currency, payer, in.env.Manager.Address(), amount); err != nil {
		return err
	}
	_, err := in.session.Settle()
	return err
}

func (in *interpreter) take(currency, recipient common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return in.session.Take(currency, recipient, amount)
}

// swap returns the amounts paid into and received from the pool.
func (in *interpreter) swap(key types.PoolKey, zeroForOne bool, amountSpecified *big.Int, hookData []byte) (paid, received *big.Int, err error) {
	d0, d1, err := in.session.Swap(key, zeroForOne, amountSpecified, hookData)
	if err != nil {
		return nil, nil, err
	}
	if zeroForOne {
		return new(big.Int).Neg(d0), d1, nil
	}
	return new(big.Int).Neg(d1), d0, nil
}

// poolAndDirection builds the pool of a hop and the swap direction that sells
// currency into it.
func poolAndDirection(hop PathKey, currency common.Address) (types.PoolKey, bool) {
	c0, c1 := types.SortCurrencies(currency, hop.IntermediateCurrency)
	key := types.PoolKey{Currency0: c0, Currency1: c1, Fee: hop.Fee, TickSpacing: hop.TickSpacing, Hooks: hop.Hooks}
	return key, currency == c0
}

func (in *interpreter) swapExactInSingle(p ExactInputSingle) error {
	amountIn := p.AmountIn
	if types.IsOpenDelta(amountIn) {
		currencyIn := p.PoolKey.Currency1
		if p.ZeroForOne {
			currencyIn = p.PoolKey.Currency0
		}
		var err error
		if amountIn, err = in.fullCredit(currencyIn); err != nil {
			return err
		}
	}
	_, out, err := in.swap(p.PoolKey, p.ZeroForOne, new(big.Int).Neg(amountIn), p.HookData)
	if err != nil {
		return err
	}
	if out.Cmp(p.AmountOutMinimum) < 0 {
		return fmt.Errorf("%w: got %v, min %v", ErrV4TooLittleReceived, out, p.AmountOutMinimum)
	}
	return nil
}

func (in *interpreter) swapExactIn(p ExactInput) error {
	if len(p.Path) == 0 {
		return ErrEmptyPath
	}
	currency, amount := p.CurrencyIn, p.AmountIn
	if types.IsOpenDelta(amount) {
		var err error
		if amount, err = in.fullCredit(currency); err != nil {
			return err
		}
	}
	for _, hop := range p.Path {
		key, zeroForOne := poolAndDirection(hop, currency)
		_, out, err := in.swap(key, zeroForOne, new(big.Int).Neg(amount), hop.HookData)
		if err != nil {
			return err
		}
		currency, amount = hop.IntermediateCurrency, out
	}
	if amount.Cmp(p.AmountOutMinimum) < 0 {
		return fmt.Errorf("%w: got %v, min %v", ErrV4TooLittleReceived, amount, p.AmountOutMinimum)
	}
	return nil
}

func (in *interpreter) swapExactOutSingle(p ExactOutputSingle) error {
	amountOut := p.AmountOut
	if types.IsOpenDelta(amountOut) {
		currencyOut := p.PoolKey.Currency0
		if p.ZeroForOne {
			currencyOut = p.PoolKey.Currency1
		}
		var err error
		if amountOut, err = in.fullDebt(currencyOut); err != nil {
			return err
		}
	}
	paid, _, err := in.swap(p.PoolKey, p.ZeroForOne, amountOut, p.HookData)
	if err != nil {
		return err
	}
	if paid.Cmp(p.AmountInMaximum) > 0 {
		return fmt.Errorf("%w: need %v, max %v", ErrV4TooMuchRequested, paid, p.AmountInMaximum)
	}
	return nil
}

func (in *interpreter) swapExactOut(p ExactOutput) error {
	if len(p.Path) == 0 {
		return ErrEmptyPath
	}
	currency, amount := p.CurrencyOut, p.AmountOut
	if types.IsOpenDelta(amount) {
		var err error
		if amount, err = in.fullDebt(currency); err != nil {
			return err
		}
	}
	for i := len(p.Path) - 1; i >= 0; i-- {
		hop := p.Path[i]
		key, outIsZero := poolAndDirection(hop, currency)
		paid, _, err := in.swap(key, !outIsZero, amount, hop.HookData)
		if err != nil {
			return err
		}
		currency, amount = hop.IntermediateCurrency, paid
	}
	if amount.Cmp(p.AmountInMaximum) > 0 {
		return fmt.Errorf("%w: need %v, max %v", ErrV4TooMuchRequested, amount, p.AmountInMaximum)
	}
	return nil
}

func (in *interpreter) positions() (PositionBook, error) {
	if in.env.Positions == nil {
		return nil, fmt.Errorf("%w: no position book", ErrUnsupportedAction)
	}
	return in.env.Positions, nil
}

func (in *interpreter) approvedPosition(tokenID *big.Int) (PositionBook, Position, error) {
	book, err := in.positions()
	if err != nil {
		return nil, Position{}, err
	}
	if caller := in.env.Host.Caller(); !book.IsApprovedOrOwner(caller, tokenID) {
		return nil, Position{}, fmt.Errorf("%w: %s for token %v", ErrNotApproved, caller.Hex(), tokenID)
	}
	pos, err := book.Position(tokenID)
	return book, pos, err
}

func saltOf(tokenID *big.Int) common.Hash {
	return common.BigToHash(tokenID)
}

func (in *interpreter) increaseLiquidity(p IncreaseLiquidityParams) error {
	book, err := in.positions()
	if err != nil {
		return err
	}
	pos, err := book.Position(p.TokenID)
	if err != nil {
		return err
	}
	d0, d1, err := in.session.ModifyLiquidity(pos.Key, pos.TickLower, pos.TickUpper, p.Liquidity, saltOf(p.TokenID), p.HookData)
	if err != nil {
		return err
	}
	if err := validateMaxIn(d0, d1, p.Amount0Max, p.Amount1Max); err != nil {
		return err
	}
	return book.SetLiquidity(p.TokenID, new(big.Int).Add(pos.Liquidity, p.Liquidity))
}

func (in *interpreter) decreaseLiquidity(p DecreaseLiquidityParams) error {
	book, pos, err := in.approvedPosition(p.TokenID)
	if err != nil {
		return err
	}
	if p.Liquidity.Cmp(pos.Liquidity) > 0 {
		return fmt.Errorf("%w: position %v holds %v", ErrInsufficientLiquidity, p.TokenID, pos.Liquidity)
	}
	d0, d1, err := in.session.ModifyLiquidity(pos.Key, pos.TickLower, pos.TickUpper, new(big.Int).Neg(p.Liquidity), saltOf(p.TokenID), p.HookData)
	if err != nil {
		return err
	}
	if err := validateMinOut(d0, d1, p.Amount0Min, p.Amount1Min); err != nil {
		return err
	}
	return book.SetLiquidity(p.TokenID, new(big.Int).Sub(pos.Liquidity, p.Liquidity))
}

func (in *interpreter) mintPosition(p MintPositionParams) error {
	book, err := in.positions()
	if err != nil {
		return err
	}
	owner := in.mapRecipient(p.Owner)
	id, err := book.Mint(owner, Position{Key: p.PoolKey, TickLower: p.TickLower, TickUpper: p.TickUpper, Liquidity: new(big.Int).Set(p.Liquidity)})
	if err != nil {
		return err
	}
	d0, d1, err := in.session.ModifyLiquidity(p.PoolKey, p.TickLower, p.TickUpper, p.Liquidity, saltOf(id), p.HookData)
	if err != nil {
		return err
	}
	log.Debug("Minted position", "id", id, "owner", owner, "liquidity", p.Liquidity)
	return validateMaxIn(d0, d1, p.Amount0Max, p.Amount1Max)
}

func (in *interpreter) burnPosition(p BurnPositionParams) error {
	book, pos, err := in.approvedPosition(p.TokenID)
	if err != nil {
		return err
	}
	if pos.Liquidity.Sign() > 0 {
		d0, d1, err := in.session.ModifyLiquidity(pos.Key, pos.TickLower, pos.TickUpper, new(big.Int).Neg(pos.Liquidity), saltOf(p.TokenID), p.HookData)
		if err != nil {
			return err
		}
		if err := validateMinOut(d0, d1, p.Amount0Min, p.Amount1Min); err != nil {
			return err
		}
	}
	return book.Burn(p.TokenID)
}

func validateMaxIn(d0, d1, max0, max1 *big.Int) error {
	if d0.Sign() < 0 && new(big.Int).Neg(d0).Cmp(max0) > 0 {
		return fmt.Errorf("%w: currency0 needs %v, max %v", ErrMaximumAmountExceeded, new(big.Int).Neg(d0), max0)
	}
	if d1.Sign() < 0 && new(big.Int).Neg(d1).Cmp(max1) > 0 {
		return fmt.Errorf("%w: currency1 needs %v, max %v", ErrMaximumAmountExceeded, new(big.Int).Neg(d1), max1)
	}
	return nil
}

func validateMinOut(d0, d1, min0, min1 *big.Int) error {
	if d0.Cmp(min0) < 0 {
		return fmt.Errorf("%w: currency0 returns %v, min %v", ErrMinimumAmountInsufficient, d0, min0)
	}
	if d1.Cmp(min1) < 0 {
		return fmt.Errorf("%w: currency1 returns %v, min %v", ErrMinimumAmountInsufficient, d1, min1)
	}
	return nil
}
