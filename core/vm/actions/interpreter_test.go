package actions_test

import (
	"errors"
	"math/big"
	"os"
	"testing"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/clydemeng/bsc-router/simulated"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, true)))
}

const now = 1_700_000_000

var (
	tokenA = common.HexToAddress("0xaaaa000000000000000000000000000000000000")
	tokenB = common.HexToAddress("0xbbbb000000000000000000000000000000000000")
	user   = common.HexToAddress("0x0a0a000000000000000000000000000000000000")
	locker = common.HexToAddress("0x10c0000000000000000000000000000000000000")
	lp     = common.HexToAddress("0x1b00000000000000000000000000000000000000")
	bob    = common.HexToAddress("0xb0b0000000000000000000000000000000000000")

	key = types.PoolKey{Currency0: tokenA, Currency1: tokenB, Fee: big.NewInt(3000), TickSpacing: big.NewInt(60)}
)

// directHost pays straight out of the payer's balance.
type directHost struct {
	state  *state.StateDB
	caller common.Address
}

func (h directHost) Caller() common.Address { return h.caller }
func (h directHost) Self() common.Address   { return locker }

func (h directHost) Pay(currency, payer, recipient common.Address, amount *big.Int) error {
	return h.state.Transfer(currency, payer, recipient, amount, tracing.BalanceChangeTransfer)
}

func (h directHost) BalanceOf(currency, owner common.Address) *big.Int {
	return h.state.GetBalance(currency, owner)
}

type testEnv struct {
	t       *testing.T
	state   *state.StateDB
	backend *simulated.Backend
}

// newTestEnv seeds a price-one pool holding 1e6 of both tokens and leaves
// the user, the locker and the liquidity provider 1e6 of each.
func newTestEnv(t *testing.T) *testEnv {
	st := state.New()
	e := &testEnv{t: t, state: st, backend: simulated.NewBackend(st, now)}
	for _, token := range []common.Address{tokenA, tokenB} {
		for _, owner := range []common.Address{user, locker, lp} {
			require.NoError(t, st.AddBalance(token, owner, big.NewInt(1_000_000), tracing.BalanceChangeGenesis))
		}
		require.NoError(t, st.AddBalance(token, lp, big.NewInt(1_000_000), tracing.BalanceChangeGenesis))
		e.backend.Permit2.Approve(lp, token, simulated.PositionManagerV4Address, simulated.MaxAllowance, now+3600)
	}
	_, err := e.backend.PoolManager.Initialize(key, new(big.Int).Lsh(big.NewInt(1), 96))
	require.NoError(t, err)

	var seed actions.List
	seed.MustAdd(mint(1_000_000, lp)).MustAdd(actions.SettlePairParams{Currency0: tokenA, Currency1: tokenB})
	require.NoError(t, e.modify(lp, &seed))
	return e
}

func mint(liquidity int64, owner common.Address) actions.MintPositionParams {
	return actions.MintPositionParams{
		PoolKey:    key,
		TickLower:  big.NewInt(-600),
		TickUpper:  big.NewInt(600),
		Liquidity:  big.NewInt(liquidity),
		Amount0Max: big.NewInt(liquidity),
		Amount1Max: big.NewInt(liquidity),
		Owner:      owner,
		HookData:   []byte{},
	}
}

func swapIn(amount int64) actions.SwapExactInSingleParams {
	return actions.SwapExactInSingleParams{Params: actions.ExactInputSingle{
		PoolKey:          key,
		ZeroForOne:       true,
		AmountIn:         big.NewInt(amount),
		AmountOutMinimum: big.NewInt(0),
		HookData:         []byte{},
	}}
}

func (e *testEnv) run(list *actions.List) error {
	host := directHost{state: e.state, caller: user}
	return actions.Execute(actions.Env{Manager: e.backend.PoolManager, Host: host}, *list)
}

func (e *testEnv) modify(caller common.Address, list *actions.List) error {
	return e.backend.PositionManagerV4.ModifyLiquidities(caller, *list)
}

func (e *testEnv) requireBalance(token, owner common.Address, want int64) {
	e.t.Helper()
	if have := e.state.GetBalance(token, owner); have.Cmp(big.NewInt(want)) != 0 {
		e.t.Fatalf("balance of %s in %s: have %v, want %d", owner.Hex(), token.Hex(), have, want)
	}
}

func TestSettleFromLockerTakeToCaller(t *testing.T) {
	e := newTestEnv(t)

	var list actions.List
	list.MustAdd(swapIn(1000)).
		MustAdd(actions.SettleParams{Currency: tokenA, Amount: types.OpenDelta, PayerIsUser: false}).
		MustAdd(actions.TakeParams{Currency: tokenB, Recipient: types.MsgSender, Amount: types.OpenDelta})
	require.NoError(t, e.run(&list))

	e.requireBalance(tokenA, locker, 1_000_000-1000)
	e.requireBalance(tokenB, user, 1_000_000+996)
	e.requireBalance(tokenA, user, 1_000_000)
}

func TestCloseCurrencyAndClear(t *testing.T) {
	e := newTestEnv(t)

	// The debt is settled by the caller and the dust credit is forfeited.
	var list actions.List
	list.MustAdd(swapIn(1000)).
		MustAdd(actions.CloseCurrencyParams{Currency: tokenA}).
		MustAdd(actions.ClearOrTakeParams{Currency: tokenB, AmountMax: big.NewInt(1000)})
	require.NoError(t, e.run(&list))
	e.requireBalance(tokenA, user, 1_000_000-1000)
	e.requireBalance(tokenB, user, 1_000_000)

	// Above the threshold the credit is taken instead.
	list = actions.List{}
	list.MustAdd(swapIn(1000)).
		MustAdd(actions.CloseCurrencyParams{Currency: tokenA}).
		MustAdd(actions.ClearOrTakeParams{Currency: tokenB, AmountMax: big.NewInt(10)})
	require.NoError(t, e.run(&list))
	e.requireBalance(tokenA, user, 1_000_000-2000)
	if have := e.state.GetBalance(tokenB, user); have.Cmp(big.NewInt(1_000_000+990)) < 0 {
		t.Fatalf("take after clear threshold: have %v", have)
	}
}

func TestSettleWithBalanceAndSweep(t *testing.T) {
	e := newTestEnv(t)

	var list actions.List
	list.MustAdd(swapIn(1000)).
		MustAdd(actions.SettleWithBalanceParams{Currency: tokenA}).
		MustAdd(actions.TakePairParams{Currency0: tokenA, Currency1: tokenB, Recipient: types.AddressThis}).
		MustAdd(actions.SweepParams{Currency: tokenB, Recipient: bob})
	require.NoError(t, e.run(&list))

	e.requireBalance(tokenA, locker, 1_000_000-1000)
	e.requireBalance(tokenB, locker, 0)
	e.requireBalance(tokenB, bob, 1_000_000+996)
}

func TestActionFailuresRollBack(t *testing.T) {
	tests := []struct {
		name string
		list func(l *actions.List)
		want error
	}{
		{
			name: "take all of a debt",
			list: func(l *actions.List) {
				l.MustAdd(swapIn(1000)).MustAdd(actions.TakeAllParams{Currency: tokenA, MinAmount: big.NewInt(0)})
			},
			want: actions.ErrDeltaNotPositive,
		},
		{
			name: "settle all of a credit",
			list: func(l *actions.List) {
				l.MustAdd(swapIn(1000)).MustAdd(actions.SettleAllParams{Currency: tokenB, MaxAmount: big.NewInt(0)})
			},
			want: actions.ErrDeltaNotNegative,
		},
		{
			name: "settle all above max",
			list: func(l *actions.List) {
				l.MustAdd(swapIn(1000)).MustAdd(actions.SettleAllParams{Currency: tokenA, MaxAmount: big.NewInt(999)})
			},
			want: actions.ErrV4TooMuchRequested,
		},
		{
			name: "portion above one",
			list: func(l *actions.List) {
				l.MustAdd(swapIn(1000)).MustAdd(actions.TakePortionParams{Currency: tokenB, Recipient: bob, Bips: big.NewInt(10_001)})
			},
			want: actions.ErrInvalidBips,
		},
		{
			name: "empty path",
			list: func(l *actions.List) {
				l.MustAdd(actions.SwapExactInParams{Params: actions.ExactInput{
					CurrencyIn: tokenA, Path: []actions.PathKey{}, AmountIn: big.NewInt(1), AmountOutMinimum: big.NewInt(0),
				}})
			},
			want: actions.ErrEmptyPath,
		},
		{
			name: "liquidity without a position book",
			list: func(l *actions.List) { l.MustAdd(mint(10, user)) },
			want: actions.ErrUnsupportedAction,
		},
		{
			name: "unsettled session",
			list: func(l *actions.List) { l.MustAdd(swapIn(1000)) },
			want: simulated.ErrCurrencyNotSettled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			var list actions.List
			tt.list(&list)
			require.ErrorIs(t, e.run(&list), tt.want)
			e.requireBalance(tokenA, user, 1_000_000)
			e.requireBalance(tokenB, user, 1_000_000)
		})
	}
}

func TestUnknownAction(t *testing.T) {
	e := newTestEnv(t)
	list := actions.List{Actions: []byte{0x04}, Params: [][]byte{{}}}
	err := e.run(&list)
	require.ErrorIs(t, err, actions.ErrUnsupportedAction)

	var failed *actions.ActionFailedError
	require.True(t, errors.As(err, &failed))
	require.Equal(t, 0, failed.Index)
	require.Equal(t, actions.Action(0x04), failed.Action)
}

func TestNestedUnlockIsRejected(t *testing.T) {
	e := newTestEnv(t)
	manager := e.backend.PoolManager
	err := manager.Unlock(locker, func(actions.Session) error {
		return manager.Unlock(locker, func(actions.Session) error { return nil })
	})
	require.ErrorIs(t, err, simulated.ErrAlreadyUnlocked)
}

func TestPositionLifecycle(t *testing.T) {
	e := newTestEnv(t)
	pm := simulated.PositionManagerV4Address
	id := big.NewInt(2) // the seed position is 1
	salt := common.BigToHash(id)
	takePair := actions.TakePairParams{Currency0: tokenA, Currency1: tokenB, Recipient: types.MsgSender}
	settlePair := actions.SettlePairParams{Currency0: tokenA, Currency1: tokenB}

	// 1. Mint and top up.
	var list actions.List
	list.MustAdd(mint(1000, lp)).
		MustAdd(actions.IncreaseLiquidityParams{TokenID: id, Liquidity: big.NewInt(500), Amount0Max: big.NewInt(500), Amount1Max: big.NewInt(500), HookData: []byte{}}).
		MustAdd(settlePair)
	require.NoError(t, e.modify(lp, &list))
	e.requireBalance(tokenA, lp, 1_000_000-1500)
	liquidity := e.backend.PoolManager.PositionLiquidity(key, pm, big.NewInt(-600), big.NewInt(600), salt)
	require.Equal(t, int64(1500), liquidity.Int64())

	// 2. Strangers may not touch the position.
	decrease := actions.DecreaseLiquidityParams{TokenID: id, Liquidity: big.NewInt(500), Amount0Min: big.NewInt(0), Amount1Min: big.NewInt(0), HookData: []byte{}}
	list = actions.List{}
	list.MustAdd(decrease).MustAdd(takePair)
	require.ErrorIs(t, e.modify(bob, &list), actions.ErrNotApproved)

	// 3. The owner withdraws part, then burns the rest.
	require.NoError(t, e.modify(lp, &list))
	e.requireBalance(tokenA, lp, 1_000_000-1000)

	list = actions.List{}
	list.MustAdd(actions.BurnPositionParams{TokenID: id, Amount0Min: big.NewInt(1000), Amount1Min: big.NewInt(1000), HookData: []byte{}}).
		MustAdd(takePair)
	require.NoError(t, e.modify(lp, &list))
	e.requireBalance(tokenA, lp, 1_000_000)
	e.requireBalance(tokenB, lp, 1_000_000)
	require.False(t, e.backend.PositionManagerV4.Positions().IsApprovedOrOwner(lp, id))
}
