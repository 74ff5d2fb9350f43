package vm_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/clydemeng/bsc-router/simulated"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func v3Path(t *testing.T, tokens []common.Address, fees ...uint32) []byte {
	path, err := vm.EncodeV3Path(tokens, fees)
	require.NoError(t, err)
	return path
}

func v4Swap(list *actions.List) vm.Params {
	return vm.V4SwapParams{Actions: list.Actions, Params: list.Params}
}

func hop(currency common.Address) actions.PathKey {
	return actions.PathKey{IntermediateCurrency: currency, Fee: big.NewInt(3000), TickSpacing: big.NewInt(60), HookData: []byte{}}
}

func TestV2SwapExactIn(t *testing.T) {
	f := newFixture(t)
	pair := f.v2Pair(tokenA, tokenB)

	swap := func(minOut int64) vm.Params {
		return vm.V2SwapExactInParams{
			Recipient:    types.MsgSender,
			AmountIn:     big.NewInt(1000),
			AmountOutMin: big.NewInt(minOut),
			Path:         []common.Address{tokenA, tokenB},
			PayerIsUser:  true,
		}
	}
	err := f.execute(vm.NewPlanner().Add(swap(997)).MustPlan())
	require.ErrorIs(t, err, vm.ErrV2TooLittleReceived)
	f.requireBalance(tokenA, f.user, 1_000_000)

	require.NoError(t, f.execute(vm.NewPlanner().Add(swap(996)).MustPlan()))
	f.requireBalance(tokenA, f.user, 1_000_000-1000)
	f.requireBalance(tokenB, f.user, 1_000_000+996)
	f.requireBalance(tokenA, pair, 1_000_000+1000)
}

func TestV2SwapAlreadyPaidMultiHop(t *testing.T) {
	f := newFixture(t)
	first := f.v2Pair(tokenA, tokenB)
	f.v2Pair(tokenB, tokenC)

	// The input is moved into the first pair by the allowance service, the
	// swap itself transfers nothing more.
	plan := vm.NewPlanner().
		Add(vm.Permit2TransferFromParams{Token: tokenA, Recipient: first, Amount: big.NewInt(1000)}).
		Add(vm.V2SwapExactInParams{
			Recipient:    bob,
			AmountIn:     types.AlreadyPaid,
			AmountOutMin: big.NewInt(992),
			Path:         []common.Address{tokenA, tokenB, tokenC},
		}).
		MustPlan()
	require.NoError(t, f.execute(plan))
	f.requireBalance(tokenA, f.user, 1_000_000-1000)
	f.requireBalance(tokenC, bob, 992)
	f.requireBalance(tokenB, router, 0)
}

func TestV2SwapExactOut(t *testing.T) {
	f := newFixture(t)
	f.v2Pair(tokenA, tokenB)

	swap := func(maxIn int64) vm.Params {
		return vm.V2SwapExactOutParams{
			Recipient:   types.MsgSender,
			AmountOut:   big.NewInt(996),
			AmountInMax: big.NewInt(maxIn),
			Path:        []common.Address{tokenA, tokenB},
			PayerIsUser: true,
		}
	}
	require.ErrorIs(t, f.execute(vm.NewPlanner().Add(swap(999)).MustPlan()), vm.ErrV2TooMuchRequested)
	require.NoError(t, f.execute(vm.NewPlanner().Add(swap(1000)).MustPlan()))
	f.requireBalance(tokenA, f.user, 1_000_000-1000)
	f.requireBalance(tokenB, f.user, 1_000_000+996)

	bad := vm.V2SwapExactOutParams{Recipient: bob, AmountOut: big.NewInt(1), AmountInMax: big.NewInt(1), Path: []common.Address{tokenA}}
	require.ErrorIs(t, f.execute(vm.NewPlanner().Add(bad).MustPlan()), vm.ErrV2InvalidPath)
}

func TestV3SwapExactInMultiHop(t *testing.T) {
	f := newFixture(t)
	f.v3Pool(tokenA, tokenB, 3000)
	f.v3Pool(tokenB, tokenC, 500)
	path := v3Path(t, []common.Address{tokenA, tokenB, tokenC}, 3000, 500)

	swap := func(minOut int64) vm.Params {
		return vm.V3SwapExactInParams{
			Recipient:    types.MsgSender,
			AmountIn:     big.NewInt(1000),
			AmountOutMin: big.NewInt(minOut),
			Path:         path,
			PayerIsUser:  true,
		}
	}
	require.ErrorIs(t, f.execute(vm.NewPlanner().Add(swap(995)).MustPlan()), vm.ErrV3TooLittleReceived)
	require.NoError(t, f.execute(vm.NewPlanner().Add(swap(994)).MustPlan()))
	f.requireBalance(tokenA, f.user, 1_000_000-1000)
	f.requireBalance(tokenC, f.user, 1_000_000+994)
	f.requireBalance(tokenB, router, 0)
}

func TestV3SwapContractBalance(t *testing.T) {
	f := newFixture(t)
	f.v3Pool(tokenA, tokenB, 3000)

	plan := vm.NewPlanner().
		Add(pull(tokenA, 1000)).
		Add(vm.V3SwapExactInParams{
			Recipient:    bob,
			AmountIn:     types.ContractBalance,
			AmountOutMin: big.NewInt(0),
			Path:         v3Path(t, []common.Address{tokenA, tokenB}, 3000),
		}).
		MustPlan()
	require.NoError(t, f.execute(plan))
	f.requireBalance(tokenA, router, 0)
	f.requireBalance(tokenB, bob, 996)
}

func TestV3SwapExactOutMultiHop(t *testing.T) {
	f := newFixture(t)
	f.v3Pool(tokenA, tokenB, 3000)
	f.v3Pool(tokenB, tokenC, 500)
	// Exact output paths start at the output token.
	path := v3Path(t, []common.Address{tokenC, tokenB, tokenA}, 500, 3000)

	swap := func(maxIn int64) vm.Params {
		return vm.V3SwapExactOutParams{
			Recipient:   types.MsgSender,
			AmountOut:   big.NewInt(994),
			AmountInMax: big.NewInt(maxIn),
			Path:        path,
			PayerIsUser: true,
		}
	}
	require.ErrorIs(t, f.execute(vm.NewPlanner().Add(swap(999)).MustPlan()), vm.ErrV3TooMuchRequested)
	f.requireBalance(tokenC, f.user, 1_000_000)

	require.NoError(t, f.execute(vm.NewPlanner().Add(swap(1000)).MustPlan()))
	f.requireBalance(tokenA, f.user, 1_000_000-1000)
	f.requireBalance(tokenC, f.user, 1_000_000+994)
	f.requireBalance(tokenB, router, 0)

	bad := vm.V3SwapExactOutParams{Recipient: bob, AmountOut: big.NewInt(1), AmountInMax: big.NewInt(1), Path: tokenA.Bytes()}
	require.ErrorIs(t, f.execute(vm.NewPlanner().Add(bad).MustPlan()), vm.ErrV3InvalidPath)
}

func TestV4SwapExactInSingle(t *testing.T) {
	f := newFixture(t)
	key := poolKey(tokenA, tokenB)
	f.v4Pool(key)
	manager := simulated.PoolManagerAddress

	var list actions.List
	list.MustAdd(actions.SwapExactInSingleParams{Params: actions.ExactInputSingle{
		PoolKey:          key,
		ZeroForOne:       true,
		AmountIn:         big.NewInt(1000),
		AmountOutMinimum: big.NewInt(996),
		HookData:         []byte{},
	}}).
		MustAdd(actions.SettleAllParams{Currency: tokenA, MaxAmount: big.NewInt(1000)}).
		MustAdd(actions.TakeAllParams{Currency: tokenB, MinAmount: big.NewInt(996)})

	require.NoError(t, f.execute(vm.NewPlanner().Add(v4Swap(&list)).MustPlan()))
	f.requireBalance(tokenA, f.user, 1_000_000-1000)
	f.requireBalance(tokenB, f.user, 1_000_000+996)
	f.requireBalance(tokenA, manager, 1_000_000+1000)
	f.requireBalance(tokenB, manager, 1_000_000-996)

	r0, r1, err := f.backend.PoolManager.Reserves(key)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000+1000), r0.Int64())
	require.Equal(t, int64(1_000_000-996), r1.Int64())
}

func TestV4SwapIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	key := poolKey(tokenA, tokenB)
	f.v4Pool(key)

	// 1. The swap and settlement succeed, the final take asks for too much.
	var list actions.List
	list.MustAdd(actions.SwapExactInSingleParams{Params: actions.ExactInputSingle{
		PoolKey:          key,
		ZeroForOne:       true,
		AmountIn:         big.NewInt(1000),
		AmountOutMinimum: big.NewInt(0),
		HookData:         []byte{},
	}}).
		MustAdd(actions.SettleAllParams{Currency: tokenA, MaxAmount: big.NewInt(1000)}).
		MustAdd(actions.TakeAllParams{Currency: tokenB, MinAmount: big.NewInt(997)})
	err := f.execute(vm.NewPlanner().Add(v4Swap(&list)).MustPlan())
	require.ErrorIs(t, err, actions.ErrV4TooLittleReceived)

	// 2. The failing action is reported by index.
	var failed *actions.ActionFailedError
	require.True(t, errors.As(err, &failed))
	require.Equal(t, 2, failed.Index)
	require.Equal(t, actions.TAKE_ALL, failed.Action)

	// 3. Nothing of the session survived.
	f.requireBalance(tokenA, f.user, 1_000_000)
	f.requireBalance(tokenB, f.user, 1_000_000)
	r0, r1, err := f.backend.PoolManager.Reserves(key)
	require.NoError(t, err)
	require.Equal(t, reserve.Int64(), r0.Int64())
	require.Equal(t, reserve.Int64(), r1.Int64())
}

func TestV4SwapMustSettle(t *testing.T) {
	f := newFixture(t)
	key := poolKey(tokenA, tokenB)
	f.v4Pool(key)

	var list actions.List
	list.MustAdd(actions.SwapExactInSingleParams{Params: actions.ExactInputSingle{
		PoolKey:          key,
		ZeroForOne:       true,
		AmountIn:         big.NewInt(1000),
		AmountOutMinimum: big.NewInt(0),
		HookData:         []byte{},
	}})
	err := f.execute(vm.NewPlanner().Add(v4Swap(&list)).MustPlan())
	require.ErrorIs(t, err, simulated.ErrCurrencyNotSettled)

	// Inside a revertible sub-plan the failure is swallowed and the pool is untouched.
	require.NoError(t, f.execute(vm.NewPlanner().AddSubPlan(vm.NewPlanner().Add(v4Swap(&list)), true).MustPlan()))
	r0, _, err := f.backend.PoolManager.Reserves(key)
	require.NoError(t, err)
	require.Equal(t, reserve.Int64(), r0.Int64())
}

func TestV4SwapLengthMismatch(t *testing.T) {
	f := newFixture(t)
	var list actions.List
	list.MustAdd(actions.SettleAllParams{Currency: tokenA, MaxAmount: big.NewInt(0)})

	swap := vm.V4SwapParams{Actions: []byte{byte(actions.SETTLE_ALL), byte(actions.TAKE_ALL)}, Params: list.Params}
	err := f.execute(vm.NewPlanner().AddSubPlan(vm.NewPlanner().Add(swap), true).MustPlan())
	require.ErrorIs(t, err, vm.ErrMalformedParameters)
}

func TestV4SwapSentinels(t *testing.T) {
	f := newFixture(t)
	key := poolKey(tokenA, tokenB)
	f.v4Pool(key)

	// The router pays the manager out of its own balance, swaps the whole
	// credit and splits the output between bob and the caller.
	var list actions.List
	list.MustAdd(actions.SettleParams{Currency: tokenA, Amount: types.ContractBalance, PayerIsUser: false}).
		MustAdd(actions.SwapExactInSingleParams{Params: actions.ExactInputSingle{
			PoolKey:          key,
			ZeroForOne:       true,
			AmountIn:         types.OpenDelta,
			AmountOutMinimum: big.NewInt(996),
			HookData:         []byte{},
		}}).
		MustAdd(actions.TakePortionParams{Currency: tokenB, Recipient: bob, Bips: big.NewInt(5000)}).
		MustAdd(actions.TakeParams{Currency: tokenB, Recipient: types.MsgSender, Amount: types.OpenDelta})

	plan := vm.NewPlanner().Add(pull(tokenA, 1000)).Add(v4Swap(&list)).MustPlan()
	require.NoError(t, f.execute(plan))
	f.requireBalance(tokenA, router, 0)
	f.requireBalance(tokenB, bob, 498)
	f.requireBalance(tokenB, f.user, 1_000_000+498)
}

func TestV4SwapMultiHop(t *testing.T) {
	f := newFixture(t)
	f.v4Pool(poolKey(tokenA, tokenB))
	f.v4Pool(poolKey(tokenB, tokenC))

	// 1. Exact input A -> B -> C.
	var in actions.List
	in.MustAdd(actions.SwapExactInParams{Params: actions.ExactInput{
		CurrencyIn:       tokenA,
		Path:             []actions.PathKey{hop(tokenB), hop(tokenC)},
		AmountIn:         big.NewInt(1000),
		AmountOutMinimum: big.NewInt(992),
	}}).
		MustAdd(actions.SettleAllParams{Currency: tokenA, MaxAmount: big.NewInt(1000)}).
		MustAdd(actions.TakeAllParams{Currency: tokenC, MinAmount: big.NewInt(992)})
	require.NoError(t, f.execute(vm.NewPlanner().Add(v4Swap(&in)).MustPlan()))
	f.requireBalance(tokenA, f.user, 1_000_000-1000)
	f.requireBalance(tokenC, f.user, 1_000_000+992)

	// 2. Exact output of C, paid in A, on fresh pools.
	f = newFixture(t)
	f.v4Pool(poolKey(tokenA, tokenB))
	f.v4Pool(poolKey(tokenB, tokenC))
	out := func(maxIn int64) *actions.List {
		var list actions.List
		list.MustAdd(actions.SwapExactOutParams{Params: actions.ExactOutput{
			CurrencyOut:     tokenC,
			Path:            []actions.PathKey{hop(tokenA), hop(tokenB)},
			AmountOut:       big.NewInt(994),
			AmountInMaximum: big.NewInt(maxIn),
		}}).
			MustAdd(actions.SettleAllParams{Currency: tokenA, MaxAmount: big.NewInt(maxIn)}).
			MustAdd(actions.TakeAllParams{Currency: tokenC, MinAmount: big.NewInt(994)})
		return &list
	}
	require.ErrorIs(t, f.execute(vm.NewPlanner().Add(v4Swap(out(1002))).MustPlan()), actions.ErrV4TooMuchRequested)
	require.NoError(t, f.execute(vm.NewPlanner().Add(v4Swap(out(1003))).MustPlan()))
	f.requireBalance(tokenA, f.user, 1_000_000-1003)
	f.requireBalance(tokenB, f.user, 1_000_000)
	f.requireBalance(tokenC, f.user, 1_000_000+994)
}

func TestV4InitializePool(t *testing.T) {
	f := newFixture(t)
	key := poolKey(tokenA, tokenC)
	initialize := vm.V4InitializePoolParams{PoolKey: key, SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96)}

	require.NoError(t, f.execute(vm.NewPlanner().Add(initialize).MustPlan()))
	pool, ok := f.backend.PoolManager.Pool(key)
	require.True(t, ok)
	require.Equal(t, int64(0), pool.Tick.Int64())

	// A second initialization fails unless a revertible sub-plan carries it.
	require.ErrorIs(t, f.execute(vm.NewPlanner().Add(initialize).MustPlan()), simulated.ErrPoolAlreadyInitialized)
	require.NoError(t, f.execute(vm.NewPlanner().AddSubPlan(vm.NewPlanner().Add(initialize), true).MustPlan()))
}
