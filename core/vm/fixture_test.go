package vm_test

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"testing"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/clydemeng/bsc-router/simulated"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, true)))
}

const now = 1_700_000_000

var (
	native = types.NativeCurrency
	tokenA = common.HexToAddress("0xaaaa000000000000000000000000000000000000")
	tokenB = common.HexToAddress("0xbbbb000000000000000000000000000000000000")
	tokenC = common.HexToAddress("0xcccc000000000000000000000000000000000000")
	nft    = common.HexToAddress("0x721a000000000000000000000000000000000000")
	bob    = common.HexToAddress("0xb0b0000000000000000000000000000000000000")
	router = simulated.RouterAddress

	reserve = big.NewInt(1_000_000)
)

// fixture is a funded user in front of a fully wired router.
type fixture struct {
	t       *testing.T
	backend *simulated.Backend
	state   *state.StateDB
	router  *vm.Router
	key     *ecdsa.PrivateKey
	user    common.Address
	events  []string
}

func newFixture(t *testing.T) *fixture {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	st := state.New()
	f := &fixture{
		t:       t,
		backend: simulated.NewBackend(st, now),
		state:   st,
		key:     key,
		user:    crypto.PubkeyToAddress(key.PublicKey),
	}
	// 1. Fund the user with native coin and every token.
	for _, asset := range []common.Address{native, tokenA, tokenB, tokenC} {
		require.NoError(t, st.AddBalance(asset, f.user, big.NewInt(1_000_000), tracing.BalanceChangeGenesis))
	}
	// 2. Let the router pull the tokens through the allowance service.
	for _, token := range []common.Address{tokenA, tokenB, tokenC} {
		f.backend.Permit2.Approve(f.user, token, router, simulated.MaxAllowance, now+3600)
	}
	// 3. Record every command the router runs.
	f.router = f.backend.NewRouter(vm.Config{Tracer: f.tracer()})
	return f
}

func (f *fixture) tracer() *tracing.Hooks {
	return &tracing.Hooks{
		OnCommandStart: func(depth, index int, op byte, allowRevert bool) {
			f.events = append(f.events, eventName(depth, index, vm.OpCode(op)))
		},
	}
}

func eventName(depth, index int, op vm.OpCode) string {
	return fmt.Sprintf("%d/%d %v", depth, index, op)
}

func (f *fixture) balance(asset, owner common.Address) *big.Int {
	return f.state.GetBalance(asset, owner)
}

func (f *fixture) requireBalance(asset, owner common.Address, want int64) {
	f.t.Helper()
	if have := f.balance(asset, owner); have.Cmp(big.NewInt(want)) != 0 {
		f.t.Fatalf("balance of %s in %s: have %v, want %d", owner.Hex(), asset.Hex(), have, want)
	}
}

func (f *fixture) execute(plan vm.Plan) error {
	return f.router.Execute(vm.CallContext{Caller: f.user, Time: now}, plan)
}

func (f *fixture) executeWithValue(plan vm.Plan, value int64) error {
	return f.router.Execute(vm.CallContext{Caller: f.user, Value: big.NewInt(value), Time: now}, plan)
}

// v2Pair seeds a constant-product pair with reserve of both tokens.
func (f *fixture) v2Pair(a, b common.Address) common.Address {
	pair, err := f.backend.V2.CreatePair(a, b, reserve, reserve)
	require.NoError(f.t, err)
	return pair
}

func (f *fixture) v3Pool(a, b common.Address, fee uint64) common.Address {
	pool, err := f.backend.V3.CreatePool(a, b, fee, reserve, reserve)
	require.NoError(f.t, err)
	return pool
}

func poolKey(a, b common.Address) types.PoolKey {
	c0, c1 := types.SortCurrencies(a, b)
	return types.PoolKey{Currency0: c0, Currency1: c1, Fee: big.NewInt(3000), TickSpacing: big.NewInt(60)}
}

// v4Pool initializes a pool at price one and has a liquidity provider add
// reserve of both currencies through the position manager.
func (f *fixture) v4Pool(key types.PoolKey) {
	_, err := f.backend.PoolManager.Initialize(key, new(big.Int).Lsh(big.NewInt(1), 96))
	require.NoError(f.t, err)

	lp := common.HexToAddress("0x1b00000000000000000000000000000000000000")
	for _, c := range []common.Address{key.Currency0, key.Currency1} {
		require.NoError(f.t, f.state.AddBalance(c, lp, reserve, tracing.BalanceChangeGenesis))
		f.backend.Permit2.Approve(lp, c, simulated.PositionManagerV4Address, simulated.MaxAllowance, now+3600)
	}
	var list actions.List
	list.MustAdd(actions.MintPositionParams{
		PoolKey:    key,
		TickLower:  big.NewInt(-600),
		TickUpper:  big.NewInt(600),
		Liquidity:  reserve,
		Amount0Max: reserve,
		Amount1Max: reserve,
		Owner:      lp,
		HookData:   []byte{},
	}).MustAdd(actions.SettlePairParams{Currency0: key.Currency0, Currency1: key.Currency1})
	require.NoError(f.t, f.backend.PositionManagerV4.ModifyLiquidities(lp, list))
}
