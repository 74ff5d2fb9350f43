package simulated

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrAlreadyUnlocked             = errors.New("pool manager already unlocked")
	ErrManagerLocked               = errors.New("pool manager locked")
	ErrCurrencyNotSettled          = errors.New("currency not settled")
	ErrPoolAlreadyInitialized      = errors.New("pool already initialized")
	ErrPoolNotInitialized          = errors.New("pool not initialized")
	ErrSwapAmountCannotBeZero      = errors.New("swap amount cannot be zero")
	ErrInvalidTickRange            = errors.New("invalid tick range")
	ErrNotSynced                   = errors.New("no currency synced")
	ErrMustClearExactPositiveDelta = errors.New("must clear exact positive delta")
	ErrInvalidSqrtPrice            = errors.New("invalid sqrt price")
)

// q96 is the fixed point unit of sqrtPriceX96.
var q96 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

// PoolState is the record of an initialized pool. Reserves are virtual: the
// manager holds every pool's tokens in one balance.
type PoolState struct {
	Key          types.PoolKey
	SqrtPriceX96 *big.Int
	Tick         *big.Int
	Reserve0     *big.Int
	Reserve1     *big.Int
}

// PoolManager is a singleton pool manager. Pools and positions are records of
// the manager's address; a session's deltas live only as long as the session.
// Liquidity is priced one to one: adding L liquidity costs L of each currency.
type PoolManager struct {
	address common.Address
	state   *state.StateDB
	active  *session
}

func NewPoolManager(address common.Address, st *state.StateDB) *PoolManager {
	return &PoolManager{address: address, state: st}
}

func (m *PoolManager) Address() common.Address { return m.address }

// Pool returns the state of the pool under key.
func (m *PoolManager) Pool(key types.PoolKey) (PoolState, bool) {
	v, ok := m.state.GetRecord(m.address, key.ID())
	if !ok {
		return PoolState{}, false
	}
	return v.(PoolState), true
}

// Reserves returns the virtual reserves of the pool under key.
func (m *PoolManager) Reserves(key types.PoolKey) (*big.Int, *big.Int, error) {
	pool, ok := m.Pool(key)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", ErrPoolNotInitialized, key.ID())
	}
	return new(big.Int).Set(pool.Reserve0), new(big.Int).Set(pool.Reserve1), nil
}

// Initialize creates the pool under key and returns its starting tick.
func (m *PoolManager) Initialize(key types.PoolKey, sqrtPriceX96 *big.Int) (*big.Int, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if _, ok := m.Pool(key); ok {
		return nil, fmt.Errorf("%w: %v", ErrPoolAlreadyInitialized, key.ID())
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSqrtPrice, sqrtPriceX96)
	}
	tick := tickAt(sqrtPriceX96)
	m.state.SetRecord(m.address, key.ID(), PoolState{
		Key:          key,
		SqrtPriceX96: new(big.Int).Set(sqrtPriceX96),
		Tick:         tick,
		Reserve0:     new(big.Int),
		Reserve1:     new(big.Int),
	})
	log.Debug("Initialized pool", "id", key.ID(), "key", key, "tick", tick)
	return tick, nil
}

// tickAt is floor(log_1.0001(price)) for the given square root price.
func tickAt(sqrtPriceX96 *big.Int) *big.Int {
	ratio, _ := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96).Float64()
	return big.NewInt(int64(math.Floor(2 * math.Log(ratio) / math.Log(1.0001))))
}

// Unlock opens a session for locker. Everything the session did is rolled
// back when callback fails or leaves a currency unsettled.
func (m *PoolManager) Unlock(locker common.Address, callback func(actions.Session) error) error {
	if m.active != nil {
		return ErrAlreadyUnlocked
	}
	s := &session{manager: m, locker: locker, deltas: make(map[common.Address]*big.Int)}
	m.active = s
	snapshot := m.state.Snapshot()

	err := callback(s)
	if err == nil {
		if open := s.nonzero(); len(open) > 0 {
			err = fmt.Errorf("%w: %d open deltas, first %s", ErrCurrencyNotSettled, len(open), open[0].Hex())
		}
	}
	m.active = nil
	if err != nil {
		m.state.RevertToSnapshot(snapshot)
		log.Debug("Session rolled back", "locker", locker, "err", err)
	}
	return err
}

// session is one unlock of the manager.
type session struct {
	manager *PoolManager
	locker  common.Address
	deltas  map[common.Address]*big.Int
	order   []common.Address

	synced        *common.Address
	syncedReserve *big.Int
}

func (s *session) check() error {
	if s.manager.active != s {
		return ErrManagerLocked
	}
	return nil
}

func (s *session) account(currency common.Address, delta *big.Int) {
	cur, ok := s.deltas[currency]
	if !ok {
		cur = new(big.Int)
		s.order = append(s.order, currency)
	}
	s.deltas[currency] = new(big.Int).Add(cur, delta)
}

func (s *session) nonzero() []common.Address {
	var open []common.Address
	for _, c := range s.order {
		if s.deltas[c].Sign() != 0 {
			open = append(open, c)
		}
	}
	return open
}

func (s *session) CurrencyDelta(currency common.Address) *big.Int {
	if d, ok := s.deltas[currency]; ok {
		return new(big.Int).Set(d)
	}
	return new(big.Int)
}

func (s *session) Swap(key types.PoolKey, zeroForOne bool, amountSpecified *big.Int, hookData []byte) (*big.Int, *big.Int, error) {
	if err := s.check(); err != nil {
		return nil, nil, err
	}
	m := s.manager
	pool, ok := m.Pool(key)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", ErrPoolNotInitialized, key.ID())
	}
	if amountSpecified.Sign() == 0 {
		return nil, nil, ErrSwapAmountCannotBeZero
	}
	rIn, rOut := pool.Reserve0, pool.Reserve1
	if !zeroForOne {
		rIn, rOut = rOut, rIn
	}
	var (
		in, out *big.Int
		err     error
	)
	fee := key.Fee.Uint64()
	if amountSpecified.Sign() < 0 {
		in = new(big.Int).Neg(amountSpecified)
		out, err = getAmountOut(in, rIn, rOut, fee)
	} else {
		out = amountSpecified
		in, err = getAmountIn(out, rIn, rOut, fee)
	}
	if err != nil {
		return nil, nil, err
	}
	rIn, rOut = new(big.Int).Add(rIn, in), new(big.Int).Sub(rOut, out)
	delta0, delta1 := new(big.Int).Neg(in), new(big.Int).Set(out)
	if zeroForOne {
		pool.Reserve0, pool.Reserve1 = rIn, rOut
	} else {
		pool.Reserve0, pool.Reserve1 = rOut, rIn
		delta0, delta1 = delta1, delta0
	}
	m.state.SetRecord(m.address, key.ID(), pool)
	s.account(key.Currency0, delta0)
	s.account(key.Currency1, delta1)
	return delta0, delta1, nil
}

func positionKey(owner common.Address, tickLower, tickUpper *big.Int, salt, poolID common.Hash) common.Hash {
	return state.RecordKey(owner.Bytes(), []byte(tickLower.String()), []byte(tickUpper.String()), salt.Bytes(), poolID.Bytes())
}

// PositionLiquidity returns the liquidity owner holds in the given range.
func (m *PoolManager) PositionLiquidity(key types.PoolKey, owner common.Address, tickLower, tickUpper *big.Int, salt common.Hash) *big.Int {
	if v, ok := m.state.GetRecord(m.address, positionKey(owner, tickLower, tickUpper, salt, key.ID())); ok {
		return new(big.Int).Set(v.(*big.Int))
	}
	return new(big.Int)
}

func (s *session) ModifyLiquidity(key types.PoolKey, tickLower, tickUpper, liquidityDelta *big.Int, salt common.Hash, hookData []byte) (*big.Int, *big.Int, error) {
	if err := s.check(); err != nil {
		return nil, nil, err
	}
	m := s.manager
	pool, ok := m.Pool(key)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", ErrPoolNotInitialized, key.ID())
	}
	if tickLower.Cmp(tickUpper) >= 0 {
		return nil, nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidTickRange, tickLower, tickUpper)
	}
	held := m.PositionLiquidity(key, s.locker, tickLower, tickUpper, salt)
	next := new(big.Int).Add(held, liquidityDelta)
	if next.Sign() < 0 {
		return nil, nil, fmt.Errorf("%w: position holds %v", ErrInsufficientLiquidity, held)
	}
	pool.Reserve0 = new(big.Int).Add(pool.Reserve0, liquidityDelta)
	pool.Reserve1 = new(big.Int).Add(pool.Reserve1, liquidityDelta)
	if pool.Reserve0.Sign() < 0 || pool.Reserve1.Sign() < 0 {
		return nil, nil, ErrInsufficientLiquidity
	}
	m.state.SetRecord(m.address, key.ID(), pool)
	m.state.SetRecord(m.address, positionKey(s.locker, tickLower, tickUpper, salt, key.ID()), next)

	delta := new(big.Int).Neg(liquidityDelta)
	s.account(key.Currency0, delta)
	s.account(key.Currency1, delta)
	return new(big.Int).Set(delta), new(big.Int).Set(delta), nil
}

func (s *session) Sync(currency common.Address) error {
	if err := s.check(); err != nil {
		return err
	}
	c := currency
	s.synced = &c
	s.syncedReserve = s.manager.state.GetBalance(currency, s.manager.address)
	return nil
}

// Settle credits the locker with whatever the synced currency received since
// Sync.
func (s *session) Settle() (*big.Int, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.synced == nil {
		return nil, ErrNotSynced
	}
	currency := *s.synced
	paid := new(big.Int).Sub(s.manager.state.GetBalance(currency, s.manager.address), s.syncedReserve)
	s.synced, s.syncedReserve = nil, nil
	s.account(currency, paid)
	return paid, nil
}

func (s *session) Take(currency, to common.Address, amount *big.Int) error {
	if err := s.check(); err != nil {
		return err
	}
	s.account(currency, new(big.Int).Neg(amount))
	return s.manager.state.Transfer(currency, s.manager.address, to, amount, tracing.BalanceChangeTake)
}

func (s *session) Clear(currency common.Address, amount *big.Int) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.CurrencyDelta(currency).Cmp(amount) != 0 {
		return fmt.Errorf("%w: delta %v, clear %v", ErrMustClearExactPositiveDelta, s.CurrencyDelta(currency), amount)
	}
	s.account(currency, new(big.Int).Neg(amount))
	return nil
}
