package simulated

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrPoolNotFound is returned for token pairs and fees without a pool.
var ErrPoolNotFound = errors.New("pool not found")

var deployedKey = state.RecordKey([]byte("deployed"))

// V3Factory deploys fee-tiered pools priced on their balances. A swap sends
// its output first and then asks the caller to pay through the callback.
type V3Factory struct {
	state *state.StateDB
}

func NewV3Factory(st *state.StateDB) *V3Factory {
	return &V3Factory{state: st}
}

func poolAddress(token0, token1 common.Address, fee uint64) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("v3"), token0.Bytes(), token1.Bytes(), new(big.Int).SetUint64(fee).Bytes()))
}

// CreatePool deploys a pool seeded with the given amounts. Fee is in
// hundredths of a bip.
func (f *V3Factory) CreatePool(tokenA, tokenB common.Address, fee uint64, amountA, amountB *big.Int) (common.Address, error) {
	t0, t1 := types.SortCurrencies(tokenA, tokenB)
	pool := poolAddress(t0, t1, fee)
	if _, ok := f.state.GetRecord(pool, deployedKey); ok {
		return common.Address{}, fmt.Errorf("pool %s/%s/%d exists", t0.Hex(), t1.Hex(), fee)
	}
	f.state.SetRecord(pool, deployedKey, fee)
	if err := f.state.AddBalance(tokenA, pool, amountA, tracing.BalanceChangeMint); err != nil {
		return common.Address{}, err
	}
	if err := f.state.AddBalance(tokenB, pool, amountB, tracing.BalanceChangeMint); err != nil {
		return common.Address{}, err
	}
	return pool, nil
}

func (f *V3Factory) PoolFor(tokenA, tokenB common.Address, fee *big.Int) (common.Address, error) {
	t0, t1 := types.SortCurrencies(tokenA, tokenB)
	pool := poolAddress(t0, t1, fee.Uint64())
	if _, ok := f.state.GetRecord(pool, deployedKey); !ok {
		return common.Address{}, fmt.Errorf("%w: %s/%s fee %v", ErrPoolNotFound, t0.Hex(), t1.Hex(), fee)
	}
	return pool, nil
}

func (f *V3Factory) Swap(hop vm.V3Hop, recipient common.Address, amountSpecified *big.Int, pay vm.PayFunc) (*big.Int, *big.Int, error) {
	pool, err := f.PoolFor(hop.TokenIn, hop.TokenOut, hop.Fee)
	if err != nil {
		return nil, nil, err
	}
	rIn := f.state.GetBalance(hop.TokenIn, pool)
	rOut := f.state.GetBalance(hop.TokenOut, pool)
	fee := hop.Fee.Uint64()

	var in, out *big.Int
	if amountSpecified.Sign() > 0 {
		in = amountSpecified
		out, err = getAmountOut(in, rIn, rOut, fee)
	} else {
		out = new(big.Int).Neg(amountSpecified)
		in, err = getAmountIn(out, rIn, rOut, fee)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := f.state.Transfer(hop.TokenOut, pool, recipient, out, tracing.BalanceChangeSwap); err != nil {
		return nil, nil, err
	}
	if err := pay(hop.TokenIn, pool, in); err != nil {
		return nil, nil, err
	}
	if paid := new(big.Int).Sub(f.state.GetBalance(hop.TokenIn, pool), rIn); paid.Cmp(in) < 0 {
		return nil, nil, fmt.Errorf("%w: paid %v, owed %v", ErrInsufficientInputAmount, paid, in)
	}
	return in, out, nil
}
