package simulated

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrPairNotFound is returned for token pairs without a deployed pair.
var ErrPairNotFound = errors.New("pair not found")

// v2Fee is the 0.3% pair fee.
const v2Fee = 3000

var reservesKey = state.RecordKey([]byte("reserves"))

// reserves are the last synced balances of a pair, in sorted token order.
type reserves struct {
	Reserve0, Reserve1 *big.Int
}

// V2Factory deploys constant-product pairs. A swap reads its input as the
// pair's balance above the last synced reserve. Pairs live at deterministic
// addresses and exist once their reserves are recorded.
type V2Factory struct {
	state *state.StateDB
}

func NewV2Factory(st *state.StateDB) *V2Factory {
	return &V2Factory{state: st}
}

func pairAddress(token0, token1 common.Address) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("v2"), token0.Bytes(), token1.Bytes()))
}

// CreatePair deploys the pair of tokenA and tokenB seeded with the given
// amounts.
func (f *V2Factory) CreatePair(tokenA, tokenB common.Address, amountA, amountB *big.Int) (common.Address, error) {
	t0, t1 := types.SortCurrencies(tokenA, tokenB)
	pair := pairAddress(t0, t1)
	if _, ok := f.state.GetRecord(pair, reservesKey); ok {
		return common.Address{}, fmt.Errorf("pair %s/%s exists", t0.Hex(), t1.Hex())
	}
	if err := f.state.AddBalance(tokenA, pair, amountA, tracing.BalanceChangeMint); err != nil {
		return common.Address{}, err
	}
	if err := f.state.AddBalance(tokenB, pair, amountB, tracing.BalanceChangeMint); err != nil {
		return common.Address{}, err
	}
	f.sync(pair, t0, t1)
	return pair, nil
}

func (f *V2Factory) PairFor(tokenA, tokenB common.Address) (common.Address, error) {
	t0, t1 := types.SortCurrencies(tokenA, tokenB)
	pair := pairAddress(t0, t1)
	if _, ok := f.state.GetRecord(pair, reservesKey); !ok {
		return common.Address{}, fmt.Errorf("%w: %s/%s", ErrPairNotFound, t0.Hex(), t1.Hex())
	}
	return pair, nil
}

// GetReserves returns the reserves of the pair in (tokenIn, tokenOut) order.
func (f *V2Factory) GetReserves(tokenIn, tokenOut common.Address) (common.Address, *big.Int, *big.Int, error) {
	pair, err := f.PairFor(tokenIn, tokenOut)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	r := reserves{Reserve0: new(big.Int), Reserve1: new(big.Int)}
	if v, ok := f.state.GetRecord(pair, reservesKey); ok {
		r = v.(reserves)
	}
	if t0, _ := types.SortCurrencies(tokenIn, tokenOut); t0 == tokenIn {
		return pair, r.Reserve0, r.Reserve1, nil
	}
	return pair, r.Reserve1, r.Reserve0, nil
}

func (f *V2Factory) sync(pair, token0, token1 common.Address) {
	f.state.SetRecord(pair, reservesKey, reserves{
		Reserve0: f.state.GetBalance(token0, pair),
		Reserve1: f.state.GetBalance(token1, pair),
	})
}

// GetAmountIn walks path backwards from amountOut.
func (f *V2Factory) GetAmountIn(amountOut *big.Int, path []common.Address) (*big.Int, error) {
	amount := amountOut
	for i := len(path) - 1; i > 0; i-- {
		_, rIn, rOut, err := f.GetReserves(path[i-1], path[i])
		if err != nil {
			return nil, err
		}
		if amount, err = getAmountIn(amount, rIn, rOut, v2Fee); err != nil {
			return nil, err
		}
	}
	return amount, nil
}

// Swap runs every hop of path. Each pair prices whatever it received since
// its last sync.
func (f *V2Factory) Swap(path []common.Address, recipient common.Address) error {
	for i := 0; i < len(path)-1; i++ {
		tokenIn, tokenOut := path[i], path[i+1]
		pair, rIn, rOut, err := f.GetReserves(tokenIn, tokenOut)
		if err != nil {
			return err
		}
		amountIn := new(big.Int).Sub(f.state.GetBalance(tokenIn, pair), rIn)
		amountOut, err := getAmountOut(amountIn, rIn, rOut, v2Fee)
		if err != nil {
			return err
		}
		to := recipient
		if i < len(path)-2 {
			if to, err = f.PairFor(tokenOut, path[i+2]); err != nil {
				return err
			}
		}
		if err := f.state.Transfer(tokenOut, pair, to, amountOut, tracing.BalanceChangeSwap); err != nil {
			return err
		}
		t0, t1 := types.SortCurrencies(tokenIn, tokenOut)
		f.sync(pair, t0, t1)
	}
	return nil
}
