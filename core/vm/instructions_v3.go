package vm

import (
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/ethereum/go-ethereum/common"
)

// opV3SwapExactIn swaps hop by hop. Intermediate outputs stay with the router,
// which then pays the next pool itself.
func (r *Router) opV3SwapExactIn(f *frame, p V3SwapExactInParams) error {
	path := v3Path(p.Path)
	if !path.valid() {
		return fmt.Errorf("%w: %d bytes", ErrV3InvalidPath, len(p.Path))
	}
	payer := r.payer(f, p.PayerIsUser)
	recipient := r.resolve(f, p.Recipient)
	amountIn := p.AmountIn
	if types.IsContractBalance(amountIn) {
		amountIn = r.balanceOf(path.firstToken(), r.address)
	}
	for {
		multiple := path.hasMultiplePools()
		to := recipient
		if multiple {
			to = r.address
		}
		tokenIn, fee, tokenOut := path.firstPool()
		hopPayer := payer
		_, out, err := r.backends.V3.Swap(V3Hop{TokenIn: tokenIn, TokenOut: tokenOut, Fee: fee}, to, amountIn, func(token, pool common.Address, amount *big.Int) error {
			return r.payOrPermit2Transfer(token, hopPayer, pool, amount)
		})
		if err != nil {
			return err
		}
		amountIn = out
		if !multiple {
			break
		}
		payer = r.address
		path = path.skipToken()
	}
	if amountIn.Cmp(p.AmountOutMin) < 0 {
		return fmt.Errorf("%w: got %v, min %v", ErrV3TooLittleReceived, amountIn, p.AmountOutMin)
	}
	return nil
}

// opV3SwapExactOut takes the path reversed. Each pool's payment callback
// runs the swap of the previous hop into that pool; the last callback pulls
// the input from the payer and enforces AmountInMax.
func (r *Router) opV3SwapExactOut(f *frame, p V3SwapExactOutParams) error {
	path := v3Path(p.Path)
	if !path.valid() {
		return fmt.Errorf("%w: %d bytes", ErrV3InvalidPath, len(p.Path))
	}
	_, err := r.v3ExactOutputHop(path, r.resolve(f, p.Recipient), p.AmountOut, r.payer(f, p.PayerIsUser), p.AmountInMax)
	return err
}

func (r *Router) v3ExactOutputHop(path v3Path, recipient common.Address, amountOut *big.Int, payer common.Address, maxIn *big.Int) (*big.Int, error) {
	tokenOut, fee, tokenIn := path.firstPool()
	in, out, err := r.backends.V3.Swap(V3Hop{TokenIn: tokenIn, TokenOut: tokenOut, Fee: fee}, recipient, new(big.Int).Neg(amountOut), func(token, pool common.Address, amount *big.Int) error {
		if path.hasMultiplePools() {
			_, err := r.v3ExactOutputHop(path.skipToken(), pool, amount, payer, maxIn)
			return err
		}
		if amount.Cmp(maxIn) > 0 {
			return fmt.Errorf("%w: need %v, max %v", ErrV3TooMuchRequested, amount, maxIn)
		}
		return r.payOrPermit2Transfer(token, payer, pool, amount)
	})
	if err != nil {
		return nil, err
	}
	if out.Cmp(amountOut) != 0 {
		return nil, fmt.Errorf("%w: received %v, want %v", ErrV3InvalidAmountOut, out, amountOut)
	}
	return in, nil
}
