package vm

import (
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/ethereum/go-ethereum/common"
)

func checkV2Path(path []common.Address) error {
	if len(path) < 2 {
		return fmt.Errorf("%w: %d tokens", ErrV2InvalidPath, len(path))
	}
	return nil
}

// opV2SwapExactIn funds the first pair unless the input was already moved
// there by an earlier command (AlreadyPaid), then swaps along the path and
// checks what the recipient received.
func (r *Router) opV2SwapExactIn(f *frame, p V2SwapExactInParams) error {
	if err := checkV2Path(p.Path); err != nil {
		return err
	}
	v2 := r.backends.V2
	firstPair, err := v2.PairFor(p.Path[0], p.Path[1])
	if err != nil {
		return err
	}
	if p.AmountIn.Cmp(types.AlreadyPaid) != 0 {
		if err := r.payOrPermit2Transfer(p.Path[0], r.payer(f, p.PayerIsUser), firstPair, p.AmountIn); err != nil {
			return err
		}
	}
	recipient := r.resolve(f, p.Recipient)
	tokenOut := p.Path[len(p.Path)-1]
	before := r.balanceOf(tokenOut, recipient)
	if err := v2.Swap(p.Path, recipient); err != nil {
		return err
	}
	amountOut := new(big.Int).Sub(r.balanceOf(tokenOut, recipient), before)
	if amountOut.Cmp(p.AmountOutMin) < 0 {
		return fmt.Errorf("%w: got %v, min %v", ErrV2TooLittleReceived, amountOut, p.AmountOutMin)
	}
	return nil
}

func (r *Router) opV2SwapExactOut(f *frame, p V2SwapExactOutParams) error {
	if err := checkV2Path(p.Path); err != nil {
		return err
	}
	v2 := r.backends.V2
	amountIn, err := v2.GetAmountIn(p.AmountOut, p.Path)
	if err != nil {
		return err
	}
	if amountIn.Cmp(p.AmountInMax) > 0 {
		return fmt.Errorf("%w: need %v, max %v", ErrV2TooMuchRequested, amountIn, p.AmountInMax)
	}
	firstPair, err := v2.PairFor(p.Path[0], p.Path[1])
	if err != nil {
		return err
	}
	if err := r.payOrPermit2Transfer(p.Path[0], r.payer(f, p.PayerIsUser), firstPair, amountIn); err != nil {
		return err
	}
	return v2.Swap(p.Path, r.resolve(f, p.Recipient))
}
