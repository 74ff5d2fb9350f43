package vm

import (
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/tracing"
)

// callMarketplace sends value from the router to the marketplace and makes
// the raw call.
func (r *Router) callMarketplace(f *frame, m Marketplace, value *big.Int, data []byte) error {
	if value.Sign() > 0 {
		if err := r.state.Transfer(types.NativeCurrency, r.address, m.Address(), value, tracing.BalanceChangeMarketplace); err != nil {
			return fmt.Errorf("%w: %v", ErrInsufficientETH, err)
		}
	}
	return m.Call(CallMetadata{From: r.address, To: m.Address(), Data: data, Value: value})
}

// opX2Y2721 buys into the router, then delivers the token to the recipient.
func (r *Router) opX2Y2721(f *frame, p X2Y2721Params) error {
	if err := r.callMarketplace(f, r.backends.X2Y2, p.Value, p.Data); err != nil {
		return err
	}
	return r.state.TransferNFT(p.Token, r.address, r.resolve(f, p.Recipient), p.ID)
}

func (r *Router) opOwnerCheck721(f *frame, p OwnerCheck721Params) error {
	owner := r.resolve(f, p.Owner)
	if actual := r.state.OwnerOf(p.Token, p.ID); actual != owner {
		return fmt.Errorf("%w: token %v is held by %s, not %s", ErrInvalidOwnerERC721, p.ID, actual.Hex(), owner.Hex())
	}
	return nil
}

func (r *Router) opSweepERC721(f *frame, p SweepERC721Params) error {
	return r.state.TransferNFT(p.Token, r.address, r.resolve(f, p.Recipient), p.ID)
}
