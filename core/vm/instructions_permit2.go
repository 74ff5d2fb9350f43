package vm

import (
	"fmt"
)

func (r *Router) opPermit2TransferFrom(f *frame, p Permit2TransferFromParams) error {
	return r.backends.Permit2.TransferFrom(r.address, f.caller(), r.resolve(f, p.Recipient), p.Amount, p.Token)
}

// opPermit2TransferFromBatch only pulls from the caller's own account.
func (r *Router) opPermit2TransferFromBatch(f *frame, p Permit2TransferFromBatchParams) error {
	transfers := make([]AllowanceTransferDetails, len(p.Transfers))
	for i, t := range p.Transfers {
		if t.From != f.caller() {
			return fmt.Errorf("%w: transfer %d pulls from %s", ErrFromAddressIsNotOwner, i, t.From.Hex())
		}
		t.To = r.resolve(f, t.To)
		transfers[i] = t
	}
	return r.backends.Permit2.TransferFromBatch(r.address, transfers)
}
