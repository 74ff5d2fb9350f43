package vm

import (
	"fmt"
)

// dispatch decodes one command and runs its handler. Every opcode is matched
// explicitly; an opcode without a case is an invalid command type.
func (r *Router) dispatch(f *frame, cmd Command) error {
	if !cmd.Op.Defined() {
		return fmt.Errorf("%w: 0x%02x", ErrInvalidCommandType, byte(cmd.Op))
	}
	if !r.rules.Supports(cmd.Op) {
		return fmt.Errorf("%w: %v", ErrVenueUnavailable, cmd.Op)
	}
	params, err := DecodeParams(cmd.Op, cmd.Input)
	if err != nil {
		return err
	}
	switch p := params.(type) {
	// Swaps
	case V3SwapExactInParams:
		return r.opV3SwapExactIn(f, p)
	case V3SwapExactOutParams:
		return r.opV3SwapExactOut(f, p)
	case V2SwapExactInParams:
		return r.opV2SwapExactIn(f, p)
	case V2SwapExactOutParams:
		return r.opV2SwapExactOut(f, p)
	case V4SwapParams:
		return r.opV4Swap(f, p)

	// Allowances
	case Permit2TransferFromParams:
		return r.opPermit2TransferFrom(f, p)
	case Permit2TransferFromBatchParams:
		return r.opPermit2TransferFromBatch(f, p)
	case Permit2PermitParams:
		return r.backends.Permit2.Permit(f.caller(), p.PermitSingle, p.Signature)
	case Permit2PermitBatchParams:
		return r.backends.Permit2.PermitBatch(f.caller(), p.PermitBatch, p.Signature)

	// Payments
	case SweepParams:
		return r.opSweep(f, p)
	case TransferParams:
		return r.opTransfer(f, p)
	case PayPortionParams:
		return r.opPayPortion(f, p)
	case WrapETHParams:
		return r.opWrapETH(f, p)
	case UnwrapWETHParams:
		return r.opUnwrapWETH(f, p)
	case BalanceCheckERC20Params:
		return r.opBalanceCheckERC20(f, p)

	// Positions and pools
	case V3PositionManagerPermitParams:
		return r.opV3PositionManagerPermit(f, p)
	case V3PositionManagerCallParams:
		return r.opV3PositionManagerCall(f, p)
	case V4InitializePoolParams:
		return r.opV4InitializePool(f, p)
	case V4PositionManagerCallParams:
		return r.opV4PositionManagerCall(f, p)

	// NFT marketplaces
	case SeaportV15Params:
		return r.callMarketplace(f, r.backends.Seaport, p.Value, p.Data)
	case LooksRareV2Params:
		return r.callMarketplace(f, r.backends.LooksRare, p.Value, p.Data)
	case X2Y2721Params:
		return r.opX2Y2721(f, p)
	case OwnerCheck721Params:
		return r.opOwnerCheck721(f, p)
	case SweepERC721Params:
		return r.opSweepERC721(f, p)

	// Nested plans
	case ExecuteSubPlanParams:
		return r.runSubPlan(f, p)
	}
	return fmt.Errorf("%w: %v", ErrInvalidCommandType, cmd.Op)
}
