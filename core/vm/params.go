package vm

import (
	"math/big"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/ethereum/go-ethereum/common"
)

// Params is the decoded input of one command.
type Params interface {
	OpCode() OpCode
}

// PermitDetails is the per-token part of a signed allowance.
type PermitDetails struct {
	Token      common.Address
	Amount     *big.Int
	Expiration *big.Int
	Nonce      *big.Int
}

// PermitSingle is a signed allowance for one token.
type PermitSingle struct {
	Details     PermitDetails
	Spender     common.Address
	SigDeadline *big.Int
}

// PermitBatch is a signed allowance for several tokens.
type PermitBatch struct {
	Details     []PermitDetails
	Spender     common.Address
	SigDeadline *big.Int
}

// AllowanceTransferDetails is one pull of a batched allowance transfer.
type AllowanceTransferDetails struct {
	From   common.Address
	To     common.Address
	Amount *big.Int
	Token  common.Address
}

type (
	V3SwapExactInParams struct {
		Recipient    common.Address
		AmountIn     *big.Int
		AmountOutMin *big.Int
		Path         []byte
		PayerIsUser  bool
	}
	V3SwapExactOutParams struct {
		Recipient   common.Address
		AmountOut   *big.Int
		AmountInMax *big.Int
		Path        []byte
		PayerIsUser bool
	}
	Permit2TransferFromParams struct {
		Token     common.Address
		Recipient common.Address
		Amount    *big.Int
	}
	Permit2PermitBatchParams struct {
		PermitBatch PermitBatch
		Signature   []byte
	}
	SweepParams struct {
		Token     common.Address
		Recipient common.Address
		AmountMin *big.Int
	}
	TransferParams struct {
		Token     common.Address
		Recipient common.Address
		Value     *big.Int
	}
	PayPortionParams struct {
		Token     common.Address
		Recipient common.Address
		Bips      *big.Int
	}
	V2SwapExactInParams struct {
		Recipient    common.Address
		AmountIn     *big.Int
		AmountOutMin *big.Int
		Path         []common.Address
		PayerIsUser  bool
	}
	V2SwapExactOutParams struct {
		Recipient   common.Address
		AmountOut   *big.Int
		AmountInMax *big.Int
		Path        []common.Address
		PayerIsUser bool
	}
	Permit2PermitParams struct {
		PermitSingle PermitSingle
		Signature    []byte
	}
	WrapETHParams struct {
		Recipient common.Address
		Amount    *big.Int
	}
	UnwrapWETHParams struct {
		Recipient common.Address
		AmountMin *big.Int
	}
	Permit2TransferFromBatchParams struct {
		Transfers []AllowanceTransferDetails
	}
	BalanceCheckERC20Params struct {
		Owner      common.Address
		Token      common.Address
		MinBalance *big.Int
	}
	V4SwapParams struct {
		Actions []byte
		Params  [][]byte
	}
	V3PositionManagerPermitParams struct {
		Calldata []byte
	}
	V3PositionManagerCallParams struct {
		Calldata []byte
	}
	V4InitializePoolParams struct {
		PoolKey      types.PoolKey
		SqrtPriceX96 *big.Int
	}
	V4PositionManagerCallParams struct {
		Calldata []byte
	}
	SeaportV15Params struct {
		Value *big.Int
		Data  []byte
	}
	LooksRareV2Params struct {
		Value *big.Int
		Data  []byte
	}
	X2Y2721Params struct {
		Value     *big.Int
		Data      []byte
		Recipient common.Address
		Token     common.Address
		ID        *big.Int `abi:"id"`
	}
	OwnerCheck721Params struct {
		Owner common.Address
		Token common.Address
		ID    *big.Int `abi:"id"`
	}
	SweepERC721Params struct {
		Token     common.Address
		Recipient common.Address
		ID        *big.Int `abi:"id"`
	}
	ExecuteSubPlanParams struct {
		Commands []byte
		Inputs   [][]byte
	}
)

func (V3SwapExactInParams) OpCode() OpCode            { return V3_SWAP_EXACT_IN }
func (V3SwapExactOutParams) OpCode() OpCode           { return V3_SWAP_EXACT_OUT }
func (Permit2TransferFromParams) OpCode() OpCode      { return PERMIT2_TRANSFER_FROM }
func (Permit2PermitBatchParams) OpCode() OpCode       { return PERMIT2_PERMIT_BATCH }
func (SweepParams) OpCode() OpCode                    { return SWEEP }
func (TransferParams) OpCode() OpCode                 { return TRANSFER }
func (PayPortionParams) OpCode() OpCode               { return PAY_PORTION }
func (V2SwapExactInParams) OpCode() OpCode            { return V2_SWAP_EXACT_IN }
func (V2SwapExactOutParams) OpCode() OpCode           { return V2_SWAP_EXACT_OUT }
func (Permit2PermitParams) OpCode() OpCode            { return PERMIT2_PERMIT }
func (WrapETHParams) OpCode() OpCode                  { return WRAP_ETH }
func (UnwrapWETHParams) OpCode() OpCode               { return UNWRAP_WETH }
func (Permit2TransferFromBatchParams) OpCode() OpCode { return PERMIT2_TRANSFER_FROM_BATCH }
func (BalanceCheckERC20Params) OpCode() OpCode        { return BALANCE_CHECK_ERC20 }
func (V4SwapParams) OpCode() OpCode                   { return V4_SWAP }
func (V3PositionManagerPermitParams) OpCode() OpCode  { return V3_POSITION_MANAGER_PERMIT }
func (V3PositionManagerCallParams) OpCode() OpCode    { return V3_POSITION_MANAGER_CALL }
func (V4InitializePoolParams) OpCode() OpCode         { return V4_INITIALIZE_POOL }
func (V4PositionManagerCallParams) OpCode() OpCode    { return V4_POSITION_MANAGER_CALL }
func (SeaportV15Params) OpCode() OpCode               { return SEAPORT_V1_5 }
func (LooksRareV2Params) OpCode() OpCode              { return LOOKS_RARE_V2 }
func (X2Y2721Params) OpCode() OpCode                  { return X2Y2_721 }
func (OwnerCheck721Params) OpCode() OpCode            { return OWNER_CHECK_721 }
func (SweepERC721Params) OpCode() OpCode              { return SWEEP_ERC721 }
func (ExecuteSubPlanParams) OpCode() OpCode           { return EXECUTE_SUB_PLAN }
