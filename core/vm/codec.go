package vm

import (
	"fmt"

	"github.com/clydemeng/bsc-router/core/types"
)

type field = types.Field

var (
	permitDetailsComponents = []field{
		{Name: "token", Type: "address"},
		{Name: "amount", Type: "uint160"},
		{Name: "expiration", Type: "uint48"},
		{Name: "nonce", Type: "uint48"},
	}
	allowanceTransferComponents = []field{
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "amount", Type: "uint160"},
		{Name: "token", Type: "address"},
	}
	marketplaceFields = []field{
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	}
)

func swapFields(amountA, amountB, pathType string) []field {
	return []field{
		{Name: "recipient", Type: "address"},
		{Name: amountA, Type: "uint256"},
		{Name: amountB, Type: "uint256"},
		{Name: "path", Type: pathType},
		{Name: "payerIsUser", Type: "bool"},
	}
}

func schema(op OpCode, fields ...field) types.Schema {
	return types.MustNewSchema(op.String(), fields...)
}

// schemas is the parameter layout of every decodable opcode. Pass-through
// opcodes have no entry.
var schemas = map[OpCode]types.Schema{
	V3_SWAP_EXACT_IN:  schema(V3_SWAP_EXACT_IN, swapFields("amountIn", "amountOutMin", "bytes")...),
	V3_SWAP_EXACT_OUT: schema(V3_SWAP_EXACT_OUT, swapFields("amountOut", "amountInMax", "bytes")...),
	PERMIT2_TRANSFER_FROM: schema(PERMIT2_TRANSFER_FROM,
		field{Name: "token", Type: "address"},
		field{Name: "recipient", Type: "address"},
		field{Name: "amount", Type: "uint160"},
	),
	PERMIT2_PERMIT_BATCH: schema(PERMIT2_PERMIT_BATCH,
		field{Name: "permitBatch", Type: "tuple", Components: []field{
			{Name: "details", Type: "tuple[]", Components: permitDetailsComponents},
			{Name: "spender", Type: "address"},
			{Name: "sigDeadline", Type: "uint256"},
		}},
		field{Name: "signature", Type: "bytes"},
	),
	SWEEP: schema(SWEEP,
		field{Name: "token", Type: "address"},
		field{Name: "recipient", Type: "address"},
		field{Name: "amountMin", Type: "uint256"},
	),
	TRANSFER: schema(TRANSFER,
		field{Name: "token", Type: "address"},
		field{Name: "recipient", Type: "address"},
		field{Name: "value", Type: "uint256"},
	),
	PAY_PORTION: schema(PAY_PORTION,
		field{Name: "token", Type: "address"},
		field{Name: "recipient", Type: "address"},
		field{Name: "bips", Type: "uint256"},
	),
	V2_SWAP_EXACT_IN:  schema(V2_SWAP_EXACT_IN, swapFields("amountIn", "amountOutMin", "address[]")...),
	V2_SWAP_EXACT_OUT: schema(V2_SWAP_EXACT_OUT, swapFields("amountOut", "amountInMax", "address[]")...),
	PERMIT2_PERMIT: schema(PERMIT2_PERMIT,
		field{Name: "permitSingle", Type: "tuple", Components: []field{
			{Name: "details", Type: "tuple", Components: permitDetailsComponents},
			{Name: "spender", Type: "address"},
			{Name: "sigDeadline", Type: "uint256"},
		}},
		field{Name: "signature", Type: "bytes"},
	),
	WRAP_ETH: schema(WRAP_ETH,
		field{Name: "recipient", Type: "address"},
		field{Name: "amount", Type: "uint256"},
	),
	UNWRAP_WETH: schema(UNWRAP_WETH,
		field{Name: "recipient", Type: "address"},
		field{Name: "amountMin", Type: "uint256"},
	),
	PERMIT2_TRANSFER_FROM_BATCH: schema(PERMIT2_TRANSFER_FROM_BATCH,
		field{Name: "transfers", Type: "tuple[]", Components: allowanceTransferComponents},
	),
	BALANCE_CHECK_ERC20: schema(BALANCE_CHECK_ERC20,
		field{Name: "owner", Type: "address"},
		field{Name: "token", Type: "address"},
		field{Name: "minBalance", Type: "uint256"},
	),
	V4_SWAP: schema(V4_SWAP,
		field{Name: "actions", Type: "bytes"},
		field{Name: "params", Type: "bytes[]"},
	),
	V4_INITIALIZE_POOL: schema(V4_INITIALIZE_POOL,
		field{Name: "poolKey", Type: "tuple", Components: types.PoolKeyComponents},
		field{Name: "sqrtPriceX96", Type: "uint160"},
	),
	SEAPORT_V1_5:  schema(SEAPORT_V1_5, marketplaceFields...),
	LOOKS_RARE_V2: schema(LOOKS_RARE_V2, marketplaceFields...),
	X2Y2_721: schema(X2Y2_721, append(append([]field{}, marketplaceFields...),
		field{Name: "recipient", Type: "address"},
		field{Name: "token", Type: "address"},
		field{Name: "id", Type: "uint256"},
	)...),
	OWNER_CHECK_721: schema(OWNER_CHECK_721,
		field{Name: "owner", Type: "address"},
		field{Name: "token", Type: "address"},
		field{Name: "id", Type: "uint256"},
	),
	SWEEP_ERC721: schema(SWEEP_ERC721,
		field{Name: "token", Type: "address"},
		field{Name: "recipient", Type: "address"},
		field{Name: "id", Type: "uint256"},
	),
	EXECUTE_SUB_PLAN: schema(EXECUTE_SUB_PLAN,
		field{Name: "commands", Type: "bytes"},
		field{Name: "inputs", Type: "bytes[]"},
	),
}

// newParams returns a pointer to the zero params of op.
func newParams(op OpCode) (Params, bool) {
	switch op {
	case V3_SWAP_EXACT_IN:
		return new(V3SwapExactInParams), true
	case V3_SWAP_EXACT_OUT:
		return new(V3SwapExactOutParams), true
	case PERMIT2_TRANSFER_FROM:
		return new(Permit2TransferFromParams), true
	case PERMIT2_PERMIT_BATCH:
		return new(Permit2PermitBatchParams), true
	case SWEEP:
		return new(SweepParams), true
	case TRANSFER:
		return new(TransferParams), true
	case PAY_PORTION:
		return new(PayPortionParams), true
	case V2_SWAP_EXACT_IN:
		return new(V2SwapExactInParams), true
	case V2_SWAP_EXACT_OUT:
		return new(V2SwapExactOutParams), true
	case PERMIT2_PERMIT:
		return new(Permit2PermitParams), true
	case WRAP_ETH:
		return new(WrapETHParams), true
	case UNWRAP_WETH:
		return new(UnwrapWETHParams), true
	case PERMIT2_TRANSFER_FROM_BATCH:
		return new(Permit2TransferFromBatchParams), true
	case BALANCE_CHECK_ERC20:
		return new(BalanceCheckERC20Params), true
	case V4_SWAP:
		return new(V4SwapParams), true
	case V4_INITIALIZE_POOL:
		return new(V4InitializePoolParams), true
	case SEAPORT_V1_5:
		return new(SeaportV15Params), true
	case LOOKS_RARE_V2:
		return new(LooksRareV2Params), true
	case X2Y2_721:
		return new(X2Y2721Params), true
	case OWNER_CHECK_721:
		return new(OwnerCheck721Params), true
	case SWEEP_ERC721:
		return new(SweepERC721Params), true
	case EXECUTE_SUB_PLAN:
		return new(ExecuteSubPlanParams), true
	}
	return nil, false
}

// DecodeParams decodes the input of a command. Pass-through opcodes return
// their input untouched.
func DecodeParams(op OpCode, input []byte) (Params, error) {
	switch op {
	case V3_POSITION_MANAGER_PERMIT:
		return V3PositionManagerPermitParams{Calldata: input}, nil
	case V3_POSITION_MANAGER_CALL:
		return V3PositionManagerCallParams{Calldata: input}, nil
	case V4_POSITION_MANAGER_CALL:
		return V4PositionManagerCallParams{Calldata: input}, nil
	}
	out, ok := newParams(op)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommandType, op)
	}
	if err := schemas[op].Decode(input, out); err != nil {
		return nil, err
	}
	return deref(out), nil
}

// EncodeParams serialises p into the input blob of its opcode.
func EncodeParams(p Params) ([]byte, error) {
	switch p := p.(type) {
	case V3PositionManagerPermitParams:
		return p.Calldata, nil
	case V3PositionManagerCallParams:
		return p.Calldata, nil
	case V4PositionManagerCallParams:
		return p.Calldata, nil
	}
	s, ok := schemas[p.OpCode()]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommandType, p.OpCode())
	}
	return s.Encode(p)
}

func deref(p Params) Params {
	switch v := p.(type) {
	case *V3SwapExactInParams:
		return *v
	case *V3SwapExactOutParams:
		return *v
	case *Permit2TransferFromParams:
		return *v
	case *Permit2PermitBatchParams:
		return *v
	case *SweepParams:
		return *v
	case *TransferParams:
		return *v
	case *PayPortionParams:
		return *v
	case *V2SwapExactInParams:
		return *v
	case *V2SwapExactOutParams:
		return *v
	case *Permit2PermitParams:
		return *v
	case *WrapETHParams:
		return *v
	case *UnwrapWETHParams:
		return *v
	case *Permit2TransferFromBatchParams:
		return *v
	case *BalanceCheckERC20Params:
		return *v
	case *V4SwapParams:
		return *v
	case *V4InitializePoolParams:
		return *v
	case *SeaportV15Params:
		return *v
	case *LooksRareV2Params:
		return *v
	case *X2Y2721Params:
		return *v
	case *OwnerCheck721Params:
		return *v
	case *SweepERC721Params:
		return *v
	case *ExecuteSubPlanParams:
		return *v
	}
	return p
}
