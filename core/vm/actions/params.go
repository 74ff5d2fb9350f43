package actions

import (
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/ethereum/go-ethereum/common"
)

// Params is the decoded argument set of one action.
type Params interface {
	Action() Action
}

// PathKey is one hop of a multi-hop swap.
type PathKey struct {
	IntermediateCurrency common.Address
	Fee                  *big.Int
	TickSpacing          *big.Int
	Hooks                common.Address
	HookData             []byte
}

// ExactInputSingle describes a single-pool exact-input swap.
type ExactInputSingle struct {
	PoolKey          types.PoolKey
	ZeroForOne       bool
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
	HookData         []byte
}

// ExactInput describes a multi-hop exact-input swap.
type ExactInput struct {
	CurrencyIn       common.Address
	Path             []PathKey
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

// ExactOutputSingle describes a single-pool exact-output swap.
type ExactOutputSingle struct {
	PoolKey         types.PoolKey
	ZeroForOne      bool
	AmountOut       *big.Int
	AmountInMaximum *big.Int
	HookData        []byte
}

// ExactOutput describes a multi-hop exact-output swap. Path is ordered from
// the input side towards CurrencyOut.
type ExactOutput struct {
	CurrencyOut     common.Address
	Path            []PathKey
	AmountOut       *big.Int
	AmountInMaximum *big.Int
}

type (
	IncreaseLiquidityParams struct {
		TokenID    *big.Int `abi:"tokenId"`
		Liquidity  *big.Int
		Amount0Max *big.Int
		Amount1Max *big.Int
		HookData   []byte
	}
	DecreaseLiquidityParams struct {
		TokenID    *big.Int `abi:"tokenId"`
		Liquidity  *big.Int
		Amount0Min *big.Int
		Amount1Min *big.Int
		HookData   []byte
	}
	MintPositionParams struct {
		PoolKey    types.PoolKey
		TickLower  *big.Int
		TickUpper  *big.Int
		Liquidity  *big.Int
		Amount0Max *big.Int
		Amount1Max *big.Int
		Owner      common.Address
		HookData   []byte
	}
	BurnPositionParams struct {
		TokenID    *big.Int `abi:"tokenId"`
		Amount0Min *big.Int
		Amount1Min *big.Int
		HookData   []byte
	}
	SwapExactInSingleParams struct {
		Params ExactInputSingle
	}
	SwapExactInParams struct {
		Params ExactInput
	}
	SwapExactOutSingleParams struct {
		Params ExactOutputSingle
	}
	SwapExactOutParams struct {
		Params ExactOutput
	}
	SettleParams struct {
		Currency    common.Address
		Amount      *big.Int
		PayerIsUser bool
	}
	SettleAllParams struct {
		Currency  common.Address
		MaxAmount *big.Int
	}
	SettlePairParams struct {
		Currency0 common.Address
		Currency1 common.Address
	}
	TakeParams struct {
		Currency  common.Address
		Recipient common.Address
		Amount    *big.Int
	}
	TakeAllParams struct {
		Currency  common.Address
		MinAmount *big.Int
	}
	TakePortionParams struct {
		Currency  common.Address
		Recipient common.Address
		Bips      *big.Int
	}
	TakePairParams struct {
		Currency0 common.Address
		Currency1 common.Address
		Recipient common.Address
	}
	CloseCurrencyParams struct {
		Currency common.Address
	}
	ClearOrTakeParams struct {
		Currency  common.Address
		AmountMax *big.Int
	}
	SweepParams struct {
		Currency  common.Address
		Recipient common.Address
	}
	SettleWithBalanceParams struct {
		Currency common.Address
	}
)

func (IncreaseLiquidityParams) Action() Action  { return INCREASE_LIQUIDITY }
func (DecreaseLiquidityParams) Action() Action  { return DECREASE_LIQUIDITY }
func (MintPositionParams) Action() Action       { return MINT_POSITION }
func (BurnPositionParams) Action() Action       { return BURN_POSITION }
func (SwapExactInSingleParams) Action() Action  { return SWAP_EXACT_IN_SINGLE }
func (SwapExactInParams) Action() Action        { return SWAP_EXACT_IN }
func (SwapExactOutSingleParams) Action() Action { return SWAP_EXACT_OUT_SINGLE }
func (SwapExactOutParams) Action() Action       { return SWAP_EXACT_OUT }
func (SettleParams) Action() Action             { return SETTLE }
func (SettleAllParams) Action() Action          { return SETTLE_ALL }
func (SettlePairParams) Action() Action         { return SETTLE_PAIR }
func (TakeParams) Action() Action               { return TAKE }
func (TakeAllParams) Action() Action            { return TAKE_ALL }
func (TakePortionParams) Action() Action        { return TAKE_PORTION }
func (TakePairParams) Action() Action           { return TAKE_PAIR }
func (CloseCurrencyParams) Action() Action      { return CLOSE_CURRENCY }
func (ClearOrTakeParams) Action() Action        { return CLEAR_OR_TAKE }
func (SweepParams) Action() Action              { return SWEEP }
func (SettleWithBalanceParams) Action() Action  { return SETTLE_WITH_BALANCE }

type field = types.Field

var (
	poolKeyField = field{Name: "poolKey", Type: "tuple", Components: types.PoolKeyComponents}

	pathKeyComponents = []field{
		{Name: "intermediateCurrency", Type: "address"},
		{Name: "fee", Type: "uint24"},
		{Name: "tickSpacing", Type: "int24"},
		{Name: "hooks", Type: "address"},
		{Name: "hookData", Type: "bytes"},
	}
)

// schemas holds the ABI layout of every action.
var schemas = map[Action]types.Schema{
	INCREASE_LIQUIDITY: types.MustNewSchema(INCREASE_LIQUIDITY.String(),
		field{Name: "tokenId", Type: "uint256"},
		field{Name: "liquidity", Type: "uint256"},
		field{Name: "amount0Max", Type: "uint128"},
		field{Name: "amount1Max", Type: "uint128"},
		field{Name: "hookData", Type: "bytes"},
	),
	DECREASE_LIQUIDITY: types.MustNewSchema(DECREASE_LIQUIDITY.String(),
		field{Name: "tokenId", Type: "uint256"},
		field{Name: "liquidity", Type: "uint256"},
		field{Name: "amount0Min", Type: "uint128"},
		field{Name: "amount1Min", Type: "uint128"},
		field{Name: "hookData", Type: "bytes"},
	),
	MINT_POSITION: types.MustNewSchema(MINT_POSITION.String(),
		poolKeyField,
		field{Name: "tickLower", Type: "int24"},
		field{Name: "tickUpper", Type: "int24"},
		field{Name: "liquidity", Type: "uint256"},
		field{Name: "amount0Max", Type: "uint128"},
		field{Name: "amount1Max", Type: "uint128"},
		field{Name: "owner", Type: "address"},
		field{Name: "hookData", Type: "bytes"},
	),
	BURN_POSITION: types.MustNewSchema(BURN_POSITION.String(),
		field{Name: "tokenId", Type: "uint256"},
		field{Name: "amount0Min", Type: "uint128"},
		field{Name: "amount1Min", Type: "uint128"},
		field{Name: "hookData", Type: "bytes"},
	),
	SWAP_EXACT_IN_SINGLE: types.MustNewSchema(SWAP_EXACT_IN_SINGLE.String(),
		field{Name: "params", Type: "tuple", Components: []field{
			poolKeyField,
			{Name: "zeroForOne", Type: "bool"},
			{Name: "amountIn", Type: "uint128"},
			{Name: "amountOutMinimum", Type: "uint128"},
			{Name: "hookData", Type: "bytes"},
		}},
	),
	SWAP_EXACT_IN: types.MustNewSchema(SWAP_EXACT_IN.String(),
		field{Name: "params", Type: "tuple", Components: []field{
			{Name: "currencyIn", Type: "address"},
			{Name: "path", Type: "tuple[]", Components: pathKeyComponents},
			{Name: "amountIn", Type: "uint128"},
			{Name: "amountOutMinimum", Type: "uint128"},
		}},
	),
	SWAP_EXACT_OUT_SINGLE: types.MustNewSchema(SWAP_EXACT_OUT_SINGLE.String(),
		field{Name: "params", Type: "tuple", Components: []field{
			poolKeyField,
			{Name: "zeroForOne", Type: "bool"},
			{Name: "amountOut", Type: "uint128"},
			{Name: "amountInMaximum", Type: "uint128"},
			{Name: "hookData", Type: "bytes"},
		}},
	),
	SWAP_EXACT_OUT: types.MustNewSchema(SWAP_EXACT_OUT.String(),
		field{Name: "params", Type: "tuple", Components: []field{
			{Name: "currencyOut", Type: "address"},
			{Name: "path", Type: "tuple[]", Components: pathKeyComponents},
			{Name: "amountOut", Type: "uint128"},
			{Name: "amountInMaximum", Type: "uint128"},
		}},
	),
	SETTLE: types.MustNewSchema(SETTLE.String(),
		field{Name: "currency", Type: "address"},
		field{Name: "amount", Type: "uint256"},
		field{Name: "payerIsUser", Type: "bool"},
	),
	SETTLE_ALL: types.MustNewSchema(SETTLE_ALL.String(),
		field{Name: "currency", Type: "address"},
		field{Name: "maxAmount", Type: "uint256"},
	),
	SETTLE_PAIR: types.MustNewSchema(SETTLE_PAIR.String(),
		field{Name: "currency0", Type: "address"},
		field{Name: "currency1", Type: "address"},
	),
	TAKE: types.MustNewSchema(TAKE.String(),
		field{Name: "currency", Type: "address"},
		field{Name: "recipient", Type: "address"},
		field{Name: "amount", Type: "uint256"},
	),
	TAKE_ALL: types.MustNewSchema(TAKE_ALL.String(),
		field{Name: "currency", Type: "address"},
		field{Name: "minAmount", Type: "uint256"},
	),
	TAKE_PORTION: types.MustNewSchema(TAKE_PORTION.String(),
		field{Name: "currency", Type: "address"},
		field{Name: "recipient", Type: "address"},
		field{Name: "bips", Type: "uint256"},
	),
	TAKE_PAIR: types.MustNewSchema(TAKE_PAIR.String(),
		field{Name: "currency0", Type: "address"},
		field{Name: "currency1", Type: "address"},
		field{Name: "recipient", Type: "address"},
	),
	CLOSE_CURRENCY: types.MustNewSchema(CLOSE_CURRENCY.String(),
		field{Name: "currency", Type: "address"},
	),
	CLEAR_OR_TAKE: types.MustNewSchema(CLEAR_OR_TAKE.String(),
		field{Name: "currency", Type: "address"},
		field{Name: "amountMax", Type: "uint256"},
	),
	SWEEP: types.MustNewSchema(SWEEP.String(),
		field{Name: "currency", Type: "address"},
		field{Name: "recipient", Type: "address"},
	),
	SETTLE_WITH_BALANCE: types.MustNewSchema(SETTLE_WITH_BALANCE.String(),
		field{Name: "currency", Type: "address"},
	),
}

// DecodeParams decodes blob against the schema of a. Unknown actions yield
// ErrUnsupportedAction.
func DecodeParams(a Action, blob []byte) (Params, error) {
	schema, ok := schemas[a]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAction, a)
	}
	var out Params
	switch a {
	case INCREASE_LIQUIDITY:
		out = new(IncreaseLiquidityParams)
	case DECREASE_LIQUIDITY:
		out = new(DecreaseLiquidityParams)
	case MINT_POSITION:
		out = new(MintPositionParams)
	case BURN_POSITION:
		out = new(BurnPositionParams)
	case SWAP_EXACT_IN_SINGLE:
		out = new(SwapExactInSingleParams)
	case SWAP_EXACT_IN:
		out = new(SwapExactInParams)
	case SWAP_EXACT_OUT_SINGLE:
		out = new(SwapExactOutSingleParams)
	case SWAP_EXACT_OUT:
		out = new(SwapExactOutParams)
	case SETTLE:
		out = new(SettleParams)
	case SETTLE_ALL:
		out = new(SettleAllParams)
	case SETTLE_PAIR:
		out = new(SettlePairParams)
	case TAKE:
		out = new(TakeParams)
	case TAKE_ALL:
		out = new(TakeAllParams)
	case TAKE_PORTION:
		out = new(TakePortionParams)
	case TAKE_PAIR:
		out = new(TakePairParams)
	case CLOSE_CURRENCY:
		out = new(CloseCurrencyParams)
	case CLEAR_OR_TAKE:
		out = new(ClearOrTakeParams)
	case SWEEP:
		out = new(SweepParams)
	case SETTLE_WITH_BALANCE:
		out = new(SettleWithBalanceParams)
	}
	if err := schema.Decode(blob, out); err != nil {
		return nil, err
	}
	return deref(out), nil
}

// EncodeParams serialises p with the schema of its action.
func EncodeParams(p Params) ([]byte, error) {
	schema, ok := schemas[p.Action()]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAction, p.Action())
	}
	return schema.Encode(p)
}

// deref turns the pointer used for decoding back into the value type so that
// handlers switch over values only.
func deref(p Params) Params {
	switch v := p.(type) {
	case *IncreaseLiquidityParams:
		return *v
	case *DecreaseLiquidityParams:
		return *v
	case *MintPositionParams:
		return *v
	case *BurnPositionParams:
		return *v
	case *SwapExactInSingleParams:
		return *v
	case *SwapExactInParams:
		return *v
	case *SwapExactOutSingleParams:
		return *v
	case *SwapExactOutParams:
		return *v
	case *SettleParams:
		return *v
	case *SettleAllParams:
		return *v
	case *SettlePairParams:
		return *v
	case *TakeParams:
		return *v
	case *TakeAllParams:
		return *v
	case *TakePortionParams:
		return *v
	case *TakePairParams:
		return *v
	case *CloseCurrencyParams:
		return *v
	case *ClearOrTakeParams:
		return *v
	case *SweepParams:
		return *v
	case *SettleWithBalanceParams:
		return *v
	}
	return p
}
