package vm

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = common.HexToAddress("0xaaaa000000000000000000000000000000000000")
	tokenB = common.HexToAddress("0xbbbb000000000000000000000000000000000000")
	bob    = common.HexToAddress("0xb0b0000000000000000000000000000000000000")
)

func TestParamsRoundTrip(t *testing.T) {
	path, err := EncodeV3Path([]common.Address{tokenA, tokenB}, []uint32{3000})
	require.NoError(t, err)
	details := PermitDetails{Token: tokenA, Amount: big.NewInt(1), Expiration: big.NewInt(2), Nonce: big.NewInt(3)}
	maxUint160 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))

	tests := []Params{
		V3SwapExactInParams{Recipient: types.MsgSender, AmountIn: big.NewInt(1000), AmountOutMin: big.NewInt(990), Path: path, PayerIsUser: true},
		V3SwapExactOutParams{Recipient: bob, AmountOut: big.NewInt(10), AmountInMax: types.ContractBalance, Path: path},
		Permit2TransferFromParams{Token: tokenA, Recipient: types.AddressThis, Amount: maxUint160},
		Permit2PermitBatchParams{
			PermitBatch: PermitBatch{
				Details:     []PermitDetails{details, {Token: tokenB, Amount: big.NewInt(5), Expiration: big.NewInt(6), Nonce: big.NewInt(7)}},
				Spender:     bob,
				SigDeadline: big.NewInt(8),
			},
			Signature: []byte{0xbe, 0xef},
		},
		SweepParams{Token: tokenA, Recipient: types.MsgSender, AmountMin: big.NewInt(1)},
		TransferParams{Token: tokenB, Recipient: bob, Value: types.ContractBalance},
		PayPortionParams{Token: tokenA, Recipient: bob, Bips: big.NewInt(2500)},
		V2SwapExactInParams{Recipient: types.AddressThis, AmountIn: big.NewInt(3), AmountOutMin: big.NewInt(2), Path: []common.Address{tokenA, tokenB}, PayerIsUser: true},
		V2SwapExactOutParams{Recipient: bob, AmountOut: big.NewInt(5), AmountInMax: big.NewInt(7), Path: []common.Address{tokenA, tokenB}},
		Permit2PermitParams{
			PermitSingle: PermitSingle{Details: details, Spender: bob, SigDeadline: big.NewInt(4)},
			Signature:    []byte{0xde, 0xad},
		},
		WrapETHParams{Recipient: types.AddressThis, Amount: big.NewInt(100)},
		UnwrapWETHParams{Recipient: bob, AmountMin: big.NewInt(99)},
		Permit2TransferFromBatchParams{Transfers: []AllowanceTransferDetails{
			{From: bob, To: types.AddressThis, Amount: big.NewInt(9), Token: tokenA},
			{From: bob, To: types.MsgSender, Amount: big.NewInt(8), Token: tokenB},
		}},
		BalanceCheckERC20Params{Owner: bob, Token: tokenA, MinBalance: big.NewInt(11)},
		V4SwapParams{Actions: []byte{0x06, 0x0c, 0x0f}, Params: [][]byte{{1}, {2, 3}, {4}}},
		V3PositionManagerPermitParams{Calldata: []byte{0x01, 0x02}},
		V3PositionManagerCallParams{Calldata: []byte{0x03, 0x04}},
		V4InitializePoolParams{
			PoolKey:      types.PoolKey{Currency0: tokenA, Currency1: tokenB, Fee: big.NewInt(0xffffff), TickSpacing: big.NewInt(-1 << 23), Hooks: bob},
			SqrtPriceX96: maxUint160,
		},
		V4PositionManagerCallParams{Calldata: []byte{0x05, 0x06}},
		SeaportV15Params{Value: big.NewInt(12), Data: []byte{7}},
		LooksRareV2Params{Value: big.NewInt(13), Data: []byte{8, 9}},
		X2Y2721Params{Value: big.NewInt(1), Data: []byte{1, 2, 3}, Recipient: bob, Token: tokenA, ID: big.NewInt(42)},
		OwnerCheck721Params{Owner: bob, Token: tokenA, ID: big.NewInt(43)},
		SweepERC721Params{Token: tokenA, Recipient: types.MsgSender, ID: big.NewInt(44)},
		ExecuteSubPlanParams{Commands: []byte{0x04, 0x05}, Inputs: [][]byte{{1}, {2, 3}}},
	}
	seen := make(map[OpCode]bool)
	for _, p := range tests {
		seen[p.OpCode()] = true

		blob, err := EncodeParams(p)
		require.NoError(t, err, p.OpCode().String())

		decoded, err := DecodeParams(p.OpCode(), blob)
		require.NoError(t, err, p.OpCode().String())
		require.Equal(t, p, decoded, p.OpCode().String())

		again, err := EncodeParams(decoded)
		require.NoError(t, err)
		require.True(t, bytes.Equal(blob, again), "%v: re-encoding differs", p.OpCode())
	}
	for op := OpCode(0); op <= OpCode(CommandTypeMask); op++ {
		if op.Defined() {
			require.True(t, seen[op], "no round trip for %v", op)
		}
	}
}

// setWord overwrites the 32 byte word at index i of blob with v in two's
// complement.
func setWord(blob []byte, i int, v *big.Int) []byte {
	out := bytes.Clone(blob)
	copy(out[i*32:(i+1)*32], math.U256Bytes(new(big.Int).Set(v)))
	return out
}

func TestDecodeRejectsOverflow(t *testing.T) {
	pow := func(n uint) *big.Int { return new(big.Int).Lsh(big.NewInt(1), n) }

	pull, err := EncodeParams(Permit2TransferFromParams{Token: tokenA, Recipient: bob, Amount: big.NewInt(1)})
	require.NoError(t, err)
	batch, err := EncodeParams(Permit2TransferFromBatchParams{Transfers: []AllowanceTransferDetails{
		{From: bob, To: types.AddressThis, Amount: big.NewInt(9), Token: tokenA},
	}})
	require.NoError(t, err)
	permit, err := EncodeParams(Permit2PermitParams{
		PermitSingle: PermitSingle{
			Details:     PermitDetails{Token: tokenA, Amount: big.NewInt(1), Expiration: big.NewInt(2), Nonce: big.NewInt(3)},
			Spender:     bob,
			SigDeadline: big.NewInt(4),
		},
		Signature: []byte{0xde, 0xad},
	})
	require.NoError(t, err)
	initialize, err := EncodeParams(V4InitializePoolParams{
		PoolKey:      types.PoolKey{Currency0: tokenA, Currency1: tokenB, Fee: big.NewInt(3000), TickSpacing: big.NewInt(60)},
		SqrtPriceX96: pow(96),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		op   OpCode
		blob []byte
	}{
		{"uint160 all ones", PERMIT2_TRANSFER_FROM, setWord(pull, 2, new(big.Int).Sub(pow(256), big.NewInt(1)))},
		{"uint160 plus one", PERMIT2_TRANSFER_FROM, setWord(pull, 2, pow(160))},
		{"uint160 in tuple slice", PERMIT2_TRANSFER_FROM_BATCH, setWord(batch, 4, pow(160))},
		{"uint48 expiration", PERMIT2_PERMIT, setWord(permit, 2, pow(48))},
		{"uint48 nonce", PERMIT2_PERMIT, setWord(permit, 3, pow(200))},
		{"uint24 fee", V4_INITIALIZE_POOL, setWord(initialize, 2, pow(24))},
		{"int24 above", V4_INITIALIZE_POOL, setWord(initialize, 3, pow(23))},
		{"int24 below", V4_INITIALIZE_POOL, setWord(initialize, 3, new(big.Int).Sub(new(big.Int).Neg(pow(23)), big.NewInt(1)))},
		{"uint160 price", V4_INITIALIZE_POOL, setWord(initialize, 5, pow(160))},
	}
	for _, tt := range tests {
		_, err := DecodeParams(tt.op, tt.blob)
		require.ErrorIs(t, err, ErrMalformedParameters, tt.name)
	}

	// The bounds themselves are accepted.
	p, err := DecodeParams(V4_INITIALIZE_POOL, setWord(initialize, 3, new(big.Int).Neg(pow(23))))
	require.NoError(t, err)
	require.Zero(t, p.(V4InitializePoolParams).PoolKey.TickSpacing.Cmp(new(big.Int).Neg(pow(23))))
	_, err = DecodeParams(V4_INITIALIZE_POOL, setWord(initialize, 3, new(big.Int).Sub(pow(23), big.NewInt(1))))
	require.NoError(t, err)
}

func TestDecodedFields(t *testing.T) {
	in := V4InitializePoolParams{
		PoolKey:      types.PoolKey{Currency0: tokenA, Currency1: tokenB, Fee: big.NewInt(500), TickSpacing: big.NewInt(-10)},
		SqrtPriceX96: big.NewInt(12345),
	}
	blob, err := EncodeParams(in)
	require.NoError(t, err)
	out, err := DecodeParams(V4_INITIALIZE_POOL, blob)
	require.NoError(t, err)

	p := out.(V4InitializePoolParams)
	require.Equal(t, tokenA, p.PoolKey.Currency0)
	require.Equal(t, tokenB, p.PoolKey.Currency1)
	require.Zero(t, p.PoolKey.Fee.Cmp(big.NewInt(500)))
	require.Zero(t, p.PoolKey.TickSpacing.Cmp(big.NewInt(-10)))
	require.Zero(t, p.SqrtPriceX96.Cmp(big.NewInt(12345)))
	require.Equal(t, in.PoolKey.ID(), p.PoolKey.ID())
}

func TestDecodeRejectsNonCanonical(t *testing.T) {
	blob, err := EncodeParams(SweepParams{Token: tokenA, Recipient: bob, AmountMin: big.NewInt(1)})
	require.NoError(t, err)

	dirty := bytes.Clone(blob)
	dirty[0] = 0xff // padding in front of the token address

	tests := map[string][]byte{
		"trailing":  append(bytes.Clone(blob), make([]byte, 32)...),
		"truncated": blob[:len(blob)-1],
		"empty":     nil,
		"dirty":     dirty,
	}
	for name, input := range tests {
		_, err := DecodeParams(SWEEP, input)
		require.ErrorIs(t, err, ErrMalformedParameters, name)
	}

	// Booleans other than 0 and 1 are not canonical either.
	swap, err := EncodeParams(V2SwapExactInParams{Recipient: bob, AmountIn: big.NewInt(1), AmountOutMin: big.NewInt(1), Path: []common.Address{tokenA, tokenB}, PayerIsUser: true})
	require.NoError(t, err)
	swap[4*32+31] = 2
	_, err = DecodeParams(V2_SWAP_EXACT_IN, swap)
	require.ErrorIs(t, err, ErrMalformedParameters)
}

func TestDecodeParamsOpcodes(t *testing.T) {
	_, err := DecodeParams(OpCode(0x07), nil)
	require.ErrorIs(t, err, ErrInvalidCommandType)

	raw := []byte{0xca, 0xfe}
	p, err := DecodeParams(V3_POSITION_MANAGER_CALL, raw)
	require.NoError(t, err)
	require.Equal(t, V3PositionManagerCallParams{Calldata: raw}, p)

	blob, err := EncodeParams(p)
	require.NoError(t, err)
	require.Equal(t, raw, blob)
}

func TestEncodeNilAmount(t *testing.T) {
	_, err := EncodeParams(TransferParams{Token: tokenA, Recipient: bob})
	require.Error(t, err)
}
