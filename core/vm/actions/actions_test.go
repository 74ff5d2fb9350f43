package actions

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestListEncoding(t *testing.T) {
	var list List
	list.MustAdd(SettleAllParams{Currency: common.HexToAddress("0xaa"), MaxAmount: big.NewInt(7)}).
		MustAdd(TakeAllParams{Currency: common.HexToAddress("0xbb"), MinAmount: big.NewInt(5)})

	blob, err := list.Encode()
	require.NoError(t, err)
	decoded, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Len())
	for i := 0; i < list.Len(); i++ {
		a, params := decoded.At(i)
		want, wantParams := list.At(i)
		if a != want || !bytes.Equal(params, wantParams) {
			t.Fatalf("action %d: have %v %x, want %v %x", i, a, params, want, wantParams)
		}
	}

	// Misaligned arrays.
	blob, err = types.EncodePlan([]byte{byte(SETTLE_ALL)}, nil)
	require.NoError(t, err)
	_, err = Decode(blob)
	require.ErrorIs(t, err, ErrInputLengthMismatch)

	// Trailing bytes.
	_, err = Decode(append(blob, 0))
	require.ErrorIs(t, err, types.ErrMalformedParameters)
}

func TestDecodeParams(t *testing.T) {
	blob, err := EncodeParams(TakePortionParams{Currency: common.HexToAddress("0xaa"), Recipient: types.MsgSender, Bips: big.NewInt(25)})
	require.NoError(t, err)

	p, err := DecodeParams(TAKE_PORTION, blob)
	require.NoError(t, err)
	portion, ok := p.(TakePortionParams)
	require.True(t, ok)
	require.Equal(t, types.MsgSender, portion.Recipient)
	require.Equal(t, int64(25), portion.Bips.Int64())

	_, err = DecodeParams(TAKE_PORTION, blob[:64])
	require.ErrorIs(t, err, types.ErrMalformedParameters)
	_, err = DecodeParams(Action(0x04), blob)
	require.ErrorIs(t, err, ErrUnsupportedAction)

	// A uint128 word carrying 129 bits is malformed.
	blob, err = EncodeParams(IncreaseLiquidityParams{TokenID: big.NewInt(1), Liquidity: big.NewInt(2), Amount0Max: big.NewInt(3), Amount1Max: big.NewInt(4), HookData: []byte{}})
	require.NoError(t, err)
	_, err = DecodeParams(INCREASE_LIQUIDITY, blob)
	require.NoError(t, err)
	blob[2*32+15] = 0x01
	_, err = DecodeParams(INCREASE_LIQUIDITY, blob)
	require.ErrorIs(t, err, types.ErrMalformedParameters)
}

func TestActionClasses(t *testing.T) {
	for a := range actionToString {
		want := a == INCREASE_LIQUIDITY || a == DECREASE_LIQUIDITY || a == MINT_POSITION || a == BURN_POSITION ||
			a == SWAP_EXACT_IN_SINGLE || a == SWAP_EXACT_IN || a == SWAP_EXACT_OUT_SINGLE || a == SWAP_EXACT_OUT
		if a.IsLiquidity() != want {
			t.Errorf("%v: IsLiquidity %v, want %v", a, a.IsLiquidity(), want)
		}
		if _, ok := schemas[a]; !ok {
			t.Errorf("%v has no schema", a)
		}
	}
	require.Equal(t, "action 0x04 not defined", Action(0x04).String())
}
