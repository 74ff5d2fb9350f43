package vm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestV3Path(t *testing.T) {
	tokenC := common.HexToAddress("0xcccc000000000000000000000000000000000000")

	path, err := EncodeV3Path([]common.Address{tokenA, tokenB, tokenC}, []uint32{3000, 500})
	require.NoError(t, err)
	require.Len(t, path, 20+3+20+3+20)

	p := v3Path(path)
	require.True(t, p.valid())
	require.True(t, p.hasMultiplePools())
	require.Equal(t, tokenA, p.firstToken())

	in, fee, out := p.firstPool()
	require.Equal(t, tokenA, in)
	require.Equal(t, uint64(3000), fee.Uint64())
	require.Equal(t, tokenB, out)

	p = p.skipToken()
	require.False(t, p.hasMultiplePools())
	in, fee, out = p.firstPool()
	require.Equal(t, tokenB, in)
	require.Equal(t, uint64(500), fee.Uint64())
	require.Equal(t, tokenC, out)

	tokens, fees, err := DecodeV3Path(path)
	require.NoError(t, err)
	require.Equal(t, []common.Address{tokenA, tokenB, tokenC}, tokens)
	require.Equal(t, []uint32{3000, 500}, fees)
}

func TestV3PathInvalid(t *testing.T) {
	_, err := EncodeV3Path([]common.Address{tokenA}, nil)
	require.ErrorIs(t, err, ErrV3InvalidPath)
	_, err = EncodeV3Path([]common.Address{tokenA, tokenB}, []uint32{1 << 24})
	require.ErrorIs(t, err, ErrV3InvalidPath)

	path, err := EncodeV3Path([]common.Address{tokenA, tokenB}, []uint32{100})
	require.NoError(t, err)
	for _, bad := range [][]byte{nil, path[:42], append(path, 0)} {
		_, _, err := DecodeV3Path(bad)
		require.ErrorIs(t, err, ErrV3InvalidPath)
	}
}
