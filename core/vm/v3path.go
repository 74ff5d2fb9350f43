package vm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// A V3 path is a packed token | fee | token | fee | ... | token byte string,
// 20-byte addresses and 3-byte big-endian fees.
const (
	v3AddrSize             = common.AddressLength
	v3FeeSize              = 3
	v3NextOffset           = v3AddrSize + v3FeeSize
	v3PopOffset            = v3NextOffset + v3AddrSize
	v3MultiplePoolsMinSize = v3PopOffset + v3NextOffset
	maxV3Fee               = 1<<24 - 1
)

type v3Path []byte

func (p v3Path) valid() bool {
	return len(p) >= v3PopOffset && (len(p)-v3AddrSize)%v3NextOffset == 0
}

func (p v3Path) hasMultiplePools() bool {
	return len(p) >= v3MultiplePoolsMinSize
}

func (p v3Path) firstToken() common.Address {
	return common.BytesToAddress(p[:v3AddrSize])
}

// firstPool decodes the leading token | fee | token triple.
func (p v3Path) firstPool() (tokenA common.Address, fee *big.Int, tokenB common.Address) {
	tokenA = common.BytesToAddress(p[:v3AddrSize])
	fee = new(big.Int).SetBytes(p[v3AddrSize:v3NextOffset])
	tokenB = common.BytesToAddress(p[v3NextOffset:v3PopOffset])
	return
}

func (p v3Path) skipToken() v3Path {
	return p[v3NextOffset:]
}

// EncodeV3Path packs tokens and the fees between them. Exact-output swaps
// take the path reversed, starting at the output token.
func EncodeV3Path(tokens []common.Address, fees []uint32) ([]byte, error) {
	if len(tokens) < 2 || len(fees) != len(tokens)-1 {
		return nil, fmt.Errorf("%w: %d tokens, %d fees", ErrV3InvalidPath, len(tokens), len(fees))
	}
	path := make([]byte, 0, v3AddrSize+len(fees)*v3NextOffset)
	for i, fee := range fees {
		if fee > maxV3Fee {
			return nil, fmt.Errorf("%w: fee %d", ErrV3InvalidPath, fee)
		}
		path = append(path, tokens[i].Bytes()...)
		path = append(path, byte(fee>>16), byte(fee>>8), byte(fee))
	}
	return append(path, tokens[len(tokens)-1].Bytes()...), nil
}

// DecodeV3Path is the inverse of EncodeV3Path.
func DecodeV3Path(path []byte) ([]common.Address, []uint32, error) {
	p := v3Path(path)
	if !p.valid() {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrV3InvalidPath, len(path))
	}
	var (
		tokens = []common.Address{p.firstToken()}
		fees   []uint32
	)
	for {
		_, fee, tokenB := p.firstPool()
		tokens = append(tokens, tokenB)
		fees = append(fees, uint32(fee.Uint64()))
		if !p.hasMultiplePools() {
			return tokens, fees, nil
		}
		p = p.skipToken()
	}
}
