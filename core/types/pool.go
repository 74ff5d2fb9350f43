package types

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NativeCurrency is the currency address that denotes the chain's native coin.
var NativeCurrency = common.Address{}

// PoolKey identifies a pool held by the pool manager. Integer fields are
// *big.Int because they travel as uint24/int24 ABI values.
type PoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

// PoolKeyComponents is the ABI tuple layout of a PoolKey.
var PoolKeyComponents = []Field{
	{Name: "currency0", Type: "address"},
	{Name: "currency1", Type: "address"},
	{Name: "fee", Type: "uint24"},
	{Name: "tickSpacing", Type: "int24"},
	{Name: "hooks", Type: "address"},
}

var poolKeySchema = MustNewSchema("poolKey", Field{Name: "key", Type: "tuple", Components: PoolKeyComponents})

type poolKeyEnvelope struct {
	Key PoolKey
}

// ErrUnorderedCurrencies is returned for keys whose currencies are not sorted.
var ErrUnorderedCurrencies = errors.New("currencies out of order or equal")

// Validate checks the structural invariants of a key.
func (k PoolKey) Validate() error {
	if k.Fee == nil || k.TickSpacing == nil {
		return fmt.Errorf("%w: incomplete pool key", ErrMalformedParameters)
	}
	if new(big.Int).SetBytes(k.Currency0.Bytes()).Cmp(new(big.Int).SetBytes(k.Currency1.Bytes())) >= 0 {
		return ErrUnorderedCurrencies
	}
	return nil
}

// ID returns the keccak256 of the ABI-encoded key.
func (k PoolKey) ID() common.Hash {
	blob, err := poolKeySchema.Encode(poolKeyEnvelope{Key: k})
	if err != nil {
		// Only nil integer fields can fail to pack.
		return common.Hash{}
	}
	return crypto.Keccak256Hash(blob)
}

// Other returns the currency of the pair that is not c.
func (k PoolKey) Other(c common.Address) common.Address {
	if c == k.Currency0 {
		return k.Currency1
	}
	return k.Currency0
}

// Has reports whether c is one of the key's currencies.
func (k PoolKey) Has(c common.Address) bool {
	return c == k.Currency0 || c == k.Currency1
}

func (k PoolKey) String() string {
	return fmt.Sprintf("%s/%s fee=%v spacing=%v hooks=%s", k.Currency0.Hex(), k.Currency1.Hex(), k.Fee, k.TickSpacing, k.Hooks.Hex())
}

// SortCurrencies returns a and b in pool key order.
func SortCurrencies(a, b common.Address) (common.Address, common.Address) {
	if new(big.Int).SetBytes(a.Bytes()).Cmp(new(big.Int).SetBytes(b.Bytes())) < 0 {
		return a, b
	}
	return b, a
}
