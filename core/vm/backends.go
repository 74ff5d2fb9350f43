package vm

import (
	"math/big"

	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
)

// StateDB is the ledger the router moves its own balances on. The zero asset
// address denotes the native coin.
type StateDB interface {
	GetBalance(asset, owner common.Address) *big.Int
	AddBalance(asset, owner common.Address, amount *big.Int, reason tracing.BalanceChangeReason) error
	Transfer(asset, from, to common.Address, amount *big.Int, reason tracing.BalanceChangeReason) error
	OwnerOf(token common.Address, id *big.Int) common.Address
	TransferNFT(token, from, to common.Address, id *big.Int) error

	Snapshot() int
	RevertToSnapshot(int)
}

// Permit2 is the signature-based allowance service.
type Permit2 interface {
	Address() common.Address
	Permit(owner common.Address, permit PermitSingle, signature []byte) error
	PermitBatch(owner common.Address, permit PermitBatch, signature []byte) error
	// TransferFrom pulls amount of token from owner to recipient against the
	// allowance owner granted spender.
	TransferFrom(spender, owner, recipient common.Address, amount *big.Int, token common.Address) error
	TransferFromBatch(spender common.Address, transfers []AllowanceTransferDetails) error
}

// WETH wraps and unwraps the native coin.
type WETH interface {
	Address() common.Address
	Deposit(from common.Address, amount *big.Int) error
	Withdraw(from common.Address, amount *big.Int) error
}

// V2Venue is a constant-product pair factory.
type V2Venue interface {
	PairFor(tokenA, tokenB common.Address) (common.Address, error)
	// GetAmountIn returns the input the first pair of path needs to deliver
	// amountOut at the end of path.
	GetAmountIn(amountOut *big.Int, path []common.Address) (*big.Int, error)
	// Swap runs every hop of path, forwarding each output to the next pair
	// and the last one to recipient. The input must already sit in the first
	// pair.
	Swap(path []common.Address, recipient common.Address) error
}

// V3Hop is one pool of a concentrated-liquidity path.
type V3Hop struct {
	TokenIn  common.Address
	TokenOut common.Address
	Fee      *big.Int
}

// PayFunc settles the input of a V3 swap from inside the pool callback.
type PayFunc func(token, pool common.Address, amount *big.Int) error

// V3Venue is a concentrated-liquidity pool factory.
type V3Venue interface {
	PoolFor(tokenA, tokenB common.Address, fee *big.Int) (common.Address, error)
	// Swap runs one hop. A positive amountSpecified is an exact input, a
	// negative one an exact output. The output is sent to recipient before
	// pay is called for the input.
	Swap(hop V3Hop, recipient common.Address, amountSpecified *big.Int, pay PayFunc) (amountIn, amountOut *big.Int, err error)
}

// PositionManagerV3 is the NFT position manager of the V3 venue.
type PositionManagerV3 interface {
	Address() common.Address
	OwnerOf(tokenID *big.Int) (common.Address, error)
	GetApproved(tokenID *big.Int) (common.Address, error)
	IsApprovedForAll(owner, operator common.Address) bool
	Call(from common.Address, calldata []byte) error
}

// PositionManagerV4 is the NFT position manager of the pool manager.
type PositionManagerV4 interface {
	Address() common.Address
	Call(from common.Address, value *big.Int, calldata []byte) error
}

// Marketplace is an NFT marketplace reachable through a raw call.
type Marketplace interface {
	Address() common.Address
	Call(meta CallMetadata) error
}

// Backends bundles the collaborators a router is wired to. A nil entry
// disables the opcodes that need it.
type Backends struct {
	Permit2           Permit2
	WETH              WETH
	V2                V2Venue
	V3                V3Venue
	PoolManager       actions.PoolManager
	PositionManagerV3 PositionManagerV3
	PositionManagerV4 PositionManagerV4
	Seaport           Marketplace
	LooksRare         Marketplace
	X2Y2              Marketplace
}
