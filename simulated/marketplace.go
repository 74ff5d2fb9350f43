package simulated

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const marketplaceJSON = `[
	{"type":"function","name":"fulfill","stateMutability":"payable","inputs":[
		{"name":"token","type":"address"},{"name":"id","type":"uint256"},{"name":"recipient","type":"address"}]}
]`

// MarketplaceABI is the call surface of the simulated marketplaces.
var MarketplaceABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(marketplaceJSON))
	if err != nil {
		panic(err)
	}
	MarketplaceABI = parsed
}

// listing is the record of one escrowed ERC721 for sale.
type listing struct {
	Seller common.Address
	Price  *big.Int
}

// Marketplace escrows listed ERC721 tokens and sells them for native coin.
type Marketplace struct {
	address common.Address
	state   *state.StateDB
}

func NewMarketplace(address common.Address, st *state.StateDB) *Marketplace {
	return &Marketplace{address: address, state: st}
}

func (m *Marketplace) Address() common.Address { return m.address }

func listingKey(token common.Address, id *big.Int) common.Hash {
	return state.RecordKey(token.Bytes(), common.BigToHash(id).Bytes())
}

// List escrows seller's token id at price.
func (m *Marketplace) List(seller, token common.Address, id, price *big.Int) error {
	if err := m.state.TransferNFT(token, seller, m.address, id); err != nil {
		return err
	}
	m.state.SetRecord(m.address, listingKey(token, id), listing{Seller: seller, Price: new(big.Int).Set(price)})
	return nil
}

// FulfillCalldata encodes a purchase of token id delivered to recipient.
func FulfillCalldata(token common.Address, id *big.Int, recipient common.Address) ([]byte, error) {
	return MarketplaceABI.Pack("fulfill", token, id, recipient)
}

// revert builds a failure that carries a four byte error selector.
func revert(reason string, args ...interface{}) error {
	msg := fmt.Sprintf(reason, args...)
	return types.NewRevertError(msg, crypto.Keccak256([]byte(reason))[:4])
}

// Call buys the listing named by the calldata. Surplus value goes back to
// the sender.
func (m *Marketplace) Call(meta vm.CallMetadata) error {
	if len(meta.Data) < 4 {
		return revert("empty calldata")
	}
	method, err := MarketplaceABI.MethodById(meta.Data[:4])
	if err != nil {
		return revert("unknown selector %x", meta.Data[:4])
	}
	args, err := method.Inputs.Unpack(meta.Data[4:])
	if err != nil {
		return revert("bad calldata: %v", err)
	}
	token, id, recipient := args[0].(common.Address), args[1].(*big.Int), args[2].(common.Address)

	v, ok := m.state.GetRecord(m.address, listingKey(token, id))
	if !ok {
		return revert("no listing for %s #%v", token.Hex(), id)
	}
	l := v.(listing)
	value := meta.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Cmp(l.Price) < 0 {
		return revert("insufficient payment: %v < %v", value, l.Price)
	}
	m.state.SetRecord(m.address, listingKey(token, id), nil)
	if err := m.state.TransferNFT(token, m.address, recipient, id); err != nil {
		return err
	}
	if err := m.state.Transfer(types.NativeCurrency, m.address, l.Seller, l.Price, tracing.BalanceChangeMarketplace); err != nil {
		return err
	}
	if surplus := new(big.Int).Sub(value, l.Price); surplus.Sign() > 0 {
		return m.state.Transfer(types.NativeCurrency, m.address, meta.From, surplus, tracing.BalanceChangeMarketplace)
	}
	return nil
}
