package main

import (
	"bufio"
	"errors"
	"fmt"
	"math/big"
	"os"
	"reflect"
	"unicode"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/clydemeng/bsc-router/simulated"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/naoina/toml"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// worldConfig describes the simulated deployment a plan runs against.
type worldConfig struct {
	// Time is the block timestamp. Zero means the wall clock.
	Time            uint64
	MaxSubPlanDepth int

	Balances  []balanceConfig
	Approvals []approvalConfig
	NFTs      []nftConfig
	V2Pairs   []pairConfig
	V3Pools   []pairConfig
	V4Pools   []v4PoolConfig
	Listings  []listingConfig
}

// balanceConfig credits Amount of Asset to Owner. A zero Asset is the native
// coin.
type balanceConfig struct {
	Owner  common.Address
	Asset  common.Address
	Amount *big.Int
}

// approvalConfig grants Spender an allowance through Permit2. A zero Spender
// is the router, a nil Amount is unlimited and a zero Expiration never
// expires within the run.
type approvalConfig struct {
	Owner      common.Address
	Token      common.Address
	Spender    common.Address
	Amount     *big.Int
	Expiration uint64
}

type nftConfig struct {
	Token common.Address
	ID    *big.Int
	Owner common.Address
}

// pairConfig seeds a V2 pair or a V3 pool. Fee is ignored for V2.
type pairConfig struct {
	TokenA   common.Address
	TokenB   common.Address
	Fee      uint64
	ReserveA *big.Int
	ReserveB *big.Int
}

// v4PoolConfig initializes a pool in the manager and, when Liquidity is set,
// mints a position for Provider. The provider is credited what the position
// costs.
type v4PoolConfig struct {
	Currency0    common.Address
	Currency1    common.Address
	Fee          uint64
	TickSpacing  int64
	Hooks        common.Address
	SqrtPriceX96 *big.Int

	Provider  common.Address
	Liquidity *big.Int
	TickLower int64
	TickUpper int64
}

// listingConfig escrows an NFT on a marketplace. Marketplace is one of
// "seaport", "looksrare" or "x2y2".
type listingConfig struct {
	Marketplace string
	Seller      common.Address
	Token       common.Address
	ID          *big.Int
	Price       *big.Int
}

func loadWorld(file string, cfg *worldConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// deploy builds a fresh state and backend holding everything cfg describes.
func (cfg *worldConfig) deploy() (*simulated.Backend, error) {
	st := state.New()
	b := simulated.NewBackend(st, cfg.Time)

	for i, bal := range cfg.Balances {
		if bal.Amount == nil {
			return nil, fmt.Errorf("balance %d: missing amount", i)
		}
		if err := st.AddBalance(bal.Asset, bal.Owner, bal.Amount, tracing.BalanceChangeGenesis); err != nil {
			return nil, fmt.Errorf("balance %d: %w", i, err)
		}
	}
	for _, a := range cfg.Approvals {
		spender, amount, expiration := a.Spender, a.Amount, a.Expiration
		if spender == (common.Address{}) {
			spender = simulated.RouterAddress
		}
		if amount == nil {
			amount = simulated.MaxAllowance
		}
		if expiration == 0 {
			expiration = ^uint64(0) >> 16
		}
		b.Permit2.Approve(a.Owner, a.Token, spender, amount, expiration)
	}
	for _, n := range cfg.NFTs {
		st.SetOwner(n.Token, n.ID, n.Owner)
	}
	for i, p := range cfg.V2Pairs {
		if _, err := b.V2.CreatePair(p.TokenA, p.TokenB, p.ReserveA, p.ReserveB); err != nil {
			return nil, fmt.Errorf("v2 pair %d: %w", i, err)
		}
	}
	for i, p := range cfg.V3Pools {
		if _, err := b.V3.CreatePool(p.TokenA, p.TokenB, p.Fee, p.ReserveA, p.ReserveB); err != nil {
			return nil, fmt.Errorf("v3 pool %d: %w", i, err)
		}
	}
	for i, p := range cfg.V4Pools {
		if err := p.deploy(b); err != nil {
			return nil, fmt.Errorf("v4 pool %d: %w", i, err)
		}
	}
	for i, l := range cfg.Listings {
		market, err := marketplace(b, l.Marketplace)
		if err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
		if err := market.List(l.Seller, l.Token, l.ID, l.Price); err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
	}
	log.Info("Deployed world", "balances", len(cfg.Balances), "v2", len(cfg.V2Pairs), "v3", len(cfg.V3Pools), "v4", len(cfg.V4Pools), "listings", len(cfg.Listings))
	return b, nil
}

func (p v4PoolConfig) key() types.PoolKey {
	return types.PoolKey{
		Currency0:   p.Currency0,
		Currency1:   p.Currency1,
		Fee:         new(big.Int).SetUint64(p.Fee),
		TickSpacing: big.NewInt(p.TickSpacing),
		Hooks:       p.Hooks,
	}
}

func (p v4PoolConfig) deploy(b *simulated.Backend) error {
	key := p.key()
	price := p.SqrtPriceX96
	if price == nil {
		price = new(big.Int).Lsh(big.NewInt(1), 96)
	}
	if _, err := b.PoolManager.Initialize(key, price); err != nil {
		return err
	}
	if p.Liquidity == nil || p.Liquidity.Sign() == 0 {
		return nil
	}
	lower, upper := p.TickLower, p.TickUpper
	if lower == 0 && upper == 0 {
		lower, upper = -10*p.TickSpacing, 10*p.TickSpacing
	}
	for _, c := range []common.Address{key.Currency0, key.Currency1} {
		if err := b.State.AddBalance(c, p.Provider, p.Liquidity, tracing.BalanceChangeGenesis); err != nil {
			return err
		}
		b.Permit2.Approve(p.Provider, c, simulated.PositionManagerV4Address, simulated.MaxAllowance, ^uint64(0)>>16)
	}
	var list actions.List
	if err := list.Add(actions.MintPositionParams{
		PoolKey:    key,
		TickLower:  big.NewInt(lower),
		TickUpper:  big.NewInt(upper),
		Liquidity:  p.Liquidity,
		Amount0Max: p.Liquidity,
		Amount1Max: p.Liquidity,
		Owner:      p.Provider,
		HookData:   []byte{},
	}); err != nil {
		return err
	}
	if err := list.Add(actions.SettlePairParams{Currency0: key.Currency0, Currency1: key.Currency1}); err != nil {
		return err
	}
	return b.PositionManagerV4.ModifyLiquidities(p.Provider, list)
}

func marketplace(b *simulated.Backend, name string) (*simulated.Marketplace, error) {
	switch name {
	case "seaport":
		return b.Seaport, nil
	case "looksrare":
		return b.LooksRare, nil
	case "x2y2":
		return b.X2Y2, nil
	}
	return nil, fmt.Errorf("unknown marketplace %q", name)
}
