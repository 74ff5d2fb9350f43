// Package simulated provides in-memory versions of the contracts a router
// talks to, all backed by one journaled state.
package simulated

import (
	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
)

// Well-known addresses of the simulated deployment.
var (
	RouterAddress            = common.HexToAddress("0x66a9893cc07d91d95644aedd05d03f95e1dba8af")
	Permit2Address           = common.HexToAddress("0x000000000022d473030f116ddee9f6b43ac78ba3")
	WETHAddress              = common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	PoolManagerAddress       = common.HexToAddress("0x000000000004444c5dc75cb358380d2e3de08a90")
	PositionManagerV3Address = common.HexToAddress("0xc36442b4a4522e871399cd717abdd847ab11fe88")
	PositionManagerV4Address = common.HexToAddress("0xbd216513d74c8cf14cf4747e6aaa6420ff64ee9e")
	SeaportAddress           = common.HexToAddress("0x00000000000000adc04c56bf30ac9d3c0aaf14dc")
	LooksRareAddress         = common.HexToAddress("0x0000000000e655fae4d56241588680f86e3b2377")
	X2Y2Address              = common.HexToAddress("0x74312363e45dcaba76c59ec49a7aa8a65a67eed3")
)

// Backend is a complete simulated deployment around one StateDB.
type Backend struct {
	State *state.StateDB
	// Time is the block timestamp every time-bound check reads.
	Time uint64

	Permit2           *Permit2
	WETH              *WETH
	V2                *V2Factory
	V3                *V3Factory
	PoolManager       *PoolManager
	PositionManagerV3 *PositionManagerV3
	PositionManagerV4 *PositionManagerV4
	Seaport           *Marketplace
	LooksRare         *Marketplace
	X2Y2              *Marketplace
}

// NewBackend deploys every contract on st.
func NewBackend(st *state.StateDB, time uint64) *Backend {
	b := &Backend{State: st, Time: time}
	clock := func() uint64 { return b.Time }

	b.Permit2 = NewPermit2(Permit2Address, st, clock)
	b.WETH = NewWETH(WETHAddress, st)
	b.V2 = NewV2Factory(st)
	b.V3 = NewV3Factory(st)
	b.PoolManager = NewPoolManager(PoolManagerAddress, st)
	b.PositionManagerV3 = NewPositionManagerV3(PositionManagerV3Address, st, clock)
	b.PositionManagerV4 = NewPositionManagerV4(PositionManagerV4Address, st, b.PoolManager, b.Permit2, clock)
	b.Seaport = NewMarketplace(SeaportAddress, st)
	b.LooksRare = NewMarketplace(LooksRareAddress, st)
	b.X2Y2 = NewMarketplace(X2Y2Address, st)
	return b
}

// SetHooks installs tracing hooks on the state and the allowance service.
func (b *Backend) SetHooks(hooks *tracing.Hooks) {
	b.State.SetHooks(hooks)
	b.Permit2.hooks = hooks
}

// Backends wires every simulated contract into a router.
func (b *Backend) Backends() vm.Backends {
	return vm.Backends{
		Permit2:           b.Permit2,
		WETH:              b.WETH,
		V2:                b.V2,
		V3:                b.V3,
		PoolManager:       b.PoolManager,
		PositionManagerV3: b.PositionManagerV3,
		PositionManagerV4: b.PositionManagerV4,
		Seaport:           b.Seaport,
		LooksRare:         b.LooksRare,
		X2Y2:              b.X2Y2,
	}
}

// NewRouter deploys a router at RouterAddress wired to every contract.
func (b *Backend) NewRouter(config vm.Config) *vm.Router {
	return vm.NewRouter(RouterAddress, b.State, b.Backends(), config)
}
