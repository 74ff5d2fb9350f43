package vm

import (
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/ethereum/go-ethereum/common"
)

// routerHost exposes the router to the action interpreter as the locker of
// a pool manager session.
type routerHost struct {
	r *Router
	f *frame
}

func (h routerHost) Caller() common.Address { return h.f.caller() }
func (h routerHost) Self() common.Address   { return h.r.address }

func (h routerHost) Pay(currency, payer, recipient common.Address, amount *big.Int) error {
	return h.r.payOrPermit2Transfer(currency, payer, recipient, amount)
}

func (h routerHost) BalanceOf(currency, owner common.Address) *big.Int {
	return h.r.balanceOf(currency, owner)
}

// opV4Swap runs an action list inside one pool manager session.
func (r *Router) opV4Swap(f *frame, p V4SwapParams) error {
	if len(p.Actions) != len(p.Params) {
		return fmt.Errorf("%w: %v: %d actions, %d params", ErrMalformedParameters, actions.ErrInputLengthMismatch, len(p.Actions), len(p.Params))
	}
	manager := r.backends.PoolManager
	hooks := r.config.Tracer
	if hooks != nil && hooks.OnSessionStart != nil {
		hooks.OnSessionStart(manager.Address(), r.address)
	}
	sessionMeter.Mark(1)
	err := actions.Execute(actions.Env{Manager: manager, Host: routerHost{r: r, f: f}}, actions.List{Actions: p.Actions, Params: p.Params})
	if hooks != nil && hooks.OnSessionEnd != nil {
		hooks.OnSessionEnd(manager.Address(), r.address, err)
	}
	if err != nil {
		r.logger.Debug("Pool manager session rolled back", "caller", f.caller(), "actions", len(p.Actions), "err", err)
	}
	return err
}

func (r *Router) opV4InitializePool(f *frame, p V4InitializePoolParams) error {
	tick, err := r.backends.PoolManager.Initialize(p.PoolKey, p.SqrtPriceX96)
	if err != nil {
		return err
	}
	r.logger.Debug("Initialized pool", "id", p.PoolKey.ID(), "tick", tick)
	return nil
}
