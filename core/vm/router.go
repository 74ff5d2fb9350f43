package vm

import (
	"fmt"
	"math/big"
	"time"

	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// CallContext describes one top-level call into the router.
type CallContext struct {
	Caller common.Address
	// Value is the native amount attached to the call. It is credited to the
	// router before the first command runs.
	Value *big.Int
	// Time is the current block timestamp, checked against the deadline.
	Time uint64
}

// Router executes plans against its collaborators. It holds no state of its
// own apart from the reentrancy lock; balances live in the StateDB.
type Router struct {
	address  common.Address
	state    StateDB
	backends Backends
	rules    Rules
	config   Config
	lock     lock
	logger   log.Logger
}

// NewRouter creates a router living at address.
func NewRouter(address common.Address, state StateDB, backends Backends, config Config) *Router {
	return &Router{
		address:  address,
		state:    state,
		backends: backends,
		rules:    backends.Rules(),
		config:   config.sanitize(),
		logger:   log.New("router", address),
	}
}

// Address returns the router's own address, the value AddressThis resolves to.
func (r *Router) Address() common.Address { return r.address }

// Rules returns the opcode families the router is wired for.
func (r *Router) Rules() Rules { return r.rules }

// Locker returns the caller of the call in progress, zero when idle.
func (r *Router) Locker() common.Address { return r.lock.Locker() }

// Execute runs plan on behalf of ctx.Caller without a deadline.
func (r *Router) Execute(ctx CallContext, plan Plan) error {
	return r.execute(ctx, plan, nil)
}

// ExecuteWithDeadline runs plan unless ctx.Time is past deadline.
func (r *Router) ExecuteWithDeadline(ctx CallContext, plan Plan, deadline uint64) error {
	return r.execute(ctx, plan, &deadline)
}

func (r *Router) execute(ctx CallContext, plan Plan, deadline *uint64) (err error) {
	if deadline != nil {
		if err := checkDeadline(*deadline, ctx.Time); err != nil {
			return err
		}
	}
	release, err := r.lock.acquire(ctx.Caller)
	if err != nil {
		return err
	}
	defer release()

	if err := plan.validate(0, r.config.MaxSubPlanDepth); err != nil {
		return err
	}
	start := time.Now()
	snapshot := r.state.Snapshot()
	defer func() {
		planTimer.UpdateSince(start)
		if err != nil {
			r.state.RevertToSnapshot(snapshot)
			planFailMeter.Mark(1)
			r.logger.Debug("Plan reverted", "caller", ctx.Caller, "commands", plan.Len(), "err", err)
		}
	}()
	if ctx.Value != nil && ctx.Value.Sign() > 0 {
		if err := r.state.Transfer(types.NativeCurrency, ctx.Caller, r.address, ctx.Value, tracing.BalanceChangeCallValue); err != nil {
			return fmt.Errorf("%w: %v", ErrInsufficientETH, err)
		}
	}
	r.logger.Debug("Executing plan", "caller", ctx.Caller, "commands", plan.Len(), "value", ctx.Value)
	return r.run(&frame{ctx: ctx}, plan)
}

// frame is the execution context of one plan level.
type frame struct {
	ctx   CallContext
	depth int
}

func (f *frame) caller() common.Address { return f.ctx.Caller }

// child returns the frame of a sub-plan.
func (f *frame) child() *frame {
	return &frame{ctx: f.ctx, depth: f.depth + 1}
}

// run executes the commands of plan in order. A failing command aborts the
// level unless it allows revert, in which case its effects are rolled back
// and the loop continues. Structural errors are never swallowed.
func (r *Router) run(f *frame, plan Plan) error {
	hooks := r.config.Tracer
	for i := 0; i < plan.Len(); i++ {
		cmd := plan.Command(i)
		if hooks != nil && hooks.OnCommandStart != nil {
			hooks.OnCommandStart(f.depth, i, byte(cmd.Op), cmd.AllowRevert)
		}
		markCommand(cmd.Op)

		snapshot := -1
		if cmd.AllowRevert {
			snapshot = r.state.Snapshot()
		}
		err := r.dispatch(f, cmd)
		swallowed := err != nil && cmd.AllowRevert && !structural(err)
		if hooks != nil && hooks.OnCommandEnd != nil {
			hooks.OnCommandEnd(f.depth, i, byte(cmd.Op), err, swallowed)
		}
		if err == nil {
			continue
		}
		if swallowed {
			r.state.RevertToSnapshot(snapshot)
			commandSwallowMeter.Mark(1)
			r.logger.Debug("Command failed, continuing", "depth", f.depth, "index", i, "op", cmd.Op, "err", err)
			continue
		}
		commandFailMeter.Mark(1)
		return &ExecutionFailedError{CommandIndex: i, Op: cmd.Op, Err: err}
	}
	return nil
}

// runSubPlan executes a nested plan one level deeper.
func (r *Router) runSubPlan(f *frame, p ExecuteSubPlanParams) error {
	child := f.child()
	if child.depth > r.config.MaxSubPlanDepth {
		return fmt.Errorf("%w: depth %d, max %d", ErrSubPlanDepthExceeded, child.depth, r.config.MaxSubPlanDepth)
	}
	plan := Plan{Commands: p.Commands, Inputs: p.Inputs}
	if err := plan.checkShape(); err != nil {
		return err
	}
	subPlanDepthGauge.Update(int64(child.depth))
	return r.run(child, plan)
}
