package core

import (
	"github.com/clydemeng/bsc-router/core/vm"
)

// PlanExecutor is an abstraction over a plan execution backend. It hides the
// concrete router and its collaborators behind a common interface that the
// CallProcessor can use without knowing how venues are wired.
type PlanExecutor interface {
	// Engine returns a short human identifier of the backend.
	Engine() string

	// ExecutePlan runs plan for ctx. A nil deadline disables the deadline
	// guard.
	ExecutePlan(ctx vm.CallContext, plan vm.Plan, deadline *uint64) error
}

// NewPlanExecutor wraps router into a PlanExecutor.
func NewPlanExecutor(router *vm.Router) PlanExecutor {
	return &routerExecutorAdapter{inner: router}
}

// routerExecutorAdapter bridges the vm.Router to the PlanExecutor interface.
type routerExecutorAdapter struct {
	inner *vm.Router
}

func (r *routerExecutorAdapter) Engine() string { return "router@" + r.inner.Address().Hex() }

func (r *routerExecutorAdapter) ExecutePlan(ctx vm.CallContext, plan vm.Plan, deadline *uint64) error {
	if deadline == nil {
		return r.inner.Execute(ctx, plan)
	}
	return r.inner.ExecuteWithDeadline(ctx, plan, *deadline)
}
