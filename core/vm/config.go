package vm

import "github.com/clydemeng/bsc-router/tracing"

// DefaultMaxSubPlanDepth bounds sub-plan nesting when Config leaves it unset.
const DefaultMaxSubPlanDepth = 32

// Config are the configuration options for the router.
type Config struct {
	// MaxSubPlanDepth is the deepest EXECUTE_SUB_PLAN nesting allowed. The
	// top-level plan is depth 0.
	MaxSubPlanDepth int
	// Tracer receives command, session and balance events. Optional.
	Tracer *tracing.Hooks
}

func (c Config) sanitize() Config {
	if c.MaxSubPlanDepth <= 0 {
		c.MaxSubPlanDepth = DefaultMaxSubPlanDepth
	}
	return c
}
