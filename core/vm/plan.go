package vm

import (
	"fmt"

	"github.com/clydemeng/bsc-router/core/types"
)

// Plan is a submitted batch: one command byte per entry and one input blob
// per command, index aligned.
type Plan struct {
	Commands []byte
	Inputs   [][]byte
}

// Len returns the number of commands.
func (p Plan) Len() int { return len(p.Commands) }

// Command materialises entry i.
func (p Plan) Command(i int) Command {
	op, allowRevert := ParseCommand(p.Commands[i])
	return Command{Op: op, AllowRevert: allowRevert, Input: p.Inputs[i]}
}

// Validate checks the shape of the plan: aligned arrays and no allow-revert
// flag on an opcode outside the revertible set. Nested sub-plans are checked
// the same way, down to DefaultMaxSubPlanDepth levels.
func (p Plan) Validate() error {
	return p.validate(0, DefaultMaxSubPlanDepth)
}

// validate checks p, found depth levels below the top-level plan, and every
// sub-plan it carries. Sub-plan inputs that do not decode are left to the
// dispatcher, which reports them as malformed parameters.
func (p Plan) validate(depth, maxDepth int) error {
	if err := p.checkShape(); err != nil {
		if depth > 0 {
			return fmt.Errorf("sub-plan at depth %d: %w", depth, err)
		}
		return err
	}
	for i, b := range p.Commands {
		if op, _ := ParseCommand(b); op != EXECUTE_SUB_PLAN {
			continue
		}
		params, err := DecodeParams(EXECUTE_SUB_PLAN, p.Inputs[i])
		if err != nil {
			continue
		}
		if depth+1 > maxDepth {
			return fmt.Errorf("%w: depth %d, max %d", ErrSubPlanDepthExceeded, depth+1, maxDepth)
		}
		sub := params.(ExecuteSubPlanParams)
		if err := (Plan{Commands: sub.Commands, Inputs: sub.Inputs}).validate(depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

// checkShape validates one plan level without descending into sub-plans.
func (p Plan) checkShape() error {
	if len(p.Commands) != len(p.Inputs) {
		return fmt.Errorf("%w: %d commands, %d inputs", ErrMalformedPlan, len(p.Commands), len(p.Inputs))
	}
	for i, b := range p.Commands {
		op, allowRevert := ParseCommand(b)
		if allowRevert && !op.IsRevertible() {
			return fmt.Errorf("%w: command %d (%v) cannot allow revert", ErrMalformedPlan, i, op)
		}
	}
	return nil
}

// Encode serialises the plan as (bytes commands, bytes[] inputs).
func (p Plan) Encode() ([]byte, error) {
	return types.EncodePlan(p.Commands, p.Inputs)
}

// DecodePlan parses a (bytes commands, bytes[] inputs) blob.
func DecodePlan(blob []byte) (Plan, error) {
	commands, inputs, err := types.DecodePlan(blob)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Commands: commands, Inputs: inputs}, nil
}
