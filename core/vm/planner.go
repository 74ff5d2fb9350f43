package vm

import (
	"fmt"
)

// Planner assembles a Plan from typed params. The first error sticks and is
// reported by Plan, so calls can be chained.
//
//	plan, err := vm.NewPlanner().
//		Add(vm.WrapETHParams{Recipient: types.AddressThis, Amount: amount}).
//		Add(vm.V2SwapExactInParams{...}).
//		Plan()
type Planner struct {
	commands []byte
	inputs   [][]byte
	err      error
}

// NewPlanner returns an empty planner.
func NewPlanner() *Planner {
	return new(Planner)
}

func (p *Planner) add(params Params, allowRevert bool) *Planner {
	if p.err != nil {
		return p
	}
	op := params.OpCode()
	if allowRevert && !op.IsRevertible() {
		p.err = fmt.Errorf("%w: command %d (%v) cannot allow revert", ErrMalformedPlan, len(p.commands), op)
		return p
	}
	input, err := EncodeParams(params)
	if err != nil {
		p.err = fmt.Errorf("command %d (%v): %w", len(p.commands), op, err)
		return p
	}
	p.commands = append(p.commands, CommandByte(op, allowRevert))
	p.inputs = append(p.inputs, input)
	return p
}

// Add appends a command that aborts the plan when it fails.
func (p *Planner) Add(params Params) *Planner {
	return p.add(params, false)
}

// AddRevertible appends a command whose failure is swallowed. Only
// EXECUTE_SUB_PLAN and the permit opcodes accept it.
func (p *Planner) AddRevertible(params Params) *Planner {
	return p.add(params, true)
}

// AddSubPlan embeds the commands of sub as one EXECUTE_SUB_PLAN command.
func (p *Planner) AddSubPlan(sub *Planner, allowRevert bool) *Planner {
	if p.err != nil {
		return p
	}
	plan, err := sub.Plan()
	if err != nil {
		p.err = fmt.Errorf("sub-plan at command %d: %w", len(p.commands), err)
		return p
	}
	return p.add(ExecuteSubPlanParams{Commands: plan.Commands, Inputs: plan.Inputs}, allowRevert)
}

// Len returns the number of commands added so far.
func (p *Planner) Len() int { return len(p.commands) }

// Plan returns the assembled plan or the first error.
func (p *Planner) Plan() (Plan, error) {
	if p.err != nil {
		return Plan{}, p.err
	}
	return Plan{
		Commands: append([]byte{}, p.commands...),
		Inputs:   append([][]byte{}, p.inputs...),
	}, nil
}

// MustPlan is Plan for statically built plans; it panics on error.
func (p *Planner) MustPlan() Plan {
	plan, err := p.Plan()
	if err != nil {
		panic(err)
	}
	return plan
}
