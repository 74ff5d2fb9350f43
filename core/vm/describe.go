package vm

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/clydemeng/bsc-router/core/vm/actions"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Describe writes a readable tree of plan to w, one line per command.
// Sub-plans and action lists are expanded beneath the command that carries
// them. Commands that fail to decode are printed with the decoding error and
// their raw input. Sub-plans nested deeper than DefaultMaxSubPlanDepth are
// not expanded.
func Describe(w io.Writer, plan Plan) error {
	if err := plan.checkShape(); err != nil {
		return err
	}
	return describe(w, plan, 0)
}

func describe(w io.Writer, plan Plan, depth int) error {
	indent := strings.Repeat("  ", depth)
	for i := 0; i < plan.Len(); i++ {
		cmd := plan.Command(i)
		flag := ""
		if cmd.AllowRevert {
			flag = " (allow revert)"
		}
		params, err := DecodeParams(cmd.Op, cmd.Input)
		if err != nil {
			fmt.Fprintf(w, "%s%d: %v%s !%v %s\n", indent, i, cmd.Op, flag, err, hexutil.Encode(cmd.Input))
			continue
		}
		switch p := params.(type) {
		case ExecuteSubPlanParams:
			fmt.Fprintf(w, "%s%d: %v%s\n", indent, i, cmd.Op, flag)
			if depth+1 > DefaultMaxSubPlanDepth {
				fmt.Fprintf(w, "%s  !%v\n", indent, ErrSubPlanDepthExceeded)
				continue
			}
			sub := Plan{Commands: p.Commands, Inputs: p.Inputs}
			if err := sub.checkShape(); err != nil {
				fmt.Fprintf(w, "%s  !%v\n", indent, err)
				continue
			}
			if err := describe(w, sub, depth+1); err != nil {
				return err
			}
		case V4SwapParams:
			fmt.Fprintf(w, "%s%d: %v%s\n", indent, i, cmd.Op, flag)
			describeActions(w, actions.List{Actions: p.Actions, Params: p.Params}, depth+1)
		case V3PositionManagerPermitParams, V3PositionManagerCallParams, V4PositionManagerCallParams:
			fmt.Fprintf(w, "%s%d: %v%s %s\n", indent, i, cmd.Op, flag, describeCall(cmd.Input))
			if call, ok := p.(V4PositionManagerCallParams); ok {
				if list, err := unlockData(call.Calldata); err == nil {
					describeActions(w, list, depth+1)
				}
			}
		default:
			fmt.Fprintf(w, "%s%d: %v%s %+v\n", indent, i, cmd.Op, flag, p)
		}
	}
	return nil
}

func describeActions(w io.Writer, list actions.List, depth int) {
	indent := strings.Repeat("  ", depth)
	if len(list.Actions) != len(list.Params) {
		fmt.Fprintf(w, "%s!%v\n", indent, actions.ErrInputLengthMismatch)
		return
	}
	for i := 0; i < list.Len(); i++ {
		a, blob := list.At(i)
		p, err := actions.DecodeParams(a, blob)
		if err != nil {
			fmt.Fprintf(w, "%s%d: %v !%v\n", indent, i, a, err)
			continue
		}
		fmt.Fprintf(w, "%s%d: %v %+v\n", indent, i, a, p)
	}
}

// describeCall names the position manager method calldata invokes.
func describeCall(calldata []byte) string {
	sel := selector(calldata)
	for _, methods := range []map[string]abi.Method{V3PositionManagerABI.Methods, V4PositionManagerABI.Methods} {
		for name, m := range methods {
			if bytes.Equal(sel, m.ID) {
				return name
			}
		}
	}
	return "call " + hexutil.Encode(sel)
}
