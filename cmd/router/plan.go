package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clydemeng/bsc-router/core"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/olekukonko/tablewriter"
)

// callJSON is one call of a plan file. The plan is given either as
// commands and inputs or as the ABI encoded (bytes, bytes[]) blob in Data.
type callJSON struct {
	Caller   common.Address  `json:"caller"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Deadline *hexutil.Uint64 `json:"deadline,omitempty"`
	Commands hexutil.Bytes   `json:"commands,omitempty"`
	Inputs   []hexutil.Bytes `json:"inputs,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
}

func (c *callJSON) toCall() (core.Call, error) {
	call := core.Call{Caller: c.Caller}
	if c.Value != nil {
		call.Value = c.Value.ToInt()
	}
	if c.Deadline != nil {
		deadline := uint64(*c.Deadline)
		call.Deadline = &deadline
	}
	if len(c.Data) > 0 {
		if len(c.Commands) > 0 || len(c.Inputs) > 0 {
			return core.Call{}, fmt.Errorf("%w: both data and commands given", vm.ErrMalformedPlan)
		}
		plan, err := vm.DecodePlan(c.Data)
		if err != nil {
			return core.Call{}, err
		}
		call.Plan = plan
		return call, nil
	}
	call.Plan.Commands = c.Commands
	call.Plan.Inputs = make([][]byte, len(c.Inputs))
	for i, input := range c.Inputs {
		call.Plan.Inputs[i] = input
	}
	return call, nil
}

// readCalls parses a JSON array of calls.
func readCalls(r io.Reader) ([]core.Call, error) {
	var raw []callJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	calls := make([]core.Call, len(raw))
	for i := range raw {
		call, err := raw[i].toCall()
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		calls[i] = call
	}
	return calls, nil
}

func loadCalls(file string) ([]core.Call, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	calls, err := readCalls(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return calls, nil
}

// receiptJSON is the machine readable form of a receipt.
type receiptJSON struct {
	ID            string         `json:"id"`
	Index         int            `json:"index"`
	Caller        common.Address `json:"caller"`
	Status        hexutil.Uint64 `json:"status"`
	FailedCommand int            `json:"failedCommand"`
	FailedOp      string         `json:"failedOp,omitempty"`
	Error         string         `json:"error,omitempty"`
	Payload       hexutil.Bytes  `json:"payload,omitempty"`
}

func toReceiptJSON(r *core.Receipt) receiptJSON {
	out := receiptJSON{
		ID:            r.ID.String(),
		Index:         r.Index,
		Caller:        r.Caller,
		Status:        hexutil.Uint64(r.Status),
		FailedCommand: r.FailedCommand,
		Payload:       r.Payload,
	}
	if r.FailedCommand >= 0 {
		out.FailedOp = r.FailedOp.String()
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func writeReceiptsJSON(w io.Writer, receipts []*core.Receipt) error {
	out := make([]receiptJSON, len(receipts))
	for i, r := range receipts {
		out[i] = toReceiptJSON(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeReceiptsTable(w io.Writer, receipts []*core.Receipt) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "ID", "Caller", "Status", "Command", "Error", "Elapsed"})
	table.SetAutoWrapText(false)
	for _, r := range receipts {
		status, command := "ok", ""
		if r.Status == core.ReceiptStatusFailed {
			status = "failed"
		}
		if r.FailedCommand >= 0 {
			command = fmt.Sprintf("%d %v", r.FailedCommand, r.FailedOp)
		}
		var reason string
		if r.Err != nil {
			reason = firstLine(r.Err.Error())
		}
		table.Append([]string{
			fmt.Sprint(r.Index),
			r.ID.String()[:8],
			r.Caller.Hex(),
			status,
			command,
			reason,
			common.PrettyDuration(r.Elapsed).String(),
		})
	}
	table.Render()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
