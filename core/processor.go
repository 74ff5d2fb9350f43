package core

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
)

const slowCallThreshold = 50 * time.Millisecond // log calls running longer than this

const (
	// ReceiptStatusFailed is the status of a call whose plan was rolled back.
	ReceiptStatusFailed = uint64(0)
	// ReceiptStatusSuccessful is the status of a call whose plan committed.
	ReceiptStatusSuccessful = uint64(1)
)

// Call is one top-level invocation of the router.
type Call struct {
	Caller common.Address
	Value  *big.Int
	// Deadline is optional; nil runs the plan without the deadline guard.
	Deadline *uint64
	Plan     vm.Plan
}

// Receipt records the outcome of a processed call.
type Receipt struct {
	ID     uuid.UUID
	Index  int
	Caller common.Address
	Status uint64

	// FailedCommand is the index of the failing top-level command, or -1 when
	// the call succeeded or failed before any command ran.
	FailedCommand int
	FailedOp      vm.OpCode
	Err           error
	// Payload is the raw failure output of the failing command.
	Payload []byte

	Elapsed time.Duration
}

// ProcessResult contains the values computed by Process.
type ProcessResult struct {
	Receipts []*Receipt
	Failed   int
}

// ExecutorFactory binds a PlanExecutor to a state.
type ExecutorFactory func(st *state.StateDB) PlanExecutor

// CallProcessor applies calls to a state one after another.
type CallProcessor struct {
	newExecutor ExecutorFactory
	now         func() uint64
}

// NewCallProcessor initialises a new CallProcessor. now supplies the block
// timestamp each call is checked against.
func NewCallProcessor(newExecutor ExecutorFactory, now func() uint64) *CallProcessor {
	return &CallProcessor{newExecutor: newExecutor, now: now}
}

// Process runs every call against st in order. A failing call only rolls
// back its own effects; Process itself only fails when ctx is done.
func (p *CallProcessor) Process(ctx context.Context, st *state.StateDB, calls []Call) (*ProcessResult, error) {
	var (
		executor = p.newExecutor(st)
		result   = &ProcessResult{Receipts: make([]*Receipt, 0, len(calls))}
	)
	for i, call := range calls {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		receipt := p.apply(executor, i, call)
		if receipt.Status == ReceiptStatusFailed {
			result.Failed++
		}
		result.Receipts = append(result.Receipts, receipt)
	}
	log.Debug("Processed calls", "engine", executor.Engine(), "calls", len(calls), "failed", result.Failed)
	return result, nil
}

// Simulate runs call against a copy of st and reports what would happen.
// st is left untouched.
func (p *CallProcessor) Simulate(st *state.StateDB, call Call) *Receipt {
	return p.apply(p.newExecutor(st.Copy()), 0, call)
}

func (p *CallProcessor) apply(executor PlanExecutor, index int, call Call) *Receipt {
	receipt := &Receipt{
		ID:            uuid.New(),
		Index:         index,
		Caller:        call.Caller,
		Status:        ReceiptStatusSuccessful,
		FailedCommand: -1,
	}
	start := time.Now()
	err := executor.ExecutePlan(vm.CallContext{Caller: call.Caller, Value: call.Value, Time: p.now()}, call.Plan, call.Deadline)
	receipt.Elapsed = time.Since(start)
	if receipt.Elapsed > slowCallThreshold {
		log.Info("Slow call", "index", index, "caller", call.Caller, "commands", call.Plan.Len(), "elapsed", common.PrettyDuration(receipt.Elapsed))
	}
	if err != nil {
		receipt.Status = ReceiptStatusFailed
		receipt.Err = err
		var failed *vm.ExecutionFailedError
		if errors.As(err, &failed) {
			receipt.FailedCommand = failed.CommandIndex
			receipt.FailedOp = failed.Op
			receipt.Payload = failed.Payload()
		}
		log.Debug("Call failed", "id", receipt.ID, "index", index, "caller", call.Caller, "err", err)
	}
	return receipt
}
