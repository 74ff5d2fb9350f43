// router executes and inspects command plans against a simulated deployment.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/clydemeng/bsc-router/core"
	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/clydemeng/bsc-router/simulated"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

var (
	worldFlag = &cli.StringFlag{
		Name:     "world",
		Usage:    "TOML file describing balances, pools and listings",
		Required: true,
	}
	dryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Simulate every call against the initial world instead of applying them in order",
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print receipts as JSON",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 2,
	}
	planFileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Plan file whose calls are decoded",
	}
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Execute plan files against a simulated world",
	ArgsUsage: "<plan.json> [<plan.json>...]",
	Flags:     []cli.Flag{worldFlag, dryRunFlag, jsonFlag},
	Action:    runPlans,
}

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "Print the commands of a plan",
	ArgsUsage: "[<hex plan blob>]",
	Flags:     []cli.Flag{planFileFlag},
	Action:    decodePlans,
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "router",
		Usage:    "command plan router",
		Flags:    []cli.Flag{verbosityFlag},
		Commands: []*cli.Command{runCommand, decodeCommand},
		Before: func(ctx *cli.Context) error {
			level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
			log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, true)))
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPlans(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("no plan files given")
	}
	var cfg worldConfig
	if err := loadWorld(ctx.String(worldFlag.Name), &cfg); err != nil {
		return err
	}
	if cfg.Time == 0 {
		cfg.Time = uint64(time.Now().Unix())
	}
	backend, err := cfg.deploy()
	if err != nil {
		return err
	}
	var calls []core.Call
	for _, file := range ctx.Args().Slice() {
		loaded, err := loadCalls(file)
		if err != nil {
			return err
		}
		calls = append(calls, loaded...)
	}

	config := vm.Config{MaxSubPlanDepth: cfg.MaxSubPlanDepth}
	processor := core.NewCallProcessor(func(st *state.StateDB) core.PlanExecutor {
		if st == backend.State {
			return core.NewPlanExecutor(backend.NewRouter(config))
		}
		return core.NewPlanExecutor(simulated.NewBackend(st, cfg.Time).NewRouter(config))
	}, func() uint64 { return cfg.Time })

	var receipts []*core.Receipt
	if ctx.Bool(dryRunFlag.Name) {
		for i, call := range calls {
			receipt := processor.Simulate(backend.State, call)
			receipt.Index = i
			receipts = append(receipts, receipt)
		}
	} else {
		sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := processor.Process(sigctx, backend.State, calls)
		if result != nil {
			receipts = result.Receipts
		}
		if err != nil {
			log.Warn("Processing interrupted", "processed", len(receipts), "calls", len(calls), "err", err)
		}
	}
	executed, failed := vm.ProfileCounters()
	log.Info("Finished calls", "calls", len(receipts), "commands", executed, "failedCommands", failed)

	if ctx.Bool(jsonFlag.Name) {
		return writeReceiptsJSON(ctx.App.Writer, receipts)
	}
	writeReceiptsTable(ctx.App.Writer, receipts)
	return nil
}

func decodePlans(ctx *cli.Context) error {
	w := ctx.App.Writer
	if file := ctx.String(planFileFlag.Name); file != "" {
		calls, err := loadCalls(file)
		if err != nil {
			return err
		}
		for i, call := range calls {
			fmt.Fprintf(w, "call %d from %s\n", i, call.Caller.Hex())
			if err := vm.Describe(w, call.Plan); err != nil {
				return fmt.Errorf("call %d: %w", i, err)
			}
		}
		return nil
	}
	if ctx.NArg() != 1 {
		return fmt.Errorf("need a plan blob or --%s", planFileFlag.Name)
	}
	arg := ctx.Args().First()
	if !strings.HasPrefix(arg, "0x") {
		arg = "0x" + arg
	}
	blob, err := hexutil.Decode(arg)
	if err != nil {
		return err
	}
	plan, err := vm.DecodePlan(blob)
	if err != nil {
		return err
	}
	return vm.Describe(w, plan)
}
