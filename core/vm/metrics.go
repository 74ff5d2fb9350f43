package vm

import (
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	planTimer           = metrics.NewRegisteredTimer("router/plans/execution", nil)
	planFailMeter       = metrics.NewRegisteredMeter("router/plans/failed", nil)
	commandMeter        = metrics.NewRegisteredMeter("router/commands/executed", nil)
	commandFailMeter    = metrics.NewRegisteredMeter("router/commands/failed", nil)
	commandSwallowMeter = metrics.NewRegisteredMeter("router/commands/swallowed", nil)
	subPlanDepthGauge   = metrics.NewRegisteredGauge("router/subplans/depth", nil)
	sessionMeter        = metrics.NewRegisteredMeter("router/v4/sessions", nil)
)

// family groups opcodes by the protocol they talk to.
func (op OpCode) family() string {
	switch op {
	case V3_SWAP_EXACT_IN, V3_SWAP_EXACT_OUT:
		return "v3"
	case V2_SWAP_EXACT_IN, V2_SWAP_EXACT_OUT:
		return "v2"
	case V4_SWAP, V4_INITIALIZE_POOL:
		return "v4"
	case PERMIT2_TRANSFER_FROM, PERMIT2_PERMIT_BATCH, PERMIT2_PERMIT, PERMIT2_TRANSFER_FROM_BATCH:
		return "permit2"
	case SWEEP, TRANSFER, PAY_PORTION, WRAP_ETH, UNWRAP_WETH, BALANCE_CHECK_ERC20:
		return "payments"
	case V3_POSITION_MANAGER_PERMIT, V3_POSITION_MANAGER_CALL, V4_POSITION_MANAGER_CALL:
		return "positions"
	case SEAPORT_V1_5, LOOKS_RARE_V2, X2Y2_721, OWNER_CHECK_721, SWEEP_ERC721:
		return "nft"
	case EXECUTE_SUB_PLAN:
		return "subplan"
	default:
		return "unknown"
	}
}

func markCommand(op OpCode) {
	commandMeter.Mark(1)
	metrics.GetOrRegisterMeter("router/commands/"+op.family(), nil).Mark(1)
}

// ProfileCounters returns the number of executed and failed commands since
// start.
func ProfileCounters() (int64, int64) {
	return commandMeter.Snapshot().Count(), commandFailMeter.Snapshot().Count()
}
