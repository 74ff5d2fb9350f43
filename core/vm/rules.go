package vm

// Rules records which opcode families a router can serve, derived once from
// its Backends.
type Rules struct {
	IsPermit2, IsWETH              bool
	IsV2, IsV3, IsV4               bool
	IsV3Positions, IsV4Positions   bool
	IsSeaport, IsLooksRare, IsX2Y2 bool
}

// Rules derives the family switches from the wired collaborators.
func (b Backends) Rules() Rules {
	return Rules{
		IsPermit2:     b.Permit2 != nil,
		IsWETH:        b.WETH != nil,
		IsV2:          b.V2 != nil,
		IsV3:          b.V3 != nil,
		IsV4:          b.PoolManager != nil,
		IsV3Positions: b.PositionManagerV3 != nil,
		IsV4Positions: b.PositionManagerV4 != nil,
		IsSeaport:     b.Seaport != nil,
		IsLooksRare:   b.LooksRare != nil,
		IsX2Y2:        b.X2Y2 != nil,
	}
}

// Supports reports whether op has the collaborators it needs. Opcodes that
// only touch the router's own ledger are always supported.
func (r Rules) Supports(op OpCode) bool {
	switch op {
	case PERMIT2_TRANSFER_FROM, PERMIT2_PERMIT_BATCH, PERMIT2_PERMIT, PERMIT2_TRANSFER_FROM_BATCH:
		return r.IsPermit2
	case WRAP_ETH, UNWRAP_WETH:
		return r.IsWETH
	case V2_SWAP_EXACT_IN, V2_SWAP_EXACT_OUT:
		return r.IsV2
	case V3_SWAP_EXACT_IN, V3_SWAP_EXACT_OUT:
		return r.IsV3
	case V4_SWAP, V4_INITIALIZE_POOL:
		return r.IsV4
	case V3_POSITION_MANAGER_PERMIT, V3_POSITION_MANAGER_CALL:
		return r.IsV3Positions
	case V4_POSITION_MANAGER_CALL:
		return r.IsV4Positions
	case SEAPORT_V1_5:
		return r.IsSeaport
	case LOOKS_RARE_V2:
		return r.IsLooksRare
	case X2Y2_721:
		return r.IsX2Y2
	}
	return true
}
