package tracing

// BalanceChangeReason is a description of the reason why a balance was changed.
type BalanceChangeReason int

const (
	BalanceChangeUnspecified BalanceChangeReason = iota
	BalanceChangeGenesis
	BalanceChangeTransfer
	BalanceChangeCallValue
	BalanceChangeMint
	BalanceChangeBurn
	BalanceChangeWrap
	BalanceChangeUnwrap
	BalanceChangePermit2Transfer
	BalanceChangeSwap
	BalanceChangeSettle
	BalanceChangeTake
	BalanceChangeMarketplace
)

// String returns a human-readable string for the reason.
func (r BalanceChangeReason) String() string {
	switch r {
	case BalanceChangeUnspecified:
		return "unspecified"
	case BalanceChangeGenesis:
		return "genesis"
	case BalanceChangeTransfer:
		return "transfer"
	case BalanceChangeCallValue:
		return "call_value"
	case BalanceChangeMint:
		return "mint"
	case BalanceChangeBurn:
		return "burn"
	case BalanceChangeWrap:
		return "wrap"
	case BalanceChangeUnwrap:
		return "unwrap"
	case BalanceChangePermit2Transfer:
		return "permit2_transfer"
	case BalanceChangeSwap:
		return "swap"
	case BalanceChangeSettle:
		return "settle"
	case BalanceChangeTake:
		return "take"
	case BalanceChangeMarketplace:
		return "marketplace"
	}
	return "unknown"
}

// NonceChangeReason is a description of the reason why an allowance nonce was
// changed.
type NonceChangeReason int

const (
	NonceChangeUnspecified NonceChangeReason = iota
	NonceChangePermit
)

// String returns a human-readable string for the reason.
func (r NonceChangeReason) String() string {
	switch r {
	case NonceChangeUnspecified:
		return "unspecified"
	case NonceChangePermit:
		return "permit"
	}
	return "unknown"
}
