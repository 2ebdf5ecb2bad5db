package types

import "math/big"

// PathKind is a tagged choice of execution route. It is chosen once per
// request; a FastChannel path that fails transitions to OnChainDirect as an
// explicit fallback, not a retry.
type PathKind string

const (
	// PathFastChannel settles through the off-chain batching channel.
	PathFastChannel PathKind = "FAST_CHANNEL"
	// PathOnChainDirect settles with direct on-chain transactions.
	PathOnChainDirect PathKind = "ON_CHAIN_DIRECT"
	// PathBridge settles through an aggregator route.
	PathBridge PathKind = "BRIDGE"
)

// SettlementPath records the route chosen for a request, together with the
// quote when the route is a bridge.
type SettlementPath struct {
	Kind  PathKind
	Quote *Quote
}

// SettlementOutcome is the terminal record of a settlement, produced exactly
// once per request.
//
// Fields:
// - Success: whether the transfer settled.
// - Pending: set for fast-channel acceptances whose on-chain finalization
//   happens later in the channel's batch.
// - Path: the route that produced the outcome.
// - TxHashes: on-chain transaction references, in execution order.
// - ChannelRef: the fast channel's transaction identifier, if queued there.
// - OutputAmount: realized (or quoted) output in base units.
// - EthAmount: gas-reserve output of a fee-split redemption, in wei.
// - Indeterminate: a confirmation wait timed out and the on-chain state is unknown.
// - Error: failure detail when Success is false.
type SettlementOutcome struct {
	Success       bool
	Pending       bool
	Path          PathKind
	TxHashes      []string
	ChannelRef    string
	OutputAmount  *big.Int
	EthAmount     *big.Int
	Indeterminate bool
	Error         string
}

// TxHash returns the last transaction reference of the outcome, which for
// multi-step settlements is the hash delivered to the recipient.
func (o *SettlementOutcome) TxHash() string {
	if len(o.TxHashes) == 0 {
		return ""
	}
	return o.TxHashes[len(o.TxHashes)-1]
}
