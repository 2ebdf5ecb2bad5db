package types

import (
	"math/big"
	"time"
)

// TransferKind classifies an incoming transfer request.
type TransferKind string

const (
	// KindRedeem is a voucher redemption settled by a fee-split mint.
	KindRedeem TransferKind = "REDEEM"
	// KindSwap is a same-chain token-for-native swap.
	KindSwap TransferKind = "SWAP"
	// KindSend is a value transfer between two addresses.
	KindSend TransferKind = "SEND"
	// KindBridge is a cross-chain transfer via the aggregator.
	KindBridge TransferKind = "BRIDGE"
)

// ParseTransferKind converts a string to a TransferKind.
func ParseTransferKind(s string) TransferKind {
	switch TransferKind(s) {
	case KindRedeem, KindSwap, KindSend, KindBridge:
		return TransferKind(s)
	default:
		return ""
	}
}

// TransferRequest is the unit of work owned by the orchestrator for its
// whole lifetime. Other components never retain it beyond the call in
// which it is passed.
//
// Fields:
// - ID: opaque correlation identifier assigned at intake.
// - Kind: the transfer classification.
// - FromAddress: source chain address.
// - ToAddress: destination chain address.
// - Token: token symbol, resolved per (token, chain) pair.
// - FromToken: source-side token symbol for bridges; empty means Token.
// - ToToken: destination-side token symbol for bridges; empty means FromToken.
// - Amount: decimal amount in human units as supplied by the caller.
// - BaseAmount: Amount converted to the token's integer base unit.
// - FromChain: source chain identifier.
// - ToChain: destination chain identifier, equal to FromChain for same-chain operations.
// - NotifyContact: optional contact address for best-effort notification.
// - VoucherCode: voucher code, set for redemptions only.
// - MinOut: caller-supplied minimum output for swaps, passed through unmodified.
// - Status: current lifecycle status, advances monotonically.
type TransferRequest struct {
	ID            string
	Kind          TransferKind
	FromAddress   string
	ToAddress     string
	Token         string
	FromToken     string
	ToToken       string
	Amount        string
	BaseAmount    *big.Int
	FromChain     uint64
	ToChain       uint64
	NotifyContact string
	VoucherCode   string
	MinOut        *big.Int
	Status        TransferStatus
	AcceptedAt    time.Time

	// SenderKey is an optional caller-supplied private key for sends funded
	// by the caller's own wallet. Never logged or persisted.
	SenderKey string
}

// SameChain reports whether the request stays on a single chain.
func (r *TransferRequest) SameChain() bool {
	return r.FromChain == r.ToChain
}

// AcceptanceReceipt is returned synchronously at intake, before any chain
// interaction begins.
type AcceptanceReceipt struct {
	RequestID  string
	Status     TransferStatus
	AcceptedAt time.Time
}
