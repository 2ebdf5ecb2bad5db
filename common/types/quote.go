package types

import (
	"math/big"
	"time"
)

// TxRequest is the transaction payload prepared by the aggregator for a
// bridge or cross-chain swap.
type TxRequest struct {
	To       string
	Data     []byte
	Value    *big.Int
	GasLimit uint64
}

// Quote is an immutable snapshot of an aggregator price estimate.
//
// Fields:
// - FromChain, ToChain: chain identifiers of the route.
// - FromToken: source token contract address on the source chain.
// - FromAmount: input amount in base units.
// - ToAmount: estimated output amount in base units.
// - ToAmountMin: minimum guaranteed output after slippage.
// - ApprovalAddress: spender that must be allowed to pull FromToken.
// - ExecutionDuration: estimated execution time in seconds.
// - TxRequest: the prepared transaction payload.
// - RequestedAt: when the quote was obtained; drives staleness.
type Quote struct {
	FromChain         uint64
	ToChain           uint64
	FromToken         string
	FromAmount        *big.Int
	ToAmount          *big.Int
	ToAmountMin       *big.Int
	ApprovalAddress   string
	ExecutionDuration int
	TxRequest         *TxRequest
	RequestedAt       time.Time
}

// Stale reports whether the quote is older than the validity window and
// must be refreshed before execution.
func (q *Quote) Stale(window time.Duration) bool {
	return time.Since(q.RequestedAt) > window
}
