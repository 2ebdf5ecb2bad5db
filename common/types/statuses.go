package types

// TransferStatus is the lifecycle status of a transfer request.
type TransferStatus string

const (
	// StatusAccepted is set at intake, before any chain interaction.
	StatusAccepted TransferStatus = "ACCEPTED"
	// StatusRouting is set when the router starts classifying the request.
	StatusRouting TransferStatus = "ROUTING"
	// StatusSettling is set when the preferred path starts executing.
	StatusSettling TransferStatus = "SETTLING"
	// StatusFallbackSettling is set when the preferred path was unavailable
	// and the fallback path started executing.
	StatusFallbackSettling TransferStatus = "FALLBACK_SETTLING"
	// StatusCompleted is the successful terminal status.
	StatusCompleted TransferStatus = "COMPLETED"
	// StatusFailed is the unsuccessful terminal status.
	StatusFailed TransferStatus = "FAILED"
)

// statusRank orders statuses so that a transfer can never regress.
var statusRank = map[TransferStatus]int{
	StatusAccepted:         0,
	StatusRouting:          1,
	StatusSettling:         2,
	StatusFallbackSettling: 3,
	StatusCompleted:        4,
	StatusFailed:           4,
}

// Terminal reports whether the status is a terminal one.
func (s TransferStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Advance moves the request status forward. A transition to an earlier or
// equal stage is ignored and reported as false.
func (r *TransferRequest) Advance(next TransferStatus) bool {
	if statusRank[next] <= statusRank[r.Status] {
		return false
	}
	r.Status = next
	return true
}

// TransactionStatus is the outcome of waiting for an on-chain confirmation.
type TransactionStatus string

const (
	// TxDone indicates the transaction was confirmed successfully.
	TxDone TransactionStatus = "DONE"
	// TxFailed indicates the transaction was rejected on-chain.
	TxFailed TransactionStatus = "FAILED"
	// TxIndeterminate indicates the confirmation wait timed out and the
	// on-chain outcome is unknown.
	TxIndeterminate TransactionStatus = "INDETERMINATE"
)
