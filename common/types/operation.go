package types

import "math/big"

// OperationKind identifies a single on-chain operation.
type OperationKind string

const (
	// OpNativeSend transfers the chain's base asset.
	OpNativeSend OperationKind = "NATIVE_SEND"
	// OpTokenTransfer calls transfer on an ERC-20 token.
	OpTokenTransfer OperationKind = "TOKEN_TRANSFER"
	// OpMint mints tokens to a recipient.
	OpMint OperationKind = "MINT"
	// OpBurn burns tokens from a holder via burnFromAny.
	OpBurn OperationKind = "BURN"
	// OpApprove sets an ERC-20 allowance for a spender.
	OpApprove OperationKind = "APPROVE"
	// OpContractCall submits a prepared calldata payload, e.g. an
	// aggregator-built bridge transaction.
	OpContractCall OperationKind = "CONTRACT_CALL"
)

// Operation describes one on-chain operation for a chain executor.
//
// Fields:
// - Kind: the operation kind.
// - ChainID: the chain the operation executes on.
// - TokenAddress: token contract for token operations; empty or the zero
//   address for native operations.
// - From: holder address for burns.
// - To: recipient for transfers and mints, spender for approvals, call
//   target for contract calls.
// - Amount: token amount in base units.
// - Value: native value attached to the transaction, in wei.
// - Data: raw calldata for OpContractCall.
// - GasLimit: optional gas limit override; zero means estimate.
type Operation struct {
	Kind         OperationKind
	ChainID      uint64
	TokenAddress string
	From         string
	To           string
	Amount       *big.Int
	Value        *big.Int
	Data         []byte
	GasLimit     uint64
}

// TxReceipt is the confirmed result of an executed operation.
type TxReceipt struct {
	Hash        string
	ChainID     uint64
	BlockNumber uint64
	GasUsed     uint64
	Status      TransactionStatus
}
