package types

import (
	"context"
	"math/big"
	"time"
)

// ChainConfig holds the configuration for a specific chain executor.
//
// Fields:
// - Name: the name of the chain.
// - ChainType: the type of the chain.
// - ChainID: the unique identifier for the chain.
// - RpcUrl: the URL for the chain's RPC endpoint.
// - TxType: the type of transactions supported by the chain.
// - WaitNBlocks: the number of blocks to wait for transaction confirmation.
// - PrivateKey: the private key for signing transactions.
// - TokenAddress: the settlement token contract on this chain.
// - VoucherManager: the voucher redemption contract on this chain.
// - SwapRouter: the swap contract used for token-to-native swaps.
type ChainConfig struct {
	Name           string
	ChainType      ChainType
	ChainID        uint64
	RpcUrl         string
	TxType         uint64
	WaitNBlocks    uint64
	PrivateKey     string
	TokenAddress   string
	VoucherManager string
	SwapRouter     string

	// ConfirmTimeout bounds each confirmation wait. Zero uses the executor
	// default.
	ConfirmTimeout time.Duration
}

// GasEstimator provides gas estimation functionality.
type GasEstimator interface {
	// EstimateGas estimates the gas required for a transaction.
	EstimateGas(ctx context.Context, to string, value *big.Int, data []byte) (uint64, error)
}

// OperationSender submits a single on-chain operation.
type OperationSender interface {
	// Execute submits the operation and blocks until the chain reports
	// confirmation, the operation is rejected, or the configured timeout
	// elapses. A timeout leaves the on-chain outcome unknown; the receipt
	// status is TxIndeterminate and the operation is never retried here.
	Execute(ctx context.Context, op *Operation) (*TxReceipt, error)

	// ExecuteWithKey behaves like Execute but signs with the supplied
	// private key instead of the process-wide signer.
	ExecuteWithKey(ctx context.Context, privateKeyHex string, op *Operation) (*TxReceipt, error)
}

// AllowanceManager checks and establishes token allowances.
type AllowanceManager interface {
	// EnsureAllowance checks the spender's allowance for the token and,
	// when it is below amount, submits an approval and waits for its
	// confirmation. Returns the approval transaction hash, or empty when
	// no approval was needed.
	EnsureAllowance(ctx context.Context, tokenAddress, spender string, amount *big.Int) (string, error)
}

// BalanceProvider reads account balances.
type BalanceProvider interface {
	// GetTokenBalance gets the token balance for the given address. For
	// native balances, use an empty string or the zero address as tokenAddress.
	GetTokenBalance(ctx context.Context, address string, tokenAddress string) (*big.Int, error)
}

// VoucherRedeemer settles voucher redemptions.
type VoucherRedeemer interface {
	// RedeemVoucher submits a single mint-with-fee-split redemption and
	// returns the amounts reported by the contract's receipt.
	RedeemVoucher(ctx context.Context, voucherCode, userAddress string) (*RedeemResult, error)
}

// TokenSwapper settles same-chain token-for-native swaps and reads the pool
// state backing them.
type TokenSwapper interface {
	// SwapTokenForNative submits a single swap call. minOut is the
	// caller-supplied minimum output and is passed through unmodified.
	SwapTokenForNative(ctx context.Context, userAddress string, amount, minOut *big.Int) (*SwapResult, error)

	// CurrentPrice reads the pool's native price of one settlement token,
	// in wei.
	CurrentPrice(ctx context.Context) (*big.Int, error)

	// EstimateSwapOutput prices a swap from pool state without executing
	// it. tokenToNative selects the swap direction.
	EstimateSwapOutput(ctx context.Context, amount *big.Int, tokenToNative bool) (*big.Int, error)
}

// RedeemResult is the receipt-reported outcome of a voucher redemption.
type RedeemResult struct {
	TxHash      string
	TokenAmount *big.Int
	EthAmount   *big.Int
}

// SwapResult is the receipt-reported outcome of a swap.
type SwapResult struct {
	TxHash    string
	NativeOut *big.Int
}

// ChainExecutor combines all per-chain functionality the router relies on.
type ChainExecutor interface {
	GasEstimator
	OperationSender
	AllowanceManager
	BalanceProvider
	VoucherRedeemer
	TokenSwapper

	// GetConfig returns the chain configuration the executor was built from.
	GetConfig() *ChainConfig
}

// ExecutorRegistry manages chain executors by chain ID.
type ExecutorRegistry interface {
	// Add creates an executor for the config and registers it.
	Add(ctx context.Context, config *ChainConfig) error

	// Get retrieves an executor by chain ID, or nil when unknown.
	Get(chainID uint64) ChainExecutor

	// Remove removes an executor from the registry.
	Remove(chainID uint64)
}
