package chainmanager

import (
	"context"
	"math/big"
	"sync"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
)

// Executor implements types.ChainExecutor with thread-safe access to its
// capability implementations. Each capability is protected by a read-write
// mutex; a capability left unset reports ErrNotImplemented.
type Executor struct {
	config    *types.ChainConfig
	estimator types.GasEstimator
	sender    types.OperationSender
	allowance types.AllowanceManager
	provider  types.BalanceProvider
	redeemer  types.VoucherRedeemer
	swapper   types.TokenSwapper

	estimatorMutex sync.RWMutex
	senderMutex    sync.RWMutex
	allowanceMutex sync.RWMutex
	providerMutex  sync.RWMutex
	redeemerMutex  sync.RWMutex
	swapperMutex   sync.RWMutex
}

// NewExecutor creates a new Executor instance from capability implementations.
func NewExecutor(
	config *types.ChainConfig,
	estimator types.GasEstimator,
	sender types.OperationSender,
	allowance types.AllowanceManager,
	provider types.BalanceProvider,
	redeemer types.VoucherRedeemer,
	swapper types.TokenSwapper,
) *Executor {
	return &Executor{
		config:    config,
		estimator: estimator,
		sender:    sender,
		allowance: allowance,
		provider:  provider,
		redeemer:  redeemer,
		swapper:   swapper,
	}
}

// EstimateGas estimates transaction gas with thread-safe access.
func (e *Executor) EstimateGas(ctx context.Context, to string, value *big.Int, data []byte) (uint64, error) {
	e.estimatorMutex.RLock()
	defer e.estimatorMutex.RUnlock()

	if e.estimator == nil {
		return 0, commonerrors.ErrNotImplemented
	}
	return e.estimator.EstimateGas(ctx, to, value, data)
}

// Execute submits an operation and waits for its confirmation with
// thread-safe access to the sender.
func (e *Executor) Execute(ctx context.Context, op *types.Operation) (*types.TxReceipt, error) {
	e.senderMutex.RLock()
	defer e.senderMutex.RUnlock()

	if e.sender == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return e.sender.Execute(ctx, op)
}

// ExecuteWithKey submits an operation signed with the supplied key.
func (e *Executor) ExecuteWithKey(ctx context.Context, privateKeyHex string, op *types.Operation) (*types.TxReceipt, error) {
	e.senderMutex.RLock()
	defer e.senderMutex.RUnlock()

	if e.sender == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return e.sender.ExecuteWithKey(ctx, privateKeyHex, op)
}

// EnsureAllowance checks and establishes a token allowance.
func (e *Executor) EnsureAllowance(ctx context.Context, tokenAddress, spender string, amount *big.Int) (string, error) {
	e.allowanceMutex.RLock()
	defer e.allowanceMutex.RUnlock()

	if e.allowance == nil {
		return "", commonerrors.ErrNotImplemented
	}
	return e.allowance.EnsureAllowance(ctx, tokenAddress, spender, amount)
}

// GetTokenBalance reads a balance with thread-safe access to the provider.
func (e *Executor) GetTokenBalance(ctx context.Context, address string, tokenAddress string) (*big.Int, error) {
	e.providerMutex.RLock()
	provider := e.provider
	e.providerMutex.RUnlock()

	if provider == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return provider.GetTokenBalance(ctx, address, tokenAddress)
}

// RedeemVoucher settles a voucher redemption.
func (e *Executor) RedeemVoucher(ctx context.Context, voucherCode, userAddress string) (*types.RedeemResult, error) {
	e.redeemerMutex.RLock()
	defer e.redeemerMutex.RUnlock()

	if e.redeemer == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return e.redeemer.RedeemVoucher(ctx, voucherCode, userAddress)
}

// SwapTokenForNative settles a same-chain swap.
func (e *Executor) SwapTokenForNative(ctx context.Context, userAddress string, amount, minOut *big.Int) (*types.SwapResult, error) {
	e.swapperMutex.RLock()
	defer e.swapperMutex.RUnlock()

	if e.swapper == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return e.swapper.SwapTokenForNative(ctx, userAddress, amount, minOut)
}

// CurrentPrice reads the pool price with thread-safe access to the swapper.
func (e *Executor) CurrentPrice(ctx context.Context) (*big.Int, error) {
	e.swapperMutex.RLock()
	defer e.swapperMutex.RUnlock()

	if e.swapper == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return e.swapper.CurrentPrice(ctx)
}

// EstimateSwapOutput prices a swap without executing it.
func (e *Executor) EstimateSwapOutput(ctx context.Context, amount *big.Int, tokenToNative bool) (*big.Int, error) {
	e.swapperMutex.RLock()
	defer e.swapperMutex.RUnlock()

	if e.swapper == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return e.swapper.EstimateSwapOutput(ctx, amount, tokenToNative)
}

// GetConfig returns the chain configuration.
func (e *Executor) GetConfig() *types.ChainConfig {
	return e.config
}
