package chainmanager

import (
	"github.com/TextToChain/settlement-lib/common/types"
)

// ExecutorBuilder is a builder pattern implementation for executor
// configuration. It allows setting the individual capabilities of a chain
// executor: gas estimator, operation sender, allowance manager, balance
// provider, voucher redeemer, and token swapper.
type ExecutorBuilder struct {
	config    *types.ChainConfig
	estimator types.GasEstimator
	sender    types.OperationSender
	allowance types.AllowanceManager
	provider  types.BalanceProvider
	redeemer  types.VoucherRedeemer
	swapper   types.TokenSwapper
}

// NewExecutorBuilder creates a new executor builder instance.
func NewExecutorBuilder(config *types.ChainConfig) *ExecutorBuilder {
	return &ExecutorBuilder{
		config: config,
	}
}

// WithGasEstimator sets the gas estimator implementation.
func (b *ExecutorBuilder) WithGasEstimator(estimator types.GasEstimator) *ExecutorBuilder {
	b.estimator = estimator
	return b
}

// WithOperationSender sets the operation sender implementation.
func (b *ExecutorBuilder) WithOperationSender(sender types.OperationSender) *ExecutorBuilder {
	b.sender = sender
	return b
}

// WithAllowanceManager sets the allowance manager implementation.
func (b *ExecutorBuilder) WithAllowanceManager(allowance types.AllowanceManager) *ExecutorBuilder {
	b.allowance = allowance
	return b
}

// WithBalanceProvider sets the balance provider implementation.
func (b *ExecutorBuilder) WithBalanceProvider(provider types.BalanceProvider) *ExecutorBuilder {
	b.provider = provider
	return b
}

// WithVoucherRedeemer sets the voucher redeemer implementation.
func (b *ExecutorBuilder) WithVoucherRedeemer(redeemer types.VoucherRedeemer) *ExecutorBuilder {
	b.redeemer = redeemer
	return b
}

// WithTokenSwapper sets the token swapper implementation.
func (b *ExecutorBuilder) WithTokenSwapper(swapper types.TokenSwapper) *ExecutorBuilder {
	b.swapper = swapper
	return b
}

// Build creates a new executor instance with the configured implementations.
func (b *ExecutorBuilder) Build() types.ChainExecutor {
	return NewExecutor(b.config, b.estimator, b.sender, b.allowance, b.provider, b.redeemer, b.swapper)
}
