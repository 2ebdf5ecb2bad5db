package evm

import (
	"context"
	"sync"
	"time"

	"github.com/TextToChain/settlement-lib/chainmanager"
	"github.com/TextToChain/settlement-lib/chains/evm/signer"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/connectionmonitor"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// TxTypeLegacy represents the legacy transaction type.
	TxTypeLegacy = 0
	// TxTypeEIP1559 represents the EIP-1559 transaction type.
	TxTypeEIP1559 = 2
	// defaultConfirmTimeout bounds a single confirmation wait. A timeout
	// leaves the operation's on-chain outcome unknown.
	defaultConfirmTimeout = 2 * time.Minute
)

// evm represents the base EVM chain executor implementation.
type evm struct {
	config         *types.ChainConfig
	logger         *logrus.Logger
	confirmTimeout time.Duration

	clientMutex sync.RWMutex
	client      *ethclient.Client

	signerMutex sync.RWMutex
	signer      signer.Signer

	monitorMutex sync.RWMutex
	monitor      connectionmonitor.ConnectionMonitor
}

// NewEvmExecutor creates a new EVM chain executor.
//
// Parameters:
// - ctx: the context for managing the request.
// - config: the chain configuration.
// - logger: the logger for logging events.
//
// Returns:
// - types.ChainExecutor: a new EVM executor instance.
// - error: an error if any issue occurs during creation.
func NewEvmExecutor(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.ChainExecutor, error) {
	client, err := ethclient.Dial(config.RpcUrl)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}

	confirmTimeout := config.ConfirmTimeout
	if confirmTimeout == 0 {
		confirmTimeout = defaultConfirmTimeout
	}

	executor := &evm{
		config:         config,
		logger:         logger,
		confirmTimeout: confirmTimeout,
		client:         client,
	}

	if err := executor.initMonitor(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to init connection monitor")
	}

	builder := chainmanager.NewExecutorBuilder(config)
	builder.WithGasEstimator(executor)
	builder.WithBalanceProvider(executor)

	if config.PrivateKey != "" {
		s, err := signer.NewSignerFromHex(config.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create signer")
		}

		executor.signerMutex.Lock()
		executor.signer = s
		executor.signerMutex.Unlock()

		builder.WithOperationSender(executor)
		builder.WithAllowanceManager(executor)
		builder.WithVoucherRedeemer(executor)
		builder.WithTokenSwapper(executor)
	}

	return builder.Build(), nil
}

// Close stops the connection monitor and closes the client. It should be
// called when the executor is no longer needed.
func (e *evm) Close() {
	e.monitorMutex.Lock()
	if e.monitor != nil {
		e.monitor.Stop()
	}
	e.monitorMutex.Unlock()

	e.clientMutex.Lock()
	if e.client != nil {
		e.client.Close()
		e.client = nil
	}
	e.clientMutex.Unlock()
}

// GetClient returns the Ethereum client.
func (e *evm) GetClient() *ethclient.Client {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return e.client
}
