package chains

import (
	"context"
	"sync"

	"github.com/TextToChain/settlement-lib/chains/evm"
	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	commontypes "github.com/TextToChain/settlement-lib/common/types"
	"github.com/sirupsen/logrus"
)

// ExecutorConstructor represents a function that constructs a new chain
// executor instance.
type ExecutorConstructor func(ctx context.Context, config *commontypes.ChainConfig, logger *logrus.Logger) (commontypes.ChainExecutor, error)

// ExecutorFactory defines the interface for executor creation.
type ExecutorFactory interface {
	// RegisterConstructor registers a new executor constructor for a given
	// chain type.
	RegisterConstructor(chainType string, constructor ExecutorConstructor)

	// CreateExecutor creates a new executor instance based on the configuration.
	CreateExecutor(ctx context.Context, config *commontypes.ChainConfig, logger *logrus.Logger) (commontypes.ChainExecutor, error)
}

type executorFactory struct {
	constructors      map[string]ExecutorConstructor
	constructorsMutex sync.RWMutex
}

// NewExecutorFactory creates a new instance of the executor factory with the
// default constructors registered.
func NewExecutorFactory() ExecutorFactory {
	factory := &executorFactory{
		constructors: make(map[string]ExecutorConstructor),
	}

	factory.registerConstructors()

	return factory
}

// RegisterConstructor registers a new executor constructor.
func (f *executorFactory) RegisterConstructor(chainType string, constructor ExecutorConstructor) {
	f.constructorsMutex.Lock()
	defer f.constructorsMutex.Unlock()

	f.constructors[chainType] = constructor
}

// CreateExecutor creates a new executor instance based on the configuration.
func (f *executorFactory) CreateExecutor(ctx context.Context, config *commontypes.ChainConfig, logger *logrus.Logger) (commontypes.ChainExecutor, error) {
	f.constructorsMutex.RLock()
	constructor, exists := f.constructors[config.ChainType.String()]
	f.constructorsMutex.RUnlock()

	if !exists {
		return nil, commonerrors.ErrInvalidChainType
	}

	return constructor(ctx, config, logger)
}

// registerConstructors registers the default executor constructors.
func (f *executorFactory) registerConstructors() {
	f.RegisterConstructor(commontypes.EVM.String(), func(ctx context.Context, config *commontypes.ChainConfig, logger *logrus.Logger) (commontypes.ChainExecutor, error) {
		return evm.NewEvmExecutor(ctx, config, logger)
	})
}
