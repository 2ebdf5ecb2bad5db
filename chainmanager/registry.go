package chainmanager

import (
	"context"
	"sync"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/sirupsen/logrus"
)

// ExecutorFactory creates chain executors from configuration.
type ExecutorFactory interface {
	CreateExecutor(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.ChainExecutor, error)
}

type executorRegistry struct {
	logger         *logrus.Logger
	executors      map[uint64]types.ChainExecutor
	executorsMutex sync.RWMutex
	factory        ExecutorFactory
	factoryMutex   sync.RWMutex
}

// NewExecutorRegistry creates a registry that builds executors through the
// given factory.
func NewExecutorRegistry(factory ExecutorFactory, logger *logrus.Logger) types.ExecutorRegistry {
	return &executorRegistry{
		executors: make(map[uint64]types.ChainExecutor),
		factory:   factory,
		logger:    logger,
	}
}

func (r *executorRegistry) Add(ctx context.Context, config *types.ChainConfig) error {
	// Lock factory for reading to prevent changes during executor creation.
	r.factoryMutex.RLock()
	factory := r.factory
	r.factoryMutex.RUnlock()

	if factory == nil {
		return commonerrors.ErrFactoryNotProvided
	}

	executor, err := factory.CreateExecutor(ctx, config, r.logger)
	if err != nil {
		return err
	}

	r.executorsMutex.Lock()
	defer r.executorsMutex.Unlock()

	if _, exists := r.executors[config.ChainID]; exists {
		return commonerrors.ErrChainExists
	}
	r.executors[config.ChainID] = executor

	return nil
}

func (r *executorRegistry) Get(chainID uint64) types.ChainExecutor {
	r.executorsMutex.RLock()
	executor := r.executors[chainID]
	r.executorsMutex.RUnlock()
	return executor
}

func (r *executorRegistry) Remove(chainID uint64) {
	r.executorsMutex.Lock()
	delete(r.executors, chainID)
	r.executorsMutex.Unlock()
}
