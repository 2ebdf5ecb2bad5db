package evm

import (
	"context"
	"sync"
	"time"

	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// subscriptionHandler manages block header subscriptions
type subscriptionHandler struct {
	subscription ethereum.Subscription
	headerChan   chan *ethtypes.Header
	sync.RWMutex
}

// close safely closes subscription and channel
func (h *subscriptionHandler) close() {
	h.Lock()
	defer h.Unlock()
	if h.subscription != nil {
		h.subscription.Unsubscribe()
		h.subscription = nil
	}
	if h.headerChan != nil {
		close(h.headerChan)
		h.headerChan = nil
	}
}

// waitTransactionReceipt waits for the confirmation of a transaction.
//
// The wait is bounded by the executor's confirmation timeout. When the
// timeout elapses the on-chain outcome is unknown: the status is
// TxIndeterminate and the transaction is never replaced or retried here;
// the caller must poll or treat the operation as indeterminate.
//
// Parameters:
// - ctx: the context for managing the request.
// - txHash: the transaction to wait for.
//
// Returns:
// - *ethtypes.Receipt: the receipt when one was observed.
// - types.TransactionStatus: TxDone, TxFailed, or TxIndeterminate.
// - error: an error describing a transport failure, if any.
func (e *evm) waitTransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, types.TransactionStatus, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, types.TxFailed, errors.New("client not initialized")
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	if types.GetSubscriptionMode(e.config.RpcUrl) == types.WebSocketMode {
		return e.waitReceiptWS(waitCtx, txHash)
	}
	return e.waitReceiptHTTP(waitCtx, txHash)
}

// waitReceiptWS waits for transaction confirmation using a block header
// subscription.
func (e *evm) waitReceiptWS(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, types.TransactionStatus, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	handler := &subscriptionHandler{
		headerChan: make(chan *ethtypes.Header),
	}
	defer handler.close()

	sub, err := client.SubscribeNewHead(ctx, handler.headerChan)
	if err != nil {
		return nil, types.TxFailed, errors.Wrap(err, "failed to subscribe to new headers")
	}

	handler.Lock()
	handler.subscription = sub
	handler.Unlock()

	for {
		select {
		case <-ctx.Done():
			e.logger.WithField("txHash", txHash.Hex()).Warn("confirmation wait timed out, on-chain outcome unknown")
			return nil, types.TxIndeterminate, nil

		case err := <-sub.Err():
			return nil, types.TxFailed, errors.Wrap(err, "subscription error")

		case header := <-handler.headerChan:
			if header == nil {
				continue
			}

			receipt, err := client.TransactionReceipt(ctx, txHash)
			if err != nil {
				if errors.Is(err, ethereum.NotFound) {
					continue
				}
				return nil, types.TxFailed, errors.Wrap(err, "failed to get transaction receipt")
			}

			// Wait for required block confirmations
			if header.Number.Uint64() < receipt.BlockNumber.Uint64()+e.config.WaitNBlocks {
				continue
			}

			if receipt.Status == ethtypes.ReceiptStatusSuccessful {
				return receipt, types.TxDone, nil
			}
			return receipt, types.TxFailed, nil
		}
	}
}

// waitReceiptHTTP waits for transaction confirmation using HTTP polling.
func (e *evm) waitReceiptHTTP(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, types.TransactionStatus, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.WithField("txHash", txHash.Hex()).Warn("confirmation wait timed out, on-chain outcome unknown")
			return nil, types.TxIndeterminate, nil

		case <-ticker.C:
			receipt, err := client.TransactionReceipt(ctx, txHash)
			if err != nil {
				if errors.Is(err, ethereum.NotFound) {
					continue
				}
				return nil, types.TxFailed, errors.Wrap(err, "failed to get transaction receipt")
			}

			currentBlock, err := client.BlockNumber(ctx)
			if err != nil {
				return nil, types.TxFailed, errors.Wrap(err, "failed to get current block number")
			}

			if currentBlock < receipt.BlockNumber.Uint64()+e.config.WaitNBlocks {
				continue
			}

			if receipt.Status == ethtypes.ReceiptStatusSuccessful {
				return receipt, types.TxDone, nil
			}
			return receipt, types.TxFailed, nil
		}
	}
}
