package evm

import (
	"context"
	"math/big"
	"strings"

	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SwapTokenForNative swaps the user's settlement tokens for native currency
// through the swap router contract. minOut sets the slippage floor the
// contract enforces; a zero minOut disables it.
//
// Parameters:
// - ctx: the context for managing the request.
// - userAddress: the address whose tokens are swapped and credited.
// - amount: the token amount to swap in base units.
// - minOut: the minimum native amount acceptable in base units.
//
// Returns:
// - *types.SwapResult: the confirmed transaction hash and the native output
//   amount taken from the SwapExecuted event.
// - error: an error if the swap transaction fails.
func (e *evm) SwapTokenForNative(ctx context.Context, userAddress string, amount *big.Int, minOut *big.Int) (*types.SwapResult, error) {
	if e.config.SwapRouter == "" {
		return nil, errors.New("swap router address not configured")
	}

	if minOut == nil {
		minOut = big.NewInt(0)
	}

	routerAbi, err := abi.JSON(strings.NewReader(swapRouterABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse swap router ABI")
	}

	data, err := routerAbi.Pack("swapTokenForEth", common.HexToAddress(userAddress), amount, minOut)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack swapTokenForEth data")
	}

	receipt, err := e.Execute(ctx, &types.Operation{
		Kind:    types.OpContractCall,
		ChainID: e.config.ChainID,
		To:      e.config.SwapRouter,
		Data:    data,
	})
	if err != nil {
		return nil, err
	}

	result := &types.SwapResult{TxHash: receipt.Hash}

	nativeOut, err := e.parseSwapEvent(ctx, &routerAbi, receipt.Hash)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"chain":  e.config.Name,
			"txHash": receipt.Hash,
			"error":  err,
		}).Warn("Failed to parse SwapExecuted event")
		return result, nil
	}

	result.NativeOut = nativeOut
	return result, nil
}

// CurrentPrice reads the pool's native price of one settlement token from
// the swap router.
func (e *evm) CurrentPrice(ctx context.Context) (*big.Int, error) {
	return e.callSwapRouter(ctx, "getCurrentPrice")
}

// EstimateSwapOutput asks the swap router to price a swap against current
// pool state without executing it.
func (e *evm) EstimateSwapOutput(ctx context.Context, amount *big.Int, tokenToNative bool) (*big.Int, error) {
	return e.callSwapRouter(ctx, "estimateSwapOutput", amount, tokenToNative)
}

// callSwapRouter performs a read-only call against the swap router and
// decodes the single uint256 result.
func (e *evm) callSwapRouter(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	if e.config.SwapRouter == "" {
		return nil, errors.New("swap router address not configured")
	}

	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	routerAbi, err := abi.JSON(strings.NewReader(swapRouterABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse swap router ABI")
	}

	data, err := routerAbi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s data", method)
	}

	routerAddr := common.HexToAddress(e.config.SwapRouter)
	result, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &routerAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s", method)
	}

	if len(result) == 0 {
		return nil, errors.Errorf("empty result from %s call", method)
	}

	return new(big.Int).SetBytes(result), nil
}

// parseSwapEvent extracts the native output amount from the SwapExecuted
// event of a confirmed swap transaction.
func (e *evm) parseSwapEvent(ctx context.Context, routerAbi *abi.ABI, txHash string) (*big.Int, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction receipt")
	}

	eventID := routerAbi.Events["SwapExecuted"].ID
	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != eventID {
			continue
		}

		values, err := routerAbi.Unpack("SwapExecuted", log.Data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to unpack SwapExecuted event")
		}
		if len(values) < 2 {
			return nil, errors.New("unexpected SwapExecuted event data")
		}

		ethAmount, ok := values[1].(*big.Int)
		if !ok {
			return nil, errors.New("unexpected eth amount type in SwapExecuted event")
		}

		return ethAmount, nil
	}

	return nil, errors.New("SwapExecuted event not found in receipt")
}
