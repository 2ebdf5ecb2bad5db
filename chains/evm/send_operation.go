package evm

import (
	"context"
	"math/big"
	"strings"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/chains/evm/signer"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// Execute submits a single on-chain operation and blocks until the chain
// reports confirmation, the operation is rejected, or the confirmation
// timeout elapses. Distinct sub-steps of one logical transfer must be issued
// through separate Execute calls so each is fully confirmed before the next
// is submitted.
//
// Parameters:
// - ctx: the context for managing the request.
// - op: the operation to execute.
//
// Returns:
// - *types.TxReceipt: the confirmed receipt.
// - error: a ChainError on rejection, a TimeoutError when the outcome is
//   unknown, or a wrapped transport error.
func (e *evm) Execute(ctx context.Context, op *types.Operation) (*types.TxReceipt, error) {
	e.signerMutex.RLock()
	s := e.signer
	e.signerMutex.RUnlock()

	if s == nil {
		return nil, errors.New("signer not initialized")
	}

	return e.executeAs(ctx, s, op)
}

// ExecuteWithKey behaves like Execute but signs with the supplied private
// key instead of the process-wide signer. Used for caller-funded direct
// sends where the user provides the key.
func (e *evm) ExecuteWithKey(ctx context.Context, privateKeyHex string, op *types.Operation) (*types.TxReceipt, error) {
	s, err := signer.NewSignerFromHex(privateKeyHex)
	if err != nil {
		return nil, err
	}

	return e.executeAs(ctx, s, op)
}

func (e *evm) executeAs(ctx context.Context, s signer.Signer, op *types.Operation) (*types.TxReceipt, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	to, value, data, err := e.buildCallData(op)
	if err != nil {
		return nil, err
	}

	nonce, err := client.PendingNonceAt(ctx, s.Address())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get nonce")
	}

	tx, err := e.prepareTransaction(ctx, s, nonce, to, value, data, op.GasLimit)
	if err != nil {
		return nil, err
	}

	signedTx, err := e.signAndSendTransaction(ctx, s, tx)
	if err != nil {
		return nil, err
	}

	return e.awaitConfirmation(ctx, signedTx.Hash())
}

// buildCallData translates an operation into target address, attached value,
// and calldata.
func (e *evm) buildCallData(op *types.Operation) (string, *big.Int, []byte, error) {
	switch op.Kind {
	case types.OpNativeSend:
		return op.To, op.Amount, nil, nil

	case types.OpContractCall:
		value := op.Value
		if value == nil {
			value = big.NewInt(0)
		}
		return op.To, value, op.Data, nil

	case types.OpTokenTransfer, types.OpMint, types.OpBurn, types.OpApprove:
		tokenAbi, err := abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			return "", nil, nil, errors.Wrap(err, "failed to parse token ABI")
		}

		var data []byte
		switch op.Kind {
		case types.OpTokenTransfer:
			data, err = tokenAbi.Pack("transfer", common.HexToAddress(op.To), op.Amount)
		case types.OpMint:
			data, err = tokenAbi.Pack("mint", common.HexToAddress(op.To), op.Amount)
		case types.OpBurn:
			data, err = tokenAbi.Pack("burnFromAny", common.HexToAddress(op.From), op.Amount)
		case types.OpApprove:
			data, err = tokenAbi.Pack("approve", common.HexToAddress(op.To), op.Amount)
		}
		if err != nil {
			return "", nil, nil, errors.Wrapf(err, "failed to pack %s data", op.Kind)
		}

		return op.TokenAddress, big.NewInt(0), data, nil

	default:
		return "", nil, nil, errors.Errorf("unsupported operation kind %s", op.Kind)
	}
}

// prepareTransaction prepares a transaction with the given parameters.
func (e *evm) prepareTransaction(ctx context.Context, s signer.Signer, nonce uint64, toAddress string, value *big.Int, data []byte, gasLimit uint64) (*ethtypes.Transaction, error) {
	if gasLimit == 0 {
		estimatedGas, err := e.estimateGasFrom(ctx, s.Address(), toAddress, value, data)
		if err != nil {
			e.logger.WithField("chain", e.config.Name).WithError(err).Warn("Failed to estimate gas")
			return nil, errors.Wrap(err, "failed to estimate gas")
		}
		gasLimit = uint64(float64(estimatedGas) * 1.1)
	}

	to := common.HexToAddress(toAddress)

	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	if e.config.TxType == TxTypeEIP1559 {
		gasPriceData, err := e.getEIP1559GasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get EIP-1559 gas price")
		}

		return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
			ChainID:   big.NewInt(0).SetUint64(e.config.ChainID),
			Nonce:     nonce,
			GasFeeCap: gasPriceData.MaxFeePerGas,
			GasTipCap: gasPriceData.MaxPriorityFeePerGas,
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      data,
		}), nil
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	gasPrice = new(big.Int).Mul(gasPrice, big.NewInt(150))
	gasPrice = new(big.Int).Div(gasPrice, big.NewInt(100))

	return ethtypes.NewTransaction(
		nonce,
		to,
		value,
		gasLimit,
		gasPrice,
		data,
	), nil
}

// signAndSendTransaction signs and sends the prepared transaction.
func (e *evm) signAndSendTransaction(ctx context.Context, s signer.Signer, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	chainID := big.NewInt(0).SetUint64(e.config.ChainID)

	signedTx, err := s.SignTx(tx, chainID)
	if err != nil {
		e.logger.WithError(err).Error("Failed to sign transaction")
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	if err = client.SendTransaction(ctx, signedTx); err != nil {
		e.logger.WithError(err).Error("Failed to send transaction")
		return nil, errors.Wrap(err, "failed to send transaction")
	}

	return signedTx, nil
}

// awaitConfirmation waits for the transaction and converts the result into
// the executor's receipt/error contract.
func (e *evm) awaitConfirmation(ctx context.Context, txHash common.Hash) (*types.TxReceipt, error) {
	receipt, status, err := e.waitTransactionReceipt(ctx, txHash)

	out := &types.TxReceipt{
		Hash:    txHash.Hex(),
		ChainID: e.config.ChainID,
		Status:  status,
	}
	if receipt != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
		out.GasUsed = receipt.GasUsed
	}

	switch status {
	case types.TxDone:
		return out, nil
	case types.TxIndeterminate:
		return out, &commonerrors.TimeoutError{TxHash: txHash.Hex()}
	default:
		reason := "execution reverted"
		if err != nil {
			reason = err.Error()
		}
		return out, &commonerrors.ChainError{TxHash: txHash.Hex(), Reason: reason}
	}
}
