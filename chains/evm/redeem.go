package evm

import (
	"context"
	"math/big"
	"strings"

	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RedeemVoucher redeems a voucher code for the given user through the
// voucher manager contract. Redemption always auto-swaps the credited
// tokens to native currency on the contract side.
//
// Parameters:
// - ctx: the context for managing the request.
// - voucherCode: the code to redeem.
// - userAddress: the address credited with the redemption proceeds.
//
// Returns:
// - *types.RedeemResult: the confirmed transaction hash and the credited
//   token and native amounts taken from the VoucherRedeemed event.
// - error: an error if the redemption transaction fails.
func (e *evm) RedeemVoucher(ctx context.Context, voucherCode string, userAddress string) (*types.RedeemResult, error) {
	if e.config.VoucherManager == "" {
		return nil, errors.New("voucher manager address not configured")
	}

	managerAbi, err := abi.JSON(strings.NewReader(voucherManagerABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse voucher manager ABI")
	}

	data, err := managerAbi.Pack("redeemVoucher", voucherCode, common.HexToAddress(userAddress), true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack redeemVoucher data")
	}

	receipt, err := e.Execute(ctx, &types.Operation{
		Kind:    types.OpContractCall,
		ChainID: e.config.ChainID,
		To:      e.config.VoucherManager,
		Data:    data,
	})
	if err != nil {
		return nil, err
	}

	result := &types.RedeemResult{TxHash: receipt.Hash}

	tokenAmount, ethAmount, err := e.parseRedeemedEvent(ctx, &managerAbi, receipt.Hash)
	if err != nil {
		// The redemption itself succeeded. Amounts are informational only,
		// so a missing or unparsable event does not fail the operation.
		e.logger.WithFields(logrus.Fields{
			"chain":  e.config.Name,
			"txHash": receipt.Hash,
			"error":  err,
		}).Warn("Failed to parse VoucherRedeemed event")
		return result, nil
	}

	result.TokenAmount = tokenAmount
	result.EthAmount = ethAmount
	return result, nil
}

// parseRedeemedEvent extracts the token and native amounts from the
// VoucherRedeemed event of a confirmed redemption transaction.
func (e *evm) parseRedeemedEvent(ctx context.Context, managerAbi *abi.ABI, txHash string) (*big.Int, *big.Int, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, nil, errors.New("client not initialized")
	}

	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get transaction receipt")
	}

	eventID := managerAbi.Events["VoucherRedeemed"].ID
	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != eventID {
			continue
		}

		values, err := managerAbi.Unpack("VoucherRedeemed", log.Data)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to unpack VoucherRedeemed event")
		}
		if len(values) < 2 {
			return nil, nil, errors.New("unexpected VoucherRedeemed event data")
		}

		tokenAmount, ok := values[0].(*big.Int)
		if !ok {
			return nil, nil, errors.New("unexpected token amount type in VoucherRedeemed event")
		}
		ethAmount, ok := values[1].(*big.Int)
		if !ok {
			return nil, nil, errors.New("unexpected eth amount type in VoucherRedeemed event")
		}

		return tokenAmount, ethAmount, nil
	}

	return nil, nil, errors.New("VoucherRedeemed event not found in receipt")
}
