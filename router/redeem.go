package router

import (
	"context"

	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/sirupsen/logrus"
)

// routeRedeem settles a voucher redemption through the voucher manager
// contract on the request's chain.
func (r *router) routeRedeem(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	executor, err := r.executorFor(req.FromChain)
	if err != nil {
		return failure(types.PathOnChainDirect, err)
	}

	req.Advance(types.StatusSettling)

	result, err := executor.RedeemVoucher(ctx, req.VoucherCode, req.ToAddress)
	if err != nil {
		return chainFailure(types.PathOnChainDirect, nil, err)
	}

	r.logger.WithFields(logrus.Fields{
		"requestId": req.ID,
		"txHash":    result.TxHash,
	}).Info("Voucher redeemed")

	return &types.SettlementOutcome{
		Success:      true,
		Path:         types.PathOnChainDirect,
		TxHashes:     []string{result.TxHash},
		OutputAmount: result.TokenAmount,
		EthAmount:    result.EthAmount,
	}, nil
}

// routeSwap settles a same-chain token-for-native swap through the swap
// router contract. The caller's minimum output is passed through unmodified.
func (r *router) routeSwap(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	executor, err := r.executorFor(req.FromChain)
	if err != nil {
		return failure(types.PathOnChainDirect, err)
	}

	req.Advance(types.StatusSettling)

	result, err := executor.SwapTokenForNative(ctx, req.FromAddress, req.BaseAmount, req.MinOut)
	if err != nil {
		return chainFailure(types.PathOnChainDirect, nil, err)
	}

	r.logger.WithFields(logrus.Fields{
		"requestId": req.ID,
		"txHash":    result.TxHash,
	}).Info("Swap settled")

	return &types.SettlementOutcome{
		Success:      true,
		Path:         types.PathOnChainDirect,
		TxHashes:     []string{result.TxHash},
		OutputAmount: result.NativeOut,
	}, nil
}
