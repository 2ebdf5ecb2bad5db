package router

import (
	"context"
	"strings"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/fastchannel"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// routeSend settles a same-chain send. Eligible sends try the fast channel
// first; when the channel is unavailable the send falls back to direct
// on-chain settlement. Caller-funded sends (SenderKey set) always settle
// on-chain with the caller's own wallet.
func (r *router) routeSend(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	if req.SenderKey != "" {
		req.Advance(types.StatusSettling)
		return r.callerFundedSend(ctx, req)
	}

	if r.channel != nil {
		req.Advance(types.StatusSettling)

		ack, err := r.channel.Send(ctx, &fastchannel.ChannelSend{
			RecipientAddress: req.ToAddress,
			Amount:           req.Amount,
			UserPhone:        req.NotifyContact,
		})
		if err == nil {
			// Queued for batch settlement. The channel finalizes on-chain
			// later; the transfer is pending, not complete.
			return &types.SettlementOutcome{
				Success:      true,
				Pending:      true,
				Path:         types.PathFastChannel,
				ChannelRef:   ack.TransactionID,
				OutputAmount: req.BaseAmount,
			}, nil
		}

		if !commonerrors.IsRouteUnavailable(err) {
			return failure(types.PathFastChannel, err)
		}

		r.logger.WithFields(logrus.Fields{
			"requestId": req.ID,
			"error":     err,
		}).Warn("Fast channel unavailable, falling back to on-chain settlement")

		req.Advance(types.StatusFallbackSettling)

		outcome, sendErr := r.onChainSend(ctx, req)
		if sendErr != nil {
			// Both the channel and the direct path failed.
			return outcome, &commonerrors.RouteExhaustedError{Last: sendErr}
		}
		return outcome, nil
	}

	req.Advance(types.StatusSettling)
	return r.onChainSend(ctx, req)
}

// callerFundedSend transfers tokens directly from the caller's wallet using
// the caller-supplied key.
func (r *router) callerFundedSend(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	executor, err := r.executorFor(req.FromChain)
	if err != nil {
		return failure(types.PathOnChainDirect, err)
	}

	tokenAddress, native, err := r.resolveSendToken(executor, req)
	if err != nil {
		return failure(types.PathOnChainDirect, err)
	}

	op := &types.Operation{
		ChainID: req.FromChain,
		To:      req.ToAddress,
		Amount:  req.BaseAmount,
	}
	if native {
		op.Kind = types.OpNativeSend
	} else {
		op.Kind = types.OpTokenTransfer
		op.TokenAddress = tokenAddress
	}

	receipt, err := executor.ExecuteWithKey(ctx, req.SenderKey, op)
	if err != nil {
		return chainFailure(types.PathOnChainDirect, receiptHashes(receipt), err)
	}

	return &types.SettlementOutcome{
		Success:      true,
		Path:         types.PathOnChainDirect,
		TxHashes:     []string{receipt.Hash},
		OutputAmount: req.BaseAmount,
	}, nil
}

// onChainSend settles a send with the backend wallet. Native sends are a
// single value transfer; settlement-token sends are a burn from the sender
// followed by a mint to the recipient, each fully confirmed before the next
// is submitted. A failed burn leaves both balances untouched and no mint is
// attempted.
func (r *router) onChainSend(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	executor, err := r.executorFor(req.FromChain)
	if err != nil {
		return failure(types.PathOnChainDirect, err)
	}

	tokenAddress, native, err := r.resolveSendToken(executor, req)
	if err != nil {
		return failure(types.PathOnChainDirect, err)
	}

	if native {
		receipt, err := executor.Execute(ctx, &types.Operation{
			Kind:    types.OpNativeSend,
			ChainID: req.FromChain,
			To:      req.ToAddress,
			Amount:  req.BaseAmount,
		})
		if err != nil {
			return chainFailure(types.PathOnChainDirect, receiptHashes(receipt), err)
		}

		return &types.SettlementOutcome{
			Success:      true,
			Path:         types.PathOnChainDirect,
			TxHashes:     []string{receipt.Hash},
			OutputAmount: req.BaseAmount,
		}, nil
	}

	burnReceipt, err := executor.Execute(ctx, &types.Operation{
		Kind:         types.OpBurn,
		ChainID:      req.FromChain,
		TokenAddress: tokenAddress,
		From:         req.FromAddress,
		Amount:       req.BaseAmount,
	})
	if err != nil {
		return chainFailure(types.PathOnChainDirect, receiptHashes(burnReceipt), err)
	}

	r.logger.WithFields(logrus.Fields{
		"requestId": req.ID,
		"txHash":    burnReceipt.Hash,
	}).Info("Burn confirmed, minting to recipient")

	mintReceipt, err := executor.Execute(ctx, &types.Operation{
		Kind:         types.OpMint,
		ChainID:      req.FromChain,
		TokenAddress: tokenAddress,
		To:           req.ToAddress,
		Amount:       req.BaseAmount,
	})
	if err != nil {
		hashes := append([]string{burnReceipt.Hash}, receiptHashes(mintReceipt)...)
		return chainFailure(types.PathOnChainDirect, hashes, err)
	}

	return &types.SettlementOutcome{
		Success:      true,
		Path:         types.PathOnChainDirect,
		TxHashes:     []string{burnReceipt.Hash, mintReceipt.Hash},
		OutputAmount: req.BaseAmount,
	}, nil
}

// resolveSendToken resolves the request's token to a contract address on the
// source chain, reporting whether it is the chain's native asset. Only the
// settlement token resolves through the executor config; any other symbol
// missing from the registry is rejected.
func (r *router) resolveSendToken(executor types.ChainExecutor, req *types.TransferRequest) (string, bool, error) {
	if addr, ok := r.tokens.ResolveTokenAddress(req.Token, req.FromChain); ok {
		return addr, addr == types.ZeroAddress, nil
	}

	if strings.EqualFold(req.Token, types.SettlementSymbol) {
		config := executor.GetConfig()
		if config != nil && config.TokenAddress != "" {
			return config.TokenAddress, false, nil
		}
	}

	return "", false, errors.Wrapf(commonerrors.ErrTokenNotSupported, "%s on chain %d", req.Token, req.FromChain)
}

// receiptHashes extracts hashes from a possibly nil receipt. Indeterminate
// operations still carry their submitted hash.
func receiptHashes(receipt *types.TxReceipt) []string {
	if receipt == nil || receipt.Hash == "" {
		return nil
	}
	return []string{receipt.Hash}
}
