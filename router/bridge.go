package router

import (
	"context"
	"strings"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/quote"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// routeBridge settles a cross-chain transfer through an aggregator route:
// obtain a quote, establish the allowance the route needs, then submit the
// prepared transaction. A quote that has gone stale by execution time is
// refreshed first.
func (r *router) routeBridge(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	executor, err := r.executorFor(req.FromChain)
	if err != nil {
		return failure(types.PathBridge, err)
	}

	fromSymbol := req.FromToken
	if fromSymbol == "" {
		fromSymbol = req.Token
	}
	toSymbol := req.ToToken
	if toSymbol == "" {
		toSymbol = fromSymbol
	}

	fromToken, err := r.bridgeToken(fromSymbol, req.FromChain)
	if err != nil {
		return failure(types.PathBridge, err)
	}
	toToken, err := r.bridgeToken(toSymbol, req.ToChain)
	if err != nil {
		return failure(types.PathBridge, err)
	}

	q, err := r.fetchQuote(ctx, req, fromToken, toToken)
	if err != nil {
		return failure(types.PathBridge, err)
	}

	if req.MinOut != nil && req.MinOut.Sign() > 0 && q.ToAmountMin.Cmp(req.MinOut) < 0 {
		return failure(types.PathBridge, &commonerrors.QuoteError{
			Reason: "guaranteed minimum " + q.ToAmountMin.String() + " is below the requested minimum " + req.MinOut.String(),
		})
	}

	req.Advance(types.StatusSettling)

	hashes, outcomeErr := r.executeBridge(ctx, executor, req, q)
	if outcomeErr != nil {
		return chainFailure(types.PathBridge, hashes, outcomeErr)
	}

	r.logger.WithFields(logrus.Fields{
		"requestId": req.ID,
		"txHash":    hashes[len(hashes)-1],
		"toChain":   req.ToChain,
	}).Info("Bridge transaction confirmed")

	return &types.SettlementOutcome{
		Success:      true,
		Path:         types.PathBridge,
		TxHashes:     hashes,
		OutputAmount: q.ToAmount,
	}, nil
}

// bridgeToken resolves a token symbol to its contract address on the given
// chain. The settlement token resolves through the chain's executor config;
// any other symbol must be in the public registry.
func (r *router) bridgeToken(symbol string, chainID uint64) (string, error) {
	if addr, ok := r.tokens.ResolveTokenAddress(symbol, chainID); ok {
		return addr, nil
	}

	if strings.EqualFold(symbol, types.SettlementSymbol) {
		if executor := r.registry.Get(chainID); executor != nil {
			if config := executor.GetConfig(); config != nil && config.TokenAddress != "" {
				return config.TokenAddress, nil
			}
		}
	}

	return "", errors.Wrapf(commonerrors.ErrTokenNotSupported, "%s on chain %d", symbol, chainID)
}

// fetchQuote requests a quote for the route and refreshes it when it is
// already stale at return time.
func (r *router) fetchQuote(ctx context.Context, req *types.TransferRequest, fromToken, toToken string) (*types.Quote, error) {
	params := &quote.Params{
		FromChain:   req.FromChain,
		ToChain:     req.ToChain,
		FromToken:   fromToken,
		ToToken:     toToken,
		FromAmount:  req.BaseAmount,
		FromAddress: req.FromAddress,
		ToAddress:   req.ToAddress,
	}

	q, err := r.quotes.GetQuote(ctx, params)
	if err != nil {
		return nil, err
	}

	if q.Stale(r.quoteValidity) {
		r.logger.WithField("requestId", req.ID).Warn("Quote went stale before execution, refreshing")
		return r.quotes.GetQuote(ctx, params)
	}

	return q, nil
}

// executeBridge establishes the route's allowance and submits the prepared
// transaction, returning the hashes of every submitted operation in order.
func (r *router) executeBridge(ctx context.Context, executor types.ChainExecutor, req *types.TransferRequest, q *types.Quote) ([]string, error) {
	var hashes []string

	// Native input needs no approval.
	if q.FromToken != "" && q.FromToken != types.ZeroAddress && q.ApprovalAddress != "" {
		approveHash, err := executor.EnsureAllowance(ctx, q.FromToken, q.ApprovalAddress, q.FromAmount)
		if err != nil {
			return hashes, err
		}
		if approveHash != "" {
			hashes = append(hashes, approveHash)
		}
	}

	receipt, err := executor.Execute(ctx, &types.Operation{
		Kind:     types.OpContractCall,
		ChainID:  req.FromChain,
		To:       q.TxRequest.To,
		Value:    q.TxRequest.Value,
		Data:     q.TxRequest.Data,
		GasLimit: q.TxRequest.GasLimit,
	})
	if err != nil {
		return append(hashes, receiptHashes(receipt)...), err
	}

	return append(hashes, receipt.Hash), nil
}
