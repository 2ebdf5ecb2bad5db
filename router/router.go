package router

import (
	"context"
	"time"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/fastchannel"
	"github.com/TextToChain/settlement-lib/quote"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Router selects a settlement path for a validated transfer request and
// drives its execution to a single outcome.
//
// Path selection:
// - redemptions and swaps settle through their dedicated contracts.
// - eligible same-chain sends try the fast channel first, then fall back to
//   direct on-chain settlement when the channel is unavailable.
// - cross-chain transfers settle through an aggregator bridge route.
type Router interface {
	// Route executes the request and returns its outcome. The outcome is
	// always non-nil; err is non-nil exactly when the outcome is not a
	// success. The request's status is advanced in place as the settlement
	// progresses, never past a terminal status.
	Route(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error)
}

// Config holds the router settings.
type Config struct {
	// QuoteValidity bounds the age of a quote at execution time. A quote
	// older than this is refreshed before its transaction is submitted.
	QuoteValidity time.Duration
}

type router struct {
	registry      types.ExecutorRegistry
	quotes        quote.Provider
	channel       fastchannel.Client
	tokens        *types.TokenRegistry
	quoteValidity time.Duration
	logger        *logrus.Logger
}

// New creates a transfer router. The channel client may be nil, which makes
// every send settle directly on-chain.
func New(
	registry types.ExecutorRegistry,
	quotes quote.Provider,
	channel fastchannel.Client,
	tokens *types.TokenRegistry,
	config *Config,
	logger *logrus.Logger,
) Router {
	quoteValidity := config.QuoteValidity
	if quoteValidity == 0 {
		quoteValidity = time.Minute
	}

	return &router{
		registry:      registry,
		quotes:        quotes,
		channel:       channel,
		tokens:        tokens,
		quoteValidity: quoteValidity,
		logger:        logger,
	}
}

func (r *router) Route(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	req.Advance(types.StatusRouting)

	r.logger.WithFields(logrus.Fields{
		"requestId": req.ID,
		"kind":      req.Kind,
		"fromChain": req.FromChain,
		"toChain":   req.ToChain,
	}).Info("Routing transfer")

	switch req.Kind {
	case types.KindRedeem:
		return r.routeRedeem(ctx, req)
	case types.KindSwap:
		return r.routeSwap(ctx, req)
	case types.KindSend:
		if !req.SameChain() {
			// A send that crosses chains is a bridge in disguise.
			return r.routeBridge(ctx, req)
		}
		return r.routeSend(ctx, req)
	case types.KindBridge:
		return r.routeBridge(ctx, req)
	default:
		return failure(types.PathOnChainDirect, errors.Errorf("unsupported transfer kind %q", req.Kind))
	}
}

// executorFor resolves the chain executor for the request's source chain.
func (r *router) executorFor(chainID uint64) (types.ChainExecutor, error) {
	executor := r.registry.Get(chainID)
	if executor == nil {
		return nil, errors.Wrapf(commonerrors.ErrChainNotFound, "chain %d", chainID)
	}
	return executor, nil
}

// failure builds the terminal outcome for a failed settlement.
func failure(path types.PathKind, err error) (*types.SettlementOutcome, error) {
	return &types.SettlementOutcome{
		Success: false,
		Path:    path,
		Error:   err.Error(),
	}, err
}

// chainFailure builds the outcome for a failed or indeterminate on-chain
// settlement, preserving any transaction hashes already submitted.
func chainFailure(path types.PathKind, txHashes []string, err error) (*types.SettlementOutcome, error) {
	outcome := &types.SettlementOutcome{
		Success:  false,
		Path:     path,
		TxHashes: txHashes,
		Error:    err.Error(),
	}
	if commonerrors.IsTimeout(err) {
		outcome.Indeterminate = true
	}
	return outcome, err
}
