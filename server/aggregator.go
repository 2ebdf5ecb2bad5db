package server

import (
	"fmt"
	"net/http"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/quote"
)

// handleQuote returns a fresh aggregator quote without executing it. It
// accepts the same token-pair fields as the bridge endpoint and reports the
// estimated outputs in the destination token's human units.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FromChain   string `json:"fromChain"`
		ToChain     string `json:"toChain"`
		FromToken   string `json:"fromToken"`
		ToToken     string `json:"toToken"`
		Token       string `json:"token"`
		Amount      string `json:"amount"`
		UserAddress string `json:"userAddress"`
		FromAddress string `json:"fromAddress"`
		ToAddress   string `json:"toAddress"`
	}
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	fromChain, err := s.resolveChain(body.FromChain)
	if err != nil {
		s.writeError(w, err)
		return
	}
	toChain, err := s.resolveChain(body.ToChain)
	if err != nil {
		s.writeError(w, err)
		return
	}

	fromSymbol := body.FromToken
	if fromSymbol == "" {
		fromSymbol = body.Token
	}
	toSymbol := body.ToToken
	if toSymbol == "" {
		toSymbol = fromSymbol
	}

	fromToken, ok := s.tokens.ResolveTokenAddress(fromSymbol, fromChain)
	if !ok {
		s.writeError(w, commonerrors.NewValidationError("fromToken", "not supported on source chain"))
		return
	}
	toToken, ok := s.tokens.ResolveTokenAddress(toSymbol, toChain)
	if !ok {
		s.writeError(w, commonerrors.NewValidationError("toToken", "not supported on destination chain"))
		return
	}

	amount, err := types.ParseUnits(body.Amount, s.tokens.Decimals(fromSymbol))
	if err != nil || amount.Sign() <= 0 {
		s.writeError(w, commonerrors.NewValidationError("amount", "must be a positive decimal"))
		return
	}

	fromAddress := body.FromAddress
	if fromAddress == "" {
		fromAddress = body.UserAddress
	}
	toAddress := body.ToAddress
	if toAddress == "" {
		toAddress = body.UserAddress
	}

	q, err := s.quotes.GetQuote(r.Context(), &quote.Params{
		FromChain:   fromChain,
		ToChain:     toChain,
		FromToken:   fromToken,
		ToToken:     toToken,
		FromAmount:  amount,
		FromAddress: fromAddress,
		ToAddress:   toAddress,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	toDecimals := s.tokens.Decimals(toSymbol)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"fromChain":       body.FromChain,
		"toChain":         body.ToChain,
		"fromToken":       fromSymbol,
		"toToken":         toSymbol,
		"inputAmount":     body.Amount,
		"estimatedOutput": types.FormatUnits(q.ToAmount, toDecimals),
		"minimumOutput":   types.FormatUnits(q.ToAmountMin, toDecimals),
		"executionTime":   fmt.Sprintf("%ds", q.ExecutionDuration),
		"isCrossChain":    fromChain != toChain,
	})
}

// handleAggregatorStatus proxies the aggregator's view of a submitted
// transfer transaction.
func (s *Server) handleAggregatorStatus(w http.ResponseWriter, r *http.Request) {
	txHash := r.PathValue("txHash")

	fromChain, err := s.resolveChain(r.URL.Query().Get("fromChain"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	toChain, err := s.resolveChain(r.URL.Query().Get("toChain"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	status, err := s.quotes.GetStatus(r.Context(), txHash, fromChain, toChain)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(status)
}

// handleAggregatorChains lists the chains the aggregator supports.
func (s *Server) handleAggregatorChains(w http.ResponseWriter, r *http.Request) {
	chains, err := s.quotes.GetChains(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(chains)
}

// handleChannelSettle finalizes a fast-channel batch entry by minting the
// settled amount to the recipient on-chain. Called by the channel service.
func (s *Server) handleChannelSettle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RecipientAddress string `json:"recipientAddress"`
		Amount           string `json:"amount"`
		TxID             string `json:"txId"`
	}
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	if body.RecipientAddress == "" || body.Amount == "" {
		s.writeError(w, commonerrors.NewValidationError("body", "missing recipientAddress or amount"))
		return
	}

	executor := s.registry.Get(s.defaultChain)
	if executor == nil {
		s.writeError(w, commonerrors.ErrChainNotFound)
		return
	}

	tokenAddress := ""
	if config := executor.GetConfig(); config != nil {
		tokenAddress = config.TokenAddress
	}
	if tokenAddress == "" {
		s.writeError(w, commonerrors.ErrTokenNotSupported)
		return
	}

	amount, err := types.ParseUnits(body.Amount, s.tokens.Decimals("TXTC"))
	if err != nil || amount.Sign() <= 0 {
		s.writeError(w, commonerrors.NewValidationError("amount", "must be a positive decimal"))
		return
	}

	receipt, err := executor.Execute(r.Context(), &types.Operation{
		Kind:         types.OpMint,
		ChainID:      s.defaultChain,
		TokenAddress: tokenAddress,
		To:           body.RecipientAddress,
		Amount:       amount,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.WithField("txHash", receipt.Hash).Info("Channel batch entry settled on-chain")

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"txHash":    receipt.Hash,
		"recipient": body.RecipientAddress,
		"amount":    body.Amount,
	})
}
