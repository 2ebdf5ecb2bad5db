package server

import (
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/sirupsen/logrus"
)

// amountString renders a base-unit amount as decimal text, or empty when
// unknown.
func amountString(v *big.Int, decimals int) string {
	if v == nil {
		return ""
	}
	return types.FormatUnits(v, decimals)
}

// handleRedeem settles a voucher redemption synchronously and reports the
// credited amounts.
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VoucherCode string `json:"voucherCode"`
		UserAddress string `json:"userAddress"`
		UserPhone   string `json:"userPhone"`
		Chain       string `json:"chain"`
	}
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	chainID, err := s.resolveChain(body.Chain)
	if err != nil {
		s.writeError(w, err)
		return
	}

	req := &types.TransferRequest{
		Kind:          types.KindRedeem,
		VoucherCode:   body.VoucherCode,
		ToAddress:     body.UserAddress,
		Token:         "TXTC",
		FromChain:     chainID,
		NotifyContact: body.UserPhone,
	}

	outcome, err := s.orchestrator.SettleSync(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"tokenAmount": amountString(outcome.OutputAmount, s.tokens.Decimals("TXTC")),
		"ethAmount":   amountString(outcome.EthAmount, 18),
		"txHash":      outcome.TxHash(),
	})
}

// handleBalance reports the settlement-token and native balances of an
// address on the default chain.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

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

	tokenBalance, err := executor.GetTokenBalance(r.Context(), address, tokenAddress)
	if err != nil {
		s.writeError(w, err)
		return
	}
	nativeBalance, err := executor.GetTokenBalance(r.Context(), address, "")
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"address": address,
		"balances": map[string]string{
			"txtc": types.FormatUnits(tokenBalance, s.tokens.Decimals("TXTC")),
			"eth":  types.FormatUnits(nativeBalance, 18),
		},
	})
}

// handleSwap acknowledges a swap request and settles it asynchronously.
func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserAddress string `json:"userAddress"`
		TokenAmount string `json:"tokenAmount"`
		MinEthOut   string `json:"minEthOut"`
		UserPhone   string `json:"userPhone"`
		Chain       string `json:"chain"`
	}
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	chainID, err := s.resolveChain(body.Chain)
	if err != nil {
		s.writeError(w, err)
		return
	}

	req := &types.TransferRequest{
		Kind:          types.KindSwap,
		FromAddress:   body.UserAddress,
		Token:         "TXTC",
		Amount:        body.TokenAmount,
		FromChain:     chainID,
		NotifyContact: body.UserPhone,
	}

	if body.MinEthOut != "" && body.MinEthOut != "0" {
		minOut, err := types.ParseUnits(body.MinEthOut, 18)
		if err != nil {
			s.writeError(w, commonerrors.NewValidationError("minEthOut", err.Error()))
			return
		}
		req.MinOut = minOut
	}

	receipt, err := s.orchestrator.Submit(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Swap initiated",
		"requestId": receipt.RequestID,
	})
}

// handleSend settles a caller-funded token transfer synchronously.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserPrivateKey string `json:"userPrivateKey"`
		ToAddress      string `json:"toAddress"`
		Amount         string `json:"amount"`
		Token          string `json:"token"`
		Chain          string `json:"chain"`
	}
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	if body.UserPrivateKey == "" {
		s.writeError(w, commonerrors.NewValidationError("userPrivateKey", "missing"))
		return
	}

	chainID, err := s.resolveChain(body.Chain)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token := body.Token
	if token == "" {
		token = "TXTC"
	}

	req := &types.TransferRequest{
		Kind:      types.KindSend,
		ToAddress: body.ToAddress,
		Token:     token,
		Amount:    body.Amount,
		FromChain: chainID,
		SenderKey: body.UserPrivateKey,
	}

	outcome, err := s.orchestrator.SettleSync(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"txHash":  outcome.TxHash(),
	})
}

// handleSendYellow settles a send with the fast channel first, falling back
// to direct on-chain settlement when the channel is unavailable. The
// response shape reflects which path settled the transfer.
func (s *Server) handleSendYellow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FromAddress string `json:"fromAddress"`
		ToAddress   string `json:"toAddress"`
		Amount      string `json:"amount"`
		Token       string `json:"token"`
		UserPhone   string `json:"userPhone"`
		Chain       string `json:"chain"`
	}
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	chainID, err := s.resolveChain(body.Chain)
	if err != nil {
		s.writeError(w, err)
		return
	}

	req := &types.TransferRequest{
		Kind:          types.KindSend,
		FromAddress:   body.FromAddress,
		ToAddress:     body.ToAddress,
		Token:         body.Token,
		Amount:        body.Amount,
		FromChain:     chainID,
		NotifyContact: body.UserPhone,
	}

	outcome, err := s.orchestrator.SettleSync(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if outcome.Pending {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":             true,
			"transactionId":       outcome.ChannelRef,
			"message":             "Queued via fast settlement channel",
			"estimatedProcessing": "Within 3 minutes",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Transfer complete (on-chain fallback)",
		"txHash":  outcome.TxHash(),
	})
}

// handleBridge acknowledges a cross-chain transfer and settles it
// asynchronously through the aggregator. A single userAddress names the
// wallet on both ends of the route; explicit fromAddress/toAddress override
// it.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
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
		UserPhone   string `json:"userPhone"`
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

	fromAddress := body.FromAddress
	if fromAddress == "" {
		fromAddress = body.UserAddress
	}
	toAddress := body.ToAddress
	if toAddress == "" {
		toAddress = body.UserAddress
	}

	fromToken := body.FromToken
	if fromToken == "" {
		fromToken = body.Token
	}
	toToken := body.ToToken
	if toToken == "" {
		toToken = fromToken
	}

	req := &types.TransferRequest{
		Kind:          types.KindBridge,
		FromAddress:   fromAddress,
		ToAddress:     toAddress,
		Token:         fromToken,
		FromToken:     fromToken,
		ToToken:       toToken,
		Amount:        body.Amount,
		FromChain:     fromChain,
		ToChain:       toChain,
		NotifyContact: body.UserPhone,
	}

	receipt, err := s.orchestrator.Submit(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"requestId": receipt.RequestID,
		"fromChain": fromChain,
		"toChain":   toChain,
	}).Info("Bridge request accepted")

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Bridge initiated",
		"route":     routeLabel(body.Amount, fromToken, body.FromChain, fromChain, toToken, body.ToChain, toChain),
		"requestId": receipt.RequestID,
	})
}

// routeLabel renders the human-readable route summary for a bridge
// acknowledgement, preferring the chain names the caller supplied.
func routeLabel(amount, fromToken, fromChainName string, fromChain uint64, toToken, toChainName string, toChain uint64) string {
	if fromChainName == "" {
		fromChainName = strconv.FormatUint(fromChain, 10)
	}
	if toChainName == "" {
		toChainName = strconv.FormatUint(toChain, 10)
	}
	return fmt.Sprintf("%s %s (%s) → %s (%s)", amount, fromToken, fromChainName, toToken, toChainName)
}

// handlePrice reports the pool's current settlement-token price in native
// currency on the default chain.
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	executor := s.registry.Get(s.defaultChain)
	if executor == nil {
		s.writeError(w, commonerrors.ErrChainNotFound)
		return
	}

	price, err := executor.CurrentPrice(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	formatted := types.FormatUnits(price, 18)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"price":       formatted,
		"description": "1 TXTC = " + formatted + " ETH",
	})
}

// handlePoolQuote estimates a swap's output from current pool state without
// executing anything. The direction defaults to token-to-native.
func (s *Server) handlePoolQuote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount       string `json:"amount"`
		IsTokenToEth *bool  `json:"isTokenToEth"`
	}
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	tokenToNative := true
	if body.IsTokenToEth != nil {
		tokenToNative = *body.IsTokenToEth
	}

	amount, err := types.ParseUnits(body.Amount, 18)
	if err != nil || amount.Sign() <= 0 {
		s.writeError(w, commonerrors.NewValidationError("amount", "must be a positive decimal"))
		return
	}

	executor := s.registry.Get(s.defaultChain)
	if executor == nil {
		s.writeError(w, commonerrors.ErrChainNotFound)
		return
	}

	output, err := executor.EstimateSwapOutput(r.Context(), amount, tokenToNative)
	if err != nil {
		s.writeError(w, err)
		return
	}

	direction := "TXTC → ETH"
	if !tokenToNative {
		direction = "ETH → TXTC"
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"inputAmount":  body.Amount,
		"outputAmount": types.FormatUnits(output, 18),
		"direction":    direction,
	})
}
