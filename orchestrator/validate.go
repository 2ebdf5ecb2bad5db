package orchestrator

import (
	"strings"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
)

// validate rejects malformed requests before any identifier is assigned or
// any external call is made. On success the request's BaseAmount is set from
// its decimal Amount.
func (o *Orchestrator) validate(req *types.TransferRequest) error {
	switch req.Kind {
	case types.KindRedeem:
		return o.validateRedeem(req)
	case types.KindSwap:
		return o.validateSwap(req)
	case types.KindSend:
		return o.validateSend(req)
	case types.KindBridge:
		return o.validateBridge(req)
	default:
		return commonerrors.NewValidationError("kind", "unknown transfer kind")
	}
}

func (o *Orchestrator) validateRedeem(req *types.TransferRequest) error {
	if req.VoucherCode == "" {
		return commonerrors.NewValidationError("voucherCode", "missing")
	}
	if !common.IsHexAddress(req.ToAddress) {
		return commonerrors.NewValidationError("toAddress", "not a valid address")
	}
	if req.FromChain == 0 {
		return commonerrors.NewValidationError("fromChain", "missing")
	}
	req.ToChain = req.FromChain
	return nil
}

func (o *Orchestrator) validateSwap(req *types.TransferRequest) error {
	if !common.IsHexAddress(req.FromAddress) {
		return commonerrors.NewValidationError("fromAddress", "not a valid address")
	}
	if req.FromChain == 0 {
		return commonerrors.NewValidationError("fromChain", "missing")
	}
	req.ToChain = req.FromChain
	return o.parseAmount(req)
}

func (o *Orchestrator) validateSend(req *types.TransferRequest) error {
	if !common.IsHexAddress(req.ToAddress) {
		return commonerrors.NewValidationError("toAddress", "not a valid address")
	}
	if req.SenderKey == "" && !common.IsHexAddress(req.FromAddress) {
		return commonerrors.NewValidationError("fromAddress", "not a valid address")
	}
	if req.FromChain == 0 {
		return commonerrors.NewValidationError("fromChain", "missing")
	}
	if req.ToChain == 0 {
		req.ToChain = req.FromChain
	}
	if req.Token == "" {
		return commonerrors.NewValidationError("token", "missing")
	}
	if !o.tokenUsable(req.Token, req.FromChain) {
		return commonerrors.NewValidationError("token", "not supported on chain")
	}
	return o.parseAmount(req)
}

func (o *Orchestrator) validateBridge(req *types.TransferRequest) error {
	if !common.IsHexAddress(req.FromAddress) {
		return commonerrors.NewValidationError("fromAddress", "not a valid address")
	}
	if !common.IsHexAddress(req.ToAddress) {
		return commonerrors.NewValidationError("toAddress", "not a valid address")
	}
	if req.FromChain == 0 {
		return commonerrors.NewValidationError("fromChain", "missing")
	}
	if req.ToChain == 0 {
		return commonerrors.NewValidationError("toChain", "missing")
	}
	if req.FromToken == "" {
		req.FromToken = req.Token
	}
	if req.FromToken == "" {
		return commonerrors.NewValidationError("fromToken", "missing")
	}
	if req.ToToken == "" {
		req.ToToken = req.FromToken
	}
	if req.Token == "" {
		// Amounts and notifications are denominated in the source-side token.
		req.Token = req.FromToken
	}
	if !o.tokenUsable(req.FromToken, req.FromChain) {
		return commonerrors.NewValidationError("fromToken", "not supported on source chain")
	}
	if !o.tokenUsable(req.ToToken, req.ToChain) {
		return commonerrors.NewValidationError("toToken", "not supported on destination chain")
	}
	return o.parseAmount(req)
}

// tokenUsable reports whether the symbol resolves on the chain, either
// through the public registry or as the settlement token.
func (o *Orchestrator) tokenUsable(token string, chainID uint64) bool {
	if _, ok := o.tokens.ResolveTokenAddress(token, chainID); ok {
		return true
	}
	return strings.EqualFold(token, types.SettlementSymbol)
}

// parseAmount converts the decimal amount into the token's base units. Zero
// and negative amounts are rejected.
func (o *Orchestrator) parseAmount(req *types.TransferRequest) error {
	if req.Amount == "" {
		return commonerrors.NewValidationError("amount", "missing")
	}

	decimals := o.tokens.Decimals(req.Token)
	base, err := types.ParseUnits(req.Amount, decimals)
	if err != nil {
		return commonerrors.NewValidationError("amount", err.Error())
	}
	if base.Sign() <= 0 {
		return commonerrors.NewValidationError("amount", "must be positive")
	}

	req.BaseAmount = base
	return nil
}

// exclusionKey derives the mutual exclusion key for a request. Redemptions
// lock their voucher code; everything else locks the payer address.
func exclusionKey(req *types.TransferRequest) string {
	if req.Kind == types.KindRedeem {
		return "voucher:" + req.VoucherCode
	}
	if req.FromAddress == "" {
		// Caller-funded sends may omit the source address; the recipient
		// serves as the exclusion key instead.
		return "payer:" + common.HexToAddress(req.ToAddress).Hex()
	}
	return "payer:" + common.HexToAddress(req.FromAddress).Hex()
}
