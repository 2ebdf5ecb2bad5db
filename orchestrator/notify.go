package orchestrator

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/notify"
)

// notifyOutcome dispatches the single terminal notification for a settled
// request. Dispatch never affects the settlement result.
func (o *Orchestrator) notifyOutcome(ctx context.Context, req *types.TransferRequest, outcome *types.SettlementOutcome) {
	if req.NotifyContact == "" {
		return
	}

	message := o.outcomeMessage(req, outcome)
	if message == "" {
		return
	}

	o.notifier.Notify(ctx, req.NotifyContact, message)
}

// outcomeMessage renders the notification text for an outcome.
func (o *Orchestrator) outcomeMessage(req *types.TransferRequest, outcome *types.SettlementOutcome) string {
	kind := strings.ToLower(string(req.Kind))

	if outcome.Indeterminate {
		return notify.PendingMessage(kind)
	}
	if !outcome.Success {
		return notify.FailedMessage(kind)
	}
	if outcome.Pending {
		// Queued with the fast channel; on-chain finalization happens in the
		// channel's batch.
		return notify.QueuedMessage(req.Amount, req.Token, req.ToAddress)
	}

	switch req.Kind {
	case types.KindRedeem:
		decimals := o.tokens.Decimals(req.Token)
		return notify.RedeemedMessage(formatAmount(outcome.OutputAmount, decimals), formatAmount(outcome.EthAmount, 18))
	case types.KindSwap:
		return notify.SwapCompletedMessage(req.Amount, formatAmount(outcome.OutputAmount, 18))
	case types.KindBridge:
		return notify.BridgedMessage(req.Amount, req.Token, o.chainName(req.ToChain))
	default:
		return notify.SentMessage(req.Amount, req.Token, req.ToAddress)
	}
}

// formatAmount renders a base-unit amount as decimal text, or a dash when
// the amount is unknown.
func formatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "-"
	}
	return types.FormatUnits(amount, decimals)
}

// chainName resolves a chain ID back to a display name, falling back to the
// numeric ID.
func (o *Orchestrator) chainName(chainID uint64) string {
	for name, id := range o.tokens.Chains() {
		if id == chainID {
			return name
		}
	}
	return "chain " + strconv.FormatUint(chainID, 10)
}
