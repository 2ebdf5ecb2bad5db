package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusAdvanceMonotonic(t *testing.T) {
	req := &TransferRequest{Status: StatusAccepted}

	assert.True(t, req.Advance(StatusRouting))
	assert.True(t, req.Advance(StatusSettling))
	assert.True(t, req.Advance(StatusFallbackSettling))
	assert.True(t, req.Advance(StatusCompleted))

	// A terminal status never regresses or flips.
	assert.False(t, req.Advance(StatusSettling))
	assert.False(t, req.Advance(StatusFailed))
	assert.Equal(t, StatusCompleted, req.Status)
}

func TestStatusAdvanceSkipsFallback(t *testing.T) {
	req := &TransferRequest{Status: StatusSettling}

	assert.True(t, req.Advance(StatusCompleted))
	assert.Equal(t, StatusCompleted, req.Status)
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusSettling.Terminal())
	assert.False(t, StatusAccepted.Terminal())
}

func TestParseTransferKind(t *testing.T) {
	assert.Equal(t, KindRedeem, ParseTransferKind("REDEEM"))
	assert.Equal(t, KindBridge, ParseTransferKind("BRIDGE"))
	assert.Equal(t, TransferKind(""), ParseTransferKind("redeem"))
	assert.Equal(t, TransferKind(""), ParseTransferKind("bogus"))
}

func TestQuoteStale(t *testing.T) {
	q := &Quote{RequestedAt: time.Now()}
	assert.False(t, q.Stale(time.Minute))

	q.RequestedAt = time.Now().Add(-2 * time.Minute)
	assert.True(t, q.Stale(time.Minute))
}

func TestSameChain(t *testing.T) {
	assert.True(t, (&TransferRequest{FromChain: 1, ToChain: 1}).SameChain())
	assert.False(t, (&TransferRequest{FromChain: 1, ToChain: 137}).SameChain())
}
