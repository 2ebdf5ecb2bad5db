package orchestrator

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/observability"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRouter scripts the outcome of every routed request. When block is
// non-nil, Route waits on it before returning, letting tests hold a request
// in flight.
type fakeRouter struct {
	outcome *types.SettlementOutcome
	err     error
	block   chan struct{}

	mutex  sync.Mutex
	routed []*types.TransferRequest
}

func (r *fakeRouter) Route(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	r.mutex.Lock()
	r.routed = append(r.routed, req)
	r.mutex.Unlock()

	if r.block != nil {
		<-r.block
	}

	req.Advance(types.StatusSettling)
	return r.outcome, r.err
}

func (r *fakeRouter) routedCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.routed)
}

// fakeDispatcher records every notification.
type fakeDispatcher struct {
	mutex    sync.Mutex
	messages []string
	contacts []string
}

func (d *fakeDispatcher) Notify(ctx context.Context, contact, message string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.contacts = append(d.contacts, contact)
	d.messages = append(d.messages, message)
}

func (d *fakeDispatcher) count() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.messages)
}

func (d *fakeDispatcher) last() string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if len(d.messages) == 0 {
		return ""
	}
	return d.messages[len(d.messages)-1]
}

func newTestOrchestrator(r *fakeRouter, d *fakeDispatcher) *Orchestrator {
	return New(r, d, types.DefaultTokenRegistry(), nil, observability.NewMetrics(), &Config{Workers: 2, QueueSize: 4}, logrus.New())
}

func successOutcome() *types.SettlementOutcome {
	return &types.SettlementOutcome{
		Success:      true,
		Path:         types.PathOnChainDirect,
		TxHashes:     []string{"0xhash"},
		OutputAmount: big.NewInt(5e18),
	}
}

func sendRequest() *types.TransferRequest {
	return &types.TransferRequest{
		Kind:          types.KindSend,
		FromAddress:   "0x1111111111111111111111111111111111111111",
		ToAddress:     "0x2222222222222222222222222222222222222222",
		Token:         "ETH",
		Amount:        "5",
		FromChain:     11155111,
		NotifyContact: "+15550001111",
	}
}

func TestSettleSyncSuccess(t *testing.T) {
	router := &fakeRouter{outcome: successOutcome()}
	dispatcher := &fakeDispatcher{}
	o := newTestOrchestrator(router, dispatcher)

	req := sendRequest()
	outcome, err := o.SettleSync(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, types.StatusCompleted, req.Status)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, big.NewInt(5e18), req.BaseAmount)
	assert.Equal(t, 1, dispatcher.count(), "exactly one notification per terminal outcome")
	assert.Contains(t, dispatcher.last(), "Sent 5 ETH")
}

func TestSettleSyncFailure(t *testing.T) {
	router := &fakeRouter{
		outcome: &types.SettlementOutcome{Success: false, Path: types.PathOnChainDirect, Error: "reverted"},
		err:     &commonerrors.ChainError{Reason: "reverted"},
	}
	dispatcher := &fakeDispatcher{}
	o := newTestOrchestrator(router, dispatcher)

	req := sendRequest()
	outcome, err := o.SettleSync(context.Background(), req)
	require.Error(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, types.StatusFailed, req.Status)
	assert.Equal(t, 1, dispatcher.count())
	assert.Contains(t, dispatcher.last(), "could not be completed")
}

func TestValidationRejectsBeforeRouting(t *testing.T) {
	router := &fakeRouter{outcome: successOutcome()}
	o := newTestOrchestrator(router, &fakeDispatcher{})

	cases := []*types.TransferRequest{
		{Kind: types.KindSend, FromAddress: "not-an-address", ToAddress: "0x2222222222222222222222222222222222222222", Token: "ETH", Amount: "1", FromChain: 1},
		{Kind: types.KindSend, FromAddress: "0x1111111111111111111111111111111111111111", ToAddress: "0x2222222222222222222222222222222222222222", Token: "ETH", Amount: "0", FromChain: 1},
		{Kind: types.KindSend, FromAddress: "0x1111111111111111111111111111111111111111", ToAddress: "0x2222222222222222222222222222222222222222", Token: "ETH", Amount: "-1", FromChain: 1},
		{Kind: types.KindSend, FromAddress: "0x1111111111111111111111111111111111111111", ToAddress: "0x2222222222222222222222222222222222222222", Token: "ETH", FromChain: 1},
		{Kind: types.KindRedeem, ToAddress: "0x2222222222222222222222222222222222222222", FromChain: 1},
		{Kind: types.KindBridge, FromAddress: "0x1111111111111111111111111111111111111111", ToAddress: "0x2222222222222222222222222222222222222222", Token: "USDC", Amount: "1", FromChain: 1},
		{Kind: types.KindSend, FromAddress: "0x1111111111111111111111111111111111111111", ToAddress: "0x2222222222222222222222222222222222222222", Token: "DOGE", Amount: "1", FromChain: 1},
		{Kind: types.KindBridge, FromAddress: "0x1111111111111111111111111111111111111111", ToAddress: "0x2222222222222222222222222222222222222222", FromToken: "USDC", ToToken: "DOGE", Amount: "1", FromChain: 1, ToChain: 137},
		{Kind: "STAKE", FromChain: 1},
	}

	for i, req := range cases {
		_, err := o.SettleSync(context.Background(), req)
		require.Error(t, err, "case %d", i)
		assert.True(t, commonerrors.IsValidation(err), "case %d: %v", i, err)
	}

	assert.Equal(t, 0, router.routedCount(), "invalid requests never reach the router")
}

func TestBridgeTokenPairDefaults(t *testing.T) {
	router := &fakeRouter{outcome: successOutcome()}
	o := newTestOrchestrator(router, &fakeDispatcher{})

	req := &types.TransferRequest{
		Kind:        types.KindBridge,
		FromAddress: "0x1111111111111111111111111111111111111111",
		ToAddress:   "0x1111111111111111111111111111111111111111",
		FromToken:   "USDC",
		Amount:      "100",
		FromChain:   1,
		ToChain:     137,
	}

	_, err := o.SettleSync(context.Background(), req)
	require.NoError(t, err)

	// The destination token and the amount denomination both follow the
	// source-side token when left unset.
	assert.Equal(t, "USDC", req.ToToken)
	assert.Equal(t, "USDC", req.Token)
	assert.Equal(t, big.NewInt(100e6), req.BaseAmount)
}

func TestDuplicatePayerRejectedWhileInFlight(t *testing.T) {
	router := &fakeRouter{outcome: successOutcome(), block: make(chan struct{})}
	dispatcher := &fakeDispatcher{}
	o := newTestOrchestrator(router, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)
	defer o.Stop()

	first := sendRequest()
	first.Kind = types.KindSwap
	receipt, err := o.Submit(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, receipt.Status)

	// Wait until the worker holds the request.
	require.Eventually(t, func() bool { return router.routedCount() == 1 }, time.Second, 5*time.Millisecond)

	second := sendRequest()
	second.Kind = types.KindSwap
	_, err = o.Submit(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrRequestInFlight))

	// Releasing the first settles it and frees the key. The closed channel
	// no longer blocks later routes.
	close(router.block)
	require.Eventually(t, func() bool { return dispatcher.count() == 1 }, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		third := sendRequest()
		third.Kind = types.KindSwap
		_, err := o.Submit(ctx, third)
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestVoucherCodeExclusion(t *testing.T) {
	router := &fakeRouter{outcome: successOutcome(), block: make(chan struct{})}
	o := newTestOrchestrator(router, &fakeDispatcher{})

	ctx := context.Background()
	redeem := func() *types.TransferRequest {
		return &types.TransferRequest{
			Kind:        types.KindRedeem,
			VoucherCode: "WELCOME10",
			ToAddress:   "0x2222222222222222222222222222222222222222",
			FromChain:   11155111,
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.SettleSync(ctx, redeem())
	}()

	require.Eventually(t, func() bool { return router.routedCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := o.SettleSync(ctx, redeem())
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrRequestInFlight))

	close(router.block)
	<-done
}

func TestPendingOutcomeNotifiesQueued(t *testing.T) {
	router := &fakeRouter{outcome: &types.SettlementOutcome{
		Success:    true,
		Pending:    true,
		Path:       types.PathFastChannel,
		ChannelRef: "yellow-1",
	}}
	dispatcher := &fakeDispatcher{}
	o := newTestOrchestrator(router, dispatcher)

	req := sendRequest()
	outcome, err := o.SettleSync(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, outcome.Pending)
	assert.Equal(t, types.StatusCompleted, req.Status)
	assert.Contains(t, dispatcher.last(), "queued")
}

func TestIndeterminateOutcomeNotifiesPending(t *testing.T) {
	router := &fakeRouter{
		outcome: &types.SettlementOutcome{
			Success:       false,
			Path:          types.PathOnChainDirect,
			TxHashes:      []string{"0xhash"},
			Indeterminate: true,
			Error:         "confirmation timed out",
		},
		err: &commonerrors.TimeoutError{TxHash: "0xhash"},
	}
	dispatcher := &fakeDispatcher{}
	o := newTestOrchestrator(router, dispatcher)

	req := sendRequest()
	_, err := o.SettleSync(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, types.StatusFailed, req.Status)
	assert.Contains(t, dispatcher.last(), "confirmation timed out")
}

func TestNoContactNoNotification(t *testing.T) {
	router := &fakeRouter{outcome: successOutcome()}
	dispatcher := &fakeDispatcher{}
	o := newTestOrchestrator(router, dispatcher)

	req := sendRequest()
	req.NotifyContact = ""
	_, err := o.SettleSync(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, dispatcher.count())
}

func TestQueueFull(t *testing.T) {
	router := &fakeRouter{outcome: successOutcome(), block: make(chan struct{})}
	defer close(router.block)

	// No workers started: the queue only drains manually.
	o := New(router, &fakeDispatcher{}, types.DefaultTokenRegistry(), nil, observability.NewMetrics(), &Config{Workers: 1, QueueSize: 1}, logrus.New())

	first := sendRequest()
	first.Kind = types.KindSwap
	_, err := o.Submit(context.Background(), first)
	require.NoError(t, err)

	second := sendRequest()
	second.Kind = types.KindSwap
	second.FromAddress = "0x3333333333333333333333333333333333333333"
	_, err = o.Submit(context.Background(), second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrQueueFull))
}

func TestWorkerSurvivesPanic(t *testing.T) {
	router := &panickingRouter{}
	o := newTestOrchestrator(&fakeRouter{outcome: successOutcome()}, &fakeDispatcher{})
	o.router = router

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)
	defer o.Stop()

	first := sendRequest()
	first.Kind = types.KindSwap
	_, err := o.Submit(ctx, first)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return router.count() == 1 }, time.Second, 5*time.Millisecond)

	// The worker is still alive and the key was released.
	require.Eventually(t, func() bool {
		second := sendRequest()
		second.Kind = types.KindSwap
		_, err := o.Submit(ctx, second)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool { return router.count() >= 2 }, time.Second, 5*time.Millisecond)
}

type panickingRouter struct {
	mutex sync.Mutex
	calls int
}

func (r *panickingRouter) Route(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	r.mutex.Lock()
	r.calls++
	r.mutex.Unlock()
	panic("boom")
}

func (r *panickingRouter) count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.calls
}
