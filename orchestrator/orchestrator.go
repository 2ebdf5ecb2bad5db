package orchestrator

import (
	"context"
	"sync"
	"time"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/dbstore"
	"github.com/TextToChain/settlement-lib/notify"
	"github.com/TextToChain/settlement-lib/observability"
	"github.com/TextToChain/settlement-lib/router"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Orchestrator owns every transfer request from intake to terminal status.
// It validates input, assigns identifiers, enforces per-key mutual
// exclusion, drives settlement through the router, and dispatches exactly
// one best-effort notification per terminal outcome.
type Orchestrator struct {
	router   router.Router
	notifier notify.Dispatcher
	tokens   *types.TokenRegistry
	store    *dbstore.DBStore
	metrics  *observability.Metrics
	logger   *logrus.Logger

	queue   chan *types.TransferRequest
	workers int

	inflightMutex sync.Mutex
	inflight      map[string]struct{}

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Config holds the orchestrator settings.
type Config struct {
	// Workers is the number of settlement workers draining the queue.
	Workers int
	// QueueSize bounds the number of accepted-but-unsettled async requests.
	QueueSize int
}

// New creates a settlement orchestrator. The store may be nil, which
// disables the journal.
func New(
	transferRouter router.Router,
	notifier notify.Dispatcher,
	tokens *types.TokenRegistry,
	store *dbstore.DBStore,
	metrics *observability.Metrics,
	config *Config,
	logger *logrus.Logger,
) *Orchestrator {
	workers := config.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}

	return &Orchestrator{
		router:   transferRouter,
		notifier: notifier,
		tokens:   tokens,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		queue:    make(chan *types.TransferRequest, queueSize),
		workers:  workers,
		inflight: make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Start launches the settlement workers.
func (o *Orchestrator) Start(ctx context.Context) {
	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go o.worker(ctx)
	}
}

// Stop stops accepting queued work and waits for in-flight settlements to
// finish.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		close(o.stopChan)
	})
	o.wg.Wait()
}

// Submit accepts an asynchronous transfer request. The request is validated,
// assigned an identifier, and queued; the returned receipt acknowledges
// acceptance before any chain interaction begins.
func (o *Orchestrator) Submit(ctx context.Context, req *types.TransferRequest) (*types.AcceptanceReceipt, error) {
	if err := o.accept(ctx, req); err != nil {
		return nil, err
	}

	select {
	case o.queue <- req:
		o.metrics.SetQueueDepth(len(o.queue))
	default:
		o.release(exclusionKey(req))
		return nil, commonerrors.ErrQueueFull
	}

	return &types.AcceptanceReceipt{
		RequestID:  req.ID,
		Status:     req.Status,
		AcceptedAt: req.AcceptedAt,
	}, nil
}

// SettleSync accepts a transfer request and settles it inline, returning its
// outcome. Used for kinds whose callers wait for the result.
func (o *Orchestrator) SettleSync(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	if err := o.accept(ctx, req); err != nil {
		return nil, err
	}

	return o.settle(ctx, req)
}

// accept validates the request, assigns its identity, and acquires its
// exclusion key.
func (o *Orchestrator) accept(ctx context.Context, req *types.TransferRequest) error {
	if err := o.validate(req); err != nil {
		return err
	}

	req.ID = uuid.NewString()
	req.Status = types.StatusAccepted
	req.AcceptedAt = time.Now()

	if !o.acquire(exclusionKey(req)) {
		return commonerrors.ErrRequestInFlight
	}

	o.logger.WithFields(logrus.Fields{
		"requestId": req.ID,
		"kind":      req.Kind,
		"fromChain": req.FromChain,
		"toChain":   req.ToChain,
	}).Info("Transfer request accepted")

	o.journalInsert(ctx, req)
	return nil
}

func (o *Orchestrator) worker(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopChan:
			return
		case req := <-o.queue:
			o.metrics.SetQueueDepth(len(o.queue))
			o.settleGuarded(ctx, req)
		}
	}
}

// settleGuarded runs a settlement behind a panic boundary so a single
// request can never take a worker down.
func (o *Orchestrator) settleGuarded(ctx context.Context, req *types.TransferRequest) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"requestId": req.ID,
				"panic":     r,
			}).Error("Settlement panicked")

			o.release(exclusionKey(req))
			req.Advance(types.StatusFailed)
		}
	}()

	if _, err := o.settle(ctx, req); err != nil {
		o.logger.WithFields(logrus.Fields{
			"requestId": req.ID,
			"error":     err,
		}).Error("Settlement failed")
	}
}

// settle drives one request to its terminal status. It releases the
// request's exclusion key, records the outcome, and dispatches exactly one
// notification.
func (o *Orchestrator) settle(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	defer o.release(exclusionKey(req))

	outcome, err := o.router.Route(ctx, req)

	fellBack := req.Status == types.StatusFallbackSettling
	if fellBack {
		o.metrics.ObserveFallback()
	}

	if outcome.Success {
		req.Advance(types.StatusCompleted)
	} else {
		req.Advance(types.StatusFailed)
	}

	o.metrics.ObserveSettlement(string(req.Kind), string(outcome.Path), string(req.Status), time.Since(req.AcceptedAt))
	o.journalOutcome(ctx, req, outcome)
	o.notifyOutcome(ctx, req, outcome)

	if err != nil {
		return outcome, errors.Wrapf(err, "settlement of request %s failed", req.ID)
	}
	return outcome, nil
}

// acquire takes the exclusion key, reporting false when it is already held.
func (o *Orchestrator) acquire(key string) bool {
	o.inflightMutex.Lock()
	defer o.inflightMutex.Unlock()

	if _, held := o.inflight[key]; held {
		return false
	}
	o.inflight[key] = struct{}{}
	return true
}

func (o *Orchestrator) release(key string) {
	o.inflightMutex.Lock()
	defer o.inflightMutex.Unlock()
	delete(o.inflight, key)
}

// journalInsert records the accepted request. Journal failures are logged
// and ignored.
func (o *Orchestrator) journalInsert(ctx context.Context, req *types.TransferRequest) {
	if o.store == nil {
		return
	}
	if err := o.store.InsertRequest(ctx, req); err != nil {
		o.logger.WithFields(logrus.Fields{
			"requestId": req.ID,
			"error":     err,
		}).Warn("Failed to journal accepted request")
	}
}

// journalOutcome records the terminal outcome. Journal failures are logged
// and ignored.
func (o *Orchestrator) journalOutcome(ctx context.Context, req *types.TransferRequest, outcome *types.SettlementOutcome) {
	if o.store == nil {
		return
	}
	if err := o.store.RecordOutcome(ctx, req.ID, req.Status, outcome); err != nil {
		o.logger.WithFields(logrus.Fields{
			"requestId": req.ID,
			"error":     err,
		}).Warn("Failed to journal settlement outcome")
	}
}
