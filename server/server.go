package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/observability"
	"github.com/TextToChain/settlement-lib/orchestrator"
	"github.com/TextToChain/settlement-lib/quote"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Server exposes the settlement HTTP surface.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	registry     types.ExecutorRegistry
	quotes       quote.Provider
	tokens       *types.TokenRegistry
	metrics      *observability.Metrics
	logger       *logrus.Logger

	// defaultChain serves requests that do not name a chain.
	defaultChain uint64

	httpServer *http.Server
}

// Config holds the server settings.
type Config struct {
	Port         int
	DefaultChain uint64
}

// New creates the settlement HTTP server.
func New(
	orch *orchestrator.Orchestrator,
	registry types.ExecutorRegistry,
	quotes quote.Provider,
	tokens *types.TokenRegistry,
	metrics *observability.Metrics,
	config *Config,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		orchestrator: orch,
		registry:     registry,
		quotes:       quotes,
		tokens:       tokens,
		metrics:      metrics,
		logger:       logger,
		defaultChain: config.DefaultChain,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/redeem", s.handleRedeem)
	mux.HandleFunc("GET /api/balance/{address}", s.handleBalance)
	mux.HandleFunc("POST /api/swap", s.handleSwap)
	mux.HandleFunc("GET /api/price", s.handlePrice)
	mux.HandleFunc("POST /api/quote", s.handlePoolQuote)
	mux.HandleFunc("POST /api/send", s.handleSend)
	mux.HandleFunc("POST /api/send-yellow", s.handleSendYellow)
	mux.HandleFunc("POST /api/bridge", s.handleBridge)
	mux.HandleFunc("POST /api/lifi/quote", s.handleQuote)
	mux.HandleFunc("GET /api/lifi/status/{txHash}", s.handleAggregatorStatus)
	mux.HandleFunc("GET /api/lifi/chains", s.handleAggregatorChains)
	mux.HandleFunc("POST /api/yellow/settle", s.handleChannelSettle)
	mux.Handle("GET /metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// ListenAndServe starts serving and blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Settlement server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the server's HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// writeJSON writes a JSON response body with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps an error onto the response contract: 400 for rejected
// input, 409 for duplicate in-flight keys, 503 for a full queue, 500 for
// everything downstream.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case commonerrors.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, commonerrors.ErrRequestInFlight):
		status = http.StatusConflict
	case errors.Is(err, commonerrors.ErrQueueFull):
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// decodeBody decodes a JSON request body into dst.
func (s *Server) decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return commonerrors.NewValidationError("body", "malformed JSON")
	}
	return nil
}

// resolveChain resolves a chain given by name or decimal ID, defaulting to
// the server's default chain when empty.
func (s *Server) resolveChain(chain string) (uint64, error) {
	if chain == "" {
		return s.defaultChain, nil
	}
	if id, ok := s.tokens.ResolveChainID(chain); ok {
		return id, nil
	}
	if id, err := strconv.ParseUint(chain, 10, 64); err == nil {
		return id, nil
	}
	return 0, commonerrors.NewValidationError("chain", "unknown chain "+chain)
}
