package server

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/observability"
	"github.com/TextToChain/settlement-lib/orchestrator"
	"github.com/TextToChain/settlement-lib/quote"
	"github.com/TextToChain/settlement-lib/router"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRouter returns a fixed outcome for every request.
type scriptedRouter struct {
	outcome *types.SettlementOutcome
	err     error
}

func (r *scriptedRouter) Route(ctx context.Context, req *types.TransferRequest) (*types.SettlementOutcome, error) {
	if r.outcome.Success {
		req.Advance(types.StatusSettling)
	}
	return r.outcome, r.err
}

type noopDispatcher struct{}

func (noopDispatcher) Notify(ctx context.Context, contact, message string) {}

// stubExecutor serves balances, pool reads, and mints for the channel settle
// endpoint.
type stubExecutor struct {
	tokenBalance  *big.Int
	nativeBalance *big.Int
	minted        []*types.Operation
	config        *types.ChainConfig
}

func (s *stubExecutor) EstimateGas(ctx context.Context, to string, value *big.Int, data []byte) (uint64, error) {
	return 21000, nil
}

func (s *stubExecutor) Execute(ctx context.Context, op *types.Operation) (*types.TxReceipt, error) {
	s.minted = append(s.minted, op)
	return &types.TxReceipt{Hash: "0xmint", Status: types.TxDone}, nil
}

func (s *stubExecutor) ExecuteWithKey(ctx context.Context, key string, op *types.Operation) (*types.TxReceipt, error) {
	return &types.TxReceipt{Hash: "0xkeyed", Status: types.TxDone}, nil
}

func (s *stubExecutor) EnsureAllowance(ctx context.Context, tokenAddress, spender string, amount *big.Int) (string, error) {
	return "", nil
}

func (s *stubExecutor) GetTokenBalance(ctx context.Context, address, tokenAddress string) (*big.Int, error) {
	if tokenAddress == "" {
		return s.nativeBalance, nil
	}
	return s.tokenBalance, nil
}

func (s *stubExecutor) RedeemVoucher(ctx context.Context, code, user string) (*types.RedeemResult, error) {
	return nil, commonerrors.ErrNotImplemented
}

func (s *stubExecutor) SwapTokenForNative(ctx context.Context, user string, amount, minOut *big.Int) (*types.SwapResult, error) {
	return nil, commonerrors.ErrNotImplemented
}

func (s *stubExecutor) CurrentPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(5e14), nil
}

func (s *stubExecutor) EstimateSwapOutput(ctx context.Context, amount *big.Int, tokenToNative bool) (*big.Int, error) {
	return big.NewInt(5e15), nil
}

func (s *stubExecutor) GetConfig() *types.ChainConfig {
	if s.config != nil {
		return s.config
	}
	return &types.ChainConfig{ChainID: 11155111, TokenAddress: "0xtoken"}
}

type stubRegistry struct {
	executor types.ChainExecutor
}

func (r *stubRegistry) Add(ctx context.Context, config *types.ChainConfig) error { return nil }
func (r *stubRegistry) Get(chainID uint64) types.ChainExecutor                   { return r.executor }
func (r *stubRegistry) Remove(chainID uint64)                                    {}

type stubQuotes struct{}

func (stubQuotes) GetQuote(ctx context.Context, params *quote.Params) (*types.Quote, error) {
	return &types.Quote{
		ToAmount:          big.NewInt(995000),
		ToAmountMin:       big.NewInt(990050),
		ExecutionDuration: 30,
	}, nil
}

func (stubQuotes) GetStatus(ctx context.Context, txHash string, fromChain, toChain uint64) (json.RawMessage, error) {
	return json.RawMessage(`{"status":"DONE"}`), nil
}

func (stubQuotes) GetChains(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"chains":[]}`), nil
}

func newTestServer(t *testing.T, transferRouter router.Router) (*Server, *stubExecutor) {
	t.Helper()

	exec := &stubExecutor{
		tokenBalance:  new(big.Int).SetUint64(10e18),
		nativeBalance: big.NewInt(2e18),
	}
	tokens := types.DefaultTokenRegistry()
	metrics := observability.NewMetrics()

	orch := orchestrator.New(transferRouter, noopDispatcher{}, tokens, nil, metrics, &orchestrator.Config{}, logrus.New())

	srv := New(orch, &stubRegistry{executor: exec}, stubQuotes{}, tokens, metrics, &Config{
		Port:         3000,
		DefaultChain: 11155111,
	}, logrus.New())

	return srv, exec
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestRedeemMissingFieldsIs400(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/redeem", `{"userAddress": "0x2222222222222222222222222222222222222222"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "voucherCode")
}

func TestRedeemSuccess(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{
		Success:      true,
		Path:         types.PathOnChainDirect,
		TxHashes:     []string{"0xredeem"},
		OutputAmount: new(big.Int).SetUint64(10e18),
		EthAmount:    big.NewInt(2e15),
	}})

	rec := doJSON(t, srv, http.MethodPost, "/api/redeem", `{
		"voucherCode": "WELCOME10",
		"userAddress": "0x2222222222222222222222222222222222222222",
		"userPhone": "+15550001111"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "0xredeem", body["txHash"])
	assert.Equal(t, "10", body["tokenAmount"])
	assert.Equal(t, "0.002", body["ethAmount"])
}

func TestBalance(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodGet, "/api/balance/0x2222222222222222222222222222222222222222", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	balances := body["balances"].(map[string]interface{})
	assert.Equal(t, "10", balances["txtc"])
	assert.Equal(t, "2", balances["eth"])
}

func TestSwapAcknowledgesBeforeSettling(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/swap", `{
		"userAddress": "0x1111111111111111111111111111111111111111",
		"tokenAmount": "5"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Swap initiated", body["message"])
	assert.NotEmpty(t, body["requestId"])
}

func TestSendRequiresKey(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/send", `{
		"toAddress": "0x2222222222222222222222222222222222222222",
		"amount": "1"
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendYellowQueuedShape(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{
		Success:    true,
		Pending:    true,
		Path:       types.PathFastChannel,
		ChannelRef: "yellow-42",
	}})

	rec := doJSON(t, srv, http.MethodPost, "/api/send-yellow", `{
		"fromAddress": "0x1111111111111111111111111111111111111111",
		"toAddress": "0x2222222222222222222222222222222222222222",
		"amount": "5",
		"token": "TXTC"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "yellow-42", body["transactionId"])
	assert.NotEmpty(t, body["estimatedProcessing"])
}

func TestSendYellowFallbackShape(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{
		Success:  true,
		Path:     types.PathOnChainDirect,
		TxHashes: []string{"0xburn", "0xmint"},
	}})

	rec := doJSON(t, srv, http.MethodPost, "/api/send-yellow", `{
		"fromAddress": "0x1111111111111111111111111111111111111111",
		"toAddress": "0x2222222222222222222222222222222222222222",
		"amount": "5",
		"token": "TXTC"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "0xmint", body["txHash"])
	assert.Contains(t, body["message"], "on-chain fallback")
}

func TestBridgeAcknowledges(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/bridge", `{
		"fromAddress": "0x1111111111111111111111111111111111111111",
		"toAddress": "0x2222222222222222222222222222222222222222",
		"token": "USDC",
		"amount": "100",
		"fromChain": "ethereum",
		"toChain": "polygon"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["requestId"])
}

func TestBridgeUserAddressTokenPair(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/bridge", `{
		"fromChain": "ethereum",
		"toChain": "polygon",
		"fromToken": "USDC",
		"toToken": "USDT",
		"amount": "100",
		"userAddress": "0x1111111111111111111111111111111111111111"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Bridge initiated", body["message"])
	assert.Equal(t, "100 USDC (ethereum) → USDT (polygon)", body["route"])
	assert.NotEmpty(t, body["requestId"])
}

func TestBridgeUnknownChainIs400(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/bridge", `{
		"fromAddress": "0x1111111111111111111111111111111111111111",
		"toAddress": "0x2222222222222222222222222222222222222222",
		"token": "USDC",
		"amount": "100",
		"fromChain": "atlantis",
		"toChain": "polygon"
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownstreamFailureIs500(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{
		outcome: &types.SettlementOutcome{Success: false, Path: types.PathOnChainDirect, Error: "reverted"},
		err:     &commonerrors.ChainError{Reason: "reverted"},
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/redeem", `{
		"voucherCode": "WELCOME10",
		"userAddress": "0x2222222222222222222222222222222222222222"
	}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestChannelSettleMints(t *testing.T) {
	srv, exec := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/yellow/settle", `{
		"recipientAddress": "0x2222222222222222222222222222222222222222",
		"amount": "5",
		"txId": "yellow-42"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "0xmint", body["txHash"])

	require.Len(t, exec.minted, 1)
	assert.Equal(t, types.OpMint, exec.minted[0].Kind)
	assert.Equal(t, "0xtoken", exec.minted[0].TokenAddress)
}

func TestQuoteReportsHumanUnits(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/lifi/quote", `{
		"fromChain": "ethereum",
		"toChain": "polygon",
		"fromToken": "USDC",
		"toToken": "USDT",
		"amount": "1",
		"userAddress": "0x1111111111111111111111111111111111111111"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "0.995", body["estimatedOutput"])
	assert.Equal(t, "0.99005", body["minimumOutput"])
	assert.Equal(t, "30s", body["executionTime"])
	assert.Equal(t, true, body["isCrossChain"])
}

func TestSendYellowUnknownTokenIs400(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/send-yellow", `{
		"fromAddress": "0x1111111111111111111111111111111111111111",
		"toAddress": "0x2222222222222222222222222222222222222222",
		"amount": "5",
		"token": "DOGE"
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "token")
}

func TestBalanceWithoutSettlementToken(t *testing.T) {
	srv, exec := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})
	exec.config = &types.ChainConfig{ChainID: 11155111}

	rec := doJSON(t, srv, http.MethodGet, "/api/balance/0x2222222222222222222222222222222222222222", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestPriceFromPool(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodGet, "/api/price", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "0.0005", body["price"])
	assert.Equal(t, "1 TXTC = 0.0005 ETH", body["description"])
}

func TestPoolQuoteDirections(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodPost, "/api/quote", `{"amount": "10"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "10", body["inputAmount"])
	assert.Equal(t, "0.005", body["outputAmount"])
	assert.Equal(t, "TXTC → ETH", body["direction"])

	rec = doJSON(t, srv, http.MethodPost, "/api/quote", `{"amount": "0.01", "isTokenToEth": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ETH → TXTC", decode(t, rec)["direction"])
}

func TestAggregatorStatusProxy(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodGet, "/api/lifi/status/0xabc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"DONE"}`, rec.Body.String())
}

func TestMetricsExposed(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedRouter{outcome: &types.SettlementOutcome{Success: true}})

	rec := doJSON(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
}
