package quote

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Provider obtains route quotes and status from a bridge aggregator.
type Provider interface {
	// GetQuote requests a fresh quote for the given route. A response with no
	// viable route yields a QuoteError.
	GetQuote(ctx context.Context, params *Params) (*types.Quote, error)
	// GetStatus returns the aggregator's view of a previously submitted
	// transfer transaction.
	GetStatus(ctx context.Context, txHash string, fromChain, toChain uint64) (json.RawMessage, error)
	// GetChains lists the chains the aggregator supports.
	GetChains(ctx context.Context) (json.RawMessage, error)
}

// Params describe the route to quote. Amounts are base units.
type Params struct {
	FromChain   uint64
	ToChain     uint64
	FromToken   string
	ToToken     string
	FromAmount  *big.Int
	FromAddress string
	ToAddress   string
}

// Config holds the aggregator client settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Integrator string
	Slippage   float64
	HTTPClient *http.Client
}

type client struct {
	baseURL    string
	apiKey     string
	integrator string
	slippage   float64
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates an aggregator quote client.
func NewClient(config *Config, logger *logrus.Logger) Provider {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		integrator: config.Integrator,
		slippage:   config.Slippage,
		httpClient: httpClient,
		logger:     logger,
	}
}

// quoteResponse mirrors the subset of the aggregator's quote payload the
// settlement flow needs.
type quoteResponse struct {
	Estimate struct {
		ToAmount          string `json:"toAmount"`
		ToAmountMin       string `json:"toAmountMin"`
		ApprovalAddress   string `json:"approvalAddress"`
		ExecutionDuration int    `json:"executionDuration"`
	} `json:"estimate"`
	Action struct {
		FromToken struct {
			Address string `json:"address"`
		} `json:"fromToken"`
		FromAmount  string `json:"fromAmount"`
		FromChainID uint64 `json:"fromChainId"`
		ToChainID   uint64 `json:"toChainId"`
	} `json:"action"`
	TransactionRequest struct {
		To       string `json:"to"`
		Data     string `json:"data"`
		Value    string `json:"value"`
		GasLimit string `json:"gasLimit"`
	} `json:"transactionRequest"`
}

// errorResponse mirrors the aggregator's error payload.
type errorResponse struct {
	Message string `json:"message"`
	Errors  []struct {
		Tool    string `json:"tool"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *client) GetQuote(ctx context.Context, params *Params) (*types.Quote, error) {
	query := url.Values{}
	query.Set("fromChain", strconv.FormatUint(params.FromChain, 10))
	query.Set("toChain", strconv.FormatUint(params.ToChain, 10))
	query.Set("fromToken", params.FromToken)
	query.Set("toToken", params.ToToken)
	query.Set("fromAmount", params.FromAmount.String())
	query.Set("fromAddress", params.FromAddress)
	query.Set("toAddress", params.ToAddress)
	query.Set("integrator", c.integrator)
	query.Set("slippage", strconv.FormatFloat(c.slippage, 'f', -1, 64))
	query.Set("order", "CHEAPEST")

	body, err := c.get(ctx, c.baseURL+"/quote?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode quote response")
	}

	quote, err := c.buildQuote(&resp)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"fromChain": quote.FromChain,
		"toChain":   quote.ToChain,
		"toAmount":  quote.ToAmount.String(),
	}).Debug("Aggregator quote obtained")

	return quote, nil
}

func (c *client) GetStatus(ctx context.Context, txHash string, fromChain, toChain uint64) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("txHash", txHash)
	if fromChain != 0 {
		query.Set("fromChain", strconv.FormatUint(fromChain, 10))
	}
	if toChain != 0 {
		query.Set("toChain", strconv.FormatUint(toChain, 10))
	}

	return c.get(ctx, c.baseURL+"/status?"+query.Encode())
}

func (c *client) GetChains(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, c.baseURL+"/chains")
}

// get performs a GET request against the aggregator and maps error payloads
// onto the route error taxonomy.
func (c *client) get(ctx context.Context, rawURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aggregator request")
	}
	if c.apiKey != "" {
		req.Header.Set("x-lifi-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "aggregator request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read aggregator response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.decodeError(resp.StatusCode, body)
	}

	return body, nil
}

// decodeError converts a non-2xx aggregator response into a QuoteError when
// the payload names route failures, or a plain error otherwise.
func (c *client) decodeError(status int, body []byte) error {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Errors) > 0 {
			reasons := make([]string, 0, len(payload.Errors))
			for _, e := range payload.Errors {
				reasons = append(reasons, e.Tool+": "+e.Message)
			}
			return &commonerrors.QuoteError{Reason: strings.Join(reasons, ", ")}
		}
		if payload.Message != "" {
			return &commonerrors.QuoteError{Reason: payload.Message}
		}
	}

	return errors.Errorf("aggregator returned status %d", status)
}

// buildQuote converts the decoded response into an immutable quote snapshot.
func (c *client) buildQuote(resp *quoteResponse) (*types.Quote, error) {
	toAmount, ok := new(big.Int).SetString(resp.Estimate.ToAmount, 10)
	if !ok {
		return nil, errors.Errorf("invalid toAmount in quote: %q", resp.Estimate.ToAmount)
	}
	toAmountMin, ok := new(big.Int).SetString(resp.Estimate.ToAmountMin, 10)
	if !ok {
		return nil, errors.Errorf("invalid toAmountMin in quote: %q", resp.Estimate.ToAmountMin)
	}
	fromAmount, ok := new(big.Int).SetString(resp.Action.FromAmount, 10)
	if !ok {
		return nil, errors.Errorf("invalid fromAmount in quote: %q", resp.Action.FromAmount)
	}

	if resp.TransactionRequest.To == "" {
		return nil, errors.New("quote has no transaction request")
	}

	// Enforce the slippage floor: a quote whose guaranteed minimum undercuts
	// the requested tolerance is not executable.
	if c.slippage > 0 {
		bps := int64((1 - c.slippage) * 10000)
		floor := new(big.Int).Mul(toAmount, big.NewInt(bps))
		floor.Div(floor, big.NewInt(10000))
		if toAmountMin.Cmp(floor) < 0 {
			return nil, &commonerrors.QuoteError{
				Reason: "guaranteed minimum " + toAmountMin.String() + " is below the slippage floor " + floor.String(),
			}
		}
	}

	txRequest, err := c.buildTxRequest(resp)
	if err != nil {
		return nil, err
	}

	return &types.Quote{
		FromChain:         resp.Action.FromChainID,
		ToChain:           resp.Action.ToChainID,
		FromToken:         resp.Action.FromToken.Address,
		FromAmount:        fromAmount,
		ToAmount:          toAmount,
		ToAmountMin:       toAmountMin,
		ApprovalAddress:   resp.Estimate.ApprovalAddress,
		ExecutionDuration: resp.Estimate.ExecutionDuration,
		TxRequest:         txRequest,
		RequestedAt:       time.Now(),
	}, nil
}

func (c *client) buildTxRequest(resp *quoteResponse) (*types.TxRequest, error) {
	data, err := hexutil.Decode(resp.TransactionRequest.Data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid calldata in quote")
	}

	value := big.NewInt(0)
	if resp.TransactionRequest.Value != "" {
		value, err = parseQuantity(resp.TransactionRequest.Value)
		if err != nil {
			return nil, errors.Wrap(err, "invalid value in quote")
		}
	}

	var gasLimit uint64
	if resp.TransactionRequest.GasLimit != "" {
		gas, err := parseQuantity(resp.TransactionRequest.GasLimit)
		if err != nil {
			return nil, errors.Wrap(err, "invalid gas limit in quote")
		}
		gasLimit = gas.Uint64()
	}

	return &types.TxRequest{
		To:       resp.TransactionRequest.To,
		Data:     data,
		Value:    value,
		GasLimit: gasLimit,
	}, nil
}

// parseQuantity accepts both 0x-prefixed hex and plain decimal quantities.
func parseQuantity(s string) (*big.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return hexutil.DecodeBig(s)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid quantity %q", s)
	}
	return v, nil
}
