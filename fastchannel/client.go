package fastchannel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client queues transfers with the off-chain fast settlement channel. The
// channel batches queued transfers and settles them on-chain later.
type Client interface {
	// Send queues a transfer with the channel. Any transport failure or
	// channel rejection is reported as ErrRouteUnavailable so callers fall
	// back to the next settlement path.
	Send(ctx context.Context, send *ChannelSend) (*ChannelAck, error)
}

// ChannelSend is a transfer submitted to the channel. Amount is the
// human-readable decimal string the channel service expects.
type ChannelSend struct {
	RecipientAddress string `json:"recipientAddress"`
	Amount           string `json:"amount"`
	UserPhone        string `json:"userPhone"`
}

// ChannelAck is the channel's acceptance of a queued transfer. Acceptance
// means queued for batch settlement, not settled.
type ChannelAck struct {
	TransactionID string
}

// Config holds the channel client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a fast settlement channel client.
func NewClient(config *Config, logger *logrus.Logger) Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// channelResponse mirrors the channel service's response payload.
type channelResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Error         string `json:"error"`
}

func (c *client) Send(ctx context.Context, send *ChannelSend) (*ChannelAck, error) {
	payload, err := json.Marshal(send)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode channel send")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/yellow/send", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create channel request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("Fast settlement channel unreachable")
		return nil, errors.Wrap(commonerrors.ErrRouteUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithField("status", resp.StatusCode).Warn("Fast settlement channel rejected request")
		return nil, errors.Wrapf(commonerrors.ErrRouteUnavailable, "channel returned status %d", resp.StatusCode)
	}

	var result channelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(commonerrors.ErrRouteUnavailable, "failed to decode channel response")
	}

	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "channel declined the transfer"
		}
		c.logger.WithField("reason", reason).Warn("Fast settlement channel declined transfer")
		return nil, errors.Wrap(commonerrors.ErrRouteUnavailable, reason)
	}

	c.logger.WithField("transactionId", result.TransactionID).Info("Transfer queued via fast settlement channel")

	return &ChannelAck{TransactionID: result.TransactionID}, nil
}
