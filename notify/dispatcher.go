package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher delivers best-effort SMS notifications about settlement
// outcomes. Delivery never affects settlement: every method swallows
// failures after logging them, and a dispatcher with no credentials is a
// silent no-op.
type Dispatcher interface {
	// Notify sends a message to the contact. Empty contact or message is a
	// no-op.
	Notify(ctx context.Context, contact string, message string)
}

// Config holds the SMS gateway settings. Empty AccountSID or AuthToken
// disables delivery.
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	HTTPClient *http.Client

	// OnFailure is invoked once per failed delivery attempt, after logging.
	// Optional.
	OnFailure func()
}

type dispatcher struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
	onFailure  func()
	logger     *logrus.Logger
}

// NewDispatcher creates an SMS notification dispatcher.
func NewDispatcher(config *Config, logger *logrus.Logger) Dispatcher {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}

	if config.AccountSID == "" || config.AuthToken == "" {
		logger.Warn("SMS credentials not configured, notifications disabled")
	}

	return &dispatcher{
		accountSID: config.AccountSID,
		authToken:  config.AuthToken,
		fromNumber: config.FromNumber,
		baseURL:    baseURL,
		httpClient: httpClient,
		onFailure:  config.OnFailure,
		logger:     logger,
	}
}

// reportFailure notes a failed delivery without surfacing it to the caller.
func (d *dispatcher) reportFailure() {
	if d.onFailure != nil {
		d.onFailure()
	}
}

func (d *dispatcher) Notify(ctx context.Context, contact string, message string) {
	if d.accountSID == "" || d.authToken == "" {
		return
	}
	if contact == "" || message == "" {
		return
	}

	form := url.Values{}
	form.Set("To", contact)
	form.Set("From", d.fromNumber)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", d.baseURL, d.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		d.logger.WithError(err).Error("Failed to create SMS request")
		d.reportFailure()
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(d.accountSID, d.authToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"contact": contact,
			"error":   err,
		}).Error("Failed to send SMS notification")
		d.reportFailure()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.logger.WithFields(logrus.Fields{
			"contact": contact,
			"status":  resp.StatusCode,
		}).Error("SMS gateway rejected notification")
		d.reportFailure()
		return
	}

	d.logger.WithField("contact", contact).Debug("SMS notification sent")
}
