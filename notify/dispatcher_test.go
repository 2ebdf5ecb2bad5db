package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySendsForm(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	var gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo = r.PostForm.Get("To")
		gotFrom = r.PostForm.Get("From")
		gotBody = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := NewDispatcher(&Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550009999",
		BaseURL:    srv.URL,
	}, logrus.New())

	d.Notify(context.Background(), "+15550001111", "hello")

	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, "+15550001111", gotTo)
	assert.Equal(t, "+15550009999", gotFrom)
	assert.Equal(t, "hello", gotBody)
}

func TestNotifyUnconfiguredIsNoop(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	d := NewDispatcher(&Config{BaseURL: srv.URL}, logrus.New())
	d.Notify(context.Background(), "+15550001111", "hello")

	assert.False(t, called)
}

func TestNotifySwallowsGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := NewDispatcher(&Config{
		AccountSID: "AC123",
		AuthToken:  "bad",
		FromNumber: "+15550009999",
		BaseURL:    srv.URL,
	}, logrus.New())

	// Must not panic or surface the failure.
	d.Notify(context.Background(), "+15550001111", "hello")
}

func TestNotifyReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	failures := 0
	d := NewDispatcher(&Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550009999",
		BaseURL:    srv.URL,
		OnFailure:  func() { failures++ },
	}, logrus.New())

	d.Notify(context.Background(), "+15550001111", "hello")
	d.Notify(context.Background(), "+15550001111", "hello again")

	assert.Equal(t, 2, failures)
}

func TestMessages(t *testing.T) {
	assert.Contains(t, RedeemedMessage("10", "0.002"), "10 TXTC")
	assert.Contains(t, QueuedMessage("5", "TXTC", "0x1234567890abcdef"), "0x12345678...")
	assert.Contains(t, SentMessage("5", "ETH", "0xabc"), "0xabc")
	assert.Contains(t, FailedMessage("swap"), "swap")
	assert.Contains(t, PendingMessage("send"), "confirmation timed out")
}
