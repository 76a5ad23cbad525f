package billing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlayTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))

		w.WriteHeader(status)
		fmt.Fprint(w, body) //nolint:errcheck // test server
	}))
	t.Cleanup(server.Close)

	return server
}

func TestVerifySubscription_Success(t *testing.T) {
	expiry := time.Now().Add(30 * 24 * time.Hour)
	body := fmt.Sprintf(`{
		"kind": "androidpublisher#subscriptionPurchase",
		"expiryTimeMillis": "%d",
		"autoRenewing": true,
		"paymentState": 1,
		"orderId": "GPA.1234-5678",
		"acknowledgementState": 1
	}`, expiry.UnixMilli())

	server := newPlayTestServer(t, http.StatusOK, body)
	client := NewGooglePlayClient("com.cookflow.app", "test-access-token", server.URL)

	purchase, err := client.VerifySubscription(context.Background(), "premium_monthly", "token-1")

	require.NoError(t, err)
	assert.True(t, purchase.AutoRenewing)
	assert.Equal(t, "GPA.1234-5678", purchase.OrderID)
	assert.True(t, purchase.Active(time.Now()))
}

func TestVerifySubscription_BadTokenRejected(t *testing.T) {
	server := newPlayTestServer(t, http.StatusNotFound, `{"error": {"code": 404}}`)
	client := NewGooglePlayClient("com.cookflow.app", "test-access-token", server.URL)

	_, err := client.VerifySubscription(context.Background(), "premium_monthly", "bad-token")

	assert.ErrorIs(t, err, ErrVerificationRejected)
}

func TestVerifySubscription_ServerErrorUnavailable(t *testing.T) {
	server := newPlayTestServer(t, http.StatusServiceUnavailable, "")
	client := NewGooglePlayClient("com.cookflow.app", "test-access-token", server.URL)

	_, err := client.VerifySubscription(context.Background(), "premium_monthly", "token-1")

	assert.ErrorIs(t, err, ErrVerificationUnavailable)
}

func TestVerifySubscription_UnreachableProviderUnavailable(t *testing.T) {
	server := newPlayTestServer(t, http.StatusOK, "{}")
	server.Close()

	client := NewGooglePlayClient("com.cookflow.app", "test-access-token", server.URL)

	_, err := client.VerifySubscription(context.Background(), "premium_monthly", "token-1")

	assert.ErrorIs(t, err, ErrVerificationUnavailable)
}

func TestVerifySubscription_MalformedBodyUnavailable(t *testing.T) {
	server := newPlayTestServer(t, http.StatusOK, "not json")
	client := NewGooglePlayClient("com.cookflow.app", "test-access-token", server.URL)

	_, err := client.VerifySubscription(context.Background(), "premium_monthly", "token-1")

	assert.ErrorIs(t, err, ErrVerificationUnavailable)
}

func TestAcknowledgeSubscription_Success(t *testing.T) {
	server := newPlayTestServer(t, http.StatusNoContent, "")
	client := NewGooglePlayClient("com.cookflow.app", "test-access-token", server.URL)

	err := client.AcknowledgeSubscription(context.Background(), "premium_monthly", "token-1")

	assert.NoError(t, err)
}

func TestAcknowledgeSubscription_Failure(t *testing.T) {
	server := newPlayTestServer(t, http.StatusBadRequest, "")
	client := NewGooglePlayClient("com.cookflow.app", "test-access-token", server.URL)

	err := client.AcknowledgeSubscription(context.Background(), "premium_monthly", "token-1")

	assert.Error(t, err)
}

func TestCancelSubscription_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"ok", http.StatusOK, nil},
		{"no content", http.StatusNoContent, nil},
		{"server error", http.StatusInternalServerError, ErrVerificationUnavailable},
		{"bad token", http.StatusBadRequest, ErrVerificationRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newPlayTestServer(t, tt.status, "")
			client := NewGooglePlayClient("com.cookflow.app", "test-access-token", server.URL)

			err := client.CancelSubscription(context.Background(), "premium_monthly", "token-1")

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
