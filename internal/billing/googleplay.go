package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultPlayBaseURL = "https://androidpublisher.googleapis.com"

	// payment received, per the androidpublisher API
	paymentStateReceived = 1

	// purchase has been acknowledged
	acknowledgementDone = 1
)

var (
	// the provider answered and the token is not a valid active purchase
	ErrVerificationRejected = errors.New("billing: purchase verification rejected")

	// the provider could not be reached or timed out; the caller should
	// retry and must not treat this as a rejection
	ErrVerificationUnavailable = errors.New("billing: purchase verification unavailable")
)

// shared HTTP client for Google Play Developer API calls
var playHTTPClient = &http.Client{
	Timeout: 10 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// rate limiter for Google Play API calls (10 requests/second with burst capacity of 5)
var playRateLimiter = rate.NewLimiter(10, 5)

// subscription purchase resource returned by purchases.subscriptions.get
type SubscriptionPurchase struct {
	Kind                 string `json:"kind"`
	StartTimeMillis      string `json:"startTimeMillis"`
	ExpiryTimeMillis     string `json:"expiryTimeMillis"`
	AutoRenewing         bool   `json:"autoRenewing"`
	PaymentState         int    `json:"paymentState"`
	CancelReason         *int   `json:"cancelReason,omitempty"`
	OrderID              string `json:"orderId"`
	AcknowledgementState int    `json:"acknowledgementState"`
}

// external purchase verification collaborator
type Verifier interface {
	VerifySubscription(ctx context.Context, subscriptionID, purchaseToken string) (*SubscriptionPurchase, error)
	AcknowledgeSubscription(ctx context.Context, subscriptionID, purchaseToken string) error
	CancelSubscription(ctx context.Context, subscriptionID, purchaseToken string) error
}

// talks to the Google Play Developer API (androidpublisher v3)
type GooglePlayClient struct {
	baseURL     string
	packageName string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// creates a Google Play billing client; baseURL is overridable for tests
func NewGooglePlayClient(packageName, accessToken, baseURL string) *GooglePlayClient {
	if baseURL == "" {
		baseURL = defaultPlayBaseURL
	}

	return &GooglePlayClient{
		baseURL:     baseURL,
		packageName: packageName,
		accessToken: accessToken,
		httpClient:  playHTTPClient,
		limiter:     playRateLimiter,
	}
}

// fetches the subscription purchase state for a token.
// Transport failures and 5xx map to ErrVerificationUnavailable; a
// definitive provider "no" (bad token) maps to ErrVerificationRejected.
func (c *GooglePlayClient) VerifySubscription(
	ctx context.Context,
	subscriptionID, purchaseToken string,
) (*SubscriptionPurchase, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}

	url := fmt.Sprintf(
		"%s/androidpublisher/v3/applications/%s/purchases/subscriptions/%s/tokens/%s",
		c.baseURL, c.packageName, subscriptionID, purchaseToken,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrVerificationUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: provider returned %d", ErrVerificationUnavailable, resp.StatusCode)
	default:
		// 400/404/410: the provider understood the request and the token
		// does not denote a valid purchase
		return nil, fmt.Errorf("%w: provider returned %d", ErrVerificationRejected, resp.StatusCode)
	}

	var purchase SubscriptionPurchase
	if err := json.Unmarshal(body, &purchase); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrVerificationUnavailable, err)
	}

	return &purchase, nil
}

// acknowledges a subscription purchase with Google Play
func (c *GooglePlayClient) AcknowledgeSubscription(ctx context.Context, subscriptionID, purchaseToken string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}

	url := fmt.Sprintf(
		"%s/androidpublisher/v3/applications/%s/purchases/subscriptions/%s/tokens/%s:acknowledge",
		c.baseURL, c.packageName, subscriptionID, purchaseToken,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("build acknowledge request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // body unused

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("acknowledge returned %d", resp.StatusCode)
	}

	return nil
}

// stops future renewals for a subscription with Google Play; the
// current period stays paid through its expiry
func (c *GooglePlayClient) CancelSubscription(ctx context.Context, subscriptionID, purchaseToken string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}

	url := fmt.Sprintf(
		"%s/androidpublisher/v3/applications/%s/purchases/subscriptions/%s/tokens/%s:cancel",
		c.baseURL, c.packageName, subscriptionID, purchaseToken,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("build cancel request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // body unused

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: provider returned %d", ErrVerificationUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: provider returned %d", ErrVerificationRejected, resp.StatusCode)
	}
}

// reports whether the purchase denotes a currently active subscription
func (p *SubscriptionPurchase) Active(now time.Time) bool {
	expiry, err := p.Expiry()
	if err != nil {
		return false
	}

	canceled := p.CancelReason != nil && !p.AutoRenewing

	return p.PaymentState == paymentStateReceived && expiry.After(now) && !canceled
}

// parses the millisecond expiry timestamp
func (p *SubscriptionPurchase) Expiry() (time.Time, error) {
	millis, err := strconv.ParseInt(p.ExpiryTimeMillis, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiryTimeMillis %q: %w", p.ExpiryTimeMillis, err)
	}

	return time.UnixMilli(millis), nil
}
