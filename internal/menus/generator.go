// Package menus calls the external model API that produces weekly menu
// plans. The prompt and response contract belong to the provider; this
// client treats the generated menu as an opaque document.
package menus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	messagesURL      = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
	generationModel  = "claude-3-5-haiku-20241022"
	generationTokens = 4096
)

// shared HTTP client for menu generation calls
var menuHTTPClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// rate limiter for generation calls (5 requests/second with burst capacity of 5)
var menuRateLimiter = rate.NewLimiter(5, 5)

// menu shape requested by the user, already clamped to the plan quota
type Request struct {
	Servings    int      `json:"servings"`
	Days        int      `json:"days"`
	MealsPerDay int      `json:"meals_per_day"`
	Preferences []string `json:"preferences,omitempty"`
	Exclusions  []string `json:"exclusions,omitempty"`
}

// a generated weekly menu, opaque to this service
type Menu struct {
	Content     string    `json:"content"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

// produces menu plans
type Generator interface {
	Generate(ctx context.Context, req Request) (*Menu, error)
}

// calls the hosted model API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// creates a menu generation client; baseURL is overridable for tests
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = messagesURL
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: menuHTTPClient,
		limiter:    menuRateLimiter,
	}
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// generates a menu for the requested shape
func (c *Client) Generate(ctx context.Context, req Request) (*Menu, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	payload := apiRequest{
		Model:     generationModel,
		MaxTokens: generationTokens,
		System:    "You are a meal planning assistant. Respond with a weekly menu as JSON.",
		Messages: []apiMessage{
			{Role: "user", Content: buildPrompt(req)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call generation API: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation API returned %d: %s", resp.StatusCode, respBody)
	}

	var decoded apiResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}

	var sb strings.Builder
	for _, c := range decoded.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}

	if sb.Len() == 0 {
		return nil, fmt.Errorf("generation API returned no content")
	}

	return &Menu{
		Content:     sb.String(),
		Model:       decoded.Model,
		GeneratedAt: time.Now(),
	}, nil
}

func buildPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate a menu for %d days, %d meals per day, %d servings.",
		req.Days, req.MealsPerDay, req.Servings)

	if len(req.Preferences) > 0 {
		fmt.Fprintf(&sb, " Preferences: %s.", strings.Join(req.Preferences, ", "))
	}

	if len(req.Exclusions) > 0 {
		fmt.Fprintf(&sb, " Exclude: %s.", strings.Join(req.Exclusions, ", "))
	}

	return sb.String()
}
