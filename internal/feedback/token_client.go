package feedback

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_token_source.go -package=mocks chatwidgets/internal/feedback TokenSource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TokenPath is the backend endpoint handing out feedback tokens.
const TokenPath = "/feedback-token"

// maxTokenResponse bounds how much of the token response body is read.
const maxTokenResponse = 64 << 10

// ErrNoToken is returned when the endpoint answered but carried no token.
var ErrNoToken = errors.New("no feedback token in response")

// StatusError is returned for non-200 responses from the token endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// TokenSource acquires a short-lived feedback token.
type TokenSource interface {
	FetchToken(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// FetchToken calls f.
func (f TokenSourceFunc) FetchToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// TokenClient fetches tokens over HTTP with GET {BaseURL}/feedback-token.
type TokenClient struct {
	BaseURL string
	Header  http.Header
	client  *http.Client
}

// TokenClientOption configures a TokenClient.
type TokenClientOption func(*TokenClient)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) TokenClientOption {
	return func(c *TokenClient) {
		c.client = hc
	}
}

// WithHeader adds a header to every token request, e.g. a session cookie or Authorization.
func WithHeader(key, value string) TokenClientOption {
	return func(c *TokenClient) {
		c.Header.Add(key, value)
	}
}

// NewTokenClient creates a client for the token endpoint under baseURL.
func NewTokenClient(baseURL string, opts ...TokenClientOption) *TokenClient {
	c := &TokenClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Header:  make(http.Header),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	Token string `json:"token"`
}

// FetchToken requests a new token. Any response that is not a 200 with a JSON
// object holding a non-empty string "token" yields an error.
func (c *TokenClient) FetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+TokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body := io.LimitReader(resp.Body, maxTokenResponse)
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(body)
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var tr tokenResponse
	if err := json.NewDecoder(body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if tr.Token == "" {
		return "", ErrNoToken
	}
	return tr.Token, nil
}
