package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"yfmcp/internal/httpx"
	"yfmcp/internal/market"
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultUserAgent = "yfmcp/1.0"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client fetches market data from the Yahoo Finance public API and
// implements market.Source. It is stateless and safe for concurrent use.
type Client struct {
	// baseURL is the base URL for all endpoints.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers sent with each request.
	header http.Header
}

// ClientOption is a configuration option for the client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a Yahoo Finance client with sane defaults.
func NewClient(options ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpx.New(30*time.Second, defaultUserAgent),
		header:     http.Header{},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return "yahoo" }

// apiError is the error object Yahoo embeds in chart and quoteSummary
// responses.
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// getJSON performs a single GET and decodes the body into out.
// Failures are classified with the market error sentinels; no retries.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", market.ErrUpstreamUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusNotFound:
		// Yahoo answers 404 for unknown symbols, with the same JSON
		// error envelope in the body.
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return fmt.Errorf("%w: %s", market.ErrNotFound, string(b))
	case res.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limited", market.ErrUpstreamUnavailable)
	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return fmt.Errorf("%w: status %d: %s", market.ErrUpstreamUnavailable, res.StatusCode, string(b))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", market.ErrUpstreamUnavailable, err)
	}
	return nil
}
