package api

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultBaseURL is the upstream component API root.
const DefaultBaseURL = "https://component-api.wertpapiere.ing.de/api/v1"

// Endpoint paths, relative to the base URL.
const (
	pathExchanges        = "/components-ng/exchanges/"
	pathInstrumentHeader = "/components-ng/instrumentheader/"
	pathChartMeta        = "/components-ng/charts/meta/"
	pathChartData        = "/components-ng/charts/data/"
	pathLogo             = "/components-ng/logo/"
)

// Client provides access to the upstream quote API. It holds no
// per-instrument state and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
