// Package api provides a client for the Borsa backend REST API (holdings,
// watchlist and stock quotes).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/interfaces"
	"github.com/bobmcallan/borsa/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:5000"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the backend store and quote interfaces
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithToken sets the bearer token sent on every request
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit, non-positive values disable limiting
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new backend API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx response. Message is the backend's
// envelope message when one was returned.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status: %d, endpoint: %s)", e.StatusCode, e.Endpoint)
	}
	return fmt.Sprintf("API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsNotFound reports whether err is a 404 from the backend
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// UserMessage returns the backend's message for err when it sent one,
// otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// envelope is the backend's response wrapper
type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// do performs a rate-limited request and decodes the envelope's data into result.
// result may be nil when the caller only needs success.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			Endpoint:   path,
		}
	}

	if result == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message, Endpoint: path}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("empty response data from %s", path)
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// ListHoldings retrieves the user's holdings. A missing portfolio is empty.
func (c *Client) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	var data struct {
		Positions []models.Holding `json:"positions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/portfolio", nil, &data); err != nil {
		if IsNotFound(err) {
			return []models.Holding{}, nil
		}
		return nil, err
	}
	if data.Positions == nil {
		data.Positions = []models.Holding{}
	}
	return data.Positions, nil
}

// CreateHolding stores a new holding and returns it as saved by the backend
func (c *Client) CreateHolding(ctx context.Context, h models.NewHolding) (*models.Holding, error) {
	var created models.Holding
	if err := c.do(ctx, http.MethodPost, "/api/portfolio", h, &created); err != nil {
		return nil, err
	}
	if created.Symbol == "" {
		created.Symbol = h.Symbol
	}
	return &created, nil
}

// DeleteHolding removes a holding by identifier
func (c *Client) DeleteHolding(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/portfolio/"+url.PathEscape(id), nil, nil)
}

// GetQuote retrieves the current price for a symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var q models.Quote
	if err := c.do(ctx, http.MethodGet, "/api/stocks/"+url.PathEscape(symbol), nil, &q); err != nil {
		return nil, err
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	return &q, nil
}

// ListSymbols retrieves the watched symbols. A missing watchlist is empty.
func (c *Client) ListSymbols(ctx context.Context) ([]string, error) {
	var data struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/watchlist", nil, &data); err != nil {
		if IsNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}
	if data.Symbols == nil {
		data.Symbols = []string{}
	}
	return data.Symbols, nil
}

// AddSymbols adds symbols to the watchlist
func (c *Client) AddSymbols(ctx context.Context, symbols []string) error {
	body := map[string][]string{"symbols": symbols}
	return c.do(ctx, http.MethodPost, "/api/watchlist", body, nil)
}

// RemoveSymbol removes a symbol from the watchlist
func (c *Client) RemoveSymbol(ctx context.Context, symbol string) error {
	return c.do(ctx, http.MethodDelete, "/api/watchlist/"+url.PathEscape(symbol), nil, nil)
}

// Ensure Client implements the backend interfaces
var (
	_ interfaces.PortfolioStore = (*Client)(nil)
	_ interfaces.WatchlistStore = (*Client)(nil)
	_ interfaces.QuoteClient    = (*Client)(nil)
)
