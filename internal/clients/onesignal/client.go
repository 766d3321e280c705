// Package onesignal records notification preferences with the OneSignal
// push service so the backend can target users by category.
package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/interfaces"
	"github.com/bobmcallan/borsa/internal/models"
)

const (
	DefaultBaseURL = "https://api.onesignal.com"
	DefaultTimeout = 10 * time.Second
)

// Client talks to the OneSignal users API. A client without an app id runs
// disabled: every call is a no-op.
type Client struct {
	appID      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter

	mu      sync.Mutex
	enabled bool
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for appID authenticated with the REST API key
func NewClient(appID, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		appID:      strings.TrimSpace(appID),
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     common.NewSilentLogger(),
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init enables the client. A missing app id is not an error; the client logs
// a warning and stays disabled.
func (c *Client) Init(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.appID == "" {
		c.logger.Warn().Msg("OneSignal app id not configured, push notifications disabled")
		c.enabled = false
		return nil
	}
	c.enabled = true
	c.logger.Info().Str("app_id", c.appID).Msg("Push notifications initialised")
	return nil
}

// Close disables the client. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
}

// Enabled reports whether Init succeeded with an app id
func (c *Client) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

type userUpdate struct {
	Properties struct {
		Tags map[string]string `json:"tags"`
	} `json:"properties"`
}

// SetUserTags records the user id and the three category flags on the
// OneSignal user identified by external id
func (c *Client) SetUserTags(ctx context.Context, userID string, prefs models.NotificationPreferences) error {
	if !c.Enabled() {
		c.logger.Debug().Msg("Push notifications disabled, skipping tag update")
		return nil
	}
	if userID == "" {
		return fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	}

	var body userUpdate
	body.Properties.Tags = prefs.Tags(userID)

	if err := c.do(ctx, http.MethodPatch, c.userPath(userID), body, nil); err != nil {
		return fmt.Errorf("failed to set notification tags: %w", err)
	}
	c.logger.Info().
		Str("user_id", userID).
		Bool(models.TagTradingSignals, prefs.TradingSignals).
		Bool(models.TagPriceAlerts, prefs.PriceAlerts).
		Bool(models.TagNews, prefs.News).
		Msg("Notification preferences saved")
	return nil
}

type userResponse struct {
	Subscriptions []struct {
		Type    string `json:"type"`
		Enabled bool   `json:"enabled"`
	} `json:"subscriptions"`
}

// NotificationsEnabled reports whether the user has an enabled push
// subscription. Errors are logged and reported as false.
func (c *Client) NotificationsEnabled(ctx context.Context, userID string) bool {
	if !c.Enabled() || userID == "" {
		return false
	}

	var resp userResponse
	if err := c.do(ctx, http.MethodGet, c.userPath(userID), nil, &resp); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to read push subscription")
		return false
	}
	for _, s := range resp.Subscriptions {
		if s.Enabled && strings.HasSuffix(s.Type, "Push") {
			return true
		}
	}
	return false
}

func (c *Client) userPath(userID string) string {
	return fmt.Sprintf("/apps/%s/users/by/external_id/%s", url.PathEscape(c.appID), url.PathEscape(userID))
}

func (c *Client) do(ctx context.Context, method, path string, payload, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Key "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("onesignal: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ensure Client implements PushClient
var _ interfaces.PushClient = (*Client)(nil)
