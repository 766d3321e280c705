// Package stream is a WebSocket client for the live price feed.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/interfaces"
	"github.com/bobmcallan/borsa/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	defaultReconnectInterval    = 2 * time.Second
	defaultMaxReconnectInterval = 60 * time.Second
	defaultMaxReconnectTime     = 30 * time.Minute
)

type subscribeMessage struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

type priceMessage struct {
	Type          string   `json:"type"`
	Symbol        string   `json:"symbol"`
	Price         *float64 `json:"price"`
	ChangePercent *float64 `json:"changePercent"`
}

// Client holds one feed connection at a time and reconnects with exponential
// backoff when it drops. Subscriptions are restored on every new connection.
type Client struct {
	url    string
	logger *common.Logger
	dialer *websocket.Dialer

	reconnectInterval    time.Duration
	maxReconnectInterval time.Duration
	maxReconnectTime     time.Duration

	mu      sync.Mutex // guards conn writes and the fields below
	conn    *websocket.Conn
	symbols []string
	cancel  context.CancelFunc
	closed  bool

	handlerMu sync.RWMutex
	handlers  []func(models.PriceTick)

	wg sync.WaitGroup
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithReconnectBackOff sets the first and the largest delay between
// reconnect attempts, and how long to keep trying before giving up
func WithReconnectBackOff(initial, max, giveUpAfter time.Duration) ClientOption {
	return func(c *Client) {
		c.reconnectInterval = initial
		c.maxReconnectInterval = max
		c.maxReconnectTime = giveUpAfter
	}
}

// NewClient creates a feed client for url (ws:// or wss://)
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:                  url,
		logger:               common.NewSilentLogger(),
		dialer:               &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		reconnectInterval:    defaultReconnectInterval,
		maxReconnectInterval: defaultMaxReconnectInterval,
		maxReconnectTime:     defaultMaxReconnectTime,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnPrice registers a handler for every price tick. Handlers run on the read
// goroutine and must not call Close.
func (c *Client) OnPrice(handler func(models.PriceTick)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Connect dials the feed and starts reading. The connection, and any later
// reconnect, lives until ctx is cancelled or Close is called.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.ErrServiceClosed
	}
	if c.cancel != nil {
		c.mu.Unlock()
		return fmt.Errorf("stream: already connected")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	conn, err := c.dial(runCtx)
	if err != nil {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
		return err
	}

	c.logger.Info().Str("url", c.url).Msg("Price feed connected")

	c.wg.Add(1)
	go c.run(runCtx, conn)
	return nil
}

// Subscribe adds symbols to the feed. Symbols subscribed before Connect are
// sent once the connection is up.
func (c *Client) Subscribe(symbols []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return models.ErrServiceClosed
	}

	var added []string
	for _, s := range symbols {
		s = models.NormalizeSymbol(s)
		if s == "" || contains(c.symbols, s) {
			continue
		}
		c.symbols = append(c.symbols, s)
		added = append(added, s)
	}
	if len(added) == 0 || c.conn == nil {
		return nil
	}
	if err := c.send(c.conn, subscribeMessage{Type: "subscribe", Symbols: added}); err != nil {
		return fmt.Errorf("stream: subscribe: %w", err)
	}
	return nil
}

// Close stops reading and reconnecting and waits for the read goroutine.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	conn := c.conn
	c.conn = nil
	if conn != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Debug().Msg("Price feed closed")
	return nil
}

// dial opens a connection, installs the keep-alive and restores subscriptions
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: connect %s: %w", c.url, err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		conn.Close()
		return nil, backoff.Permanent(models.ErrServiceClosed)
	}
	if len(c.symbols) > 0 {
		msg := subscribeMessage{Type: "subscribe", Symbols: append([]string(nil), c.symbols...)}
		if err := c.send(conn, msg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("stream: restore subscriptions: %w", err)
		}
	}
	c.conn = conn
	return conn, nil
}

// run reads from conn and reconnects until ctx ends or reconnecting gives up
func (c *Client) run(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		c.readLoop(ctx, conn)
		conn.Close()

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		c.logger.Warn().Str("url", c.url).Msg("Price feed disconnected, reconnecting")

		b := backoff.NewExponentialBackOff()
		b.InitialInterval = c.reconnectInterval
		b.MaxInterval = c.maxReconnectInterval

		next, err := backoff.Retry(ctx,
			func() (*websocket.Conn, error) { return c.dial(ctx) },
			backoff.WithBackOff(b),
			backoff.WithMaxElapsedTime(c.maxReconnectTime),
			backoff.WithNotify(func(err error, d time.Duration) {
				c.logger.Debug().Err(err).Dur("retry_in", d).Msg("Price feed reconnect failed")
			}),
		)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Error().Err(err).Str("url", c.url).Msg("Price feed reconnect abandoned")
			}
			return
		}
		c.logger.Info().Str("url", c.url).Msg("Price feed reconnected")
		conn = next
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go c.pingLoop(conn, stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Debug().Err(err).Msg("Price feed read failed")
			}
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// dispatch decodes one message and hands price ticks to the handlers.
// Anything that is not a well-formed price message is dropped.
func (c *Client) dispatch(data []byte) {
	var msg priceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug().Err(err).Msg("Dropping unparseable feed message")
		return
	}
	if msg.Type != "price" || msg.Symbol == "" || msg.Price == nil {
		return
	}

	tick := models.PriceTick{
		Symbol:        models.NormalizeSymbol(msg.Symbol),
		Price:         *msg.Price,
		ChangePercent: msg.ChangePercent,
	}

	c.handlerMu.RLock()
	defer c.handlerMu.RUnlock()
	for _, h := range c.handlers {
		h(tick)
	}
}

// send writes a JSON message. Caller must hold c.mu.
func (c *Client) send(conn *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Ensure Client implements PriceFeed
var _ interfaces.PriceFeed = (*Client)(nil)
