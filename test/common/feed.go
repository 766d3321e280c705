package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Feed is a fake live price feed. It records subscribed symbols and can push
// price messages to every connected client.
type Feed struct {
	*httptest.Server

	mu         sync.Mutex
	conns      []*websocket.Conn
	subscribed []string
	changed    chan struct{}
}

// NewFeed starts a fake feed that is shut down with the test
func NewFeed(t testing.TB) *Feed {
	t.Helper()
	f := &Feed{changed: make(chan struct{}, 64)}
	upgrader := websocket.Upgrader{}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()
		f.notify()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg struct {
				Type    string   `json:"type"`
				Symbols []string `json:"symbols"`
			}
			if json.Unmarshal(data, &msg) == nil && msg.Type == "subscribe" {
				f.mu.Lock()
				f.subscribed = append(f.subscribed, msg.Symbols...)
				f.mu.Unlock()
				f.notify()
			}
		}
	}))
	t.Cleanup(func() {
		f.mu.Lock()
		for _, c := range f.conns {
			c.Close()
		}
		f.mu.Unlock()
		f.Close()
	})
	return f
}

// WebSocketURL returns the ws:// address of the feed
func (f *Feed) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(f.URL, "http")
}

// Subscribed returns every symbol subscribed so far
func (f *Feed) Subscribed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subscribed...)
}

// WaitFor polls cond until it holds or the timeout passes
func (f *Feed) WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.After(timeout)
	for !cond() {
		select {
		case <-f.changed:
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			return cond()
		}
	}
	return true
}

// PushPrice sends a price message to every connected client
func (f *Feed) PushPrice(symbol string, price float64) error {
	data, err := json.Marshal(map[string]interface{}{"type": "price", "symbol": symbol, "price": price})
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			return err
		}
	}
	return nil
}

func (f *Feed) notify() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}
