// Package common provides shared test infrastructure
package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/bobmcallan/borsa/internal/models"
)

// Backend is an in-memory stand-in for the portfolio, watchlist and stock
// APIs. It speaks the same {success,data,message} envelope as the real
// service and answers 404 for a user with no portfolio or watchlist yet.
type Backend struct {
	*httptest.Server

	// Token, when set, must be presented as a bearer token
	Token string

	mu        sync.Mutex
	holdings  []models.Holding
	symbols   []string
	quotes    map[string]models.Quote
	failQuote map[string]bool
	requests  []string
}

// NewBackend starts a fake backend that is shut down with the test
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		quotes:    make(map[string]models.Quote),
		failQuote: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/portfolio", b.listHoldings)
	mux.HandleFunc("POST /api/portfolio", b.createHolding)
	mux.HandleFunc("DELETE /api/portfolio/{id}", b.deleteHolding)
	mux.HandleFunc("GET /api/watchlist", b.listSymbols)
	mux.HandleFunc("POST /api/watchlist", b.addSymbols)
	mux.HandleFunc("DELETE /api/watchlist/{symbol}", b.removeSymbol)
	mux.HandleFunc("GET /api/stocks/{symbol}", b.getQuote)

	b.Server = httptest.NewServer(b.authorize(mux))
	t.Cleanup(b.Close)
	return b
}

// SetQuote sets the price served for a symbol
func (b *Backend) SetQuote(q models.Quote) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quotes[q.Symbol] = q
	delete(b.failQuote, q.Symbol)
}

// FailQuote makes lookups for symbol answer 500
func (b *Backend) FailQuote(symbol string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failQuote[symbol] = true
}

// SeedHolding stores a holding and returns its generated id
func (b *Backend) SeedHolding(symbol string, quantity, averagePrice float64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := models.Holding{ID: uuid.NewString(), Symbol: symbol, Quantity: quantity, AveragePrice: averagePrice}
	b.holdings = append(b.holdings, h)
	return h.ID
}

// SeedSymbols adds symbols to the watchlist
func (b *Backend) SeedSymbols(symbols ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.symbols = append(b.symbols, symbols...)
}

// Holdings returns a copy of the stored holdings
func (b *Backend) Holdings() []models.Holding {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Holding(nil), b.holdings...)
}

// Symbols returns a copy of the watched symbols
func (b *Backend) Symbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.symbols...)
}

// Requests returns "METHOD path" for every request received
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func (b *Backend) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		token := b.Token
		b.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) listHoldings(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.holdings) == 0 {
		writeError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"positions": b.holdings})
}

func (b *Backend) createHolding(w http.ResponseWriter, r *http.Request) {
	var in models.NewHolding
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in.Symbol = models.NormalizeSymbol(in.Symbol)
	if in.Symbol == "" || in.Quantity < 0 || in.AveragePrice < 0 {
		writeError(w, http.StatusBadRequest, "Symbol, quantity and average price are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.holdings {
		if h.Symbol == in.Symbol {
			writeError(w, http.StatusConflict, "Stock already exists in portfolio")
			return
		}
	}
	h := models.Holding{ID: uuid.NewString(), Symbol: in.Symbol, Quantity: in.Quantity, AveragePrice: in.AveragePrice}
	b.holdings = append(b.holdings, h)
	writeData(w, http.StatusCreated, h)
}

func (b *Backend) deleteHolding(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.holdings {
		if h.ID == id {
			b.holdings = append(b.holdings[:i:i], b.holdings[i+1:]...)
			writeData(w, http.StatusOK, map[string]string{"id": id})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Holding not found")
}

func (b *Backend) listSymbols(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.symbols) == 0 {
		writeError(w, http.StatusNotFound, "Watchlist not found")
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"symbols": b.symbols})
}

func (b *Backend) addSymbols(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "Symbols are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range in.Symbols {
		s = models.NormalizeSymbol(s)
		if !containsSymbol(b.symbols, s) {
			b.symbols = append(b.symbols, s)
		}
	}
	writeData(w, http.StatusOK, map[string]interface{}{"symbols": b.symbols})
}

func (b *Backend) removeSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))

	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.symbols[:0:0]
	for _, s := range b.symbols {
		if s != symbol {
			out = append(out, s)
		}
	}
	b.symbols = out
	writeData(w, http.StatusOK, map[string]interface{}{"symbols": b.symbols})
}

func (b *Backend) getQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failQuote[symbol] {
		writeError(w, http.StatusInternalServerError, "Quote provider unavailable")
		return
	}
	q, ok := b.quotes[symbol]
	if !ok {
		writeError(w, http.StatusNotFound, "Stock not found")
		return
	}
	writeData(w, http.StatusOK, q)
}

func containsSymbol(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": message})
}
