// Package watchlist owns the enriched watchlist: tracked symbols with their
// display name, price and daily change.
package watchlist

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/enrich"
	"github.com/bobmcallan/borsa/internal/interfaces"
	"github.com/bobmcallan/borsa/internal/models"
	"github.com/bobmcallan/borsa/internal/valuation"
)

// MaxSymbolLength is the longest symbol accepted by Add
const MaxSymbolLength = 10

const anyGeneration = 0

// Compile-time interface check
var _ interfaces.WatchlistService = (*Service)(nil)

// Service implements WatchlistService with the same versioning rules as the
// portfolio service: immutable snapshots, one generation per Refresh.
type Service struct {
	store         interfaces.WatchlistStore
	quotes        interfaces.QuoteService
	logger        *common.Logger
	maxConcurrent int
	now           func() time.Time

	current atomic.Pointer[models.WatchlistSnapshot]

	mu         sync.Mutex
	generation uint64
	closed     bool
	listeners  []func(models.WatchlistSnapshot)
}

// NewService creates a new watchlist service
func NewService(store interfaces.WatchlistStore, quotes interfaces.QuoteService, maxConcurrent int, logger *common.Logger) *Service {
	s := &Service{
		store:         store,
		quotes:        quotes,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
	s.current.Store(&models.WatchlistSnapshot{Items: []models.WatchlistItem{}})
	return s
}

// Snapshot returns the latest published version
func (s *Service) Snapshot() *models.WatchlistSnapshot {
	return s.current.Load()
}

// OnChange registers a listener; see portfolio.Service.OnChange
func (s *Service) OnChange(fn func(models.WatchlistSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Close stops the service and discards in-flight lookups
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.generation++
	s.listeners = nil
}

// Refresh reloads the tracked symbols and fetches a quote for each
func (s *Service) Refresh(ctx context.Context) (*models.WatchlistSnapshot, error) {
	gen, err := s.beginGeneration()
	if err != nil {
		return nil, err
	}

	symbols, err := s.store.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	items := make([]models.WatchlistItem, len(symbols))
	for i, sym := range symbols {
		items[i] = models.WatchlistItem{Symbol: sym}
	}

	snap, ok := s.commit(gen, func([]models.WatchlistItem) []models.WatchlistItem { return items })
	if !ok {
		return s.Snapshot(), nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := enrich.Fanout(ctx, unique(symbols), s.quotes.GetQuote, enrich.Options{
		MaxConcurrent: s.maxConcurrent,
		Logger:        s.logger,
	})
	for u := range updates {
		q := *u.Result
		q.Symbol = u.Symbol
		next, ok := s.commit(gen, quoteUpdate(q))
		if !ok {
			s.logger.Debug().Uint64("generation", gen).Msg("Watchlist refresh superseded, dropping late quotes")
			return s.Snapshot(), nil
		}
		snap = next
	}

	s.logger.Info().Int("symbols", len(snap.Items)).Msg("Watchlist refreshed")
	return snap, nil
}

// Add validates and stores symbol, appends it and fetches its quote
func (s *Service) Add(ctx context.Context, symbol string) (*models.WatchlistSnapshot, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(symbol) > MaxSymbolLength {
		return nil, fmt.Errorf("%w: symbol must be at most %d characters", models.ErrInvalidInput, MaxSymbolLength)
	}
	if it, _ := s.Snapshot().FindBySymbol(symbol); it != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicateSymbol, symbol)
	}
	gen, err := s.currentGeneration()
	if err != nil {
		return nil, err
	}

	if err := s.store.AddSymbols(ctx, []string{symbol}); err != nil {
		return nil, fmt.Errorf("failed to add %s to watchlist: %w", symbol, err)
	}

	snap, ok := s.commit(anyGeneration, func(items []models.WatchlistItem) []models.WatchlistItem {
		out := make([]models.WatchlistItem, 0, len(items)+1)
		out = append(out, items...)
		return append(out, models.WatchlistItem{Symbol: symbol})
	})
	if !ok {
		return nil, models.ErrServiceClosed
	}
	s.logger.Info().Str("symbol", symbol).Msg("Symbol added to watchlist")

	q, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price lookup failed")
		return snap, nil
	}
	quote := *q
	quote.Symbol = symbol
	if next, ok := s.commit(gen, quoteUpdate(quote)); ok {
		snap = next
	}
	return snap, nil
}

// Remove deletes symbol from the watchlist
func (s *Service) Remove(ctx context.Context, symbol string) (*models.WatchlistSnapshot, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", models.ErrInvalidInput)
	}
	if _, err := s.currentGeneration(); err != nil {
		return nil, err
	}

	if err := s.store.RemoveSymbol(ctx, symbol); err != nil {
		return nil, fmt.Errorf("failed to remove %s from watchlist: %w", symbol, err)
	}

	snap, ok := s.commit(anyGeneration, func(items []models.WatchlistItem) []models.WatchlistItem {
		out := make([]models.WatchlistItem, 0, len(items))
		for _, it := range items {
			if it.Symbol != symbol {
				out = append(out, it)
			}
		}
		return out
	})
	if !ok {
		return nil, models.ErrServiceClosed
	}
	s.logger.Info().Str("symbol", symbol).Msg("Symbol removed from watchlist")
	return snap, nil
}

// ApplyQuote applies a quote pushed from outside a refresh
func (s *Service) ApplyQuote(quote models.Quote) *models.WatchlistSnapshot {
	quote.Symbol = models.NormalizeSymbol(quote.Symbol)
	if it, _ := s.Snapshot().FindBySymbol(quote.Symbol); it == nil {
		return s.Snapshot()
	}
	if snap, ok := s.commit(anyGeneration, quoteUpdate(quote)); ok {
		return snap
	}
	return s.Snapshot()
}

func (s *Service) beginGeneration() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, models.ErrServiceClosed
	}
	s.generation++
	return s.generation, nil
}

func (s *Service) currentGeneration() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, models.ErrServiceClosed
	}
	return s.generation, nil
}

func (s *Service) commit(gen uint64, fn func([]models.WatchlistItem) []models.WatchlistItem) (*models.WatchlistSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || (gen != anyGeneration && gen != s.generation) {
		return nil, false
	}

	prev := s.current.Load()
	next := &models.WatchlistSnapshot{
		Version:   prev.Version + 1,
		Items:     fn(prev.Items),
		UpdatedAt: s.now(),
	}
	s.current.Store(next)

	for _, listener := range s.listeners {
		listener(*next)
	}
	return next, true
}

func quoteUpdate(q models.Quote) func([]models.WatchlistItem) []models.WatchlistItem {
	return func(items []models.WatchlistItem) []models.WatchlistItem {
		return valuation.ApplyQuote(items, q)
	}
}

func unique(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
