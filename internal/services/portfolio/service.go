// Package portfolio owns the enriched portfolio: the user's holdings priced
// against current quotes and reduced to portfolio totals.
package portfolio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/enrich"
	"github.com/bobmcallan/borsa/internal/interfaces"
	"github.com/bobmcallan/borsa/internal/models"
	"github.com/bobmcallan/borsa/internal/valuation"
)

// anyGeneration lets a commit through regardless of the refresh in progress.
const anyGeneration = 0

// Compile-time interface check
var _ interfaces.PortfolioService = (*Service)(nil)

// Service implements PortfolioService.
//
// Every change produces a new immutable PortfolioSnapshot with a higher
// Version, published atomically. Each Refresh starts a new generation; price
// results that arrive for an older generation, or after Close, are dropped.
type Service struct {
	store         interfaces.PortfolioStore
	quotes        interfaces.QuoteService
	logger        *common.Logger
	maxConcurrent int
	now           func() time.Time

	current atomic.Pointer[models.PortfolioSnapshot]

	mu         sync.Mutex // guards everything below and serialises commits
	generation uint64
	closed     bool
	listeners  []func(models.PortfolioSnapshot)
}

// NewService creates a new portfolio service with an empty snapshot
func NewService(store interfaces.PortfolioStore, quotes interfaces.QuoteService, maxConcurrent int, logger *common.Logger) *Service {
	s := &Service{
		store:         store,
		quotes:        quotes,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
	s.current.Store(&models.PortfolioSnapshot{Positions: []models.EnrichedPosition{}})
	return s
}

// Snapshot returns the latest published version. Callers must not modify it.
func (s *Service) Snapshot() *models.PortfolioSnapshot {
	return s.current.Load()
}

// OnChange registers fn to receive every new version. Listeners run
// synchronously inside the commit and must not call mutating methods on s.
func (s *Service) OnChange(fn func(models.PortfolioSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Close stops the service. In-flight refreshes are discarded and later
// mutations fail with ErrServiceClosed.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.generation++
	s.listeners = nil
}

// Refresh reloads the holdings and prices every position. Positions are
// published unpriced first, then re-priced one by one as quotes arrive.
// Only a failure to load the holdings is returned as an error.
func (s *Service) Refresh(ctx context.Context) (*models.PortfolioSnapshot, error) {
	gen, err := s.beginGeneration()
	if err != nil {
		return nil, err
	}

	holdings, err := s.store.ListHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	positions := make([]models.EnrichedPosition, len(holdings))
	for i, h := range holdings {
		positions[i] = models.NewPosition(h)
	}

	snap, ok := s.commit(gen, func([]models.EnrichedPosition) []models.EnrichedPosition {
		return positions
	})
	if !ok {
		s.logger.Debug().Uint64("generation", gen).Msg("Portfolio refresh superseded before pricing")
		return s.Snapshot(), nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := enrich.Fanout(ctx, uniqueSymbols(holdings), s.lookupPrice, enrich.Options{
		MaxConcurrent: s.maxConcurrent,
		Logger:        s.logger,
	})
	for u := range updates {
		next, ok := s.commit(gen, priceUpdate(u.Symbol, u.Result))
		if !ok {
			s.logger.Debug().Uint64("generation", gen).Msg("Portfolio refresh superseded, dropping late prices")
			return s.Snapshot(), nil
		}
		snap = next
	}

	s.logger.Info().
		Int("positions", len(snap.Positions)).
		Int("priced", snap.PricedCount()).
		Float64("total_value", snap.Summary.TotalValue).
		Msg("Portfolio refreshed")

	return snap, nil
}

// AddHolding validates input, stores it and appends the created holding
// unpriced, then fetches its price. Nothing is shown before the store
// confirms the holding.
func (s *Service) AddHolding(ctx context.Context, input models.NewHolding) (*models.PortfolioSnapshot, error) {
	input.Symbol = models.NormalizeSymbol(input.Symbol)
	if err := validateHolding(input); err != nil {
		return nil, err
	}
	if p, _ := s.Snapshot().FindBySymbol(input.Symbol); p != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicateSymbol, input.Symbol)
	}
	gen, err := s.currentGeneration()
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateHolding(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to add holding %s: %w", input.Symbol, err)
	}
	h := *created
	if h.Symbol == "" {
		h.Symbol = input.Symbol
	}

	snap, ok := s.commit(anyGeneration, func(positions []models.EnrichedPosition) []models.EnrichedPosition {
		out := make([]models.EnrichedPosition, 0, len(positions)+1)
		out = append(out, positions...)
		return append(out, models.NewPosition(h))
	})
	if !ok {
		return nil, models.ErrServiceClosed
	}
	s.logger.Info().Str("symbol", h.Symbol).Str("id", h.ID).Msg("Holding added")

	price, err := s.lookupPrice(ctx, h.Symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", h.Symbol).Msg("Price lookup failed")
		return snap, nil
	}
	if next, ok := s.commit(gen, priceUpdate(h.Symbol, price)); ok {
		snap = next
	}
	return snap, nil
}

// RemoveHolding deletes a holding by id and drops it from the portfolio
func (s *Service) RemoveHolding(ctx context.Context, id string) (*models.PortfolioSnapshot, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: holding id is required", models.ErrInvalidInput)
	}
	if _, err := s.currentGeneration(); err != nil {
		return nil, err
	}

	if err := s.store.DeleteHolding(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to remove holding %s: %w", id, err)
	}

	snap, ok := s.commit(anyGeneration, func(positions []models.EnrichedPosition) []models.EnrichedPosition {
		out := make([]models.EnrichedPosition, 0, len(positions))
		for _, p := range positions {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out
	})
	if !ok {
		return nil, models.ErrServiceClosed
	}
	s.logger.Info().Str("id", id).Msg("Holding removed")
	return snap, nil
}

// ApplyQuote re-prices positions for symbol with a price pushed from outside
// a refresh, such as the live feed. Unknown symbols leave the snapshot as is.
func (s *Service) ApplyQuote(symbol string, price float64) *models.PortfolioSnapshot {
	symbol = models.NormalizeSymbol(symbol)
	if p, _ := s.Snapshot().FindBySymbol(symbol); p == nil {
		return s.Snapshot()
	}
	if snap, ok := s.commit(anyGeneration, priceUpdate(symbol, price)); ok {
		return snap
	}
	return s.Snapshot()
}

func (s *Service) lookupPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
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

// commit derives and publishes the next version. It reports false when the
// service is closed or gen is no longer the current generation.
func (s *Service) commit(gen uint64, fn func([]models.EnrichedPosition) []models.EnrichedPosition) (*models.PortfolioSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || (gen != anyGeneration && gen != s.generation) {
		return nil, false
	}

	prev := s.current.Load()
	positions := fn(prev.Positions)
	next := &models.PortfolioSnapshot{
		Version:   prev.Version + 1,
		Positions: positions,
		Summary:   valuation.Summarize(positions),
		UpdatedAt: s.now(),
	}
	s.current.Store(next)

	for _, listener := range s.listeners {
		listener(*next)
	}
	return next, true
}

func priceUpdate(symbol string, price float64) func([]models.EnrichedPosition) []models.EnrichedPosition {
	return func(positions []models.EnrichedPosition) []models.EnrichedPosition {
		return valuation.ApplyPriceUpdate(positions, symbol, price)
	}
}

func validateHolding(h models.NewHolding) error {
	if h.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", models.ErrInvalidInput)
	}
	if !isNonNegative(h.Quantity) {
		return fmt.Errorf("%w: quantity must be a number >= 0", models.ErrInvalidInput)
	}
	if !isNonNegative(h.AveragePrice) {
		return fmt.Errorf("%w: average price must be a number >= 0", models.ErrInvalidInput)
	}
	return nil
}

func isNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// uniqueSymbols returns each holding symbol once, in first-seen order
func uniqueSymbols(holdings []models.Holding) []string {
	seen := make(map[string]bool, len(holdings))
	out := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if h.Symbol == "" || seen[h.Symbol] {
			continue
		}
		seen[h.Symbol] = true
		out = append(out, h.Symbol)
	}
	return out
}
