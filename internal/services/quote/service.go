// Package quote provides quote lookups with a short-lived in-memory cache
package quote

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/interfaces"
	"github.com/bobmcallan/borsa/internal/models"
)

type cachedQuote struct {
	quote     models.Quote
	fetchedAt time.Time
}

// Service implements QuoteService over a QuoteClient.
// A fetched quote is reused for staleTime; a zero staleTime disables the cache.
// Failed lookups are never cached.
type Service struct {
	client    interfaces.QuoteClient
	staleTime time.Duration
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing

	mu    sync.Mutex
	cache map[string]cachedQuote
}

// NewService creates a new quote service.
func NewService(client interfaces.QuoteClient, staleTime time.Duration, logger *common.Logger) *Service {
	return &Service{
		client:    client,
		staleTime: staleTime,
		logger:    logger,
		now:       time.Now,
		cache:     make(map[string]cachedQuote),
	}
}

// GetQuote returns the quote for symbol, from cache when still fresh.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)

	if q, ok := s.cached(symbol); ok {
		s.logger.Debug().Str("symbol", symbol).Msg("Quote served from cache")
		return q, nil
	}

	q, err := s.client.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if s.staleTime > 0 {
		s.mu.Lock()
		s.cache[symbol] = cachedQuote{quote: *q, fetchedAt: s.now()}
		s.mu.Unlock()
	}

	return q, nil
}

// Invalidate drops any cached quote for symbol so the next lookup is live.
func (s *Service) Invalidate(symbol string) {
	s.mu.Lock()
	delete(s.cache, models.NormalizeSymbol(symbol))
	s.mu.Unlock()
}

// Store records a quote delivered by the live feed. A name or daily change
// missing from q is carried over from the cached quote.
func (s *Service) Store(q models.Quote) {
	if s.staleTime <= 0 {
		return
	}
	q.Symbol = models.NormalizeSymbol(q.Symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.cache[q.Symbol]; ok {
		if q.Name == "" {
			q.Name = prev.quote.Name
		}
		if q.ChangePercent == nil {
			q.ChangePercent = prev.quote.ChangePercent
		}
	}
	s.cache[q.Symbol] = cachedQuote{quote: q, fetchedAt: s.now()}
}

func (s *Service) cached(symbol string) (*models.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[symbol]
	if !ok {
		return nil, false
	}
	if !common.IsFresh(entry.fetchedAt, s.now(), s.staleTime) {
		delete(s.cache, symbol)
		return nil, false
	}
	q := entry.quote
	return &q, true
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
