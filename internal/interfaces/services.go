package interfaces

import (
	"context"

	"github.com/bobmcallan/borsa/internal/models"
)

// QuoteService resolves quotes, possibly from a short-lived cache
type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// PortfolioService owns the enriched portfolio
type PortfolioService interface {
	// Refresh reloads holdings and re-prices every position
	Refresh(ctx context.Context) (*models.PortfolioSnapshot, error)

	// Snapshot returns the latest published version
	Snapshot() *models.PortfolioSnapshot

	// AddHolding validates, stores, and prices a new holding
	AddHolding(ctx context.Context, input models.NewHolding) (*models.PortfolioSnapshot, error)

	// RemoveHolding deletes a holding by identifier
	RemoveHolding(ctx context.Context, id string) (*models.PortfolioSnapshot, error)

	// ApplyQuote applies an externally delivered price
	ApplyQuote(symbol string, price float64) *models.PortfolioSnapshot

	// OnChange registers a listener called with every new version
	OnChange(fn func(models.PortfolioSnapshot))

	Close()
}

// WatchlistService owns the enriched watchlist
type WatchlistService interface {
	Refresh(ctx context.Context) (*models.WatchlistSnapshot, error)
	Snapshot() *models.WatchlistSnapshot
	Add(ctx context.Context, symbol string) (*models.WatchlistSnapshot, error)
	Remove(ctx context.Context, symbol string) (*models.WatchlistSnapshot, error)
	ApplyQuote(quote models.Quote) *models.WatchlistSnapshot
	OnChange(fn func(models.WatchlistSnapshot))
	Close()
}
