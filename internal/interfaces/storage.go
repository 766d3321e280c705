// Package interfaces defines service contracts for Borsa
package interfaces

import (
	"context"

	"github.com/bobmcallan/borsa/internal/models"
)

// PortfolioStore is the backend storage API for a user's holdings.
// ListHoldings treats a missing portfolio as empty, not as an error.
type PortfolioStore interface {
	// ListHoldings returns the current holdings in display order
	ListHoldings(ctx context.Context) ([]models.Holding, error)

	// CreateHolding stores a new holding and returns it with its identifier
	CreateHolding(ctx context.Context, h models.NewHolding) (*models.Holding, error)

	// DeleteHolding removes a holding by identifier
	DeleteHolding(ctx context.Context, id string) error
}

// WatchlistStore is the backend storage API for the tracked symbol set.
type WatchlistStore interface {
	// ListSymbols returns the watched symbols in display order
	ListSymbols(ctx context.Context) ([]string, error)

	// AddSymbols adds symbols to the watchlist
	AddSymbols(ctx context.Context, symbols []string) error

	// RemoveSymbol removes a symbol from the watchlist
	RemoveSymbol(ctx context.Context, symbol string) error
}
