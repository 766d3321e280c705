// Package models defines data structures for Borsa
package models

import (
	"strings"
	"time"
)

// NormalizeSymbol trims and uppercases an instrument symbol ("thyao " -> "THYAO").
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}

// Holding is a user's position in one instrument as stored by the backend.
type Holding struct {
	ID           string  `json:"_id"`
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"averagePrice"`
}

// CostBasis returns averagePrice * quantity, the amount originally invested.
func (h Holding) CostBasis() float64 {
	return h.AveragePrice * h.Quantity
}

// NewHolding is the payload for creating a holding
type NewHolding struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"averagePrice"`
}

// EnrichedPosition is a Holding augmented with market data once a price is known.
// All market fields are nil until the first successful price lookup.
type EnrichedPosition struct {
	Holding
	CurrentPrice      *float64 `json:"currentPrice,omitempty"`
	MarketValue       *float64 `json:"marketValue,omitempty"`
	ProfitLoss        *float64 `json:"profitLoss,omitempty"`
	ProfitLossPercent *float64 `json:"profitLossPercent,omitempty"` // nil when averagePrice is 0
}

// NewPosition wraps a holding with all market fields absent.
func NewPosition(h Holding) EnrichedPosition {
	return EnrichedPosition{Holding: h}
}

// IsPriced reports whether a current price has been applied.
func (p EnrichedPosition) IsPriced() bool {
	return p.CurrentPrice != nil
}

// PortfolioSummary holds the portfolio-level aggregates
type PortfolioSummary struct {
	TotalValue             float64 `json:"totalValue"`
	TotalCost              float64 `json:"totalCost"`
	TotalProfitLoss        float64 `json:"totalProfitLoss"`
	TotalProfitLossPercent float64 `json:"totalProfitLossPercent"`
}

// PortfolioSnapshot is one immutable version of the enriched portfolio.
// Positions must not be modified by readers; a new version replaces it.
type PortfolioSnapshot struct {
	Version   uint64             `json:"version"`
	Positions []EnrichedPosition `json:"positions"`
	Summary   PortfolioSummary   `json:"summary"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// FindBySymbol returns the position for a symbol and its index, or -1.
func (s *PortfolioSnapshot) FindBySymbol(symbol string) (*EnrichedPosition, int) {
	symbol = NormalizeSymbol(symbol)
	for i := range s.Positions {
		if s.Positions[i].Symbol == symbol {
			return &s.Positions[i], i
		}
	}
	return nil, -1
}

// PricedCount returns how many positions have a current price.
func (s *PortfolioSnapshot) PricedCount() int {
	n := 0
	for _, p := range s.Positions {
		if p.IsPriced() {
			n++
		}
	}
	return n
}
