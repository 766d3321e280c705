// Package valuation computes position-level and portfolio-level market value
// and profit/loss. Every function is pure: inputs are never modified and
// updated sequences are returned as new slices.
package valuation

import "github.com/bobmcallan/borsa/internal/models"

// Enrich prices a position at currentPrice. ProfitLossPercent is left nil when
// the average price is zero since the percentage return is undefined.
// Negative prices are not rejected.
func Enrich(p models.EnrichedPosition, currentPrice float64) models.EnrichedPosition {
	out := models.EnrichedPosition{Holding: p.Holding}

	marketValue := currentPrice * p.Quantity
	profitLoss := marketValue - p.CostBasis()

	out.CurrentPrice = models.Float(currentPrice)
	out.MarketValue = models.Float(marketValue)
	out.ProfitLoss = models.Float(profitLoss)
	if p.AveragePrice != 0 {
		out.ProfitLossPercent = models.Float((currentPrice - p.AveragePrice) / p.AveragePrice * 100)
	}
	return out
}

// Replace returns a copy of items where every element matching match is
// replaced by fn(element). Order and length are preserved.
func Replace[T any](items []T, match func(T) bool, fn func(T) T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		if match(item) {
			out[i] = fn(item)
		} else {
			out[i] = item
		}
	}
	return out
}

// ApplyPriceUpdate re-prices every position whose symbol equals symbol.
// Applying the same update twice gives the same result as applying it once.
func ApplyPriceUpdate(positions []models.EnrichedPosition, symbol string, currentPrice float64) []models.EnrichedPosition {
	return Replace(positions,
		func(p models.EnrichedPosition) bool { return p.Symbol == symbol },
		func(p models.EnrichedPosition) models.EnrichedPosition { return Enrich(p, currentPrice) },
	)
}

// Summarize reduces positions to portfolio totals. Unpriced positions count
// towards cost but contribute nothing to value.
func Summarize(positions []models.EnrichedPosition) models.PortfolioSummary {
	var s models.PortfolioSummary
	for _, p := range positions {
		if p.MarketValue != nil {
			s.TotalValue += *p.MarketValue
		}
		s.TotalCost += p.CostBasis()
	}
	s.TotalProfitLoss = s.TotalValue - s.TotalCost
	if s.TotalCost > 0 {
		s.TotalProfitLossPercent = s.TotalProfitLoss / s.TotalCost * 100
	}
	return s
}

// ApplyQuote updates the watchlist items for quote.Symbol with its name,
// price and daily change. Items for other symbols pass through unchanged.
func ApplyQuote(items []models.WatchlistItem, quote models.Quote) []models.WatchlistItem {
	return Replace(items,
		func(it models.WatchlistItem) bool { return it.Symbol == quote.Symbol },
		func(it models.WatchlistItem) models.WatchlistItem {
			out := models.WatchlistItem{Symbol: it.Symbol, Name: it.Name}
			if quote.Name != "" {
				out.Name = quote.Name
			}
			out.Price = models.Float(quote.Price)
			out.ChangePercent = it.ChangePercent
			if quote.ChangePercent != nil {
				out.ChangePercent = models.Float(*quote.ChangePercent)
			}
			return out
		},
	)
}
