package models

import "time"

// WatchlistItem is a tracked symbol with optional market data. It carries no
// cost-basis fields.
type WatchlistItem struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	ChangePercent *float64 `json:"changePercent,omitempty"`
}

// WatchlistSnapshot is one immutable version of the enriched watchlist.
type WatchlistSnapshot struct {
	Version   uint64          `json:"version"`
	Items     []WatchlistItem `json:"items"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// FindBySymbol returns the item for a symbol and its index, or -1.
func (s *WatchlistSnapshot) FindBySymbol(symbol string) (*WatchlistItem, int) {
	symbol = NormalizeSymbol(symbol)
	for i := range s.Items {
		if s.Items[i].Symbol == symbol {
			return &s.Items[i], i
		}
	}
	return nil, -1
}
