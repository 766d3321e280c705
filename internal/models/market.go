package models

// Quote is the current market data for a single symbol
type Quote struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name,omitempty"`
	Price         float64  `json:"price"`
	ChangePercent *float64 `json:"changePercent,omitempty"`
}

// PriceTick is a price pushed by the live feed
type PriceTick struct {
	Symbol        string   `json:"symbol"`
	Price         float64  `json:"price"`
	ChangePercent *float64 `json:"changePercent,omitempty"`
}
