package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"thyao", "THYAO"},
		{" garan ", "GARAN"},
		{"AKBNK", "AKBNK"},
		{"", ""},
	}
	for _, tt := range tests {
		got := NormalizeSymbol(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestHolding_CostBasis(t *testing.T) {
	h := Holding{Symbol: "THYAO", Quantity: 100, AveragePrice: 25.5}
	assert.InDelta(t, 2550.0, h.CostBasis(), 1e-9)
}

func TestHolding_DecodesBackendShape(t *testing.T) {
	raw := `{"_id":"65f1","symbol":"THYAO","quantity":100,"averagePrice":25.5,"userId":"u1"}`

	var h Holding
	require.NoError(t, json.Unmarshal([]byte(raw), &h))
	assert.Equal(t, "65f1", h.ID)
	assert.Equal(t, "THYAO", h.Symbol)
	assert.Equal(t, 100.0, h.Quantity)
	assert.Equal(t, 25.5, h.AveragePrice)
}

func TestNewPosition_MarketFieldsAbsent(t *testing.T) {
	p := NewPosition(Holding{Symbol: "GARAN", Quantity: 10, AveragePrice: 50})
	assert.False(t, p.IsPriced())
	assert.Nil(t, p.MarketValue)
	assert.Nil(t, p.ProfitLoss)
	assert.Nil(t, p.ProfitLossPercent)

	// absent fields are omitted on the wire
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "currentPrice")
	assert.Contains(t, string(data), `"symbol":"GARAN"`)
}

func TestPortfolioSnapshot_FindBySymbol(t *testing.T) {
	priced := NewPosition(Holding{Symbol: "B", Quantity: 1})
	priced.CurrentPrice = Float(12)
	snap := PortfolioSnapshot{Positions: []EnrichedPosition{
		NewPosition(Holding{Symbol: "A"}),
		priced,
	}}

	p, idx := snap.FindBySymbol("b")
	require.NotNil(t, p)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "B", p.Symbol)

	p, idx = snap.FindBySymbol("C")
	assert.Nil(t, p)
	assert.Equal(t, -1, idx)

	assert.Equal(t, 1, snap.PricedCount())
}

func TestNotificationPreferences_Tags(t *testing.T) {
	prefs := NotificationPreferences{TradingSignals: true, News: true}
	tags := prefs.Tags("user-1")

	assert.Equal(t, map[string]string{
		"user_id":         "user-1",
		"trading_signals": "true",
		"price_alerts":    "false",
		"news":            "true",
	}, tags)
}
