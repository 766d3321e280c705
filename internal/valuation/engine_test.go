package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/borsa/internal/models"
)

func position(symbol string, qty, avg float64) models.EnrichedPosition {
	return models.NewPosition(models.Holding{ID: "id-" + symbol, Symbol: symbol, Quantity: qty, AveragePrice: avg})
}

func TestEnrich_THYAO(t *testing.T) {
	p := Enrich(position("THYAO", 100, 25.50), 30.00)

	require.NotNil(t, p.CurrentPrice)
	require.NotNil(t, p.MarketValue)
	require.NotNil(t, p.ProfitLoss)
	require.NotNil(t, p.ProfitLossPercent)
	assert.InDelta(t, 30.0, *p.CurrentPrice, 1e-9)
	assert.InDelta(t, 3000.0, *p.MarketValue, 1e-9)
	assert.InDelta(t, 450.0, *p.ProfitLoss, 1e-9)
	assert.InDelta(t, 17.647, *p.ProfitLossPercent, 0.001)
}

func TestEnrich_PercentFormula(t *testing.T) {
	tests := []struct {
		avg, price float64
	}{
		{10, 12},
		{10, 8},
		{0.5, 0.75},
		{250, 250},
		{3, -1}, // negative prices are not validated
	}
	for _, tt := range tests {
		p := Enrich(position("X", 7, tt.avg), tt.price)
		require.NotNil(t, p.ProfitLossPercent)
		want := (tt.price - tt.avg) / tt.avg * 100
		if math.Abs(*p.ProfitLossPercent-want) > 1e-9 {
			t.Errorf("avg=%v price=%v: percent = %v, want %v", tt.avg, tt.price, *p.ProfitLossPercent, want)
		}
	}
}

func TestEnrich_ZeroAveragePrice(t *testing.T) {
	p := Enrich(position("GIFT", 10, 0), 5)

	assert.Nil(t, p.ProfitLossPercent, "percent is undefined for a zero cost basis")
	require.NotNil(t, p.ProfitLoss)
	assert.InDelta(t, 50.0, *p.ProfitLoss, 1e-9)
	assert.False(t, math.IsInf(*p.MarketValue, 0))
}

func TestEnrich_ZeroQuantity(t *testing.T) {
	p := Enrich(position("CLOSED", 0, 12), 15)

	assert.Equal(t, 0.0, *p.MarketValue)
	assert.Equal(t, 0.0, *p.ProfitLoss)
	assert.InDelta(t, 25.0, *p.ProfitLossPercent, 1e-9)
}

func TestEnrich_DoesNotMutateInput(t *testing.T) {
	in := position("SISE", 5, 40)
	in.CurrentPrice = models.Float(41)
	before := *in.CurrentPrice

	out := Enrich(in, 50)

	assert.Equal(t, before, *in.CurrentPrice)
	assert.Nil(t, in.MarketValue)
	assert.Equal(t, 50.0, *out.CurrentPrice)
	// result does not share pointers with the input
	assert.NotSame(t, in.CurrentPrice, out.CurrentPrice)
}

func TestApplyPriceUpdate_OnlyMatchingSymbol(t *testing.T) {
	positions := []models.EnrichedPosition{
		position("A", 10, 5),
		position("B", 20, 10),
		position("C", 1, 1),
	}

	out := ApplyPriceUpdate(positions, "B", 12)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"A", "B", "C"}, symbols(out))
	assert.Equal(t, positions[0], out[0])
	assert.Equal(t, positions[2], out[2])
	require.NotNil(t, out[1].CurrentPrice)
	assert.Equal(t, 12.0, *out[1].CurrentPrice)

	// the input slice is untouched
	assert.Nil(t, positions[1].CurrentPrice)
}

func TestApplyPriceUpdate_UnknownSymbol(t *testing.T) {
	positions := []models.EnrichedPosition{position("A", 10, 5)}

	out := ApplyPriceUpdate(positions, "ZZZ", 99)

	assert.Equal(t, positions, out)
}

func TestApplyPriceUpdate_Idempotent(t *testing.T) {
	positions := []models.EnrichedPosition{position("A", 10, 5), position("B", 20, 10)}

	once := ApplyPriceUpdate(positions, "A", 4)
	twice := ApplyPriceUpdate(once, "A", 4)

	assert.Equal(t, once, twice)
}

func TestApplyPriceUpdate_OrderIndependentAcrossSymbols(t *testing.T) {
	positions := []models.EnrichedPosition{position("A", 10, 5), position("B", 20, 10)}

	ab := ApplyPriceUpdate(ApplyPriceUpdate(positions, "A", 4), "B", 12)
	ba := ApplyPriceUpdate(ApplyPriceUpdate(positions, "B", 12), "A", 4)

	assert.Equal(t, ab, ba)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, models.PortfolioSummary{}, s)
}

func TestSummarize_TwoHoldings(t *testing.T) {
	positions := []models.EnrichedPosition{position("A", 10, 5), position("B", 20, 10)}
	positions = ApplyPriceUpdate(positions, "A", 4)
	positions = ApplyPriceUpdate(positions, "B", 12)

	s := Summarize(positions)

	assert.InDelta(t, 250.0, s.TotalCost, 1e-9)
	assert.InDelta(t, 280.0, s.TotalValue, 1e-9)
	assert.InDelta(t, 30.0, s.TotalProfitLoss, 1e-9)
	assert.InDelta(t, 12.0, s.TotalProfitLossPercent, 1e-9)
}

func TestSummarize_UnpricedCountsCostOnly(t *testing.T) {
	positions := []models.EnrichedPosition{position("A", 10, 5), position("B", 20, 10)}
	positions = ApplyPriceUpdate(positions, "A", 4) // B lookup failed

	s := Summarize(positions)

	assert.InDelta(t, 40.0, s.TotalValue, 1e-9)
	assert.InDelta(t, 250.0, s.TotalCost, 1e-9)
	assert.InDelta(t, -210.0, s.TotalProfitLoss, 1e-9)
	assert.InDelta(t, -84.0, s.TotalProfitLossPercent, 1e-9)
}

func TestSummarize_ZeroCost(t *testing.T) {
	positions := ApplyPriceUpdate([]models.EnrichedPosition{position("GIFT", 10, 0)}, "GIFT", 3)

	s := Summarize(positions)

	assert.Equal(t, 30.0, s.TotalValue)
	assert.Equal(t, 0.0, s.TotalCost)
	assert.Equal(t, 0.0, s.TotalProfitLossPercent)
}

func TestReplace_PreservesLength(t *testing.T) {
	in := []int{1, 2, 3, 2}
	out := Replace(in, func(v int) bool { return v == 2 }, func(v int) int { return v * 10 })

	assert.Equal(t, []int{1, 20, 3, 20}, out)
	assert.Equal(t, []int{1, 2, 3, 2}, in)
}

func TestApplyQuote_Watchlist(t *testing.T) {
	items := []models.WatchlistItem{{Symbol: "GARAN"}, {Symbol: "AKBNK"}}

	out := ApplyQuote(items, models.Quote{
		Symbol:        "AKBNK",
		Name:          "Akbank",
		Price:         58.4,
		ChangePercent: models.Float(-1.25),
	})

	require.Len(t, out, 2)
	assert.Equal(t, items[0], out[0])
	assert.Equal(t, "Akbank", out[1].Name)
	assert.Equal(t, 58.4, *out[1].Price)
	assert.Equal(t, -1.25, *out[1].ChangePercent)
	assert.Nil(t, items[1].Price)
}

func TestApplyQuote_KeepsKnownFieldsWhenQuoteOmitsThem(t *testing.T) {
	items := []models.WatchlistItem{{Symbol: "EREGL", Name: "Eregli", ChangePercent: models.Float(0.5)}}

	out := ApplyQuote(items, models.Quote{Symbol: "EREGL", Price: 41})

	assert.Equal(t, "Eregli", out[0].Name)
	assert.Equal(t, 41.0, *out[0].Price)
	assert.Equal(t, 0.5, *out[0].ChangePercent)
}

func symbols(ps []models.EnrichedPosition) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Symbol
	}
	return out
}
