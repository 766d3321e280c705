package render

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/borsa/internal/models"
)

// PortfolioMarkdown renders the summary cards followed by the positions table.
func (f Formatter) PortfolioMarkdown(s *models.PortfolioSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Portfolio\n\n")
	b.WriteString(f.SummaryMarkdown(s.Summary))

	fmt.Fprintf(&b, "\n## Positions\n\n")
	if len(s.Positions) == 0 {
		fmt.Fprintf(&b, "_No holdings yet._\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| ID | Symbol | Quantity | Avg. Price | Price | Market Value | P/L | P/L % |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|---:|")
	for _, p := range s.Positions {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			p.ID,
			p.Symbol,
			Quantity(p.Quantity),
			f.Money(p.AveragePrice),
			f.MoneyPtr(p.CurrentPrice),
			f.MoneyPtr(p.MarketValue),
			f.SignedMoneyPtr(p.ProfitLoss),
			PercentPtr(p.ProfitLossPercent),
		)
	}
	if priced := s.PricedCount(); priced < len(s.Positions) {
		fmt.Fprintf(&b, "\n_%d of %d positions have no current price._\n", len(s.Positions)-priced, len(s.Positions))
	}
	return b.String()
}

// SummaryMarkdown renders the four portfolio totals
func (f Formatter) SummaryMarkdown(s models.PortfolioSummary) string {
	var b strings.Builder
	fmt.Fprintln(&b, "| Total Value | Total Cost | Profit/Loss | Return |")
	fmt.Fprintln(&b, "|---:|---:|---:|---:|")
	fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
		f.Money(s.TotalValue),
		f.Money(s.TotalCost),
		f.SignedMoney(s.TotalProfitLoss),
		Percent(s.TotalProfitLossPercent),
	)
	return b.String()
}

// WatchlistMarkdown renders the watchlist table
func (f Formatter) WatchlistMarkdown(s *models.WatchlistSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Watchlist\n\n")
	if len(s.Items) == 0 {
		fmt.Fprintf(&b, "_No symbols tracked._\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Symbol | Name | Price | Change |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|")
	for _, it := range s.Items {
		name := it.Name
		if name == "" {
			name = Absent
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			it.Symbol,
			escapeCell(name),
			f.MoneyPtr(it.Price),
			PercentPtr(it.ChangePercent),
		)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
