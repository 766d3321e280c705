package render

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/bobmcallan/borsa/internal/models"
)

var (
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// PrintMarkdown renders md for the terminal. If styling fails the raw
// markdown is written instead.
func PrintMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			_, err = io.WriteString(w, out)
			return err
		}
	}
	_, err = io.WriteString(w, md)
	return err
}

// StatusLine is the one-line live view of the portfolio totals, coloured by
// the sign of the overall profit or loss.
func (f Formatter) StatusLine(s models.PortfolioSnapshot) string {
	style := gainStyle
	if s.Summary.TotalProfitLoss < 0 {
		style = lossStyle
	}
	pl := style.Render(fmt.Sprintf("%s (%s)",
		f.SignedMoney(s.Summary.TotalProfitLoss),
		Percent(s.Summary.TotalProfitLossPercent)))

	meta := mutedStyle.Render(fmt.Sprintf("v%d %d/%d priced %s",
		s.Version, s.PricedCount(), len(s.Positions), s.UpdatedAt.Format(time.TimeOnly)))

	return fmt.Sprintf("%s  %s  %s", f.Money(s.Summary.TotalValue), pl, meta)
}
