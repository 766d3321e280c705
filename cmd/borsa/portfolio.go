package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/bobmcallan/borsa/internal/models"
	"github.com/bobmcallan/borsa/internal/render"
)

// portfolioCmd shows the priced portfolio
type portfolioCmd struct {
	asJSON bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "show holdings priced at current quotes" }
func (*portfolioCmd) Usage() string {
	return `borsa portfolio [-json]

  Loads the holdings, fetches a current price for each symbol and shows
  market value and profit/loss per position and for the whole portfolio.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print the snapshot as JSON")
}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	snap, err := a.PortfolioService.Refresh(ctx)
	if err != nil {
		return fail(err, "Failed to load portfolio")
	}

	if c.asJSON {
		return printJSON(snap)
	}
	render.PrintMarkdown(stdout, render.NewFormatter(a.Config.Currency).PortfolioMarkdown(snap))
	return subcommands.ExitSuccess
}

// addCmd adds a holding
type addCmd struct {
	symbol   string
	quantity float64
	price    float64
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a holding to the portfolio" }
func (*addCmd) Usage() string {
	return `borsa add -symbol <symbol> -quantity <n> -price <average price>

  Adds a holding and shows the updated portfolio. A symbol that is already
  held is rejected.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "instrument symbol, e.g. THYAO")
	f.Float64Var(&c.quantity, "quantity", 0, "number of shares")
	f.Float64Var(&c.price, "price", 0, "average purchase price per share")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if c.symbol == "" || !set["quantity"] || !set["price"] {
		fmt.Fprintln(stderr, "Error: -symbol, -quantity and -price are all required")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	// load first so duplicates are caught before anything is sent
	if _, err := a.PortfolioService.Refresh(ctx); err != nil {
		return fail(err, "Failed to load portfolio")
	}

	snap, err := a.PortfolioService.AddHolding(ctx, models.NewHolding{
		Symbol:       c.symbol,
		Quantity:     c.quantity,
		AveragePrice: c.price,
	})
	if err != nil {
		return fail(err, "Failed to add position")
	}

	fmt.Fprintf(stdout, "Position added: %s\n", models.NormalizeSymbol(c.symbol))
	render.PrintMarkdown(stdout, render.NewFormatter(a.Config.Currency).PortfolioMarkdown(snap))
	return subcommands.ExitSuccess
}

// removeCmd removes a holding by id or symbol
type removeCmd struct{}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove a holding from the portfolio" }
func (*removeCmd) Usage() string {
	return `borsa remove <id|symbol>

  Removes a holding. The argument is matched against holding ids first,
  then symbols.
`
}

func (*removeCmd) SetFlags(*flag.FlagSet) {}

func (*removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one holding id or symbol")
		return subcommands.ExitUsageError
	}
	arg := f.Arg(0)

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	current, err := a.PortfolioService.Refresh(ctx)
	if err != nil {
		return fail(err, "Failed to load portfolio")
	}

	id, symbol := arg, arg
	if p := findPosition(current, arg); p != nil {
		id, symbol = p.ID, p.Symbol
	}

	snap, err := a.PortfolioService.RemoveHolding(ctx, id)
	if err != nil {
		return fail(err, "Failed to remove position")
	}

	fmt.Fprintf(stdout, "%s removed from portfolio\n", symbol)
	render.PrintMarkdown(stdout, render.NewFormatter(a.Config.Currency).PortfolioMarkdown(snap))
	return subcommands.ExitSuccess
}

// findPosition matches arg against holding ids, then symbols
func findPosition(s *models.PortfolioSnapshot, arg string) *models.EnrichedPosition {
	for i := range s.Positions {
		if s.Positions[i].ID == arg {
			return &s.Positions[i]
		}
	}
	p, _ := s.FindBySymbol(arg)
	return p
}

func printJSON(v interface{}) subcommands.ExitStatus {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
