package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/bobmcallan/borsa/internal/models"
	"github.com/bobmcallan/borsa/internal/render"
)

// watchlistCmd shows the watchlist
type watchlistCmd struct {
	asJSON bool
}

func (*watchlistCmd) Name() string     { return "watchlist" }
func (*watchlistCmd) Synopsis() string { return "show tracked symbols with current prices" }
func (*watchlistCmd) Usage() string {
	return `borsa watchlist [-json]
`
}

func (c *watchlistCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print the snapshot as JSON")
}

func (c *watchlistCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	snap, err := a.WatchlistService.Refresh(ctx)
	if err != nil {
		return fail(err, "Failed to load watchlist")
	}
	if c.asJSON {
		return printJSON(snap)
	}
	render.PrintMarkdown(stdout, render.NewFormatter(a.Config.Currency).WatchlistMarkdown(snap))
	return subcommands.ExitSuccess
}

// watchCmd adds a symbol to the watchlist
type watchCmd struct{}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "add a symbol to the watchlist" }
func (*watchCmd) Usage() string {
	return `borsa watch <symbol>

  Symbols are trimmed, uppercased and at most 10 characters.
`
}

func (*watchCmd) SetFlags(*flag.FlagSet) {}

func (*watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: enter a stock symbol")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if _, err := a.WatchlistService.Refresh(ctx); err != nil {
		return fail(err, "Failed to load watchlist")
	}

	snap, err := a.WatchlistService.Add(ctx, f.Arg(0))
	if err != nil {
		return fail(err, "Failed to add symbol")
	}

	fmt.Fprintf(stdout, "%s added to watchlist\n", models.NormalizeSymbol(f.Arg(0)))
	render.PrintMarkdown(stdout, render.NewFormatter(a.Config.Currency).WatchlistMarkdown(snap))
	return subcommands.ExitSuccess
}

// unwatchCmd removes a symbol from the watchlist
type unwatchCmd struct{}

func (*unwatchCmd) Name() string     { return "unwatch" }
func (*unwatchCmd) Synopsis() string { return "remove a symbol from the watchlist" }
func (*unwatchCmd) Usage() string {
	return `borsa unwatch <symbol>
`
}

func (*unwatchCmd) SetFlags(*flag.FlagSet) {}

func (*unwatchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: enter a stock symbol")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if _, err := a.WatchlistService.Refresh(ctx); err != nil {
		return fail(err, "Failed to load watchlist")
	}

	snap, err := a.WatchlistService.Remove(ctx, f.Arg(0))
	if err != nil {
		return fail(err, "Failed to remove symbol")
	}

	fmt.Fprintf(stdout, "%s removed from watchlist\n", models.NormalizeSymbol(f.Arg(0)))
	render.PrintMarkdown(stdout, render.NewFormatter(a.Config.Currency).WatchlistMarkdown(snap))
	return subcommands.ExitSuccess
}
