package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/models"
	"github.com/bobmcallan/borsa/internal/render"
)

// liveCmd keeps the portfolio on screen and prints a status line on every change
type liveCmd struct {
	quiet bool
}

func (*liveCmd) Name() string     { return "live" }
func (*liveCmd) Synopsis() string { return "follow portfolio value as prices change" }
func (*liveCmd) Usage() string {
	return `borsa live [-quiet]

  Shows the portfolio and watchlist, then prints a status line each time a
  price changes until interrupted. Prices come from the live feed when
  [stream] is enabled, otherwise they are polled every quote stale time.
`
}

func (c *liveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "quiet", false, "skip the startup banner")
}

func (c *liveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if !c.quiet {
		common.PrintBanner(stderr, a.Config, a.Logger)
	}

	if err := a.StartLive(ctx); err != nil {
		return fail(err, "Failed to load portfolio")
	}

	f := render.NewFormatter(a.Config.Currency)
	render.PrintMarkdown(stdout, f.PortfolioMarkdown(a.PortfolioService.Snapshot()))
	render.PrintMarkdown(stdout, f.WatchlistMarkdown(a.WatchlistService.Snapshot()))

	a.PortfolioService.OnChange(func(s models.PortfolioSnapshot) {
		fmt.Fprintln(stdout, f.StatusLine(s))
	})

	<-ctx.Done()
	a.Logger.Info().Msg("Shutdown signal received")
	return subcommands.ExitSuccess
}
