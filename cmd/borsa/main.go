// Command borsa tracks a stock portfolio and watchlist against live prices.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/bobmcallan/borsa/internal/app"
	"github.com/bobmcallan/borsa/internal/clients/api"
	"github.com/bobmcallan/borsa/internal/models"
)

var configPath = flag.String("config", "", "Path to borsa.toml (default: $BORSA_CONFIG, then borsa.toml next to the binary or in the working directory)")

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	// openApp builds the application for a command
	openApp = func() (*app.App, error) {
		return app.NewApp(*configPath)
	}
)

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
	c.Register(&versionCmd{}, "")

	c.Register(&portfolioCmd{}, "portfolio")
	c.Register(&addCmd{}, "portfolio")
	c.Register(&removeCmd{}, "portfolio")
	c.Register(&liveCmd{}, "portfolio")

	c.Register(&watchlistCmd{}, "watchlist")
	c.Register(&watchCmd{}, "watchlist")
	c.Register(&unwatchCmd{}, "watchlist")

	c.Register(&notifyCmd{}, "notifications")
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// userMessage is what a failed command prints: validation problems as they
// are, backend rejections with the backend's message, anything else as
// fallback.
func userMessage(err error, fallback string) string {
	if errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrDuplicateSymbol) {
		return err.Error()
	}
	return api.UserMessage(err, fallback)
}

func fail(err error, fallback string) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: %s\n", userMessage(err, fallback))
	return subcommands.ExitFailure
}
