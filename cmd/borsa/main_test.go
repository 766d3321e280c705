package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/borsa/internal/app"
	"github.com/bobmcallan/borsa/internal/clients/api"
	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/models"
	testcommon "github.com/bobmcallan/borsa/test/common"
)

// useBackend points openApp at a fake backend for the duration of the test
func useBackend(t *testing.T, backend *testcommon.Backend) {
	t.Helper()
	prev := openApp
	openApp = func() (*app.App, error) {
		cfg := common.NewDefaultConfig()
		cfg.API.BaseURL = backend.URL
		cfg.API.RateLimit = 0
		cfg.Currency = "USD"
		return app.NewAppWithConfig(cfg, common.NewSilentLogger()), nil
	}
	t.Cleanup(func() { openApp = prev })
}

func run(t *testing.T, cmd subcommands.Command, args ...string) (subcommands.ExitStatus, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	status := cmd.Execute(context.Background(), fs)
	return status, out.String(), errOut.String()
}

func TestPortfolioCmd_JSON(t *testing.T) {
	backend := testcommon.NewBackend(t)
	backend.SeedHolding("THYAO", 10, 255)
	backend.SetQuote(models.Quote{Symbol: "THYAO", Price: 300})
	useBackend(t, backend)

	status, out, _ := run(t, &portfolioCmd{}, "-json")
	require.Equal(t, subcommands.ExitSuccess, status)

	var snap models.PortfolioSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Positions, 1)
	assert.InDelta(t, 3000, snap.Summary.TotalValue, 1e-9)
	assert.InDelta(t, 17.647058823529413, *snap.Positions[0].ProfitLossPercent, 1e-9)
}

func TestPortfolioCmd_Markdown(t *testing.T) {
	backend := testcommon.NewBackend(t)
	backend.SeedHolding("GARAN", 100, 80)
	backend.FailQuote("GARAN")
	useBackend(t, backend)

	status, out, _ := run(t, &portfolioCmd{})
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "GARAN")
	assert.Contains(t, out, "Positions")
}

func TestPortfolioCmd_BackendMessageShown(t *testing.T) {
	backend := testcommon.NewBackend(t)
	backend.Token = "required"
	useBackend(t, backend)

	status, _, errOut := run(t, &portfolioCmd{})
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Not authorized")
}

func TestAddCmd(t *testing.T) {
	backend := testcommon.NewBackend(t)
	backend.SetQuote(models.Quote{Symbol: "THYAO", Price: 300})
	useBackend(t, backend)

	status, out, errOut := run(t, &addCmd{}, "-symbol", "thyao", "-quantity", "10", "-price", "255")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "Position added: THYAO")

	holdings := backend.Holdings()
	require.Len(t, holdings, 1)
	assert.Equal(t, "THYAO", holdings[0].Symbol)
	assert.Equal(t, 255.0, holdings[0].AveragePrice)
}

func TestAddCmd_MissingFlags(t *testing.T) {
	backend := testcommon.NewBackend(t)
	useBackend(t, backend)

	status, _, errOut := run(t, &addCmd{}, "-symbol", "THYAO", "-quantity", "10")
	assert.Equal(t, subcommands.ExitUsageError, status)
	assert.Contains(t, errOut, "required")
	assert.Empty(t, backend.Requests())
}

func TestAddCmd_Duplicate(t *testing.T) {
	backend := testcommon.NewBackend(t)
	backend.SeedHolding("THYAO", 1, 1)
	useBackend(t, backend)

	status, _, errOut := run(t, &addCmd{}, "-symbol", "THYAO", "-quantity", "10", "-price", "255")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "symbol already exists")
	assert.Len(t, backend.Holdings(), 1)
}

func TestAddCmd_NegativeQuantity(t *testing.T) {
	useBackend(t, testcommon.NewBackend(t))

	status, _, errOut := run(t, &addCmd{}, "-symbol", "THYAO", "-quantity", "-1", "-price", "255")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "invalid input")
}

func TestRemoveCmd_BySymbol(t *testing.T) {
	backend := testcommon.NewBackend(t)
	backend.SeedHolding("THYAO", 10, 255)
	backend.SeedHolding("GARAN", 5, 80)
	useBackend(t, backend)

	status, out, errOut := run(t, &removeCmd{}, "thyao")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "THYAO removed from portfolio")

	holdings := backend.Holdings()
	require.Len(t, holdings, 1)
	assert.Equal(t, "GARAN", holdings[0].Symbol)
}

func TestRemoveCmd_ByID(t *testing.T) {
	backend := testcommon.NewBackend(t)
	id := backend.SeedHolding("THYAO", 10, 255)
	useBackend(t, backend)

	status, out, _ := run(t, &removeCmd{}, id)
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "THYAO removed")
	assert.Empty(t, backend.Holdings())
}

func TestRemoveCmd_UnknownHolding(t *testing.T) {
	backend := testcommon.NewBackend(t)
	backend.SeedHolding("THYAO", 10, 255)
	useBackend(t, backend)

	status, _, errOut := run(t, &removeCmd{}, "nope")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Holding not found")
}

func TestWatchAndUnwatch(t *testing.T) {
	backend := testcommon.NewBackend(t)
	backend.SetQuote(models.Quote{Symbol: "SISE", Name: "Şişecam", Price: 45})
	useBackend(t, backend)

	status, out, errOut := run(t, &watchCmd{}, " sise ")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "SISE added to watchlist")
	assert.Equal(t, []string{"SISE"}, backend.Symbols())

	status, _, errOut = run(t, &watchCmd{}, "SISE")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "symbol already exists")

	status, out, _ = run(t, &watchlistCmd{}, "-json")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Şişecam")

	status, out, _ = run(t, &unwatchCmd{}, "sise")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "SISE removed from watchlist")
	assert.Empty(t, backend.Symbols())
}

func TestWatchCmd_TooLong(t *testing.T) {
	backend := testcommon.NewBackend(t)
	useBackend(t, backend)

	status, _, errOut := run(t, &watchCmd{}, "ABCDEFGHIJK")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "at most 10 characters")
	assert.Empty(t, backend.Symbols())
}

func TestWatchCmd_NoArgument(t *testing.T) {
	status, _, errOut := run(t, &watchCmd{})
	assert.Equal(t, subcommands.ExitUsageError, status)
	assert.Contains(t, errOut, "enter a stock symbol")
}

func TestNotifyCmd_NotConfigured(t *testing.T) {
	useBackend(t, testcommon.NewBackend(t))

	status, out, _ := run(t, &notifyCmd{}, "-news")
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "not configured")
}

func TestVersionCmd(t *testing.T) {
	status, out, _ := run(t, &versionCmd{})
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "borsa ")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "fallback", userMessage(errors.New("dial tcp: refused"), "fallback"))
	assert.Equal(t, "Stock not found", userMessage(&api.APIError{StatusCode: 404, Message: "Stock not found"}, "fallback"))

	err := fmt.Errorf("%w: symbol is required", models.ErrInvalidInput)
	assert.Equal(t, err.Error(), userMessage(err, "fallback"))
}
