package app

import (
	"context"
	"time"

	"github.com/bobmcallan/borsa/internal/clients/stream"
	"github.com/bobmcallan/borsa/internal/models"
)

const defaultPollInterval = 60 * time.Second

// StartLive loads both snapshots and keeps them current until ctx ends or
// the app is closed: through the price feed when it is enabled and reachable,
// otherwise by polling every quote stale time.
func (a *App) StartLive(ctx context.Context) error {
	if err := warmCache(ctx, a.PortfolioService, a.WatchlistService, a.Logger); err != nil {
		return err
	}

	if a.Config.Stream.Enabled {
		err := a.startFeed(ctx)
		if err == nil {
			return nil
		}
		a.Logger.Warn().Err(err).Msg("Price feed unavailable, falling back to polling")
	}

	interval := a.Config.Quotes.GetStaleTime()
	if interval <= 0 {
		interval = defaultPollInterval
	}
	schedulerCtx, cancel := context.WithCancel(ctx)
	a.schedulerCancel = cancel
	go startRefreshScheduler(schedulerCtx, a.PortfolioService, a.WatchlistService, a.Logger, interval)
	return nil
}

func (a *App) startFeed(ctx context.Context) error {
	feed := stream.NewClient(a.Config.Stream.URL, stream.WithLogger(a.Logger))
	feed.OnPrice(a.applyTick)

	if err := feed.Subscribe(a.trackedSymbols()); err != nil {
		return err
	}
	if err := feed.Connect(ctx); err != nil {
		return err
	}
	a.feed = feed
	return nil
}

// applyTick routes one live price to the quote cache and both services
func (a *App) applyTick(tick models.PriceTick) {
	q := models.Quote{Symbol: tick.Symbol, Price: tick.Price, ChangePercent: tick.ChangePercent}
	a.QuoteService.Store(q)
	a.PortfolioService.ApplyQuote(tick.Symbol, tick.Price)
	a.WatchlistService.ApplyQuote(q)
}

// trackedSymbols lists portfolio then watchlist symbols, each once
func (a *App) trackedSymbols() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, p := range a.PortfolioService.Snapshot().Positions {
		add(p.Symbol)
	}
	for _, it := range a.WatchlistService.Snapshot().Items {
		add(it.Symbol)
	}
	return out
}
