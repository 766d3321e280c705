package app

import (
	"context"
	"time"

	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/interfaces"
)

// startRefreshScheduler re-fetches holdings, watchlist and quotes on a fixed
// interval. It keeps the live view current when no price feed is connected.
func startRefreshScheduler(ctx context.Context, portfolioService interfaces.PortfolioService, watchlistService interfaces.WatchlistService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Refresh scheduler: stopped")
			return
		case <-ticker.C:
			refreshAll(ctx, portfolioService, watchlistService, logger)
		}
	}
}

func refreshAll(ctx context.Context, portfolioService interfaces.PortfolioService, watchlistService interfaces.WatchlistService, logger *common.Logger) {
	start := time.Now()

	snap, err := portfolioService.Refresh(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Scheduled refresh: portfolio unavailable")
		return
	}
	if _, err := watchlistService.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("Scheduled refresh: watchlist unavailable")
	}

	logger.Debug().
		Int("positions", len(snap.Positions)).
		Dur("elapsed", time.Since(start)).
		Msg("Scheduled refresh: complete")
}
