package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/interfaces"
)

// warmCache loads the portfolio and the watchlist concurrently so the live
// view starts with both priced. It fails only when the portfolio cannot load.
func warmCache(ctx context.Context, portfolioService interfaces.PortfolioService, watchlistService interfaces.WatchlistService, logger *common.Logger) error {
	start := time.Now()

	var g errgroup.Group
	g.Go(func() error {
		_, err := portfolioService.Refresh(ctx)
		return err
	})
	g.Go(func() error {
		if _, err := watchlistService.Refresh(ctx); err != nil {
			logger.Warn().Err(err).Msg("Warm cache: watchlist unavailable")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Dur("elapsed", time.Since(start)).Msg("Warm cache: complete")
	return nil
}
