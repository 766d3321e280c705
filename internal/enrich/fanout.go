// Package enrich runs independent per-symbol lookups concurrently and streams
// the successful results back to a single consumer.
package enrich

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/borsa/internal/common"
)

// DefaultMaxConcurrent bounds in-flight lookups when no limit is given
const DefaultMaxConcurrent = 8

// Lookup resolves one symbol
type Lookup[R any] func(ctx context.Context, symbol string) (R, error)

// Update is a successful lookup result
type Update[R any] struct {
	Symbol string
	Result R
}

// Options configures a fan-out
type Options struct {
	MaxConcurrent int
	Logger        *common.Logger
}

// Fanout starts one lookup per symbol and returns a channel of successful
// results. Failed lookups are logged and dropped; they never cancel or delay
// the other symbols. Results arrive in completion order. The channel is
// closed once every lookup has finished or ctx is cancelled, so a consumer
// that stops reading must cancel ctx to release the workers.
func Fanout[R any](ctx context.Context, symbols []string, lookup Lookup[R], opts Options) <-chan Update[R] {
	limit := opts.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	out := make(chan Update[R], len(symbols))

	// errgroup without WithContext: a failed symbol must not cancel siblings
	var g errgroup.Group
	g.SetLimit(limit)

	go func() {
		defer close(out)
		for _, symbol := range symbols {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				result, err := lookup(ctx, symbol)
				if err != nil {
					logger.Warn().Err(err).Str("symbol", symbol).Msg("Price lookup failed")
					return nil
				}
				select {
				case out <- Update[R]{Symbol: symbol, Result: result}:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}
