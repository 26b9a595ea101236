// Package work drives a progress.Reporter with a simulated workload so the
// ruler can be watched under realistic, concurrent completion order.
package work

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sigman78/termprogress/internal/progress"
)

// Config holds the shape of a simulated run.
type Config struct {
	Items        int           // units of work to perform
	Step         int64         // progress units reported per item
	Threads      int           // worker pool size
	RatePerSec   float64       // item start rate; <= 0 means unlimited
	MessageEvery int           // interleave a message every N items; 0 disables
	ItemCost     time.Duration // simulated time spent per item
	Logger       *zap.Logger
}

// Stats summarises a finished run.
type Stats struct {
	Items    int
	Messages int
	Elapsed  time.Duration
}

// Run performs cfg.Items simulated work items on a bounded pool and reports
// each completion to r. The first reporter error cancels the run.
// Run does not call r.Finish; the caller owns the reporter's lifecycle.
func Run(ctx context.Context, cfg Config, r progress.Reporter) (Stats, error) {
	if cfg.Items <= 0 {
		return Stats{}, fmt.Errorf("items must be greater than 0, got %d", cfg.Items)
	}
	if cfg.Threads <= 0 {
		return Stats{}, fmt.Errorf("threads must be greater than 0, got %d", cfg.Threads)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	start := time.Now()
	pool, err := ants.NewPool(cfg.Threads)
	if err != nil {
		return Stats{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}

	// Completion bookkeeping and reporting share one lock so messages see
	// a consistent done count.
	var (
		mu       sync.Mutex
		done     int
		messages int
	)
	complete := func() error {
		mu.Lock()
		defer mu.Unlock()
		if err := r.Advance(cfg.Step); err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		done++
		if cfg.MessageEvery > 0 && done%cfg.MessageEvery == 0 {
			messages++
			if err := r.Message(fmt.Sprintf("processed %d/%d items", done, cfg.Items)); err != nil {
				return fmt.Errorf("message: %w", err)
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Items; i++ {
		if err := lim.Wait(gctx); err != nil {
			break
		}
		item := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			errCh := make(chan error, 1)
			if err := pool.Submit(func() {
				errCh <- perform(gctx, cfg.ItemCost)
			}); err != nil {
				return fmt.Errorf("submit item %d: %w", item, err)
			}
			if err := <-errCh; err != nil {
				return err
			}
			log.Debug("item done", zap.Int("item", item))
			return complete()
		})
	}

	err = g.Wait()
	mu.Lock()
	stats := Stats{Items: done, Messages: messages, Elapsed: time.Since(start)}
	mu.Unlock()
	if err != nil {
		return stats, err
	}
	if stats.Items < cfg.Items {
		return stats, ctx.Err()
	}
	return stats, nil
}

// perform stands in for one unit of real work.
func perform(ctx context.Context, cost time.Duration) error {
	if cost <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(cost)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
