// Package reaper cancels pending orders whose payment never arrived.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ErlanBelekov/storefront/internal/metrics"
)

const defaultBatchSize = 500

type staleCanceller interface {
	CancelStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type Reaper struct {
	orders    staleCanceller
	ttl       time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func New(orders staleCanceller, ttl time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		orders:    orders,
		ttl:       ttl,
		batchSize: defaultBatchSize,
		logger:    logger.With("component", "reaper"),
		now:       time.Now,
	}
}

// Run performs one cycle: it cancels pending orders older than the TTL in
// batches until a short batch shows nothing is left. The cutoff is fixed at
// the start of the cycle so orders placed meanwhile are never touched.
func (r *Reaper) Run(ctx context.Context) (int, error) {
	start := r.now()
	cutoff := start.Add(-r.ttl)
	defer func() {
		metrics.ReaperCycleDuration.Observe(time.Since(start).Seconds())
	}()

	total := 0
	for {
		n, err := r.orders.CancelStale(ctx, cutoff, r.batchSize)
		total += n
		metrics.ReaperCancelledTotal.Add(float64(n))
		if err != nil {
			return total, fmt.Errorf("reap: %w", err)
		}
		if n < r.batchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}

	if total > 0 {
		r.logger.InfoContext(ctx, "cancelled stale orders", "count", total, "cutoff", cutoff)
	}
	return total, nil
}

// Schedule registers the reaper on c. Overlapping cycles are skipped.
func (r *Reaper) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return 0, fmt.Errorf("invalid reaper schedule %q: %w", spec, err)
	}
	job := cron.FuncJob(func() {
		if _, err := r.Run(ctx); err != nil {
			r.logger.ErrorContext(ctx, "reaper cycle", "error", err)
		}
	})
	return c.AddJob(spec, cron.NewChain(cron.SkipIfStillRunning(CronLogger(r.logger))).Then(job))
}

type cronLogger struct {
	logger *slog.Logger
}

// CronLogger adapts slog to the cron.Logger interface.
func CronLogger(logger *slog.Logger) cron.Logger {
	return cronLogger{logger: logger}
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
