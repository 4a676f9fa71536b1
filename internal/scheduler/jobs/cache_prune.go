package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/moat/internal/freshness"
	"github.com/wonny/moat/pkg/logger"
)

// CachePruneJob drops cache rows of symbols no longer in the ticker list
type CachePruneJob struct {
	cache   *freshness.Cache
	symbols SymbolSource
	logger  *logger.Logger
}

// NewCachePruneJob creates a new cache prune job
func NewCachePruneJob(cache *freshness.Cache, symbols SymbolSource, log *logger.Logger) *CachePruneJob {
	return &CachePruneJob{
		cache:   cache,
		symbols: symbols,
		logger:  log.WithField("job", "cache_prune"),
	}
}

// Name returns the job name
func (j *CachePruneJob) Name() string {
	return "cache_prune"
}

// Schedule returns the cron schedule (Sundays at 3 AM)
func (j *CachePruneJob) Schedule() string {
	return "0 0 3 * * 0"
}

// Run executes the cache prune
func (j *CachePruneJob) Run(ctx context.Context) error {
	symbols, err := j.symbols()
	if err != nil {
		return fmt.Errorf("load tickers: %w", err)
	}
	if len(symbols) == 0 {
		// 빈 목록으로 전체 삭제하지 않음
		j.logger.Warn("Ticker list is empty, skipping prune")
		return nil
	}

	removed, err := j.cache.Prune(ctx, symbols)
	if err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Cache prune completed")
	}
	return nil
}
