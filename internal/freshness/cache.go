package freshness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/pkg/logger"
)

// Cache records when each symbol was last processed.
// Every store call runs under mu, so check-then-mark is one critical section
// even with many screening workers.
// ⭐ SSOT: 종목 처리 이력(stocks 테이블)은 Cache를 통해서만 접근
type Cache struct {
	mu     sync.Mutex
	store  Store
	logger *logger.Logger
	now    func() time.Time
	closed bool
}

// Option configures a Cache
type Option func(*Cache)

// WithClock overrides time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Open creates the stocks table if needed and returns a ready cache.
// Failure here is fatal for the caller.
func Open(ctx context.Context, store Store, log *logger.Logger, opts ...Option) (*Cache, error) {
	if log == nil {
		log = logger.NewNop()
	}

	c := &Cache{
		store:  store,
		logger: log.Component("freshness"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := store.CreateTable(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%w: create table: %v", contracts.ErrStorageFatal, err)
	}

	return c, nil
}

// Close releases the store; calling it twice is a no-op
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.store.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", contracts.ErrStorageFatal, err)
	}
	return nil
}

// HasRecentEntry reports whether symbol was processed within windowDays
func (c *Cache) HasRecentEntry(ctx context.Context, symbol string, windowDays int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return false, err
	}
	return c.hasRecentEntry(ctx, symbol, windowDays)
}

// MarkProcessed records ts as the last processing time of symbol.
// Inserting an existing symbol falls back to an update; tested_at never moves backwards.
func (c *Cache) MarkProcessed(ctx context.Context, symbol string, ts time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.markProcessed(ctx, symbol, ts)
}

// CheckAndMark marks symbol as processed now unless it is still fresh.
// It returns true when the caller should screen the symbol.
func (c *Cache) CheckAndMark(ctx context.Context, symbol string, windowDays int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return false, err
	}
	fresh, err := c.hasRecentEntry(ctx, symbol, windowDays)
	if err != nil {
		return false, err
	}
	if fresh {
		return false, nil
	}

	if err := c.markProcessed(ctx, symbol, c.now()); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the symbol's row; absent symbols are a no-op
func (c *Cache) Delete(ctx context.Context, symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, symbol); err != nil {
		return c.rowError("delete", symbol, err)
	}
	c.logger.WithField("symbol", symbol).Debug("cache entry deleted")
	return nil
}

// AllEntries returns every row ordered by symbol
func (c *Cache) AllEntries(ctx context.Context) ([]contracts.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	entries, err := c.store.All(ctx)
	if err != nil {
		return nil, c.rowError("all", "*", err)
	}
	return entries, nil
}

// Refresh deletes the rows of every listed symbol so the next run screens them again.
// It returns how many listed symbols had a row.
func (c *Cache) Refresh(ctx context.Context, symbols []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	removed := 0
	for _, symbol := range symbols {
		entry, err := c.store.Get(ctx, symbol)
		if err != nil {
			return removed, c.rowError("get", symbol, err)
		}
		if entry == nil {
			continue
		}
		if err := c.store.Delete(ctx, symbol); err != nil {
			return removed, c.rowError("delete", symbol, err)
		}
		removed++
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"removed":   removed,
	}).Info("cache refreshed")
	return removed, nil
}

// Prune deletes rows whose symbol is not in keep (case-insensitive)
func (c *Cache) Prune(ctx context.Context, keep []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	keepSet := make(map[string]struct{}, len(keep))
	for _, s := range keep {
		keepSet[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}

	entries, err := c.store.All(ctx)
	if err != nil {
		return 0, c.rowError("all", "*", err)
	}

	removed := 0
	for _, e := range entries {
		if _, ok := keepSet[strings.ToUpper(e.Symbol)]; ok {
			continue
		}
		if err := c.store.Delete(ctx, e.Symbol); err != nil {
			return removed, c.rowError("delete", e.Symbol, err)
		}
		removed++
	}

	c.logger.WithFields(map[string]interface{}{
		"kept":    len(entries) - removed,
		"removed": removed,
	}).Info("cache pruned")
	return removed, nil
}

// checkOpen must be called with mu held
func (c *Cache) checkOpen() error {
	if c.closed {
		return fmt.Errorf("%w: cache is closed", contracts.ErrStorageFatal)
	}
	return nil
}

// hasRecentEntry must be called with mu held
func (c *Cache) hasRecentEntry(ctx context.Context, symbol string, windowDays int) (bool, error) {
	entry, err := c.store.Get(ctx, symbol)
	if err != nil {
		return false, c.rowError("get", symbol, err)
	}
	if entry == nil {
		return false, nil
	}
	return entry.IsFresh(c.now(), contracts.FreshnessWindow(windowDays)), nil
}

// markProcessed must be called with mu held
func (c *Cache) markProcessed(ctx context.Context, symbol string, ts time.Time) error {
	log := c.logger.WithField("symbol", symbol)

	entry, err := c.store.Get(ctx, symbol)
	if err != nil {
		return c.rowError("get", symbol, err)
	}

	if entry == nil {
		err := c.store.Insert(ctx, symbol, ts)
		if err == nil {
			log.Debug("marked processed")
			return nil
		}
		if !errors.Is(err, contracts.ErrDuplicateKey) {
			return c.rowError("insert", symbol, err)
		}
		// 다른 프로세스가 먼저 기록함
		log.WithError(err).Warn("symbol already recorded, updating instead")
		entry, err = c.store.Get(ctx, symbol)
		if err != nil {
			return c.rowError("get", symbol, err)
		}
		if entry == nil {
			return nil
		}
	}

	if !ts.After(entry.TestedAt) {
		return nil
	}
	if err := c.store.Update(ctx, symbol, ts); err != nil {
		return c.rowError("update", symbol, err)
	}
	log.Debug("processed timestamp updated")
	return nil
}

func (c *Cache) rowError(op, symbol string, err error) error {
	c.logger.WithFields(map[string]interface{}{
		"op":     op,
		"symbol": symbol,
	}).WithError(err).Error("cache row operation failed")
	return &contracts.StorageRowError{Op: op, Symbol: symbol, Err: err}
}
