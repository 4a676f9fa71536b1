package contracts

import "time"

// CacheEntry is the last-processed marker for a single symbol
// ⭐ SSOT: 종목별 처리 이력은 이 구조체로만 전달
type CacheEntry struct {
	Symbol   string    `json:"symbol"`
	TestedAt time.Time `json:"tested_at"`
}

// IsFresh reports whether the entry was processed less than window ago
func (e *CacheEntry) IsFresh(now time.Time, window time.Duration) bool {
	return now.Sub(e.TestedAt) < window
}

// FreshnessWindow converts a day count into a duration
func FreshnessWindow(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
