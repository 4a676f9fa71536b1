package freshness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/moat/internal/contracts"
)

// Store is the single-table persistence behind the Cache.
// Implementations need not be safe for concurrent writers; Cache serializes
// every call.
type Store interface {
	// CreateTable creates the stocks table if absent
	CreateTable(ctx context.Context) error
	// Get returns nil, nil when the symbol has no row
	Get(ctx context.Context, symbol string) (*contracts.CacheEntry, error)
	// Insert returns an error wrapping contracts.ErrDuplicateKey if the row exists
	Insert(ctx context.Context, symbol string, testedAt time.Time) error
	Update(ctx context.Context, symbol string, testedAt time.Time) error
	Delete(ctx context.Context, symbol string) error
	All(ctx context.Context) ([]contracts.CacheEntry, error)
	Close() error
}

// testedAtLayout is how tested_at is written to text columns
const testedAtLayout = "2006-01-02 15:04:05.000000"

var testedAtLayouts = []string{
	testedAtLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

func formatTestedAt(t time.Time) string {
	return t.UTC().Format(testedAtLayout)
}

// parseTestedAt accepts whatever the driver hands back for tested_at
func parseTestedAt(v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case []byte:
		return parseTestedAtString(string(x))
	case string:
		return parseTestedAtString(x)
	default:
		return time.Time{}, fmt.Errorf("unsupported tested_at type %T", v)
	}
}

func parseTestedAtString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range testedAtLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable tested_at %q", s)
}
