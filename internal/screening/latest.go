package screening

import (
	"sync"

	"github.com/wonny/moat/internal/contracts"
)

// LatestReport keeps the most recent report produced by this process
type LatestReport struct {
	mu     sync.RWMutex
	report *contracts.Report
}

// Set replaces the stored report
func (l *LatestReport) Set(r *contracts.Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report = r
}

// Get returns the stored report, nil before the first run
func (l *LatestReport) Get() *contracts.Report {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.report
}
