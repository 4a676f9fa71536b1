package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/internal/screening"
	"github.com/wonny/moat/pkg/logger"
)

// SymbolSource returns the ticker list to screen
type SymbolSource func() ([]string, error)

// ScreeningJob screens the ticker list on a schedule
// ⭐ SSOT: 정기 스크리닝 스케줄은 이 Job에서만
type ScreeningJob struct {
	screener *screening.Screener
	symbols  SymbolSource
	opts     screening.Options
	schedule string
	onReport func(*contracts.Report)
	logger   *logger.Logger
}

// NewScreeningJob creates a new screening job. onReport may be nil.
func NewScreeningJob(
	screener *screening.Screener,
	symbols SymbolSource,
	opts screening.Options,
	schedule string,
	onReport func(*contracts.Report),
	log *logger.Logger,
) *ScreeningJob {
	return &ScreeningJob{
		screener: screener,
		symbols:  symbols,
		opts:     opts,
		schedule: schedule,
		onReport: onReport,
		logger:   log.WithField("job", "screening"),
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "screening"
}

// Schedule returns the cron schedule (SCREEN_SCHEDULE)
func (j *ScreeningJob) Schedule() string {
	return j.schedule
}

// Run loads the tickers and screens them. Only a fatal storage error fails the job.
func (j *ScreeningJob) Run(ctx context.Context) error {
	symbols, err := j.symbols()
	if err != nil {
		return fmt.Errorf("load tickers: %w", err)
	}

	j.logger.WithField("symbols", len(symbols)).Info("Starting scheduled screening")

	report, err := j.screener.Run(ctx, symbols, j.opts)
	if report != nil && j.onReport != nil {
		j.onReport(report)
	}
	if err != nil {
		return fmt.Errorf("screening run: %w", err)
	}

	j.logger.WithField("accepted", len(report.Results)).Info("Scheduled screening completed")
	return nil
}
