package screening

import (
	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/internal/ratio"
	"github.com/wonny/moat/pkg/config"
)

const defaultWorkers = 8

// Options are the thresholds and sizing of one run
type Options struct {
	ROEThreshold           float64
	VolatilityThreshold    float64
	DebtRatioThreshold     float64
	GoodwillRatioThreshold float64
	FreshnessWindowDays    int
	Workers                int

	// Observer, if set, receives every finished symbol from the collecting goroutine
	Observer func(contracts.SymbolOutcome)
}

// DefaultOptions mirrors the config defaults
func DefaultOptions() Options {
	return Options{
		ROEThreshold:           ratio.DefaultROEThreshold,
		VolatilityThreshold:    ratio.DefaultVolatilityThreshold,
		DebtRatioThreshold:     ratio.DefaultDebtRatioThreshold,
		GoodwillRatioThreshold: ratio.DefaultGoodwillRatioThreshold,
		FreshnessWindowDays:    365,
		Workers:                defaultWorkers,
	}
}

// OptionsFromConfig converts the SCREEN_* / *_THRESHOLD settings
func OptionsFromConfig(cfg config.ScreeningConfig) Options {
	return Options{
		ROEThreshold:           cfg.ROEThreshold,
		VolatilityThreshold:    cfg.VolatilityThreshold,
		DebtRatioThreshold:     cfg.DebtRatioThreshold,
		GoodwillRatioThreshold: cfg.GoodwillRatioThreshold,
		FreshnessWindowDays:    cfg.FreshnessWindowDays,
		Workers:                cfg.Workers,
	}
}

func (o Options) workers(symbols int) int {
	n := o.Workers
	if n <= 0 {
		n = defaultWorkers
	}
	if symbols > 0 && n > symbols {
		n = symbols
	}
	return n
}
