package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/internal/report"
	"github.com/wonny/moat/internal/screening"
	"github.com/wonny/moat/internal/tickers"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen [SYMBOL...]",
	Short: "티커 목록 스크리닝",
	Long: `Screens the given symbols, or the ticker file when none are given.

Ticker files may be plain text (one symbol per line), CSV with a Symbol
column (e.g. a previous Results.csv) or an HTML page holding a table with a
Symbol column.

Symbols attempted within FRESHNESS_WINDOW_DAYS are skipped. Threshold flags
override the *_THRESHOLD environment settings for this run only.

Example:
  go run ./cmd/moat screen
  go run ./cmd/moat screen --tickers sp500.html --format markdown
  go run ./cmd/moat screen AAPL MSFT GOOGL --roe 0.2
  go run ./cmd/moat screen --format csv --output Results.csv`,
	RunE: runScreen,
}

var (
	screenTickers    string
	screenFormat     string
	screenOutput     string
	screenROE        float64
	screenVolatility float64
	screenDebt       float64
	screenGoodwill   float64
	screenWindow     int
	screenWorkers    int
	screenProgress   bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	// Flags
	screenCmd.Flags().StringVar(&screenTickers, "tickers", "", "ticker file (default TICKERS_FILE)")
	screenCmd.Flags().StringVar(&screenFormat, "format", "console", "report format (console|markdown|csv)")
	screenCmd.Flags().StringVarP(&screenOutput, "output", "o", "", "write the report to a file instead of stdout")
	screenCmd.Flags().Float64Var(&screenROE, "roe", 0, "ROE threshold (fraction)")
	screenCmd.Flags().Float64Var(&screenVolatility, "volatility", 0, "volatility threshold (fraction)")
	screenCmd.Flags().Float64Var(&screenDebt, "debt", 0, "debt/equity threshold")
	screenCmd.Flags().Float64Var(&screenGoodwill, "goodwill", 0, "goodwill/equity threshold")
	screenCmd.Flags().IntVar(&screenWindow, "window", 0, "freshness window in days")
	screenCmd.Flags().IntVar(&screenWorkers, "workers", 0, "concurrent symbols")
	screenCmd.Flags().BoolVar(&screenProgress, "progress", false, "print every finished symbol")
}

func runScreen(cmd *cobra.Command, args []string) error {
	switch screenFormat {
	case "console", "markdown", "csv":
	default:
		return fmt.Errorf("unknown format %q (console|markdown|csv)", screenFormat)
	}

	// Ctrl+C cancels the run; the partial report is still written
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	symbols, source, err := screenSymbols(args, a.cfg.TickersFile)
	if err != nil {
		return err
	}

	opts, err := screenOptions(cmd, screening.OptionsFromConfig(a.cfg.Screening))
	if err != nil {
		return err
	}

	if screenProgress {
		done := 0
		opts.Observer = func(o contracts.SymbolOutcome) {
			done++
			msg := fmt.Sprintf("%s %s", o.Symbol, o.State)
			if o.Reason != "" {
				msg = fmt.Sprintf("%s (%s)", msg, o.Reason)
			}
			PrintProgress("Screen", msg, done, len(symbols))
		}
	}

	PrintHeader("moat screen",
		fmt.Sprintf("Source    : %s", source),
		fmt.Sprintf("Symbols   : %d", len(symbols)),
		fmt.Sprintf("Thresholds: ROE %.2f  Vol %.2f  D/E %.2f  GW/E %.2f",
			opts.ROEThreshold, opts.VolatilityThreshold, opts.DebtRatioThreshold, opts.GoodwillRatioThreshold),
		fmt.Sprintf("Window    : %d days", opts.FreshnessWindowDays),
	)

	rep, runErr := a.screener().Run(ctx, symbols, opts)
	if rep != nil {
		PrintRunSummary(rep)
		if err := writeReport(rep.Results); err != nil {
			return err
		}
	}

	if runErr != nil {
		PrintError(runErr.Error())
		return runErr
	}

	PrintSuccess(fmt.Sprintf("%d of %d symbols accepted", len(rep.Results), rep.Total))
	return nil
}

// screenSymbols returns the positional symbols or the ticker file contents
func screenSymbols(args []string, defaultFile string) ([]string, string, error) {
	if len(args) > 0 {
		return tickers.Normalize(args), "arguments", nil
	}

	path := screenTickers
	if path == "" {
		path = defaultFile
	}

	symbols, err := tickers.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load tickers: %w", err)
	}
	if len(symbols) == 0 {
		return nil, "", fmt.Errorf("no symbols in %s", path)
	}

	return symbols, path, nil
}

// screenOptions applies the threshold flags the user actually set
func screenOptions(cmd *cobra.Command, opts screening.Options) (screening.Options, error) {
	flags := cmd.Flags()

	if flags.Changed("roe") {
		opts.ROEThreshold = screenROE
	}
	if flags.Changed("volatility") {
		opts.VolatilityThreshold = screenVolatility
	}
	if flags.Changed("debt") {
		opts.DebtRatioThreshold = screenDebt
	}
	if flags.Changed("goodwill") {
		opts.GoodwillRatioThreshold = screenGoodwill
	}
	if flags.Changed("window") {
		if screenWindow < 0 {
			return opts, fmt.Errorf("--window must be >= 0")
		}
		opts.FreshnessWindowDays = screenWindow
	}
	if flags.Changed("workers") {
		if screenWorkers <= 0 {
			return opts, fmt.Errorf("--workers must be > 0")
		}
		opts.Workers = screenWorkers
	}

	return opts, nil
}

// writeReport renders the accepted symbols in the chosen format
func writeReport(results []contracts.ScreeningResult) error {
	var w io.Writer = os.Stdout
	if screenOutput != "" {
		f, err := os.Create(screenOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", screenOutput, err)
		}
		defer f.Close()
		w = f
	} else {
		fmt.Println()
	}

	var err error
	switch screenFormat {
	case "markdown":
		out := report.Markdown(results)
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		_, err = io.WriteString(w, out)
	case "csv":
		err = report.CSV(w, results)
	default:
		report.Console(w, results)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if screenOutput != "" {
		PrintInfo(fmt.Sprintf("Report written to %s", screenOutput))
	}
	return nil
}
