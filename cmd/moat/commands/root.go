package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	profile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moat",
	Short: "moat - 재무 기반 종목 스크리너",
	Long: `moat screens a ticker list for durable businesses.

A symbol is accepted when its 52-week range is narrow, free cash flow has been
positive every year, FCF/equity clears the ROE threshold and both
debt/equity and goodwill/equity stay low. Every symbol is remembered in a
freshness cache and skipped for FRESHNESS_WINDOW_DAYS after it was attempted.

Usage:
  go run ./cmd/moat [command]

Examples:
  go run ./cmd/moat screen --tickers tickers.txt
  go run ./cmd/moat screen AAPL MSFT --format markdown
  go run ./cmd/moat screen --profile profiles/strict.yaml
  go run ./cmd/moat cache list
  go run ./cmd/moat cache refresh --csv Results.csv
  go run ./cmd/moat serve --port 8089`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "YAML screening profile overriding the *_THRESHOLD settings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
