package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/moat/internal/tickers"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "처리 이력(freshness cache) 관리",
	Long: `Inspects and edits the freshness cache.

Subcommands:
  list     - 모든 처리 이력
  delete   - 종목 이력 삭제 (다음 실행에서 다시 스크리닝)
  refresh  - 결과 파일(Results.csv)에 있는 종목 이력 삭제
  prune    - 티커 목록에 없는 종목 이력 삭제

Example:
  go run ./cmd/moat cache list
  go run ./cmd/moat cache delete AAPL MSFT
  go run ./cmd/moat cache refresh --csv Results.csv
  go run ./cmd/moat cache prune --tickers tickers.txt`,
}

var (
	cacheListCmd = &cobra.Command{
		Use:   "list",
		Short: "모든 처리 이력",
		RunE:  listCache,
	}

	cacheDeleteCmd = &cobra.Command{
		Use:   "delete SYMBOL...",
		Short: "종목 이력 삭제",
		Args:  cobra.MinimumNArgs(1),
		RunE:  deleteCache,
	}

	cacheRefreshCmd = &cobra.Command{
		Use:   "refresh [SYMBOL...]",
		Short: "결과 파일의 종목 이력 삭제",
		RunE:  refreshCache,
	}

	cachePruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "티커 목록에 없는 종목 이력 삭제",
		RunE:  pruneCache,
	}
)

var (
	refreshFile string
	pruneFile   string
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheRefreshCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	cacheRefreshCmd.Flags().StringVar(&refreshFile, "csv", "Results.csv", "results file whose symbols are re-admitted")
	cachePruneCmd.Flags().StringVar(&pruneFile, "tickers", "", "ticker file to keep (default TICKERS_FILE)")
}

func listCache(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.cache.AllEntries(ctx)
	if err != nil {
		return fmt.Errorf("list cache: %w", err)
	}

	if len(entries) == 0 {
		PrintInfo("Freshness cache is empty")
		return nil
	}

	PrintHeader("Freshness cache", fmt.Sprintf("Entries : %d", len(entries)))
	PrintCacheEntries(entries, time.Now())
	return nil
}

func deleteCache(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, symbol := range tickers.Normalize(args) {
		if err := a.cache.Delete(ctx, symbol); err != nil {
			return fmt.Errorf("delete %s: %w", symbol, err)
		}
		PrintSuccess(fmt.Sprintf("Deleted %s", symbol))
	}
	return nil
}

func refreshCache(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	symbols := tickers.Normalize(args)
	source := "arguments"
	if len(symbols) == 0 {
		var err error
		symbols, err = tickers.Load(refreshFile)
		if err != nil {
			return fmt.Errorf("load %s: %w", refreshFile, err)
		}
		source = refreshFile
	}

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.cache.Refresh(ctx, symbols)
	if err != nil {
		return fmt.Errorf("refresh cache: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Re-admitted %d of %d symbols from %s", removed, len(symbols), source))
	return nil
}

func pruneCache(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	path := pruneFile
	if path == "" {
		path = a.cfg.TickersFile
	}

	keep, err := tickers.Load(path)
	if err != nil {
		return fmt.Errorf("load tickers: %w", err)
	}
	if len(keep) == 0 {
		// 빈 목록으로 전체 삭제하지 않음
		PrintWarning(fmt.Sprintf("%s has no symbols, nothing pruned", path))
		return nil
	}

	removed, err := a.cache.Prune(ctx, keep)
	if err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Pruned %d entries not in %s", removed, path))
	return nil
}
