package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/internal/scheduler"
	"github.com/wonny/moat/internal/scheduler/jobs"
	"github.com/wonny/moat/internal/screening"
	"github.com/wonny/moat/internal/tickers"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/moat scheduler start
  go run ./cmd/moat scheduler list
  go run ./cmd/moat scheduler run screening`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- screening: SCREEN_SCHEDULE (기본 평일 오후 6시, TICKERS_FILE 스크리닝)
- cache_prune: 매주 일요일 오전 3시 (티커 목록에 없는 이력 삭제)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers the screening and cache prune jobs.
// onReport receives every scheduled report (may be nil).
func newScheduler(a *app, onReport func(*contracts.Report)) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	source := func() ([]string, error) {
		return tickers.Load(a.cfg.TickersFile)
	}

	screeningJob := jobs.NewScreeningJob(
		a.screener(),
		source,
		screening.OptionsFromConfig(a.cfg.Screening),
		a.cfg.Schedule,
		onReport,
		a.log,
	)
	if err := sched.AddJob(screeningJob); err != nil {
		return nil, fmt.Errorf("add screening job: %w", err)
	}

	if err := sched.AddJob(jobs.NewCachePruneJob(a.cache, source, a.log)); err != nil {
		return nil, fmt.Errorf("add cache prune job: %w", err)
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	PrintHeader("moat scheduler")

	a, err := newApp(context.Background(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a, nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	PrintSuccess("Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a, nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp(context.Background(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	var last *contracts.Report
	sched, err := newScheduler(a, func(r *contracts.Report) { last = r })
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	PrintInfo(fmt.Sprintf("Running job: %s", jobName))

	result, err := sched.RunJobSync(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if last != nil {
		PrintRunSummary(last)
	}
	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %s: %s", jobName, result.Duration, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration))
	return nil
}

// printJobs lists registered jobs with their next run time
func printJobs(sched *scheduler.Scheduler) {
	widths := []int{14, 18, 19}
	fmt.Println()
	PrintTableHeader([]string{"Job", "Schedule", "Next Run"}, widths)

	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		next := "-"
		if t, err := sched.NextRun(name); err == nil && !t.IsZero() {
			next = t.Format(timeLayout)
		}
		PrintTableRow([]string{name, stats[name].Schedule, next}, widths)
	}
}
