package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/moat/internal/api"
	"github.com/wonny/moat/internal/api/handlers"
	"github.com/wonny/moat/internal/screening"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET    /health               - Health check
  GET    /api/cache            - 처리 이력 조회
  POST   /api/cache/refresh    - 종목 이력 삭제 (body: {"symbols": [...]})
  DELETE /api/cache/{symbol}   - 종목 이력 삭제
  POST   /api/screen           - 스크리닝 실행 (body: {"symbols": [...]})
  GET    /api/screen/latest    - 마지막 결과 (?format=markdown|csv)
  GET    /api/jobs             - 작업 통계 (--scheduler)
  POST   /api/jobs/{name}/run  - 작업 즉시 실행 (--scheduler)

Example:
  go run ./cmd/moat serve
  go run ./cmd/moat serve --port 8080 --scheduler`,
	RunE: runServe,
}

var (
	servePort      string
	serveScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default PORT)")
	serveCmd.Flags().BoolVar(&serveScheduler, "scheduler", false, "run the scheduled jobs inside the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if servePort != "" {
		a.cfg.Port = servePort
	}

	a.log.WithFields(map[string]interface{}{
		"port":      a.cfg.Port,
		"env":       a.cfg.Env,
		"scheduler": serveScheduler,
	}).Info("Initializing API server")

	latest := &screening.LatestReport{}
	h := api.Handlers{
		Cache:  handlers.NewCacheHandler(a.cache, a.log),
		Screen: handlers.NewScreenHandler(a.screener(), screening.OptionsFromConfig(a.cfg.Screening), latest, a.log),
	}

	if serveScheduler {
		sched, err := newScheduler(a, latest.Set)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		h.Jobs = handlers.NewJobsHandler(sched, a.log)
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
