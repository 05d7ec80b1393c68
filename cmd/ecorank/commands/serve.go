package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/wonny/ecorank/backend/internal/analysis"
	"github.com/wonny/ecorank/backend/internal/api"
	"github.com/wonny/ecorank/backend/internal/api/handlers"
	"github.com/wonny/ecorank/backend/internal/charts"
	"github.com/wonny/ecorank/backend/internal/filter"
	"github.com/wonny/ecorank/backend/internal/pipeline"
	"github.com/wonny/ecorank/backend/internal/realtime"
	"github.com/wonny/ecorank/backend/internal/render"
	"github.com/wonny/ecorank/backend/internal/scheduler"
	"github.com/wonny/ecorank/backend/internal/scheduler/jobs"
	"github.com/wonny/ecorank/backend/internal/source"
	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/config"
	"github.com/wonny/ecorank/backend/pkg/httputil"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Starts the dashboard web server.

Endpoints:
  GET    /recommendations          - Dashboard page (minScore, minRenewable, transport, preset)
  GET    /details/{id}             - Supplier details
  GET    /fragments/analysis       - Analysis panel content
  DELETE /fragments/analysis       - Close the analysis panel
  GET    /api/dashboard/view       - Current dashboard state
  POST   /api/dashboard/apply      - Apply a filter
  POST   /api/dashboard/refresh    - Re-run the last filter
  GET    /api/jobs                 - Scheduled job statistics
  GET    /ws                       - State change events
  GET    /health                   - Health check

Example:
  go run ./cmd/ecorank serve
  go run ./cmd/ecorank serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "dashboard port (default from PORT)")
}

// newSourceClient builds the upstream client shared by every dashboard component
func newSourceClient(cfg *config.Config, log *logger.Logger) *source.Client {
	httpClient := httputil.New(cfg, log)
	if cfg.Source.RateLimit > 0 {
		httpClient = httpClient.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.Source.RateLimit), 1))
	}
	return source.NewClient(httpClient, cfg.Source.BaseURL, log)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap(nil)
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	presets, err := filter.LoadPresets(cfg.Dashboard.PresetsFile)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}

	// 1. Pipeline
	client := newSourceClient(cfg, log)
	normalizer := supplier.NewNormalizer(log)
	orch := pipeline.New(client, normalizer, render.NewCardRenderer(log), charts.NewRegistry(log),
		cfg.Source.RecommendationCount, log)
	panel := analysis.NewPanel(client, normalizer, log)

	// 2. Push state changes to open pages
	hub := realtime.NewHub(log)
	defer hub.Close()
	unsubscribe := orch.Subscribe(func(e pipeline.Event) {
		hub.Broadcast(realtime.Message{Type: "pipeline", Data: e})
	})
	defer unsubscribe()

	// 3. Periodic refresh
	sched := scheduler.New(log, cfg.Source.Timeout+5*time.Second)
	if cfg.Dashboard.RefreshSchedule != "" {
		if err := sched.AddJob(jobs.NewRefreshJob(orch, cfg.Dashboard.RefreshSchedule, log)); err != nil {
			return fmt.Errorf("register refresh job: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	// 4. HTTP
	var applyLimiter *rate.Limiter
	if cfg.Dashboard.ApplyRateLimit > 0 {
		applyLimiter = rate.NewLimiter(rate.Limit(cfg.Dashboard.ApplyRateLimit), cfg.Dashboard.ApplyRateBurst)
	}
	router := api.NewDashboardRouter(api.DashboardRoutes{
		Dashboard: handlers.NewDashboardHandler(orch, panel, client, normalizer, presets, log),
		Jobs:      handlers.NewJobsHandler(sched, log),
		Events:    hub,
		Apply:     applyLimiter,
	}, log)
	server := api.New("dashboard", cfg.Port, router, cfg.Source.Timeout, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(map[string]interface{}{
		"port":     cfg.Port,
		"source":   cfg.Source.BaseURL,
		"presets":  len(presets),
		"schedule": cfg.Dashboard.RefreshSchedule,
	}).Info("Dashboard starting")
	fmt.Printf("\n✅ Dashboard running on http://localhost:%s/recommendations\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx, 30*time.Second); err != nil {
		return err
	}

	log.Info("Dashboard stopped")
	return nil
}
