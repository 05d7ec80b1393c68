package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ecorank/backend/internal/api"
	"github.com/wonny/ecorank/backend/internal/api/handlers"
	"github.com/wonny/ecorank/backend/internal/store"
	"github.com/wonny/ecorank/backend/pkg/database"
	"github.com/wonny/ecorank/backend/pkg/redis"
)

// sourceCmd represents the source command
var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Start the recommendation API",
	Long: `Starts the upstream recommendation API backed by PostgreSQL.
Scores are read from dwh.supplier_scores; they are never computed here.

Endpoints:
  GET  /api/recommendations?count=5     - Best scored suppliers
  GET  /api/llm_analysis                - Markdown analysis and top 3
  GET  /api/supplier_details/{id}       - One supplier
  GET  /health                          - Health check

Example:
  go run ./cmd/ecorank source
  go run ./cmd/ecorank source --port 5000 --seed suppliers.json`,
	RunE: runSource,
}

var (
	sourcePort string
	sourceSeed string
)

func init() {
	rootCmd.AddCommand(sourceCmd)

	sourceCmd.Flags().StringVar(&sourcePort, "port", "5000", "API port")
	sourceCmd.Flags().StringVar(&sourceSeed, "seed", "", "JSON array of suppliers to upsert before serving")
}

func runSource(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap(nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. PostgreSQL
	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := store.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if sourceSeed != "" {
		n, err := seed(ctx, repo, sourceSeed)
		if err != nil {
			return err
		}
		log.WithField("suppliers", n).Info("Seed data loaded")
	}

	// 2. Redis (optional, backs the analysis rate limit)
	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	limit := redis.AnalysisRateLimit(cfg)
	h := handlers.NewSourceHandler(repo, redis.NewRateLimiter(rdb, "ecorank"), limit, log).
		WithHealthCheck("postgres", db).
		WithHealthCheck("redis", rdb)

	// 3. HTTP
	server := api.New("source", sourcePort, api.NewSourceRouter(h, log), 0, log)

	log.WithFields(map[string]interface{}{
		"port":           sourcePort,
		"redis":          rdb.Enabled(),
		"analysis_limit": limit.Limit,
	}).Info("Recommendation API starting")
	fmt.Printf("\n✅ Recommendation API running on http://localhost:%s\n", sourcePort)

	if err := server.Run(ctx, 10*time.Second); err != nil {
		return err
	}

	log.Info("Recommendation API stopped")
	return nil
}

func seed(ctx context.Context, repo *store.Repository, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var suppliers []store.Supplier
	if err := json.Unmarshal(raw, &suppliers); err != nil {
		return 0, fmt.Errorf("decode seed file %s: %w", path, err)
	}

	for _, s := range suppliers {
		if err := repo.Upsert(ctx, s); err != nil {
			return 0, err
		}
	}
	return len(suppliers), nil
}
