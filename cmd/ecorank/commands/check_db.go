package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ecorank/backend/pkg/database"
	"github.com/wonny/ecorank/backend/pkg/redis"
)

// checkDBCmd represents the check-db command
var checkDBCmd = &cobra.Command{
	Use:   "check-db",
	Short: "Check PostgreSQL and Redis connectivity",
	Long: `Connects to the recommendation database and prints pool statistics.
Redis is checked too when REDIS_ENABLED is set.

Example:
  go run ./cmd/ecorank check-db
  go run ./cmd/ecorank check-db --env production`,
	RunE: runCheckDB,
}

func init() {
	rootCmd.AddCommand(checkDBCmd)
}

func runCheckDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ecorank connectivity check ===")

	cfg, _, err := bootstrap(nil)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("Connecting to database...")
	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Println("✅ Health Check Results:")
	fmt.Printf("   Healthy: %v\n", status.Healthy)
	fmt.Printf("   Response Time: %v\n\n", status.ResponseTime)

	fmt.Println("📊 Connection Pool Statistics:")
	fmt.Printf("   Max Connections: %d\n", status.Stats.MaxConns)
	fmt.Printf("   Total Connections: %d\n", status.Stats.TotalConns)
	fmt.Printf("   Acquired Connections: %d\n", status.Stats.AcquiredConns)
	fmt.Printf("   Idle Connections: %d\n", status.Stats.IdleConns)
	fmt.Printf("   Acquire Count: %d\n", status.Stats.AcquireCount)

	if cfg.Redis.Enabled {
		fmt.Println("\nConnecting to Redis...")
		rdb, err := redis.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("❌ Failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		fmt.Println("✅ Redis reachable")
	}

	fmt.Println("\n✅ All checks passed!")
	return nil
}

// maskPassword hides the password of a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
