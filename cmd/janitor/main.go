package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	pgRepo "fixturecast/internal/infra/adapter/persistence/postgres"
	"fixturecast/internal/infra/db"
	"fixturecast/internal/infra/queue/redisqueue"
	workerPkg "fixturecast/internal/infra/worker"
	"fixturecast/internal/usecase/deadletter"
)

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load janitor configuration (fail-open strategy)
	janitorMetrics := workerPkg.NewJanitorMetrics()
	janitorConfig, err := workerPkg.LoadJanitorConfigFromEnv(logger, janitorMetrics)
	if err != nil {
		logger.Error("failed to load janitor configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("janitor configuration loaded",
		slog.String("sweep_schedule", janitorConfig.SweepSchedule),
		slog.String("timezone", janitorConfig.Timezone),
		slog.Duration("retention", janitorConfig.Retention),
		slog.Duration("sweep_timeout", janitorConfig.SweepTimeout),
		slog.Int("health_port", janitorConfig.HealthPort))

	guard := db.NewGuard(database, db.DefaultGuardConfig())
	repo := pgRepo.NewDeadLetterRepo(guard)

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr()})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}()
	jobQueue := redisqueue.New(rdb, logger)

	svc := deadletter.NewService(repo, jobQueue, logger)

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", janitorConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	janitor, err := workerPkg.NewJanitor(*janitorConfig, svc, logger, janitorMetrics)
	if err != nil {
		logger.Error("failed to create janitor", slog.Any("error", err))
		os.Exit(1)
	}

	// Populate the backlog gauges before the first scheduled sweep.
	if err := svc.RefreshGauges(ctx); err != nil {
		logger.Warn("initial gauge refresh failed", slog.Any("error", err))
	}

	healthServer.SetReady(true)
	logger.Info("janitor started", slog.String("schedule", janitorConfig.SweepSchedule))

	janitor.Start(ctx)
	logger.Info("janitor stopped")
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and applies migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database, err := db.Open(os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := migrateWithRetry(logger, database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// migrateWithRetry applies migrations, retrying while the database comes up.
func migrateWithRetry(logger *slog.Logger, database *sql.DB) error {
	var err error
	for i := 0; i < 10; i++ {
		if err = db.MigrateUp(database); err == nil {
			return nil
		}
		logger.Info("waiting for database, retrying in 3s",
			slog.Int("attempt", i+1), slog.Any("error", err))
		time.Sleep(3 * time.Second)
	}
	return err
}

// redisAddr retrieves the Redis address from the environment.
func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}
