package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evewspace/sitetracker/internal/api"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/config"
	"evewspace/sitetracker/internal/db"
	"evewspace/sitetracker/internal/logging"
	"evewspace/sitetracker/internal/metrics"
	"evewspace/sitetracker/internal/routes"
	"evewspace/sitetracker/internal/workers"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// @title SiteTracker API
// @version 1.0
// @description Fleet and site credit tracking for wormhole operations.
// @host localhost:8080
// @BasePath /
func main() {
	configPath := flag.String("config", "", "path to a config file (defaults to ./config.yaml when present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	if err := logging.Init(cfg.AppEnv, cfg.LogLevel); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("SiteTracker starting up",
		"environment", cfg.AppEnv,
		"db_driver", cfg.DB.Driver,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	if cfg.JWT.Secret == "" {
		if cfg.IsProduction() {
			logging.Fatal("JWT_SECRET must be set in production")
		}
		cfg.JWT.Secret = uuid.NewString()
		logging.Warn("JWT_SECRET not set, using a random secret; issued tokens will not survive a restart")
	}

	var sqlDB *sqlx.DB
	if cfg.DB.Driver == "postgres" {
		// Connect to DB with sqlx and bring the schema up to date
		if err := db.InitPostgres(cfg.PG.DSN()); err != nil {
			logging.Fatal("Failed to connect to Postgres (sqlx)", "error", err)
		}
		sqlDB = db.DB
		logging.Info("Connected to Postgres (sqlx)")

		if err := db.RunMigrations(sqlDB.DB); err != nil {
			logging.Fatal("Failed to run migrations", "error", err)
		}
	}

	gdb, err := db.InitORM(cfg)
	if err != nil {
		logging.Fatal("Failed to open database (GORM)", "error", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = common.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
	}

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)

	deps, err := api.InitDependencies(cfg, gdb, sqlDB, redisClient, metricsReg)
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers.InitWorkers(ctx, deps.Repo.Store, metricsReg, cfg.Gauge.Interval)

	upSince := time.Now()
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.RegisterRoutes(cfg, deps, upSince),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Server starting", "addr", cfg.HTTPAddr, "environment", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
}
