// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-release-stats/internal/api"
	"github-release-stats/internal/config"
	"github-release-stats/internal/github"
	"github-release-stats/internal/stats"
	"github-release-stats/internal/store"
	"github-release-stats/internal/syncer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "time_basis", string(cfg.TimeBasis), "workday_only", cfg.WorkdayOnly)

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Pick the table of record: Postgres when DB_URL is set, the CSV
	// file otherwise.
	var releaseStore store.Store
	if cfg.DBURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbpool.Close()
		logger.Info("Database connection established")

		if err := runMigrations(cfg.DBURL); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("Database migrations applied successfully")

		releaseStore = store.NewPGStore(dbpool)
	} else {
		releaseStore = store.NewCSVStore(cfg.OutputPath)
		logger.Info("Using CSV release table", "path", cfg.OutputPath)
	}

	// 5. Initialize application components
	ghClient := github.NewClient(cfg.GithubToken, logger)
	agg := stats.New(cfg.TimeBasis, cfg.WorkdayOnly)
	appSyncer, err := syncer.NewSyncer(releaseStore, ghClient, logger, cfg.Repos, cfg.TimeBasis, agg, cfg.FetchTimeout, cfg.StatsOutputPath)
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	// 6. Run one ingestion batch before serving stats
	if err := appSyncer.Run(ctx); err != nil {
		return fmt.Errorf("ingestion batch failed: %w", err)
	}

	// 7. Serve the stats API until shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewRouter(releaseStore, agg, logger),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Stats API listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("stats server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Exiting.")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
