package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/versionarr/versionarr/internal/api"
	"github.com/versionarr/versionarr/internal/config"
	"github.com/versionarr/versionarr/internal/database"
	"github.com/versionarr/versionarr/internal/logger"
	"github.com/versionarr/versionarr/internal/quality"
	"github.com/versionarr/versionarr/internal/scheduler"
	"github.com/versionarr/versionarr/internal/scheduler/tasks"
)

func main() {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer log.Close()

	log.Info().
		Str("logLevel", cfg.Logging.Level).
		Str("database", cfg.Database.Path).
		Msg("Versionarr starting")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if cfg.Matching.AttributeCatalogPath != "" {
		if err := quality.LoadCatalogExtensions(cfg.Matching.AttributeCatalogPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.Matching.AttributeCatalogPath).
				Msg("Failed to load attribute catalog extensions")
		}
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	server := api.NewServer(db.Conn(), cfg, sched, log.Logger)

	ctx := context.Background()
	if err := server.EnsureDefaults(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create default quality profiles")
	}

	scanInterval, err := time.ParseDuration(cfg.Scheduler.UpgradeScanInterval)
	if err != nil || scanInterval <= 0 {
		log.Warn().Str("interval", cfg.Scheduler.UpgradeScanInterval).
			Msg("Invalid upgrade scan interval, using 12h")
		scanInterval = 12 * time.Hour
	}
	if err := sched.RegisterTask(tasks.NewUpgradeScanTask(server.SlotService(), log.Logger, scanInterval)); err != nil {
		log.Warn().Err(err).Msg("Failed to register upgrade scan task")
	}
	if err := sched.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start scheduler")
	}

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		log.Warn().Err(err).Msg("Scheduler shutdown failed")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Versionarr stopped")
}
