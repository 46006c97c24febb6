// Package main is the entry point for the riskboard bank risk dashboard service.
//
// Startup order:
// - configuration and logging
// - persistent price cache (optional)
// - market data provider, sessions and the risk engine
// - background jobs (cache cleanup, idle session sweep)
// - HTTP server
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/riskboard/internal/archive"
	"github.com/aristath/riskboard/internal/clientdata"
	"github.com/aristath/riskboard/internal/clients/yahoo"
	"github.com/aristath/riskboard/internal/config"
	"github.com/aristath/riskboard/internal/dashboard"
	"github.com/aristath/riskboard/internal/database"
	"github.com/aristath/riskboard/internal/marketdata"
	"github.com/aristath/riskboard/internal/risk"
	"github.com/aristath/riskboard/internal/scheduler"
	"github.com/aristath/riskboard/internal/server"
	"github.com/aristath/riskboard/internal/signals"
	"github.com/aristath/riskboard/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting riskboard")

	// Upstream market data, optionally behind the persistent cache
	var provider marketdata.Provider = yahoo.NewClient(yahoo.Config{
		BaseURL:    cfg.Yahoo.BaseURL,
		Timeout:    cfg.Yahoo.Timeout,
		MaxRetries: cfg.Yahoo.MaxRetries,
	}, log)

	var (
		cacheDB   *database.DB
		cacheRepo *clientdata.Repository
	)
	if cfg.Cache.Enabled {
		cacheDB, err = database.New(database.Config{
			Path:    cfg.DatabasePath(),
			Profile: database.ProfileCache,
			Name:    "riskboard",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open cache database")
		}
		defer cacheDB.Close()

		if err := cacheDB.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate cache database")
		}

		cacheRepo = clientdata.NewRepository(cacheDB.Conn())
		provider = marketdata.NewCachingProvider(provider, cacheRepo, cfg.Cache.TTL, log)
		log.Info().Str("path", cacheDB.Path()).Dur("ttl", cfg.Cache.TTL).Msg("Persistent price cache enabled")
	}

	sessions := dashboard.NewSessionManager(provider, cfg.DefaultSelection(), cfg.SessionIdleTimeout, log)

	engine := &risk.Engine{
		PeriodsPerYear: cfg.Risk.PeriodsPerYear,
		RollingWindow:  cfg.Risk.RollingWindow,
		Confidences:    cfg.Risk.Confidences,
	}
	if err := engine.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid risk engine settings")
	}

	svc := dashboard.NewService(engine, signals.NewMockProvider(cfg.SignalsSeed), log)

	publisher, err := archive.New(context.Background(), cfg.Archive.ToArchiveConfig(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot archive")
	}
	if publisher.Enabled() {
		log.Info().Str("bucket", cfg.Archive.Bucket).Msg("Snapshot archive enabled")
	}

	// Background jobs
	sched := scheduler.New(log)
	if cacheRepo != nil {
		if err := sched.AddJob(scheduler.SchedulePriceCacheCleanup, clientdata.NewCleanupJob(cacheRepo, cacheDB, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
		}
	}
	if err := sched.AddJob(scheduler.ScheduleSessionSweep, dashboard.NewSweepJob(sessions, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register session sweep job")
	}
	sched.Start()

	srvCfg := server.Config{
		Log:            log,
		Sessions:       sessions,
		Dashboard:      svc,
		Archive:        publisher,
		Jobs:           sched,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		RequestTimeout: cfg.RequestTimeout,
	}
	// A nil pointer would be a non-nil interface
	if cacheRepo != nil {
		srvCfg.Cache = cacheRepo
		srvCfg.CacheDB = cacheDB
	}
	srv := server.New(srvCfg)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	// Give in-flight requests up to 10 seconds
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
