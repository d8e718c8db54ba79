package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdedejiAdetola/swans-backend/internal/cache"
	"github.com/AdedejiAdetola/swans-backend/internal/config"
	"github.com/AdedejiAdetola/swans-backend/internal/database"
	"github.com/AdedejiAdetola/swans-backend/internal/logging"
	"github.com/AdedejiAdetola/swans-backend/internal/monitoring"
	"github.com/AdedejiAdetola/swans-backend/internal/server"
	"github.com/AdedejiAdetola/swans-backend/migrations"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(&cfg.Logging, cfg.Server.Env)

	log.Info().
		Str("env", cfg.Server.Env).
		Msg("Starting Swans API server")

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.URL, migrations.FS, "."); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	db, err := database.New(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Redis backs rate limiting and event fan-out; the API stays up
	// without it, so a connection failure is not fatal
	redis, err := cache.New(cfg.Redis.URL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without rate limiting and event fan-out")
		redis = nil
	} else {
		defer redis.Close()
	}

	monitoring.Init()

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg.Monitoring.PrometheusPort)
		go samplePoolStats(db)
	}

	srv := server.NewAPIServer(cfg, db.Pool, redis)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Msg("API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().
		Str("signal", sig.String()).
		Msg("Shutdown signal received, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

func samplePoolStats(db *database.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		stat := db.Pool.Stat()
		monitoring.SetDBConnections(int(stat.AcquiredConns()), int(stat.IdleConns()))
	}
}

func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())

	metricsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info().
		Int("port", port).
		Msg("Prometheus metrics server listening")

	if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics server error")
	}
}
