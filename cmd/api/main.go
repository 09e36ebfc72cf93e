package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"linkstash/internal/config"
	"linkstash/internal/http/handlers"
	"linkstash/internal/pkg/logger"
	"linkstash/internal/pkg/ratelimit"
	"linkstash/internal/preview"
	"linkstash/internal/repository/postgres"
	"linkstash/internal/repository/redis"
	"linkstash/internal/service/api"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate API-specific configuration
	if err := cfg.ValidateForAPI(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting API service...")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		log.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	// Run database migrations
	if err := postgres.RunMigrations(db, log); err != nil {
		log.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Create repositories
	linkRepo := postgres.NewLinkRepository(db, log)
	collectionRepo := postgres.NewCollectionRepository(db, log)
	queueRepo := redis.NewQueueRepository(redisClient, log)
	previewCache := redis.NewPreviewCache(redisClient, log)

	// Create the preview resolver with its rate limiter
	limiter := ratelimit.New(log)
	limiter.Start()
	defer limiter.Stop()

	resolver := preview.NewResolver(log, limiter)

	// Health endpoint reports backing-store reachability
	pings := map[string]handlers.DependencyPing{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redis.HealthCheck(ctx, redisClient)
		},
	}

	// Create API service
	apiService, err := api.New(cfg, log, resolver, previewCache, linkRepo, collectionRepo, queueRepo, queueRepo, pings)
	if err != nil {
		log.Error("Failed to create API service", "error", err)
		os.Exit(1)
	}

	// Create a channel to track shutdown completion
	done := make(chan struct{})

	// Start API service in a goroutine
	go func() {
		defer close(done)
		if err := apiService.Start(); err != nil {
			log.Error("API service failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for either shutdown signal or service completion
	select {
	case <-quit:
		log.Info("Shutdown signal received, stopping API service...")
	case <-done:
		log.Info("API service completed")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop API service
	if err := apiService.Stop(ctx); err != nil {
		log.Error("Error stopping API service", "error", err)
	}

	log.Info("API service shutdown complete")
}
