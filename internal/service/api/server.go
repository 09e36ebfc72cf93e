package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"linkstash/internal/config"
	"linkstash/internal/domain"
	linkhttp "linkstash/internal/http"
	"linkstash/internal/http/handlers"
	"linkstash/internal/preview"
)

// APIService handles HTTP API requests
type APIService struct {
	config *config.Config
	logger *slog.Logger
	server *http.Server
}

// New creates a new API service
func New(
	cfg *config.Config,
	logger *slog.Logger,
	resolver handlers.PreviewResolver,
	cache domain.PreviewCache,
	linkRepo domain.LinkRepository,
	collectionRepo domain.CollectionRepository,
	queue domain.QueueRepository,
	stats handlers.QueueStatsProvider,
	pings map[string]handlers.DependencyPing,
) (*APIService, error) {
	router := linkhttp.NewRouter(
		logger,
		resolver,
		cache,
		cfg.PreviewCacheTTL,
		preview.Options{
			PreviewServerURL: cfg.PreviewServerURL,
			InstagramToken:   cfg.InstagramToken,
		},
		linkRepo,
		collectionRepo,
		queue,
		stats,
		pings,
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.SetupRoutes(),
		// Preview resolution can legitimately take up to the Instagram
		// budget, so the write timeout sits above it
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &APIService{
		config: cfg,
		logger: logger,
		server: server,
	}, nil
}

// Start begins serving the API
func (s *APIService) Start() error {
	s.logger.Info("Starting API server", "port", s.config.Port)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the API server
func (s *APIService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}
