package http

import (
	"log/slog"
	"net/http"
	"time"

	"linkstash/internal/domain"
	"linkstash/internal/http/handlers"
	"linkstash/internal/http/middleware"
	"linkstash/internal/preview"
)

type Router struct {
	mux                *http.ServeMux
	adminAuth          *middleware.AdminAuth
	healthHandler      *handlers.HealthHandler
	statsHandler       *handlers.StatsHandler
	previewHandler     *handlers.PreviewHandler
	linksHandler       *handlers.LinksHandler
	collectionsHandler *handlers.CollectionsHandler
}

func NewRouter(
	logger *slog.Logger,
	resolver handlers.PreviewResolver,
	cache domain.PreviewCache,
	cacheTTL time.Duration,
	previewOpts preview.Options,
	linkRepo domain.LinkRepository,
	collectionRepo domain.CollectionRepository,
	queue domain.QueueRepository,
	stats handlers.QueueStatsProvider,
	pings map[string]handlers.DependencyPing,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		adminAuth:          middleware.NewAdminAuth(logger),
		healthHandler:      handlers.NewHealthHandler(logger, pings),
		statsHandler:       handlers.NewStatsHandler(logger, stats),
		previewHandler:     handlers.NewPreviewHandler(logger, resolver, cache, cacheTTL, previewOpts),
		linksHandler:       handlers.NewLinksHandler(logger, linkRepo, queue),
		collectionsHandler: handlers.NewCollectionsHandler(logger, collectionRepo),
	}
}

func (r *Router) SetupRoutes() http.Handler {
	// Health check
	r.mux.HandleFunc("GET /health", r.healthHandler.HandleHealth)

	// API v1 routes - Preview resolution
	r.mux.HandleFunc("POST /api/v1/preview", r.previewHandler.HandleResolve)

	// API v1 routes - Collections
	r.mux.HandleFunc("GET /api/v1/collections", r.collectionsHandler.GetCollections)
	r.mux.HandleFunc("POST /api/v1/collections", r.collectionsHandler.CreateCollection)
	r.mux.HandleFunc("GET /api/v1/collections/{id}", r.collectionsHandler.GetCollectionByID)
	r.mux.HandleFunc("PUT /api/v1/collections/{id}", r.collectionsHandler.UpdateCollection)
	r.mux.HandleFunc("DELETE /api/v1/collections/{id}", r.collectionsHandler.DeleteCollection)

	// API v1 routes - Links
	r.mux.HandleFunc("POST /api/v1/links", r.linksHandler.CreateLink)
	r.mux.HandleFunc("GET /api/v1/collections/{collectionId}/links", r.linksHandler.GetLinksByCollection)
	r.mux.HandleFunc("DELETE /api/v1/links/{id}", r.linksHandler.DeleteLink)
	r.mux.HandleFunc("POST /api/v1/links/{id}/refresh", r.linksHandler.RefreshLink)

	// API v1 routes - Stats (admin only)
	r.mux.Handle("GET /api/v1/stats", r.adminAuth.Middleware(http.HandlerFunc(r.statsHandler.HandleStats)))

	// Add CORS middleware
	return middleware.CORS(r.mux)
}
