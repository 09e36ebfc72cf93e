package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"linkstash/internal/domain"
	"linkstash/internal/pkg/urlnorm"
)

const (
	DefaultPaginationLimit = 25
	MaxPaginationLimit     = 100
)

type LinksHandler struct {
	logger   *slog.Logger
	linkRepo domain.LinkRepository
	queue    domain.QueueRepository
}

// CreateLinkRequest is the save-link request body
type CreateLinkRequest struct {
	UserID       string `json:"user_id"`
	CollectionID string `json:"collection_id"`
	URL          string `json:"url"`
}

// LinksResponse is the paginated response for collection links
type LinksResponse struct {
	Links      []*domain.Link `json:"links"`
	Pagination struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
		Total  int `json:"total"`
	} `json:"pagination"`
}

func NewLinksHandler(logger *slog.Logger, linkRepo domain.LinkRepository, queue domain.QueueRepository) *LinksHandler {
	return &LinksHandler{
		logger:   logger,
		linkRepo: linkRepo,
		queue:    queue,
	}
}

// CreateLink saves a new link and enqueues preview extraction
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.CollectionID == "" || req.URL == "" {
		http.Error(w, "user_id, collection_id and url are required", http.StatusBadRequest)
		return
	}

	collectionID, err := uuid.Parse(req.CollectionID)
	if err != nil {
		http.Error(w, "Invalid collection_id", http.StatusBadRequest)
		return
	}

	cleanURL, ok := urlnorm.ExtractCleanURL(req.URL)
	if !ok {
		http.Error(w, "No valid URL found in input", http.StatusBadRequest)
		return
	}
	normalizedURL, err := urlnorm.Normalize(cleanURL)
	if err != nil {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}

	// Duplicate detection within the collection
	if existing, err := h.linkRepo.GetByURL(ctx, collectionID, normalizedURL); err == nil && existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "Link already saved in this collection",
			"link":  existing,
		})
		return
	} else if err != nil && err != sql.ErrNoRows {
		h.logger.Error("Duplicate check failed", "error", err, "url", normalizedURL)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	link := &domain.Link{
		ID:               uuid.New(),
		UserID:           req.UserID,
		CollectionID:     collectionID,
		URL:              normalizedURL,
		Platform:         domain.DetectPlatformFromHost(urlnorm.Hostname(normalizedURL)),
		ExtractionStatus: domain.ExtractionStatusPending,
		CreatedAt:        time.Now(),
	}

	if err := h.linkRepo.Create(ctx, link); err != nil {
		h.logger.Error("Failed to create link", "error", err, "url", normalizedURL)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Preview extraction happens in the worker; a queue failure leaves the
	// link pending for a later refresh
	if err := h.queue.Enqueue(ctx, domain.JobTypeExtractPreview, map[string]interface{}{
		"link_id": link.ID.String(),
		"url":     link.URL,
	}); err != nil {
		h.logger.Error("Failed to enqueue preview extraction",
			"error", err,
			"link_id", link.ID,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(link); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// GetLinksByCollection returns a collection's links, newest first
func (h *LinksHandler) GetLinksByCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	collectionID, err := uuid.Parse(r.PathValue("collectionId"))
	if err != nil {
		http.Error(w, "Invalid collection ID", http.StatusBadRequest)
		return
	}

	offset := 0
	limit := DefaultPaginationLimit

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= MaxPaginationLimit {
			limit = parsed
		}
	}

	links, total, err := h.linkRepo.GetByCollection(ctx, collectionID, offset, limit)
	if err != nil {
		h.logger.Error("Failed to retrieve links",
			"error", err,
			"collection_id", collectionID,
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := &LinksResponse{Links: links}
	if response.Links == nil {
		response.Links = []*domain.Link{}
	}
	response.Pagination.Offset = offset
	response.Pagination.Limit = limit
	response.Pagination.Total = total

	h.writeJSON(w, response)
}

// DeleteLink removes a saved link
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid link ID", http.StatusBadRequest)
		return
	}

	if err := h.linkRepo.Delete(ctx, id); err != nil {
		h.logger.Error("Failed to delete link", "error", err, "link_id", id)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RefreshLink re-enqueues preview extraction for an existing link
func (h *LinksHandler) RefreshLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid link ID", http.StatusBadRequest)
		return
	}

	link, err := h.linkRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Link not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to retrieve link", "error", err, "link_id", id)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.linkRepo.UpdateExtractionStatus(ctx, id, domain.ExtractionStatusPending); err != nil {
		h.logger.Error("Failed to reset extraction status", "error", err, "link_id", id)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.queue.Enqueue(ctx, domain.JobTypeRefreshPreview, map[string]interface{}{
		"link_id": link.ID.String(),
		"url":     link.URL,
	}); err != nil {
		h.logger.Error("Failed to enqueue preview refresh",
			"error", err,
			"link_id", id,
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"status":"queued"}`))
}

func (h *LinksHandler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
