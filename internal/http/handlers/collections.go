package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"linkstash/internal/domain"
)

type CollectionsHandler struct {
	logger         *slog.Logger
	collectionRepo domain.CollectionRepository
}

// CollectionRequest is the create/update collection body
type CollectionRequest struct {
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	CoverURL *string `json:"cover_url,omitempty"`
}

func NewCollectionsHandler(logger *slog.Logger, collectionRepo domain.CollectionRepository) *CollectionsHandler {
	return &CollectionsHandler{
		logger:         logger,
		collectionRepo: collectionRepo,
	}
}

// GetCollections lists a user's collections
func (h *CollectionsHandler) GetCollections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	collections, err := h.collectionRepo.ListByUser(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to retrieve collections", "error", err, "user_id", userID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if collections == nil {
		collections = []*domain.Collection{}
	}

	h.writeJSON(w, map[string]interface{}{"collections": collections})
}

// GetCollectionByID retrieves one collection
func (h *CollectionsHandler) GetCollectionByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid collection ID", http.StatusBadRequest)
		return
	}

	collection, err := h.collectionRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Collection not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to retrieve collection", "error", err, "collection_id", id)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, collection)
}

// CreateCollection creates a new collection
func (h *CollectionsHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Name == "" {
		http.Error(w, "user_id and name are required", http.StatusBadRequest)
		return
	}

	collection := &domain.Collection{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Name:      req.Name,
		CoverURL:  req.CoverURL,
		CreatedAt: time.Now(),
	}

	if err := h.collectionRepo.Create(ctx, collection); err != nil {
		h.logger.Error("Failed to create collection", "error", err, "name", req.Name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(collection); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// UpdateCollection renames a collection or changes its cover
func (h *CollectionsHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid collection ID", http.StatusBadRequest)
		return
	}

	var req CollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	collection, err := h.collectionRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Collection not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to retrieve collection", "error", err, "collection_id", id)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if req.Name != "" {
		collection.Name = req.Name
	}
	if req.CoverURL != nil {
		collection.CoverURL = req.CoverURL
	}

	if err := h.collectionRepo.Update(ctx, collection); err != nil {
		h.logger.Error("Failed to update collection", "error", err, "collection_id", id)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, collection)
}

// DeleteCollection removes a collection and its links
func (h *CollectionsHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid collection ID", http.StatusBadRequest)
		return
	}

	if err := h.collectionRepo.Delete(ctx, id); err != nil {
		h.logger.Error("Failed to delete collection", "error", err, "collection_id", id)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CollectionsHandler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
