package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LinkRepository defines the interface for saved-link data operations
type LinkRepository interface {
	// GetByID retrieves a link by its UUID
	GetByID(ctx context.Context, id uuid.UUID) (*Link, error)

	// GetByCollection retrieves links in a collection, newest first, with pagination
	GetByCollection(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]*Link, int, error)

	// GetByURL finds a link by normalized URL within a collection (duplicate detection)
	GetByURL(ctx context.Context, collectionID uuid.UUID, url string) (*Link, error)

	// Create inserts a new link
	Create(ctx context.Context, link *Link) error

	// Update modifies an existing link
	Update(ctx context.Context, link *Link) error

	// Delete removes a link by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateExtractionStatus updates the preview extraction status
	UpdateExtractionStatus(ctx context.Context, id uuid.UUID, status string) error
}

// CollectionRepository defines the interface for collection data operations
type CollectionRepository interface {
	// GetByID retrieves a collection by its UUID
	GetByID(ctx context.Context, id uuid.UUID) (*Collection, error)

	// ListByUser retrieves a user's collections with link counts
	ListByUser(ctx context.Context, userID string) ([]*Collection, error)

	// Create inserts a new collection
	Create(ctx context.Context, collection *Collection) error

	// Update modifies an existing collection
	Update(ctx context.Context, collection *Collection) error

	// Delete removes a collection and its links
	Delete(ctx context.Context, id uuid.UUID) error
}

// PreviewCache is the opaque key-value store for resolved previews,
// keyed by normalized URL
type PreviewCache interface {
	// Get returns the cached preview for a normalized URL, or nil on miss
	Get(ctx context.Context, normalizedURL string) (*PreviewResult, error)

	// Set stores a preview with the given TTL
	Set(ctx context.Context, normalizedURL string, preview *PreviewResult, ttl time.Duration) error
}

// QueueRepository defines the interface for job queue operations
type QueueRepository interface {
	// Enqueue adds a new job to the queue
	Enqueue(ctx context.Context, jobType string, payload interface{}) error

	// Dequeue retrieves the next job from the queue
	Dequeue(ctx context.Context, jobType string) (*QueueJob, error)

	// Complete marks a job as completed
	Complete(ctx context.Context, jobID string) error

	// Fail marks a job as failed with error details
	Fail(ctx context.Context, jobID string, errorMsg string) error

	// GetPendingCount returns the number of pending jobs
	GetPendingCount(ctx context.Context, jobType string) (int, error)
}

// QueueJob represents a job in the processing queue
type QueueJob struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Status    string                 `json:"status"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt *string                `json:"updated_at"`
}

// Job types
const (
	JobTypeExtractPreview = "extract_preview"
	JobTypeRefreshPreview = "refresh_preview"
)

// Job statuses
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
