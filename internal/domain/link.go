package domain

import (
	"time"

	"github.com/google/uuid"
)

// Link represents a social-media link a user saved into a collection
type Link struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	CollectionID uuid.UUID `json:"collection_id" db:"collection_id"`
	URL          string    `json:"url" db:"url"`
	Platform     string    `json:"platform" db:"platform"`

	// Preview fields, filled once extraction completes
	Title         *string `json:"title" db:"title"`
	Description   *string `json:"description" db:"description"`
	ImageURL      *string `json:"image_url" db:"image_url"`
	PreviewSource *string `json:"preview_source" db:"preview_source"`

	ExtractionStatus string `json:"extraction_status" db:"extraction_status"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// Collection is a user-defined group of saved links
type Collection struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Name      string     `json:"name" db:"name"`
	CoverURL  *string    `json:"cover_url" db:"cover_url"`
	LinkCount int        `json:"link_count" db:"link_count"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// Extraction status constants
const (
	ExtractionStatusPending    = "pending"
	ExtractionStatusProcessing = "processing"
	ExtractionStatusComplete   = "complete"
	ExtractionStatusFailed     = "failed"
)

// ApplyPreview copies a resolved preview onto the link row.
func (l *Link) ApplyPreview(preview *PreviewResult) {
	if preview == nil {
		return
	}
	if preview.Title != "" {
		title := preview.Title
		l.Title = &title
	}
	if preview.Description != "" {
		description := preview.Description
		l.Description = &description
	}
	if preview.Image != nil {
		image := *preview.Image
		l.ImageURL = &image
	}
	source := preview.Source
	l.PreviewSource = &source
}
