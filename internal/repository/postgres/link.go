package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"linkstash/internal/domain"
)

// LinkRepository implements the domain.LinkRepository interface using PostgreSQL
type LinkRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLinkRepository creates a new PostgreSQL link repository
func NewLinkRepository(db *sql.DB, logger *slog.Logger) *LinkRepository {
	return &LinkRepository{
		db:     db,
		logger: logger,
	}
}

const linkColumns = `id, user_id, collection_id, url, platform,
	       title, description, image_url, preview_source,
	       extraction_status, created_at, updated_at`

// scanLink scans one row into a Link, handling the nullable preview columns.
func scanLink(row interface{ Scan(...interface{}) error }) (*domain.Link, error) {
	link := &domain.Link{}
	var title, description, imageURL, previewSource sql.NullString
	var updatedAt sql.NullTime

	err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.CollectionID,
		&link.URL,
		&link.Platform,
		&title,
		&description,
		&imageURL,
		&previewSource,
		&link.ExtractionStatus,
		&link.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if title.Valid {
		link.Title = &title.String
	}
	if description.Valid {
		link.Description = &description.String
	}
	if imageURL.Valid {
		link.ImageURL = &imageURL.String
	}
	if previewSource.Valid {
		link.PreviewSource = &previewSource.String
	}
	if updatedAt.Valid {
		link.UpdatedAt = &updatedAt.Time
	}

	return link, nil
}

// GetByID retrieves a link by its UUID
func (r *LinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE id = $1`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("Link not found", "link_id", id)
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to query link",
			"error", err,
			"link_id", id,
		)
		return nil, fmt.Errorf("failed to query link: %w", err)
	}

	return link, nil
}

// GetByCollection retrieves links in a collection, newest first, with pagination
func (r *LinkRepository) GetByCollection(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]*domain.Link, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM links WHERE collection_id = $1", collectionID,
	).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to count links",
			"error", err,
			"collection_id", collectionID,
		)
		return nil, 0, fmt.Errorf("failed to count links: %w", err)
	}

	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE collection_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, collectionID, offset, limit)
	if err != nil {
		r.logger.Error("Failed to query collection links",
			"error", err,
			"collection_id", collectionID,
		)
		return nil, 0, fmt.Errorf("failed to query collection links: %w", err)
	}
	defer rows.Close()

	var links []*domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan link row: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate link rows: %w", err)
	}

	r.logger.Debug("Collection links fetched",
		"collection_id", collectionID,
		"count", len(links),
		"total", total,
	)

	return links, total, nil
}

// GetByURL finds a link by normalized URL within a collection (duplicate detection)
func (r *LinkRepository) GetByURL(ctx context.Context, collectionID uuid.UUID, url string) (*domain.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE collection_id = $1 AND url = $2
		ORDER BY created_at DESC
		LIMIT 1`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, collectionID, url))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("No duplicate link found",
				"collection_id", collectionID,
				"url", url,
			)
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to query link by URL",
			"error", err,
			"collection_id", collectionID,
			"url", url,
		)
		return nil, fmt.Errorf("failed to query link by URL: %w", err)
	}

	return link, nil
}

// Create inserts a new link
func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `
		INSERT INTO links (
			id, user_id, collection_id, url, platform,
			title, description, image_url, preview_source,
			extraction_status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	updatedAt := link.CreatedAt
	if link.UpdatedAt != nil {
		updatedAt = *link.UpdatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.UserID,
		link.CollectionID,
		link.URL,
		link.Platform,
		link.Title,
		link.Description,
		link.ImageURL,
		link.PreviewSource,
		link.ExtractionStatus,
		link.CreatedAt,
		updatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create link",
			"error", err,
			"link_id", link.ID,
			"url", link.URL,
		)
		return fmt.Errorf("failed to create link: %w", err)
	}

	r.logger.Info("Link created successfully",
		"link_id", link.ID,
		"url", link.URL,
		"platform", link.Platform,
		"collection_id", link.CollectionID,
	)

	return nil
}

// Update modifies an existing link
func (r *LinkRepository) Update(ctx context.Context, link *domain.Link) error {
	query := `
		UPDATE links SET
			collection_id = $2,
			url = $3,
			platform = $4,
			title = $5,
			description = $6,
			image_url = $7,
			preview_source = $8,
			extraction_status = $9,
			updated_at = $10
		WHERE id = $1`

	now := time.Now()
	link.UpdatedAt = &now

	_, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.CollectionID,
		link.URL,
		link.Platform,
		link.Title,
		link.Description,
		link.ImageURL,
		link.PreviewSource,
		link.ExtractionStatus,
		link.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update link",
			"error", err,
			"link_id", link.ID,
		)
		return fmt.Errorf("failed to update link: %w", err)
	}

	r.logger.Info("Link updated successfully",
		"link_id", link.ID,
		"url", link.URL,
		"status", link.ExtractionStatus,
	)

	return nil
}

// Delete removes a link by ID
func (r *LinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM links WHERE id = $1", id)
	if err != nil {
		r.logger.Error("Failed to delete link",
			"error", err,
			"link_id", id,
		)
		return fmt.Errorf("failed to delete link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("No link found for delete", "link_id", id)
		return fmt.Errorf("link not found: %s", id)
	}

	r.logger.Info("Link deleted", "link_id", id)
	return nil
}

// UpdateExtractionStatus updates the preview extraction status
func (r *LinkRepository) UpdateExtractionStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE links
		SET extraction_status = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update extraction status",
			"error", err,
			"link_id", id,
			"status", status,
		)
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("No link found for status update", "link_id", id)
		return fmt.Errorf("link not found: %s", id)
	}

	r.logger.Info("Extraction status updated",
		"link_id", id,
		"status", status,
	)

	return nil
}
