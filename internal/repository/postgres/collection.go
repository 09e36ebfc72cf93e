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

// CollectionRepository implements the domain.CollectionRepository interface
// using PostgreSQL
type CollectionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCollectionRepository creates a new PostgreSQL collection repository
func NewCollectionRepository(db *sql.DB, logger *slog.Logger) *CollectionRepository {
	return &CollectionRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a collection by its UUID
func (r *CollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.cover_url,
		       COUNT(l.id) AS link_count,
		       c.created_at, c.updated_at
		FROM collections c
		LEFT JOIN links l ON l.collection_id = c.id
		WHERE c.id = $1
		GROUP BY c.id`

	collection := &domain.Collection{}
	var coverURL sql.NullString
	var updatedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&collection.ID,
		&collection.UserID,
		&collection.Name,
		&coverURL,
		&collection.LinkCount,
		&collection.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("Collection not found", "collection_id", id)
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to query collection",
			"error", err,
			"collection_id", id,
		)
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	if coverURL.Valid {
		collection.CoverURL = &coverURL.String
	}
	if updatedAt.Valid {
		collection.UpdatedAt = &updatedAt.Time
	}

	return collection, nil
}

// ListByUser retrieves a user's collections with link counts
func (r *CollectionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Collection, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.cover_url,
		       COUNT(l.id) AS link_count,
		       c.created_at, c.updated_at
		FROM collections c
		LEFT JOIN links l ON l.collection_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query user collections",
			"error", err,
			"user_id", userID,
		)
		return nil, fmt.Errorf("failed to query user collections: %w", err)
	}
	defer rows.Close()

	var collections []*domain.Collection
	for rows.Next() {
		collection := &domain.Collection{}
		var coverURL sql.NullString
		var updatedAt sql.NullTime

		err := rows.Scan(
			&collection.ID,
			&collection.UserID,
			&collection.Name,
			&coverURL,
			&collection.LinkCount,
			&collection.CreatedAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection row: %w", err)
		}

		if coverURL.Valid {
			collection.CoverURL = &coverURL.String
		}
		if updatedAt.Valid {
			collection.UpdatedAt = &updatedAt.Time
		}

		collections = append(collections, collection)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection rows: %w", err)
	}

	r.logger.Debug("User collections fetched",
		"user_id", userID,
		"count", len(collections),
	)

	return collections, nil
}

// Create inserts a new collection
func (r *CollectionRepository) Create(ctx context.Context, collection *domain.Collection) error {
	query := `
		INSERT INTO collections (id, user_id, name, cover_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updatedAt := collection.CreatedAt
	if collection.UpdatedAt != nil {
		updatedAt = *collection.UpdatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		collection.ID,
		collection.UserID,
		collection.Name,
		collection.CoverURL,
		collection.CreatedAt,
		updatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create collection",
			"error", err,
			"collection_id", collection.ID,
			"name", collection.Name,
		)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	r.logger.Info("Collection created successfully",
		"collection_id", collection.ID,
		"name", collection.Name,
		"user_id", collection.UserID,
	)

	return nil
}

// Update modifies an existing collection
func (r *CollectionRepository) Update(ctx context.Context, collection *domain.Collection) error {
	query := `
		UPDATE collections SET
			name = $2,
			cover_url = $3,
			updated_at = $4
		WHERE id = $1`

	now := time.Now()
	collection.UpdatedAt = &now

	_, err := r.db.ExecContext(ctx, query,
		collection.ID,
		collection.Name,
		collection.CoverURL,
		collection.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update collection",
			"error", err,
			"collection_id", collection.ID,
		)
		return fmt.Errorf("failed to update collection: %w", err)
	}

	r.logger.Info("Collection updated successfully",
		"collection_id", collection.ID,
		"name", collection.Name,
	)

	return nil
}

// Delete removes a collection and its links
func (r *CollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM collections WHERE id = $1", id)
	if err != nil {
		r.logger.Error("Failed to delete collection",
			"error", err,
			"collection_id", id,
		)
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("No collection found for delete", "collection_id", id)
		return fmt.Errorf("collection not found: %s", id)
	}

	r.logger.Info("Collection deleted", "collection_id", id)
	return nil
}
