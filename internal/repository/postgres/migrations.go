package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			-- Create collections table
			CREATE TABLE IF NOT EXISTS collections (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id VARCHAR(64) NOT NULL,
				name VARCHAR(255) NOT NULL,
				cover_url TEXT,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_collections_user
			ON collections(user_id);

			-- Create links table
			CREATE TABLE IF NOT EXISTS links (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id VARCHAR(64) NOT NULL,
				collection_id UUID NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
				url TEXT NOT NULL,
				platform VARCHAR(50) NOT NULL,

				-- Preview fields, filled by the extraction worker
				title VARCHAR(500),
				description TEXT,
				image_url TEXT,
				preview_source VARCHAR(50),

				extraction_status VARCHAR(20) DEFAULT 'pending',

				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),

				-- Constraints
				UNIQUE(collection_id, url),
				CHECK (platform IN ('youtube', 'instagram', 'facebook', 'tiktok', 'twitter', 'generic')),
				CHECK (extraction_status IN ('pending', 'processing', 'complete', 'failed'))
			);

			-- Create indexes
			CREATE INDEX IF NOT EXISTS idx_links_collection_created
			ON links(collection_id, created_at DESC);

			CREATE INDEX IF NOT EXISTS idx_links_platform
			ON links(platform);

			CREATE INDEX IF NOT EXISTS idx_links_status
			ON links(extraction_status);
		`,
	},
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	// Create migrations table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	logger.Info("Current migration version", "version", currentVersion)

	// Apply pending migrations
	applied := 0
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		logger.Info("Applying migration",
			"version", migration.Version,
			"name", migration.Name,
		)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES ($1, $2)",
			migration.Version, migration.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		applied++
		logger.Info("Migration applied successfully", "version", migration.Version)
	}

	if applied == 0 {
		logger.Info("No migrations to apply - database is up to date")
	} else {
		logger.Info("Database migrations completed", "applied", applied)
	}

	return nil
}

// GetMigrationStatus returns the current migration status
func GetMigrationStatus(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get migration status: %w", err)
	}
	return version, nil
}

// ResetDatabase drops all tables (for testing)
func ResetDatabase(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.Warn("Resetting database - all data will be lost")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Drop tables in reverse dependency order
	dropSQL := []string{
		"DROP TABLE IF EXISTS links CASCADE",
		"DROP TABLE IF EXISTS collections CASCADE",
		"DROP TABLE IF EXISTS migrations CASCADE",
	}

	for _, sql := range dropSQL {
		if _, err := tx.ExecContext(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute drop statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset transaction: %w", err)
	}

	logger.Info("Database reset completed")
	return nil
}
