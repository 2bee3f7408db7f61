// Package sqlite provides a SQLite-backed implementation of the
// recommendation store port.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/haneul-labs/moodshift/internal/core/ports"
)

// Store implements the recommendation store port for SQLite.
type Store struct {
	db *sql.DB
}

var _ ports.RecommendationStore = (*Store)(nil)

// NewStore creates a connection and runs the schema migration.
func NewStore(storagePath string) (*Store, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return store, nil
}

// Close ensures the DB connection is closed gracefully.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRecommendation records a saved playlist. An empty ID gets a fresh
// uuid so callers can pass the catalog id when they have one.
func (s *Store) SaveRecommendation(ctx context.Context, rec ports.SavedRecommendation) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO saved_playlists (id, name, description, flow, track_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			description=excluded.description,
			flow=excluded.flow,
			track_count=excluded.track_count;
	`
	if _, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Description, rec.Flow, rec.TrackCount, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to save recommendation: %w", err)
	}
	return nil
}

// UpsertUserTokens stores the latest token pair for a user.
func (s *Store) UpsertUserTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	query := `
		INSERT INTO users (id, access_token, refresh_token, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			access_token=excluded.access_token,
			refresh_token=excluded.refresh_token,
			updated_at=CURRENT_TIMESTAMP;
	`
	if _, err := s.db.ExecContext(ctx, query, userID, accessToken, refreshToken); err != nil {
		return fmt.Errorf("failed to upsert user tokens: %w", err)
	}
	return nil
}

// RecordPreviewEnergy stores a computed preview energy value keyed by the
// track's identity string.
func (s *Store) RecordPreviewEnergy(ctx context.Context, trackKey string, energy float64) error {
	query := `
		INSERT INTO preview_energy (track_key, energy, analyzed_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(track_key) DO UPDATE SET
			energy=excluded.energy,
			analyzed_at=CURRENT_TIMESTAMP;
	`
	if _, err := s.db.ExecContext(ctx, query, trackKey, energy); err != nil {
		return fmt.Errorf("failed to record preview energy: %w", err)
	}
	return nil
}

// PreviewEnergy reads a stored energy value; sql.ErrNoRows maps to ok=false.
func (s *Store) PreviewEnergy(ctx context.Context, trackKey string) (float64, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT energy FROM preview_energy WHERE track_key = ?", trackKey)
	var energy float64
	if err := row.Scan(&energy); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to load preview energy: %w", err)
	}
	return energy, true, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS saved_playlists (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		flow TEXT NOT NULL,
		track_count INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS preview_energy (
		track_key TEXT PRIMARY KEY,
		energy REAL NOT NULL,
		analyzed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}
	return nil
}
