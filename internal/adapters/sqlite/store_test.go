package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/haneul-labs/moodshift/internal/core/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveRecommendation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := ports.SavedRecommendation{
		ID:          "pl-1",
		Name:        "Opposite Mood",
		Description: "generated",
		Flow:        "lastfm",
		TrackCount:  24,
	}
	if err := s.SaveRecommendation(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same id again updates instead of failing.
	rec.Name = "Renamed"
	if err := s.SaveRecommendation(ctx, rec); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	var name string
	row := s.db.QueryRowContext(ctx, "SELECT name FROM saved_playlists WHERE id = ?", "pl-1")
	if err := row.Scan(&name); err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	if name != "Renamed" {
		t.Fatalf("expected updated name, got %q", name)
	}
}

func TestSaveRecommendation_GeneratesID(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveRecommendation(context.Background(), ports.SavedRecommendation{
		Name: "No ID", Flow: "weather", TrackCount: 10,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM saved_playlists WHERE id != ''").Scan(&count); err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row with generated id, got %d", count)
	}
}

func TestUpsertUserTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertUserTokens(ctx, "user-1", "access-1", "refresh-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.UpsertUserTokens(ctx, "user-1", "access-2", "refresh-2"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	var access string
	if err := s.db.QueryRowContext(ctx, "SELECT access_token FROM users WHERE id = ?", "user-1").Scan(&access); err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	if access != "access-2" {
		t.Fatalf("expected latest token, got %q", access)
	}
}

func TestPreviewEnergy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.PreviewEnergy(ctx, "artist|title"); err != nil || ok {
		t.Fatalf("expected no row yet, got ok=%v err=%v", ok, err)
	}

	if err := s.RecordPreviewEnergy(ctx, "artist|title", 0.42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RecordPreviewEnergy(ctx, "artist|title", 0.66); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	energy, ok, err := s.PreviewEnergy(ctx, "artist|title")
	if err != nil || !ok {
		t.Fatalf("expected stored energy, got ok=%v err=%v", ok, err)
	}
	if energy != 0.66 {
		t.Fatalf("expected latest energy 0.66, got %f", energy)
	}
}
