package ports

import (
	"context"
	"time"
)

// SavedRecommendation is the record persisted when a user keeps a
// recommendation as a playlist.
type SavedRecommendation struct {
	ID          string
	Name        string
	Description string
	Flow        string
	TrackCount  int
	CreatedAt   time.Time
}

// RecommendationStore persists saved recommendations and refreshed user
// tokens. Persistence is collaborator territory; the core only ever calls
// through this interface.
type RecommendationStore interface {
	SaveRecommendation(ctx context.Context, rec SavedRecommendation) error
	UpsertUserTokens(ctx context.Context, userID, accessToken, refreshToken string) error
	RecordPreviewEnergy(ctx context.Context, trackKey string, energy float64) error
}
