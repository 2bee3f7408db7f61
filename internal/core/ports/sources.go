// Package ports declares the narrow contracts the core consumes. HTTP
// shapes, pagination, and credentials live behind these interfaces.
package ports

import (
	"context"

	"github.com/haneul-labs/moodshift/internal/core/domain"
)

// SeedSource extracts (artist, title) seed pairs from a track collection.
// Collaborator failures collapse to an empty sequence at the adapter.
type SeedSource interface {
	PlaylistTrackPairs(ctx context.Context, playlistID string, maxResults int) ([]domain.TrackRef, error)
}

// TagLookup is the tag/similarity catalog (Last.fm shaped). Single-query
// failures are recovered as empty results by callers, never propagated.
type TagLookup interface {
	TopTagsForTrack(ctx context.Context, artist, title string) ([]string, error)
	SimilarTracks(ctx context.Context, artist, title string, limit int) ([]domain.TrackRef, error)
	TopTracksByTag(ctx context.Context, tag string, limit int) ([]domain.TrackRef, error)
}

// CatalogSearch resolves a candidate against the playable catalog,
// returning the first hit only.
type CatalogSearch interface {
	SearchByArtistTitle(ctx context.Context, artist, title string) (domain.MatchedTrack, error)
}

// WeatherSource reports current conditions for a coordinate pair.
type WeatherSource interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherObservation, error)
}

// ListeningHistory reads a user's play history. Both methods return
// domain.ErrAuthExpired (wrapped) on an authorization failure so the caller
// can refresh credentials and retry once.
type ListeningHistory interface {
	RecentlyPlayed(ctx context.Context, token string, limit int) ([]string, error)
	TopTracks(ctx context.Context, token, timeRange string, limit int) ([]string, error)
}

// MetadataLookup batches catalog track metadata, 50 ids per call.
type MetadataLookup interface {
	BatchTrackInfo(ctx context.Context, token string, trackIDs []string, market string) ([]domain.TrackInfo, error)
}

// PlaylistCatalog searches playlists and lists their track ids on behalf
// of a user.
type PlaylistCatalog interface {
	SearchPlaylists(ctx context.Context, token, query, market string, limit int) ([]domain.PlaylistRef, error)
	PlaylistTrackIDs(ctx context.Context, token, playlistID string, pageSize int) ([]string, error)
}

// PlaylistWriter persists a recommendation back into the user's catalog.
type PlaylistWriter interface {
	CreatePlaylist(ctx context.Context, token, userID, name, description string, public bool) (string, error)
	AddTracks(ctx context.Context, token, playlistID string, trackIDs []string) error
	SearchTrackIDs(ctx context.Context, token, query, market string, limit int) ([]string, error)
}

// TokenRefresher exchanges a refresh token for fresh user credentials.
// The OAuth flow itself lives outside the core.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error)
}
