package domain

import "strings"

// TrackRef identifies a track by display metadata, independent of any
// catalog. SourceID is set when the originating service exposes one.
type TrackRef struct {
	Title    string
	Artists  []string
	SourceID string
}

// PrimaryArtist returns the first credited artist, or "" when unknown.
func (t TrackRef) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// IdentityKey is the deduplication key for tracks gathered from
// heterogeneous services.
type IdentityKey struct {
	Artist string
	Title  string
}

// Identity builds the (lowercase primary artist, lowercase title) key.
func (t TrackRef) Identity() IdentityKey {
	return IdentityKey{
		Artist: strings.ToLower(t.PrimaryArtist()),
		Title:  strings.ToLower(t.Title),
	}
}

// Provenance records which collection tier produced a candidate.
type Provenance string

const (
	ProvenanceSimilar    Provenance = "similar"
	ProvenanceTagSearch  Provenance = "tag-search"
	ProvenanceSupplement Provenance = "supplement"
	ProvenanceFallback   Provenance = "fallback"
)

// Candidate is an unverified track gathered during collection.
type Candidate struct {
	Track      TrackRef
	Provenance Provenance
}

// MatchedTrack is a candidate resolved against the playable catalog.
type MatchedTrack struct {
	Track       TrackRef
	PreviewURL  string
	ExternalURL string
	AlbumArt    string
}

// TrackInfo is catalog metadata for a track identified by catalog id.
// Artists is the joined display string as the catalog reports it.
type TrackInfo struct {
	ID          string
	Title       string
	Artists     string
	Album       string
	AlbumArt    string
	ExternalURL string
	Popularity  int
}

// ScoreComponents breaks a similarity score into its weighted parts.
type ScoreComponents struct {
	Affinity        float64
	Popularity      float64
	TitleSimilarity float64
}

// ScoredCandidate pairs catalog metadata with its similarity score.
type ScoredCandidate struct {
	Track      TrackInfo
	Score      float64
	Components ScoreComponents
}

// Mode selects how the collection pipeline relates output to its seed.
type Mode string

const (
	ModeSimilar  Mode = "similar"
	ModeInverted Mode = "inverted"
)

// PlaylistRef is a playlist search hit.
type PlaylistRef struct {
	ID         string
	Name       string
	Owner      string
	TrackTotal int
}
