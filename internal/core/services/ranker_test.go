package services

import (
	"testing"

	"github.com/haneul-labs/moodshift/internal/core/domain"
)

func info(id, title, artists string, popularity int) domain.TrackInfo {
	return domain.TrackInfo{ID: id, Title: title, Artists: artists, Popularity: popularity}
}

func TestRankBySimilarity_ArtistAffinityDominates(t *testing.T) {
	user := []domain.TrackInfo{info("u1", "Known Song", "Familiar Artist", 50)}
	candidates := []domain.TrackInfo{
		info("c1", "Unrelated", "Stranger", 100),
		info("c2", "New Single", "Familiar Artist", 10),
	}

	ranked := RankBySimilarity(candidates, user, 10)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked tracks, got %d", len(ranked))
	}
	// Affinity weight 1.0 beats a full popularity bar at weight 0.2.
	if ranked[0].Track.ID != "c2" {
		t.Fatalf("expected familiar artist first, got %s", ranked[0].Track.ID)
	}
	if ranked[0].Components.Affinity != 1.0 {
		t.Fatalf("expected affinity 1.0, got %f", ranked[0].Components.Affinity)
	}
}

func TestRankBySimilarity_PerArtistCap(t *testing.T) {
	user := []domain.TrackInfo{info("u1", "Seed", "Big Artist", 50)}
	candidates := []domain.TrackInfo{
		info("c1", "Hit One", "Big Artist", 90),
		info("c2", "Hit Two", "Big Artist", 80),
		info("c3", "Hit Three", "Big Artist", 70),
		info("c4", "Filler", "Other Artist", 60),
	}

	ranked := RankBySimilarity(candidates, user, 10)
	perArtist := make(map[string]int)
	for _, r := range ranked {
		perArtist[r.Track.Artists]++
	}
	if perArtist["Big Artist"] != 2 {
		t.Fatalf("expected at most 2 tracks for Big Artist, got %d", perArtist["Big Artist"])
	}
	if perArtist["Other Artist"] != 1 {
		t.Fatal("expected the other artist to fill the freed slot")
	}
}

func TestRankBySimilarity_TitleSimilarity(t *testing.T) {
	user := []domain.TrackInfo{info("u1", "midnight city lights", "Someone", 0)}
	candidates := []domain.TrackInfo{
		info("c1", "completely different words", "Nobody", 0),
		info("c2", "midnight city dreams", "Nobody Else", 0),
	}

	ranked := RankBySimilarity(candidates, user, 10)
	if ranked[0].Track.ID != "c2" {
		t.Fatalf("expected overlapping title first, got %s", ranked[0].Track.ID)
	}
	if ranked[0].Components.TitleSimilarity <= 0 {
		t.Fatal("expected positive title similarity")
	}
}

func TestRankBySimilarity_EmptyInputs(t *testing.T) {
	some := []domain.TrackInfo{info("x", "x", "x", 0)}
	if got := RankBySimilarity(nil, some, 5); got != nil {
		t.Fatal("expected nil for empty candidates")
	}
	if got := RankBySimilarity(some, nil, 5); got != nil {
		t.Fatal("expected nil for empty user history")
	}
}

func TestRankBySimilarity_PopularityClamped(t *testing.T) {
	user := []domain.TrackInfo{info("u1", "Seed", "A", 0)}
	ranked := RankBySimilarity([]domain.TrackInfo{info("c1", "Song", "B", 250)}, user, 5)
	if ranked[0].Components.Popularity != 1.0 {
		t.Fatalf("expected popularity clamped to 1.0, got %f", ranked[0].Components.Popularity)
	}
}

func TestRankBySimilarity_TakeLimit(t *testing.T) {
	user := []domain.TrackInfo{info("u1", "Seed", "A", 0)}
	var candidates []domain.TrackInfo
	for i := 0; i < 20; i++ {
		candidates = append(candidates, info(
			string(rune('a'+i)), "Song", "Artist "+string(rune('a'+i)), i))
	}
	ranked := RankBySimilarity(candidates, user, 5)
	if len(ranked) != 5 {
		t.Fatalf("expected 5 tracks, got %d", len(ranked))
	}
}
