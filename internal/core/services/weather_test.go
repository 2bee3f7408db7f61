package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/haneul-labs/moodshift/internal/core/domain"
)

// --- Mocks ---

type mockWeather struct {
	obs domain.WeatherObservation
	err error
}

func (m *mockWeather) CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherObservation, error) {
	return m.obs, m.err
}

type mockHistory struct {
	recent    []string
	top       []string
	recentErr error
	topErr    error
}

func (m *mockHistory) RecentlyPlayed(ctx context.Context, token string, limit int) ([]string, error) {
	return m.recent, m.recentErr
}

func (m *mockHistory) TopTracks(ctx context.Context, token, timeRange string, limit int) ([]string, error) {
	return m.top, m.topErr
}

type mockPlaylists struct {
	hits      []domain.PlaylistRef
	tracks    map[string][]string
	searchErr error
}

func (m *mockPlaylists) SearchPlaylists(ctx context.Context, token, query, market string, limit int) ([]domain.PlaylistRef, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

func (m *mockPlaylists) PlaylistTrackIDs(ctx context.Context, token, playlistID string, pageSize int) ([]string, error) {
	return m.tracks[playlistID], nil
}

type mockMeta struct {
	err error
}

func (m *mockMeta) BatchTrackInfo(ctx context.Context, token string, trackIDs []string, market string) ([]domain.TrackInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.TrackInfo, 0, len(trackIDs))
	for i, id := range trackIDs {
		out = append(out, domain.TrackInfo{
			ID:         id,
			Title:      "title " + id,
			Artists:    fmt.Sprintf("artist-%d", i%7),
			Popularity: 40 + i%40,
		})
	}
	return out, nil
}

func fixedNoon() time.Time {
	return time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)
}

func newTestWeatherFlow(w *mockWeather, h *mockHistory, p *mockPlaylists, meta *mockMeta) *WeatherFlow {
	flow := NewWeatherFlow(w, h, p, meta, time.UTC, testLogger())
	flow.now = fixedNoon
	return flow
}

func playlistFixture() *mockPlaylists {
	tracks := make(map[string][]string)
	var hits []domain.PlaylistRef
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("pl-%d", i)
		hits = append(hits, domain.PlaylistRef{ID: id, Name: "hit " + id})
		var ids []string
		for j := 0; j < 20; j++ {
			ids = append(ids, fmt.Sprintf("track-%d-%d", i, j))
		}
		tracks[id] = ids
	}
	return &mockPlaylists{hits: hits, tracks: tracks}
}

// --- Tests ---

func TestWeatherFlow_HappyPath(t *testing.T) {
	flow := newTestWeatherFlow(
		&mockWeather{obs: domain.WeatherObservation{Condition: "clear", FeelsLike: 20, WindSpeed: 2, Humidity: 40}},
		&mockHistory{recent: []string{"seed-1", "seed-2"}},
		playlistFixture(),
		&mockMeta{},
	)

	rec, err := flow.Recommend(context.Background(), WeatherRequest{Token: "tok", Lat: 52.5, Lon: 13.4, Take: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Resolution.Rule != "afternoon_perfect" {
		t.Fatalf("expected afternoon_perfect, got %s", rec.Resolution.Rule)
	}
	if len(rec.Tracks) == 0 || len(rec.Tracks) > 10 {
		t.Fatalf("expected 1-10 tracks, got %d", len(rec.Tracks))
	}
	if rec.Meta.PlaylistsSearched != 3 {
		t.Fatalf("expected 3 playlists searched, got %d", rec.Meta.PlaylistsSearched)
	}
}

func TestWeatherFlow_WeatherFailureDegradesToNeutral(t *testing.T) {
	flow := newTestWeatherFlow(
		&mockWeather{err: errors.New("service down")},
		&mockHistory{recent: []string{"seed-1"}},
		playlistFixture(),
		&mockMeta{},
	)

	rec, err := flow.Recommend(context.Background(), WeatherRequest{Token: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Neutral observation: clear, 18 degrees at 14:00 resolves to
	// afternoon_perfect.
	if rec.Observation != neutralObservation {
		t.Fatalf("expected neutral observation, got %+v", rec.Observation)
	}
	if rec.Resolution.Rule != "afternoon_perfect" {
		t.Fatalf("expected afternoon_perfect, got %s", rec.Resolution.Rule)
	}
}

func TestWeatherFlow_AuthErrorPropagation(t *testing.T) {
	tests := []struct {
		name string
		flow *WeatherFlow
	}{
		{
			"history auth failure",
			newTestWeatherFlow(
				&mockWeather{obs: neutralObservation},
				&mockHistory{recentErr: fmt.Errorf("401: %w", domain.ErrAuthExpired)},
				playlistFixture(),
				&mockMeta{},
			),
		},
		{
			"playlist search auth failure",
			newTestWeatherFlow(
				&mockWeather{obs: neutralObservation},
				&mockHistory{recent: []string{"seed-1"}},
				&mockPlaylists{searchErr: fmt.Errorf("401: %w", domain.ErrAuthExpired)},
				&mockMeta{},
			),
		},
		{
			"metadata auth failure",
			newTestWeatherFlow(
				&mockWeather{obs: neutralObservation},
				&mockHistory{recent: []string{"seed-1"}},
				playlistFixture(),
				&mockMeta{err: fmt.Errorf("401: %w", domain.ErrAuthExpired)},
			),
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.flow.Recommend(context.Background(), WeatherRequest{Token: "expired"})
			if !errors.Is(err, domain.ErrAuthExpired) {
				t.Fatalf("expected ErrAuthExpired, got %v", err)
			}
		})
	}
}

func TestWeatherFlow_HistoryFallsBackToTopTracks(t *testing.T) {
	flow := newTestWeatherFlow(
		&mockWeather{obs: neutralObservation},
		&mockHistory{recentErr: errors.New("flaky"), top: []string{"top-1", "top-2"}},
		playlistFixture(),
		&mockMeta{},
	)
	rec, err := flow.Recommend(context.Background(), WeatherRequest{Token: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Meta.SeedsUsed != 2 {
		t.Fatalf("expected 2 top-track seeds, got %d", rec.Meta.SeedsUsed)
	}
}

func TestWeatherFlow_EmptyCandidates(t *testing.T) {
	flow := newTestWeatherFlow(
		&mockWeather{obs: neutralObservation},
		&mockHistory{recent: []string{"seed-1"}},
		&mockPlaylists{},
		&mockMeta{},
	)
	_, err := flow.Recommend(context.Background(), WeatherRequest{Token: "tok"})
	if !errors.Is(err, domain.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestWeatherFlow_RecentListensExcluded(t *testing.T) {
	fixture := playlistFixture()
	// Make the first playlist consist entirely of already-heard tracks.
	heard := fixture.tracks["pl-0"]
	flow := newTestWeatherFlow(
		&mockWeather{obs: neutralObservation},
		&mockHistory{recent: heard},
		fixture,
		&mockMeta{},
	)
	rec, err := flow.Recommend(context.Background(), WeatherRequest{Token: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Meta.TotalCandidates != 40 {
		t.Fatalf("expected 40 unheard candidates, got %d", rec.Meta.TotalCandidates)
	}
	heardSet := make(map[string]bool)
	for _, id := range heard {
		heardSet[id] = true
	}
	for _, tr := range rec.Tracks {
		if heardSet[tr.Track.ID] {
			t.Fatalf("recently played track %s leaked into output", tr.Track.ID)
		}
	}
}
