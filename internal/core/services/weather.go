package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/domain"
	"github.com/haneul-labs/moodshift/internal/core/ports"
	"github.com/haneul-labs/moodshift/internal/core/seeded"
	"github.com/haneul-labs/moodshift/internal/core/weathermood"
)

const (
	historyLimit       = 50
	playlistsPerWord   = 6
	maxPlaylists       = 12
	playlistPageSize   = 50
	maxWeatherPool     = 500
	weatherMetaBatch   = 50
	defaultWeatherTake = 30
)

// neutralObservation stands in when the weather collaborator is down;
// the flow degrades instead of failing.
var neutralObservation = domain.WeatherObservation{
	Condition: "clear",
	FeelsLike: 18,
	WindSpeed: 2,
	Humidity:  50,
}

// WeatherFlow turns current weather plus a user's listening history into a
// ranked track list sourced from mood-keyword playlists.
type WeatherFlow struct {
	weather     ports.WeatherSource
	history     ports.ListeningHistory
	playlists   ports.PlaylistCatalog
	meta        ports.MetadataLookup
	loc         *time.Location
	now         func() time.Time
	log         *logrus.Logger
	fanOut      int
	callTimeout time.Duration
}

// NewWeatherFlow constructs the weather recommendation flow. loc decides
// the local hour fed to the mood resolver.
func NewWeatherFlow(weather ports.WeatherSource, history ports.ListeningHistory, playlists ports.PlaylistCatalog, meta ports.MetadataLookup, loc *time.Location, log *logrus.Logger) *WeatherFlow {
	if loc == nil {
		loc = time.Local
	}
	return &WeatherFlow{
		weather:     weather,
		history:     history,
		playlists:   playlists,
		meta:        meta,
		loc:         loc,
		now:         time.Now,
		log:         log,
		fanOut:      defaultFanOut,
		callTimeout: defaultCallTime,
	}
}

// WeatherRequest parameterizes one weather recommendation.
type WeatherRequest struct {
	Token  string
	Lat    float64
	Lon    float64
	Market string
	Take   int
}

// WeatherMeta reports pipeline stage counts for diagnostics.
type WeatherMeta struct {
	SeedsUsed         int
	PlaylistsSearched int
	TotalCandidates   int
	ArtistDiversity   int
}

// WeatherRecommendation is the flow's full response.
type WeatherRecommendation struct {
	Resolution  domain.MoodResolution
	Observation domain.WeatherObservation
	Tracks      []domain.ScoredCandidate
	Meta        WeatherMeta
}

// Recommend resolves the mood rule, gathers candidates from keyword
// playlists, and ranks them against the user's history. Authorization
// failures propagate so the caller can refresh once; any other collaborator
// failure degrades to fewer candidates.
func (s *WeatherFlow) Recommend(ctx context.Context, req WeatherRequest) (WeatherRecommendation, error) {
	if req.Take <= 0 {
		req.Take = defaultWeatherTake
	}
	if req.Take > maxLimit {
		req.Take = maxLimit
	}

	obs, err := s.weather.CurrentWeather(ctx, req.Lat, req.Lon)
	if err != nil {
		s.log.WithError(err).Warn("weather lookup failed, using neutral observation")
		obs = neutralObservation
	}
	resolution := weathermood.Resolve(obs, s.now().In(s.loc))
	s.log.WithFields(logrus.Fields{
		"stage":    "mood_resolution",
		"rule":     resolution.Rule,
		"keywords": resolution.Keywords,
	}).Info("weather mood resolved")

	seeds, err := s.userSeeds(ctx, req.Token)
	if err != nil {
		return WeatherRecommendation{}, err
	}

	candidateIDs, searched, err := s.collectPlaylistCandidates(ctx, req, resolution.Keywords, seeds)
	if err != nil {
		return WeatherRecommendation{}, err
	}
	if len(candidateIDs) == 0 {
		return WeatherRecommendation{}, domain.ErrEmptyResult
	}

	// Large pools are trimmed with a seeded draw so the run stays a pure
	// function of its inputs.
	if len(candidateIDs) > maxWeatherPool {
		rng := seeded.New(resolution.Rule, req.Market, req.Take)
		rng.ShuffleStrings(candidateIDs)
		candidateIDs = candidateIDs[:maxWeatherPool]
	}

	candMeta, err := s.batchInfo(ctx, req.Token, candidateIDs, req.Market)
	if err != nil {
		return WeatherRecommendation{}, err
	}
	userSeedIDs := seeds
	if len(userSeedIDs) > weatherMetaBatch {
		userSeedIDs = userSeedIDs[:weatherMetaBatch]
	}
	userMeta, err := s.batchInfo(ctx, req.Token, userSeedIDs, req.Market)
	if err != nil {
		return WeatherRecommendation{}, err
	}

	ranked := RankBySimilarity(candMeta, userMeta, req.Take)
	if len(ranked) == 0 {
		return WeatherRecommendation{}, domain.ErrEmptyResult
	}

	diversity := make(map[string]struct{}, len(ranked))
	for _, r := range ranked {
		diversity[r.Track.Artists] = struct{}{}
	}
	s.log.WithFields(logrus.Fields{
		"stage":      "ranking",
		"candidates": len(candMeta),
		"selected":   len(ranked),
		"artists":    len(diversity),
	}).Info("weather recommendation ranked")

	return WeatherRecommendation{
		Resolution:  resolution,
		Observation: obs,
		Tracks:      ranked,
		Meta: WeatherMeta{
			SeedsUsed:         len(seeds),
			PlaylistsSearched: searched,
			TotalCandidates:   len(candidateIDs),
			ArtistDiversity:   len(diversity),
		},
	}, nil
}

// userSeeds prefers recently played tracks and falls back to short-term
// top tracks. Auth failures propagate; anything else collapses to empty.
func (s *WeatherFlow) userSeeds(ctx context.Context, token string) ([]string, error) {
	seeds, err := s.history.RecentlyPlayed(ctx, token, historyLimit)
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			return nil, err
		}
		s.log.WithError(err).Warn("recently-played lookup failed")
	}
	if len(seeds) > 0 {
		return seeds, nil
	}
	seeds, err = s.history.TopTracks(ctx, token, "short_term", historyLimit)
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			return nil, err
		}
		s.log.WithError(err).Warn("top-tracks lookup failed")
	}
	return seeds, nil
}

// collectPlaylistCandidates searches playlists per keyword, lists their
// tracks, and removes duplicates plus the user's recent listens.
func (s *WeatherFlow) collectPlaylistCandidates(ctx context.Context, req WeatherRequest, keywords, seeds []string) ([]string, int, error) {
	var authFailed atomic.Bool
	hitLists := fetchEach(ctx, s.fanOut, s.callTimeout, keywords, func(ctx context.Context, k string) ([]domain.PlaylistRef, error) {
		refs, err := s.playlists.SearchPlaylists(ctx, req.Token, k, req.Market, playlistsPerWord)
		if err != nil && errors.Is(err, domain.ErrAuthExpired) {
			authFailed.Store(true)
		}
		return refs, err
	})
	if authFailed.Load() {
		return nil, 0, domain.ErrAuthExpired
	}

	seenPl := make(map[string]struct{})
	var playlists []domain.PlaylistRef
	for _, hits := range hitLists {
		for _, p := range hits {
			if p.ID == "" {
				continue
			}
			if _, dup := seenPl[p.ID]; dup {
				continue
			}
			seenPl[p.ID] = struct{}{}
			playlists = append(playlists, p)
		}
	}
	if len(playlists) > maxPlaylists {
		playlists = playlists[:maxPlaylists]
	}

	trackLists := fetchEach(ctx, s.fanOut, s.callTimeout, playlists, func(ctx context.Context, p domain.PlaylistRef) ([]string, error) {
		return s.playlists.PlaylistTrackIDs(ctx, req.Token, p.ID, playlistPageSize)
	})

	recent := make(map[string]struct{}, len(seeds))
	for _, id := range seeds {
		recent[id] = struct{}{}
	}
	seenTrack := make(map[string]struct{})
	var candidates []string
	for _, ids := range trackLists {
		for _, id := range ids {
			if _, dup := seenTrack[id]; dup {
				continue
			}
			seenTrack[id] = struct{}{}
			if _, listened := recent[id]; listened {
				continue
			}
			candidates = append(candidates, id)
		}
	}

	s.log.WithFields(logrus.Fields{
		"stage":      "playlist_candidates",
		"playlists":  len(playlists),
		"candidates": len(candidates),
	}).Info("playlist candidates collected")
	return candidates, len(playlists), nil
}

// batchInfo wraps metadata lookup, propagating only auth failures.
func (s *WeatherFlow) batchInfo(ctx context.Context, token string, ids []string, market string) ([]domain.TrackInfo, error) {
	info, err := s.meta.BatchTrackInfo(ctx, token, ids, market)
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			return nil, err
		}
		s.log.WithError(err).Warn("track metadata lookup failed")
		return nil, nil
	}
	return info, nil
}
