// Package rest exposes the recommendation flows over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/domain"
	"github.com/haneul-labs/moodshift/internal/core/ports"
	"github.com/haneul-labs/moodshift/internal/core/seeded"
	"github.com/haneul-labs/moodshift/internal/core/services"
	"github.com/haneul-labs/moodshift/internal/worker"
)

// AppTokens yields app-level bearer tokens for calls made on the service's
// own behalf rather than a user's.
type AppTokens interface {
	Token(ctx context.Context) (string, error)
}

// CatalogUsers resolves the user behind a bearer token and playlist
// display names, both needed by the save flows.
type CatalogUsers interface {
	CurrentUserID(ctx context.Context, token string) (string, error)
	PlaylistName(ctx context.Context, playlistID string) (string, error)
}

// ParsePlaylistIDFunc turns a playlist share URL or URI into a bare id.
type ParsePlaylistIDFunc func(string) (string, error)

// ServiceKeys reports which external credentials were configured at
// startup, surfaced by the health endpoint.
type ServiceKeys struct {
	LastFM      bool
	Spotify     bool
	OpenWeather bool
}

const (
	maxRequestLimit = 100
	searchPoolSize  = 8
)

// Handler manages the HTTP interface for the recommendation service.
type Handler struct {
	pipeline  *services.Pipeline
	weather   *services.WeatherFlow
	playlists ports.PlaylistCatalog
	writer    ports.PlaylistWriter
	refresher ports.TokenRefresher
	store     ports.RecommendationStore
	appTokens AppTokens
	users     CatalogUsers
	parseID   ParsePlaylistIDFunc
	pool      *worker.Pool
	market    string
	keys      ServiceKeys
	log       *logrus.Logger
	router    *mux.Router
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(
	pipeline *services.Pipeline,
	weather *services.WeatherFlow,
	playlists ports.PlaylistCatalog,
	writer ports.PlaylistWriter,
	refresher ports.TokenRefresher,
	store ports.RecommendationStore,
	appTokens AppTokens,
	users CatalogUsers,
	parseID ParsePlaylistIDFunc,
	pool *worker.Pool,
	market string,
	keys ServiceKeys,
	log *logrus.Logger,
) *Handler {
	h := &Handler{
		pipeline:  pipeline,
		weather:   weather,
		playlists: playlists,
		writer:    writer,
		refresher: refresher,
		store:     store,
		appTokens: appTokens,
		users:     users,
		parseID:   parseID,
		pool:      pool,
		market:    market,
		keys:      keys,
		log:       log,
		router:    mux.NewRouter(),
	}
	h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.Use(h.requestID)
	h.router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	h.router.HandleFunc("/lastfm/recommend", h.Recommend).Methods(http.MethodPost)
	h.router.HandleFunc("/lastfm/recommend/save", h.SaveRecommendation).Methods(http.MethodPost)
	h.router.HandleFunc("/recommend/weather", h.WeatherRecommend).Methods(http.MethodGet)
	h.router.HandleFunc("/recommend/weather/save", h.SaveWeatherRecommendation).Methods(http.MethodPost)
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// requestID tags every request with a uuid for log correlation.
func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (h *Handler) logFor(r *http.Request) *logrus.Entry {
	id, _ := r.Context().Value(requestIDKey).(string)
	return h.log.WithField("request_id", id)
}

// HealthCheck reports liveness and which external credentials are
// configured, so a probe can tell a misconfigured instance from a dead one.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"lastfm":      h.keys.LastFM,
		"spotify":     h.keys.Spotify,
		"openweather": h.keys.OpenWeather,
	})
}

type recommendRequest struct {
	Playlist string `json:"playlist"`
	Query    string `json:"query"`
	Mode     string `json:"mode"`
	Variant  int    `json:"variant"`
	Limit    int    `json:"limit"`
}

type trackPayload struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	PreviewURL  string `json:"preview_url,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	AlbumArt    string `json:"album_art,omitempty"`
}

type recommendResponse struct {
	Playlist     string         `json:"playlist"`
	PlaylistName string         `json:"playlist_name,omitempty"`
	Mode         string         `json:"mode"`
	Tracks       []trackPayload `json:"tracks"`
	UsedTags     []string       `json:"used_tags,omitempty"`
	SeedCount    int            `json:"seed_count"`
	PoolSize     int            `json:"pool_size"`
}

// Recommend runs the tag-driven pipeline for a playlist given by share URL
// or by display-name search.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	log := h.logFor(r)

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Playlist == "" && req.Query == "" {
		respondError(w, http.StatusBadRequest, "playlist or query is required")
		return
	}
	if req.Limit < 0 || req.Limit > maxRequestLimit {
		respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	mode := domain.ModeSimilar
	if req.Mode == string(domain.ModeInverted) {
		mode = domain.ModeInverted
	}

	playlistID, playlistName, err := h.resolvePlaylist(r.Context(), req)
	if err != nil {
		log.WithError(err).Warn("playlist resolution failed")
		respondError(w, http.StatusNotFound, "playlist not found")
		return
	}

	result, err := h.pipeline.Recommend(r.Context(), services.PipelineRequest{
		PlaylistID:   playlistID,
		PlaylistName: playlistName,
		Mode:         mode,
		Limit:        req.Limit,
		Variant:      req.Variant,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyResult) {
			respondError(w, http.StatusNotFound, "no recommendations found")
			return
		}
		log.WithError(err).Error("recommendation pipeline failed")
		respondError(w, http.StatusBadGateway, "recommendation failed")
		return
	}

	tracks := make([]trackPayload, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		tracks = append(tracks, trackPayload{
			Title:       t.Track.Title,
			Artist:      t.Track.PrimaryArtist(),
			PreviewURL:  t.PreviewURL,
			ExternalURL: t.ExternalURL,
			AlbumArt:    t.AlbumArt,
		})
		if h.pool != nil && t.PreviewURL != "" {
			key := t.Track.Identity()
			h.pool.Submit(worker.Job{TrackKey: key.Artist + "|" + key.Title, PreviewURL: t.PreviewURL})
		}
	}

	respondJSON(w, http.StatusOK, recommendResponse{
		Playlist:     playlistID,
		PlaylistName: playlistName,
		Mode:         string(mode),
		Tracks:       tracks,
		UsedTags:     result.UsedTags,
		SeedCount:    result.SeedCount,
		PoolSize:     result.PoolSize,
	})
}

// resolvePlaylist prefers an explicit playlist reference; otherwise it
// searches by display name and picks deterministically among the first
// eight hits.
func (h *Handler) resolvePlaylist(ctx context.Context, req recommendRequest) (string, string, error) {
	if req.Playlist != "" {
		id, err := h.parseID(req.Playlist)
		if err != nil {
			return "", "", err
		}
		name, err := h.users.PlaylistName(ctx, id)
		if err != nil {
			// The pipeline can run without a display name.
			h.log.WithError(err).Debug("playlist name lookup failed")
			name = ""
		}
		return id, name, nil
	}

	token, err := h.appTokens.Token(ctx)
	if err != nil {
		return "", "", err
	}
	hits, err := h.playlists.SearchPlaylists(ctx, token, req.Query, h.market, searchPoolSize)
	if err != nil {
		return "", "", err
	}
	if len(hits) == 0 {
		return "", "", domain.ErrNotFound
	}
	rng := seeded.New("playlist-search", req.Query, req.Variant)
	pick := hits[rng.Intn(len(hits))]
	return pick.ID, pick.Name, nil
}

type saveRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	Tracks      []struct {
		Artist string `json:"artist"`
		Title  string `json:"title"`
	} `json:"tracks"`
	TrackIDs []string `json:"track_ids"`
}

// SaveRecommendation writes a tag-pipeline result back as a user playlist.
// Tracks arrive as (artist, title) pairs and are re-resolved to catalog
// ids one by one.
func (h *Handler) SaveRecommendation(w http.ResponseWriter, r *http.Request) {
	log := h.logFor(r)

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || len(req.Tracks) == 0 {
		respondError(w, http.StatusBadRequest, "name and tracks are required")
		return
	}

	out, err := h.withUserToken(r, func(ctx context.Context, token string) (any, error) {
		var ids []string
		for _, t := range req.Tracks {
			query := t.Artist + " " + t.Title
			found, serr := h.writer.SearchTrackIDs(ctx, token, query, h.market, 1)
			if serr != nil {
				if errors.Is(serr, domain.ErrAuthExpired) {
					return nil, serr
				}
				continue
			}
			if len(found) > 0 {
				ids = append(ids, found[0])
			}
		}
		if len(ids) == 0 {
			return nil, domain.ErrEmptyResult
		}
		return h.createAndFill(ctx, token, req.Name, req.Description, req.Public, ids)
	})
	if err != nil {
		h.respondSaveError(w, log, err)
		return
	}
	cp := out.(createdPlaylist)

	h.persistSave(r.Context(), log, cp.id, req.Name, req.Description, "lastfm", cp.count)
	respondJSON(w, http.StatusCreated, map[string]any{"playlist_id": cp.id, "track_count": cp.count})
}

// SaveWeatherRecommendation persists a weather-flow result; its tracks are
// already catalog ids.
func (h *Handler) SaveWeatherRecommendation(w http.ResponseWriter, r *http.Request) {
	log := h.logFor(r)

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || len(req.TrackIDs) == 0 {
		respondError(w, http.StatusBadRequest, "name and track_ids are required")
		return
	}

	out, err := h.withUserToken(r, func(ctx context.Context, token string) (any, error) {
		return h.createAndFill(ctx, token, req.Name, req.Description, req.Public, req.TrackIDs)
	})
	if err != nil {
		h.respondSaveError(w, log, err)
		return
	}
	cp := out.(createdPlaylist)

	h.persistSave(r.Context(), log, cp.id, req.Name, req.Description, "weather", cp.count)
	respondJSON(w, http.StatusCreated, map[string]any{"playlist_id": cp.id, "track_count": cp.count})
}

type createdPlaylist struct {
	id    string
	count int
}

func (h *Handler) createAndFill(ctx context.Context, token, name, description string, public bool, ids []string) (any, error) {
	userID, err := h.users.CurrentUserID(ctx, token)
	if err != nil {
		return nil, err
	}
	playlistID, err := h.writer.CreatePlaylist(ctx, token, userID, name, description, public)
	if err != nil {
		return nil, err
	}
	if err := h.writer.AddTracks(ctx, token, playlistID, ids); err != nil {
		return nil, err
	}
	return createdPlaylist{id: playlistID, count: len(ids)}, nil
}

func (h *Handler) persistSave(ctx context.Context, log *logrus.Entry, playlistID, name, description, flow string, count int) {
	if h.store == nil {
		return
	}
	err := h.store.SaveRecommendation(ctx, ports.SavedRecommendation{
		ID:          playlistID,
		Name:        name,
		Description: description,
		Flow:        flow,
		TrackCount:  count,
	})
	if err != nil {
		log.WithError(err).Warn("saved-recommendation write failed")
	}
}

func (h *Handler) respondSaveError(w http.ResponseWriter, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthExpired):
		respondError(w, http.StatusUnauthorized, "authorization expired")
	case errors.Is(err, domain.ErrEmptyResult):
		respondError(w, http.StatusNotFound, "no tracks could be resolved")
	default:
		log.WithError(err).Error("playlist save failed")
		respondError(w, http.StatusBadGateway, "playlist save failed")
	}
}

// WeatherRecommend runs the weather flow for the authorized user.
func (h *Handler) WeatherRecommend(w http.ResponseWriter, r *http.Request) {
	log := h.logFor(r)

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	take := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxRequestLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		take = n
	}
	market := r.URL.Query().Get("market")
	if market == "" {
		market = h.market
	}

	out, err := h.withUserToken(r, func(ctx context.Context, token string) (any, error) {
		return h.weather.Recommend(ctx, services.WeatherRequest{
			Token:  token,
			Lat:    lat,
			Lon:    lon,
			Market: market,
			Take:   take,
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthExpired):
			respondError(w, http.StatusUnauthorized, "authorization expired")
		case errors.Is(err, domain.ErrEmptyResult):
			respondError(w, http.StatusNotFound, "no recommendations found")
		default:
			log.WithError(err).Error("weather recommendation failed")
			respondError(w, http.StatusBadGateway, "weather recommendation failed")
		}
		return
	}
	rec := out.(services.WeatherRecommendation)

	type scoredPayload struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Artists     string  `json:"artists"`
		Album       string  `json:"album,omitempty"`
		AlbumArt    string  `json:"album_art,omitempty"`
		ExternalURL string  `json:"external_url,omitempty"`
		Score       float64 `json:"score"`
	}
	tracks := make([]scoredPayload, 0, len(rec.Tracks))
	for _, t := range rec.Tracks {
		tracks = append(tracks, scoredPayload{
			ID:          t.Track.ID,
			Title:       t.Track.Title,
			Artists:     t.Track.Artists,
			Album:       t.Track.Album,
			AlbumArt:    t.Track.AlbumArt,
			ExternalURL: t.Track.ExternalURL,
			Score:       t.Score,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rule":     rec.Resolution.Rule,
		"keywords": rec.Resolution.Keywords,
		"weather": map[string]any{
			"condition":  rec.Observation.Condition,
			"feels_like": rec.Observation.FeelsLike,
			"wind_speed": rec.Observation.WindSpeed,
			"humidity":   rec.Observation.Humidity,
		},
		"tracks": tracks,
		"meta": map[string]any{
			"seeds_used":         rec.Meta.SeedsUsed,
			"playlists_searched": rec.Meta.PlaylistsSearched,
			"total_candidates":   rec.Meta.TotalCandidates,
			"artist_diversity":   rec.Meta.ArtistDiversity,
		},
	})
}

// withUserToken runs fn with the caller's bearer token. On an expired
// token it refreshes once through the X-Refresh-Token header and retries;
// a second expiry surfaces as ErrAuthExpired.
func (h *Handler) withUserToken(r *http.Request, fn func(ctx context.Context, token string) (any, error)) (any, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, domain.ErrAuthExpired
	}

	out, err := fn(r.Context(), token)
	if err != nil && errors.Is(err, domain.ErrAuthExpired) {
		refresh := r.Header.Get("X-Refresh-Token")
		if refresh == "" {
			return nil, err
		}
		newToken, newRefresh, rerr := h.refresher.Refresh(r.Context(), refresh)
		if rerr != nil {
			return nil, domain.ErrAuthExpired
		}
		h.logFor(r).Info("access token refreshed, retrying")
		h.storeRefreshedTokens(r.Context(), newToken, newRefresh)
		out, err = fn(r.Context(), newToken)
	}
	return out, err
}

func (h *Handler) storeRefreshedTokens(ctx context.Context, accessToken, refreshToken string) {
	if h.store == nil || h.users == nil {
		return
	}
	userID, err := h.users.CurrentUserID(ctx, accessToken)
	if err != nil {
		h.log.WithError(err).Debug("user lookup after refresh failed")
		return
	}
	if err := h.store.UpsertUserTokens(ctx, userID, accessToken, refreshToken); err != nil {
		h.log.WithError(err).Warn("token persistence failed")
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
