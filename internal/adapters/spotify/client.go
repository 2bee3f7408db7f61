// Package spotify implements the catalog-facing ports against the Spotify
// Web API: seed extraction, listening history, playlist search, metadata
// batching, and playlist writes.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/domain"
	"github.com/haneul-labs/moodshift/internal/core/ports"
)

const (
	apiBaseURL = "https://api.spotify.com/v1"

	maxSeedPageSize   = 100
	maxSeedTracks     = 200
	maxPlaylistTracks = 600
	metaChunkSize     = 50
	addChunkSize      = 100

	maxRetries     = 3
	retryBaseDelay = 500 * time.Millisecond
)

var playlistIDPattern = regexp.MustCompile(`(?:playlist/|spotify:playlist:)([A-Za-z0-9]+)`)

// ParsePlaylistID extracts the bare playlist id from a share URL, a URI,
// or an already-bare id.
func ParsePlaylistID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := playlistIDPattern.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if s != "" && !strings.ContainsAny(s, "/: ?") {
		return s, nil
	}
	return "", fmt.Errorf("spotify adapter: unrecognized playlist reference %q", s)
}

// Client covers both app-credentialed reads (seed extraction) and
// user-token operations (history, playlists, writes).
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *TokenManager
	log        *logrus.Logger
}

var (
	_ ports.SeedSource       = (*Client)(nil)
	_ ports.ListeningHistory = (*Client)(nil)
	_ ports.MetadataLookup   = (*Client)(nil)
	_ ports.PlaylistCatalog  = (*Client)(nil)
	_ ports.PlaylistWriter   = (*Client)(nil)
)

// NewClient constructs the Spotify adapter.
func NewClient(tokens *TokenManager, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    apiBaseURL,
		tokens:     tokens,
		log:        log,
	}
}

// doJSON performs one authenticated request with rate-limit retries. A 401
// maps to domain.ErrAuthExpired; a 429 honors Retry-After up to maxRetries
// times. A 204 decodes nothing and returns no error.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body []byte, out any) error {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("spotify adapter: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("spotify adapter: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries:
			delay := retryBaseDelay * time.Duration(1<<attempt)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, perr := strconv.Atoi(ra); perr == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			resp.Body.Close()
			c.log.WithFields(logrus.Fields{"path": path, "delay": delay}).Warn("rate limited, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return fmt.Errorf("spotify adapter: %s %s: %w", method, path, domain.ErrAuthExpired)
		case resp.StatusCode == http.StatusNoContent:
			resp.Body.Close()
			return nil
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			resp.Body.Close()
			return fmt.Errorf("spotify adapter: %s %s status %d", method, path, resp.StatusCode)
		}

		if out != nil {
			err = json.NewDecoder(resp.Body).Decode(out)
		}
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("spotify adapter: %s decode: %w", path, err)
		}
		return nil
	}
}

// appToken resolves the client-credentials token for unauthenticated-user
// reads.
func (c *Client) appToken(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

type wirePlaylistItems struct {
	Items []struct {
		IsLocal bool `json:"is_local"`
		Track   *struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Type    string `json:"type"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

// PlaylistTrackPairs reads up to maxResults (artist, title) pairs from a
// playlist, skipping local files and non-track items (episodes).
func (c *Client) PlaylistTrackPairs(ctx context.Context, playlistID string, maxResults int) ([]domain.TrackRef, error) {
	if maxResults <= 0 || maxResults > maxSeedTracks {
		maxResults = maxSeedTracks
	}
	token, err := c.appToken(ctx)
	if err != nil {
		return nil, err
	}

	var refs []domain.TrackRef
	offset := 0
	for len(refs) < maxResults {
		limit := maxSeedPageSize
		if remaining := maxResults - len(refs); remaining < limit {
			limit = remaining
		}
		path := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d&fields=%s",
			url.PathEscape(playlistID), limit, offset,
			url.QueryEscape("items(is_local,track(id,name,type,artists(name))),next"))

		var page wirePlaylistItems
		if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &page); err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		for _, it := range page.Items {
			if it.IsLocal || it.Track == nil || it.Track.Name == "" {
				continue
			}
			if it.Track.Type != "" && it.Track.Type != "track" {
				continue
			}
			artists := make([]string, 0, len(it.Track.Artists))
			for _, a := range it.Track.Artists {
				if a.Name != "" {
					artists = append(artists, a.Name)
				}
			}
			if len(artists) == 0 {
				continue
			}
			refs = append(refs, domain.TrackRef{
				Title:    it.Track.Name,
				Artists:  artists,
				SourceID: it.Track.ID,
			})
			if len(refs) >= maxResults {
				break
			}
		}
		if page.Next == "" {
			break
		}
		offset += limit
	}
	return refs, nil
}

// PlaylistName fetches the playlist's display name with app credentials.
func (c *Client) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	token, err := c.appToken(ctx)
	if err != nil {
		return "", err
	}
	var body struct {
		Name string `json:"name"`
	}
	path := "/playlists/" + url.PathEscape(playlistID) + "?fields=name"
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &body); err != nil {
		return "", err
	}
	return body.Name, nil
}

// RecentlyPlayed lists the user's recently played track ids, most recent
// first. A 204 (no history) yields an empty list.
func (c *Client) RecentlyPlayed(ctx context.Context, token string, limit int) ([]string, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	var body struct {
		Items []struct {
			Track struct {
				ID string `json:"id"`
			} `json:"track"`
		} `json:"items"`
	}
	path := fmt.Sprintf("/me/player/recently-played?limit=%d", limit)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &body); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(body.Items))
	for _, it := range body.Items {
		if it.Track.ID != "" {
			ids = append(ids, it.Track.ID)
		}
	}
	return ids, nil
}

// TopTracks lists the user's top track ids over the given time range.
func (c *Client) TopTracks(ctx context.Context, token, timeRange string, limit int) ([]string, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	if timeRange == "" {
		timeRange = "short_term"
	}
	var body struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	path := fmt.Sprintf("/me/top/tracks?time_range=%s&limit=%d", url.QueryEscape(timeRange), limit)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &body); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(body.Items))
	for _, it := range body.Items {
		if it.ID != "" {
			ids = append(ids, it.ID)
		}
	}
	return ids, nil
}

// SearchPlaylists runs a playlist search for the query.
func (c *Client) SearchPlaylists(ctx context.Context, token, query, market string, limit int) ([]domain.PlaylistRef, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "playlist")
	q.Set("limit", strconv.Itoa(limit))
	if market != "" {
		q.Set("market", market)
	}
	var body struct {
		Playlists struct {
			Items []struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Owner struct {
					DisplayName string `json:"display_name"`
				} `json:"owner"`
				Tracks struct {
					Total int `json:"total"`
				} `json:"tracks"`
			} `json:"items"`
		} `json:"playlists"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/search?"+q.Encode(), token, nil, &body); err != nil {
		return nil, err
	}
	refs := make([]domain.PlaylistRef, 0, len(body.Playlists.Items))
	for _, it := range body.Playlists.Items {
		if it.ID == "" {
			continue
		}
		refs = append(refs, domain.PlaylistRef{
			ID:         it.ID,
			Name:       it.Name,
			Owner:      it.Owner.DisplayName,
			TrackTotal: it.Tracks.Total,
		})
	}
	return refs, nil
}

// PlaylistTrackIDs pages through a playlist's track ids, capped at
// maxPlaylistTracks.
func (c *Client) PlaylistTrackIDs(ctx context.Context, token, playlistID string, pageSize int) ([]string, error) {
	if pageSize <= 0 || pageSize > maxSeedPageSize {
		pageSize = maxSeedPageSize
	}
	var ids []string
	offset := 0
	for len(ids) < maxPlaylistTracks {
		path := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d&fields=%s",
			url.PathEscape(playlistID), pageSize, offset,
			url.QueryEscape("items(is_local,track(id,type)),next"))
		var page wirePlaylistItems
		if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &page); err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		for _, it := range page.Items {
			if it.IsLocal || it.Track == nil || it.Track.ID == "" {
				continue
			}
			if it.Track.Type != "" && it.Track.Type != "track" {
				continue
			}
			ids = append(ids, it.Track.ID)
			if len(ids) >= maxPlaylistTracks {
				break
			}
		}
		if page.Next == "" {
			break
		}
		offset += pageSize
	}
	return ids, nil
}

// BatchTrackInfo fetches metadata in chunks of metaChunkSize ids.
func (c *Client) BatchTrackInfo(ctx context.Context, token string, trackIDs []string, market string) ([]domain.TrackInfo, error) {
	out := make([]domain.TrackInfo, 0, len(trackIDs))
	for start := 0; start < len(trackIDs); start += metaChunkSize {
		end := start + metaChunkSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}
		q := url.Values{}
		q.Set("ids", strings.Join(trackIDs[start:end], ","))
		if market != "" {
			q.Set("market", market)
		}
		var body struct {
			Tracks []*struct {
				ID      string `json:"id"`
				Name    string `json:"name"`
				Artists []struct {
					Name string `json:"name"`
				} `json:"artists"`
				Album struct {
					Name   string `json:"name"`
					Images []struct {
						URL string `json:"url"`
					} `json:"images"`
				} `json:"album"`
				ExternalURLs struct {
					Spotify string `json:"spotify"`
				} `json:"external_urls"`
				Popularity int `json:"popularity"`
			} `json:"tracks"`
		}
		if err := c.doJSON(ctx, http.MethodGet, "/tracks?"+q.Encode(), token, nil, &body); err != nil {
			return nil, err
		}
		for _, t := range body.Tracks {
			if t == nil || t.ID == "" {
				continue
			}
			names := make([]string, 0, len(t.Artists))
			for _, a := range t.Artists {
				if a.Name != "" {
					names = append(names, a.Name)
				}
			}
			art := ""
			if len(t.Album.Images) > 0 {
				art = t.Album.Images[0].URL
			}
			out = append(out, domain.TrackInfo{
				ID:          t.ID,
				Title:       t.Name,
				Artists:     strings.Join(names, ", "),
				Album:       t.Album.Name,
				AlbumArt:    art,
				ExternalURL: t.ExternalURLs.Spotify,
				Popularity:  t.Popularity,
			})
		}
	}
	return out, nil
}

// CreatePlaylist makes a playlist under the user's account and returns its
// id.
func (c *Client) CreatePlaylist(ctx context.Context, token, userID, name, description string, public bool) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	})
	if err != nil {
		return "", fmt.Errorf("spotify adapter: %w", err)
	}
	var body struct {
		ID string `json:"id"`
	}
	path := "/users/" + url.PathEscape(userID) + "/playlists"
	if err := c.doJSON(ctx, http.MethodPost, path, token, payload, &body); err != nil {
		return "", err
	}
	if body.ID == "" {
		return "", fmt.Errorf("spotify adapter: playlist create returned no id")
	}
	return body.ID, nil
}

// AddTracks appends track uris to a playlist in chunks of addChunkSize.
func (c *Client) AddTracks(ctx context.Context, token, playlistID string, trackIDs []string) error {
	for start := 0; start < len(trackIDs); start += addChunkSize {
		end := start + addChunkSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}
		uris := make([]string, 0, end-start)
		for _, id := range trackIDs[start:end] {
			uris = append(uris, "spotify:track:"+id)
		}
		payload, err := json.Marshal(map[string]any{"uris": uris})
		if err != nil {
			return fmt.Errorf("spotify adapter: %w", err)
		}
		path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
		if err := c.doJSON(ctx, http.MethodPost, path, token, payload, nil); err != nil {
			return err
		}
	}
	return nil
}

// SearchTrackIDs resolves a free-text track query to catalog ids.
func (c *Client) SearchTrackIDs(ctx context.Context, token, query, market string, limit int) ([]string, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", strconv.Itoa(limit))
	if market != "" {
		q.Set("market", market)
	}
	var body struct {
		Tracks struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/search?"+q.Encode(), token, nil, &body); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(body.Tracks.Items))
	for _, it := range body.Tracks.Items {
		if it.ID != "" {
			ids = append(ids, it.ID)
		}
	}
	return ids, nil
}

// CurrentUserID fetches the id of the token's user, needed for playlist
// creation.
func (c *Client) CurrentUserID(ctx context.Context, token string) (string, error) {
	var body struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/me", token, nil, &body); err != nil {
		return "", err
	}
	return body.ID, nil
}
