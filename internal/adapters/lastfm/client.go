// Package lastfm implements the tag/similarity lookup port against the
// Last.fm web service.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/haneul-labs/moodshift/internal/core/domain"
	"github.com/haneul-labs/moodshift/internal/core/ports"
)

const (
	defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"
	userAgent      = "moodshift/1.0"

	// Last.fm asks clients to stay under ~5 req/s.
	requestsPerSecond = 4
	requestBurst      = 4
)

// Client talks to the Last.fm API. All lookup failures are reported as
// errors so callers can collapse them to empty results explicitly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	log        *logrus.Logger
}

var _ ports.TagLookup = (*Client)(nil)

// NewClient constructs a Last.fm client. A missing API key is a
// configuration error, not a per-call one.
func NewClient(apiKey string, log *logrus.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("lastfm adapter: api key: %w", domain.ErrConfigMissing)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		log:        log,
	}, nil
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("lastfm adapter: rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("method", method)
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("lastfm adapter: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lastfm adapter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lastfm adapter: %s status %d", method, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("lastfm adapter: %s decode: %w", method, err)
	}
	return nil
}

// TopTagsForTrack returns the track's top tags, lowercased.
func (c *Client) TopTagsForTrack(ctx context.Context, artist, title string) ([]string, error) {
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("track", title)

	var body struct {
		TopTags struct {
			Tag []struct {
				Name string `json:"name"`
			} `json:"tag"`
		} `json:"toptags"`
	}
	if err := c.get(ctx, "track.getTopTags", params, &body); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(body.TopTags.Tag))
	for _, t := range body.TopTags.Tag {
		if t.Name != "" {
			tags = append(tags, strings.ToLower(t.Name))
		}
	}
	return tags, nil
}

// SimilarTracks returns tracks similar to the given one, bounded by limit.
func (c *Client) SimilarTracks(ctx context.Context, artist, title string, limit int) ([]domain.TrackRef, error) {
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("limit", strconv.Itoa(limit))

	var body struct {
		SimilarTracks struct {
			Track []wireTrack `json:"track"`
		} `json:"similartracks"`
	}
	if err := c.get(ctx, "track.getSimilar", params, &body); err != nil {
		return nil, err
	}
	return toTrackRefs(body.SimilarTracks.Track), nil
}

// TopTracksByTag returns the most popular tracks for a tag.
func (c *Client) TopTracksByTag(ctx context.Context, tag string, limit int) ([]domain.TrackRef, error) {
	params := url.Values{}
	params.Set("tag", tag)
	params.Set("limit", strconv.Itoa(limit))

	var body struct {
		Tracks struct {
			Track []wireTrack `json:"track"`
		} `json:"tracks"`
	}
	if err := c.get(ctx, "tag.getTopTracks", params, &body); err != nil {
		return nil, err
	}
	return toTrackRefs(body.Tracks.Track), nil
}

type wireTrack struct {
	Name   string `json:"name"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
}

func toTrackRefs(tracks []wireTrack) []domain.TrackRef {
	refs := make([]domain.TrackRef, 0, len(tracks))
	for _, t := range tracks {
		if t.Name == "" || t.Artist.Name == "" {
			continue
		}
		refs = append(refs, domain.TrackRef{
			Title:   t.Name,
			Artists: []string{t.Artist.Name},
		})
	}
	return refs
}
