// Package deezer resolves (artist, title) candidates against the Deezer
// public search API, which needs no credentials.
package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/domain"
	"github.com/haneul-labs/moodshift/internal/core/ports"
)

const defaultBaseURL = "https://api.deezer.com"

// Client implements catalog search over Deezer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logrus.Logger
}

var _ ports.CatalogSearch = (*Client)(nil)

// NewClient constructs a Deezer client.
func NewClient(log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		log:        log,
	}
}

type wireHit struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
	Link    string `json:"link"`
	Artist  struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album struct {
		CoverMedium string `json:"cover_medium"`
	} `json:"album"`
}

// SearchByArtistTitle issues a fielded search and accepts the first hit.
// No hit at all is reported as a NoMatchError wrapping ports.ErrNoMatch.
func (c *Client) SearchByArtistTitle(ctx context.Context, artist, title string) (domain.MatchedTrack, error) {
	query := fmt.Sprintf(`artist:"%s" track:"%s"`, sanitize(artist), sanitize(title))
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return domain.MatchedTrack{}, fmt.Errorf("deezer adapter: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.MatchedTrack{}, fmt.Errorf("deezer adapter: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.MatchedTrack{}, fmt.Errorf("deezer adapter: search status %d", resp.StatusCode)
	}

	var body struct {
		Data []wireHit `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.MatchedTrack{}, fmt.Errorf("deezer adapter: decode: %w", err)
	}
	if len(body.Data) == 0 {
		return domain.MatchedTrack{}, &ports.NoMatchError{Artist: artist, Title: title}
	}

	hit := body.Data[0]
	return domain.MatchedTrack{
		Track: domain.TrackRef{
			Title:    hit.Title,
			Artists:  []string{hit.Artist.Name},
			SourceID: fmt.Sprintf("%d", hit.ID),
		},
		PreviewURL:  hit.Preview,
		ExternalURL: hit.Link,
		AlbumArt:    hit.Album.CoverMedium,
	}, nil
}

// sanitize strips quote characters that would break the fielded query.
func sanitize(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
