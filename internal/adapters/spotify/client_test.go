package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens, err := NewTokenManager("id", "secret")
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}
	// Point the credential exchange at a stub that always succeeds.
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"app-token","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenSrv.Close)
	tokens.conf.TokenURL = tokenSrv.URL

	c := NewClient(tokens, testLogger())
	c.baseURL = srv.URL
	return c
}

func TestParsePlaylistID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"share url", "https://open.spotify.com/playlist/37i9dQZF1DX4WYpdgoIcn6?si=abc", "37i9dQZF1DX4WYpdgoIcn6", false},
		{"uri", "spotify:playlist:37i9dQZF1DX4WYpdgoIcn6", "37i9dQZF1DX4WYpdgoIcn6", false},
		{"bare id", "37i9dQZF1DX4WYpdgoIcn6", "37i9dQZF1DX4WYpdgoIcn6", false},
		{"whitespace trimmed", "  37i9dQZF1DX4WYpdgoIcn6 ", "37i9dQZF1DX4WYpdgoIcn6", false},
		{"garbage", "https://example.com/nothing", "", true},
		{"empty", "", "", true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePlaylistID(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPlaylistTrackPairs_SkipsLocalAndEpisodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[
			{"is_local": false, "track": {"id": "t1", "name": "Keep Me", "type": "track", "artists": [{"name": "A"}, {"name": "B"}]}},
			{"is_local": true,  "track": {"id": "t2", "name": "Local File", "type": "track", "artists": [{"name": "C"}]}},
			{"is_local": false, "track": {"id": "t3", "name": "Podcast", "type": "episode", "artists": [{"name": "D"}]}},
			{"is_local": false, "track": null}
		], "next": ""}`))
	})

	refs, err := c.PlaylistTrackPairs(context.Background(), "pl-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 ref, got %d", len(refs))
	}
	if refs[0].Title != "Keep Me" || len(refs[0].Artists) != 2 || refs[0].SourceID != "t1" {
		t.Fatalf("unexpected ref %+v", refs[0])
	}
}

func TestPlaylistTrackPairs_Paginates(t *testing.T) {
	var pages atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := pages.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		items := make([]map[string]any, 0, 100)
		for i := 0; i < 100; i++ {
			items = append(items, map[string]any{
				"is_local": false,
				"track": map[string]any{
					"id":      fmt.Sprintf("t%d", offset+i),
					"name":    fmt.Sprintf("Track %d", offset+i),
					"type":    "track",
					"artists": []map[string]any{{"name": "A"}},
				},
			})
		}
		next := "more"
		if page >= 3 {
			next = ""
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items, "next": next})
	})

	refs, err := c.PlaylistTrackPairs(context.Background(), "pl-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 200 {
		t.Fatalf("expected cap at 200 pairs, got %d", len(refs))
	}
	if got := pages.Load(); got != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", got)
	}
}

func TestRecentlyPlayed(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantLen int
		wantErr error
	}{
		{"ok", http.StatusOK, `{"items":[{"track":{"id":"t1"}},{"track":{"id":"t2"}}]}`, 2, nil},
		{"no history", http.StatusNoContent, "", 0, nil},
		{"expired token", http.StatusUnauthorized, "", 0, domain.ErrAuthExpired},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
					t.Errorf("unexpected auth header %q", got)
				}
				w.WriteHeader(tc.status)
				if tc.body != "" {
					w.Write([]byte(tc.body))
				}
			})
			ids, err := c.RecentlyPlayed(context.Background(), "user-token", 50)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(ids) != tc.wantLen {
				t.Fatalf("expected %d ids, got %d", tc.wantLen, len(ids))
			}
		})
	}
}

func TestBatchTrackInfo_Chunks(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		ids := r.URL.Query().Get("ids")
		if len(ids) == 0 {
			t.Error("missing ids param")
		}
		w.Write([]byte(`{"tracks":[{"id":"x","name":"N","artists":[{"name":"A"}],"album":{"name":"Al","images":[{"url":"u"}]},"external_urls":{"spotify":"e"},"popularity":42}]}`))
	})

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}
	info, err := c.BatchTrackInfo(context.Background(), "user-token", ids, "US")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 chunked calls for 120 ids, got %d", got)
	}
	if len(info) != 3 {
		t.Fatalf("expected 3 aggregated rows, got %d", len(info))
	}
	if info[0].Artists != "A" || info[0].Popularity != 42 {
		t.Fatalf("unexpected info %+v", info[0])
	}
}

func TestDoJSON_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"items":[{"track":{"id":"t1"}}]}`))
	})

	ids, err := c.RecentlyPlayed(context.Background(), "user-token", 10)
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 id, got %d", len(ids))
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestAddTracks_Chunks(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body struct {
			URIs []string `json:"uris"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if len(body.URIs) > 100 {
			t.Errorf("chunk too large: %d", len(body.URIs))
		}
		for _, uri := range body.URIs {
			if uri[:14] != "spotify:track:" {
				t.Errorf("unexpected uri %q", uri)
			}
		}
		w.WriteHeader(http.StatusCreated)
	})

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}
	if err := c.AddTracks(context.Background(), "user-token", "pl-1", ids); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 chunked calls, got %d", got)
	}
}

func TestCreatePlaylist(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Opposite Mood" {
			t.Errorf("unexpected name %v", body["name"])
		}
		w.Write([]byte(`{"id":"new-pl"}`))
	})
	id, err := c.CreatePlaylist(context.Background(), "user-token", "user-1", "Opposite Mood", "generated", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "new-pl" {
		t.Fatalf("unexpected playlist id %q", id)
	}
}
