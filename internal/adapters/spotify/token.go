package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/haneul-labs/moodshift/internal/core/domain"
)

const (
	tokenURL = "https://accounts.spotify.com/api/token"

	// Tokens are treated as expired this far before their real expiry so a
	// request never leaves with a token about to lapse mid-flight.
	expirySkew = 20 * time.Second
)

// TokenManager holds an app-level client-credentials token and refreshes
// it on demand. Refresh is idempotent under races: concurrent callers may
// both fetch, the last write wins, and either token is valid.
type TokenManager struct {
	conf    *clientcredentials.Config
	current atomic.Pointer[oauth2.Token]
}

// NewTokenManager validates the credentials and returns a manager with no
// token yet; the first Token call fetches one.
func NewTokenManager(clientID, clientSecret string) (*TokenManager, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("spotify adapter: client credentials: %w", domain.ErrConfigMissing)
	}
	return &TokenManager{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
	}, nil
}

// Token returns a bearer token, fetching a fresh one when the cached token
// is absent or inside the expiry skew.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if tok := m.current.Load(); tok != nil && time.Until(tok.Expiry) > expirySkew {
		return tok.AccessToken, nil
	}
	tok, err := m.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("spotify adapter: token fetch: %w", err)
	}
	m.current.Store(tok)
	return tok.AccessToken, nil
}

// Invalidate drops the cached token so the next Token call refetches.
func (m *TokenManager) Invalidate() {
	m.current.Store(nil)
}

// UserTokenRefresher exchanges user refresh tokens through the standard
// authorization-code refresh grant.
type UserTokenRefresher struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewUserTokenRefresher constructs a refresher for user-scoped tokens.
func NewUserTokenRefresher(clientID, clientSecret string) (*UserTokenRefresher, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("spotify adapter: client credentials: %w", domain.ErrConfigMissing)
	}
	return &UserTokenRefresher{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Refresh trades a refresh token for a new access token. Spotify may rotate
// the refresh token; when it does not, the old one is returned unchanged.
func (r *UserTokenRefresher) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	conf := &oauth2.Config{
		ClientID:     r.clientID,
		ClientSecret: r.clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		if isInvalidGrant(err) {
			return "", "", fmt.Errorf("spotify adapter: refresh rejected: %w", domain.ErrAuthExpired)
		}
		return "", "", fmt.Errorf("spotify adapter: token refresh: %w", err)
	}
	next := tok.RefreshToken
	if next == "" {
		next = refreshToken
	}
	return tok.AccessToken, next, nil
}

func isInvalidGrant(err error) bool {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return rerr.Response != nil && rerr.Response.StatusCode == http.StatusBadRequest &&
			strings.Contains(string(rerr.Body), "invalid_grant")
	}
	return false
}
