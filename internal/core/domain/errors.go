package domain

import "errors"

var (
	// ErrEmptyResult is raised when every collection tier has been
	// exhausted and matching still produced zero tracks. It is the only
	// failure the pipeline itself reports.
	ErrEmptyResult = errors.New("domain: no matched candidates after all fallback tiers")

	// ErrAuthExpired signals that a user-scoped collaborator rejected the
	// supplied credentials. The caller may refresh and retry exactly once.
	ErrAuthExpired = errors.New("domain: authorization expired")

	// ErrConfigMissing indicates required API credentials are absent.
	// Raised at startup, never retried.
	ErrConfigMissing = errors.New("domain: required configuration missing")

	// ErrNotFound is returned by stores for unknown records.
	ErrNotFound = errors.New("domain: not found")
)
