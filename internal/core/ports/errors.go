package ports

import (
	"errors"
	"fmt"
)

// ErrNoMatch indicates a catalog search produced no usable hit.
var ErrNoMatch = errors.New("no catalog match")

// NoMatchError carries the query that failed to match.
type NoMatchError struct {
	Artist string
	Title  string
}

func (e *NoMatchError) Error() string {
	if e.Artist == "" && e.Title == "" {
		return ErrNoMatch.Error()
	}
	return fmt.Sprintf("no catalog match for artist %q title %q", e.Artist, e.Title)
}

func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}
