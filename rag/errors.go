package rag

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrEmptyQuery is returned for a blank query.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNoDocuments is returned when the source yields nothing to index.
	ErrNoDocuments = errors.New("source returned no documents")

	// ErrEmptyAnswer is returned when the model replies with no content.
	ErrEmptyAnswer = errors.New("model returned an empty answer")

	// ErrServiceUnavailable marks a generation or embedding failure caused by
	// the model endpoint being unavailable (HTTP 503).
	ErrServiceUnavailable = errors.New("model service unavailable")
)

var unavailablePattern = regexp.MustCompile(`(?i)service unavailable|status(?: code)?:?\s*503\b`)

// IsServiceUnavailable reports whether err is, or reads like, an HTTP 503 from
// the model endpoint.
func IsServiceUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return true
	}
	return unavailablePattern.MatchString(err.Error())
}

// WrapGenerationError marks service-unavailable failures with
// ErrServiceUnavailable and returns every other error unchanged.
func WrapGenerationError(err error) error {
	if err == nil || errors.Is(err, ErrServiceUnavailable) {
		return err
	}
	if IsServiceUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return err
}
