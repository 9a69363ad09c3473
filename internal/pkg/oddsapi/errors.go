package oddsapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrProviderUnavailable covers network errors, timeouts, 5xx and undecodable bodies.
	ErrProviderUnavailable = errors.New("odds provider unavailable")
	// ErrProviderRejected means the API key was refused. Recoverable from cache, but an
	// operator has to fix the configuration.
	ErrProviderRejected = errors.New("odds provider rejected api key")
	// ErrMarketUnsupported is the provider's answer for a market the sport does not offer.
	// It is a legitimate empty result.
	ErrMarketUnsupported = errors.New("market unsupported for sport")
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps the status code onto the error taxonomy so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrProviderRejected
	case http.StatusUnprocessableEntity:
		return ErrMarketUnsupported
	}
	return ErrProviderUnavailable
}
