package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrRequestInFlight = errors.New("a recommendation request is already in flight")
	ErrEmptyQuery      = errors.New("query is required")
	ErrUnknownProfile  = errors.New("unknown profile")

	ErrUpstreamUnavailable = errors.New("recommender unavailable")
)

// UpstreamError is a reply from the recommender that carried an error
// status or success=false. Message is shown to the user as-is.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }
