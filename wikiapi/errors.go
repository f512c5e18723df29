package wikiapi

import "errors"

var (
	// ErrEndpointRequired is returned when no API endpoint is configured.
	ErrEndpointRequired = errors.New("API endpoint required")

	// ErrUnexpectedStatus is returned for non-200 API responses.
	ErrUnexpectedStatus = errors.New("unexpected API status")

	// ErrMalformedResponse is returned when a response cannot be decoded.
	ErrMalformedResponse = errors.New("malformed API response")

	// ErrAPI is returned when the API reports an error in its response body.
	ErrAPI = errors.New("API error")
)
