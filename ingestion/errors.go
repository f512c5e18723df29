package ingestion

import "errors"

var (
	// ErrPageRepositoryRequired is returned when a page repository is not provided.
	ErrPageRepositoryRequired = errors.New("page repository required")

	// ErrMalformedRecord is returned for snapshot lines that do not describe a page.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrTooManyMalformed is returned when the number of malformed lines exceeds the limit.
	ErrTooManyMalformed = errors.New("too many malformed records")
)
