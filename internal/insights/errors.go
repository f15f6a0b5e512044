package insights

import "errors"

var (
	// ErrRetrievalFailure is the single failure kind of a fetch cycle. It covers
	// network errors, non-success responses and malformed payloads from either
	// the historical or the seasonal request.
	ErrRetrievalFailure = errors.New("failed to fetch insights data")

	ErrUnknownGranularity = errors.New("unknown granularity")
	ErrInvalidWindowSize  = errors.New("window size not allowed for granularity")
	ErrYearUnavailable    = errors.New("year not available")
	ErrControllerStopped  = errors.New("insights controller is not running")
)
