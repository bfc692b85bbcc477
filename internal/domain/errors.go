package domain

import "errors"

var (
	// ErrDuplicateFingerprint marks an item whose fingerprint is already stored.
	// The insert path reports it as an outcome; it is exported for callers that need an error value.
	ErrDuplicateFingerprint = errors.New("duplicate fingerprint")
	ErrInvalidTransition    = errors.New("invalid compliance transition")
	ErrUpstreamFetch        = errors.New("upstream fetch failure")
	ErrMalformedCandidate   = errors.New("malformed candidate")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrNotFound             = errors.New("content item not found")
	ErrInvalidPriority      = errors.New("priority must be between 1 and 5")
)
