package domain

import "time"

// RawCandidate is an item as produced by a source adapter, before normalization.
type RawCandidate struct {
	Title         string
	Content       string
	Source        string
	Category      string
	URL           string
	PublishedDate time.Time
	// FetchedAt is when the adapter observed the item; recency is scored against it.
	FetchedAt time.Time
}
