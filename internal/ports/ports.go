package ports

import (
	"context"
	"time"

	"ContentCurator/internal/domain"
)

// LatestQuery selects approved, active items for the public feed.
type LatestQuery struct {
	Category string
	Limit    int
}

// PendingQuery selects the curator review queue. A zero PublishedAfter disables the window.
type PendingQuery struct {
	PublishedAfter time.Time
	Limit          int
}

// PicksQuery selects approved items that have aged out of the latest feed.
type PicksQuery struct {
	PublishedBefore time.Time
	Limit           int
}

// ContentRepository persists content items keyed by fingerprint.
type ContentRepository interface {
	// InsertBatch inserts every item whose fingerprint is absent, atomically: either all
	// outcomes are committed or an error wrapping domain.ErrStoreUnavailable is returned.
	InsertBatch(ctx context.Context, items []domain.ContentItem) ([]domain.InsertOutcome, error)
	InsertIfNew(ctx context.Context, item domain.ContentItem) (domain.InsertOutcome, error)
	GetByFingerprint(ctx context.Context, hash string) (domain.ContentItem, error)
	GetByID(ctx context.Context, id int64) (domain.ContentItem, error)
	// TransitionCompliance moves id from one status to another only if it is currently in from.
	// It reports whether a row changed.
	TransitionCompliance(ctx context.Context, id int64, from, to domain.ComplianceStatus, approvedAt *time.Time) (bool, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetPriority(ctx context.Context, id int64, priority int) error
	SetFeatured(ctx context.Context, id int64, featured bool) error
	ListLatest(ctx context.Context, q LatestQuery) ([]domain.ContentItem, error)
	ListPending(ctx context.Context, q PendingQuery) ([]domain.ContentItem, error)
	// ListApproved returns active approved items by priority, most recently approved first.
	ListApproved(ctx context.Context, limit int) ([]domain.ContentItem, error)
	ListPicks(ctx context.Context, q PicksQuery) ([]domain.ContentItem, error)
}

// Notifier pushes curator alerts to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when refresh runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
