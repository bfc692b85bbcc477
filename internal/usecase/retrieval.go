package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ContentCurator/internal/clock"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

const (
	DefaultLatestLimit = 20
	MaxLatestLimit     = 100

	DefaultPicksLimit = 5
	// PicksAge is how old an approved item must be to count as a pick.
	PicksAge   = 48 * time.Hour
	BannerSize = 5
)

// PublicItem is the read-side shape of an approved item.
type PublicItem struct {
	ID                int64                    `json:"id"`
	Title             string                   `json:"title"`
	Content           string                   `json:"content"`
	Source            string                   `json:"source"`
	Category          *string                  `json:"category"`
	URL               string                   `json:"url"`
	PublishedDate     time.Time                `json:"published_date"`
	Priority          int                      `json:"priority"`
	EngagementMetrics domain.EngagementMetrics `json:"engagement_metrics"`
}

// LatestResult is the envelope returned by Latest.
type LatestResult struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Items   []PublicItem `json:"items"`
}

// Retrieval serves the approved feed.
type Retrieval struct {
	repository   ports.ContentRepository
	clock        clock.Clock
	defaultLimit int
}

// NewRetrieval builds the read-side use case. defaultLimit <= 0 falls back to 20.
func NewRetrieval(repository ports.ContentRepository, clk clock.Clock, defaultLimit int) *Retrieval {
	if clk == nil {
		clk = clock.System{}
	}
	if defaultLimit <= 0 || defaultLimit > MaxLatestLimit {
		defaultLimit = DefaultLatestLimit
	}
	return &Retrieval{repository: repository, clock: clk, defaultLimit: defaultLimit}
}

// Latest returns active approved items, optionally of one category, newest first with
// featured items pinned ahead. Out of range limits are clamped rather than rejected.
func (r *Retrieval) Latest(ctx context.Context, category string, limit int) (LatestResult, error) {
	limit = r.clampLimit(limit)

	items, err := r.repository.ListLatest(ctx, ports.LatestQuery{Category: category, Limit: limit})
	if err != nil {
		return LatestResult{}, fmt.Errorf("latest items: %w", err)
	}

	pinFeatured(items)
	return newResult(items), nil
}

// Banner previews the first BannerSize entries of the latest feed.
func (r *Retrieval) Banner(ctx context.Context) (LatestResult, error) {
	return r.Latest(ctx, "", BannerSize)
}

// Picks returns approved items published more than PicksAge ago, best tier first.
func (r *Retrieval) Picks(ctx context.Context, limit int) (LatestResult, error) {
	switch {
	case limit <= 0:
		limit = DefaultPicksLimit
	case limit > MaxLatestLimit:
		limit = MaxLatestLimit
	}

	items, err := r.repository.ListPicks(ctx, ports.PicksQuery{
		PublishedBefore: r.clock.Now().Add(-PicksAge),
		Limit:           limit,
	})
	if err != nil {
		return LatestResult{}, fmt.Errorf("picks: %w", err)
	}
	return newResult(items), nil
}

func newResult(items []domain.ContentItem) LatestResult {
	out := make([]PublicItem, 0, len(items))
	for _, item := range items {
		out = append(out, ToPublic(item))
	}
	return LatestResult{Success: true, Count: len(out), Items: out}
}

func (r *Retrieval) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return r.defaultLimit
	case limit > MaxLatestLimit:
		return MaxLatestLimit
	}
	return limit
}

// pinFeatured moves featured items to the front ordered by priority. The stable sort
// keeps recency order within each group.
func pinFeatured(items []domain.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		fi, fj := items[i].EngagementMetrics.Featured, items[j].EngagementMetrics.Featured
		if fi != fj {
			return fi
		}
		if fi {
			return items[i].Priority < items[j].Priority
		}
		return false
	})
}

// ToPublic projects a stored item onto its read-side shape.
func ToPublic(item domain.ContentItem) PublicItem {
	return PublicItem{
		ID:                item.ID,
		Title:             item.Title,
		Content:           item.Content,
		Source:            item.Source,
		Category:          item.Category,
		URL:               item.URL,
		PublishedDate:     item.PublishedDate,
		Priority:          item.Priority,
		EngagementMetrics: item.EngagementMetrics,
	}
}
