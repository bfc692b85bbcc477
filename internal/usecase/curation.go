package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ContentCurator/internal/clock"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

const (
	defaultPendingLimit  = 50
	defaultApprovedLimit = 100
	// PendingWindow limits the review queue to recently published items.
	PendingWindow = 48 * time.Hour
)

// Curation is the moderation workflow: pending items become approved or rejected, and
// both outcomes are final.
type Curation struct {
	repository ports.ContentRepository
	clock      clock.Clock
	logger     *slog.Logger
}

// NewCuration builds the moderation use case.
func NewCuration(repository ports.ContentRepository, clk clock.Clock, logger *slog.Logger) *Curation {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Curation{repository: repository, clock: clk, logger: logger}
}

// Approve moves a pending item to approved and stamps the approval time.
// Approving an already approved item is a no-op.
func (c *Curation) Approve(ctx context.Context, id int64) (domain.ContentItem, error) {
	now := c.clock.Now()
	return c.transition(ctx, id, domain.StatusApproved, &now)
}

// Reject moves a pending item to rejected. Rejecting an already rejected item is a no-op.
func (c *Curation) Reject(ctx context.Context, id int64) (domain.ContentItem, error) {
	return c.transition(ctx, id, domain.StatusRejected, nil)
}

func (c *Curation) transition(ctx context.Context, id int64, to domain.ComplianceStatus, approvedAt *time.Time) (domain.ContentItem, error) {
	changed, err := c.repository.TransitionCompliance(ctx, id, domain.StatusPending, to, approvedAt)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("%s item %d: %w", to, id, err)
	}

	item, err := c.repository.GetByID(ctx, id)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("%s item %d: %w", to, id, err)
	}
	if changed {
		c.logger.Info("compliance status changed", "id", id, "status", to)
		return item, nil
	}

	// Nothing changed: either a repeat of the same decision or a conflicting one.
	if item.ComplianceStatus == to {
		return item, nil
	}
	return item, fmt.Errorf("item %d is %s, cannot become %s: %w", id, item.ComplianceStatus, to, domain.ErrInvalidTransition)
}

// BulkResult reports the outcome of one id in a bulk moderation call.
type BulkResult struct {
	ID   int64
	Item domain.ContentItem
	Err  error
}

// ApproveMany approves every id independently; one failure does not stop the others.
func (c *Curation) ApproveMany(ctx context.Context, ids []int64) []BulkResult {
	return c.bulk(ctx, ids, c.Approve)
}

// RejectMany rejects every id independently.
func (c *Curation) RejectMany(ctx context.Context, ids []int64) []BulkResult {
	return c.bulk(ctx, ids, c.Reject)
}

func (c *Curation) bulk(ctx context.Context, ids []int64, op func(context.Context, int64) (domain.ContentItem, error)) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		item, err := op(ctx, id)
		results = append(results, BulkResult{ID: id, Item: item, Err: err})
	}
	return results
}

// Deactivate hides an item from retrieval without touching its compliance status.
func (c *Curation) Deactivate(ctx context.Context, id int64) error {
	if err := c.repository.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("deactivate item %d: %w", id, err)
	}
	c.logger.Info("item deactivated", "id", id)
	return nil
}

// SetPriority overrides the scored priority tier.
func (c *Curation) SetPriority(ctx context.Context, id int64, priority int) error {
	if !domain.ValidPriority(priority) {
		return fmt.Errorf("set priority %d on item %d: %w", priority, id, domain.ErrInvalidPriority)
	}
	if err := c.repository.SetPriority(ctx, id, priority); err != nil {
		return fmt.Errorf("set priority on item %d: %w", id, err)
	}
	c.logger.Info("priority changed", "id", id, "priority", priority, "tier", domain.PriorityName(priority))
	return nil
}

// Feature pins or unpins an item at the top of the latest feed.
func (c *Curation) Feature(ctx context.Context, id int64, featured bool) error {
	if err := c.repository.SetFeatured(ctx, id, featured); err != nil {
		return fmt.Errorf("feature item %d: %w", id, err)
	}
	return nil
}

// Pending returns the review queue, most important first. Items published more than
// PendingWindow ago drop out of it.
func (c *Curation) Pending(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	items, err := c.repository.ListPending(ctx, ports.PendingQuery{
		PublishedAfter: c.clock.Now().Add(-PendingWindow),
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return items, nil
}

// Approved lists what is live, by priority and then most recently approved.
func (c *Curation) Approved(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	if limit <= 0 {
		limit = defaultApprovedLimit
	}
	items, err := c.repository.ListApproved(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list approved: %w", err)
	}
	return items, nil
}
