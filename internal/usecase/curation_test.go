package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/clock"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/storage"
	"ContentCurator/internal/scoring"
)

func seed(t *testing.T, repo *storage.SQLRepository, cands ...domain.RawCandidate) []int64 {
	t.Helper()
	n := scoring.NewNormalizer(scoring.DefaultRules())

	items := make([]domain.ContentItem, 0, len(cands))
	for _, c := range cands {
		item, err := n.Normalize(c)
		require.NoError(t, err)
		item.CreatedAt = now
		items = append(items, item)
	}

	outcomes, err := repo.InsertBatch(context.Background(), items)
	require.NoError(t, err)
	ids := make([]int64, 0, len(outcomes))
	for _, o := range outcomes {
		require.Equal(t, domain.Inserted, o.Result)
		ids = append(ids, o.ID)
	}
	return ids
}

func TestApproveStampsApprovalTime(t *testing.T) {
	repo := newRepo(t)
	ids := seed(t, repo, story(1))
	fake := clock.NewFake(now.Add(2 * time.Hour))
	curation := NewCuration(repo, fake, nil)

	item, err := curation.Approve(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, item.ComplianceStatus)
	require.NotNil(t, item.ApprovalTimestamp)
	assert.True(t, item.ApprovalTimestamp.Equal(now.Add(2*time.Hour)))

	fake.Advance(time.Hour)
	again, err := curation.Approve(context.Background(), ids[0])
	require.NoError(t, err, "approving twice is a no-op")
	assert.True(t, again.ApprovalTimestamp.Equal(now.Add(2*time.Hour)), "approval time must not move")
}

func TestRejectLeavesApprovalTimestampEmpty(t *testing.T) {
	repo := newRepo(t)
	ids := seed(t, repo, story(1))
	curation := NewCuration(repo, clock.NewFake(now), nil)

	item, err := curation.Reject(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, item.ComplianceStatus)
	assert.Nil(t, item.ApprovalTimestamp)

	_, err = curation.Reject(context.Background(), ids[0])
	require.NoError(t, err)
}

func TestTerminalStatesAreProtected(t *testing.T) {
	repo := newRepo(t)
	ids := seed(t, repo, story(1), story(2))
	curation := NewCuration(repo, clock.NewFake(now), nil)
	ctx := context.Background()

	_, err := curation.Approve(ctx, ids[0])
	require.NoError(t, err)
	_, err = curation.Reject(ctx, ids[0])
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = curation.Reject(ctx, ids[1])
	require.NoError(t, err)
	_, err = curation.Approve(ctx, ids[1])
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	approved, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.ComplianceStatus)
	assert.NotNil(t, approved.ApprovalTimestamp)

	rejected, err := repo.GetByID(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.ComplianceStatus)
	assert.Nil(t, rejected.ApprovalTimestamp)
}

func TestApprovalTimestampInvariantAcrossLifecycle(t *testing.T) {
	repo := newRepo(t)
	ids := seed(t, repo, story(1), story(2), story(3))
	curation := NewCuration(repo, clock.NewFake(now), nil)
	ctx := context.Background()

	_, err := curation.Approve(ctx, ids[0])
	require.NoError(t, err)
	_, err = curation.Reject(ctx, ids[1])
	require.NoError(t, err)

	for _, id := range ids {
		item, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, item.ComplianceStatus == domain.StatusApproved, item.ApprovalTimestamp != nil,
			"item %d: status %s", id, item.ComplianceStatus)
	}
}

func TestModerationOfUnknownItem(t *testing.T) {
	curation := NewCuration(newRepo(t), clock.NewFake(now), nil)

	_, err := curation.Approve(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = curation.Reject(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, curation.Deactivate(context.Background(), 404), domain.ErrNotFound)
}

func TestBulkModerationReportsPerItem(t *testing.T) {
	repo := newRepo(t)
	ids := seed(t, repo, story(1), story(2))
	curation := NewCuration(repo, clock.NewFake(now), nil)
	ctx := context.Background()

	_, err := curation.Reject(ctx, ids[1])
	require.NoError(t, err)

	results := curation.ApproveMany(ctx, []int64{ids[0], ids[1], 999})
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, domain.StatusApproved, results[0].Item.ComplianceStatus)
	assert.ErrorIs(t, results[1].Err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, results[2].Err, domain.ErrNotFound)

	results = curation.RejectMany(ctx, []int64{ids[1]})
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}

func TestCuratorOverrides(t *testing.T) {
	repo := newRepo(t)
	ids := seed(t, repo, story(1), story(2))
	curation := NewCuration(repo, clock.NewFake(now), nil)
	ctx := context.Background()

	assert.ErrorIs(t, curation.SetPriority(ctx, ids[0], 0), domain.ErrInvalidPriority)
	assert.ErrorIs(t, curation.SetPriority(ctx, ids[0], 6), domain.ErrInvalidPriority)
	require.NoError(t, curation.SetPriority(ctx, ids[1], domain.PriorityBreaking))
	require.NoError(t, curation.Feature(ctx, ids[0], true))

	pending, err := curation.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[1], pending[0].ID, "priority 1 comes first")
	assert.True(t, pending[1].EngagementMetrics.Featured)

	require.NoError(t, curation.Deactivate(ctx, ids[1]))
	pending, err = curation.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[0], pending[0].ID)

	deactivated, err := repo.GetByID(ctx, ids[1])
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
	assert.Equal(t, domain.StatusPending, deactivated.ComplianceStatus)
}

func TestPendingSkipsItemsOlderThanWindow(t *testing.T) {
	repo := newRepo(t)
	stale := story(2)
	stale.PublishedDate = now.Add(-PendingWindow - time.Hour)
	ids := seed(t, repo, story(1), stale)
	curation := NewCuration(repo, clock.NewFake(now), nil)

	pending, err := curation.Pending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[0], pending[0].ID)

	item, err := curation.Approve(context.Background(), ids[1])
	require.NoError(t, err, "old items can still be moderated by id")
	assert.Equal(t, domain.StatusApproved, item.ComplianceStatus)
}

func TestApprovedListsLiveItems(t *testing.T) {
	repo := newRepo(t)
	ids := seed(t, repo, story(1), story(2), breakingStory(3), story(4))
	fake := clock.NewFake(now)
	curation := NewCuration(repo, fake, nil)
	ctx := context.Background()

	for _, id := range ids[:3] {
		fake.Advance(time.Minute)
		_, err := curation.Approve(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, curation.Deactivate(ctx, ids[0]))

	approved, err := curation.Approved(ctx, 0)
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, ids[2], approved[0].ID, "breaking first")
	assert.Equal(t, ids[1], approved[1].ID)
	assert.Equal(t, 6.8, approved[1].EngagementMetrics.BusinessRelevanceScore)
}
