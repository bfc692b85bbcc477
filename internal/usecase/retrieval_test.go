package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/clock"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/storage"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/source"
)

func approveAll(t *testing.T, repo *storage.SQLRepository, ids ...int64) {
	t.Helper()
	curation := NewCuration(repo, clock.NewFake(now), nil)
	for _, id := range ids {
		_, err := curation.Approve(context.Background(), id)
		require.NoError(t, err)
	}
}

func TestLatestOrdersByPublishedThenCreated(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	d1, d2, d3 := story(1), story(2), story(3)
	d1.PublishedDate = now.Add(-time.Hour)
	d2.PublishedDate = now.Add(-3 * time.Hour)
	d3.PublishedDate = now.Add(-3 * time.Hour)

	// d2 and d3 share a publication date; d3 is ingested later and must come first.
	first := seed(t, repo, d1, d2)
	fake := clock.NewFake(now.Add(time.Minute))
	refresh := newRefresh(t, RefreshDeps{
		Adapters:   []source.Adapter{stubAdapter{name: "late", seq: valid(d3)}},
		Repository: repo,
		Clock:      fake,
	})
	report, err := refresh.RunRefresh(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Inserted)

	approveAll(t, repo, first[0], first[1], report.Outcomes[0].ID)

	result, err := NewRetrieval(repo, nil, 0).Latest(ctx, "", 10)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Equal(t, 3, result.Count)
	assert.Equal(t, []string{d1.Title, d3.Title, d2.Title}, titles(result))
}

func TestLatestFiltersCategoryAndInactive(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	regulatory := story(1)
	regulatory.Category = "Regulatory"
	community := story(2)
	community.Category = "Community"
	hidden := story(3)
	hidden.Category = "Regulatory"
	pending := story(4)
	pending.Category = "Regulatory"

	ids := seed(t, repo, regulatory, community, hidden, pending)
	approveAll(t, repo, ids[0], ids[1], ids[2])
	require.NoError(t, NewCuration(repo, nil, nil).Deactivate(ctx, ids[2]))

	result, err := NewRetrieval(repo, nil, 20).Latest(ctx, "Regulatory", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{regulatory.Title}, titles(result))

	none, err := NewRetrieval(repo, nil, 20).Latest(ctx, "Lifestyle", 5)
	require.NoError(t, err)
	assert.True(t, none.Success)
	assert.Zero(t, none.Count)
	assert.NotNil(t, none.Items)
}

func TestLatestPinsFeaturedByPriority(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	a, b, c, d := story(1), story(2), story(3), story(4)
	a.PublishedDate = now.Add(-1 * time.Hour)
	b.PublishedDate = now.Add(-2 * time.Hour)
	c.PublishedDate = now.Add(-3 * time.Hour)
	d.PublishedDate = now.Add(-4 * time.Hour)
	ids := seed(t, repo, a, b, c, d)
	approveAll(t, repo, ids...)

	curation := NewCuration(repo, nil, nil)
	require.NoError(t, curation.Feature(ctx, ids[2], true))
	require.NoError(t, curation.Feature(ctx, ids[3], true))
	require.NoError(t, curation.SetPriority(ctx, ids[3], domain.PriorityBreaking))

	result, err := NewRetrieval(repo, nil, 20).Latest(ctx, "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{d.Title, c.Title, a.Title, b.Title}, titles(result))
}

type limitRecorder struct {
	ports.ContentRepository
	got []int
	err error
}

func (l *limitRecorder) ListLatest(_ context.Context, q ports.LatestQuery) ([]domain.ContentItem, error) {
	l.got = append(l.got, q.Limit)
	return nil, l.err
}

func TestLatestClampsLimit(t *testing.T) {
	t.Parallel()

	rec := &limitRecorder{}
	retrieval := NewRetrieval(rec, nil, 0)
	for _, limit := range []int{-5, 0, 7, 100, 101, 5000} {
		result, err := retrieval.Latest(context.Background(), "", limit)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Count)
		assert.NotNil(t, result.Items)
	}
	assert.Equal(t, []int{20, 20, 7, 100, 100, 100}, rec.got)
}

func TestLatestPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	rec := &limitRecorder{err: errors.New("store unavailable")}
	_, err := NewRetrieval(rec, nil, 0).Latest(context.Background(), "", 1)
	assert.Error(t, err)
}

func TestLatestResultJSON(t *testing.T) {
	t.Parallel()

	category := "Regulatory"
	raw, err := json.Marshal(LatestResult{Success: true, Count: 1, Items: []PublicItem{ToPublic(domain.ContentItem{
		ID:                7,
		Title:             "Licence renewals",
		Source:            "Health Canada",
		Category:          &category,
		URL:               "https://canada.ca/licences",
		PublishedDate:     now,
		Priority:          2,
		ComplianceStatus:  domain.StatusApproved,
		EngagementMetrics: domain.EngagementMetrics{BusinessRelevanceScore: 6.5},
	})}})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": true,
		"count": 1,
		"items": [{
			"id": 7,
			"title": "Licence renewals",
			"content": "",
			"source": "Health Canada",
			"category": "Regulatory",
			"url": "https://canada.ca/licences",
			"published_date": "2025-11-08T12:00:00Z",
			"priority": 2,
			"engagement_metrics": {"business_relevance_score": 6.5}
		}]
	}`, string(raw))
}

func titles(result LatestResult) []string {
	out := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		out = append(out, item.Title)
	}
	return out
}

func TestPicksReturnsAgedApprovedItems(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	recent, aged, oldest := story(1), story(2), story(3)
	aged.PublishedDate = now.Add(-PicksAge - time.Hour)
	oldest.PublishedDate = now.Add(-5 * 24 * time.Hour)
	ids := seed(t, repo, recent, aged, oldest)
	approveAll(t, repo, ids...)
	require.NoError(t, NewCuration(repo, nil, nil).SetPriority(ctx, ids[2], domain.PriorityBreaking))

	result, err := NewRetrieval(repo, clock.NewFake(now), 20).Picks(ctx, 0)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{oldest.Title, aged.Title}, titles(result))
}

type picksRecorder struct {
	ports.ContentRepository
	got []ports.PicksQuery
}

func (p *picksRecorder) ListPicks(_ context.Context, q ports.PicksQuery) ([]domain.ContentItem, error) {
	p.got = append(p.got, q)
	return nil, nil
}

func TestPicksClampsLimitAndUsesClock(t *testing.T) {
	t.Parallel()

	rec := &picksRecorder{}
	retrieval := NewRetrieval(rec, clock.NewFake(now), 0)
	for _, limit := range []int{0, 3, 500} {
		_, err := retrieval.Picks(context.Background(), limit)
		require.NoError(t, err)
	}

	require.Len(t, rec.got, 3)
	assert.Equal(t, DefaultPicksLimit, rec.got[0].Limit)
	assert.Equal(t, 3, rec.got[1].Limit)
	assert.Equal(t, MaxLatestLimit, rec.got[2].Limit)
	assert.True(t, rec.got[0].PublishedBefore.Equal(now.Add(-PicksAge)))
}

func TestBannerShowsTopOfFeed(t *testing.T) {
	repo := newRepo(t)
	var cands []domain.RawCandidate
	for i := 1; i <= BannerSize+2; i++ {
		c := story(i)
		c.PublishedDate = now.Add(-time.Duration(i) * time.Minute)
		cands = append(cands, c)
	}
	approveAll(t, repo, seed(t, repo, cands...)...)

	result, err := NewRetrieval(repo, nil, 0).Banner(context.Background())
	require.NoError(t, err)
	require.Equal(t, BannerSize, result.Count)
	assert.Equal(t, cands[0].Title, result.Items[0].Title)
}
