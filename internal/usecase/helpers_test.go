package usecase

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/storage"
	"ContentCurator/internal/source"
)

var now = time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)

type yielded struct {
	cand domain.RawCandidate
	err  error
}

// stubAdapter replays a fixed sequence. With block set it waits for the context to end
// and then reports an upstream failure, like a hung provider hitting its timeout.
type stubAdapter struct {
	name   string
	seq    []yielded
	block  bool
	panics bool
}

func (s stubAdapter) Name() string { return s.name }

func (s stubAdapter) Fetch(ctx context.Context, _ time.Time) iter.Seq2[domain.RawCandidate, error] {
	return func(yield func(domain.RawCandidate, error) bool) {
		if s.panics {
			panic("provider exploded")
		}
		if s.block {
			<-ctx.Done()
			yield(domain.RawCandidate{}, source.UpstreamFailure(s.name, ctx.Err()))
			return
		}
		for _, y := range s.seq {
			if !yield(y.cand, y.err) {
				return
			}
		}
	}
}

func valid(cands ...domain.RawCandidate) []yielded {
	out := make([]yielded, 0, len(cands))
	for _, c := range cands {
		out = append(out, yielded{cand: c})
	}
	return out
}

// story scores 6.8: base, one business keyword, trade-press source weight and freshness.
func story(i int) domain.RawCandidate {
	return domain.RawCandidate{
		Title:         fmt.Sprintf("Ontario retail story %d", i),
		Content:       "Store counts keep growing across the province.",
		Source:        "StratCann",
		URL:           fmt.Sprintf("https://stratcann.ca/news/%d", i),
		PublishedDate: now.Add(-time.Hour),
		FetchedAt:     now,
	}
}

// breakingStory scores 9.4, which makes it priority 1 and featured.
func breakingStory(i int) domain.RawCandidate {
	return domain.RawCandidate{
		Title:         fmt.Sprintf("Ontario wholesale pricing strategy %d", i),
		Source:        "StratCann",
		URL:           fmt.Sprintf("https://stratcann.ca/breaking/%d", i),
		PublishedDate: now.Add(-time.Hour),
		FetchedAt:     now,
	}
}

func newRepo(t *testing.T) *storage.SQLRepository {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, storage.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.Migrate(ctx, db, storage.SQLite))

	return storage.NewSQLRepository(db, storage.SQLite)
}

type recordingNotifier struct {
	mu      sync.Mutex
	digests []string
	err     error
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests = append(n.digests, digest)
	return n.err
}

func (n *recordingNotifier) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.digests...)
}
