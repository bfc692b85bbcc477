package feeds

import (
	"context"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/source"
)

// KindRSS identifies the news-feed adapter in the registry.
const KindRSS = "rss"

// RSSAdapter reads one RSS/Atom feed.
type RSSAdapter struct {
	spec     source.Spec
	client   *http.Client
	parser   *gofeed.Parser
	now      func() time.Time
	maxItems int
}

var _ source.Adapter = (*RSSAdapter)(nil)

// NewRSSAdapter wires an HTTP client; maxItems comes from the "maxItems" option (default 20).
func NewRSSAdapter(spec source.Spec, client *http.Client, now func() time.Time) *RSSAdapter {
	maxItems, err := strconv.Atoi(spec.Option("maxItems", "20"))
	if err != nil || maxItems <= 0 {
		maxItems = 20
	}
	return &RSSAdapter{
		spec:     spec,
		client:   defaultClient(client),
		parser:   gofeed.NewParser(),
		now:      nowOrSystem(now),
		maxItems: maxItems,
	}
}

// Name is the configured provider name; it doubles as the item source.
func (a *RSSAdapter) Name() string {
	return a.spec.Name
}

// Fetch downloads the feed and yields entries published after since.
func (a *RSSAdapter) Fetch(ctx context.Context, since time.Time) iter.Seq2[domain.RawCandidate, error] {
	return func(yield func(domain.RawCandidate, error) bool) {
		body, err := get(ctx, a.client, a.spec.URL)
		if err != nil {
			yield(domain.RawCandidate{}, source.UpstreamFailure(a.spec.Name, err))
			return
		}
		feed, err := a.parser.Parse(body)
		_ = body.Close()
		if err != nil {
			yield(domain.RawCandidate{}, source.UpstreamFailure(a.spec.Name, err))
			return
		}

		fetchedAt := a.now()
		for i, item := range feed.Items {
			if i >= a.maxItems {
				return
			}
			candidate, err := a.toCandidate(item, fetchedAt)
			if err != nil {
				if !yield(domain.RawCandidate{}, err) {
					return
				}
				continue
			}
			if !candidate.PublishedDate.IsZero() && candidate.PublishedDate.Before(since) {
				continue
			}
			if !yield(candidate, nil) {
				return
			}
		}
	}
}

func (a *RSSAdapter) toCandidate(item *gofeed.Item, fetchedAt time.Time) (domain.RawCandidate, error) {
	if item == nil {
		return domain.RawCandidate{}, source.Malformed("%s: empty entry", a.spec.Name)
	}
	title := cleanTitle(item.Title)
	if title == "" {
		return domain.RawCandidate{}, source.Malformed("%s: entry without title", a.spec.Name)
	}
	if strings.TrimSpace(item.Link) == "" {
		return domain.RawCandidate{}, source.Malformed("%s: entry %q without link", a.spec.Name, title)
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC()
	}

	return domain.RawCandidate{
		Title:         title,
		Content:       plainText(summary),
		Source:        a.spec.Name,
		Category:      a.spec.Category,
		URL:           strings.TrimSpace(item.Link),
		PublishedDate: published,
		FetchedAt:     fetchedAt,
	}, nil
}

// cleanTitle drops decorative leading symbols that some feeds prepend to headlines.
func cleanTitle(title string) string {
	title = strings.TrimLeftFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '@'
	})
	return collapse(title)
}

func nowOrSystem(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return func() time.Time { return time.Now().UTC() }
}
