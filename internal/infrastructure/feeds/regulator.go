package feeds

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/source"
)

// KindRegulator identifies the notice-page scraper in the registry.
const KindRegulator = "regulator"

var isoDateExpr = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// RegulatorAdapter scrapes a regulator's notice listing page.
// Items are located with CSS selectors from the options:
// "itemSelector" (default "li.notice"), "titleSelector" (default "a"),
// "dateSelector" (default "time").
type RegulatorAdapter struct {
	spec     source.Spec
	client   *http.Client
	now      func() time.Time
	itemSel  string
	titleSel string
	dateSel  string
}

var _ source.Adapter = (*RegulatorAdapter)(nil)

// NewRegulatorAdapter validates the page URL and wires an HTTP client.
func NewRegulatorAdapter(spec source.Spec, client *http.Client, now func() time.Time) (*RegulatorAdapter, error) {
	if _, err := url.Parse(spec.URL); err != nil || spec.URL == "" {
		return nil, fmt.Errorf("regulator source %s: invalid url %q", spec.Name, spec.URL)
	}
	return &RegulatorAdapter{
		spec:     spec,
		client:   defaultClient(client),
		now:      nowOrSystem(now),
		itemSel:  spec.Option("itemSelector", "li.notice"),
		titleSel: spec.Option("titleSelector", "a"),
		dateSel:  spec.Option("dateSelector", "time"),
	}, nil
}

// Name is the configured provider name.
func (a *RegulatorAdapter) Name() string {
	return a.spec.Name
}

// Fetch downloads the page once and yields one candidate per matched item.
func (a *RegulatorAdapter) Fetch(ctx context.Context, since time.Time) iter.Seq2[domain.RawCandidate, error] {
	return func(yield func(domain.RawCandidate, error) bool) {
		doc, err := a.fetchDocument(ctx)
		if err != nil {
			yield(domain.RawCandidate{}, source.UpstreamFailure(a.spec.Name, err))
			return
		}

		base, _ := url.Parse(a.spec.URL)
		fetchedAt := a.now()
		items := doc.Find(a.itemSel)
		for i := range items.Nodes {
			candidate, err := a.parseEntry(items.Eq(i), base, fetchedAt)
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

func (a *RegulatorAdapter) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	body, err := get(ctx, a.client, a.spec.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func (a *RegulatorAdapter) parseEntry(item *goquery.Selection, base *url.URL, fetchedAt time.Time) (domain.RawCandidate, error) {
	link := item.Find(a.titleSel).First()
	title := collapse(link.Text())
	if title == "" {
		return domain.RawCandidate{}, source.Malformed("%s: notice without title", a.spec.Name)
	}

	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return domain.RawCandidate{}, source.Malformed("%s: notice %q without link", a.spec.Name, title)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return domain.RawCandidate{}, source.Malformed("%s: notice %q has bad link: %v", a.spec.Name, title, err)
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}

	summary := item.Clone()
	summary.Find(a.titleSel).Remove()
	summary.Find(a.dateSel).Remove()

	return domain.RawCandidate{
		Title:         title,
		Content:       collapse(summary.Text()),
		Source:        a.spec.Name,
		Category:      a.spec.Category,
		URL:           ref.String(),
		PublishedDate: parseNoticeDate(item.Find(a.dateSel).First()),
		FetchedAt:     fetchedAt,
	}, nil
}

// parseNoticeDate prefers the machine-readable datetime attribute and falls back to the
// first ISO date in the element text. Unknown dates yield the zero time.
func parseNoticeDate(sel *goquery.Selection) time.Time {
	if sel.Length() == 0 {
		return time.Time{}
	}
	if attr, ok := sel.Attr("datetime"); ok {
		if t, err := time.Parse(time.RFC3339, attr); err == nil {
			return t.UTC()
		}
		if t, err := time.Parse("2006-01-02", attr); err == nil {
			return t
		}
	}
	if match := isoDateExpr.FindString(sel.Text()); match != "" {
		if t, err := time.Parse("2006-01-02", match); err == nil {
			return t
		}
	}
	return time.Time{}
}
