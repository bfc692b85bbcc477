package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/source"
)

// KindForum identifies the community-listing adapter in the registry.
const KindForum = "forum"

const defaultForumBase = "https://www.reddit.com"

// ForumAdapter reads the hot listing of several communities from a Reddit-compatible JSON API.
type ForumAdapter struct {
	spec        source.Spec
	client      *http.Client
	limiter     *rate.Limiter
	now         func() time.Time
	base        string
	linkBase    string
	communities []string
	limit       int
}

var _ source.Adapter = (*ForumAdapter)(nil)

// NewForumAdapter reads options "communities" (comma separated), "limit" (default 10),
// "linkBase" and "requestsPerSecond" (default 1).
func NewForumAdapter(spec source.Spec, client *http.Client, now func() time.Time) (*ForumAdapter, error) {
	var communities []string
	for _, c := range strings.Split(spec.Option("communities", ""), ",") {
		if c = strings.TrimSpace(c); c != "" {
			communities = append(communities, c)
		}
	}
	if len(communities) == 0 {
		return nil, fmt.Errorf("forum source %s: no communities configured", spec.Name)
	}

	limit, err := strconv.Atoi(spec.Option("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	rps, err := strconv.ParseFloat(spec.Option("requestsPerSecond", "1"), 64)
	if err != nil || rps <= 0 {
		rps = 1
	}

	base := strings.TrimSuffix(spec.URL, "/")
	if base == "" {
		base = defaultForumBase
	}

	return &ForumAdapter{
		spec:        spec,
		client:      defaultClient(client),
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		now:         nowOrSystem(now),
		base:        base,
		linkBase:    strings.TrimSuffix(spec.Option("linkBase", base), "/"),
		communities: communities,
		limit:       limit,
	}, nil
}

// Name is the configured provider name.
func (a *ForumAdapter) Name() string {
	return a.spec.Name
}

type listing struct {
	Data struct {
		Children []struct {
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

// Fetch walks the communities in order, one paced request each.
func (a *ForumAdapter) Fetch(ctx context.Context, since time.Time) iter.Seq2[domain.RawCandidate, error] {
	return func(yield func(domain.RawCandidate, error) bool) {
		for _, community := range a.communities {
			page, err := a.fetchListing(ctx, community)
			if err != nil {
				yield(domain.RawCandidate{}, source.UpstreamFailure(a.spec.Name, err))
				return
			}

			fetchedAt := a.now()
			for _, child := range page.Data.Children {
				candidate, err := a.toCandidate(community, child.Data, fetchedAt)
				if err != nil {
					if !yield(domain.RawCandidate{}, err) {
						return
					}
					continue
				}
				if candidate.PublishedDate.Before(since) {
					continue
				}
				if !yield(candidate, nil) {
					return
				}
			}
		}
	}
}

func (a *ForumAdapter) fetchListing(ctx context.Context, community string) (listing, error) {
	var page listing
	if err := a.limiter.Wait(ctx); err != nil {
		return page, fmt.Errorf("rate limit: %w", err)
	}

	target := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", a.base, url.PathEscape(community), a.limit)
	body, err := get(ctx, a.client, target)
	if err != nil {
		return page, err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(&page); err != nil {
		return page, fmt.Errorf("decode r/%s: %w", community, err)
	}
	return page, nil
}

func (a *ForumAdapter) toCandidate(community string, raw json.RawMessage, fetchedAt time.Time) (domain.RawCandidate, error) {
	var p post
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.RawCandidate{}, source.Malformed("r/%s: %v", community, err)
	}
	title := collapse(p.Title)
	if title == "" || p.Permalink == "" {
		return domain.RawCandidate{}, source.Malformed("r/%s: post without title or permalink", community)
	}
	if p.CreatedUTC <= 0 {
		return domain.RawCandidate{}, source.Malformed("r/%s: post %q without timestamp", community, title)
	}

	sec := int64(p.CreatedUTC)
	nsec := int64((p.CreatedUTC - float64(sec)) * float64(time.Second))

	return domain.RawCandidate{
		Title:         title,
		Content:       collapse(p.SelfText),
		Source:        "r/" + community,
		Category:      a.spec.Category,
		URL:           a.linkBase + p.Permalink,
		PublishedDate: time.Unix(sec, nsec).UTC(),
		FetchedAt:     fetchedAt,
	}, nil
}
