// Package scoring maps raw candidates to storable items and assigns relevance and priority.
package scoring

import (
	"math"
	"strings"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/fingerprint"
	"ContentCurator/internal/source"
)

const (
	MinScoreValue = 0.0
	MaxScoreValue = 10.0

	baseScore          = 2.0
	businessKeywordPts = 0.8
	businessKeywordCap = 5.0
	excludeKeywordPts  = 0.3
	substantialBody    = 50
	substantialBodyPts = 1.0
	qualityPts         = 1.0
	domainPts          = 1.5
	freshPts           = 1.0
	recentPts          = 0.5
	freshWindow        = 24 * time.Hour
	recentWindow       = 72 * time.Hour
)

// Normalizer turns raw candidates into pre-insert items. It holds no mutable state.
type Normalizer struct {
	rules Rules
}

// NewNormalizer lowercases keyword lists once so scoring stays a plain substring scan.
func NewNormalizer(rules Rules) *Normalizer {
	rules.BusinessKeywords = lowerAll(rules.BusinessKeywords)
	rules.ExcludeKeywords = lowerAll(rules.ExcludeKeywords)
	rules.QualityIndicators = lowerAll(rules.QualityIndicators)
	rules.DomainKeywords = lowerAll(rules.DomainKeywords)
	rules.RegulatorSources = lowerAll(rules.RegulatorSources)
	cats := make([]CategoryRule, len(rules.Categories))
	for i, c := range rules.Categories {
		c.Keywords = lowerAll(c.Keywords)
		cats[i] = c
	}
	rules.Categories = cats
	return &Normalizer{rules: rules}
}

// Normalize validates and shapes a candidate. CreatedAt and ID are left for the store path.
func (n *Normalizer) Normalize(c domain.RawCandidate) (domain.ContentItem, error) {
	title := strings.Join(strings.Fields(c.Title), " ")
	url := strings.TrimSpace(c.URL)
	src := strings.TrimSpace(c.Source)
	switch {
	case title == "":
		return domain.ContentItem{}, source.Malformed("candidate without title (url %q)", url)
	case url == "":
		return domain.ContentItem{}, source.Malformed("candidate %q without url", title)
	case src == "":
		return domain.ContentItem{}, source.Malformed("candidate %q without source", title)
	}

	published := c.PublishedDate
	if published.IsZero() {
		published = c.FetchedAt
	}
	if published.IsZero() {
		return domain.ContentItem{}, source.Malformed("candidate %q without any timestamp", title)
	}

	content := truncate(strings.Join(strings.Fields(c.Content), " "), n.rules.MaxContentLength)
	score, matched := n.Score(title, content, src, published, c.FetchedAt)

	var category *string
	if cat := strings.TrimSpace(c.Category); cat != "" {
		category = &cat
	} else if cat := n.Categorize(title, content, src); cat != "" {
		category = &cat
	}

	return domain.ContentItem{
		Title:            title,
		Content:          content,
		Source:           src,
		Category:         category,
		URL:              url,
		PublishedDate:    published.UTC(),
		IsActive:         true,
		ComplianceStatus: domain.StatusPending,
		EngagementMetrics: domain.EngagementMetrics{
			BusinessRelevanceScore: score,
			Featured:               n.rules.FeaturedScore > 0 && score >= n.rules.FeaturedScore,
			MatchedKeywords:        matched,
		},
		ContentHash: fingerprint.Compute(title, src, url),
		Priority:    PriorityForScore(score),
	}, nil
}

// Score computes the business relevance in [0,10] and the business keywords that matched.
func (n *Normalizer) Score(title, content, src string, published, fetchedAt time.Time) (float64, []string) {
	text := strings.ToLower(title + " " + content)
	score := baseScore

	var matched []string
	for _, kw := range n.rules.BusinessKeywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	score += math.Min(float64(len(matched))*businessKeywordPts, businessKeywordCap)

	for _, kw := range n.rules.ExcludeKeywords {
		if strings.Contains(text, kw) {
			score -= excludeKeywordPts
		}
	}

	score += n.sourceWeight(strings.ToLower(src))

	if len([]rune(content)) > substantialBody {
		score += substantialBodyPts
	}
	if containsAny(text, n.rules.QualityIndicators) {
		score += qualityPts
	}
	if containsAny(text, n.rules.DomainKeywords) {
		score += domainPts
	}

	if !published.IsZero() && !fetchedAt.IsZero() {
		switch age := fetchedAt.Sub(published); {
		case age <= freshWindow:
			score += freshPts
		case age <= recentWindow:
			score += recentPts
		}
	}

	score = math.Max(MinScoreValue, math.Min(score, MaxScoreValue))
	return math.Round(score*100) / 100, matched
}

// Categorize returns the first matching category rule, or "" when none applies.
func (n *Normalizer) Categorize(title, content, src string) string {
	text := strings.ToLower(title + " " + content)
	lowerSrc := strings.ToLower(src)
	for _, rule := range n.rules.Categories {
		if containsAny(text, rule.Keywords) {
			return rule.Name
		}
		if rule.SourcePrefix != "" && strings.HasPrefix(lowerSrc, strings.ToLower(rule.SourcePrefix)) {
			return rule.Name
		}
	}
	return ""
}

// Relevant applies the include threshold; regulator sources use their own threshold.
func (n *Normalizer) Relevant(item domain.ContentItem) bool {
	threshold := n.rules.MinScore
	if containsAny(strings.ToLower(item.Source), n.rules.RegulatorSources) {
		threshold = n.rules.MinRegulatorScore
	}
	return item.EngagementMetrics.BusinessRelevanceScore >= threshold
}

// PriorityForScore maps a relevance score onto the initial priority tier:
// score >= 7 is Breaking (1), score >= 5 is Normal (3), anything else is Low (4).
func PriorityForScore(score float64) int {
	switch {
	case score >= 7:
		return domain.PriorityBreaking
	case score >= 5:
		return domain.PriorityNormal
	default:
		return domain.PriorityLow
	}
}

func (n *Normalizer) sourceWeight(src string) float64 {
	for _, w := range n.rules.SourceWeights {
		if w.matches(src) {
			return w.Weight
		}
	}
	return n.rules.DefaultWeight
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
