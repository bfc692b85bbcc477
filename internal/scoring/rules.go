package scoring

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceWeight grants a reputation bonus to sources matching Prefix or containing Contains
// (both compared case-insensitively). The first matching entry wins.
type SourceWeight struct {
	Contains string  `yaml:"contains"`
	Prefix   string  `yaml:"prefix"`
	Weight   float64 `yaml:"weight"`
}

func (w SourceWeight) matches(source string) bool {
	if w.Prefix != "" && strings.HasPrefix(source, strings.ToLower(w.Prefix)) {
		return true
	}
	return w.Contains != "" && strings.Contains(source, strings.ToLower(w.Contains))
}

// CategoryRule assigns Name when any keyword occurs in title+content or the source has SourcePrefix.
type CategoryRule struct {
	Name         string   `yaml:"name"`
	Keywords     []string `yaml:"keywords"`
	SourcePrefix string   `yaml:"sourcePrefix"`
}

// Rules is the static rule set of the scorer. Scores are a pure function of a candidate and Rules.
type Rules struct {
	BusinessKeywords  []string       `yaml:"businessKeywords"`
	ExcludeKeywords   []string       `yaml:"excludeKeywords"`
	QualityIndicators []string       `yaml:"qualityIndicators"`
	DomainKeywords    []string       `yaml:"domainKeywords"`
	SourceWeights     []SourceWeight `yaml:"sourceWeights"`
	DefaultWeight     float64        `yaml:"defaultWeight"`
	Categories        []CategoryRule `yaml:"categories"`
	RegulatorSources  []string       `yaml:"regulatorSources"`
	MaxContentLength  int            `yaml:"maxContentLength"`
	MinScore          float64        `yaml:"minScore"`
	MinRegulatorScore float64        `yaml:"minRegulatorScore"`
	FeaturedScore     float64        `yaml:"featuredScore"`

	// explicit holds the threshold keys a YAML document set, so Merge can tell 0 from unset.
	explicit map[string]bool
}

var thresholdKeys = map[string]bool{
	"defaultWeight":     true,
	"minScore":          true,
	"minRegulatorScore": true,
	"featuredScore":     true,
}

// UnmarshalYAML decodes Rules and remembers which thresholds were present.
func (r *Rules) UnmarshalYAML(value *yaml.Node) error {
	type plain Rules
	if err := value.Decode((*plain)(r)); err != nil {
		return err
	}
	r.explicit = nil
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if key := value.Content[i].Value; thresholdKeys[key] {
			if r.explicit == nil {
				r.explicit = make(map[string]bool)
			}
			r.explicit[key] = true
		}
	}
	return nil
}

func (r Rules) sets(key string) bool { return r.explicit[key] }

// DefaultRules returns the cannabis-industry rule set the aggregator shipped with.
func DefaultRules() Rules {
	return Rules{
		BusinessKeywords: []string{
			"pricing", "wholesale", "retail", "dispensary", "license", "compliance", "earnings",
			"strategy", "operations", "regulations", "health canada", "provincial", "ocs",
			"revenue", "profit", "market share", "acquisition", "licensing",
		},
		ExcludeKeywords: []string{
			"personal", "lifestyle", "strain review", "product review", "taste",
			"flavor", "high", "stoned", "blazed", "consumption", "smoking",
		},
		QualityIndicators: []string{"analysis", "report", "update", "strategy"},
		DomainKeywords:    []string{"cannabis", "marijuana", "thc", "cbd", "dispensary"},
		SourceWeights: []SourceWeight{
			{Contains: "mjbizdaily", Weight: 3.0},
			{Contains: "stratcann", Weight: 3.0},
			{Contains: "cannabis business times", Weight: 3.0},
			{Contains: "new cannabis ventures", Weight: 3.0},
			{Contains: "health canada", Weight: 2.5},
			{Prefix: "r/", Weight: 1.0},
		},
		DefaultWeight: 0.5,
		Categories: []CategoryRule{
			{Name: "Pricing Intelligence", Keywords: []string{"pricing", "wholesale", "retail price"}},
			{Name: "Regulatory", Keywords: []string{"regulation", "compliance", "license", "health canada"}},
			{Name: "Public Company", Keywords: []string{"earnings", "cannara", "canopy", "sndl", "tilray"}},
			{Name: "Retail Operations", Keywords: []string{"operations", "store", "dispensary"}},
			{Name: "Community", SourcePrefix: "r/"},
		},
		RegulatorSources:  []string{"health canada"},
		MaxContentLength:  400,
		MinScore:          1.0,
		MinRegulatorScore: 1.5,
		FeaturedScore:     9.0,
	}
}

// Merge overlays the non-zero fields of override onto r. Thresholds decoded from YAML
// are applied even when zero.
func (r Rules) Merge(override Rules) Rules {
	if len(override.BusinessKeywords) > 0 {
		r.BusinessKeywords = override.BusinessKeywords
	}
	if len(override.ExcludeKeywords) > 0 {
		r.ExcludeKeywords = override.ExcludeKeywords
	}
	if len(override.QualityIndicators) > 0 {
		r.QualityIndicators = override.QualityIndicators
	}
	if len(override.DomainKeywords) > 0 {
		r.DomainKeywords = override.DomainKeywords
	}
	if len(override.SourceWeights) > 0 {
		r.SourceWeights = override.SourceWeights
	}
	if override.DefaultWeight != 0 || override.sets("defaultWeight") {
		r.DefaultWeight = override.DefaultWeight
	}
	if len(override.Categories) > 0 {
		r.Categories = override.Categories
	}
	if len(override.RegulatorSources) > 0 {
		r.RegulatorSources = override.RegulatorSources
	}
	if override.MaxContentLength > 0 {
		r.MaxContentLength = override.MaxContentLength
	}
	if override.MinScore != 0 || override.sets("minScore") {
		r.MinScore = override.MinScore
	}
	if override.MinRegulatorScore != 0 || override.sets("minRegulatorScore") {
		r.MinRegulatorScore = override.MinRegulatorScore
	}
	if override.FeaturedScore != 0 || override.sets("featuredScore") {
		r.FeaturedScore = override.FeaturedScore
	}
	return r
}
