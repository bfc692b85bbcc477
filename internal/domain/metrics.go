package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// EngagementMetrics is the attribute bag stored next to each item. The store treats it as
// an opaque JSON document; the scorer writes it and retrieval reads Featured.
type EngagementMetrics struct {
	BusinessRelevanceScore float64         `json:"business_relevance_score"`
	Featured               bool            `json:"featured,omitempty"`
	MatchedKeywords        []string        `json:"matched_keywords,omitempty"`
	Flags                  map[string]bool `json:"flags,omitempty"`
}

// Flag returns a named boolean feature flag; absent flags are false.
func (m EngagementMetrics) Flag(name string) bool {
	return m.Flags[name]
}

// WithFlag returns a copy with the flag set.
func (m EngagementMetrics) WithFlag(name string, v bool) EngagementMetrics {
	flags := make(map[string]bool, len(m.Flags)+1)
	for k, val := range m.Flags {
		flags[k] = val
	}
	flags[name] = v
	m.Flags = flags
	return m
}

func (m EngagementMetrics) Value() (driver.Value, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *EngagementMetrics) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = EngagementMetrics{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("engagement metrics: unsupported type %T", value)
	}
	*m = EngagementMetrics{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, m)
}
