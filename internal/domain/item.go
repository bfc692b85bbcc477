package domain

import "time"

// ComplianceStatus is the moderation state of a stored item.
type ComplianceStatus string

const (
	StatusPending  ComplianceStatus = "pending"
	StatusApproved ComplianceStatus = "approved"
	StatusRejected ComplianceStatus = "rejected"
)

// Terminal reports whether no further transition is allowed out of the status.
func (s ComplianceStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is one of the known statuses.
func (s ComplianceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Priority tiers, lower is more important.
const (
	PriorityBreaking = 1
	PriorityHigh     = 2
	PriorityNormal   = 3
	PriorityLow      = 4
	PriorityArchive  = 5

	DefaultPriority = PriorityNormal
)

var priorityNames = map[int]string{
	PriorityBreaking: "Breaking",
	PriorityHigh:     "High",
	PriorityNormal:   "Normal",
	PriorityLow:      "Low",
	PriorityArchive:  "Archive",
}

// PriorityName returns the curator-facing label of a tier, or "" for unknown tiers.
func PriorityName(p int) string {
	return priorityNames[p]
}

// ValidPriority reports whether p is one of the five tiers.
func ValidPriority(p int) bool {
	_, ok := priorityNames[p]
	return ok
}

// ContentItem is the sole persisted entity: one row per content fingerprint.
type ContentItem struct {
	ID                int64
	Title             string
	Content           string
	Source            string
	Category          *string
	URL               string
	PublishedDate     time.Time
	CreatedAt         time.Time
	IsActive          bool
	ComplianceStatus  ComplianceStatus
	EngagementMetrics EngagementMetrics
	ContentHash       string
	ApprovalTimestamp *time.Time
	Priority          int
}

// CategoryOrEmpty dereferences the nullable category.
func (c ContentItem) CategoryOrEmpty() string {
	if c.Category == nil {
		return ""
	}
	return *c.Category
}

// InsertResult enumerates the outcomes of an insert-if-absent.
type InsertResult string

const (
	Inserted         InsertResult = "inserted"
	DuplicateSkipped InsertResult = "duplicate_skipped"
)

// InsertOutcome reports what happened to one item of an insert batch.
type InsertOutcome struct {
	Result      InsertResult `json:"result"`
	ID          int64        `json:"id,omitempty"`
	ContentHash string       `json:"content_hash"`
}
