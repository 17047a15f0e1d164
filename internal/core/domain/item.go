package domain

import "time"

// Tier determines migration urgency. Lower values migrate first.
type Tier int

const (
	// TierCritical items block application readiness and migrate synchronously.
	TierCritical Tier = iota
	// TierImportant items migrate as soon as the critical phase completes.
	TierImportant
	// TierBackground items migrate only when the host signals idle capacity.
	TierBackground
)

func (t Tier) String() string {
	switch t {
	case TierCritical:
		return "critical"
	case TierImportant:
		return "important"
	case TierBackground:
		return "background"
	default:
		return "unknown"
	}
}

// ItemMetadata carries optional hints attached to a record.
type ItemMetadata struct {
	LastModifiedAt *time.Time `json:"last_modified_at,omitempty"`
	IsActive       bool       `json:"is_active,omitempty"`
	IsCurrent      bool       `json:"is_current,omitempty"`
}

// ItemDescriptor describes one migratable record. Immutable input to
// classification.
type ItemDescriptor struct {
	Key           string        `json:"key"`
	EstimatedSize int64         `json:"estimated_size"`
	Metadata      *ItemMetadata `json:"metadata,omitempty"`
}

// Classification is the classifier's verdict for one descriptor.
// Reasoning is diagnostic text for logs, never parsed.
type Classification struct {
	Key           string `json:"key"`
	Tier          Tier   `json:"tier"`
	EstimatedSize int64  `json:"estimated_size"`
	Reasoning     string `json:"reasoning"`
}
