// Package priority assigns every migratable record a tier and orders a
// batch so the cheapest, most urgent records migrate first.
//
// Classification is a pure function of (descriptor, config, now): no hidden
// clock, no randomness. The explicit now parameter exists so tests can pin
// the age comparison.
package priority

import (
	"fmt"
	"sort"
	"time"

	"github.com/coachbook/mover/internal/core/domain"
)

// Config is the PriorityConfiguration: size cut-offs and the identity of
// the record the user currently has open. Updated only through the
// orchestrator when the active record changes.
type Config struct {
	CriticalSizeLimit      int64  `yaml:"critical_size_limit"`
	ImportantSizeLimit     int64  `yaml:"important_size_limit"`
	BackgroundAgeThreshold int    `yaml:"background_age_days"`
	ActiveRecordID         string `yaml:"active_record_id"`
}

// DefaultConfig mirrors the limits of the legacy store this layer migrates
// away from: anything under 10 KiB is cheap, anything over 100 KiB is bulk.
func DefaultConfig() Config {
	return Config{
		CriticalSizeLimit:      10 << 10,
		ImportantSizeLimit:     100 << 10,
		BackgroundAgeThreshold: 30,
	}
}

// Classify maps one descriptor to a tier. Critical-pattern checks run first
// and unconditionally; size rules only apply to everything else.
func Classify(d domain.ItemDescriptor, cfg Config, now time.Time) domain.Classification {
	c := domain.Classification{
		Key:           d.Key,
		EstimatedSize: d.EstimatedSize,
	}

	if name, ok := matchCritical(d.Key, cfg); ok {
		c.Tier = domain.TierCritical
		c.Reasoning = fmt.Sprintf("critical pattern: %s", name)
		return c
	}

	important, why := isImportant(d, cfg, now)
	switch {
	case d.EstimatedSize > cfg.ImportantSizeLimit:
		// Large items default to background unless they pass the
		// importance test anyway.
		if important {
			c.Tier = domain.TierImportant
			c.Reasoning = fmt.Sprintf("large but %s", why)
		} else {
			c.Tier = domain.TierBackground
			c.Reasoning = fmt.Sprintf("large item (%d bytes), deferred to idle", d.EstimatedSize)
		}
	case important:
		c.Tier = domain.TierImportant
		c.Reasoning = why
	default:
		c.Tier = domain.TierBackground
		c.Reasoning = "no importance signal, deferred to idle"
	}
	return c
}

func isImportant(d domain.ItemDescriptor, cfg Config, now time.Time) (bool, string) {
	if d.EstimatedSize < cfg.CriticalSizeLimit {
		return true, fmt.Sprintf("small item (%d bytes), cheap to migrate promptly", d.EstimatedSize)
	}

	if isHistoricalRecord(d.Key) {
		maxAge := time.Duration(cfg.BackgroundAgeThreshold) * 24 * time.Hour
		if d.Metadata != nil && d.Metadata.LastModifiedAt != nil {
			if now.Sub(*d.Metadata.LastModifiedAt) <= maxAge {
				return true, "recently modified historical record"
			}
		} else if d.EstimatedSize <= cfg.ImportantSizeLimit {
			// No timestamp to judge by: promote on the key term alone.
			// TODO: needs a product decision on whether untimestamped
			// history should really outrank other mid-size records.
			return true, "historical record without timestamp, within size limit"
		}
	}

	if isGrouping(d.Key) && d.Metadata != nil && (d.Metadata.IsActive || d.Metadata.IsCurrent) {
		return true, "active season/tournament grouping"
	}

	return false, ""
}

// ClassifyAndSort classifies every descriptor and orders the batch by
// (tier ascending, size ascending). The size tiebreak completes cheap items
// first within a tier, minimizing time to first migrated record.
func ClassifyAndSort(descs []domain.ItemDescriptor, cfg Config, now time.Time) []domain.Classification {
	out := make([]domain.Classification, 0, len(descs))
	for _, d := range descs {
		out = append(out, Classify(d, cfg, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].EstimatedSize < out[j].EstimatedSize
	})
	return out
}

// ShouldProcessImmediately reports whether a tier must migrate before the
// application is considered ready.
func ShouldProcessImmediately(t domain.Tier) bool {
	return t == domain.TierCritical
}

// ShouldProcessDuringIdle reports whether a tier defers to host idle
// capacity.
func ShouldProcessDuringIdle(t domain.Tier) bool {
	return t == domain.TierBackground
}
