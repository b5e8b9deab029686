package entity

import "time"

// ObjectRef identifies one billing export file in object storage.
// Produced by listing; immutable afterwards.
type ObjectRef struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	SizeHint int64  `json:"size_hint,omitempty"`
}

// BillingPeriod is the half-open date interval [Start, End) that a CUR
// partition covers, typically one calendar month.
type BillingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect.
func (p BillingPeriod) Overlaps(other BillingPeriod) bool {
	return p.Start.Before(other.End) && p.End.After(other.Start)
}

// Contains reports whether t falls inside the half-open interval.
func (p BillingPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// CacheEntry records where a fetched object lives on local disk.
// LocalPath sits under the cache root only when Persisted is true;
// otherwise it is a process-scoped temp file the caller must remove after use.
type CacheEntry struct {
	Object    ObjectRef
	LocalPath string
	Persisted bool
}
