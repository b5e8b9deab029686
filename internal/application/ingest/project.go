package ingest

import (
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
)

// ProjectWindow re-applies the date filter at row granularity. Partition
// filtering is coarse: a partition overlapping the window still carries rows
// outside it. Rows whose usage date could not be parsed are kept, mirroring
// the include-unknown rule used at the partition level. Pure, no I/O.
func ProjectWindow(records []entity.CanonicalRecord, window *entity.BillingPeriod) []entity.CanonicalRecord {
	if window == nil {
		return records
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.UsageStart.IsZero() || window.Contains(rec.UsageStart) {
			kept = append(kept, rec)
		}
	}
	return kept
}
