package ingest

import (
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
)

// IsClosedPeriod reports whether a billing period is finalized as of now.
// AWS only stops revising a month's export after that month ends, so the
// current month's file must never be cached: it is rewritten in place as
// charges are finalized. An unknown period (nil) is never closed, since we
// cannot prove immutability. Evaluated per run; never memoize across runs.
func IsClosedPeriod(period *entity.BillingPeriod, now time.Time) bool {
	if period == nil {
		return false
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return !period.End.After(monthStart)
}
