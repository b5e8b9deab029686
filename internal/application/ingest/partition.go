package ingest

import (
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
)

// FilterByPeriod drops objects whose billing period cannot overlap the
// requested window, before any network fetch. Objects whose keys carry no
// parseable period are always kept. Returns the kept objects and the number
// skipped, for observability.
func FilterByPeriod(objects []entity.ObjectRef, window *entity.BillingPeriod) ([]entity.ObjectRef, int) {
	if window == nil {
		return objects, 0
	}

	kept := make([]entity.ObjectRef, 0, len(objects))
	for _, obj := range objects {
		period := ParseBillingPeriod(obj.Key)
		if period == nil || period.Overlaps(*window) {
			kept = append(kept, obj)
		}
	}
	return kept, len(objects) - len(kept)
}
