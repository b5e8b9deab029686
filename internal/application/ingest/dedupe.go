package ingest

import (
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Dedupe collapses records sharing a line item id, keeping the record
// encountered last in input order: CUR files are rewritten as billing
// finalizes, so the later occurrence is the more finalized one. Records
// without an id pass through untouched. Returns the deduplicated records and
// the number removed.
func Dedupe(records []entity.CanonicalRecord) ([]entity.CanonicalRecord, int) {
	out := make([]entity.CanonicalRecord, 0, len(records))
	position := make(map[string]int, len(records))

	for _, rec := range records {
		if rec.LineItemID == "" {
			out = append(out, rec)
			continue
		}
		if idx, seen := position[rec.LineItemID]; seen {
			out[idx] = rec
			continue
		}
		position[rec.LineItemID] = len(out)
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}

// splitCoverageEpsilon tolerates rounding drift between a parent row's cost
// and the sum of its split allocation children.
var splitCoverageEpsilon = decimal.NewFromFloat(0.01)

// SuppressSplitParents drops a resource's own row when split cost allocation
// children referencing it fully cover its cost, so parent and children are
// not both summed. A parent whose children cover less than its cost is kept:
// the exact parent/child matching rule is a documented assumption about CUR
// split allocation, validated against export samples rather than guaranteed,
// so suppression stays conservative. Order-independent; run after Dedupe.
func SuppressSplitParents(records []entity.CanonicalRecord) ([]entity.CanonicalRecord, int) {
	childSums := make(map[string]decimal.Decimal)
	for _, rec := range records {
		if rec.SplitParentID == "" {
			continue
		}
		childSums[rec.SplitParentID] = childSums[rec.SplitParentID].Add(rec.Cost)
	}
	if len(childSums) == 0 {
		return records, 0
	}

	out := make([]entity.CanonicalRecord, 0, len(records))
	for _, rec := range records {
		if rec.SplitParentID == "" && rec.ResourceID != "" {
			if covered, ok := childSums[rec.ResourceID]; ok {
				if covered.Sub(rec.Cost).Abs().LessThanOrEqual(splitCoverageEpsilon) || covered.GreaterThan(rec.Cost) {
					continue
				}
			}
		}
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}
