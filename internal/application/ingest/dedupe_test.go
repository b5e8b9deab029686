package ingest

import (
	"testing"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, cost float64) entity.CanonicalRecord {
	return entity.CanonicalRecord{LineItemID: id, Cost: decimal.NewFromFloat(cost)}
}

func TestDedupeLastWriteWins(t *testing.T) {
	records := []entity.CanonicalRecord{
		rec("a", 5),
		rec("b", 3),
		rec("a", 12), // later occurrence is the more finalized one
	}

	out, removed := Dedupe(records)

	assert.Equal(t, 1, removed)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].LineItemID)
	assert.Equal(t, "12", out[0].Cost.String())
	assert.Equal(t, "b", out[1].LineItemID)
}

func TestDedupeNoIdentityPassesThrough(t *testing.T) {
	records := []entity.CanonicalRecord{
		rec("", 1),
		rec("", 1),
		rec("", 2),
	}

	out, removed := Dedupe(records)

	assert.Zero(t, removed)
	assert.Equal(t, records, out)
}

func TestDedupeKeepsDistinctIDs(t *testing.T) {
	records := []entity.CanonicalRecord{rec("a", 1), rec("b", 2), rec("c", 3)}

	out, removed := Dedupe(records)

	assert.Zero(t, removed)
	assert.Equal(t, records, out)
}

func splitRec(id, resourceID, parentID string, cost float64) entity.CanonicalRecord {
	return entity.CanonicalRecord{
		LineItemID:    id,
		ResourceID:    resourceID,
		SplitParentID: parentID,
		Cost:          decimal.NewFromFloat(cost),
	}
}

func TestSuppressSplitParentsFullyCovered(t *testing.T) {
	records := []entity.CanonicalRecord{
		splitRec("parent", "i-abc", "", 10),
		splitRec("child1", "pod-1", "i-abc", 6),
		splitRec("child2", "pod-2", "i-abc", 4),
	}

	out, suppressed := SuppressSplitParents(records)

	assert.Equal(t, 1, suppressed)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.NotEqual(t, "parent", r.LineItemID)
	}
}

func TestSuppressSplitParentsPartialCoverageKeepsParent(t *testing.T) {
	records := []entity.CanonicalRecord{
		splitRec("parent", "i-abc", "", 10),
		splitRec("child1", "pod-1", "i-abc", 3),
	}

	out, suppressed := SuppressSplitParents(records)

	assert.Zero(t, suppressed)
	assert.Len(t, out, 2)
}

func TestSuppressSplitParentsToleratesRounding(t *testing.T) {
	records := []entity.CanonicalRecord{
		splitRec("parent", "i-abc", "", 10),
		splitRec("child1", "pod-1", "i-abc", 9.995),
	}

	out, suppressed := SuppressSplitParents(records)

	assert.Equal(t, 1, suppressed)
	assert.Len(t, out, 1)
}

func TestSuppressSplitParentsNoChildrenIsNoOp(t *testing.T) {
	records := []entity.CanonicalRecord{
		splitRec("a", "i-abc", "", 10),
		splitRec("b", "i-def", "", 20),
	}

	out, suppressed := SuppressSplitParents(records)

	assert.Zero(t, suppressed)
	assert.Equal(t, records, out)
}
