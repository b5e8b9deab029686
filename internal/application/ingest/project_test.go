package ingest

import (
	"testing"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timedRec(id string, usage string) entity.CanonicalRecord {
	t, _ := time.Parse("2006-01-02", usage)
	return entity.CanonicalRecord{LineItemID: id, UsageStart: t}
}

func TestProjectWindow(t *testing.T) {
	records := []entity.CanonicalRecord{
		timedRec("before", "2023-12-31"),
		timedRec("inside", "2024-01-15"),
		timedRec("at-end", "2024-02-01"), // end is exclusive
		{LineItemID: "no-date"},          // unparseable date, kept
	}

	out := ProjectWindow(records, window("2024-01-01", "2024-02-01"))

	require.Len(t, out, 2)
	assert.Equal(t, "inside", out[0].LineItemID)
	assert.Equal(t, "no-date", out[1].LineItemID)
}

func TestProjectWindowStartInclusive(t *testing.T) {
	records := []entity.CanonicalRecord{timedRec("at-start", "2024-01-01")}

	out := ProjectWindow(records, window("2024-01-01", "2024-02-01"))

	assert.Len(t, out, 1)
}

func TestProjectWindowNilPassesThrough(t *testing.T) {
	records := []entity.CanonicalRecord{timedRec("a", "2020-01-01")}

	out := ProjectWindow(records, nil)

	assert.Equal(t, records, out)
}
