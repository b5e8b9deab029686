package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillingPeriod(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "classic range folder",
			key:       "reports/my-cur/20240101-20240201/my-cur-00001.csv.gz",
			wantStart: "2024-01-01",
			wantEnd:   "2024-02-01",
		},
		{
			name:      "data export billing period",
			key:       "exports/cur2/data/BILLING_PERIOD=2024-03/part-0.snappy.parquet",
			wantStart: "2024-03-01",
			wantEnd:   "2024-04-01",
		},
		{
			name:      "single digit billing period month",
			key:       "exports/cur2/data/BILLING_PERIOD=2024-3/part-0.parquet",
			wantStart: "2024-03-01",
			wantEnd:   "2024-04-01",
		},
		{
			name:      "hive partitioning",
			key:       "athena/cur/year=2024/month=12/run-1.parquet",
			wantStart: "2024-12-01",
			wantEnd:   "2025-01-01",
		},
		{
			name:      "december rolls into next year",
			key:       "athena/cur/year=2023/month=12/run-1.parquet",
			wantStart: "2023-12-01",
			wantEnd:   "2024-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period := ParseBillingPeriod(tt.key)
			require.NotNil(t, period)
			assert.Equal(t, tt.wantStart, period.Start.Format("2006-01-02"))
			assert.Equal(t, tt.wantEnd, period.End.Format("2006-01-02"))
		})
	}
}

func TestParseBillingPeriodNoMatch(t *testing.T) {
	keys := []string{
		"reports/my-cur/manifest.json",
		"reports/my-cur/latest/report.csv.gz",
		"athena/cur/year=2024/month=13/run-1.parquet", // month out of range
		"reports/20240201-20240101/report.csv.gz",     // start after end
		"reports/2024010a-20240201/report.csv.gz",
		"",
	}
	for _, key := range keys {
		assert.Nil(t, ParseBillingPeriod(key), "key %q", key)
	}
}

func TestParseBillingPeriodHalfOpen(t *testing.T) {
	period := ParseBillingPeriod("cur/20240101-20240201/report.csv.gz")
	require.NotNil(t, period)

	assert.True(t, period.Contains(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, period.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}
