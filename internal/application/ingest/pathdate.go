package ingest

import (
	"regexp"
	"strconv"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
)

// CUR delivery paths encode the billing period in one of three layouts,
// depending on report version and delivery settings:
//
//	.../20240101-20240201/report.csv.gz          (classic range folders)
//	.../BILLING_PERIOD=2024-01/report.parquet    (data exports)
//	.../year=2024/month=1/report.snappy.parquet  (Hive partitioning)
var (
	rangeFolderRe   = regexp.MustCompile(`/(\d{8})-(\d{8})/`)
	billingPeriodRe = regexp.MustCompile(`BILLING_PERIOD=(\d{4})-(\d{1,2})`)
	hivePartitionRe = regexp.MustCompile(`/year=(\d{4})/month=(\d{1,2})/`)
)

// ParseBillingPeriod extracts the billing period encoded in an object key.
// It returns nil when no layout matches; callers must treat nil as "unknown,
// include conservatively", never as an exclusion. A layout that matches with
// malformed numbers (month 13, day 42) counts as a non-match, not an error.
func ParseBillingPeriod(key string) *entity.BillingPeriod {
	if m := rangeFolderRe.FindStringSubmatch(key); m != nil {
		start, errStart := time.Parse("20060102", m[1])
		end, errEnd := time.Parse("20060102", m[2])
		if errStart == nil && errEnd == nil && start.Before(end) {
			return &entity.BillingPeriod{Start: start, End: end}
		}
	}
	if m := billingPeriodRe.FindStringSubmatch(key); m != nil {
		if p := monthPeriod(m[1], m[2]); p != nil {
			return p
		}
	}
	if m := hivePartitionRe.FindStringSubmatch(key); m != nil {
		if p := monthPeriod(m[1], m[2]); p != nil {
			return p
		}
	}
	return nil
}

// monthPeriod builds the [first-of-month, first-of-next-month) interval.
func monthPeriod(yearStr, monthStr string) *entity.BillingPeriod {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return nil
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return &entity.BillingPeriod{Start: start, End: start.AddDate(0, 1, 0)}
}
