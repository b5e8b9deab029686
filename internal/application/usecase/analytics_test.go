package usecase

import (
	"testing"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func costRec(service, account, region, lineItemType string, cost float64, day string) entity.CanonicalRecord {
	usage, _ := time.Parse("2006-01-02", day)
	return entity.CanonicalRecord{
		Service:      service,
		AccountID:    account,
		Region:       region,
		LineItemType: lineItemType,
		Cost:         decimal.NewFromFloat(cost),
		UsageStart:   usage,
	}
}

func TestCostByServiceTopNWithOthers(t *testing.T) {
	table := entity.CanonicalTable{
		costRec("AmazonEC2", "1", "us-east-1", "Usage", 100, "2024-01-01"),
		costRec("AmazonS3", "1", "us-east-1", "Usage", 50, "2024-01-01"),
		costRec("AmazonRDS", "1", "us-east-1", "Usage", 30, "2024-01-01"),
		costRec("AWSLambda", "1", "us-east-1", "Usage", 10, "2024-01-01"),
	}

	result := costByService(table, 2)

	require.Len(t, result, 3)
	assert.Equal(t, entity.ServiceCost{ServiceName: "AmazonEC2", Cost: 100}, result[0])
	assert.Equal(t, entity.ServiceCost{ServiceName: "AmazonS3", Cost: 50}, result[1])
	assert.Equal(t, entity.ServiceCost{ServiceName: "Others", Cost: 40}, result[2])
}

func TestCostByServiceNoCutoff(t *testing.T) {
	table := entity.CanonicalTable{
		costRec("AmazonEC2", "1", "us-east-1", "Usage", 1, "2024-01-01"),
		costRec("AmazonS3", "1", "us-east-1", "Usage", 2, "2024-01-01"),
	}

	result := costByService(table, 10)

	require.Len(t, result, 2)
	assert.Equal(t, "AmazonS3", result[0].ServiceName, "sorted by descending cost")
}

func TestDailyTrendBucketsAndSorts(t *testing.T) {
	table := entity.CanonicalTable{
		costRec("AmazonEC2", "1", "us-east-1", "Usage", 5, "2024-01-02"),
		costRec("AmazonEC2", "1", "us-east-1", "Usage", 3, "2024-01-01"),
		costRec("AmazonS3", "1", "us-east-1", "Usage", 2, "2024-01-02"),
		{Service: "NoDate", Cost: decimal.NewFromInt(100)}, // zero usage date, excluded
	}

	trend := dailyTrend(table)

	require.Len(t, trend, 2)
	assert.Equal(t, "2024-01-01", trend[0].Date.Format("2006-01-02"))
	assert.Equal(t, 3.0, trend[0].Cost)
	assert.Equal(t, 7.0, trend[1].Cost)
}

func TestMonthlySummary(t *testing.T) {
	table := entity.CanonicalTable{
		costRec("AmazonEC2", "1", "us-east-1", "Usage", 5, "2024-01-15"),
		costRec("AmazonEC2", "1", "us-east-1", "Usage", 7, "2024-02-15"),
		costRec("AmazonEC2", "1", "us-east-1", "Usage", 1, "2024-01-20"),
	}

	summary := monthlySummary(table)

	require.Len(t, summary, 2)
	assert.Equal(t, entity.MonthlyCost{Month: "2024-01", Cost: 6}, summary[0])
	assert.Equal(t, entity.MonthlyCost{Month: "2024-02", Cost: 7}, summary[1])
}

func TestDiscountsSummaryGroupsNegativeRows(t *testing.T) {
	table := entity.CanonicalTable{
		costRec("AmazonEC2", "1", "us-east-1", "Usage", 100, "2024-01-01"),
		costRec("AmazonEC2", "1", "us-east-1", "SavingsPlanNegation", -30, "2024-01-01"),
		costRec("AmazonEC2", "1", "us-east-1", "EdpDiscount", -5, "2024-01-01"),
		costRec("AmazonS3", "1", "us-east-1", "SavingsPlanNegation", -10, "2024-01-02"),
	}

	discounts := discountsSummary(table)

	require.Len(t, discounts, 2)
	assert.Equal(t, entity.DiscountLine{LineItemType: "SavingsPlanNegation", Amount: -40}, discounts[0])
	assert.Equal(t, entity.DiscountLine{LineItemType: "EdpDiscount", Amount: -5}, discounts[1])
}

func TestDetectAnomalies(t *testing.T) {
	daily := []entity.DailyCost{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Cost: 10},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Cost: 10},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Cost: 10},
		{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Cost: 10},
		{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Cost: 10},
		{Date: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), Cost: 10},
		{Date: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), Cost: 10},
		{Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Cost: 10},
		{Date: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), Cost: 100},
	}

	anomalies := detectAnomalies(daily)

	require.Len(t, anomalies, 1)
	assert.Equal(t, "2024-01-09", anomalies[0].Date.Format("2006-01-02"))
	assert.Greater(t, anomalies[0].ZScore, anomalyZScoreThreshold)
}

func TestDetectAnomaliesFlatSeries(t *testing.T) {
	daily := []entity.DailyCost{
		{Cost: 10}, {Cost: 10}, {Cost: 10}, {Cost: 10},
	}
	assert.Empty(t, detectAnomalies(daily))
}

func TestDetectAnomaliesTooFewDays(t *testing.T) {
	daily := []entity.DailyCost{{Cost: 1}, {Cost: 100}}
	assert.Empty(t, detectAnomalies(daily))
}

func TestBuildSummary(t *testing.T) {
	table := entity.CanonicalTable{
		costRec("AmazonEC2", "111", "us-east-1", "Usage", 100, "2024-01-01"),
		costRec("AmazonS3", "222", "us-east-1", "Tax", 8, "2024-01-02"),
		costRec("AmazonEC2", "111", "us-east-1", "SavingsPlanNegation", -20, "2024-01-02"),
	}

	report := BuildReportData(table, "111", entity.IngestManifest{FinalRecordCount: 3}, 10)
	s := report.Summary

	assert.InDelta(t, 88.0, s.TotalCost, 1e-9)
	assert.InDelta(t, 108.0, s.UsageCost, 1e-9, "usage includes only charge line item types")
	assert.InDelta(t, -20.0, s.DiscountTotal, 1e-9)
	assert.Equal(t, 2, s.NumAccounts)
	assert.Equal(t, 2, s.NumServices)
	assert.Equal(t, 3, s.RecordCount)
	assert.Equal(t, "2024-01-01", s.DateRangeStart.Format("2006-01-02"))
	assert.Equal(t, "2024-01-02", s.DateRangeEnd.Format("2006-01-02"))
	assert.InDelta(t, 100.0, s.MaxDailyCost, 1e-9)
	assert.InDelta(t, 44.0, s.AverageDailyCost, 1e-9)
}

func TestSavingsPlanAnalysis(t *testing.T) {
	table := entity.CanonicalTable{
		costRec("AmazonEC2", "1", "us-east-1", "SavingsPlanCoveredUsage", 100, "2024-01-01"),
		costRec("AmazonEC2", "1", "us-east-1", "SavingsPlanNegation", -100, "2024-01-01"),
		costRec("AmazonEC2", "1", "us-east-1", "SavingsPlanRecurringFee", 70, "2024-01-01"),
		costRec("AWSLambda", "1", "us-east-1", "SavingsPlanCoveredUsage", 20, "2024-01-01"),
		costRec("AWSLambda", "1", "us-east-1", "SavingsPlanNegation", -20, "2024-01-01"),
		costRec("AmazonS3", "1", "us-east-1", "Usage", 50, "2024-01-01"),
	}

	lines, summary := savingsPlanAnalysis(table)

	require.Len(t, lines, 2, "only services with covered usage appear")
	assert.Equal(t, entity.SavingsPlanLine{
		Service:            "AmazonEC2",
		OnDemandEquivalent: 100,
		SavingsPlanCost:    70,
		Savings:            100,
	}, lines[0])
	assert.Equal(t, entity.SavingsPlanLine{
		Service:            "AWSLambda",
		OnDemandEquivalent: 20,
		SavingsPlanCost:    0,
		Savings:            20,
	}, lines[1])

	assert.Equal(t, 120.0, summary.OnDemandEquivalent)
	assert.Equal(t, 70.0, summary.SavingsPlanCost)
	assert.Equal(t, 120.0, summary.TotalSavings)
	assert.InDelta(t, 100.0, summary.SavingsPercentage, 0.001)
}

func TestSavingsPlanAnalysisNoCoveredUsage(t *testing.T) {
	table := entity.CanonicalTable{
		costRec("AmazonS3", "1", "us-east-1", "Usage", 50, "2024-01-01"),
		costRec("AmazonEC2", "1", "us-east-1", "SavingsPlanRecurringFee", 70, "2024-01-01"),
	}

	lines, summary := savingsPlanAnalysis(table)

	assert.Empty(t, lines)
	assert.Zero(t, summary.OnDemandEquivalent)
	assert.Zero(t, summary.SavingsPercentage)
}

func TestBuildReportDataIncludesSavingsPlans(t *testing.T) {
	table := entity.CanonicalTable{
		costRec("AmazonEC2", "1", "us-east-1", "SavingsPlanCoveredUsage", 100, "2024-01-01"),
		costRec("AmazonEC2", "1", "us-east-1", "SavingsPlanNegation", -90, "2024-01-02"),
		costRec("AmazonEC2", "1", "us-east-1", "SavingsPlanRecurringFee", 70, "2024-01-03"),
	}

	report := BuildReportData(table, "1", entity.IngestManifest{}, 10)

	require.Len(t, report.SavingsPlans, 1)
	assert.Equal(t, "AmazonEC2", report.SavingsPlans[0].Service)
	assert.Equal(t, 90.0, report.SavingsPlanStats.TotalSavings)
	assert.InDelta(t, 90.0, report.SavingsPlanStats.SavingsPercentage, 0.001)
}
