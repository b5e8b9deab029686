package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// chargeLineItemTypes are the line item types counted as usage charges.
// Everything else (credits, refunds, negations, discounts) is reported
// separately but never dropped from the total.
var chargeLineItemTypes = map[string]bool{
	"Usage":                   true,
	"Tax":                     true,
	"Fee":                     true,
	"RIFee":                   true,
	"SavingsPlanRecurringFee": true,
}

// anomalyZScoreThreshold flags daily totals more than this many standard
// deviations away from the period mean.
const anomalyZScoreThreshold = 2.0

// othersLabel rolls up groups beyond the top-N cutoff.
const othersLabel = "Others"

// BuildReportData aggregates the canonical table into every view the report
// layer renders and exports.
func BuildReportData(table entity.CanonicalTable, accountID string, manifest entity.IngestManifest, topN int) entity.ReportData {
	daily := dailyTrend(table)
	savingsPlans, savingsPlanStats := savingsPlanAnalysis(table)
	return entity.ReportData{
		AccountID:        accountID,
		Summary:          buildSummary(table, daily),
		CostByService:    costByService(table, topN),
		CostByAccount:    costByAccount(table, topN),
		CostByRegion:     costByRegion(table, topN),
		DailyTrend:       daily,
		MonthlySummary:   monthlySummary(table),
		Discounts:        discountsSummary(table),
		SavingsPlans:     savingsPlans,
		SavingsPlanStats: savingsPlanStats,
		Anomalies:        detectAnomalies(daily),
		Manifest:         manifest,
	}
}

// topNWithOthers sorts groups by descending cost, keeps the top n and rolls
// the remainder into a single Others bucket. n <= 0 keeps everything.
func topNWithOthers(totals map[string]decimal.Decimal, n int) ([]string, map[string]float64) {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := totals[keys[i]], totals[keys[j]]
		if !ci.Equal(cj) {
			return ci.GreaterThan(cj)
		}
		return keys[i] < keys[j]
	})

	out := make(map[string]float64, len(keys))
	if n <= 0 || len(keys) <= n {
		for _, k := range keys {
			out[k] = totals[k].InexactFloat64()
		}
		return keys, out
	}

	kept := keys[:n]
	others := decimal.Zero
	for _, k := range keys[n:] {
		others = others.Add(totals[k])
	}
	for _, k := range kept {
		out[k] = totals[k].InexactFloat64()
	}
	kept = append(kept, othersLabel)
	out[othersLabel] = others.InexactFloat64()
	return kept, out
}

func costByService(table entity.CanonicalTable, topN int) []entity.ServiceCost {
	totals := map[string]decimal.Decimal{}
	for i := range table {
		totals[table[i].Service] = totals[table[i].Service].Add(table[i].Cost)
	}
	keys, amounts := topNWithOthers(totals, topN)
	result := make([]entity.ServiceCost, 0, len(keys))
	for _, k := range keys {
		result = append(result, entity.ServiceCost{ServiceName: k, Cost: amounts[k]})
	}
	return result
}

func costByAccount(table entity.CanonicalTable, topN int) []entity.AccountCost {
	totals := map[string]decimal.Decimal{}
	for i := range table {
		totals[table[i].AccountID] = totals[table[i].AccountID].Add(table[i].Cost)
	}
	keys, amounts := topNWithOthers(totals, topN)
	result := make([]entity.AccountCost, 0, len(keys))
	for _, k := range keys {
		result = append(result, entity.AccountCost{AccountID: k, Cost: amounts[k]})
	}
	return result
}

func costByRegion(table entity.CanonicalTable, topN int) []entity.RegionCost {
	totals := map[string]decimal.Decimal{}
	for i := range table {
		totals[table[i].Region] = totals[table[i].Region].Add(table[i].Cost)
	}
	keys, amounts := topNWithOthers(totals, topN)
	result := make([]entity.RegionCost, 0, len(keys))
	for _, k := range keys {
		result = append(result, entity.RegionCost{Region: k, Cost: amounts[k]})
	}
	return result
}

// dailyTrend buckets cost by UTC calendar day. Records with no usable usage
// date are excluded from the trend but still count toward totals.
func dailyTrend(table entity.CanonicalTable) []entity.DailyCost {
	totals := map[time.Time]decimal.Decimal{}
	for i := range table {
		if table[i].UsageStart.IsZero() {
			continue
		}
		t := table[i].UsageStart.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		totals[day] = totals[day].Add(table[i].Cost)
	}

	days := make([]time.Time, 0, len(totals))
	for d := range totals {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	trend := make([]entity.DailyCost, 0, len(days))
	for _, d := range days {
		trend = append(trend, entity.DailyCost{Date: d, Cost: totals[d].InexactFloat64()})
	}
	return trend
}

func monthlySummary(table entity.CanonicalTable) []entity.MonthlyCost {
	totals := map[string]decimal.Decimal{}
	for i := range table {
		if table[i].UsageStart.IsZero() {
			continue
		}
		month := table[i].UsageStart.UTC().Format("2006-01")
		totals[month] = totals[month].Add(table[i].Cost)
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	summary := make([]entity.MonthlyCost, 0, len(months))
	for _, m := range months {
		summary = append(summary, entity.MonthlyCost{Month: m, Cost: totals[m].InexactFloat64()})
	}
	return summary
}

// discountsSummary groups negative-cost line items by type. These are the
// credits, negations and discounts that reduce the invoice.
func discountsSummary(table entity.CanonicalTable) []entity.DiscountLine {
	totals := map[string]decimal.Decimal{}
	for i := range table {
		if table[i].Cost.IsNegative() {
			totals[table[i].LineItemType] = totals[table[i].LineItemType].Add(table[i].Cost)
		}
	}

	types := make([]string, 0, len(totals))
	for t := range totals {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		// Largest discount magnitude first.
		return totals[types[i]].LessThan(totals[types[j]])
	})

	lines := make([]entity.DiscountLine, 0, len(types))
	for _, t := range types {
		lines = append(lines, entity.DiscountLine{LineItemType: t, Amount: totals[t].InexactFloat64()})
	}
	return lines
}

// savingsPlanAnalysis measures Savings Plan effectiveness per service.
// SavingsPlanCoveredUsage rows carry the on-demand equivalent cost of covered
// usage, SavingsPlanRecurringFee rows the commitment actually paid, and
// SavingsPlanNegation rows the negative offset that removed the covered usage
// from the invoice. Savings is the negation magnitude. Services with no
// covered usage are left out; without covered usage there is nothing the plan
// applied to.
func savingsPlanAnalysis(table entity.CanonicalTable) ([]entity.SavingsPlanLine, entity.SavingsPlanSummary) {
	covered := map[string]decimal.Decimal{}
	recurring := map[string]decimal.Decimal{}
	negation := map[string]decimal.Decimal{}

	for i := range table {
		rec := &table[i]
		switch rec.LineItemType {
		case "SavingsPlanCoveredUsage":
			covered[rec.Service] = covered[rec.Service].Add(rec.Cost)
		case "SavingsPlanRecurringFee":
			recurring[rec.Service] = recurring[rec.Service].Add(rec.Cost)
		case "SavingsPlanNegation":
			negation[rec.Service] = negation[rec.Service].Add(rec.Cost)
		}
	}
	if len(covered) == 0 {
		return nil, entity.SavingsPlanSummary{}
	}

	services := make([]string, 0, len(covered))
	for s := range covered {
		services = append(services, s)
	}
	sort.Slice(services, func(i, j int) bool {
		ci, cj := covered[services[i]], covered[services[j]]
		if !ci.Equal(cj) {
			return ci.GreaterThan(cj)
		}
		return services[i] < services[j]
	})

	lines := make([]entity.SavingsPlanLine, 0, len(services))
	totalOnDemand := decimal.Zero
	totalSPCost := decimal.Zero
	totalSavings := decimal.Zero
	for _, s := range services {
		savings := negation[s].Abs()
		lines = append(lines, entity.SavingsPlanLine{
			Service:            s,
			OnDemandEquivalent: covered[s].InexactFloat64(),
			SavingsPlanCost:    recurring[s].InexactFloat64(),
			Savings:            savings.InexactFloat64(),
		})
		totalOnDemand = totalOnDemand.Add(covered[s])
		totalSPCost = totalSPCost.Add(recurring[s])
		totalSavings = totalSavings.Add(savings)
	}

	summary := entity.SavingsPlanSummary{
		OnDemandEquivalent: totalOnDemand.InexactFloat64(),
		SavingsPlanCost:    totalSPCost.InexactFloat64(),
		TotalSavings:       totalSavings.InexactFloat64(),
	}
	if totalOnDemand.IsPositive() {
		summary.SavingsPercentage = totalSavings.Div(totalOnDemand).InexactFloat64() * 100
	}
	return lines, summary
}

// detectAnomalies flags days whose total deviates from the mean by more
// than the z-score threshold. Needs at least three days to be meaningful.
func detectAnomalies(daily []entity.DailyCost) []entity.CostAnomaly {
	if len(daily) < 3 {
		return nil
	}

	var sum float64
	for _, d := range daily {
		sum += d.Cost
	}
	mean := sum / float64(len(daily))

	var variance float64
	for _, d := range daily {
		diff := d.Cost - mean
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(len(daily)))
	if stdDev == 0 {
		return nil
	}

	var anomalies []entity.CostAnomaly
	for _, d := range daily {
		z := (d.Cost - mean) / stdDev
		if math.Abs(z) >= anomalyZScoreThreshold {
			anomalies = append(anomalies, entity.CostAnomaly{Date: d.Date, Cost: d.Cost, ZScore: z})
		}
	}
	return anomalies
}

func buildSummary(table entity.CanonicalTable, daily []entity.DailyCost) entity.SummaryStatistics {
	total := decimal.Zero
	usage := decimal.Zero
	discounts := decimal.Zero
	accounts := map[string]bool{}
	services := map[string]bool{}

	for i := range table {
		rec := &table[i]
		total = total.Add(rec.Cost)
		if chargeLineItemTypes[rec.LineItemType] {
			usage = usage.Add(rec.Cost)
		}
		if rec.Cost.IsNegative() {
			discounts = discounts.Add(rec.Cost)
		}
		accounts[rec.AccountID] = true
		services[rec.Service] = true
	}

	stats := entity.SummaryStatistics{
		TotalCost:     total.InexactFloat64(),
		UsageCost:     usage.InexactFloat64(),
		DiscountTotal: discounts.InexactFloat64(),
		NumAccounts:   len(accounts),
		NumServices:   len(services),
		RecordCount:   len(table),
	}

	if len(daily) > 0 {
		var sum, max float64
		max = daily[0].Cost
		for _, d := range daily {
			sum += d.Cost
			if d.Cost > max {
				max = d.Cost
			}
		}
		stats.AverageDailyCost = sum / float64(len(daily))
		stats.MaxDailyCost = max
		stats.DateRangeStart = daily[0].Date
		stats.DateRangeEnd = daily[len(daily)-1].Date
	}

	return stats
}
