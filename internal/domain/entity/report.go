package entity

import "time"

// ServiceCost represents a cost amount for a specific AWS service.
type ServiceCost struct {
	ServiceName string  `json:"service_name"`
	Cost        float64 `json:"cost"`
}

// AccountCost represents a cost amount attributed to one usage account.
type AccountCost struct {
	AccountID string  `json:"account_id"`
	Cost      float64 `json:"cost"`
}

// RegionCost represents a cost amount attributed to one region.
type RegionCost struct {
	Region string  `json:"region"`
	Cost   float64 `json:"cost"`
}

// DailyCost is one point of the daily cost trend.
type DailyCost struct {
	Date time.Time `json:"date"`
	Cost float64   `json:"cost"`
}

// MonthlyCost represents the cost for a specific month, used for trend display.
type MonthlyCost struct {
	Month string  `json:"month"`
	Cost  float64 `json:"cost"`
}

// DiscountLine summarizes one credit/discount line item type, e.g.
// SavingsPlanNegation or EdpDiscount. Amounts are negative.
type DiscountLine struct {
	LineItemType string  `json:"line_item_type"`
	Amount       float64 `json:"amount"`
}

// SavingsPlanLine compares Savings Plan cost against the on-demand
// equivalent for one service. OnDemandEquivalent sums SavingsPlanCoveredUsage
// rows (what on-demand would have charged), SavingsPlanCost sums the
// SavingsPlanRecurringFee rows actually paid, and Savings is the magnitude of
// the SavingsPlanNegation offset.
type SavingsPlanLine struct {
	Service            string  `json:"service"`
	OnDemandEquivalent float64 `json:"on_demand_equivalent"`
	SavingsPlanCost    float64 `json:"savings_plan_cost"`
	Savings            float64 `json:"savings"`
}

// SavingsPlanSummary rolls Savings Plan effectiveness up across services.
type SavingsPlanSummary struct {
	OnDemandEquivalent float64 `json:"on_demand_equivalent"`
	SavingsPlanCost    float64 `json:"savings_plan_cost"`
	TotalSavings       float64 `json:"total_savings"`
	SavingsPercentage  float64 `json:"savings_percentage"`
}

// CostAnomaly flags a day whose total cost deviates from the period mean.
type CostAnomaly struct {
	Date   time.Time `json:"date"`
	Cost   float64   `json:"cost"`
	ZScore float64   `json:"z_score"`
}

// SummaryStatistics is the roll-up record handed to the report layer.
type SummaryStatistics struct {
	TotalCost        float64   `json:"total_cost"`
	UsageCost        float64   `json:"usage_cost"`
	DiscountTotal    float64   `json:"discount_total"`
	AverageDailyCost float64   `json:"average_daily_cost"`
	MaxDailyCost     float64   `json:"max_daily_cost"`
	NumAccounts      int       `json:"num_accounts"`
	NumServices      int       `json:"num_services"`
	RecordCount      int       `json:"record_count"`
	DateRangeStart   time.Time `json:"date_range_start"`
	DateRangeEnd     time.Time `json:"date_range_end"`
}

// ReportData bundles every aggregate the report exporters consume.
type ReportData struct {
	AccountID        string             `json:"account_id,omitempty"`
	Summary          SummaryStatistics  `json:"summary"`
	CostByService    []ServiceCost      `json:"cost_by_service"`
	CostByAccount    []AccountCost      `json:"cost_by_account"`
	CostByRegion     []RegionCost       `json:"cost_by_region"`
	DailyTrend       []DailyCost        `json:"daily_trend"`
	MonthlySummary   []MonthlyCost      `json:"monthly_summary"`
	Discounts        []DiscountLine     `json:"discounts,omitempty"`
	SavingsPlans     []SavingsPlanLine  `json:"savings_plans,omitempty"`
	SavingsPlanStats SavingsPlanSummary `json:"savings_plan_summary"`
	Anomalies        []CostAnomaly      `json:"anomalies,omitempty"`
	Manifest         IngestManifest     `json:"manifest"`
}
