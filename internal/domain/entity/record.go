package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalField enumerates the schema-stable columns every CUR vintage is
// mapped onto, regardless of which column names the export happens to use.
type CanonicalField string

const (
	FieldLineItemID    CanonicalField = "line_item_id"
	FieldCost          CanonicalField = "cost"
	FieldUsageStart    CanonicalField = "usage_date"
	FieldAccountID     CanonicalField = "account_id"
	FieldService       CanonicalField = "service"
	FieldUsageType     CanonicalField = "usage_type"
	FieldOperation     CanonicalField = "operation"
	FieldRegion        CanonicalField = "region"
	FieldResourceID    CanonicalField = "resource_id"
	FieldLineItemType  CanonicalField = "line_item_type"
	FieldSplitParentID CanonicalField = "split_parent_resource_id"
)

// UnknownValue fills categorical fields that are absent from a file's schema.
const UnknownValue = "Unknown"

// RawRecord is a row exactly as decoded from a file, keyed by whatever column
// names that file's vintage uses.
type RawRecord map[string]string

// CanonicalRecord is one billing line item after schema normalization.
// Cost stays signed: negative values are credits, discounts and negations and
// are required for correct total-cost accounting.
type CanonicalRecord struct {
	LineItemID    string          `json:"line_item_id,omitempty"`
	Cost          decimal.Decimal `json:"cost"`
	UsageStart    time.Time       `json:"usage_date"`
	AccountID     string          `json:"account_id"`
	Service       string          `json:"service"`
	UsageType     string          `json:"usage_type"`
	Operation     string          `json:"operation"`
	Region        string          `json:"region"`
	ResourceID    string          `json:"resource_id,omitempty"`
	LineItemType  string          `json:"line_item_type"`
	SplitParentID string          `json:"split_parent_resource_id,omitempty"`
}

// CanonicalTable is the deduplicated, schema-stable dataset one pipeline run
// produces. It is owned by the run that produced it and handed downstream as
// a read-only value.
type CanonicalTable []CanonicalRecord

// TotalCost sums every row, credits and negations included.
func (t CanonicalTable) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range t {
		total = total.Add(t[i].Cost)
	}
	return total
}

// SortByTime orders the table by usage date, then line item id. Fetch
// completion order varies run to run, so callers that need deterministic
// output sort as a separate step.
func (t CanonicalTable) SortByTime() {
	sort.SliceStable(t, func(i, j int) bool {
		if !t[i].UsageStart.Equal(t[j].UsageStart) {
			return t[i].UsageStart.Before(t[j].UsageStart)
		}
		return t[i].LineItemID < t[j].LineItemID
	})
}
