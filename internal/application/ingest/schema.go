package ingest

import (
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// columnVariants lists, per canonical field, the historical CUR column
// spellings in priority order. Legacy CSV exports use slash paths
// (lineItem/UnblendedCost), Athena/Parquet exports use snake_case, and a few
// early vintages used bare names. First present spelling wins.
var columnVariants = map[entity.CanonicalField][]string{
	entity.FieldLineItemID: {
		"identity_line_item_id",
		"identity/LineItemId",
		"lineItem/LineItemId",
		"line_item_id",
	},
	entity.FieldCost: {
		"line_item_unblended_cost",
		"lineItem/UnblendedCost",
		"line_item_blended_cost",
		"lineItem/BlendedCost",
		"cost",
		"unblended_cost",
	},
	entity.FieldUsageStart: {
		"line_item_usage_start_date",
		"lineItem/UsageStartDate",
		"usage_start_date",
		"bill_billing_period_start_date",
	},
	entity.FieldAccountID: {
		"line_item_usage_account_id",
		"lineItem/UsageAccountId",
		"usage_account_id",
		"bill_payer_account_id",
	},
	entity.FieldService: {
		"line_item_product_code",
		"lineItem/ProductCode",
		"product_product_name",
		"product/ProductName",
		"service",
		"product_name",
	},
	entity.FieldUsageType: {
		"line_item_usage_type",
		"lineItem/UsageType",
		"usage_type",
	},
	entity.FieldOperation: {
		"line_item_operation",
		"lineItem/Operation",
		"operation",
	},
	entity.FieldRegion: {
		"product_region",
		"product/region",
		"line_item_availability_zone",
		"lineItem/AvailabilityZone",
		"region",
	},
	entity.FieldResourceID: {
		"line_item_resource_id",
		"lineItem/ResourceId",
		"resource_id",
	},
	entity.FieldLineItemType: {
		"line_item_line_item_type",
		"lineItem/LineItemType",
		"line_item_type",
	},
	entity.FieldSplitParentID: {
		"split_line_item_parent_resource_id",
		"splitLineItem/ParentResourceId",
	},
}

// ColumnMap resolves each canonical field to the first matching column name
// present in a file. Absent fields are simply missing from the map; that is
// not an error, the field is unavailable for this file.
func ColumnMap(availableColumns []string) map[entity.CanonicalField]string {
	available := make(map[string]bool, len(availableColumns))
	for _, c := range availableColumns {
		available[c] = true
	}

	result := make(map[entity.CanonicalField]string)
	for field, variants := range columnVariants {
		for _, name := range variants {
			if available[name] {
				result[field] = name
				break
			}
		}
	}
	return result
}

// KnownColumns returns the union of every legacy spelling the normalizer
// recognizes. Decoders use it to project files down to relevant columns
// before rows ever reach memory in bulk.
func KnownColumns() map[string]bool {
	known := make(map[string]bool)
	for _, variants := range columnVariants {
		for _, name := range variants {
			known[name] = true
		}
	}
	return known
}

// usageDateLayouts covers the formats CUR exports use for usage timestamps.
// All values are normalized to a timezone-naive UTC instant so records from
// different file vintages compare consistently.
var usageDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize projects raw rows onto the canonical field set. Cost is coerced
// to a signed decimal (non-numeric values become 0, the row is never
// dropped); missing categorical fields get the "Unknown" sentinel. Negative
// and zero cost rows are preserved: credits, discounts and negations offset
// positive usage charges, and filtering them silently inflates totals.
func Normalize(rows []entity.RawRecord, colMap map[entity.CanonicalField]string) []entity.CanonicalRecord {
	records := make([]entity.CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		rec := entity.CanonicalRecord{
			LineItemID:    row[colMap[entity.FieldLineItemID]],
			Cost:          parseCost(row[colMap[entity.FieldCost]]),
			UsageStart:    parseUsageDate(row[colMap[entity.FieldUsageStart]]),
			AccountID:     row[colMap[entity.FieldAccountID]],
			Service:       row[colMap[entity.FieldService]],
			UsageType:     row[colMap[entity.FieldUsageType]],
			Operation:     row[colMap[entity.FieldOperation]],
			Region:        row[colMap[entity.FieldRegion]],
			ResourceID:    row[colMap[entity.FieldResourceID]],
			LineItemType:  row[colMap[entity.FieldLineItemType]],
			SplitParentID: row[colMap[entity.FieldSplitParentID]],
		}
		fillUnknowns(&rec)
		records = append(records, rec)
	}
	return records
}

func parseCost(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	cost, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return cost
}

func parseUsageDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range usageDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func fillUnknowns(rec *entity.CanonicalRecord) {
	fields := []*string{
		&rec.AccountID, &rec.Service, &rec.UsageType,
		&rec.Operation, &rec.Region, &rec.LineItemType,
	}
	for _, f := range fields {
		if *f == "" {
			*f = entity.UnknownValue
		}
	}
}
