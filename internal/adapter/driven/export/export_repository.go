package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/repository"
	"github.com/jung-kurt/gofpdf"
)

// ExportRepositoryImpl implements the ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository creates a new implementation of the ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// ExportTableToCSV writes the full canonical line item table, one row per
// record. The table is expected to be sorted by the caller.
func (r *ExportRepositoryImpl) ExportTableToCSV(table entity.CanonicalTable, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{
		"line_item_id", "usage_date", "account_id", "service", "usage_type",
		"operation", "region", "resource_id", "line_item_type", "cost",
	}
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}

	for _, rec := range table {
		usageDate := ""
		if !rec.UsageStart.IsZero() {
			usageDate = rec.UsageStart.Format("2006-01-02T15:04:05")
		}
		record := []string{
			rec.LineItemID,
			usageDate,
			rec.AccountID,
			rec.Service,
			rec.UsageType,
			rec.Operation,
			rec.Region,
			rec.ResourceID,
			rec.LineItemType,
			rec.Cost.String(),
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("error writing CSV record: %w", err)
		}
	}

	return filepath.Abs(outputFilename)
}

// ExportReportToCSV writes the aggregated report as one CSV with labelled
// sections, matching the layout of the terminal tables.
func (r *ExportRepositoryImpl) ExportReportToCSV(report entity.ReportData, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating report CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	write := func(record ...string) error {
		return writer.Write(record)
	}

	if err := write("Section", "Key", "Value"); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}

	s := report.Summary
	write("Summary", "Account ID", report.AccountID)
	write("Summary", "Date Range", fmt.Sprintf("%s to %s", s.DateRangeStart.Format("2006-01-02"), s.DateRangeEnd.Format("2006-01-02")))
	write("Summary", "Total Cost", fmt.Sprintf("$%.2f", s.TotalCost))
	write("Summary", "Usage Cost", fmt.Sprintf("$%.2f", s.UsageCost))
	write("Summary", "Discounts", fmt.Sprintf("$%.2f", s.DiscountTotal))
	write("Summary", "Average Daily Cost", fmt.Sprintf("$%.2f", s.AverageDailyCost))
	write("Summary", "Max Daily Cost", fmt.Sprintf("$%.2f", s.MaxDailyCost))
	write("Summary", "Accounts", fmt.Sprintf("%d", s.NumAccounts))
	write("Summary", "Services", fmt.Sprintf("%d", s.NumServices))
	write("Summary", "Records", fmt.Sprintf("%d", s.RecordCount))

	for _, sc := range report.CostByService {
		write("Cost By Service", sc.ServiceName, fmt.Sprintf("$%.2f", sc.Cost))
	}
	for _, ac := range report.CostByAccount {
		write("Cost By Account", ac.AccountID, fmt.Sprintf("$%.2f", ac.Cost))
	}
	for _, rc := range report.CostByRegion {
		write("Cost By Region", rc.Region, fmt.Sprintf("$%.2f", rc.Cost))
	}
	for _, mc := range report.MonthlySummary {
		write("Monthly Summary", mc.Month, fmt.Sprintf("$%.2f", mc.Cost))
	}
	for _, dc := range report.DailyTrend {
		write("Daily Trend", dc.Date.Format("2006-01-02"), fmt.Sprintf("$%.2f", dc.Cost))
	}
	for _, d := range report.Discounts {
		write("Discounts", d.LineItemType, fmt.Sprintf("$%.2f", d.Amount))
	}
	for _, sp := range report.SavingsPlans {
		write("Savings Plans", sp.Service, fmt.Sprintf("on-demand $%.2f, sp cost $%.2f, saved $%.2f",
			sp.OnDemandEquivalent, sp.SavingsPlanCost, sp.Savings))
	}
	if len(report.SavingsPlans) > 0 {
		sps := report.SavingsPlanStats
		write("Savings Plans", "Total", fmt.Sprintf("saved $%.2f (%.1f%% of on-demand)",
			sps.TotalSavings, sps.SavingsPercentage))
	}
	for _, a := range report.Anomalies {
		write("Anomalies", a.Date.Format("2006-01-02"), fmt.Sprintf("$%.2f (z=%.2f)", a.Cost, a.ZScore))
	}

	m := report.Manifest
	write("Ingestion", "Objects Listed", fmt.Sprintf("%d", m.TotalObjectsListed))
	write("Ingestion", "Objects After Filter", fmt.Sprintf("%d", m.ObjectsAfterPartitionFilter))
	write("Ingestion", "Cache Hits", fmt.Sprintf("%d", m.CacheHits))
	write("Ingestion", "Cache Writes", fmt.Sprintf("%d", m.CacheWrites))
	write("Ingestion", "Fetch Failures", fmt.Sprintf("%d", len(m.FetchFailures)))
	write("Ingestion", "Duplicates Removed", fmt.Sprintf("%d", m.DuplicatesRemoved))
	write("Ingestion", "Final Record Count", fmt.Sprintf("%d", m.FinalRecordCount))

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportReportToJSON(report entity.ReportData, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportReportToPDF(report entity.ReportData, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	sectionTitleColor := [3]int{0, 0, 0}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	drawSection := func(title string, content string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)

		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.MultiCell(190, 5, tr(content), "", "L", false)
		pdf.Ln(8)
	}

	pdf.AddPage()

	// Header
	s := report.Summary
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  AWS Cost and Usage Report"), "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	if report.AccountID != "" {
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Account ID: %s", report.AccountID)), "", 1, "L", true, 0, "")
	}
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Period: %s to %s",
		s.DateRangeStart.Format("2006-01-02"), s.DateRangeEnd.Format("2006-01-02"))), "", 1, "L", true, 0, "")
	pdf.Ln(8)

	// Cost Summary
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
	pdf.Cell(0, 8, "Cost Summary")
	pdf.Ln(7)
	pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
	pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("$%.2f", s.TotalCost)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(190, 5, tr(fmt.Sprintf(
		"Usage: $%.2f   Discounts: $%.2f\nAverage daily: $%.2f   Max daily: $%.2f\nAccounts: %d   Services: %d   Records: %d",
		s.UsageCost, s.DiscountTotal, s.AverageDailyCost, s.MaxDailyCost,
		s.NumAccounts, s.NumServices, s.RecordCount)), "", "L", false)
	pdf.Ln(8)

	var b strings.Builder
	for _, sc := range report.CostByService {
		b.WriteString(fmt.Sprintf("%s: $%.2f\n", sc.ServiceName, sc.Cost))
	}
	drawSection("Cost By Service", b.String())

	b.Reset()
	for _, ac := range report.CostByAccount {
		b.WriteString(fmt.Sprintf("%s: $%.2f\n", ac.AccountID, ac.Cost))
	}
	drawSection("Cost By Account", b.String())

	b.Reset()
	for _, rc := range report.CostByRegion {
		b.WriteString(fmt.Sprintf("%s: $%.2f\n", rc.Region, rc.Cost))
	}
	drawSection("Cost By Region", b.String())

	b.Reset()
	for _, mc := range report.MonthlySummary {
		b.WriteString(fmt.Sprintf("%s: $%.2f\n", mc.Month, mc.Cost))
	}
	drawSection("Monthly Summary", b.String())

	b.Reset()
	for _, d := range report.Discounts {
		b.WriteString(fmt.Sprintf("%s: $%.2f\n", d.LineItemType, d.Amount))
	}
	drawSection("Discounts and Credits", b.String())

	b.Reset()
	for _, sp := range report.SavingsPlans {
		b.WriteString(fmt.Sprintf("%s: on-demand $%.2f, sp cost $%.2f, saved $%.2f\n",
			sp.Service, sp.OnDemandEquivalent, sp.SavingsPlanCost, sp.Savings))
	}
	if len(report.SavingsPlans) > 0 {
		sps := report.SavingsPlanStats
		b.WriteString(fmt.Sprintf("Total: saved $%.2f (%.1f%% of on-demand)\n",
			sps.TotalSavings, sps.SavingsPercentage))
	}
	drawSection("Savings Plan Analysis", b.String())

	b.Reset()
	for _, a := range report.Anomalies {
		direction := "above"
		if a.ZScore < 0 {
			direction = "below"
		}
		b.WriteString(fmt.Sprintf("%s: $%.2f (%.1f std devs %s mean)\n",
			a.Date.Format("2006-01-02"), a.Cost, abs(a.ZScore), direction))
	}
	drawSection("Cost Anomalies", b.String())

	m := report.Manifest
	b.Reset()
	b.WriteString(fmt.Sprintf("Objects listed: %d\n", m.TotalObjectsListed))
	b.WriteString(fmt.Sprintf("Objects after date filter: %d\n", m.ObjectsAfterPartitionFilter))
	b.WriteString(fmt.Sprintf("Cache hits: %d, cache writes: %d\n", m.CacheHits, m.CacheWrites))
	b.WriteString(fmt.Sprintf("Fetch failures: %d\n", len(m.FetchFailures)))
	b.WriteString(fmt.Sprintf("Duplicates removed: %d\n", m.DuplicatesRemoved))
	b.WriteString(fmt.Sprintf("Final record count: %d\n", m.FinalRecordCount))
	for _, w := range m.Warnings {
		b.WriteString(fmt.Sprintf("Warning: %s\n", w))
	}
	drawSection("Ingestion Summary", b.String())

	// Footer
	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	footerText := fmt.Sprintf("Generated by AWS CUR Report Generator | %s", time.Now().Format("2006-01-02"))
	pdf.CellFormat(0, 10, tr(footerText), "", 0, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// generateFilename creates a unique timestamped file name and ensures the
// output directory exists.
func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
