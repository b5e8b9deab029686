package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/application/ingest"
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/repository"
	"github.com/T-Klug/aws-cur-report-generator/internal/shared/types"
	"go.uber.org/zap"
)

// defaultWindowDays is how far back the report reaches when no explicit
// date range is given.
const defaultWindowDays = 90

const defaultTopN = 10

// StorageFactory builds a StorageRepository once the AWS profile and region
// are known. Profile and region come from resolved configuration, which is
// only available after flag parsing.
type StorageFactory func(profile, region string) repository.StorageRepository

// ReportUseCase drives one end-to-end report: resolve configuration, run the
// ingestion pipeline, aggregate, display and export.
type ReportUseCase struct {
	newStorage StorageFactory
	exportRepo repository.ExportRepository
	configRepo repository.ConfigRepository
	console    types.ConsoleInterface
	logger     *zap.Logger

	progress types.ProgressHandle
}

// NewReportUseCase creates a new report use case.
func NewReportUseCase(
	newStorage StorageFactory,
	exportRepo repository.ExportRepository,
	configRepo repository.ConfigRepository,
	console types.ConsoleInterface,
) *ReportUseCase {
	return &ReportUseCase{
		newStorage: newStorage,
		exportRepo: exportRepo,
		configRepo: configRepo,
		console:    console,
		logger:     zap.NewNop(),
	}
}

// SetLogger replaces the no-op default, typically after --debug is parsed.
func (uc *ReportUseCase) SetLogger(logger *zap.Logger) {
	if logger != nil {
		uc.logger = logger
	}
}

// ResolveConfig layers configuration sources: environment, then config file,
// then CLI flags, later sources winning.
func (uc *ReportUseCase) ResolveConfig(args *types.CLIArgs) (*types.Config, error) {
	cfg := uc.configRepo.LoadEnv()

	if args.ConfigFile != "" {
		fileCfg, err := uc.configRepo.LoadConfigFile(args.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg.Merge(fileCfg)
	}

	cfg.Merge(&types.Config{
		Bucket:      args.Bucket,
		Prefix:      args.Prefix,
		Profile:     args.Profile,
		Region:      args.Region,
		OutputDir:   args.OutputDir,
		ReportName:  args.ReportName,
		ReportType:  args.ReportType,
		TopN:        args.TopN,
		SampleFiles: args.SampleFiles,
		MaxRows:     args.MaxRows,
		Concurrency: args.Concurrency,
		CacheDir:    args.CacheDir,
		NoCache:     args.NoCache,
		SplitDedup:  args.SplitDedup,
	})

	if cfg.Bucket == "" {
		return nil, types.ErrMissingBucket
	}
	if cfg.Prefix == "" {
		return nil, types.ErrMissingPrefix
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	return cfg, nil
}

// ResolveWindow determines the reporting window. CLI dates win over config
// dates; with neither, the window covers the last 90 days.
func (uc *ReportUseCase) ResolveWindow(args *types.CLIArgs, cfg *types.Config) (*entity.BillingPeriod, error) {
	start, err := resolveDate(args.StartDate, cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := resolveDate(args.EndDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}

	now := time.Now().UTC()
	if end == nil {
		e := now
		end = &e
	}
	if start == nil {
		s := end.AddDate(0, 0, -defaultWindowDays)
		start = &s
	}
	if !start.Before(*end) {
		return nil, fmt.Errorf("start date %s is not before end date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return &entity.BillingPeriod{Start: start.UTC(), End: end.UTC()}, nil
}

func resolveDate(flag *time.Time, configured string) (*time.Time, error) {
	if flag != nil {
		return flag, nil
	}
	if configured == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", configured)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RunReport executes the full report flow.
func (uc *ReportUseCase) RunReport(ctx context.Context, args *types.CLIArgs) error {
	cfg, err := uc.ResolveConfig(args)
	if err != nil {
		return err
	}
	window, err := uc.ResolveWindow(args, cfg)
	if err != nil {
		return err
	}

	storage := uc.newStorage(cfg.Profile, cfg.Region)

	// Validate credentials before any long-running work.
	status := uc.console.Status("Checking AWS credentials...")
	accountID, err := storage.AccountID(ctx)
	status.Stop()
	if err != nil {
		return fmt.Errorf("could not validate AWS credentials: %w", err)
	}
	uc.console.LogInfo("Using account %s, window %s to %s",
		accountID, window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))

	pipeline := ingest.New(storage, ingest.Options{
		Bucket:       cfg.Bucket,
		Prefix:       cfg.Prefix,
		Window:       window,
		Concurrency:  cfg.Concurrency,
		SampleFiles:  cfg.SampleFiles,
		MaxRows:      cfg.MaxRows,
		CacheDir:     cfg.CacheDir,
		CacheOff:     cfg.NoCache,
		SplitDedup:   cfg.SplitDedup,
		Logger:       uc.logger,
		OnStage:      uc.stageReporter(),
		OnObjectDone: uc.progressReporter(),
	})

	if args.ClearCache {
		removed, err := pipeline.Cache().Clear()
		if err != nil {
			uc.console.LogWarning("Failed to clear cache: %s", err)
		} else {
			uc.console.LogInfo("Cleared %d cached files", removed)
		}
	}

	result, err := pipeline.Run(ctx)
	uc.finishProgress()
	if err != nil {
		return err
	}
	if len(result.Table) == 0 {
		uc.displayManifest(result.Manifest)
		return types.ErrNoData
	}

	report := BuildReportData(result.Table, accountID, result.Manifest, cfg.TopN)
	uc.displayReport(report)

	if cfg.ReportName != "" {
		result.Table.SortByTime()
		uc.exportReport(report, result.Table, cfg)
	}
	return nil
}

// stageReporter returns an OnStage callback driving a spinner.
func (uc *ReportUseCase) stageReporter() func(ingest.Stage) {
	var status types.StatusHandle
	messages := map[ingest.Stage]string{
		ingest.StageDiscovering:   "Listing CUR files...",
		ingest.StageFiltering:     "Filtering by billing period...",
		ingest.StageFetching:      "Fetching CUR files...",
		ingest.StageNormalizing:   "Normalizing records...",
		ingest.StageDeduplicating: "Removing duplicates...",
	}
	return func(stage ingest.Stage) {
		msg, ok := messages[stage]
		if !ok {
			if status != nil {
				status.Stop()
				status = nil
			}
			return
		}
		if status == nil {
			status = uc.console.Status(msg)
		} else {
			status.Update(msg)
		}
	}
}

// progressReporter returns an OnObjectDone callback driving a progress bar,
// created lazily once the object total is known.
func (uc *ReportUseCase) progressReporter() func(done, total int) {
	return func(done, total int) {
		if uc.progress == nil {
			uc.progress = uc.console.ProgressWithTotal("Fetching CUR files", total)
		}
		uc.progress.Increment()
	}
}

func (uc *ReportUseCase) finishProgress() {
	if uc.progress != nil {
		uc.progress.Stop()
		uc.progress = nil
	}
}

func (uc *ReportUseCase) displayReport(report entity.ReportData) {
	s := report.Summary

	uc.console.Println()
	uc.console.LogSuccess("Cost Summary (%s to %s)",
		s.DateRangeStart.Format("2006-01-02"), s.DateRangeEnd.Format("2006-01-02"))

	summaryTable := uc.console.CreateTable()
	summaryTable.AddColumn("Metric")
	summaryTable.AddColumn("Value")
	summaryTable.AddRow("Total Cost", fmt.Sprintf("$%.2f", s.TotalCost))
	summaryTable.AddRow("Usage Cost", fmt.Sprintf("$%.2f", s.UsageCost))
	summaryTable.AddRow("Discounts", fmt.Sprintf("$%.2f", s.DiscountTotal))
	summaryTable.AddRow("Average Daily", fmt.Sprintf("$%.2f", s.AverageDailyCost))
	summaryTable.AddRow("Max Daily", fmt.Sprintf("$%.2f", s.MaxDailyCost))
	summaryTable.AddRow("Accounts", fmt.Sprintf("%d", s.NumAccounts))
	summaryTable.AddRow("Services", fmt.Sprintf("%d", s.NumServices))
	summaryTable.AddRow("Records", fmt.Sprintf("%d", s.RecordCount))
	uc.console.Print(summaryTable.Render())

	serviceTable := uc.console.CreateTable()
	serviceTable.AddColumn("Service")
	serviceTable.AddColumn("Cost")
	for _, sc := range report.CostByService {
		serviceTable.AddRow(sc.ServiceName, fmt.Sprintf("$%.2f", sc.Cost))
	}
	uc.console.Println()
	uc.console.LogInfo("Cost By Service")
	uc.console.Print(serviceTable.Render())

	if len(report.CostByAccount) > 1 {
		accountTable := uc.console.CreateTable()
		accountTable.AddColumn("Account")
		accountTable.AddColumn("Cost")
		for _, ac := range report.CostByAccount {
			accountTable.AddRow(ac.AccountID, fmt.Sprintf("$%.2f", ac.Cost))
		}
		uc.console.Println()
		uc.console.LogInfo("Cost By Account")
		uc.console.Print(accountTable.Render())
	}

	if len(report.CostByRegion) > 1 {
		regionTable := uc.console.CreateTable()
		regionTable.AddColumn("Region")
		regionTable.AddColumn("Cost")
		for _, rc := range report.CostByRegion {
			regionTable.AddRow(rc.Region, fmt.Sprintf("$%.2f", rc.Cost))
		}
		uc.console.Println()
		uc.console.LogInfo("Cost By Region")
		uc.console.Print(regionTable.Render())
	}

	if len(report.MonthlySummary) > 0 {
		uc.console.Println()
		uc.console.LogInfo("Monthly Trend")
		uc.console.DisplayTrendBars(report.MonthlySummary)
	}

	if len(report.Discounts) > 0 {
		discountTable := uc.console.CreateTable()
		discountTable.AddColumn("Line Item Type")
		discountTable.AddColumn("Amount")
		for _, d := range report.Discounts {
			discountTable.AddRow(d.LineItemType, fmt.Sprintf("$%.2f", d.Amount))
		}
		uc.console.Println()
		uc.console.LogInfo("Discounts and Credits")
		uc.console.Print(discountTable.Render())
	}

	if len(report.SavingsPlans) > 0 {
		spTable := uc.console.CreateTable()
		spTable.AddColumn("Service")
		spTable.AddColumn("On-Demand Equivalent")
		spTable.AddColumn("SP Cost")
		spTable.AddColumn("Savings")
		for _, sp := range report.SavingsPlans {
			spTable.AddRow(sp.Service,
				fmt.Sprintf("$%.2f", sp.OnDemandEquivalent),
				fmt.Sprintf("$%.2f", sp.SavingsPlanCost),
				fmt.Sprintf("$%.2f", sp.Savings))
		}
		uc.console.Println()
		uc.console.LogInfo("Savings Plan Analysis")
		uc.console.Print(spTable.Render())
		uc.console.LogSuccess("Savings Plans saved $%.2f (%.1f%% of on-demand)",
			report.SavingsPlanStats.TotalSavings, report.SavingsPlanStats.SavingsPercentage)
	}

	for _, a := range report.Anomalies {
		uc.console.LogWarning("Cost anomaly on %s: $%.2f (z=%.1f)",
			a.Date.Format("2006-01-02"), a.Cost, a.ZScore)
	}

	uc.displayManifest(report.Manifest)
}

func (uc *ReportUseCase) displayManifest(m entity.IngestManifest) {
	uc.console.Println()
	uc.console.LogInfo("Ingested %d of %d files (%d cache hits, %d cache writes), %d records after removing %d duplicates",
		m.ObjectsAfterPartitionFilter-len(m.FetchFailures), m.TotalObjectsListed,
		m.CacheHits, m.CacheWrites, m.FinalRecordCount, m.DuplicatesRemoved)
	if m.SplitParentsSuppressed > 0 {
		uc.console.LogInfo("Suppressed %d split-parent rows covered by their children", m.SplitParentsSuppressed)
	}
	for _, f := range m.FetchFailures {
		uc.console.LogWarning("Skipped s3://%s/%s: %s", f.Object.Bucket, f.Object.Key, f.Message)
	}
	for _, w := range m.Warnings {
		uc.console.LogWarning("%s", w)
	}
}

func (uc *ReportUseCase) exportReport(report entity.ReportData, table entity.CanonicalTable, cfg *types.Config) {
	reportTypes := cfg.ReportType
	if len(reportTypes) == 0 {
		reportTypes = []string{"csv"}
	}
	for _, reportType := range reportTypes {
		switch reportType {
		case "csv":
			path, err := uc.exportRepo.ExportReportToCSV(report, cfg.ReportName, cfg.OutputDir)
			if err != nil {
				uc.console.LogError("Failed to export report to CSV: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported report to CSV: %s", path)
			}
		case "json":
			path, err := uc.exportRepo.ExportReportToJSON(report, cfg.ReportName, cfg.OutputDir)
			if err != nil {
				uc.console.LogError("Failed to export report to JSON: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported report to JSON: %s", path)
			}
		case "pdf":
			path, err := uc.exportRepo.ExportReportToPDF(report, cfg.ReportName, cfg.OutputDir)
			if err != nil {
				uc.console.LogError("Failed to export report to PDF: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported report to PDF: %s", path)
			}
		case "table":
			path, err := uc.exportRepo.ExportTableToCSV(table, cfg.ReportName+"_lineitems", cfg.OutputDir)
			if err != nil {
				uc.console.LogError("Failed to export line items to CSV: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported line items to CSV: %s", path)
			}
		default:
			uc.console.LogWarning("Unknown report type '%s' (expected csv, json, pdf or table)", reportType)
		}
	}
}
