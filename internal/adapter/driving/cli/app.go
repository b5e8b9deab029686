package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/application/usecase"
	"github.com/T-Klug/aws-cur-report-generator/internal/shared/types"
	"github.com/T-Klug/aws-cur-report-generator/pkg/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd       *cobra.Command
	reportUseCase *usecase.ReportUseCase
	version       string
}

// NewCLIApp creates a new CLI application.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
	}

	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:     "cur-report",
		Short:   "AWS Cost and Usage Report generator",
		Long:    "Reads AWS Cost and Usage Report exports from S3 and produces cost summaries, trends and exportable reports.",
		Version: formattedVersion,
		RunE:    app.runCommand,
	}

	rootCmd.SetVersionTemplate(`{{printf "AWS CUR Report Generator version: %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().StringP("bucket", "b", "", "S3 bucket holding the CUR export (or set CUR_BUCKET)")
	rootCmd.PersistentFlags().StringP("prefix", "x", "", "Key prefix of the CUR export inside the bucket (or set CUR_PREFIX)")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "AWS profile to use (default: credential chain)")
	rootCmd.PersistentFlags().StringP("region", "r", "", "AWS region override")
	rootCmd.PersistentFlags().StringP("start-date", "s", "", "Start of the reporting window, YYYY-MM-DD (default: 90 days ago)")
	rootCmd.PersistentFlags().StringP("end-date", "e", "", "End of the reporting window, YYYY-MM-DD (default: today)")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
	rootCmd.PersistentFlags().StringP("report-name", "n", "", "Base name for the report file (without extension); no export when empty")
	rootCmd.PersistentFlags().StringSliceP("report-type", "y", []string{"csv"}, "Report types: csv, json, pdf, table")
	rootCmd.PersistentFlags().IntP("top-n", "t", 0, "How many services/accounts/regions to show before rolling up into Others")
	rootCmd.PersistentFlags().Int("sample-files", 0, "Ingest only the first N files, for quick inspection")
	rootCmd.PersistentFlags().Int("max-rows", 0, "Cap rows read per file, for quick inspection")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Parallel downloads (default: 2x CPUs, capped at 32)")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory for the local file cache")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Bypass the local file cache")
	rootCmd.PersistentFlags().Bool("clear-cache", false, "Clear the local file cache before running")
	rootCmd.PersistentFlags().Bool("split-dedup", false, "Suppress split-parent rows already covered by their split children")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// parseArgs parses command-line arguments into a CLIArgs struct.
func (app *CLIApp) parseArgs() (*types.CLIArgs, error) {
	flags := app.rootCmd.Flags()

	configFile, _ := flags.GetString("config-file")
	bucket, _ := flags.GetString("bucket")
	prefix, _ := flags.GetString("prefix")
	profile, _ := flags.GetString("profile")
	region, _ := flags.GetString("region")
	startDate, _ := flags.GetString("start-date")
	endDate, _ := flags.GetString("end-date")
	dir, _ := flags.GetString("dir")
	reportName, _ := flags.GetString("report-name")
	reportType, _ := flags.GetStringSlice("report-type")
	topN, _ := flags.GetInt("top-n")
	sampleFiles, _ := flags.GetInt("sample-files")
	maxRows, _ := flags.GetInt("max-rows")
	concurrency, _ := flags.GetInt("concurrency")
	cacheDir, _ := flags.GetString("cache-dir")
	noCache, _ := flags.GetBool("no-cache")
	clearCache, _ := flags.GetBool("clear-cache")
	splitDedup, _ := flags.GetBool("split-dedup")
	debug, _ := flags.GetBool("debug")

	start, err := parseDateFlag("start-date", startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateFlag("end-date", endDate)
	if err != nil {
		return nil, err
	}

	if dir != "" {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = absDir
	}

	args := &types.CLIArgs{
		ConfigFile:  configFile,
		Bucket:      bucket,
		Prefix:      prefix,
		Profile:     profile,
		Region:      region,
		StartDate:   start,
		EndDate:     end,
		OutputDir:   dir,
		ReportName:  reportName,
		ReportType:  reportType,
		TopN:        topN,
		SampleFiles: sampleFiles,
		MaxRows:     maxRows,
		Concurrency: concurrency,
		CacheDir:    cacheDir,
		NoCache:     noCache,
		ClearCache:  clearCache,
		SplitDedup:  splitDedup,
		Debug:       debug,
	}

	return args, nil
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", name, value)
	}
	t = t.UTC()
	return &t, nil
}

// runCommand is the main entry point for the CLI command.
func (app *CLIApp) runCommand(cmd *cobra.Command, args []string) error {
	displayWelcomeBanner(app.version)

	go version.CheckLatestVersion(app.version)

	cliArgs, err := app.parseArgs()
	if err != nil {
		return err
	}

	if cliArgs.Debug {
		logger, err := zap.NewDevelopment()
		if err == nil {
			defer logger.Sync()
			app.reportUseCase.SetLogger(logger)
		}
	}

	ctx := context.Background()
	return app.reportUseCase.RunReport(ctx, cliArgs)
}

// SetReportUseCase sets the report use case for the CLI app.
func (app *CLIApp) SetReportUseCase(useCase *usecase.ReportUseCase) {
	app.reportUseCase = useCase
}
