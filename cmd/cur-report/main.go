package main

import (
	"fmt"
	"os"

	"github.com/T-Klug/aws-cur-report-generator/internal/adapter/driven/config"
	"github.com/T-Klug/aws-cur-report-generator/internal/adapter/driven/export"
	"github.com/T-Klug/aws-cur-report-generator/internal/adapter/driven/s3"
	"github.com/T-Klug/aws-cur-report-generator/internal/adapter/driving/cli"
	"github.com/T-Klug/aws-cur-report-generator/internal/application/usecase"
	"github.com/T-Klug/aws-cur-report-generator/pkg/console"
	"github.com/T-Klug/aws-cur-report-generator/pkg/version"
)

func main() {
	app := cli.NewCLIApp(version.Version)

	exportRepo := export.NewExportRepository()
	configRepo := config.NewConfigRepository()
	consoleImpl := console.NewConsole()

	reportUseCase := usecase.NewReportUseCase(
		s3.NewStorageRepository,
		exportRepo,
		configRepo,
		consoleImpl,
	)

	app.SetReportUseCase(reportUseCase)

	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
