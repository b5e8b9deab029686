package repository

import (
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
)

type ExportRepository interface {
	ExportTableToCSV(table entity.CanonicalTable, filename, outputDir string) (string, error)
	ExportReportToCSV(report entity.ReportData, filename, outputDir string) (string, error)
	ExportReportToJSON(report entity.ReportData, filename, outputDir string) (string, error)
	ExportReportToPDF(report entity.ReportData, filename, outputDir string) (string, error)
}
