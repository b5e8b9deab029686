package types

import "time"

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile  string
	Bucket      string
	Prefix      string
	Profile     string
	Region      string
	StartDate   *time.Time
	EndDate     *time.Time
	OutputDir   string
	ReportName  string
	ReportType  []string
	TopN        int
	SampleFiles int
	MaxRows     int
	Concurrency int
	CacheDir    string
	NoCache     bool
	ClearCache  bool
	SplitDedup  bool
	Debug       bool
}
