package types

// Config represents the application configuration that can be loaded from a
// file or from CUR_* environment variables. CLI flags override file values,
// which override the environment.
type Config struct {
	Bucket      string   `json:"bucket" yaml:"bucket" toml:"bucket"`
	Prefix      string   `json:"prefix" yaml:"prefix" toml:"prefix"`
	Profile     string   `json:"profile" yaml:"profile" toml:"profile"`
	Region      string   `json:"region" yaml:"region" toml:"region"`
	StartDate   string   `json:"start_date" yaml:"start_date" toml:"start_date"`
	EndDate     string   `json:"end_date" yaml:"end_date" toml:"end_date"`
	OutputDir   string   `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	ReportName  string   `json:"report_name" yaml:"report_name" toml:"report_name"`
	ReportType  []string `json:"report_type" yaml:"report_type" toml:"report_type"`
	TopN        int      `json:"top_n" yaml:"top_n" toml:"top_n"`
	SampleFiles int      `json:"sample_files" yaml:"sample_files" toml:"sample_files"`
	MaxRows     int      `json:"max_rows" yaml:"max_rows" toml:"max_rows"`
	Concurrency int      `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	CacheDir    string   `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	NoCache     bool     `json:"no_cache" yaml:"no_cache" toml:"no_cache"`
	SplitDedup  bool     `json:"split_dedup" yaml:"split_dedup" toml:"split_dedup"`
}

// Merge overlays non-zero values from other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Bucket != "" {
		c.Bucket = other.Bucket
	}
	if other.Prefix != "" {
		c.Prefix = other.Prefix
	}
	if other.Profile != "" {
		c.Profile = other.Profile
	}
	if other.Region != "" {
		c.Region = other.Region
	}
	if other.StartDate != "" {
		c.StartDate = other.StartDate
	}
	if other.EndDate != "" {
		c.EndDate = other.EndDate
	}
	if other.OutputDir != "" {
		c.OutputDir = other.OutputDir
	}
	if other.ReportName != "" {
		c.ReportName = other.ReportName
	}
	if len(other.ReportType) > 0 {
		c.ReportType = other.ReportType
	}
	if other.TopN > 0 {
		c.TopN = other.TopN
	}
	if other.SampleFiles > 0 {
		c.SampleFiles = other.SampleFiles
	}
	if other.MaxRows > 0 {
		c.MaxRows = other.MaxRows
	}
	if other.Concurrency > 0 {
		c.Concurrency = other.Concurrency
	}
	if other.CacheDir != "" {
		c.CacheDir = other.CacheDir
	}
	if other.NoCache {
		c.NoCache = true
	}
	if other.SplitDedup {
		c.SplitDedup = true
	}
}
