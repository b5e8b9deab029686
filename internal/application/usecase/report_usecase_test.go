package usecase

import (
	"testing"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConfigRepo serves canned configuration.
type stubConfigRepo struct {
	env  *types.Config
	file *types.Config
}

func (s *stubConfigRepo) LoadConfigFile(filePath string) (*types.Config, error) {
	return s.file, nil
}

func (s *stubConfigRepo) LoadEnv() *types.Config {
	if s.env == nil {
		return &types.Config{}
	}
	return s.env
}

func newTestUseCase(configRepo *stubConfigRepo) *ReportUseCase {
	return NewReportUseCase(nil, nil, configRepo, nil)
}

func TestResolveConfigFlagsWinOverFileAndEnv(t *testing.T) {
	uc := newTestUseCase(&stubConfigRepo{
		env:  &types.Config{Bucket: "env-bucket", Prefix: "env-prefix", Region: "us-east-1"},
		file: &types.Config{Bucket: "file-bucket", TopN: 5},
	})

	cfg, err := uc.ResolveConfig(&types.CLIArgs{
		ConfigFile: "config.toml",
		Bucket:     "flag-bucket",
	})
	require.NoError(t, err)

	assert.Equal(t, "flag-bucket", cfg.Bucket)
	assert.Equal(t, "env-prefix", cfg.Prefix)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 5, cfg.TopN)
}

func TestResolveConfigMissingBucket(t *testing.T) {
	uc := newTestUseCase(&stubConfigRepo{})

	_, err := uc.ResolveConfig(&types.CLIArgs{Prefix: "cur/"})
	assert.ErrorIs(t, err, types.ErrMissingBucket)
}

func TestResolveConfigMissingPrefix(t *testing.T) {
	uc := newTestUseCase(&stubConfigRepo{})

	_, err := uc.ResolveConfig(&types.CLIArgs{Bucket: "b"})
	assert.ErrorIs(t, err, types.ErrMissingPrefix)
}

func TestResolveConfigDefaultTopN(t *testing.T) {
	uc := newTestUseCase(&stubConfigRepo{})

	cfg, err := uc.ResolveConfig(&types.CLIArgs{Bucket: "b", Prefix: "p"})
	require.NoError(t, err)
	assert.Equal(t, defaultTopN, cfg.TopN)
}

func TestResolveWindowDefaultsToLast90Days(t *testing.T) {
	uc := newTestUseCase(&stubConfigRepo{})

	window, err := uc.ResolveWindow(&types.CLIArgs{}, &types.Config{})
	require.NoError(t, err)

	assert.InDelta(t, float64(defaultWindowDays*24), window.End.Sub(window.Start).Hours(), 1)
	assert.WithinDuration(t, time.Now().UTC(), window.End, time.Minute)
}

func TestResolveWindowFlagsWinOverConfig(t *testing.T) {
	uc := newTestUseCase(&stubConfigRepo{})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	window, err := uc.ResolveWindow(
		&types.CLIArgs{StartDate: &start},
		&types.Config{StartDate: "2023-06-01", EndDate: "2024-02-01"},
	)
	require.NoError(t, err)

	assert.Equal(t, start, window.Start)
	assert.Equal(t, "2024-02-01", window.End.Format("2006-01-02"))
}

func TestResolveWindowRejectsInvertedRange(t *testing.T) {
	uc := newTestUseCase(&stubConfigRepo{})

	_, err := uc.ResolveWindow(&types.CLIArgs{}, &types.Config{
		StartDate: "2024-02-01",
		EndDate:   "2024-01-01",
	})
	assert.Error(t, err)
}

func TestResolveWindowRejectsMalformedDate(t *testing.T) {
	uc := newTestUseCase(&stubConfigRepo{})

	_, err := uc.ResolveWindow(&types.CLIArgs{}, &types.Config{StartDate: "01/02/2024"})
	assert.Error(t, err)
}
