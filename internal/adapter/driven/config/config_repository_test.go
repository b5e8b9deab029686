package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFileTOML(t *testing.T) {
	path := writeTemp(t, "config.toml", `
bucket = "my-cur-bucket"
prefix = "reports/cur/"
top_n = 15
split_dedup = true
`)

	cfg, err := NewConfigRepository().LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "my-cur-bucket", cfg.Bucket)
	assert.Equal(t, "reports/cur/", cfg.Prefix)
	assert.Equal(t, 15, cfg.TopN)
	assert.True(t, cfg.SplitDedup)
}

func TestLoadConfigFileYAML(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
bucket: my-cur-bucket
prefix: reports/cur/
report_type:
  - csv
  - pdf
`)

	cfg, err := NewConfigRepository().LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "my-cur-bucket", cfg.Bucket)
	assert.Equal(t, []string{"csv", "pdf"}, cfg.ReportType)
}

func TestLoadConfigFileJSON(t *testing.T) {
	path := writeTemp(t, "config.json", `{"bucket": "b", "prefix": "p", "max_rows": 1000}`)

	cfg, err := NewConfigRepository().LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.Bucket)
	assert.Equal(t, 1000, cfg.MaxRows)
}

func TestLoadConfigFileUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "config.ini", "bucket=b")

	_, err := NewConfigRepository().LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := NewConfigRepository().LoadConfigFile("/nonexistent/config.toml")
	assert.Error(t, err)
}

func TestLoadConfigFileDirectory(t *testing.T) {
	dir := t.TempDir()
	renamed := dir + ".toml"
	require.NoError(t, os.Rename(dir, renamed))
	defer os.RemoveAll(renamed)

	_, err := NewConfigRepository().LoadConfigFile(renamed)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("CUR_BUCKET", "env-bucket")
	t.Setenv("CUR_PREFIX", "env-prefix/")
	t.Setenv("TOP_N", "7")

	cfg := NewConfigRepository().LoadEnv()
	assert.Equal(t, "env-bucket", cfg.Bucket)
	assert.Equal(t, "env-prefix/", cfg.Prefix)
	assert.Equal(t, 7, cfg.TopN)
}

func TestLoadEnvIgnoresBadTopN(t *testing.T) {
	t.Setenv("TOP_N", "not-a-number")

	cfg := NewConfigRepository().LoadEnv()
	assert.Zero(t, cfg.TopN)
}
