package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/repository"
	"github.com/T-Klug/aws-cur-report-generator/internal/shared/types"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// ConfigRepositoryImpl implements the ConfigRepository.
type ConfigRepositoryImpl struct{}

// NewConfigRepository creates a new implementation of the ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	return &ConfigRepositoryImpl{}
}

// LoadConfigFile loads a TOML, YAML or JSON configuration file.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config types.Config
	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", fileExtension)
	}

	return &config, nil
}

// LoadEnv reads the CUR_* environment surface the original tooling used.
func (r *ConfigRepositoryImpl) LoadEnv() *types.Config {
	cfg := &types.Config{
		Bucket:    os.Getenv("CUR_BUCKET"),
		Prefix:    os.Getenv("CUR_PREFIX"),
		Profile:   os.Getenv("AWS_PROFILE"),
		Region:    os.Getenv("AWS_REGION"),
		StartDate: os.Getenv("START_DATE"),
		EndDate:   os.Getenv("END_DATE"),
		OutputDir: os.Getenv("OUTPUT_DIR"),
		CacheDir:  os.Getenv("CUR_CACHE_DIR"),
	}
	if topN := os.Getenv("TOP_N"); topN != "" {
		if n, err := strconv.Atoi(topN); err == nil && n > 0 {
			cfg.TopN = n
		}
	}
	return cfg
}
