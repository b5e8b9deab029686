package repository

import (
	"github.com/T-Klug/aws-cur-report-generator/internal/shared/types"
)

// ConfigRepository defines the interface for loading configuration files
// and the CUR_* environment surface.
type ConfigRepository interface {
	LoadConfigFile(filePath string) (*types.Config, error)
	LoadEnv() *types.Config
}
