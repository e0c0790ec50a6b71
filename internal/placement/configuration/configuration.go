package configuration

import (
	"github.com/pkg/errors"

	commonconfig "github.com/armadaproject/placement/internal/common/config"
)

const (
	// DefaultConfigPath is the directory the default config.yaml is loaded from.
	DefaultConfigPath = "./config/placement"
	// EnvPrefix is the prefix of environment variables overriding configuration, e.g., PLACEMENT_OUTPUT_FORMAT.
	EnvPrefix = "PLACEMENT"
)

const (
	TableFormat = "table"
	YamlFormat  = "yaml"
	JsonFormat  = "json"
)

type PlacementConfig struct {
	Logging LoggingConfig
	Output  OutputConfig
	Metrics MetricsConfig
	// Maximum number of scenarios planned concurrently.
	Parallelism int `validate:"gte=1"`
}

type LoggingConfig struct {
	// Log level, e.g., debug, info, warn.
	Level string `validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
}

type OutputConfig struct {
	// Format plans are printed in.
	Format string `validate:"required,oneof=table yaml json"`
}

type MetricsConfig struct {
	// If true, expose Prometheus metrics on Port while the command runs.
	Enabled bool
	Port    uint16 `validate:"required_if=Enabled true"`
}

func (c PlacementConfig) Validate() error {
	return commonconfig.Validate(c)
}

// Load reads the configuration from the default location, the given files and the environment, then validates it.
func Load(userSpecifiedConfigs []string) (PlacementConfig, error) {
	config := PlacementConfig{
		Output:      OutputConfig{Format: TableFormat},
		Parallelism: 1,
	}
	if _, err := commonconfig.LoadConfig(&config, DefaultConfigPath, userSpecifiedConfigs, EnvPrefix); err != nil {
		return config, err
	}
	if err := config.Validate(); err != nil {
		commonconfig.LogValidationErrors(err)
		return config, errors.WithMessage(err, "invalid configuration")
	}
	return config, nil
}
