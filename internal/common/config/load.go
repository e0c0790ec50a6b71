package config

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig populates config from, in increasing order of precedence, the file "config.yaml" in defaultPath,
// each of userSpecifiedConfigs, and environment variables.
// Values already present in config are used as defaults.
// Environment variables are named after the upper-cased key path prefixed by envPrefix,
// e.g., PLACEMENT_OUTPUT_FORMAT for output::format.
func LoadConfig(config interface{}, defaultPath string, userSpecifiedConfigs []string, envPrefix string) (*viper.Viper, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))

	// Registering every key as a default also makes viper consider the environment for keys absent from all files.
	defaults := make(map[string]interface{})
	if err := mapstructure.Decode(config, &defaults); err != nil {
		return nil, errors.WithStack(err)
	}
	setDefaults(v, "", defaults)

	v.SetConfigName("config")
	v.AddConfigPath(defaultPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.WithMessagef(err, "failed to read default config from %s", defaultPath)
		}
		log.Debugf("No default config found in %s", defaultPath)
	}

	for _, configPath := range userSpecifiedConfigs {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.WithMessagef(err, "failed to read config from %s", configPath)
		}
		log.Debugf("Merged config from %s", configPath)
	}

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("::", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(config, CustomHooks...); err != nil {
		return nil, errors.WithStack(err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper, prefix string, values map[string]interface{}) {
	for key, value := range values {
		if prefix != "" {
			key = prefix + "::" + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			setDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, value)
	}
}
