package scenario

import (
	"path/filepath"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	commonconfig "github.com/armadaproject/placement/internal/common/config"
	"github.com/armadaproject/placement/internal/common/placementerrors"
)

// ScenariosFromPattern loads every scenario file matching pattern, e.g., "~/scenarios/**/*.yaml".
func ScenariosFromPattern(pattern string) ([]*Scenario, error) {
	pattern, err := homedir.Expand(pattern)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	filePaths, err := zglob.Glob(pattern)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to expand pattern %s", pattern)
	}
	if len(filePaths) == 0 {
		return nil, errors.WithStack(&placementerrors.ErrInvalidArgument{
			Name:    "scenarios",
			Value:   pattern,
			Message: "pattern matches no files",
		})
	}
	return ScenariosFromFilePaths(filePaths)
}

func ScenariosFromFilePaths(filePaths []string) ([]*Scenario, error) {
	rv := make([]*Scenario, len(filePaths))
	for i, filePath := range filePaths {
		scenario, err := ScenarioFromFilePath(filePath)
		if err != nil {
			return nil, err
		}
		rv[i] = scenario
	}
	return rv, nil
}

func ScenarioFromFilePath(filePath string) (*Scenario, error) {
	rv := &Scenario{}
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		err = errors.WithMessagef(err, "failed to read in Scenario %s", filePath)
		return nil, errors.WithStack(err)
	}
	if err := v.Unmarshal(rv, commonconfig.CustomHooks...); err != nil {
		err = errors.WithMessagef(err, "failed to unmarshal Scenario %s", filePath)
		return nil, errors.WithStack(err)
	}

	// If no scenario name is provided, set it to be the filename.
	if rv.Name == "" {
		fileName := filepath.Base(filePath)
		fileName = strings.TrimSuffix(fileName, filepath.Ext(fileName))
		rv.Name = fileName
	}
	initialiseScenario(rv)

	if err := commonconfig.Validate(rv); err != nil {
		commonconfig.LogValidationErrors(err)
		return nil, errors.WithMessagef(err, "invalid Scenario %s", filePath)
	}
	return rv, nil
}
