package placementctl

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/armadaproject/placement/internal/common/logging"
	"github.com/armadaproject/placement/internal/common/placementcontext"
	"github.com/armadaproject/placement/internal/placement"
	"github.com/armadaproject/placement/internal/placement/scenario"
)

// ScenarioValidation summarises a scenario that passed validation.
type ScenarioValidation struct {
	Scenario string              `json:"scenario"`
	Job      string              `json:"job"`
	Networks []NetworkValidation `json:"networks,omitempty"`
}

type NetworkValidation struct {
	Network   string `json:"network"`
	StaticIps int    `json:"staticIps"`
}

// ValidateScenarios checks the static ip declarations of every scenario matching pattern against its zones,
// without placing any instances.
func (a *App) ValidateScenarios(ctx *placementcontext.Context, pattern string) error {
	scenarios, err := scenario.ScenariosFromPattern(pattern)
	if err != nil {
		return err
	}

	picker := a.picker()
	var result *multierror.Error
	var validations []*ScenarioValidation
	for _, s := range scenarios {
		ctx := placementcontext.WithLogField(ctx, "scenario", s.Name)
		validation, err := validateScenario(ctx, picker, s)
		if err != nil {
			logging.WithStacktrace(ctx.Log, err).Error("validation failed")
			result = multierror.Append(result, errors.WithMessagef(err, "scenario %s", s.Name))
			continue
		}
		validations = append(validations, validation)
	}
	if err := a.printValidations(validations); err != nil {
		return err
	}
	return result.ErrorOrNil()
}

func validateScenario(ctx *placementcontext.Context, picker *placement.StaticAvailabilityZonePicker, s *scenario.Scenario) (*ScenarioValidation, error) {
	input, err := s.Build()
	if err != nil {
		return nil, err
	}
	stats, err := picker.Validate(ctx, input.DesiredAzs, input.JobNetworks, input.Job.Name)
	if err != nil {
		return nil, err
	}
	rv := &ScenarioValidation{Scenario: s.Name, Job: input.Job.Name}
	for _, jobNetwork := range input.JobNetworks {
		if networkStats, ok := stats[jobNetwork.Name]; ok {
			rv.Networks = append(rv.Networks, NetworkValidation{Network: jobNetwork.Name, StaticIps: networkStats.Total})
		}
	}
	return rv, nil
}
