package placementctl

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/armadaproject/placement/internal/common/logging"
	"github.com/armadaproject/placement/internal/common/placementcontext"
	"github.com/armadaproject/placement/internal/placement/model"
	"github.com/armadaproject/placement/internal/placement/scenario"
)

// PlanScenarios places the job of every scenario matching pattern and prints the resulting plans.
// Scenarios are planned concurrently, up to the configured parallelism.
// Plans of successful scenarios are printed even if others fail; the failures are returned together.
func (a *App) PlanScenarios(ctx *placementcontext.Context, pattern string) error {
	scenarios, err := scenario.ScenariosFromPattern(pattern)
	if err != nil {
		return err
	}
	ctx.Log.Debugf("planning %d scenarios", len(scenarios))

	picker := a.picker()
	plans := make([]*ScenarioPlan, len(scenarios))
	errs := make([]error, len(scenarios))
	g, gctx := placementcontext.ErrGroup(ctx)
	g.SetLimit(a.parallelism())
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			ctx := placementcontext.WithLogFields(gctx, logrus.Fields{"scenario": s.Name, "job": s.Job.Name})
			input, err := s.Build()
			if err != nil {
				errs[i] = err
				return nil
			}
			instancePlans, err := picker.PlaceAndMatchIn(
				ctx, input.DesiredAzs, input.JobNetworks, input.DesiredInstances, input.ExistingInstances, input.Job.Name,
			)
			if err != nil {
				errs[i] = err
				return nil
			}
			plans[i] = NewScenarioPlan(s.Name, input.Job.Name, instancePlans)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var result *multierror.Error
	var succeeded []*ScenarioPlan
	for i, err := range errs {
		if err != nil {
			logging.WithStacktrace(ctx.Log.WithField("scenario", scenarios[i].Name), err).Error("planning failed")
			result = multierror.Append(result, errors.WithMessagef(err, "scenario %s", scenarios[i].Name))
			continue
		}
		succeeded = append(succeeded, plans[i])
	}
	if err := a.printPlans(succeeded); err != nil {
		return err
	}
	return result.ErrorOrNil()
}

// ScenarioPlan is the printable form of the plans produced for one scenario.
type ScenarioPlan struct {
	Scenario  string             `json:"scenario"`
	Job       string             `json:"job"`
	Instances []InstancePlanView `json:"instances"`
}

type InstancePlanView struct {
	Uuid  string `json:"uuid"`
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Az    string `json:"az,omitempty"`
	// Uuid of the existing instance record the plan was derived from, if any.
	Existing string            `json:"existing,omitempty"`
	Networks []NetworkPlanView `json:"networks,omitempty"`
}

type NetworkPlanView struct {
	Network     string `json:"network"`
	Reservation string `json:"reservation"`
	Ip          string `json:"ip,omitempty"`
}

func NewScenarioPlan(scenarioName string, jobName string, plans []*model.InstancePlan) *ScenarioPlan {
	rv := &ScenarioPlan{
		Scenario:  scenarioName,
		Job:       jobName,
		Instances: make([]InstancePlanView, len(plans)),
	}
	for i, plan := range plans {
		view := InstancePlanView{
			Uuid:  plan.Instance.Uuid,
			Index: plan.Instance.Index,
			Kind:  plan.Kind.String(),
			Az:    plan.DesiredAzName(),
		}
		if plan.ExistingInstance != nil {
			view.Existing = plan.ExistingInstance.Uuid
		}
		for _, networkPlan := range plan.NetworkPlans {
			networkView := NetworkPlanView{
				Network:     networkPlan.NetworkName(),
				Reservation: networkPlan.Reservation.Kind.String(),
			}
			if networkPlan.Reservation.IsStatic() {
				networkView.Ip = networkPlan.Reservation.Ip.String()
			}
			view.Networks = append(view.Networks, networkView)
		}
		rv.Instances[i] = view
	}
	return rv
}

func (v NetworkPlanView) String() string {
	if v.Ip == "" {
		return fmt.Sprintf("%s=%s", v.Network, v.Reservation)
	}
	return fmt.Sprintf("%s=%s", v.Network, v.Ip)
}
