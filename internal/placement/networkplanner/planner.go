package networkplanner

import (
	"net/netip"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/armadaproject/placement/internal/common/logging"
	"github.com/armadaproject/placement/internal/placement/model"
)

// StaticIpClaimer hands out static ips for a zone.
type StaticIpClaimer interface {
	ClaimStaticIpForAzAndNetwork(azName string, jobNetwork *model.JobNetwork) (netip.Addr, error)
}

// Planner builds the network plans of instance plans.
type Planner struct {
	claimer StaticIpClaimer
	logger  *logrus.Entry
}

func NewPlanner(claimer StaticIpClaimer, logger *logrus.Entry) *Planner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Planner{
		claimer: claimer,
		logger:  logger,
	}
}

func (p *Planner) NetworkPlanWithDynamicReservation(instancePlan *model.InstancePlan, jobNetwork *model.JobNetwork) *model.NetworkPlan {
	reservation := model.NewDynamicReservation(instancePlan.Instance, jobNetwork.DeploymentNetwork)
	p.logger.Debugf("Creating new dynamic reservation %s for instance %s", reservation, instancePlan.Instance)
	return &model.NetworkPlan{Reservation: reservation}
}

// NetworkPlanWithStaticReservation reserves an ip that has already been claimed by the caller.
func (p *Planner) NetworkPlanWithStaticReservation(instancePlan *model.InstancePlan, jobNetwork *model.JobNetwork, ip netip.Addr) *model.NetworkPlan {
	reservation := model.NewStaticReservation(instancePlan.Instance, jobNetwork.DeploymentNetwork, ip)
	p.logger.Debugf("Creating new static reservation %s for instance %s", reservation, instancePlan.Instance)
	return &model.NetworkPlan{Reservation: reservation}
}

// NetworkPlanWithClaimedStaticReservation claims the next ip of the network usable in the plan's zone and reserves it.
func (p *Planner) NetworkPlanWithClaimedStaticReservation(instancePlan *model.InstancePlan, jobNetwork *model.JobNetwork) (*model.NetworkPlan, error) {
	if p.claimer == nil {
		return nil, errors.Errorf("no static ip claimer configured for network %q", jobNetwork.Name)
	}
	ip, err := p.claimer.ClaimStaticIpForAzAndNetwork(instancePlan.DesiredAzName(), jobNetwork)
	if err != nil {
		return nil, err
	}
	return p.NetworkPlanWithStaticReservation(instancePlan, jobNetwork, ip), nil
}
