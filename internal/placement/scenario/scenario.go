// Package scenario loads placement inputs from manifest-shaped YAML files.
package scenario

import (
	"fmt"
	"net/netip"

	"github.com/pkg/errors"
	"github.com/renstrom/shortuuid"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/placement/internal/common/placementerrors"
	"github.com/armadaproject/placement/internal/placement/model"
)

// Scenario describes one job of a deployment together with the instances currently deployed for it.
type Scenario struct {
	// Name of the scenario. Defaults to the name of the file it was loaded from.
	Name string
	// Availability zones declared by the deployment.
	Azs               []AzSpec      `validate:"dive"`
	Networks          []NetworkSpec `validate:"dive"`
	Job               JobSpec
	ExistingInstances []ExistingInstanceSpec `validate:"dive"`
}

type AzSpec struct {
	Name            string `validate:"required"`
	CloudProperties map[string]string
}

type NetworkSpec struct {
	Name    string       `validate:"required"`
	Subnets []SubnetSpec `validate:"dive"`
}

type SubnetSpec struct {
	Range    netip.Prefix
	Gateway  netip.Addr
	Reserved []netip.Addr
	// Static ips of the subnet. Entries are single addresses or ranges, e.g., "10.0.0.10 - 10.0.0.20".
	Static []netip.Addr
	// Zones the subnet spans. Empty for deployments without zones.
	Azs []string
}

type JobSpec struct {
	Name      string `validate:"required"`
	Instances int    `validate:"gte=0"`
	// Zones instances may be placed in, in order of preference.
	Azs      []string
	Networks []JobNetworkSpec `validate:"dive"`
}

type JobNetworkSpec struct {
	Name string `validate:"required"`
	// If non-empty, the network is static and each instance gets one of these ips.
	StaticIps []netip.Addr
	Default   []string
}

// ExistingInstanceSpec is the record of a deployed instance.
type ExistingInstanceSpec struct {
	// Generated if empty.
	Uuid  string
	Index int `validate:"gte=0"`
	Az    string
	Ips   []netip.Addr
}

// Input is everything the picker needs to place the job of a scenario.
type Input struct {
	Job               *model.Job
	DesiredAzs        []*model.AvailabilityZone
	JobNetworks       []*model.JobNetwork
	DesiredInstances  []*model.DesiredInstance
	ExistingInstances []*model.ExistingInstance
}

// Build resolves the references between the sections of the scenario and returns the resulting placement input.
// Every call returns fresh values; the picker mutates the desired instances it is given.
func (s *Scenario) Build() (*Input, error) {
	azsByName := make(map[string]*model.AvailabilityZone, len(s.Azs))
	for _, azSpec := range s.Azs {
		if _, ok := azsByName[azSpec.Name]; ok {
			return nil, s.invalid("azs", azSpec.Name, "availability zone is declared more than once")
		}
		azsByName[azSpec.Name] = &model.AvailabilityZone{
			Name:            azSpec.Name,
			CloudProperties: azSpec.CloudProperties,
		}
	}

	networksByName := make(map[string]*model.Network, len(s.Networks))
	for _, networkSpec := range s.Networks {
		if _, ok := networksByName[networkSpec.Name]; ok {
			return nil, s.invalid("networks", networkSpec.Name, "network is declared more than once")
		}
		network := &model.Network{Name: networkSpec.Name}
		for _, subnetSpec := range networkSpec.Subnets {
			for _, azName := range subnetSpec.Azs {
				if _, ok := azsByName[azName]; !ok {
					return nil, s.invalid("networks.subnets.azs", azName, fmt.Sprintf("subnet of network %q references an undeclared availability zone", networkSpec.Name))
				}
			}
			network.Subnets = append(network.Subnets, &model.Subnet{
				Range:                 subnetSpec.Range,
				Gateway:               subnetSpec.Gateway,
				Reserved:              subnetSpec.Reserved,
				Static:                subnetSpec.Static,
				AvailabilityZoneNames: slices.Clone(subnetSpec.Azs),
			})
		}
		networksByName[networkSpec.Name] = network
	}

	job := &model.Job{
		Name:      s.Job.Name,
		Instances: s.Job.Instances,
	}
	for _, azName := range s.Job.Azs {
		az, ok := azsByName[azName]
		if !ok {
			return nil, s.invalid("job.azs", azName, "job references an undeclared availability zone")
		}
		job.AvailabilityZones = append(job.AvailabilityZones, az)
	}
	jobNetworkNames := make(map[string]bool, len(s.Job.Networks))
	for _, jobNetworkSpec := range s.Job.Networks {
		if jobNetworkNames[jobNetworkSpec.Name] {
			return nil, s.invalid("job.networks", jobNetworkSpec.Name, "job references a network more than once")
		}
		jobNetworkNames[jobNetworkSpec.Name] = true
		network, ok := networksByName[jobNetworkSpec.Name]
		if !ok {
			return nil, s.invalid("job.networks", jobNetworkSpec.Name, "job references an undeclared network")
		}
		job.Networks = append(job.Networks, &model.JobNetwork{
			Name:              jobNetworkSpec.Name,
			Static:            len(jobNetworkSpec.StaticIps) > 0,
			StaticIps:         jobNetworkSpec.StaticIps,
			Default:           jobNetworkSpec.Default,
			DeploymentNetwork: network,
		})
	}

	existingInstances := make([]*model.ExistingInstance, len(s.ExistingInstances))
	for i, existingSpec := range s.ExistingInstances {
		existingInstances[i] = &model.ExistingInstance{
			Uuid:             existingSpec.Uuid,
			JobName:          job.Name,
			Index:            existingSpec.Index,
			AvailabilityZone: existingSpec.Az,
			IpAddresses:      existingSpec.Ips,
		}
	}

	return &Input{
		Job:               job,
		DesiredAzs:        job.AvailabilityZones,
		JobNetworks:       job.Networks,
		DesiredInstances:  job.DesiredInstances(),
		ExistingInstances: existingInstances,
	}, nil
}

func (s *Scenario) invalid(name, value, message string) error {
	return errors.WithStack(&placementerrors.ErrInvalidArgument{
		Name:    name,
		Value:   value,
		Message: fmt.Sprintf("scenario %s: %s", s.Name, message),
	})
}

func initialiseScenario(s *Scenario) {
	// Generate ids for existing instances without one.
	for i, existing := range s.ExistingInstances {
		if existing.Uuid == "" {
			existing.Uuid = shortuuid.New()
		}
		s.ExistingInstances[i] = existing
	}
}
