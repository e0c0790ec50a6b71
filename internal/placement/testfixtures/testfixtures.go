// Package testfixtures contains builders for the inputs of the placement engine, shared by tests.
package testfixtures

import (
	"fmt"
	"net/netip"
	"sync"

	"github.com/armadaproject/placement/internal/placement/model"
)

const TestJobName = "web"

func Ip(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func Ips(ss ...string) []netip.Addr {
	rv := make([]netip.Addr, len(ss))
	for i, s := range ss {
		rv[i] = Ip(s)
	}
	return rv
}

func Azs(names ...string) []*model.AvailabilityZone {
	rv := make([]*model.AvailabilityZone, len(names))
	for i, name := range names {
		rv[i] = &model.AvailabilityZone{Name: name}
	}
	return rv
}

// Subnet returns a subnet in the given zones whose static range is exactly the given ips.
func Subnet(azNames []string, static ...string) *model.Subnet {
	return &model.Subnet{
		Static:                Ips(static...),
		AvailabilityZoneNames: azNames,
	}
}

func DeploymentNetwork(name string, subnets ...*model.Subnet) *model.Network {
	return &model.Network{Name: name, Subnets: subnets}
}

// StaticJobNetwork returns a job network named after the deployment network, using the given static ips.
func StaticJobNetwork(network *model.Network, ips ...string) *model.JobNetwork {
	return &model.JobNetwork{
		Name:              network.Name,
		Static:            true,
		StaticIps:         Ips(ips...),
		DeploymentNetwork: network,
	}
}

func DynamicJobNetwork(network *model.Network) *model.JobNetwork {
	return &model.JobNetwork{
		Name:              network.Name,
		DeploymentNetwork: network,
	}
}

func Job(instances int, azs []*model.AvailabilityZone, networks ...*model.JobNetwork) *model.Job {
	return &model.Job{
		Name:              TestJobName,
		Instances:         instances,
		AvailabilityZones: azs,
		Networks:          networks,
	}
}

func ExistingInstance(uuid string, azName string, ips ...string) *model.ExistingInstance {
	return &model.ExistingInstance{
		Uuid:             uuid,
		JobName:          TestJobName,
		AvailabilityZone: azName,
		IpAddresses:      Ips(ips...),
	}
}

// SequentialUuids returns a generator of predictable instance ids: uuid-0, uuid-1, ...
// Safe for concurrent use.
func SequentialUuids() func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		rv := fmt.Sprintf("uuid-%d", i)
		i++
		return rv
	}
}
