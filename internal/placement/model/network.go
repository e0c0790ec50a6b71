package model

import (
	"net/netip"

	"golang.org/x/exp/slices"
)

// AvailabilityZone is a named failure-isolation domain instances can be pinned to.
type AvailabilityZone struct {
	Name            string
	CloudProperties map[string]string
}

// Subnet is one subnet of a deployment network.
// Static IPs inherit the availability zones of the subnet declaring them.
type Subnet struct {
	Range                 netip.Prefix
	Gateway               netip.Addr
	Reserved              []netip.Addr
	Static                []netip.Addr
	AvailabilityZoneNames []string
}

// HasStaticIp returns true if ip is declared in the static range of this subnet.
func (s *Subnet) HasStaticIp(ip netip.Addr) bool {
	return slices.Contains(s.Static, ip)
}

// Network is the deployment-level definition of a network. Reservations are made against it.
type Network struct {
	Name    string
	Subnets []*Subnet
}

// SubnetForStaticIp returns the first subnet whose static range contains ip, or nil.
func (n *Network) SubnetForStaticIp(ip netip.Addr) *Subnet {
	if n == nil {
		return nil
	}
	for _, subnet := range n.Subnets {
		if subnet.HasStaticIp(ip) {
			return subnet
		}
	}
	return nil
}

// JobNetwork is a network attached to a job.
// Static job networks own an ordered set of IPs, drawn from the static ranges of the deployment network's subnets.
type JobNetwork struct {
	Name              string
	Static            bool
	StaticIps         []netip.Addr
	Default           []string
	DeploymentNetwork *Network
}

func (n *JobNetwork) IsStatic() bool {
	return n.Static || len(n.StaticIps) > 0
}

// HasStaticIp returns true if ip is one of the static IPs declared by the job on this network.
func (n *JobNetwork) HasStaticIp(ip netip.Addr) bool {
	return slices.Contains(n.StaticIps, ip)
}
