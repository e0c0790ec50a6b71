package model

import (
	"fmt"
	"net/netip"
)

type ReservationKind int

const (
	DynamicReservation ReservationKind = iota
	StaticReservation
)

func (k ReservationKind) String() string {
	switch k {
	case DynamicReservation:
		return "dynamic"
	case StaticReservation:
		return "static"
	default:
		return fmt.Sprintf("ReservationKind(%d)", int(k))
	}
}

// Reservation is the claim an instance holds against a network: a specific static IP or a dynamic lease.
type Reservation struct {
	Kind     ReservationKind
	Instance *Instance
	Network  *Network
	// Only valid for static reservations.
	Ip netip.Addr
}

func NewDynamicReservation(instance *Instance, network *Network) *Reservation {
	return &Reservation{
		Kind:     DynamicReservation,
		Instance: instance,
		Network:  network,
	}
}

func NewStaticReservation(instance *Instance, network *Network, ip netip.Addr) *Reservation {
	return &Reservation{
		Kind:     StaticReservation,
		Instance: instance,
		Network:  network,
		Ip:       ip,
	}
}

func (r *Reservation) NetworkName() string {
	if r.Network == nil {
		return ""
	}
	return r.Network.Name
}

func (r *Reservation) IsStatic() bool {
	return r.Kind == StaticReservation
}

func (r *Reservation) String() string {
	if r.IsStatic() {
		return fmt.Sprintf("{type=static, ip=%s, network=%s, instance=%s}", r.Ip, r.NetworkName(), r.Instance)
	}
	return fmt.Sprintf("{type=dynamic, network=%s, instance=%s}", r.NetworkName(), r.Instance)
}

// NetworkPlan pairs an instance with exactly one reservation. It is never modified once created.
type NetworkPlan struct {
	Reservation *Reservation
}

func (p *NetworkPlan) NetworkName() string {
	return p.Reservation.NetworkName()
}

type InstancePlanKind int

const (
	// NewInstancePlan is a desired instance with nothing backing it yet; it will be created.
	NewInstancePlan InstancePlanKind = iota
	// ExistingDesiredInstancePlan keeps an existing instance, bound to a desired instance.
	ExistingDesiredInstancePlan
	// ObsoleteInstancePlan is an existing instance with no desired instance to bind to; it will be deleted.
	ObsoleteInstancePlan
)

func (k InstancePlanKind) String() string {
	switch k {
	case NewInstancePlan:
		return "new"
	case ExistingDesiredInstancePlan:
		return "existing"
	case ObsoleteInstancePlan:
		return "obsolete"
	default:
		return fmt.Sprintf("InstancePlanKind(%d)", int(k))
	}
}

// InstancePlan is the placement decision for one instance.
// DesiredInstance is nil for obsolete plans and ExistingInstance is nil for new plans.
type InstancePlan struct {
	Kind             InstancePlanKind
	Instance         *Instance
	DesiredInstance  *DesiredInstance
	ExistingInstance *ExistingInstance
	NetworkPlans     []*NetworkPlan
}

func (p *InstancePlan) IsObsolete() bool {
	return p.Kind == ObsoleteInstancePlan
}

func (p *InstancePlan) IsNew() bool {
	return p.Kind == NewInstancePlan
}

// DesiredAzName returns the name of the availability zone assigned to the desired instance, or "".
func (p *InstancePlan) DesiredAzName() string {
	return p.DesiredInstance.AzName()
}

// AddNetworkPlan appends a network plan. Obsolete plans never carry network plans, so adding one is a bug.
func (p *InstancePlan) AddNetworkPlan(networkPlan *NetworkPlan) {
	if p.IsObsolete() {
		panic(fmt.Sprintf("attempted to add network plan %s to obsolete instance plan %s", networkPlan.Reservation, p.Instance))
	}
	p.NetworkPlans = append(p.NetworkPlans, networkPlan)
}

// NetworkPlanForNetwork returns the network plan for the given deployment network, or nil.
func (p *InstancePlan) NetworkPlanForNetwork(network *Network) *NetworkPlan {
	if network == nil {
		return nil
	}
	for _, networkPlan := range p.NetworkPlans {
		if networkPlan.NetworkName() == network.Name {
			return networkPlan
		}
	}
	return nil
}

// HasStaticNetworkPlan returns true if any network plan of this instance holds a static IP.
func (p *InstancePlan) HasStaticNetworkPlan() bool {
	for _, networkPlan := range p.NetworkPlans {
		if networkPlan.Reservation.IsStatic() {
			return true
		}
	}
	return false
}

func (p *InstancePlan) String() string {
	return fmt.Sprintf("%s instance plan for %s", p.Kind, p.Instance)
}
