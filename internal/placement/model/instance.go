package model

import (
	"fmt"
	"net/netip"
)

// Job is the part of an instance group the placement engine cares about.
type Job struct {
	Name              string
	Instances         int
	AvailabilityZones []*AvailabilityZone
	Networks          []*JobNetwork
}

// DesiredInstances expands the job into one desired instance per index. None of them has an AZ yet.
func (j *Job) DesiredInstances() []*DesiredInstance {
	rv := make([]*DesiredInstance, j.Instances)
	for i := range rv {
		rv[i] = &DesiredInstance{Index: i, Job: j}
	}
	return rv
}

// DesiredInstance is a slot the job wants filled, independent of whether a prior VM already fills it.
// Az is unset until the picker assigns it.
type DesiredInstance struct {
	Index int
	Az    *AvailabilityZone
	Job   *Job
}

// AzName returns the name of the assigned availability zone or "" if none has been assigned.
func (d *DesiredInstance) AzName() string {
	if d == nil || d.Az == nil {
		return ""
	}
	return d.Az.Name
}

func (d *DesiredInstance) JobName() string {
	if d == nil || d.Job == nil {
		return ""
	}
	return d.Job.Name
}

func (d *DesiredInstance) String() string {
	return fmt.Sprintf("%s/%d", d.JobName(), d.Index)
}

// ExistingInstance is the persisted record of an instance created by a previous deployment.
type ExistingInstance struct {
	Uuid             string
	JobName          string
	Index            int
	AvailabilityZone string
	// Addresses currently bound to the instance, across all networks.
	IpAddresses []netip.Addr
}

func (e *ExistingInstance) String() string {
	return fmt.Sprintf("%s/%s", e.JobName, e.Uuid)
}

// Instance identifies the VM a reservation is made for.
type Instance struct {
	Uuid    string
	JobName string
	Index   int
}

func (i *Instance) String() string {
	if i == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s/%s (%d)", i.JobName, i.Uuid, i.Index)
}
