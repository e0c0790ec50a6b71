package placement

import (
	"net/netip"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/armadaproject/placement/internal/common/logging"
	"github.com/armadaproject/placement/internal/common/placementcontext"
	"github.com/armadaproject/placement/internal/common/placementerrors"
	"github.com/armadaproject/placement/internal/placement/instanceplan"
	"github.com/armadaproject/placement/internal/placement/model"
	"github.com/armadaproject/placement/internal/placement/networkplanner"
	"github.com/armadaproject/placement/internal/placement/staticipdb"
)

const (
	existingExhaustedMessage = "Failed to distribute static IPs to satisfy existing instance reservations"
	newExhaustedMessage      = "Failed to distribute static IPs to new instances"
)

// StaticAvailabilityZonePicker places the instances of a job onto availability zones and static IPs.
// Existing instances holding a static IP keep it, and with it their zone, as long as there is a desired
// instance for them; new instances are spread over zones in proportion to the static IP supply.
type StaticAvailabilityZonePicker struct {
	instancePlanFactory instanceplan.Factory
	// May be nil.
	metrics *Metrics
}

func NewStaticAvailabilityZonePicker(instancePlanFactory instanceplan.Factory, metrics *Metrics) *StaticAvailabilityZonePicker {
	return &StaticAvailabilityZonePicker{
		instancePlanFactory: instancePlanFactory,
		metrics:             metrics,
	}
}

// PlaceAndMatchIn reconciles existingInstances against desiredInstances and returns one instance plan per
// existing instance followed by one plan per desired instance not bound to an existing one.
// The availability zone of each desired instance is set as a side effect.
// On error no plans are returned and every desired instance keeps the zone it had before the call.
func (p *StaticAvailabilityZonePicker) PlaceAndMatchIn(
	ctx *placementcontext.Context,
	desiredAzs []*model.AvailabilityZone,
	jobNetworks []*model.JobNetwork,
	desiredInstances []*model.DesiredInstance,
	existingInstances []*model.ExistingInstance,
	jobName string,
) ([]*model.InstancePlan, error) {
	ctx = placementcontext.WithLogField(ctx, "job", jobName)
	plans, err := p.placeAndMatchIn(ctx, desiredAzs, jobNetworks, desiredInstances, existingInstances, jobName)
	if err != nil {
		p.metrics.ReportFailure(jobName, err)
		logging.WithStacktrace(ctx.Log, err).Debug("placement failed")
		return nil, err
	}
	p.metrics.ReportPlans(jobName, plans)
	return plans, nil
}

func (p *StaticAvailabilityZonePicker) placeAndMatchIn(
	ctx *placementcontext.Context,
	desiredAzs []*model.AvailabilityZone,
	jobNetworks []*model.JobNetwork,
	desiredInstances []*model.DesiredInstance,
	existingInstances []*model.ExistingInstance,
	jobName string,
) ([]*model.InstancePlan, error) {
	staticIpDb, err := newValidatedStaticIpDb(desiredAzs, jobNetworks, jobName)
	if err != nil {
		return nil, err
	}

	run := &placementRun{
		log:                 ctx.Log,
		jobName:             jobName,
		desiredAzs:          desiredAzs,
		jobNetworks:         jobNetworks,
		desiredInstances:    &desiredInstanceQueue{instances: desiredInstances},
		existingInstances:   existingInstances,
		staticIpDb:          staticIpDb,
		networkPlanner:      networkplanner.NewPlanner(staticIpDb, ctx.Log),
		instancePlanFactory: p.instancePlanFactory,
		ipOwners:            make(map[ipOnNetwork]*model.ExistingInstance),
	}
	previousAzs := make([]*model.AvailabilityZone, len(desiredInstances))
	for i, desired := range desiredInstances {
		previousAzs[i] = desired.Az
	}
	plans, err := run.place()
	if err != nil {
		for i, desired := range desiredInstances {
			desired.Az = previousAzs[i]
		}
		return nil, err
	}
	run.logSummary(plans)
	return plans, nil
}

// Validate checks the static ip declarations of a job against its zones without placing anything,
// returning the static ip supply per network.
func (p *StaticAvailabilityZonePicker) Validate(
	ctx *placementcontext.Context,
	desiredAzs []*model.AvailabilityZone,
	jobNetworks []*model.JobNetwork,
	jobName string,
) (map[string]staticipdb.NetworkStats, error) {
	ctx = placementcontext.WithLogField(ctx, "job", jobName)
	staticIpDb, err := newValidatedStaticIpDb(desiredAzs, jobNetworks, jobName)
	if err != nil {
		p.metrics.ReportFailure(jobName, err)
		logging.WithStacktrace(ctx.Log, err).Debug("validation failed")
		return nil, err
	}
	stats, err := staticIpDb.Stats()
	if err != nil {
		return nil, err
	}
	for _, network := range staticIpDb.Networks() {
		ctx.Log.Debugf("network %s has %d static ips", network, stats[network].Total)
	}
	return stats, nil
}

func newValidatedStaticIpDb(desiredAzs []*model.AvailabilityZone, jobNetworks []*model.JobNetwork, jobName string) (*staticipdb.StaticIpDb, error) {
	staticIpDb, err := staticipdb.NewStaticIpDb(jobNetworks, jobName)
	if err != nil {
		return nil, err
	}
	if err := staticIpDb.ValidateAzsAreDeclaredInJobAndSubnets(desiredAzs); err != nil {
		return nil, err
	}
	if err := staticIpDb.ValidateIpsAreInDesiredAzs(desiredAzs); err != nil {
		return nil, err
	}
	return staticIpDb, nil
}

// desiredInstanceQueue hands out desired instances in order without modifying the caller's slice.
type desiredInstanceQueue struct {
	instances []*model.DesiredInstance
	next      int
}

// pop returns the next desired instance, or nil if there are none left.
func (q *desiredInstanceQueue) pop() *model.DesiredInstance {
	if q.next >= len(q.instances) {
		return nil
	}
	rv := q.instances[q.next]
	q.next++
	return rv
}

type ipOnNetwork struct {
	network string
	ip      netip.Addr
}

// placementRun holds the state of a single call to PlaceAndMatchIn.
type placementRun struct {
	log                 *logrus.Entry
	jobName             string
	desiredAzs          []*model.AvailabilityZone
	jobNetworks         []*model.JobNetwork
	desiredInstances    *desiredInstanceQueue
	existingInstances   []*model.ExistingInstance
	staticIpDb          *staticipdb.StaticIpDb
	networkPlanner      *networkplanner.Planner
	instancePlanFactory instanceplan.Factory
	// Existing instance holding each static ip on each network.
	// Used to avoid handing out an ip twice if several records claim to hold it.
	ipOwners map[ipOnNetwork]*model.ExistingInstance
}

func (r *placementRun) place() ([]*model.InstancePlan, error) {
	existingPlans, err := r.placeExistingInstancePlans()
	if err != nil {
		return nil, err
	}
	newPlans, err := r.placeNewInstancePlans()
	if err != nil {
		return nil, err
	}
	return append(existingPlans, newPlans...), nil
}

// placeExistingInstancePlans creates a plan for every existing instance.
// Instances holding static ips are matched first so that they keep their ips and zones.
func (r *placementRun) placeExistingInstancePlans() ([]*model.InstancePlan, error) {
	var plans []*model.InstancePlan
	planned := make(map[*model.ExistingInstance]bool, len(r.existingInstances))

	for _, existing := range r.existingInstances {
		var plan *model.InstancePlan
		for _, jobNetwork := range r.jobNetworks {
			if !jobNetwork.IsStatic() {
				continue
			}
			hasNetworkPlan := false
			for _, ip := range existing.IpAddresses {
				if !jobNetwork.HasStaticIp(ip) {
					continue
				}
				staticIp, err := r.staticIpDb.FindByNetworkAndIp(jobNetwork, ip)
				if err != nil {
					return nil, err
				}
				if plan == nil {
					plan = r.existingInstancePlanForStaticIp(existing, staticIp)
					plans = append(plans, plan)
					planned[existing] = true
				}
				key := ipOnNetwork{network: jobNetwork.Name, ip: ip}
				owner, owned := r.ipOwners[key]
				if owned && owner != existing {
					r.log.Warnf("Static ip %s on network %s is held by both %s and %s", ip, jobNetwork.Name, owner, existing)
				}
				if !hasNetworkPlan && !owned && !plan.IsObsolete() && staticIp.AllowsAz(plan.DesiredAzName()) {
					plan.AddNetworkPlan(r.networkPlanner.NetworkPlanWithStaticReservation(plan, jobNetwork, ip))
					hasNetworkPlan = true
				}
				if !owned {
					r.ipOwners[key] = existing
				}
				// Claim even if the ip is not reused so that no other instance gets it.
				if err := r.staticIpDb.Claim(ip); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, existing := range r.existingInstances {
		if planned[existing] {
			continue
		}
		planned[existing] = true
		desired := r.desiredInstances.pop()
		if desired == nil {
			r.log.Debugf("No desired instance left for %s; marking it obsolete", existing)
			plans = append(plans, r.instancePlanFactory.ObsoleteInstancePlan(existing))
		} else {
			r.log.Debugf("Keeping %s as %s", existing, desired)
			plans = append(plans, r.instancePlanFactory.DesiredExistingInstancePlan(existing, desired))
		}
	}

	for _, plan := range plans {
		if plan.IsObsolete() {
			continue
		}
		if err := r.addMissingNetworkPlans(plan); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// existingInstancePlanForStaticIp binds existing to the next desired instance because it holds staticIp.
// The instance stays in its zone if staticIp may be used there, otherwise it moves to the first zone of staticIp.
func (r *placementRun) existingInstancePlanForStaticIp(existing *model.ExistingInstance, staticIp *staticipdb.StaticIpWithAzs) *model.InstancePlan {
	desired := r.desiredInstances.pop()
	if desired == nil {
		r.log.Debugf("No desired instance left for %s holding static ip %s; marking it obsolete", existing, staticIp.Ip)
		return r.instancePlanFactory.ObsoleteInstancePlan(existing)
	}
	plan := r.instancePlanFactory.DesiredExistingInstancePlan(existing, desired)
	azName := staticIp.FirstAzName()
	if staticIp.AllowsAz(existing.AvailabilityZone) {
		azName = existing.AvailabilityZone
	}
	desired.Az = r.toAz(azName)
	r.log.Debugf("Keeping %s holding static ip %s as %s in availability zone %q", existing, staticIp.Ip, desired, azName)
	return plan
}

// addMissingNetworkPlans gives plan a network plan on every job network it does not have one for yet.
func (r *placementRun) addMissingNetworkPlans(plan *model.InstancePlan) error {
	for _, jobNetwork := range r.jobNetworks {
		if plan.NetworkPlanForNetwork(jobNetwork.DeploymentNetwork) != nil {
			continue
		}
		if !jobNetwork.IsStatic() {
			plan.AddNetworkPlan(r.networkPlanner.NetworkPlanWithDynamicReservation(plan, jobNetwork))
			continue
		}
		var staticIp *staticipdb.StaticIpWithAzs
		var err error
		azPinned := plan.HasStaticNetworkPlan()
		if azPinned {
			// Another static network already fixed the zone of this instance.
			staticIp, err = r.staticIpDb.TakeNextIpForNetworkAndAz(jobNetwork, plan.DesiredAzName())
		} else {
			staticIp, err = r.staticIpDb.TakeNextIpForNetwork(jobNetwork)
		}
		if err != nil {
			return err
		}
		if staticIp == nil {
			e := &placementerrors.ErrPlacementExhausted{
				Job:     r.jobName,
				Network: jobNetwork.Name,
				Message: existingExhaustedMessage,
			}
			if azPinned {
				e.Az = plan.DesiredAzName()
			}
			return errors.WithStack(e)
		}
		plan.AddNetworkPlan(r.networkPlanner.NetworkPlanWithStaticReservation(plan, jobNetwork, staticIp.Ip))
		if !azPinned {
			plan.DesiredInstance.Az = r.toAz(staticIp.FirstAzName())
		}
	}
	return nil
}

// placeNewInstancePlans creates a plan for every desired instance not bound to an existing instance.
// The first static network of each instance decides its zone; later static networks must have an ip in that zone.
func (r *placementRun) placeNewInstancePlans() ([]*model.InstancePlan, error) {
	if err := r.staticIpDb.DistributeEvenlyPerZone(); err != nil {
		return nil, err
	}
	var plans []*model.InstancePlan
	for desired := r.desiredInstances.pop(); desired != nil; desired = r.desiredInstances.pop() {
		plan := r.instancePlanFactory.DesiredNewInstancePlan(desired)
		azName := ""
		azFixed := false
		// Without static networks a new instance has no zone.
		desired.Az = nil
		for _, jobNetwork := range r.jobNetworks {
			if !jobNetwork.IsStatic() {
				plan.AddNetworkPlan(r.networkPlanner.NetworkPlanWithDynamicReservation(plan, jobNetwork))
				continue
			}
			var staticIp *staticipdb.StaticIpWithAzs
			var err error
			if azFixed {
				staticIp, err = r.staticIpDb.TakeNextIpForNetworkAndAz(jobNetwork, azName)
			} else {
				staticIp, err = r.staticIpDb.TakeNextIpForNetwork(jobNetwork)
			}
			if err != nil {
				return nil, err
			}
			if staticIp == nil {
				return nil, errors.WithStack(&placementerrors.ErrPlacementExhausted{
					Job:     r.jobName,
					Network: jobNetwork.Name,
					Az:      azName,
					Message: newExhaustedMessage,
				})
			}
			if !azFixed {
				azName = staticIp.FirstAzName()
				azFixed = true
				desired.Az = r.toAz(azName)
			}
			plan.AddNetworkPlan(r.networkPlanner.NetworkPlanWithStaticReservation(plan, jobNetwork, staticIp.Ip))
		}
		r.log.Debugf("Placing new instance %s in availability zone %q", desired, desired.AzName())
		plans = append(plans, plan)
	}
	return plans, nil
}

// toAz returns the desired availability zone with the given name, or nil.
func (r *placementRun) toAz(azName string) *model.AvailabilityZone {
	if azName == "" {
		return nil
	}
	for _, az := range r.desiredAzs {
		if az != nil && az.Name == azName {
			return az
		}
	}
	return nil
}

func (r *placementRun) logSummary(plans []*model.InstancePlan) {
	numPlansByKind := make(map[model.InstancePlanKind]int)
	for _, plan := range plans {
		numPlansByKind[plan.Kind]++
	}
	r.log.Infof(
		"Placed %d instance plans: %d new, %d existing, %d obsolete",
		len(plans),
		numPlansByKind[model.NewInstancePlan],
		numPlansByKind[model.ExistingDesiredInstancePlan],
		numPlansByKind[model.ObsoleteInstancePlan],
	)
	if r.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		stats, err := r.staticIpDb.Stats()
		if err != nil {
			logging.WithStacktrace(r.log, err).Warn("could not compute static ip stats")
			return
		}
		for _, network := range r.staticIpDb.Networks() {
			r.log.Debugf("Network %s: %d of %d static ips claimed", network, stats[network].Claimed, stats[network].Total)
		}
	}
}
