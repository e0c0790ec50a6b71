package placement

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/armadaproject/placement/internal/common/metrics"
	"github.com/armadaproject/placement/internal/common/placementerrors"
	"github.com/armadaproject/placement/internal/placement/model"
)

const (
	jobLabel     = "job"
	kindLabel    = "kind"
	networkLabel = "network"
	reasonLabel  = "reason"
)

// Metrics records the outcome of placement runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	instancePlans    *prometheus.CounterVec
	staticIpsClaimed *prometheus.CounterVec
	failures         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		instancePlans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.MetricPrefix + "instance_plans_total",
				Help: "Number of instance plans produced, by kind",
			},
			[]string{jobLabel, kindLabel},
		),
		staticIpsClaimed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.MetricPrefix + "static_ips_claimed_total",
				Help: "Number of static ips reserved by instance plans",
			},
			[]string{jobLabel, networkLabel},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.MetricPrefix + "failures_total",
				Help: "Number of failed placement runs, by reason",
			},
			[]string{jobLabel, reasonLabel},
		),
	}
}

// Register registers all collectors with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	for _, c := range []prometheus.Collector{m.instancePlans, m.staticIpsClaimed, m.failures} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ReportPlans records the plans of a successful run.
func (m *Metrics) ReportPlans(jobName string, plans []*model.InstancePlan) {
	if m == nil {
		return
	}
	for _, plan := range plans {
		m.instancePlans.WithLabelValues(jobName, plan.Kind.String()).Inc()
		for _, networkPlan := range plan.NetworkPlans {
			if networkPlan.Reservation.IsStatic() {
				m.staticIpsClaimed.WithLabelValues(jobName, networkPlan.NetworkName()).Inc()
			}
		}
	}
}

func (m *Metrics) ReportFailure(jobName string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(jobName, placementerrors.Reason(err)).Inc()
}
