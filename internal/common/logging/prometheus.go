package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// PrometheusHook implements logrus.Hook, counting log lines by level.
type PrometheusHook struct {
	counter *prometheus.CounterVec
}

func NewPrometheusHook(metricPrefix string) *PrometheusHook {
	return &PrometheusHook{
		counter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "log_messages_total",
				Help: "Total number of log lines logged by level",
			},
			[]string{"level"},
		),
	}
}

func (h *PrometheusHook) Describe(ch chan<- *prometheus.Desc) {
	h.counter.Describe(ch)
}

func (h *PrometheusHook) Collect(ch chan<- prometheus.Metric) {
	h.counter.Collect(ch)
}

func (h *PrometheusHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
}

func (h *PrometheusHook) Fire(entry *logrus.Entry) error {
	h.counter.WithLabelValues(entry.Level.String()).Inc()
	return nil
}
