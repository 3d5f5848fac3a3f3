package schedule

import "github.com/prometheus/client_golang/prometheus"

// namespace is the leading part of all published metrics.
const namespace = "parcoords"

const subsystem = "scheduler"

// Metrics counts scheduler activity per draw-target key. A nil *Metrics
// records nothing.
type Metrics struct {
	Blocks        *prometheus.CounterVec // Number of blocks drawn.
	Turns         *prometheus.CounterVec // Number of scheduling turns.
	Cancellations *prometheus.CounterVec // Number of superseded redraws.
}

// NewMetrics initialises the scheduler metrics. They are not registered.
func NewMetrics() *Metrics {
	labels := []string{"layer"}
	return &Metrics{
		Blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "blocks_total",
			Help:      "Total number of line blocks drawn.",
		}, labels),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "turns_total",
			Help:      "Total number of scheduling turns.",
		}, labels),
		Cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cancellations_total",
			Help:      "Total number of redraws superseded before completion.",
		}, labels),
	}
}

// PrometheusCollectors satisfies the prom.PrometheusCollector interface.
func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{m.Blocks, m.Turns, m.Cancellations}
}

func (m *Metrics) block(key string) {
	if m != nil {
		m.Blocks.WithLabelValues(key).Inc()
	}
}

func (m *Metrics) turn(key string) {
	if m != nil {
		m.Turns.WithLabelValues(key).Inc()
	}
}

func (m *Metrics) cancelled(key string) {
	if m != nil {
		m.Cancellations.WithLabelValues(key).Inc()
	}
}
