package parcoords

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/parcoords/internal/schedule"
)

// Metrics collects chart and scheduler activity. One Metrics may be
// shared by many charts; register its PrometheusCollectors once.
type Metrics struct {
	scheduler *schedule.Metrics

	Gestures *prometheus.CounterVec // Number of completed gestures by kind.
	Charts   prometheus.Gauge       // Number of live charts.
}

// NewMetrics initialises chart metrics. They are not registered.
func NewMetrics() *Metrics {
	return &Metrics{
		scheduler: schedule.NewMetrics(),
		Gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parcoords",
			Subsystem: "chart",
			Name:      "gestures_total",
			Help:      "Total number of completed axis reorders and brushes.",
		}, []string{"kind"}),
		Charts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parcoords",
			Subsystem: "chart",
			Name:      "live",
			Help:      "Number of charts created and not yet destroyed.",
		}),
	}
}

// PrometheusCollectors satisfies the prom.PrometheusCollector interface.
func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return append(m.scheduler.PrometheusCollectors(), m.Gestures, m.Charts)
}

func (m *Metrics) schedulerMetrics() *schedule.Metrics {
	if m == nil {
		return nil
	}
	return m.scheduler
}

func (m *Metrics) gesture(kind string) {
	if m != nil {
		m.Gestures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) chartCreated() {
	if m != nil {
		m.Charts.Inc()
	}
}

func (m *Metrics) chartDestroyed() {
	if m != nil {
		m.Charts.Dec()
	}
}
