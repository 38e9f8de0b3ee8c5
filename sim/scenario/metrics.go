package scenario

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects run totals for export in the Prometheus textfile format,
// for batch runs scraped through a node-exporter textfile directory.
type Metrics struct {
	registry *prometheus.Registry

	scenarios *prometheus.CounterVec
	infected  *prometheus.GaugeVec
	recovered *prometheus.GaugeVec
	dead      *prometheus.GaugeVec
	events    *prometheus.GaugeVec
	wall      prometheus.Histogram
}

// NewMetrics creates a Metrics with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sirsim_scenarios_total",
			Help: "Scenarios finished, by final state.",
		}, []string{"state"}),
		infected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sirsim_scenario_infected",
			Help: "People who ever became infectious in a scenario.",
		}, []string{"scenario"}),
		recovered: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sirsim_scenario_recovered",
			Help: "People recovered at the end of a scenario.",
		}, []string{"scenario"}),
		dead: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sirsim_scenario_dead",
			Help: "People dead at the end of a scenario.",
		}, []string{"scenario"}),
		events: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sirsim_scenario_events",
			Help: "Plans executed by a scenario's event loop.",
		}, []string{"scenario"}),
		wall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sirsim_scenario_wall_seconds",
			Help:    "Wall-clock duration of completed scenarios.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	m.registry.MustRegister(m.scenarios, m.infected, m.recovered, m.dead, m.events, m.wall)
	return m
}

// Observe records one scenario result.
func (m *Metrics) Observe(res Result) {
	m.scenarios.WithLabelValues(res.State.String()).Inc()
	if res.State != StateCompleted {
		return
	}
	label := strconv.Itoa(res.Scenario)
	m.infected.WithLabelValues(label).Set(float64(res.Totals.Infected))
	m.recovered.WithLabelValues(label).Set(float64(res.Totals.Recovered))
	m.dead.WithLabelValues(label).Set(float64(res.Totals.Dead))
	m.events.WithLabelValues(label).Set(float64(res.Totals.Events))
	m.wall.Observe(res.Wall.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every collected metric to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
