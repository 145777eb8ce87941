package plugin

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "keyplug"

// Metrics holds the prometheus collectors of a Manager.
// Each Manager owns a private registry so several managers can coexist.
type Metrics struct {
	registry *prometheus.Registry

	actionsDispatched *prometheus.CounterVec
	unknownActions    prometheus.Counter
	pluginErrors      *prometheus.CounterVec
	pluginsLoaded     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actionsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "actions_dispatched_total",
				Help:      "Actions delivered to plugins.",
			},
			[]string{"plugin"},
		),
		unknownActions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unknown_actions_total",
			Help:      "Triggered codes no plugin advertised.",
		}),
		pluginErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "plugin_errors_total",
				Help:      "Plugin hook failures.",
			},
			[]string{"plugin", "hook"},
		),
		pluginsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "plugins_loaded",
			Help:      "Plugins currently registered.",
		}),
	}
	m.registry.MustRegister(m.actionsDispatched, m.unknownActions, m.pluginErrors, m.pluginsLoaded)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) recordDispatch(plugin string) {
	m.actionsDispatched.WithLabelValues(plugin).Inc()
}

func (m *Metrics) recordUnknown() {
	m.unknownActions.Inc()
}

func (m *Metrics) recordError(plugin, hook string) {
	m.pluginErrors.WithLabelValues(plugin, hook).Inc()
}

func (m *Metrics) setLoaded(n int) {
	m.pluginsLoaded.Set(float64(n))
}
