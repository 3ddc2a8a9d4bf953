package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/chiller-supervisor/internal/domain/alarm"
)

const metricPrefix = "chiller_alarms_"

// Metrics holds the alarm supervision collectors.
// It also implements engine.Sink to count transitions.
type Metrics struct {
	registry *prometheus.Registry

	events      *prometheus.CounterVec
	activations *prometheus.CounterVec
	ticks       prometheus.Counter
	active      *prometheus.GaugeVec
	tracked     prometheus.Gauge
	untracked   prometheus.Gauge
	anyTrip     prometheus.Gauge
}

// Gauges is a point-in-time view of the alarm store.
type Gauges struct {
	ActiveWarnings int
	ActiveTrips    int
	Tracked        int
	Untracked      int
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_total",
				Help: "Alarm events by code and event",
			},
			[]string{"code", "event"},
		),
		activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "activations_total",
				Help: "Alarm activations by kind and priority",
			},
			[]string{"kind", "priority"},
		),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "ticks_total",
			Help: "Evaluation ticks run",
		}),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "active",
				Help: "Currently active alarms by kind",
			},
			[]string{"kind"},
		),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "tracked_slots",
			Help: "Alarm store slots in use",
		}),
		untracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "untracked_definitions",
			Help: "Definitions that could not get an alarm store slot",
		}),
		anyTrip: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "trip",
			Help: "1 when any trip-class alarm is active",
		}),
	}

	m.registry.MustRegister(
		m.events,
		m.activations,
		m.ticks,
		m.active,
		m.tracked,
		m.untracked,
		m.anyTrip,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// LogEvent implements engine.Sink.
func (m *Metrics) LogEvent(code, event string) {
	m.events.WithLabelValues(code, event).Inc()
}

// OnAlarmTrip implements engine.Sink.
func (m *Metrics) OnAlarmTrip(def *alarm.Definition) {
	m.activations.WithLabelValues(def.Kind.String(), def.Priority.String()).Inc()
}

// OnWarning implements engine.Sink.
func (m *Metrics) OnWarning(def *alarm.Definition) {
	m.activations.WithLabelValues(def.Kind.String(), def.Priority.String()).Inc()
}

// ObserveTick counts a tick and refreshes the store gauges.
func (m *Metrics) ObserveTick(g Gauges) {
	m.ticks.Inc()
	m.active.WithLabelValues(alarm.KindWarning.String()).Set(float64(g.ActiveWarnings))
	m.active.WithLabelValues(alarm.KindAlarm.String()).Set(float64(g.ActiveTrips))
	m.tracked.Set(float64(g.Tracked))
	m.untracked.Set(float64(g.Untracked))

	if g.ActiveTrips > 0 {
		m.anyTrip.Set(1)
	} else {
		m.anyTrip.Set(0)
	}
}
