package observability

import (
	"net/http"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds stepper's collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	SessionsActive prometheus.Gauge
	Commands       *prometheus.CounterVec
	Ticks          prometheus.Counter
	Completions    *prometheus.CounterVec
	GeneratedSteps *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stepper_sessions_active",
			Help: "Number of sessions with a live controller in this process",
		}),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepper_commands_total",
				Help: "Total number of playback commands applied",
			},
			[]string{"command"},
		),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepper_ticks_total",
			Help: "Total number of timer ticks processed",
		}),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepper_completions_total",
				Help: "Total number of playbacks that reached their last step while playing",
			},
			[]string{"kind"},
		),
		GeneratedSteps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stepper_generated_steps",
				Help:    "Length of generated step sequences",
				Buckets: []float64{1, 5, 10, 20, 40, 80},
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(
		m.SessionsActive,
		m.Commands,
		m.Ticks,
		m.Completions,
		m.GeneratedSteps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SessionOpened(domain.Kind) { m.SessionsActive.Inc() }

func (m *Metrics) SessionClosed(domain.Kind) { m.SessionsActive.Dec() }

func (m *Metrics) Command(ev domain.CommandEvent) {
	m.Commands.WithLabelValues(ev.Command).Inc()
}

func (m *Metrics) Tick(domain.Session) { m.Ticks.Inc() }

func (m *Metrics) Completed(sess domain.Session) {
	m.Completions.WithLabelValues(kindLabel(sess.Scenario.Kind)).Inc()
}

func (m *Metrics) Generated(kind domain.Kind, steps int) {
	m.GeneratedSteps.WithLabelValues(kindLabel(kind)).Observe(float64(steps))
}

// kindLabel folds unsupported kinds into one label value to bound cardinality.
func kindLabel(k domain.Kind) string {
	switch k {
	case domain.KindSequential, domain.KindIfElse, domain.KindSwitch, domain.KindForLoop,
		domain.KindEventLoop, domain.KindAsyncTimeline, domain.KindEquality, domain.KindClass:
		return string(k)
	}
	return "unsupported"
}
