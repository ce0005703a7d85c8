package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResourceRecordsTotal   = "timing_resource_records_total"
	NavigationRecordsTotal = "timing_navigation_records_total"
	StateErrorsTotal       = "timing_state_errors_total"
	PollCyclesTotal        = "timing_poll_cycles_total"
	SinkFailuresTotal      = "timing_sink_failures_total"
	ActiveSessions         = "timing_active_sessions"
	PollDurationSeconds    = "timing_poll_duration_seconds"
)

type Observability interface {
	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)
	SetGauge(name string, v float64)
}

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(reg prometheus.Registerer) *PromObs {
	resources := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ResourceRecordsTotal,
		Help: "Normalized resource timing records emitted.",
	})
	navigation := prometheus.NewCounter(prometheus.CounterOpts{
		Name: NavigationRecordsTotal,
		Help: "Navigation timing records emitted.",
	})
	stateErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: StateErrorsTotal,
		Help: "Sessions whose resource timing list was truncated underneath the harvester.",
	})
	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: PollCyclesTotal,
		Help: "Resource timing reconciliation cycles run.",
	})
	sinkFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: SinkFailuresTotal,
		Help: "Events a sink failed to accept.",
	})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ActiveSessions,
		Help: "Sessions with an active harvester.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    PollDurationSeconds,
		Help:    "Time spent in one reconciliation cycle.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	reg.MustRegister(resources, navigation, stateErrors, cycles, sinkFailures, sessions, latency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			ResourceRecordsTotal:   resources,
			NavigationRecordsTotal: navigation,
			StateErrorsTotal:       stateErrors,
			PollCyclesTotal:        cycles,
			SinkFailuresTotal:      sinkFailures,
		},
		gauges: map[string]prometheus.Gauge{
			ActiveSessions: sessions,
		},
		histos: map[string]prometheus.Observer{
			PollDurationSeconds: latency,
		},
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) IncCounter(string, float64)     {}
func (Nop) ObserveLatency(string, float64) {}
func (Nop) SetGauge(string, float64)       {}

var (
	_ Observability = (*PromObs)(nil)
	_ Observability = Nop{}
)
