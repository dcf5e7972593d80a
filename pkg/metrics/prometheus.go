package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	steps    *prometheus.CounterVec
	declines *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	sectors  prometheus.Gauge
}

// New registers the onboarding metrics on reg (the default registry when nil).
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		steps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeforge_pipeline_steps_total",
				Help: "Onboarding pipeline steps by outcome",
			},
			[]string{"step", "result"},
		),
		declines: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeforge_declines_total",
				Help: "Debits and stock removals declined for insufficient balance or quantity",
			},
			[]string{"kind"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradeforge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		sectors: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradeforge_sectors_registered",
				Help: "Sectors present in the registry after the last seed",
			},
		),
	}
}

// RecordStep counts a pipeline step outcome (ok, declined, failed).
func (r *Recorder) RecordStep(step, result string) {
	r.steps.WithLabelValues(step, result).Inc()
}

// RecordDecline counts a declined debit or stock removal.
func (r *Recorder) RecordDecline(kind string) {
	r.declines.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordSectors(n int) {
	r.sectors.Set(float64(n))
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordStep(string, string)     {}
func (Nop) RecordDecline(string)          {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
func (Nop) RecordSectors(int)             {}
