package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for e-CF generation.
type Metrics struct {
	// Build outcomes by type code and outcome
	BuildOutcome *prometheus.CounterVec

	// Build latency by type code
	BuildLatency *prometheus.HistogramVec

	// Serialized document size by type code
	DocumentSize *prometheus.HistogramVec

	// Validation outcomes by validator mode and result
	ValidationOutcome *prometheus.CounterVec

	// Entries per batch request
	BatchSize prometheus.Histogram

	// Seeds issued
	SeedsIssued prometheus.Counter
}

// New creates the metrics and registers them with reg. A nil reg registers
// with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		BuildOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecf_build_outcomes_total",
			Help: "Total e-CF build attempts by type code and outcome",
		}, []string{"type_code", "outcome"}), // outcome: "success", "client_error", "internal_error", "invalid"

		BuildLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecf_build_duration_seconds",
			Help:    "Duration of e-CF dispatch, assembly and serialization",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"type_code"}),

		DocumentSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecf_document_size_bytes",
			Help:    "Size of serialized e-CF documents",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 10),
		}, []string{"type_code"}),

		ValidationOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecf_validation_outcomes_total",
			Help: "Total document validations by validator and result",
		}, []string{"validator", "result"}),

		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecf_batch_size",
			Help:    "Number of requests per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		SeedsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecf_seeds_issued_total",
			Help: "Total authentication seeds issued",
		}),
	}
}

// IncrementOutcome records the outcome of one build.
func (m *Metrics) IncrementOutcome(typeCode int, outcome string) {
	if m != nil {
		m.BuildOutcome.WithLabelValues(typeLabel(typeCode), outcome).Inc()
	}
}

// ObserveBuild records the duration and size of a build.
func (m *Metrics) ObserveBuild(typeCode int, d time.Duration, size int) {
	if m != nil {
		label := typeLabel(typeCode)
		m.BuildLatency.WithLabelValues(label).Observe(d.Seconds())
		if size > 0 {
			m.DocumentSize.WithLabelValues(label).Observe(float64(size))
		}
	}
}

// IncrementValidation records a validation result.
func (m *Metrics) IncrementValidation(validator string, valid bool) {
	if m != nil {
		result := "invalid"
		if valid {
			result = "valid"
		}
		m.ValidationOutcome.WithLabelValues(validator, result).Inc()
	}
}

// ObserveBatchSize records how many entries a batch carried.
func (m *Metrics) ObserveBatchSize(n int) {
	if m != nil {
		m.BatchSize.Observe(float64(n))
	}
}

// IncrementSeeds records an issued seed.
func (m *Metrics) IncrementSeeds() {
	if m != nil {
		m.SeedsIssued.Inc()
	}
}

// typeLabel keeps label cardinality bounded when unknown codes are built under
// the base policy.
func typeLabel(typeCode int) string {
	if typeCode <= 0 || typeCode > 99 {
		return "unknown"
	}
	return strconv.Itoa(typeCode)
}
