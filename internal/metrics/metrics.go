// Package metrics exposes Prometheus counters for validation runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/valuagent/valuagent/internal/validation"
)

const (
	metricPrefix = "valuagent_"

	ResultValid   = "valid"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	validationsTotal  *prometheus.CounterVec
	ruleResultsTotal  *prometheus.CounterVec
	validationLatency *prometheus.HistogramVec
	exportsTotal      *prometheus.CounterVec
)

// Init registers the metrics with reg, or the default registerer when reg
// is nil. Only the first call has an effect.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		validationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "validations_total",
				Help: "Total validated documents by statement type and result",
			},
			[]string{"statement_type", "result"},
		)
		ruleResultsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rule_results_total",
				Help: "Total rule evaluations by statement type and status",
			},
			[]string{"statement_type", "status"},
		)
		validationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "validation_latency_seconds",
				Help:    "Document validation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"statement_type"},
		)
		exportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Total rendered reports by format and result",
			},
			[]string{"format", "result"},
		)

		reg.MustRegister(
			validationsTotal,
			ruleResultsTotal,
			validationLatency,
			exportsTotal,
		)
	})
}

// ObserveValidation records one document validation. A nil report counts
// as an error.
func ObserveValidation(statementType string, report *validation.DocumentReport, duration time.Duration) {
	if statementType == "" {
		statementType = "unknown"
	}
	result := ResultError
	if report != nil {
		result = ResultInvalid
		if report.IsValid {
			result = ResultValid
		}
	}
	if validationsTotal != nil {
		validationsTotal.WithLabelValues(statementType, result).Inc()
	}
	if validationLatency != nil {
		validationLatency.WithLabelValues(statementType).Observe(duration.Seconds())
	}
	if report == nil || ruleResultsTotal == nil {
		return
	}
	passed, failed, skipped := report.Counts()
	ruleResultsTotal.WithLabelValues(statementType, string(validation.StatusPassed)).Add(float64(passed))
	ruleResultsTotal.WithLabelValues(statementType, string(validation.StatusFailed)).Add(float64(failed))
	ruleResultsTotal.WithLabelValues(statementType, string(validation.StatusSkipped)).Add(float64(skipped))
}

// IncExport counts one rendered report.
func IncExport(format string, err error) {
	if format == "" {
		format = "unknown"
	}
	result := "success"
	if err != nil {
		result = ResultError
	}
	if exportsTotal != nil {
		exportsTotal.WithLabelValues(format, result).Inc()
	}
}
