// Package metrics defines the Prometheus collectors of the payslip service.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "payslip"

// Metrics groups the service collectors.
type Metrics struct {
	parses       *prometheus.CounterVec
	parseSeconds *prometheus.HistogramVec
	absentFields *prometheus.CounterVec
	reprocessed  *prometheus.CounterVec
	rpcRequests  *prometheus.CounterVec
	rpcSeconds   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_total",
			Help:      "Payslip documents processed, by layout and result.",
		}, []string{"layout", "result"}),
		parseSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time to extract and parse one payslip document.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"layout"}),
		absentFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_absent_total",
			Help:      "Fields a parsed payslip did not carry, by layout and field.",
		}, []string{"layout", "field"}),
		reprocessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reprocessed_total",
			Help:      "Stored payslips re-parsed with the current parser, by result.",
		}, []string{"result"}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC requests, by procedure and code.",
		}, []string{"procedure", "code"}),
		rpcSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency, by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
	}

	reg.MustRegister(m.parses, m.parseSeconds, m.absentFields, m.reprocessed, m.rpcRequests, m.rpcSeconds)
	return m
}

// ObserveParse records one parsed document. result is "ok" or an error class.
func (m *Metrics) ObserveParse(layout, result string, took time.Duration, absent []string) {
	if m == nil {
		return
	}
	if layout == "" {
		layout = "unknown"
	}
	m.parses.WithLabelValues(layout, result).Inc()
	m.parseSeconds.WithLabelValues(layout).Observe(took.Seconds())
	for _, field := range absent {
		m.absentFields.WithLabelValues(layout, field).Inc()
	}
}

// ObserveReprocess records the outcome of re-parsing one stored payslip.
func (m *Metrics) ObserveReprocess(result string) {
	if m == nil {
		return
	}
	m.reprocessed.WithLabelValues(result).Inc()
}

// ObserveRPC records one RPC.
func (m *Metrics) ObserveRPC(procedure, code string, took time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcSeconds.WithLabelValues(procedure).Observe(took.Seconds())
}
