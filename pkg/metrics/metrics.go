// Package metrics exposes workflow statistics in Prometheus format.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without instrumentation in tests.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

const namespace = "gosanction"

// Metrics tracks workflow runtime statistics.
type Metrics struct {
	startTime time.Time
	registry  *prometheus.Registry

	transitions    *prometheus.CounterVec   // op, kind, result
	gatewayLatency *prometheus.HistogramVec // op
	indexed        *prometheus.GaugeVec     // kind
	pending        prometheus.Gauge
	codes          prometheus.Gauge
}

// New creates a Metrics instance with its own registry, including the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		startTime: time.Now(),
		registry:  reg,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Workflow operations by operation, sanction kind and result.",
		}, []string{"op", "kind", "result"}),
		gatewayLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_duration_seconds",
			Help:      "Latency of persistence gateway calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		indexed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_sanctions",
			Help:      "Sanctions currently held in the index.",
		}, []string{"kind"}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_verifications",
			Help:      "Imported sanctions awaiting review.",
		}),
		codes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "confirmation_codes",
			Help:      "Outstanding confirmation codes.",
		}),
	}
}

// Registry returns the registry all collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Transition counts one workflow operation.
func (m *Metrics) Transition(op string, kind model.Kind, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(op, kind.String(), result).Inc()
}

// ObserveGateway records the duration of a gateway call started at start.
func (m *Metrics) ObserveGateway(op string, start time.Time) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetIndexed publishes index sizes.
func (m *Metrics) SetIndexed(counts map[model.Kind]int) {
	if m == nil {
		return
	}
	for k, n := range counts {
		m.indexed.WithLabelValues(k.String()).Set(float64(n))
	}
}

// SetPending publishes the number of pending verification entries.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// SetCodes publishes the number of outstanding confirmation codes.
func (m *Metrics) SetCodes(n int) {
	if m == nil {
		return
	}
	m.codes.Set(float64(n))
}

// LogSummary writes a metrics summary to the logger.
func (m *Metrics) LogSummary() {
	if m == nil {
		return
	}
	families, err := m.registry.Gather()
	if err != nil {
		slog.Warn("metrics gather failed", "err", err)
		return
	}
	attrs := []any{"uptime", time.Since(m.startTime).Truncate(time.Second).String()}
	for _, f := range families {
		switch f.GetName() {
		case namespace + "_pending_verifications", namespace + "_confirmation_codes":
			attrs = append(attrs, f.GetName(), f.GetMetric()[0].GetGauge().GetValue())
		case namespace + "_transitions_total":
			var total float64
			for _, metric := range f.GetMetric() {
				total += metric.GetCounter().GetValue()
			}
			attrs = append(attrs, f.GetName(), total)
		}
	}
	slog.Info("metrics", attrs...)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	if m == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
