// Package metrics exposes the Prometheus instrumentation for the
// connection core, registered once via promauto, mirroring how the rest
// of the ambient stack keeps call sites free of direct prometheus
// bookkeeping (they depend on the proxycore.MetricsRecorder interface,
// which this package's Recorder satisfies).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements proxycore.MetricsRecorder against a fixed set of
// prometheus collectors.
type Recorder struct {
	handshakes        *prometheus.CounterVec
	bytes             *prometheus.CounterVec
	recordMode        prometheus.Gauge
	rateLimitExhausts *prometheus.CounterVec
}

// New registers every collector against reg and returns a Recorder bound
// to them. Pass prometheus.DefaultRegisterer for the global registry.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		handshakes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxycore",
			Subsystem: "connection",
			Name:      "handshakes_total",
			Help:      "TLS handshake attempts by outcome.",
		}, []string{"result"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxycore",
			Subsystem: "connection",
			Name:      "bytes_total",
			Help:      "Bytes moved per direction and transport mode.",
		}, []string{"direction", "mode"}),
		recordMode: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "proxycore",
			Subsystem: "connection",
			Name:      "record_unlimited",
			Help:      "Count of connections currently past the dynamic TLS record-size warmup threshold (unlimited records).",
		}),
		rateLimitExhausts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxycore",
			Subsystem: "connection",
			Name:      "rate_limit_exhausted_total",
			Help:      "Times a direction's token bucket had zero budget available for an I/O call.",
		}, []string{"direction"}),
	}
}

// ObserveHandshake increments the handshake outcome counter. result
// should be one of "ok", "inprogress", "network", "eof", "protocol".
func (r *Recorder) ObserveHandshake(result string) {
	r.handshakes.WithLabelValues(result).Inc()
}

// ObserveBytes adds n to the counter for (direction, mode). direction is
// "read" or "write"; mode is "tls" or "clear".
func (r *Recorder) ObserveBytes(direction, mode string, n int) {
	if n <= 0 {
		return
	}
	r.bytes.WithLabelValues(direction, mode).Add(float64(n))
}

// ObserveRecordMode adjusts the unlimited-record gauge: each connection
// increments it on entering unlimited mode and decrements it on
// returning to small records, so the gauge tracks the live count of
// connections past their warmup threshold.
func (r *Recorder) ObserveRecordMode(unlimited bool) {
	if unlimited {
		r.recordMode.Inc()
	} else {
		r.recordMode.Dec()
	}
}

// ObserveRateLimitExhausted increments the exhaustion counter for
// direction ("read" or "write").
func (r *Recorder) ObserveRateLimitExhausted(direction string) {
	r.rateLimitExhausts.WithLabelValues(direction).Inc()
}
