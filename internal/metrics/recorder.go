// Package metrics exports transfer counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mtlprog/xcurrency/internal/adapter"
)

// Recorder counts adapter outcomes. It implements adapter.Observer.
type Recorder struct {
	registry  *prometheus.Registry
	transfers *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry. Go runtime and
// process collectors are registered alongside the transfer counters.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcurrency_transfers_total",
			Help: "Asset transfers handled by the adapter.",
		}, []string{"operation", "result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcurrency_transfer_failures_total",
			Help: "Failed asset transfers by pipeline stage.",
		}, []string{"operation", "stage"}),
	}
	r.registry.MustRegister(
		r.transfers,
		r.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveTransfer counts one adapter call by operation and outcome.
func (r *Recorder) ObserveTransfer(op adapter.Operation, err error) {
	if err == nil {
		r.transfers.WithLabelValues(string(op), "success").Inc()
		return
	}
	r.transfers.WithLabelValues(string(op), "failure").Inc()

	stage := adapter.StageOf(err)
	if stage == "" {
		stage = "unknown"
	}
	r.failures.WithLabelValues(string(op), string(stage)).Inc()
}

// Handler serves the registry at /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
