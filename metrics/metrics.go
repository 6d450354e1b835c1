// Package metrics holds the Prometheus collectors updated by the ingestion
// endpoint and the storage layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adcsink_requests_total",
			Help: "Total number of payload requests, by response status code",
		},
		[]string{"status"},
	)

	ReceivedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adcsink_received_bytes_total",
			Help: "Total bytes of payload received",
		},
	)

	AppendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adcsink_append_errors_total",
			Help: "Total number of payloads that could not be appended to the output",
		},
	)

	AppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adcsink_append_duration_seconds",
			Help:    "Duration of appends to the output in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MirrorPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adcsink_mirror_pending",
			Help: "Payloads waiting to be copied to the mirror",
		},
	)

	MirrorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adcsink_mirror_errors_total",
			Help: "Total number of failed attempts to copy a payload to the mirror",
		},
	)

	MirrorDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adcsink_mirror_dropped_total",
			Help: "Total number of payloads never copied to the mirror",
		},
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
