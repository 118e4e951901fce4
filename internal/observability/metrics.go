package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	callRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amfctl",
			Subsystem: "amf",
			Name:      "calls_total",
			Help:      "Total AMF calls by target and outcome.",
		},
		[]string{"server", "target", "outcome"},
	)
	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "amfctl",
			Subsystem: "amf",
			Name:      "call_duration_seconds",
			Help:      "AMF call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "target", "outcome"},
	)
	packetBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "amfctl",
			Subsystem: "amf",
			Name:      "packet_bytes",
			Help:      "Encoded AMF packet size by direction.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"direction"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amfctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP round trips.",
		},
		[]string{"host", "method", "status"},
	)
)

// Call outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeServerError = "server_error"
	OutcomeTransport   = "transport_error"
	OutcomeCodec       = "codec_error"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(callRequests, callDuration, packetBytes, httpRequests)
	})
}

func RecordCall(server, target, outcome string, duration time.Duration) {
	RegisterMetrics()
	callRequests.WithLabelValues(server, target, outcome).Inc()
	callDuration.WithLabelValues(server, target, outcome).Observe(duration.Seconds())
}

func RecordPacketBytes(direction string, n int) {
	RegisterMetrics()
	packetBytes.WithLabelValues(direction).Observe(float64(n))
}

func RecordHTTPRequest(host, method, status string) {
	RegisterMetrics()
	httpRequests.WithLabelValues(host, method, status).Inc()
}
