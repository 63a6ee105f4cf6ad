package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faccess",
		Name:      "verifications_total",
		Help:      "Total number of verification attempts by outcome",
	}, []string{"result", "reason"})

	Enrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faccess",
		Name:      "enrollments_total",
		Help:      "Total number of enrollment attempts by outcome",
	}, []string{"result"})

	LivenessRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faccess",
		Name:      "liveness_rejections_total",
		Help:      "Total number of probes rejected as spoof attempts",
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faccess",
		Name:      "inference_duration_seconds",
		Help:      "Duration of pipeline stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faccess",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "faccess",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
