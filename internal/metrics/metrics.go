package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "alcance_"

const (
	BackRefAdd    = "add"
	BackRefRemove = "remove"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	backRefWrites *prometheus.CounterVec
	uploads       *prometheus.CounterVec
	rateLimited   prometheus.Counter
)

// Init registra las métricas en el registro global de Prometheus.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
		backRefWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "backref_writes_total",
				Help: "Writes on distributor back-reference lists by operation",
			},
			[]string{"op"},
		)
		uploads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "uploads_total",
				Help: "Uploaded files by class and result",
			},
			[]string{"class", "result"},
		)
		rateLimited = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		)

		prometheus.MustRegister(httpRequests, httpLatency, backRefWrites, uploads, rateLimited)
	})
}

func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

func IncBackRefWrite(op string) {
	if backRefWrites != nil {
		backRefWrites.WithLabelValues(op).Inc()
	}
}

func IncUpload(class, result string) {
	if class == "" {
		class = "unknown"
	}
	if uploads != nil {
		uploads.WithLabelValues(class, result).Inc()
	}
}

func IncRateLimited() {
	if rateLimited != nil {
		rateLimited.Inc()
	}
}
