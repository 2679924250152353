package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Datagram kinds used as the "kind" label of DatagramsTotal.
const (
	KindValue     = "value"
	KindAverage   = "average"
	KindTerminate = "terminate"
	KindSelf      = "self"
	KindMalformed = "malformed"
)

var (
	Registry = prometheus.NewRegistry()

	DatagramsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "das",
			Name:      "datagrams_total",
			Help:      "Datagrams received by the master, by kind.",
		},
		[]string{"kind"},
	)

	BroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "das",
			Name:      "broadcasts_total",
			Help:      "Broadcasts sent by the master.",
		},
		[]string{"command", "status"},
	)

	Values = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "das",
			Name:      "values",
			Help:      "Entries in the master's value set.",
		},
	)

	LastAverage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "das",
			Name:      "last_average",
			Help:      "Most recently broadcast average.",
		},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "das",
			Name:      "http_requests_total",
			Help:      "Total number of status HTTP requests.",
		},
		[]string{"op", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "das",
			Name:      "http_request_duration_seconds",
			Help:      "Latency of status HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
		},
		[]string{"op"},
	)

	// ---- Process / build info ----
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "das",
			Name:      "build_info",
			Help:      "Build info (constant 1, labeled by version and role).",
		},
		[]string{"version", "role"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "das",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(DatagramsTotal, BroadcastsTotal, Values, LastAverage,
		RequestsTotal, RequestDuration, buildInfo, uptime)
}

// MetricsHandler exposes /metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// SetBuildInfo should be called once the role is known.
func SetBuildInfo(version, role string) {
	buildInfo.WithLabelValues(version, role).Set(1)
}

// ObserveBroadcast records the outcome of one master broadcast.
func ObserveBroadcast(command string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	BroadcastsTotal.WithLabelValues(command, status).Inc()
}

// ---- Middleware instrumentation ----

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument wraps an http.Handler to record metrics under the provided "op" label.
func Instrument(op string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: 200}
		start := time.Now()

		next.ServeHTTP(sw, r)

		class := strconv.Itoa(sw.status/100) + "xx"
		RequestsTotal.WithLabelValues(op, class).Inc()
		RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	})
}
