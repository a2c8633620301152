package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civic",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "civic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civic",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache name and result.",
		},
		[]string{"cache", "result"},
	)

	externalCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civic",
			Subsystem: "external",
			Name:      "calls_total",
			Help:      "Outbound third-party API calls by service and outcome.",
		},
		[]string{"service", "outcome"},
	)

	rowsLoaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "civic",
			Subsystem: "ingest",
			Name:      "rows_loaded",
			Help:      "Rows present after the last successful CSV load.",
		},
		[]string{"dataset"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		cacheLookups,
		externalCalls,
		rowsLoaded,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Requests are labelled by their mux route template to keep cardinality low.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordCacheLookup counts a hit or miss against the named cache.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordExternalCall counts an outbound API call.
func RecordExternalCall(service string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	externalCalls.WithLabelValues(service, outcome).Inc()
}

// SetRowsLoaded records the row count of a dataset after a load.
func SetRowsLoaded(dataset string, rows int) {
	rowsLoaded.WithLabelValues(dataset).Set(float64(rows))
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}
