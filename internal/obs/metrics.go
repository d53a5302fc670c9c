package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "intelhub_ready",
		Help: "1 when the last readiness probe succeeded.",
	})
)

// Domain metrics
var (
	tripsPaired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intelhub_trips_paired_total",
		Help: "Trips produced by crossing pairing.",
	})

	orphanCrossings = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intelhub_orphan_crossings_total",
		Help: "Crossings left unpaired by trip pairing.",
	})

	recordsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intelhub_records_ingested_total",
			Help: "Records accepted by ingest endpoints.",
		},
		[]string{"kind"},
	)
)

var initOnce sync.Once

// Init registers all metrics in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration, ready,
			tripsPaired, orphanCrossings, recordsIngested,
		)
	})
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady records the outcome of the latest readiness probe.
func SetReady(ok bool) {
	if ok {
		ready.Set(1)
		return
	}
	ready.Set(0)
}

// ObservePairing counts trips and orphans produced by one pairing run.
func ObservePairing(trips, orphans int) {
	tripsPaired.Add(float64(trips))
	orphanCrossings.Add(float64(orphans))
}

// ObserveIngest counts one accepted record of the given kind.
func ObserveIngest(kind string) {
	recordsIngested.WithLabelValues(kind).Inc()
}

// Instrument measures RPS, latency and in-flight requests.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// subjectResources are the collections nested under /v1/subjects/:id.
var subjectResources = map[string]bool{
	"crossings":            true,
	"trips":                true,
	"hotel-stays":          true,
	"hotel-stays/summary":  true,
	"transactions":         true,
	"transactions/summary": true,
}

// CanonicalPath collapses identifiers so metric labels stay low-cardinality.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if rest, ok := strings.CutPrefix(p, "/v1/subjects/"); ok {
		id, tail, _ := strings.Cut(rest, "/")
		if id != "" && subjectResources[tail] {
			return "/v1/subjects/:id/" + tail
		}
		return p
	}
	if rest, ok := strings.CutPrefix(p, "/v1/tasks/"); ok {
		if rest != "" && rest != "summary" && !strings.Contains(rest, "/") {
			return "/v1/tasks/:id"
		}
	}
	return p
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets SSE handlers stream through the instrumentation wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
