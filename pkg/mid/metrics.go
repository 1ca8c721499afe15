package mid

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passnet",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, path, and status.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "passnet",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request time by method and path.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Metrics returns middleware that records request counts and latency.
// normalize, when non-nil, maps raw paths onto a bounded label set; raw
// paths with embedded identifiers would otherwise grow one series each.
func Metrics(normalize func(string) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			path := r.URL.Path
			if normalize != nil {
				path = normalize(path)
			}
			httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
			httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
