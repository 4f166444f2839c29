package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/woodway-ua/photoindex/pkg/metrics"
)

// Metrics records request count, latency, and the in-flight gauge for every
// request passing through.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.HTTPRequestsInFlight.Inc()
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				m.HTTPRequestsInFlight.Dec()
				path := boundedPath(r.URL.Path)
				m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
				m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// statusRecorder captures the first status code written.
type statusRecorder struct {
	http.ResponseWriter
	status int
	done   bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.done {
		r.status = code
		r.done = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.done = true
	return r.ResponseWriter.Write(b)
}

// boundedPath keeps metric label cardinality fixed: only the known API and
// health prefixes appear verbatim, everything else collapses to one bucket.
func boundedPath(path string) string {
	if strings.HasPrefix(path, "/api/v1/") || strings.HasPrefix(path, "/health/") {
		return path
	}
	return "other"
}
