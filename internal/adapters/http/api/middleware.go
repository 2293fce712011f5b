// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mzare/ecotrace/pkg/metrics"
)

// statusRecorder captures the status code a handler writes so the
// route instrumentation can label its metrics with it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// instrument wraps a route handler with request count, latency and
// error metrics. The route label is the logical route name, never the
// raw path, to keep label cardinality bounded.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(route, r.Method, status)
		metrics.RecordHTTPRequestDuration(route, r.Method, status, float64(time.Since(start).Milliseconds()))

		if rec.status >= http.StatusBadRequest {
			kind, severity := classifyStatus(rec.status)
			metrics.RecordErrorByEndpoint(route, r.Method, kind)
			metrics.RecordErrorByType(kind, severity)
		}
	}
}

// classifyStatus maps an error status code to a metrics error kind and
// severity. Server-side failures are the only high-severity class.
func classifyStatus(status int) (kind, severity string) {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", "high"
	case status == http.StatusTooManyRequests:
		return "rate_limit", "medium"
	case status == http.StatusNotFound:
		return "not_found", "medium"
	default:
		return "client_error", "medium"
	}
}
