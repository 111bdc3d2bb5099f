package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eldtechnologies/jobsearch/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer when it supports flushing.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the websocket upgrade pass through the wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Metrics returns middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, path, strconv.Itoa(wrapped.status),
		).Inc()

		// Socket sessions would skew the latency histogram
		if wrapped.status != http.StatusSwitchingProtocols {
			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method, path,
			).Observe(duration)
		}
	})
}

// normalizePath normalizes paths to avoid high cardinality in metrics.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/chat/history/") && len(path) > len("/api/chat/history/"):
		return "/api/chat/history/:userId"
	case strings.HasPrefix(path, "/api/admin/users/"):
		return "/api/admin/users/:id/ban"
	case strings.HasPrefix(path, "/api/admin/companies/"):
		return "/api/admin/companies/:id/" + path[strings.LastIndexByte(path, '/')+1:]
	case strings.HasPrefix(path, "/api/users/") && len(path) > len("/api/users/"):
		return "/api/users/:id"
	case path == "/api/companies/search" || path == "/api/jobs/search":
		return path
	case strings.HasPrefix(path, "/api/companies/") && len(path) > len("/api/companies/"):
		return "/api/companies/:id"
	case strings.HasPrefix(path, "/api/jobs/company/"):
		return "/api/jobs/company/:companyId"
	case strings.HasPrefix(path, "/api/jobs/applications/"):
		return "/api/jobs/applications/:applicationId"
	case strings.HasPrefix(path, "/api/jobs/") && len(path) > len("/api/jobs/"):
		rest := strings.TrimPrefix(path, "/api/jobs/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/api/jobs/:id/" + strings.Trim(rest[i+1:], "/")
		}
		return "/api/jobs/:id"
	}
	return path
}
