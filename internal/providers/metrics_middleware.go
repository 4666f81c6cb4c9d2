package providers

import (
	"net/http"
	"strings"
	"time"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// collapsedPrefixes are file trees whose paths are reported as the prefix
// alone, so image names never become label values.
var collapsedPrefixes = []string{"/branded-wallpaper/", "/background-wallpaper/"}

func endpointLabel(path string) string {
	for _, prefix := range collapsedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return strings.TrimSuffix(prefix, "/")
		}
	}
	if path == "" {
		return "/"
	}
	return path
}

func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			endpoint := endpointLabel(r.URL.Path)
			metrics.IncRequestsTotal(endpoint, sw.status)
			metrics.ObserveRequestDuration(endpoint, time.Since(start))
		}()

		next.ServeHTTP(sw, r)
	})
}
