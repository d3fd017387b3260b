package middleware

import (
	"net/http"
	"time"

	"github.com/crucial707/mtg-cards/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// unmatchedRoute labels requests no route matched, so scanners cannot grow the label set.
const unmatchedRoute = "unmatched"

// Prometheus records duration and count per route pattern, e.g. /api/cards/owned.
// Scrapes of /metrics are not recorded.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordRequest(r.Method, routeLabel(r), status, time.Since(start).Seconds())
	})
}

// routeLabel prefers the matched chi pattern. Outside a chi router the raw
// path is used and normalized by metrics.RecordRequest.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		if r.URL.Path == "" {
			return "/"
		}
		return r.URL.Path
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}
