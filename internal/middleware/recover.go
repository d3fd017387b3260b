package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/crucial707/mtg-cards/internal/metrics"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recoverer turns a handler panic into a 500 carrying the request id, logs the
// stack and counts it in http_panics_total. http.ErrAbortHandler is re-raised.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			reqID := chimw.GetReqID(r.Context())
			metrics.IncPanics()
			slog.Error("panic recovered",
				"request_id", reqID,
				"method", r.Method,
				"route", routeLabel(r),
				"panic", rec,
				"stack", string(debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{
				"message":   "internal server error",
				"requestId": reqID,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
