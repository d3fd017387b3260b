package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes caps JSON request bodies (1 MiB); the card API never needs more.
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes answers 413 up front when Content-Length declares more than maxBytes.
// Bodies without a length are wrapped so that decoding fails past the cap.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				writeJSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
