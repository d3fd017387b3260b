package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// DefaultCORSAllowedMethods is the default set of methods allowed for CORS.
var DefaultCORSAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}

// DefaultCORSAllowedHeaders is the default set of request headers allowed for CORS.
var DefaultCORSAllowedHeaders = []string{"Accept", "Authorization", "Content-Type"}

// CORS returns a middleware that answers preflight requests and sets CORS response
// headers for the given origins. When origins is empty the middleware is a no-op.
// "*" allows any origin, which is what a browser front-end on another port needs in development.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: DefaultCORSAllowedMethods,
		AllowedHeaders: DefaultCORSAllowedHeaders,
		MaxAge:         86400,
	})
	return c.Handler
}
