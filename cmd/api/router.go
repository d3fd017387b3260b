package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/crucial707/mtg-cards/internal/catalog"
	"github.com/crucial707/mtg-cards/internal/config"
	"github.com/crucial707/mtg-cards/internal/handlers"
	"github.com/crucial707/mtg-cards/internal/middleware"
	"github.com/crucial707/mtg-cards/internal/repo"
	"github.com/crucial707/mtg-cards/internal/scheduler"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter wires every route. probe may be nil when the catalog probe is disabled.
func newRouter(db *sql.DB, cfg config.Config, cat *catalog.Client, probe *scheduler.Probe) http.Handler {
	userRepo := repo.NewUserRepo(db)
	annotationRepo := repo.NewAnnotationRepo(db)

	authHandler := &handlers.AuthHandler{
		UserRepo: userRepo,
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: time.Duration(cfg.JWTExpireHours) * time.Hour,
	}
	userHandler := &handlers.UserHandler{Repo: userRepo}
	cardHandler := &handlers.CardHandler{
		Catalog:                cat,
		Annotations:            annotationRepo,
		FetchAllWithoutFilters: cfg.FetchAllWithoutFilters(),
	}
	annotationHandler := &handlers.AnnotationHandler{Repo: annotationRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// ==========================
	// Operational
	// ==========================
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	r.Get("/ready", readyHandler(db, probe))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

		// ==========================
		// Auth
		// ==========================
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AuthRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst, cfg.TrustedProxies).Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// ==========================
		// Users
		// ==========================
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret), true))
			r.Get("/me", userHandler.Me)
			r.Get("/{id}", userHandler.GetUser)
		})

		// ==========================
		// Cards
		// ==========================
		r.Route("/cards", func(r chi.Router) {
			r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret), cfg.RequireAuth))
			r.Get("/", cardHandler.Search)
			r.Get("/owned", annotationHandler.Owned)
			r.Get("/ratings", annotationHandler.Ratings)
			r.Post("/own", annotationHandler.Own())
			r.Post("/unown", annotationHandler.Unown())
			r.Post("/thumbs-up", annotationHandler.ThumbsUp())
			r.Post("/thumbs-down", annotationHandler.ThumbsDown())
			r.Post("/mark-good", annotationHandler.ThumbsUp())
			r.Post("/mark-bad", annotationHandler.ThumbsDown())
			r.Post("/unmark-good", annotationHandler.UnmarkGood())
			r.Post("/unmark-bad", annotationHandler.UnmarkBad())
		})
	})

	return r
}

// readyHandler reports 200 when the database answers. The last catalog probe is
// reported but does not affect readiness.
func readyHandler(db *sql.DB, probe *scheduler.Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		out := map[string]any{"database": "ok"}
		status := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			out["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}

		catalogStatus := "unknown"
		if probe != nil {
			if st, ok := probe.Status(); ok {
				catalogStatus = "down"
				if st.Up {
					catalogStatus = "up"
				}
				out["catalogCheckedAt"] = st.CheckedAt.UTC().Format(time.RFC3339)
			}
		}
		out["catalog"] = catalogStatus

		handlers.JSON(w, status, out)
	}
}
