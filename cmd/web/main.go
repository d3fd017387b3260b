package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/crucial707/mtg-cards/internal/client"
	"github.com/crucial707/mtg-cards/internal/search"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultPort = "3000"
	defaultAPI  = "http://localhost:5000"
	envWebPort  = "MTG_WEB_PORT"
	envAPIURL   = "MTG_CARDS_API_URL"
)

func main() {
	port := getEnv(envWebPort, defaultPort)
	apiBase := getEnv(envAPIURL, defaultAPI)

	noFilters, err := search.ParseNoFilters(os.Getenv("MTG_NO_FILTERS_BEHAVIOR"))
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	rating, err := search.ParseRatingMode(os.Getenv("MTG_RATING_MODE"))
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	a := &app{
		api:   client.New(apiBase, client.DefaultTimeout),
		opts:  search.Options{NoFilters: noFilters, Rating: rating},
		pages: mustParsePages(),
		views: newViewStore(defaultMaxViews, defaultViewTTL),
	}

	slog.Info("web UI running", "url", "http://localhost:"+port, "api", apiBase, "no_filters", noFilters, "rating", rating)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("web UI stopped", "error", err)
		os.Exit(1)
	}
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health (no auth, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public
	r.Get("/login", a.loginForm)
	r.Post("/login", a.loginSubmit)
	r.Get("/register", a.registerForm)
	r.Post("/register", a.registerSubmit)
	r.Get("/logout", a.logout)
	r.Get("/", a.searchPage)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Post("/cards/{id}/{action}", a.cardAction)
	})
	return r
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
