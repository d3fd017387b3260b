package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/mtg-cards/internal/search"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "supersecretkey"

type Config struct {
	Port string

	// DatabaseURL is a postgres URL. When DATABASE_URL is unset it is built from the DB_* parts.
	DatabaseURL string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// AutoMigrate applies embedded migrations at startup (default true).
	AutoMigrate bool

	JWTSecret string

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// JWTExpireHours is the token lifetime in hours (default 24). 0 issues tokens without expiry.
	JWTExpireHours int

	// RequireAuth makes a bearer token mandatory on /api/cards routes.
	RequireAuth bool

	// CatalogURL is the base URL of the upstream card catalog.
	CatalogURL string
	// CatalogTimeout bounds every upstream request.
	CatalogTimeout time.Duration
	// CatalogRPS caps outbound catalog requests per second. 0 removes the cap.
	CatalogRPS float64
	// CatalogProbeSchedule is a cron expression for the catalog health probe. Empty disables it.
	CatalogProbeSchedule string

	// NoFiltersBehavior is "empty" (default) or "fetch_all".
	NoFiltersBehavior search.NoFiltersBehavior

	// AuthRatePerMinute and AuthRateBurst bound login/register attempts per client IP.
	AuthRatePerMinute int
	AuthRateBurst     int
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is believed.
	// Empty means the client IP is always the connection's remote address.
	TrustedProxies []string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent.
	CORSAllowedOrigins []string
}

func Load() Config {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config: could not read .env", "error", err)
	}

	cfg := Config{
		Port: getEnv("PORT", "5000"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "mtgcards"),
		DBUser: getEnv("DB_USER", "mtgcards"),
		DBPass: getEnv("DB_PASS", "mtgcards"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", true),

		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		Env:            getEnv("ENV", "dev"),
		JWTExpireHours: getEnvIntAllowZero("JWT_EXPIRE_HOURS", 24),
		RequireAuth:    getEnvBool("REQUIRE_AUTH", false),

		CatalogURL:           strings.TrimRight(getEnv("CATALOG_URL", "https://api.magicthegathering.io/v1"), "/"),
		CatalogTimeout:       time.Duration(getEnvInt("CATALOG_TIMEOUT_SECONDS", 10)) * time.Second,
		CatalogRPS:           getEnvFloatAllowZero("CATALOG_RPS", 5),
		CatalogProbeSchedule: os.Getenv("CATALOG_PROBE_SCHEDULE"),

		NoFiltersBehavior: search.NoFiltersBehavior(getEnv("NO_FILTERS_BEHAVIOR", string(search.NoFiltersEmpty))),

		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 10),
		AuthRateBurst:     getEnvInt("AUTH_RATE_BURST", 5),
		TrustedProxies:    splitList(getEnv("TRUSTED_PROXIES", "")),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
	if _, set := os.LookupEnv("CATALOG_PROBE_SCHEDULE"); !set {
		cfg.CatalogProbeSchedule = "@every 5m"
	}
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.buildDatabaseURL())
	return cfg
}

// Validate reports settings the server must not start with.
func (c Config) Validate() error {
	if _, err := search.ParseNoFilters(string(c.NoFiltersBehavior)); err != nil {
		return fmt.Errorf("NO_FILTERS_BEHAVIOR: %w", err)
	}
	for _, p := range c.TrustedProxies {
		if !validProxy(p) {
			return fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", p)
		}
	}
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set to a non-default value when ENV=prod")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// FetchAllWithoutFilters reports whether an unfiltered search goes to the catalog.
func (c Config) FetchAllWithoutFilters() bool {
	b, err := search.ParseNoFilters(string(c.NoFiltersBehavior))
	return err == nil && b == search.NoFiltersFetchAll
}

// TLSEnabled is true when both certificate and key are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

func (c Config) buildDatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// splitList splits a comma-separated list and trims spaces. Empty items are omitted.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvIntAllowZero(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func getEnvFloatAllowZero(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return fallback
}

func validProxy(s string) bool {
	if _, err := netip.ParsePrefix(s); err == nil {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
