package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Catalog request outcomes.
const (
	CatalogOutcomeOK    = "ok"
	CatalogOutcomeEmpty = "empty"
	CatalogOutcomeError = "error"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// CatalogRequestsTotal counts upstream catalog searches by outcome (ok, empty, error).
	CatalogRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of upstream catalog requests by outcome",
		},
		[]string{"outcome"},
	)

	// CatalogUp is 1 when the last catalog probe succeeded, 0 otherwise.
	CatalogUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_up",
			Help: "Whether the last upstream catalog probe succeeded",
		},
	)

	// AnnotationWritesTotal counts annotation mutations by kind (owned, good, bad) and action (set, unset).
	AnnotationWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotation_writes_total",
			Help: "Total number of card annotation writes",
		},
		[]string{"kind", "action"},
	)

	// PanicsTotal counts handler panics caught by the recoverer.
	PanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_panics_total",
			Help: "Total number of recovered handler panics",
		},
	)
)

var (
	// Card ids from the catalog are 40-char hex or uuids; user ids are uuids.
	idPathSegment = regexp.MustCompile(`/([0-9a-fA-F]{8}-[0-9a-fA-F-]{27}|[0-9a-fA-F]{40}|[0-9]+)(/|$)`)
	initOnce      sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, CatalogRequestsTotal, CatalogUp, AnnotationWritesTotal, PanicsTotal)
	})
}

// NormalizePath reduces cardinality by replacing id-like path segments with {id}.
// E.g. /cards/5f8287b1-5bb6-5f4c-ad17-316a40d5bb0c/own -> /cards/{id}/own.
func NormalizePath(path string) string {
	return idPathSegment.ReplaceAllString(path, "/{id}$2")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncCatalogRequests counts one catalog request with the given outcome.
func IncCatalogRequests(outcome string) {
	CatalogRequestsTotal.WithLabelValues(outcome).Inc()
}

// SetCatalogUp records the result of a catalog probe.
func SetCatalogUp(up bool) {
	if up {
		CatalogUp.Set(1)
		return
	}
	CatalogUp.Set(0)
}

// IncAnnotationWrites counts one annotation write.
func IncAnnotationWrites(kind, action string) {
	AnnotationWritesTotal.WithLabelValues(kind, action).Inc()
}

func IncPanics() {
	PanicsTotal.Inc()
}
