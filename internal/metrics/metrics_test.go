package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/api/cards", "/api/cards"},
		{"/cards/5f8287b1-5bb6-5f4c-ad17-316a40d5bb0c/own", "/cards/{id}/own"},
		{"/cards/0123456789abcdef0123456789abcdef01234567/good", "/cards/{id}/good"},
		{"/items/42", "/items/{id}"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCatalogCounters(t *testing.T) {
	before := testutil.ToFloat64(CatalogRequestsTotal.WithLabelValues(CatalogOutcomeEmpty))
	IncCatalogRequests(CatalogOutcomeEmpty)
	if got := testutil.ToFloat64(CatalogRequestsTotal.WithLabelValues(CatalogOutcomeEmpty)); got != before+1 {
		t.Errorf("catalog empty counter: got %v, want %v", got, before+1)
	}

	SetCatalogUp(true)
	if got := testutil.ToFloat64(CatalogUp); got != 1 {
		t.Errorf("catalog_up: got %v, want 1", got)
	}
	SetCatalogUp(false)
	if got := testutil.ToFloat64(CatalogUp); got != 0 {
		t.Errorf("catalog_up: got %v, want 0", got)
	}
}
