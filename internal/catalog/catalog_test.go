package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, gotQuery *url.Values, cards []map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if gotQuery != nil {
			*gotQuery = r.URL.Query()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"cards": cards})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestQuery_Values(t *testing.T) {
	v := Query{Name: "Dragon", Color: "Red", PageSize: 500}.Values()
	assert.Equal(t, "Dragon", v.Get("name"))
	assert.Equal(t, "Red", v.Get("colors"))
	assert.Equal(t, "100", v.Get("pageSize"))
	assert.False(t, v.Has("rarity"))
	assert.False(t, v.Has("page"))

	assert.True(t, Query{}.IsEmpty())
	assert.True(t, Query{Page: 2}.IsEmpty())
	assert.False(t, Query{Keywords: "Flying"}.IsEmpty())
}

func TestClient_Search_MapsAndFiltersImages(t *testing.T) {
	var got url.Values
	srv := newUpstream(t, &got, []map[string]any{
		{"id": "a1", "name": "Shivan Dragon", "imageUrl": "http://img/a1", "colors": []string{"Red"}, "rarity": "Rare", "types": []string{"Creature"}, "subtypes": []string{"Dragon"}, "keywords": []string{"Flying"}},
		{"id": "a2", "name": "Shivan Dragon (no art)"},
	})

	c := New(srv.URL, time.Second, 0)
	cards, err := c.Search(context.Background(), Query{Name: "Dragon", Color: "Red", Rarity: "Rare", CreatureType: "Dragon", Keywords: "Flying"})
	require.NoError(t, err)

	assert.Equal(t, "Dragon", got.Get("name"))
	assert.Equal(t, "Red", got.Get("colors"))
	assert.Equal(t, "Rare", got.Get("rarity"))
	assert.Equal(t, "Dragon", got.Get("subtypes"))
	assert.Equal(t, "Flying", got.Get("text"))

	require.Len(t, cards, 1)
	assert.Equal(t, "a1", cards[0].ID)
	assert.Equal(t, []string{"Red"}, cards[0].Colors)
	assert.Equal(t, []string{"Creature"}, cards[0].Types)
	assert.Equal(t, []string{"Dragon"}, cards[0].CreatureTypes)
	assert.Equal(t, []string{"Flying"}, cards[0].Keywords)
}

func TestClient_Search_Empty(t *testing.T) {
	srv := newUpstream(t, nil, nil)

	c := New(srv.URL, time.Second, 0)
	cards, err := c.Search(context.Background(), Query{Name: "Nonexistent"})
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestClient_Search_NoFiltersSendsNoParams(t *testing.T) {
	var got url.Values
	srv := newUpstream(t, &got, nil)

	c := New(srv.URL, time.Second, 0)
	_, err := c.Search(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_Search_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusServiceUnavailable)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(srv.URL, 50*time.Millisecond, 0)
			_, err := c.Search(context.Background(), Query{Name: "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
		})
	}
}

func TestClient_Search_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := New(addr, time.Second, 0)
	_, err := c.Search(context.Background(), Query{Name: "x"})
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestClient_Search_CanceledWhileRateLimited(t *testing.T) {
	srv := newUpstream(t, nil, nil)

	c := New(srv.URL, time.Second, 0.001)
	_, err := c.Search(context.Background(), Query{Name: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Search(ctx, Query{Name: "second"})
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestClient_Ping(t *testing.T) {
	var got url.Values
	srv := newUpstream(t, &got, nil)

	c := New(srv.URL, time.Second, 0)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "1", got.Get("pageSize"))
}
