package cards

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/crucial707/mtg-cards/cmd/cli/config"
	"github.com/spf13/cobra"
)

// fakeAPI is an in-memory card API for one user.
type fakeAPI struct {
	mu       sync.Mutex
	owned    map[string]bool
	good     map[string]bool
	bad      map[string]bool
	searches []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{owned: map[string]bool{}, good: map[string]bool{}, bad: map[string]bool{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	t.Setenv("MTG_CARDS_API_URL", srv.URL)
	t.Setenv("MTG_CARDS_SESSION", filepath.Join(t.TempDir(), "session"))
	t.Setenv("MTG_RATING_MODE", "")
	t.Setenv("MTG_NO_FILTERS_BEHAVIOR", "")
	return api
}

func ids(m map[string]bool) []string {
	out := []string{}
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/cards":
		a.searches = append(a.searches, r.URL.RawQuery)
		if r.URL.Query().Get("search") == "nothing" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "No cards found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"cards": []map[string]any{
			{"id": "c1", "name": "Shivan Dragon", "imageUrl": "http://img/c1", "rarity": "Rare", "types": []string{"Creature"}, "colors": []string{"Red"}},
			{"id": "c2", "name": "Dragon Whelp", "imageUrl": "http://img/c2", "rarity": "Uncommon", "colors": []string{"Red"}},
		}})
		return
	case "/api/cards/owned":
		json.NewEncoder(w).Encode(map[string][]string{"ownedCardIds": ids(a.owned)})
		return
	case "/api/cards/ratings":
		json.NewEncoder(w).Encode(map[string][]string{"goodCardIds": ids(a.good), "badCardIds": ids(a.bad)})
		return
	}

	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
		return
	}
	var in struct {
		CardID string `json:"cardId"`
	}
	json.NewDecoder(r.Body).Decode(&in)
	switch r.URL.Path {
	case "/api/cards/own":
		a.owned[in.CardID] = true
	case "/api/cards/unown":
		delete(a.owned, in.CardID)
	case "/api/cards/thumbs-up":
		a.good[in.CardID] = true
		delete(a.bad, in.CardID)
	case "/api/cards/thumbs-down":
		a.bad[in.CardID] = true
		delete(a.good, in.CardID)
	case "/api/cards/unmark-good":
		delete(a.good, in.CardID)
	case "/api/cards/unmark-bad":
		delete(a.bad, in.CardID)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
}

func login(t *testing.T) {
	t.Helper()
	if err := config.SaveSession(config.Session{Token: "tok", UserID: "u1", Username: "alice"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "mtg", SilenceUsage: true, SilenceErrors: true}
	InitCards(root)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestSearch_TableOutput(t *testing.T) {
	api := newFakeAPI(t)

	out, err := run(t, "search", "Dragon", "--color", "Red")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "Shivan Dragon") || !strings.Contains(out, "Dragon Whelp") {
		t.Fatalf("expected card names in output, got: %s", out)
	}
	if !strings.Contains(out, "Creature") {
		t.Errorf("expected card type in output, got: %s", out)
	}
	if len(api.searches) != 1 || api.searches[0] != "color=Red&search=Dragon" {
		t.Errorf("unexpected upstream queries: %v", api.searches)
	}
}

func TestSearch_JSONOutput(t *testing.T) {
	newFakeAPI(t)

	out, err := run(t, "search", "Dragon", "--json")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, `"name": "Shivan Dragon"`) {
		t.Fatalf("expected JSON output, got: %s", out)
	}
}

func TestSearch_NotFound(t *testing.T) {
	newFakeAPI(t)

	out, err := run(t, "search", "nothing")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "No cards found") {
		t.Errorf("expected not found message, got: %s", out)
	}
}

func TestSearch_NoFilters(t *testing.T) {
	api := newFakeAPI(t)

	out, err := run(t, "search")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(api.searches) != 0 {
		t.Errorf("expected no request, got %v", api.searches)
	}
	if !strings.Contains(out, "Enter a search term") {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := run(t, "search", "--fetch-all"); err != nil {
		t.Fatalf("search --fetch-all: %v", err)
	}
	if len(api.searches) != 1 || api.searches[0] != "fetchAll=true" {
		t.Errorf("unexpected upstream queries: %v", api.searches)
	}
}

func TestSearch_ShowOwned(t *testing.T) {
	api := newFakeAPI(t)
	login(t)
	api.owned["c2"] = true

	out, err := run(t, "search", "Dragon", "--show", "owned")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if strings.Contains(out, "Shivan Dragon") || !strings.Contains(out, "Dragon Whelp") {
		t.Errorf("expected only owned card, got: %s", out)
	}
}

func TestSearch_ShowRequiresLogin(t *testing.T) {
	newFakeAPI(t)

	if _, err := run(t, "search", "Dragon", "--show", "good"); err == nil {
		t.Error("expected error without a session")
	}
}

func TestAnnotations(t *testing.T) {
	api := newFakeAPI(t)
	login(t)

	if out, err := run(t, "own", "c1"); err != nil || !strings.Contains(out, "Card marked as owned") {
		t.Fatalf("own: %v %s", err, out)
	}
	if out, err := run(t, "good", "c1"); err != nil || !strings.Contains(out, "Card marked as good") {
		t.Fatalf("good: %v %s", err, out)
	}
	if out, err := run(t, "bad", "c1"); err != nil || !strings.Contains(out, "Card marked as bad") {
		t.Fatalf("bad: %v %s", err, out)
	}
	if api.good["c1"] || !api.bad["c1"] {
		t.Errorf("expected c1 bad only, good=%v bad=%v", api.good, api.bad)
	}

	// toggle is the default mode: a repeated bad clears it
	if out, err := run(t, "bad", "c1"); err != nil || !strings.Contains(out, "Card rating cleared") {
		t.Fatalf("bad toggle: %v %s", err, out)
	}
	if api.bad["c1"] {
		t.Error("expected bad cleared")
	}

	// set mode never unmarks
	run(t, "good", "c1", "--mode", "set")
	if out, err := run(t, "good", "c1", "--mode", "set"); err != nil || !strings.Contains(out, "Card marked as good") {
		t.Fatalf("good set: %v %s", err, out)
	}

	out, err := run(t, "owned")
	if err != nil || !strings.Contains(out, "c1") {
		t.Fatalf("owned: %v %s", err, out)
	}
	out, err = run(t, "ratings")
	if err != nil || !strings.Contains(out, "good") {
		t.Fatalf("ratings: %v %s", err, out)
	}
}

func TestAnnotations_RequireLogin(t *testing.T) {
	newFakeAPI(t)

	_, err := run(t, "own", "c1")
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Errorf("expected not logged in error, got %v", err)
	}
}

func TestRate_BadMode(t *testing.T) {
	newFakeAPI(t)
	login(t)

	if _, err := run(t, "good", "c1", "--mode", "flip"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
