package main

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/crucial707/mtg-cards/internal/client"
	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/crucial707/mtg-cards/internal/search"
	"github.com/go-chi/chi/v5"
)

type app struct {
	api   *client.Client
	opts  search.Options
	pages map[string]*template.Template
	views *viewStore
}

// controller rebuilds the per-request view state from the session cookies.
func (a *app) controller(s session) *search.Controller {
	api := a.api
	if s.Token != "" {
		api = api.WithToken(s.Token)
	}
	return search.NewController(api, s.UserID, a.opts)
}

// ==========================
// Login / Register / Logout
// ==========================
func (a *app) loginForm(w http.ResponseWriter, r *http.Request) {
	if readSession(r).LoggedIn() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	a.render(w, http.StatusOK, "login.html", map[string]any{"Next": r.URL.Query().Get("next")})
}

func (a *app) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := r.FormValue("next")
	if username == "" || password == "" {
		a.render(w, http.StatusBadRequest, "login.html", map[string]any{"Error": "Username and password are required", "Username": username, "Next": next})
		return
	}

	res, err := a.api.Login(r.Context(), username, password)
	if err != nil {
		status, msg := http.StatusBadGateway, "Cannot reach the card API. Please try again."
		if errors.Is(err, common.ErrUnauthorized) {
			status, msg = http.StatusUnauthorized, "Invalid credentials"
		}
		a.render(w, status, "login.html", map[string]any{"Error": msg, "Username": username, "Next": next})
		return
	}

	writeSession(w, session{Token: res.Token, UserID: res.UserID, Username: res.Username})
	http.Redirect(w, r, safeNext(next, "/"), http.StatusFound)
}

func (a *app) registerForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "register.html", nil)
}

func (a *app) registerSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	msg, err := a.api.Register(r.Context(), username, password)
	if err != nil {
		status, text := http.StatusBadGateway, "Cannot reach the card API. Please try again."
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			status, text = apiErr.Status, apiErr.Message
		}
		a.render(w, status, "register.html", map[string]any{"Error": text, "Username": username})
		return
	}
	a.render(w, http.StatusOK, "login.html", map[string]any{"Notice": msg + ". Please log in.", "Username": username})
}

func (a *app) logout(w http.ResponseWriter, r *http.Request) {
	a.views.drop(readSession(r).Token)
	clearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// ==========================
// Search
// ==========================
func (a *app) searchPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s := readSession(r)
	e := a.views.acquire(s, func() *search.Controller { return a.controller(s) })
	defer e.release()
	ctl := e.ctl

	term := q.Get("search")
	facets := search.Facets{
		Color:        q.Get("color"),
		Rarity:       q.Get("rarity"),
		CreatureType: q.Get("creatureType"),
		Keywords:     q.Get("keywords"),
	}
	// A submitted form searches. Links carrying show only pick a view over the
	// loaded results, unless those results are for another query.
	searching := q.Has("search") && (!q.Has("show") || !e.searched || !ctl.State().SameQuery(term, facets))

	if !e.loaded || searching {
		if err := ctl.Refresh(r.Context()); err != nil {
			if errors.Is(err, common.ErrUnauthorized) {
				a.views.drop(s.Token)
				clearAuthAndRedirectToLogin(w, r)
				return
			}
			slog.Warn("web: load annotations", "error", err)
		} else {
			e.loaded = true
		}
	}
	if searching {
		if err := ctl.Search(r.Context(), term, facets); err != nil {
			slog.Warn("web: search", "error", err)
		}
		e.searched = true
	}
	if q.Has("show") {
		view, _ := search.ParseView(q.Get("show"))
		ctl.SetView(view)
	}
	st := ctl.State()

	a.render(w, http.StatusOK, "search.html", map[string]any{
		"Session": s,
		"State":   st,
		"Term":    st.Term,
		"Facets":  st.Facets,
		"Cards":   st.Visible(),
		"Return":  pageURL(st, st.View),
		"Views":   []search.View{search.ViewOwned, search.ViewGood, search.ViewBad},
		"ViewURL": viewURLs(st),
	})
}

// pageURL links back to st's results shown through view v. Following it
// re-renders the loaded results without a new search.
func pageURL(st search.State, v search.View) string {
	q := url.Values{}
	if st.Status != search.StatusIdle {
		q.Set("search", st.Term)
		for k, val := range map[string]string{
			"color":        st.Facets.Color,
			"rarity":       st.Facets.Rarity,
			"creatureType": st.Facets.CreatureType,
			"keywords":     st.Facets.Keywords,
		} {
			if val != "" {
				q.Set(k, val)
			}
		}
	}
	show := string(v)
	if v == search.ViewAll {
		show = "all"
	}
	q.Set("show", show)
	return "/?" + q.Encode()
}

// viewURLs maps each view to the link that toggles it. Following the link for
// the active view returns to all.
func viewURLs(st search.State) map[search.View]string {
	out := make(map[search.View]string, 3)
	for _, v := range []search.View{search.ViewOwned, search.ViewGood, search.ViewBad} {
		out[v] = pageURL(st, st.ToggleView(v).View)
	}
	return out
}

// ==========================
// Card Actions
// ==========================
func (a *app) cardAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	cardID := chi.URLParam(r, "id")
	s := sessionFrom(r.Context())

	var do func(*search.Controller, context.Context, string) error
	switch chi.URLParam(r, "action") {
	case "own":
		do = (*search.Controller).MarkOwned
	case "unown":
		do = (*search.Controller).UnmarkOwned
	case "good":
		do = (*search.Controller).RateGood
	case "bad":
		do = (*search.Controller).RateBad
	case "unmark-good":
		do = (*search.Controller).UnmarkGood
	case "unmark-bad":
		do = (*search.Controller).UnmarkBad
	default:
		http.NotFound(w, r)
		return
	}

	e := a.views.acquire(s, func() *search.Controller { return a.controller(s) })
	defer e.release()

	// Toggle mode needs the current ratings.
	var err error
	if !e.loaded {
		if err = e.ctl.Refresh(r.Context()); err == nil {
			e.loaded = true
		}
	}
	if err == nil {
		err = do(e.ctl, r.Context(), cardID)
	}
	if errors.Is(err, common.ErrUnauthorized) {
		a.views.drop(s.Token)
		clearSession(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.Warn("web: card action", "card_id", cardID, "action", chi.URLParam(r, "action"), "error", err)
	}
	http.Redirect(w, r, safeNext(r.FormValue("return"), "/"), http.StatusSeeOther)
}
