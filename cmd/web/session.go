package main

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const (
	tokenCookie = "mtg_cards_token"
	userCookie  = "mtg_cards_user"
	nameCookie  = "mtg_cards_username"
)

type session struct {
	Token    string
	UserID   string
	Username string
}

func (s session) LoggedIn() bool { return s.Token != "" && s.UserID != "" }

func readSession(r *http.Request) session {
	var s session
	if c, err := r.Cookie(tokenCookie); err == nil {
		s.Token = c.Value
	}
	if c, err := r.Cookie(userCookie); err == nil {
		s.UserID = c.Value
	}
	if c, err := r.Cookie(nameCookie); err == nil {
		s.Username, _ = url.QueryUnescape(c.Value)
	}
	return s
}

func writeSession(w http.ResponseWriter, s session) {
	set := func(name, value string) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			MaxAge:   24 * 3600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	set(tokenCookie, s.Token)
	set(userCookie, s.UserID)
	set(nameCookie, url.QueryEscape(s.Username))
}

func clearSession(w http.ResponseWriter) {
	for _, name := range []string{tokenCookie, userCookie, nameCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
}

// clearAuthAndRedirectToLogin clears the session cookies and redirects to login with next=current path.
// Call when the API returns 401 (expired or invalid token) so the user can sign in again.
func clearAuthAndRedirectToLogin(w http.ResponseWriter, r *http.Request) {
	clearSession(w)
	next := r.URL.Path
	if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, "/login?next="+url.QueryEscape(next), http.StatusFound)
}

type sessionKey struct{}

// requireSession redirects to /login when the cookies are missing.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := readSession(r)
		if !s.LoggedIn() {
			http.Redirect(w, r, "/login?next=%2F", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func sessionFrom(ctx context.Context) session {
	s, _ := ctx.Value(sessionKey{}).(session)
	return s
}

// safeNext keeps redirects on this site: a rooted path with no scheme or host.
// Control characters and backslashes are rejected outright.
func safeNext(next, fallback string) string {
	if next == "" || strings.ContainsAny(next, "\\") {
		return fallback
	}
	for _, c := range next {
		if c < 0x20 || c == 0x7f {
			return fallback
		}
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	return next
}
