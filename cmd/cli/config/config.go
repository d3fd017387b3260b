package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/crucial707/mtg-cards/internal/client"
	"github.com/crucial707/mtg-cards/internal/search"
)

const (
	defaultAPIURL      = "http://localhost:5000"
	sessionFileName    = ".mtg_cards_session"
	defaultHTTPTimeout = 10 * time.Second
)

// APIURL returns the base URL for the card API.
// It can be overridden with the MTG_CARDS_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("MTG_CARDS_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// RatingMode reads MTG_RATING_MODE (toggle or set, default toggle).
func RatingMode() (search.RatingMode, error) {
	return search.ParseRatingMode(os.Getenv("MTG_RATING_MODE"))
}

// NoFilters reads MTG_NO_FILTERS_BEHAVIOR (empty or fetch_all, default empty).
func NoFilters() (search.NoFiltersBehavior, error) {
	return search.ParseNoFilters(os.Getenv("MTG_NO_FILTERS_BEHAVIOR"))
}

// ==========================
// Session Storage
// ==========================

// Session is what login leaves on disk.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ErrNoSession is returned by LoadSession when nobody is logged in.
var ErrNoSession = errors.New("not logged in; run `mtg login` first")

// SessionPath is ~/.mtg_cards_session unless MTG_CARDS_SESSION names another file.
func SessionPath() string {
	if v := os.Getenv("MTG_CARDS_SESSION"); v != "" {
		return v
	}
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, sessionFileName)
}

func SaveSession(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(SessionPath(), data, 0o600)
}

func LoadSession() (Session, error) {
	data, err := os.ReadFile(SessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("corrupt session file %s: %w", SessionPath(), err)
	}
	if s.Token == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// ClearSession removes the session file. It reports whether one existed.
func ClearSession() (bool, error) {
	err := os.Remove(SessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Client returns an API client carrying the session token, if any.
func Client(s Session) *client.Client {
	c := client.New(APIURL(), defaultHTTPTimeout)
	if s.Token != "" {
		return c.WithToken(s.Token)
	}
	return c
}
