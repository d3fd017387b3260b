package main

import (
	"sync"
	"time"

	"github.com/crucial707/mtg-cards/internal/search"
)

const (
	defaultMaxViews = 1000
	defaultViewTTL  = 24 * time.Hour
)

// viewStore holds each signed-in session's controller between requests, keyed
// by token. Pages render the loaded state; only a new query reaches the catalog.
type viewStore struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*viewEntry
}

type viewEntry struct {
	mu       sync.Mutex
	ctl      *search.Controller
	userID   string
	loaded   bool // annotations fetched at least once
	searched bool
	lastUsed time.Time
}

func newViewStore(max int, ttl time.Duration) *viewStore {
	return &viewStore{max: max, ttl: ttl, now: time.Now, entries: make(map[string]*viewEntry)}
}

// acquire returns the locked entry for s, building a controller when there is
// none. Anonymous sessions get a throwaway entry. Callers must release it.
func (v *viewStore) acquire(s session, build func() *search.Controller) *viewEntry {
	if !s.LoggedIn() {
		e := &viewEntry{ctl: build(), userID: s.UserID}
		e.mu.Lock()
		return e
	}

	v.mu.Lock()
	now := v.now()
	e, ok := v.entries[s.Token]
	if !ok || e.userID != s.UserID || now.Sub(e.lastUsed) > v.ttl {
		v.evictLocked(now)
		e = &viewEntry{ctl: build(), userID: s.UserID}
		v.entries[s.Token] = e
	}
	e.lastUsed = now
	v.mu.Unlock()

	e.mu.Lock()
	return e
}

func (e *viewEntry) release() { e.mu.Unlock() }

// drop forgets the state held for token, e.g. on logout or a rejected token.
func (v *viewStore) drop(token string) {
	if token == "" {
		return
	}
	v.mu.Lock()
	delete(v.entries, token)
	v.mu.Unlock()
}

// evictLocked removes expired entries and, when still full, the least recently used one.
func (v *viewStore) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, e := range v.entries {
		if now.Sub(e.lastUsed) > v.ttl {
			delete(v.entries, k)
			continue
		}
		if oldestKey == "" || e.lastUsed.Before(oldest) {
			oldestKey, oldest = k, e.lastUsed
		}
	}
	if len(v.entries) >= v.max && oldestKey != "" {
		delete(v.entries, oldestKey)
	}
}

func (v *viewStore) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}
