// Package search holds the client-side search view state: an immutable State
// with pure reducers, and a Controller that drives it against the API.
package search

import (
	"slices"
	"strings"

	"github.com/crucial707/mtg-cards/internal/models"
)

// User-facing messages.
const (
	MessageNotFound = "No cards found"
	MessageError    = "An error occurred. Please try again."
)

// Status is where the last search left the result list.
type Status int

const (
	StatusIdle Status = iota
	StatusResults
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusResults:
		return "results"
	case StatusNotFound:
		return "not-found"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// View narrows loaded results by annotation. At most one non-all view is active.
type View string

const (
	ViewAll   View = ""
	ViewOwned View = "owned"
	ViewGood  View = "good"
	ViewBad   View = "bad"
)

// ParseView accepts "", "all", "owned", "good" and "bad".
func ParseView(s string) (View, bool) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewAll, ViewOwned, ViewGood, ViewBad:
		return v, true
	case "all":
		return ViewAll, true
	}
	return ViewAll, false
}

// Facets are the structured filters next to the free-text term.
type Facets struct {
	Color        string
	Rarity       string
	CreatureType string
	Keywords     string
}

func (f Facets) trimmed() Facets {
	return Facets{
		Color:        strings.TrimSpace(f.Color),
		Rarity:       strings.TrimSpace(f.Rarity),
		CreatureType: strings.TrimSpace(f.CreatureType),
		Keywords:     strings.TrimSpace(f.Keywords),
	}
}

// IsEmpty reports whether every facet is blank.
func (f Facets) IsEmpty() bool {
	return f.trimmed() == Facets{}
}

// IDSet is a set of card ids. Reducers never mutate a set they were given.
type IDSet map[string]struct{}

func newIDSet(ids []string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set is empty.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in lexical order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s IDSet) with(id string) IDSet {
	if s.Has(id) {
		return s
	}
	out := make(IDSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[id] = struct{}{}
	return out
}

func (s IDSet) without(id string) IDSet {
	if !s.Has(id) {
		return s
	}
	out := make(IDSet, len(s))
	for k := range s {
		if k != id {
			out[k] = struct{}{}
		}
	}
	return out
}

// State is the whole view state. Methods return modified copies; a State
// value is never changed in place.
type State struct {
	Term    string
	Facets  Facets
	Cards   []models.Card
	Status  Status
	Message string
	View    View

	Owned IDSet
	Good  IDSet
	Bad   IDSet
}

// HasFilters reports whether the term or any facet is non-blank.
func (s State) HasFilters() bool {
	return strings.TrimSpace(s.Term) != "" || !s.Facets.IsEmpty()
}

func (s State) IsOwned(id string) bool { return s.Owned.Has(id) }
func (s State) IsGood(id string) bool  { return s.Good.Has(id) }
func (s State) IsBad(id string) bool   { return s.Bad.Has(id) }

// ==========================
// Inputs
// ==========================

func (s State) WithTerm(term string) State {
	s.Term = strings.TrimSpace(term)
	return s
}

func (s State) WithFacets(f Facets) State {
	s.Facets = f.trimmed()
	return s
}

// Cleared drops the inputs and results. Annotations and the view survive.
func (s State) Cleared() State {
	s.Term = ""
	s.Facets = Facets{}
	s.Cards = nil
	s.Status = StatusIdle
	s.Message = ""
	return s
}

// ToggleView selects v, or returns to all when v is already selected.
func (s State) ToggleView(v View) State {
	if s.View == v {
		s.View = ViewAll
		return s
	}
	s.View = v
	return s
}

// WithView selects v outright. Repeating it keeps v selected.
func (s State) WithView(v View) State {
	s.View = v
	return s
}

// SameQuery reports whether term and f, once trimmed, are the loaded inputs.
func (s State) SameQuery(term string, f Facets) bool {
	return s.Term == strings.TrimSpace(term) && s.Facets == f.trimmed()
}

// ==========================
// Search results
// ==========================

// ResultsLoaded stores cards that have an image. No such card means not found.
func (s State) ResultsLoaded(cards []models.Card) State {
	kept := models.WithImages(cards)
	if len(kept) == 0 {
		return s.NotFound()
	}
	s.Cards = kept
	s.Status = StatusResults
	s.Message = ""
	return s
}

func (s State) NotFound() State {
	s.Cards = []models.Card{}
	s.Status = StatusNotFound
	s.Message = MessageNotFound
	return s
}

func (s State) Failed() State {
	s.Cards = []models.Card{}
	s.Status = StatusError
	s.Message = MessageError
	return s
}

// ==========================
// Annotations
// ==========================

func (s State) OwnedLoaded(ids []string) State {
	s.Owned = newIDSet(ids)
	return s
}

// RatingsLoaded replaces both rating sets. An id listed in both ends up bad only.
func (s State) RatingsLoaded(good, bad []string) State {
	s.Bad = newIDSet(bad)
	s.Good = make(IDSet, len(good))
	for _, id := range good {
		if !s.Bad.Has(id) {
			s.Good[id] = struct{}{}
		}
	}
	return s
}

func (s State) MarkedOwned(id string) State {
	s.Owned = s.Owned.with(id)
	return s
}

func (s State) UnmarkedOwned(id string) State {
	s.Owned = s.Owned.without(id)
	return s
}

// MarkedGood adds id to good and removes it from bad.
func (s State) MarkedGood(id string) State {
	s.Good = s.Good.with(id)
	s.Bad = s.Bad.without(id)
	return s
}

// MarkedBad adds id to bad and removes it from good.
func (s State) MarkedBad(id string) State {
	s.Bad = s.Bad.with(id)
	s.Good = s.Good.without(id)
	return s
}

func (s State) UnmarkedGood(id string) State {
	s.Good = s.Good.without(id)
	return s
}

func (s State) UnmarkedBad(id string) State {
	s.Bad = s.Bad.without(id)
	return s
}

// Visible returns the loaded cards narrowed by the current view.
func (s State) Visible() []models.Card {
	var set IDSet
	switch s.View {
	case ViewOwned:
		set = s.Owned
	case ViewGood:
		set = s.Good
	case ViewBad:
		set = s.Bad
	default:
		return s.Cards
	}
	out := make([]models.Card, 0, len(s.Cards))
	for _, c := range s.Cards {
		if set.Has(c.ID) {
			out = append(out, c)
		}
	}
	return out
}
