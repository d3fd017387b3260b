package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crucial707/mtg-cards/internal/client"
	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/crucial707/mtg-cards/internal/models"
)

// Backend is the subset of client.Client the controller calls.
type Backend interface {
	SearchCards(ctx context.Context, p client.SearchParams) ([]models.Card, error)
	OwnedCards(ctx context.Context, userID string) ([]string, error)
	Ratings(ctx context.Context, userID string) (good, bad []string, err error)
	Own(ctx context.Context, userID, cardID string) error
	Unown(ctx context.Context, userID, cardID string) error
	ThumbsUp(ctx context.Context, userID, cardID string) error
	ThumbsDown(ctx context.Context, userID, cardID string) error
	UnmarkGood(ctx context.Context, userID, cardID string) error
	UnmarkBad(ctx context.Context, userID, cardID string) error
}

// NoFiltersBehavior decides what a search with no term and no facets does.
type NoFiltersBehavior string

const (
	NoFiltersEmpty    NoFiltersBehavior = "empty"
	NoFiltersFetchAll NoFiltersBehavior = "fetch_all"
)

// RatingMode decides what RateGood and RateBad do on a card that already has that rating.
type RatingMode string

const (
	// RatingToggle unmarks on a repeated rating.
	RatingToggle RatingMode = "toggle"
	// RatingSet always sets.
	RatingSet RatingMode = "set"
)

// ParseNoFilters maps "" to NoFiltersEmpty.
func ParseNoFilters(s string) (NoFiltersBehavior, error) {
	switch b := NoFiltersBehavior(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return NoFiltersEmpty, nil
	case NoFiltersEmpty, NoFiltersFetchAll:
		return b, nil
	}
	return "", fmt.Errorf("no filters behavior %q: must be empty or fetch_all: %w", s, common.ErrValidation)
}

// ParseRatingMode maps "" to RatingToggle.
func ParseRatingMode(s string) (RatingMode, error) {
	switch m := RatingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return RatingToggle, nil
	case RatingToggle, RatingSet:
		return m, nil
	}
	return "", fmt.Errorf("rating mode %q: must be toggle or set: %w", s, common.ErrValidation)
}

type Options struct {
	NoFilters NoFiltersBehavior
	Rating    RatingMode
}

// Controller applies user actions to a State. It is not safe for concurrent use;
// each session owns one.
type Controller struct {
	backend Backend
	userID  string
	opts    Options
	state   State
}

// NewController returns a controller for userID, which may be empty for an
// anonymous session that can search but not annotate.
func NewController(b Backend, userID string, opts Options) *Controller {
	if opts.NoFilters == "" {
		opts.NoFilters = NoFiltersEmpty
	}
	if opts.Rating == "" {
		opts.Rating = RatingToggle
	}
	return &Controller{backend: b, userID: userID, opts: opts}
}

func (c *Controller) State() State { return c.state }

// ToggleView is local; it never fetches.
func (c *Controller) ToggleView(v View) State {
	c.state = c.state.ToggleView(v)
	return c.state
}

// SetView is local like ToggleView, but selecting v twice keeps it.
func (c *Controller) SetView(v View) State {
	c.state = c.state.WithView(v)
	return c.state
}

// Clear resets the inputs and results.
func (c *Controller) Clear() State {
	c.state = c.state.Cleared()
	return c.state
}

// Search runs term and facets against the API. With no filters and
// NoFiltersEmpty it clears the results without a request. A not-found answer is
// a state, not an error; any other failure is returned after the state records it.
func (c *Controller) Search(ctx context.Context, term string, facets Facets) error {
	st := c.state.WithTerm(term).WithFacets(facets)
	if !st.HasFilters() && c.opts.NoFilters != NoFiltersFetchAll {
		c.state = st.Cleared()
		return nil
	}

	cards, err := c.backend.SearchCards(ctx, client.SearchParams{
		Term:         st.Term,
		Color:        st.Facets.Color,
		Rarity:       st.Facets.Rarity,
		CreatureType: st.Facets.CreatureType,
		Keywords:     st.Facets.Keywords,
		FetchAll:     !st.HasFilters(),
	})
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.state = st.NotFound()
		return nil
	case err != nil:
		c.state = st.Failed()
		return err
	}
	c.state = st.ResultsLoaded(cards)
	return nil
}

// Refresh reloads the owned and rating sets. Anonymous sessions have none.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.userID == "" {
		return nil
	}
	if err := c.refreshOwned(ctx); err != nil {
		return err
	}
	return c.refreshRatings(ctx)
}

func (c *Controller) refreshOwned(ctx context.Context) error {
	ids, err := c.backend.OwnedCards(ctx, c.userID)
	if err != nil {
		return err
	}
	c.state = c.state.OwnedLoaded(ids)
	return nil
}

func (c *Controller) refreshRatings(ctx context.Context) error {
	good, bad, err := c.backend.Ratings(ctx, c.userID)
	if err != nil {
		return err
	}
	c.state = c.state.RatingsLoaded(good, bad)
	return nil
}

// write applies the optimistic reducer, calls the API, then re-fetches with
// reload. A failed write keeps the optimistic state.
func (c *Controller) write(
	ctx context.Context,
	cardID string,
	optimistic func(State, string) State,
	call func(context.Context, string, string) error,
	reload func(context.Context) error,
) error {
	if c.userID == "" {
		return fmt.Errorf("annotate %s: login required: %w", cardID, common.ErrUnauthorized)
	}
	c.state = optimistic(c.state, cardID)
	if err := call(ctx, c.userID, cardID); err != nil {
		return err
	}
	return reload(ctx)
}

// ==========================
// Ownership
// ==========================

func (c *Controller) MarkOwned(ctx context.Context, cardID string) error {
	return c.write(ctx, cardID, State.MarkedOwned, c.backend.Own, c.refreshOwned)
}

func (c *Controller) UnmarkOwned(ctx context.Context, cardID string) error {
	return c.write(ctx, cardID, State.UnmarkedOwned, c.backend.Unown, c.refreshOwned)
}

// ToggleOwned marks or unmarks depending on the current state.
func (c *Controller) ToggleOwned(ctx context.Context, cardID string) error {
	if c.state.IsOwned(cardID) {
		return c.UnmarkOwned(ctx, cardID)
	}
	return c.MarkOwned(ctx, cardID)
}

// ==========================
// Ratings
// ==========================

// RateGood follows Options.Rating.
func (c *Controller) RateGood(ctx context.Context, cardID string) error {
	if c.opts.Rating == RatingSet {
		return c.SetGood(ctx, cardID)
	}
	return c.ToggleGood(ctx, cardID)
}

// RateBad follows Options.Rating.
func (c *Controller) RateBad(ctx context.Context, cardID string) error {
	if c.opts.Rating == RatingSet {
		return c.SetBad(ctx, cardID)
	}
	return c.ToggleBad(ctx, cardID)
}

// SetGood rates the card good, clearing bad.
func (c *Controller) SetGood(ctx context.Context, cardID string) error {
	return c.write(ctx, cardID, State.MarkedGood, c.backend.ThumbsUp, c.refreshRatings)
}

// SetBad rates the card bad, clearing good.
func (c *Controller) SetBad(ctx context.Context, cardID string) error {
	return c.write(ctx, cardID, State.MarkedBad, c.backend.ThumbsDown, c.refreshRatings)
}

// ToggleGood unmarks a good card and sets any other.
func (c *Controller) ToggleGood(ctx context.Context, cardID string) error {
	if c.state.IsGood(cardID) {
		return c.UnmarkGood(ctx, cardID)
	}
	return c.SetGood(ctx, cardID)
}

// ToggleBad unmarks a bad card and sets any other.
func (c *Controller) ToggleBad(ctx context.Context, cardID string) error {
	if c.state.IsBad(cardID) {
		return c.UnmarkBad(ctx, cardID)
	}
	return c.SetBad(ctx, cardID)
}

func (c *Controller) UnmarkGood(ctx context.Context, cardID string) error {
	return c.write(ctx, cardID, State.UnmarkedGood, c.backend.UnmarkGood, c.refreshRatings)
}

func (c *Controller) UnmarkBad(ctx context.Context, cardID string) error {
	return c.write(ctx, cardID, State.UnmarkedBad, c.backend.UnmarkBad, c.refreshRatings)
}
