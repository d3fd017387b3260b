package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/crucial707/mtg-cards/internal/client"
	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/crucial707/mtg-cards/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend keeps server-side annotation sets and records every call.
type fakeBackend struct {
	cards     []models.Card
	searchErr error
	writeErr  error

	searches []client.SearchParams
	calls    []string

	owned map[string]bool
	good  map[string]bool
	bad   map[string]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{owned: map[string]bool{}, good: map[string]bool{}, bad: map[string]bool{}}
}

func keys(m map[string]bool) []string {
	out := []string{}
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (f *fakeBackend) SearchCards(ctx context.Context, p client.SearchParams) ([]models.Card, error) {
	f.searches = append(f.searches, p)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.cards, nil
}

func (f *fakeBackend) OwnedCards(ctx context.Context, userID string) ([]string, error) {
	f.calls = append(f.calls, "owned")
	return keys(f.owned), nil
}

func (f *fakeBackend) Ratings(ctx context.Context, userID string) ([]string, []string, error) {
	f.calls = append(f.calls, "ratings")
	return keys(f.good), keys(f.bad), nil
}

func (f *fakeBackend) record(op, cardID string, apply func()) error {
	f.calls = append(f.calls, op+":"+cardID)
	if f.writeErr != nil {
		return f.writeErr
	}
	apply()
	return nil
}

func (f *fakeBackend) Own(ctx context.Context, userID, cardID string) error {
	return f.record("own", cardID, func() { f.owned[cardID] = true })
}

func (f *fakeBackend) Unown(ctx context.Context, userID, cardID string) error {
	return f.record("unown", cardID, func() { delete(f.owned, cardID) })
}

func (f *fakeBackend) ThumbsUp(ctx context.Context, userID, cardID string) error {
	return f.record("thumbs-up", cardID, func() { f.good[cardID] = true; delete(f.bad, cardID) })
}

func (f *fakeBackend) ThumbsDown(ctx context.Context, userID, cardID string) error {
	return f.record("thumbs-down", cardID, func() { f.bad[cardID] = true; delete(f.good, cardID) })
}

func (f *fakeBackend) UnmarkGood(ctx context.Context, userID, cardID string) error {
	return f.record("unmark-good", cardID, func() { delete(f.good, cardID) })
}

func (f *fakeBackend) UnmarkBad(ctx context.Context, userID, cardID string) error {
	return f.record("unmark-bad", cardID, func() { delete(f.bad, cardID) })
}

func TestController_Search_ForwardsFilters(t *testing.T) {
	b := newFakeBackend()
	b.cards = loaded
	c := NewController(b, "u1", Options{})

	require.NoError(t, c.Search(context.Background(), "Dragon", Facets{Color: "Red"}))

	require.Len(t, b.searches, 1)
	assert.Equal(t, client.SearchParams{Term: "Dragon", Color: "Red"}, b.searches[0])
	assert.Equal(t, StatusResults, c.State().Status)
	assert.Len(t, c.State().Cards, 3)
}

func TestController_Search_NoFilters(t *testing.T) {
	cases := []Facets{{}, {Color: " "}, {Rarity: "", Keywords: "  "}}
	for _, facets := range cases {
		t.Run("empty", func(t *testing.T) {
			b := newFakeBackend()
			c := NewController(b, "u1", Options{NoFilters: NoFiltersEmpty})
			require.NoError(t, c.Search(context.Background(), " ", facets))
			assert.Empty(t, b.searches)
			assert.Equal(t, StatusIdle, c.State().Status)
			assert.Empty(t, c.State().Cards)
		})
		t.Run("fetch_all", func(t *testing.T) {
			b := newFakeBackend()
			b.cards = loaded
			c := NewController(b, "u1", Options{NoFilters: NoFiltersFetchAll})
			require.NoError(t, c.Search(context.Background(), "", facets))
			require.Len(t, b.searches, 1)
			assert.True(t, b.searches[0].FetchAll)
			assert.Equal(t, StatusResults, c.State().Status)
		})
	}
}

func TestController_Search_NotFound(t *testing.T) {
	b := newFakeBackend()
	b.searchErr = fmt.Errorf("search: %w", common.ErrNotFound)
	c := NewController(b, "u1", Options{})

	require.NoError(t, c.Search(context.Background(), "zzz", Facets{}))
	assert.Equal(t, StatusNotFound, c.State().Status)
	assert.Equal(t, "No cards found", c.State().Message)
	assert.Empty(t, c.State().Cards)
}

func TestController_Search_EmptyUpstreamIsNotFound(t *testing.T) {
	b := newFakeBackend()
	b.cards = []models.Card{}
	c := NewController(b, "u1", Options{})

	require.NoError(t, c.Search(context.Background(), "zzz", Facets{}))
	assert.Equal(t, StatusNotFound, c.State().Status)
}

func TestController_Search_Failure(t *testing.T) {
	b := newFakeBackend()
	b.searchErr = fmt.Errorf("get: %w", common.ErrUpstreamUnavailable)
	c := NewController(b, "u1", Options{})

	err := c.Search(context.Background(), "Dragon", Facets{})
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	assert.Equal(t, StatusError, c.State().Status)
	assert.Equal(t, MessageError, c.State().Message)
	assert.Len(t, b.searches, 1, "no automatic retry")
}

func TestController_ToggleViewDoesNotFetch(t *testing.T) {
	b := newFakeBackend()
	b.cards = loaded
	c := NewController(b, "u1", Options{})
	require.NoError(t, c.Search(context.Background(), "a", Facets{}))

	c.ToggleView(ViewOwned)
	c.ToggleView(ViewBad)
	c.ToggleView(ViewBad)

	assert.Len(t, b.searches, 1)
	assert.Empty(t, b.calls)
	assert.Equal(t, ViewAll, c.State().View)

	c.SetView(ViewGood)
	c.SetView(ViewGood)
	assert.Len(t, b.searches, 1)
	assert.Equal(t, ViewGood, c.State().View)
}

func TestController_RatingToggleMode(t *testing.T) {
	b := newFakeBackend()
	c := NewController(b, "u1", Options{Rating: RatingToggle})
	ctx := context.Background()

	require.NoError(t, c.RateGood(ctx, "c1"))
	assert.True(t, c.State().IsGood("c1"))

	require.NoError(t, c.RateGood(ctx, "c1"))
	assert.False(t, c.State().IsGood("c1"))

	require.NoError(t, c.RateGood(ctx, "c1"))
	require.NoError(t, c.RateBad(ctx, "c1"))
	assert.True(t, c.State().IsBad("c1"))
	assert.False(t, c.State().IsGood("c1"))

	assert.Equal(t, []string{
		"thumbs-up:c1", "ratings",
		"unmark-good:c1", "ratings",
		"thumbs-up:c1", "ratings",
		"thumbs-down:c1", "ratings",
	}, b.calls)
}

func TestController_RatingSetMode(t *testing.T) {
	b := newFakeBackend()
	c := NewController(b, "u1", Options{Rating: RatingSet})
	ctx := context.Background()

	require.NoError(t, c.RateBad(ctx, "c1"))
	require.NoError(t, c.RateBad(ctx, "c1"))
	assert.True(t, c.State().IsBad("c1"))
	assert.Equal(t, []string{"thumbs-down:c1", "ratings", "thumbs-down:c1", "ratings"}, b.calls)

	require.NoError(t, c.RateGood(ctx, "c1"))
	assert.True(t, c.State().IsGood("c1"))
	assert.False(t, c.State().IsBad("c1"))
}

func TestController_Ownership(t *testing.T) {
	b := newFakeBackend()
	c := NewController(b, "u1", Options{})
	ctx := context.Background()

	require.NoError(t, c.MarkOwned(ctx, "c2"))
	require.NoError(t, c.SetGood(ctx, "c2"))
	assert.True(t, c.State().IsOwned("c2"))

	require.NoError(t, c.ToggleOwned(ctx, "c2"))
	assert.False(t, c.State().IsOwned("c2"))
	assert.True(t, c.State().IsGood("c2"))
	assert.Equal(t, []string{"own:c2", "owned", "thumbs-up:c2", "ratings", "unown:c2", "owned"}, b.calls)
}

func TestController_FailedWriteKeepsOptimisticState(t *testing.T) {
	b := newFakeBackend()
	b.writeErr = errors.New("network down")
	c := NewController(b, "u1", Options{})

	err := c.SetGood(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, c.State().IsGood("c1"))
	assert.Equal(t, []string{"thumbs-up:c1"}, b.calls, "no refresh after a failed write")
}

func TestController_AnonymousCannotAnnotate(t *testing.T) {
	b := newFakeBackend()
	c := NewController(b, "", Options{})

	err := c.MarkOwned(context.Background(), "c1")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Empty(t, b.calls)
	assert.NoError(t, c.Refresh(context.Background()))
}

func TestController_Refresh(t *testing.T) {
	b := newFakeBackend()
	b.owned["c1"] = true
	b.good["c2"] = true
	b.bad["c3"] = true
	c := NewController(b, "u1", Options{})

	require.NoError(t, c.Refresh(context.Background()))
	st := c.State()
	assert.True(t, st.IsOwned("c1"))
	assert.True(t, st.IsGood("c2"))
	assert.True(t, st.IsBad("c3"))
}

func TestParseOptions(t *testing.T) {
	nf, err := ParseNoFilters("")
	require.NoError(t, err)
	assert.Equal(t, NoFiltersEmpty, nf)

	nf, err = ParseNoFilters("FETCH_ALL")
	require.NoError(t, err)
	assert.Equal(t, NoFiltersFetchAll, nf)

	_, err = ParseNoFilters("all")
	assert.ErrorIs(t, err, common.ErrValidation)

	m, err := ParseRatingMode("set")
	require.NoError(t, err)
	assert.Equal(t, RatingSet, m)

	_, err = ParseRatingMode("flip")
	assert.ErrorIs(t, err, common.ErrValidation)
}
