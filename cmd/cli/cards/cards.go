package cards

import (
	"context"
	"errors"
	"fmt"

	"github.com/crucial707/mtg-cards/cmd/cli/config"
	"github.com/crucial707/mtg-cards/cmd/cli/output"
	"github.com/crucial707/mtg-cards/internal/search"
	"github.com/spf13/cobra"
)

// ==========================
// Init Cards
// ==========================
func InitCards(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		searchCmd(),
		annotateCmd("own", "Mark a card as owned", (*search.Controller).MarkOwned, "Card marked as owned"),
		annotateCmd("unown", "Unmark a card as owned", (*search.Controller).UnmarkOwned, "Card unmarked as owned"),
		rateCmd("good", "Rate a card good", (*search.Controller).RateGood),
		rateCmd("bad", "Rate a card bad", (*search.Controller).RateBad),
		annotateCmd("unmark-good", "Clear a good rating", (*search.Controller).UnmarkGood, "Card unmarked as good"),
		annotateCmd("unmark-bad", "Clear a bad rating", (*search.Controller).UnmarkBad, "Card unmarked as bad"),
		ownedCmd(),
		ratingsCmd(),
	)
}

// controller builds a controller from the stored session. An absent session
// gives an anonymous controller unless required is set.
func controller(required bool, mode search.RatingMode) (*search.Controller, config.Session, error) {
	sess, err := config.LoadSession()
	if err != nil && (required || !errors.Is(err, config.ErrNoSession)) {
		return nil, sess, err
	}
	noFilters, err := config.NoFilters()
	if err != nil {
		return nil, sess, err
	}
	if mode == "" {
		if mode, err = config.RatingMode(); err != nil {
			return nil, sess, err
		}
	}
	c := search.NewController(config.Client(sess), sess.UserID, search.Options{NoFilters: noFilters, Rating: mode})
	return c, sess, nil
}

// ==========================
// Search
// ==========================
func searchCmd() *cobra.Command {
	var (
		facets   search.Facets
		fetchAll bool
		show     string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search the card catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, ok := search.ParseView(show)
			if !ok {
				return fmt.Errorf("--show must be owned, good or bad")
			}
			ctl, sess, err := controller(view != search.ViewAll, "")
			if err != nil {
				return err
			}
			if fetchAll {
				ctl = search.NewController(config.Client(sess), sess.UserID, search.Options{NoFilters: search.NoFiltersFetchAll})
			}

			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			ctx := cmd.Context()
			if err := ctl.Refresh(ctx); err != nil {
				return fmt.Errorf("load annotations: %w", err)
			}
			searchErr := ctl.Search(ctx, term, facets)
			st := ctl.ToggleView(view)

			out := cmd.OutOrStdout()
			switch st.Status {
			case search.StatusIdle:
				fmt.Fprintln(out, "Enter a search term or a filter.")
				return nil
			case search.StatusNotFound, search.StatusError:
				fmt.Fprintln(out, st.Message)
				return searchErr
			}

			visible := st.Visible()
			if asJSON {
				return output.JSON(out, visible)
			}
			output.RenderCards(out, visible, st)
			return nil
		},
	}
	cmd.Flags().StringVar(&facets.Color, "color", "", "Color filter (e.g. Red)")
	cmd.Flags().StringVar(&facets.Rarity, "rarity", "", "Rarity filter (e.g. Rare)")
	cmd.Flags().StringVar(&facets.CreatureType, "type", "", "Creature type filter (e.g. Dragon)")
	cmd.Flags().StringVar(&facets.Keywords, "keywords", "", "Keyword/rules text filter (e.g. Flying)")
	cmd.Flags().BoolVar(&fetchAll, "fetch-all", false, "Fetch the unfiltered catalog when no term or filter is given")
	cmd.Flags().StringVar(&show, "show", "", "Only show owned, good or bad cards")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// ==========================
// Annotations
// ==========================

type action func(*search.Controller, context.Context, string) error

func annotateCmd(use, short string, do action, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <cardId>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, _, err := controller(true, "")
			if err != nil {
				return err
			}
			if err := do(ctl, cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), done)
			return nil
		},
	}
}

// rateCmd dispatches on --mode; without it MTG_RATING_MODE decides.
func rateCmd(use, short string, rate action) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   use + " <cardId>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m search.RatingMode
			if mode != "" {
				var err error
				if m, err = search.ParseRatingMode(mode); err != nil {
					return err
				}
			}
			ctl, _, err := controller(true, m)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := ctl.Refresh(ctx); err != nil {
				return fmt.Errorf("load ratings: %w", err)
			}

			if err := rate(ctl, ctx, args[0]); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}

			st := ctl.State()
			switch {
			case st.IsGood(args[0]):
				fmt.Fprintln(cmd.OutOrStdout(), "Card marked as good")
			case st.IsBad(args[0]):
				fmt.Fprintln(cmd.OutOrStdout(), "Card marked as bad")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Card rating cleared")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "toggle (repeat unmarks) or set (always marks); defaults to MTG_RATING_MODE")
	return cmd
}

// ==========================
// Listings
// ==========================
func ownedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owned",
		Short: "List owned card ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, _, err := controller(true, "")
			if err != nil {
				return err
			}
			if err := ctl.Refresh(cmd.Context()); err != nil {
				return err
			}
			output.RenderIDs(cmd.OutOrStdout(), "Owned", ctl.State().Owned.Sorted())
			return nil
		},
	}
}

func ratingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ratings",
		Short: "List good and bad card ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, _, err := controller(true, "")
			if err != nil {
				return err
			}
			if err := ctl.Refresh(cmd.Context()); err != nil {
				return err
			}
			st := ctl.State()
			rows := [][]interface{}{}
			for _, id := range st.Good.Sorted() {
				rows = append(rows, []interface{}{id, "good"})
			}
			for _, id := range st.Bad.Sorted() {
				rows = append(rows, []interface{}{id, "bad"})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Card", "Rating"}, rows)
			return nil
		},
	}
}
