package output

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/crucial707/mtg-cards/internal/models"
	"github.com/crucial707/mtg-cards/internal/search"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable prints a pretty table to w
func RenderTable(w io.Writer, headers []string, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}

// RenderCards prints cards with their annotations from st.
func RenderCards(w io.Writer, cards []models.Card, st search.State) {
	rows := make([][]interface{}, 0, len(cards))
	for _, c := range cards {
		rating := ""
		switch {
		case st.IsGood(c.ID):
			rating = "good"
		case st.IsBad(c.ID):
			rating = "bad"
		}
		owned := ""
		if st.IsOwned(c.ID) {
			owned = "yes"
		}
		rows = append(rows, []interface{}{c.ID, c.Name, strings.Join(c.Types, " "), c.Rarity, strings.Join(c.Colors, "/"), owned, rating})
	}
	RenderTable(w, []string{"ID", "Name", "Type", "Rarity", "Colors", "Owned", "Rating"}, rows)
}

// RenderIDs prints a one-column table of card ids under header.
func RenderIDs(w io.Writer, header string, ids []string) {
	rows := make([][]interface{}, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []interface{}{id})
	}
	RenderTable(w, []string{header}, rows)
}

// JSON pretty-prints v.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
