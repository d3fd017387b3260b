package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/crucial707/mtg-cards/internal/catalog"
	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/crucial707/mtg-cards/internal/models"
	"github.com/crucial707/mtg-cards/internal/repo"
)

// CardHandler serves catalog searches.
type CardHandler struct {
	Catalog     *catalog.Client
	Annotations *repo.AnnotationRepo
	// FetchAllWithoutFilters forwards a search with no term and no facets to the
	// catalog instead of answering with an empty list.
	FetchAllWithoutFilters bool
}

type searchInput struct {
	Search       string `query:"search" validate:"max=200"`
	Color        string `query:"color" validate:"max=50"`
	Rarity       string `query:"rarity" validate:"max=50"`
	CreatureType string `query:"creatureType" validate:"max=100"`
	Keywords     string `query:"keywords" validate:"max=200"`
	UserID       string `query:"userId" validate:"omitempty,uuid"`
	FetchAll     bool   `query:"fetchAll"`
	Owned        bool   `query:"owned"`
	Page         int    `query:"page" validate:"gte=0"`
}

func parseSearchInput(r *http.Request) (searchInput, map[string]string) {
	q := r.URL.Query()
	in := searchInput{
		Search:       strings.TrimSpace(q.Get("search")),
		Color:        strings.TrimSpace(q.Get("color")),
		Rarity:       strings.TrimSpace(q.Get("rarity")),
		CreatureType: strings.TrimSpace(q.Get("creatureType")),
		Keywords:     strings.TrimSpace(q.Get("keywords")),
		UserID:       strings.TrimSpace(q.Get("userId")),
		FetchAll:     queryBool(q.Get("fetchAll")),
		Owned:        queryBool(q.Get("owned")),
	}
	fields := map[string]string{}
	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			fields["page"] = "must be a number"
		}
		in.Page = n
	}
	for k, v := range validateStruct(in) {
		fields[k] = v
	}
	if len(fields) == 0 {
		return in, nil
	}
	return in, fields
}

func queryBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

// ==========================
// Search Cards
// ==========================
func (h *CardHandler) Search(w http.ResponseWriter, r *http.Request) {
	in, fields := parseSearchInput(r)
	if fields != nil {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	query := catalog.Query{
		Name:         in.Search,
		Color:        in.Color,
		Rarity:       in.Rarity,
		CreatureType: in.CreatureType,
		Keywords:     in.Keywords,
		Page:         in.Page,
	}

	if query.IsEmpty() && !in.FetchAll && !h.FetchAllWithoutFilters {
		JSON(w, http.StatusOK, map[string][]models.Card{"cards": {}})
		return
	}

	var owned map[string]bool
	if in.Owned {
		userID, err := resolveUser(r, in.UserID)
		if err != nil {
			WriteError(w, r, err, userErrorMessage(err))
			return
		}
		ids, err := h.Annotations.OwnedCardIDs(r.Context(), userID)
		if err != nil {
			WriteError(w, r, err, "Failed to fetch owned cards")
			return
		}
		owned = make(map[string]bool, len(ids))
		for _, id := range ids {
			owned[id] = true
		}
	}

	cards, err := h.Catalog.Search(r.Context(), query)
	if err != nil {
		WriteError(w, r, err, "Failed to fetch cards")
		return
	}

	if owned != nil {
		kept := cards[:0]
		for _, c := range cards {
			if owned[c.ID] {
				kept = append(kept, c)
			}
		}
		cards = kept
	}

	if len(cards) == 0 {
		WriteError(w, r, common.ErrNotFound, "No cards found")
		return
	}

	JSON(w, http.StatusOK, map[string][]models.Card{"cards": cards})
}
