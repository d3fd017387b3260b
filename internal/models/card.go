package models

// Card is a read-only catalog entry. Only its ID is ever stored locally.
type Card struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ImageURL      string   `json:"imageUrl"`
	Colors        []string `json:"colors,omitempty"`
	Rarity        string   `json:"rarity,omitempty"`
	Types         []string `json:"types,omitempty"`
	CreatureTypes []string `json:"creatureTypes,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// HasImage reports whether the card can be shown.
func (c Card) HasImage() bool {
	return c.ImageURL != ""
}

// WithImages drops cards without an image reference.
func WithImages(cards []Card) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if c.HasImage() {
			out = append(out, c)
		}
	}
	return out
}
