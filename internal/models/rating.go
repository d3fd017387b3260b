package models

// Rating is a user's verdict on a card. A card holds at most one rating per user.
type Rating string

const (
	RatingGood Rating = "good"
	RatingBad  Rating = "bad"
)

// Valid reports whether r is one of the known ratings.
func (r Rating) Valid() bool {
	return r == RatingGood || r == RatingBad
}
