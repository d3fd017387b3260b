package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crucial707/mtg-cards/internal/models"
)

// AnnotationRepo persists per-user card annotations: ownership and good/bad ratings.
type AnnotationRepo struct {
	DB *sql.DB
}

// NewAnnotationRepo returns a new AnnotationRepo.
func NewAnnotationRepo(db *sql.DB) *AnnotationRepo {
	return &AnnotationRepo{DB: db}
}

// Own marks cardID as owned by userID. Marking twice is a no-op.
func (r *AnnotationRepo) Own(ctx context.Context, userID, cardID string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO owned_cards (user_id, card_id) VALUES ($1, $2) ON CONFLICT (user_id, card_id) DO NOTHING`,
		userID, cardID,
	)
	return mapPQError(err)
}

// Unown removes the ownership mark. Removing a missing mark is a no-op.
func (r *AnnotationRepo) Unown(ctx context.Context, userID, cardID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM owned_cards WHERE user_id = $1 AND card_id = $2`,
		userID, cardID,
	)
	return err
}

// OwnedCardIDs returns the ids of all cards userID owns, oldest first.
func (r *AnnotationRepo) OwnedCardIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT card_id FROM owned_cards WHERE user_id = $1 ORDER BY created_at, card_id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Rate sets the user's rating for a card, replacing the opposite rating if present.
func (r *AnnotationRepo) Rate(ctx context.Context, userID, cardID string, rating models.Rating) error {
	if !rating.Valid() {
		return fmt.Errorf("unknown rating %q", rating)
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO card_ratings (user_id, card_id, rating) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, card_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()`,
		userID, cardID, string(rating),
	)
	return mapPQError(err)
}

// Unrate clears the card's rating only if it currently equals rating.
func (r *AnnotationRepo) Unrate(ctx context.Context, userID, cardID string, rating models.Rating) error {
	if !rating.Valid() {
		return fmt.Errorf("unknown rating %q", rating)
	}
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM card_ratings WHERE user_id = $1 AND card_id = $2 AND rating = $3`,
		userID, cardID, string(rating),
	)
	return err
}

// Ratings returns the ids the user rated good and bad.
func (r *AnnotationRepo) Ratings(ctx context.Context, userID string) (good, bad []string, err error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT card_id, rating FROM card_ratings WHERE user_id = $1 ORDER BY updated_at, card_id`,
		userID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	good, bad = []string{}, []string{}
	for rows.Next() {
		var id, rating string
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, nil, err
		}
		switch models.Rating(rating) {
		case models.RatingGood:
			good = append(good, id)
		case models.RatingBad:
			bad = append(bad, id)
		}
	}
	return good, bad, rows.Err()
}
