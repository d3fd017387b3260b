package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/crucial707/mtg-cards/internal/metrics"
	"github.com/crucial707/mtg-cards/internal/middleware"
	"github.com/crucial707/mtg-cards/internal/models"
	"github.com/crucial707/mtg-cards/internal/repo"
)

// AnnotationHandler serves ownership and rating annotations.
type AnnotationHandler struct {
	Repo *repo.AnnotationRepo
}

type annotationInput struct {
	UserID string `json:"userId" validate:"omitempty,uuid"`
	CardID string `json:"cardId" validate:"required,max=100"`
}

// resolveUser picks the acting user. A token's user wins; a requested id that
// disagrees with it is forbidden. Without a token the requested id is trusted.
func resolveUser(r *http.Request, requested string) (string, error) {
	if tokenUser, ok := middleware.GetUserID(r.Context()); ok {
		if requested != "" && requested != tokenUser {
			return "", fmt.Errorf("user %s acting as %s: %w", tokenUser, requested, common.ErrForbidden)
		}
		return tokenUser, nil
	}
	if requested == "" {
		return "", fmt.Errorf("userId: %w", common.ErrValidation)
	}
	return requested, nil
}

func userErrorMessage(err error) string {
	if errors.Is(err, common.ErrForbidden) {
		return "userId does not match token"
	}
	return "userId is required"
}

// mutation applies one annotation write for (userID, cardID).
type mutation struct {
	apply   func(ctx context.Context, userID, cardID string) error
	kind    string
	action  string
	message string
}

func (h *AnnotationHandler) handle(m mutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input annotationInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			JSONError(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		input.CardID = strings.TrimSpace(input.CardID)
		if fields := validateStruct(input); fields != nil {
			JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
			return
		}
		userID, err := resolveUser(r, input.UserID)
		if err != nil {
			WriteError(w, r, err, userErrorMessage(err))
			return
		}

		if err := m.apply(r.Context(), userID, input.CardID); err != nil {
			WriteError(w, r, err, "User not found")
			return
		}
		metrics.IncAnnotationWrites(m.kind, m.action)

		JSONMessage(w, m.message, http.StatusOK)
	}
}

// ==========================
// Ownership
// ==========================
func (h *AnnotationHandler) Own() http.HandlerFunc {
	return h.handle(mutation{h.Repo.Own, "owned", "set", "Card marked as owned"})
}

func (h *AnnotationHandler) Unown() http.HandlerFunc {
	return h.handle(mutation{h.Repo.Unown, "owned", "unset", "Card unmarked as owned"})
}

// ==========================
// Ratings
// ==========================
func (h *AnnotationHandler) ThumbsUp() http.HandlerFunc {
	return h.handle(mutation{h.rate(models.RatingGood), "good", "set", "Card marked as good"})
}

func (h *AnnotationHandler) ThumbsDown() http.HandlerFunc {
	return h.handle(mutation{h.rate(models.RatingBad), "bad", "set", "Card marked as bad"})
}

func (h *AnnotationHandler) UnmarkGood() http.HandlerFunc {
	return h.handle(mutation{h.unrate(models.RatingGood), "good", "unset", "Card unmarked as good"})
}

func (h *AnnotationHandler) UnmarkBad() http.HandlerFunc {
	return h.handle(mutation{h.unrate(models.RatingBad), "bad", "unset", "Card unmarked as bad"})
}

func (h *AnnotationHandler) rate(rating models.Rating) func(context.Context, string, string) error {
	return func(ctx context.Context, userID, cardID string) error {
		return h.Repo.Rate(ctx, userID, cardID, rating)
	}
}

func (h *AnnotationHandler) unrate(rating models.Rating) func(context.Context, string, string) error {
	return func(ctx context.Context, userID, cardID string) error {
		return h.Repo.Unrate(ctx, userID, cardID, rating)
	}
}

// ==========================
// Reads
// ==========================

// queryUser resolves the user for GET endpoints from ?userId and the token.
func queryUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	in := struct {
		UserID string `query:"userId" validate:"omitempty,uuid"`
	}{UserID: strings.TrimSpace(r.URL.Query().Get("userId"))}
	if fields := validateStruct(in); fields != nil {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return "", false
	}
	userID, err := resolveUser(r, in.UserID)
	if err != nil {
		WriteError(w, r, err, userErrorMessage(err))
		return "", false
	}
	return userID, true
}

// Owned returns {ownedCardIds}.
func (h *AnnotationHandler) Owned(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUser(w, r)
	if !ok {
		return
	}
	ids, err := h.Repo.OwnedCardIDs(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err, "Failed to fetch owned cards")
		return
	}
	JSON(w, http.StatusOK, map[string][]string{"ownedCardIds": ids})
}

// Ratings returns {goodCardIds, badCardIds}.
func (h *AnnotationHandler) Ratings(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUser(w, r)
	if !ok {
		return
	}
	good, bad, err := h.Repo.Ratings(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err, "Failed to fetch ratings")
		return
	}
	JSON(w, http.StatusOK, map[string][]string{"goodCardIds": good, "badCardIds": bad})
}
