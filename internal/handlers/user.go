package handlers

import (
	"fmt"
	"net/http"

	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/crucial707/mtg-cards/internal/middleware"
	"github.com/crucial707/mtg-cards/internal/repo"
	"github.com/go-chi/chi/v5"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Repo *repo.UserRepo
}

// ==========================
// Current User
// ==========================
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	h.writeUser(w, r, userID)
}

// ==========================
// Get User
// ==========================
// A user may only read their own record.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in := struct {
		ID string `json:"id" validate:"required,uuid"`
	}{ID: id}
	if fields := validateStruct(in); fields != nil {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if userID != id {
		WriteError(w, r, fmt.Errorf("user %s reading %s: %w", userID, id, common.ErrForbidden), "forbidden")
		return
	}
	h.writeUser(w, r, id)
}

func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, r, err, "user not found")
		return
	}
	JSON(w, http.StatusOK, user)
}
