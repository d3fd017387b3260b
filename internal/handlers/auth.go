package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/crucial707/mtg-cards/internal/models"
	"github.com/crucial707/mtg-cards/internal/repo"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo *repo.UserRepo
	Secret   []byte
	// TokenTTL is the token lifetime. Zero issues tokens without an expiry.
	TokenTTL time.Duration
}

type credentials struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if fields := validateStruct(input); fields != nil {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	if _, err := h.UserRepo.Create(r.Context(), input.Username, input.Password); err != nil {
		WriteError(w, r, err, "Username already exists")
		return
	}

	JSONMessage(w, "User registered successfully", http.StatusCreated)
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if fields := validateStruct(input); fields != nil {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByUsername(r.Context(), input.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			err = common.ErrUnauthorized
		}
		WriteError(w, r, err, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	signed, err := h.issueToken(user)
	if err != nil {
		slog.Error("login: sign token", "user_id", user.ID, "error", err)
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"token":    signed,
		"userId":   user.ID,
		"username": user.Username,
	})
}

func (h *AuthHandler) issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"iat":      time.Now().Unix(),
	}
	if h.TokenTTL > 0 {
		claims["exp"] = time.Now().Add(h.TokenTTL).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.Secret)
}
