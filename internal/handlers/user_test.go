package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/mtg-cards/internal/middleware"
	"github.com/crucial707/mtg-cards/internal/repo"
	"github.com/go-chi/chi/v5"
)

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestUserHandler_Me(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash, created_at`).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow(testUserID, "alice", "$2a$hash", time.Now()))

	h := &UserHandler{Repo: repo.NewUserRepo(db)}
	rr := httptest.NewRecorder()
	h.Me(rr, withUser(httptest.NewRequest("GET", "/api/users/me", nil), testUserID))

	if rr.Code != http.StatusOK {
		t.Fatalf("Me status: got %d, want 200", rr.Code)
	}
	var out map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["id"] != testUserID || out["username"] != "alice" {
		t.Errorf("unexpected user: %v", out)
	}
	if _, leaked := out["password_hash"]; leaked {
		t.Error("password hash must not be serialized")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_Me_Anonymous(t *testing.T) {
	h := &UserHandler{}
	rr := httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest("GET", "/api/users/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Me status: got %d, want 401", rr.Code)
	}
}

func TestUserHandler_GetUser(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		setup  func(sqlmock.Sqlmock)
		status int
	}{
		{"self", testUserID, func(m sqlmock.Sqlmock) {
			m.ExpectQuery(`SELECT id, username`).WithArgs(testUserID).
				WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
					AddRow(testUserID, "alice", "x", time.Now()))
		}, http.StatusOK},
		{"other user", otherUserID, func(sqlmock.Sqlmock) {}, http.StatusForbidden},
		{"bad id", "42", func(sqlmock.Sqlmock) {}, http.StatusBadRequest},
		{"deleted", testUserID, func(m sqlmock.Sqlmock) {
			m.ExpectQuery(`SELECT id, username`).WithArgs(testUserID).WillReturnError(sql.ErrNoRows)
		}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock.New: %v", err)
			}
			defer db.Close()
			tt.setup(mock)

			h := &UserHandler{Repo: repo.NewUserRepo(db)}
			req := withURLParam(httptest.NewRequest("GET", "/api/users/"+tt.id, nil), "id", tt.id)
			rr := httptest.NewRecorder()
			h.GetUser(rr, withUser(req, testUserID))

			if rr.Code != tt.status {
				t.Errorf("GetUser status: got %d, want %d", rr.Code, tt.status)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("expectations: %v", err)
			}
		})
	}
}
