// Package client is a typed HTTP client for the card API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/crucial707/mtg-cards/internal/models"
)

// DefaultTimeout bounds every request when New is given a zero timeout.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the API. It unwraps to the matching
// common error so callers can use errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return common.ErrValidation
	case e.Status == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return common.ErrForbidden
	case e.Status == http.StatusNotFound:
		return common.ErrNotFound
	case e.Status == http.StatusConflict:
		return common.ErrConflict
	case e.Status >= 500:
		return common.ErrUpstreamUnavailable
	}
	return nil
}

// Client is safe for concurrent use. WithToken returns a copy, the receiver is never mutated.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for the API at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithToken returns a client that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// SearchParams mirrors the GET /api/cards query.
type SearchParams struct {
	Term         string
	Color        string
	Rarity       string
	CreatureType string
	Keywords     string
	UserID       string
	FetchAll     bool
	Owned        bool
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("search", p.Term)
	set("color", p.Color)
	set("rarity", p.Rarity)
	set("creatureType", p.CreatureType)
	set("keywords", p.Keywords)
	set("userId", p.UserID)
	if p.FetchAll {
		v.Set("fetchAll", "true")
	}
	if p.Owned {
		v.Set("owned", "true")
	}
	return v
}

type messageBody struct {
	Message string `json:"message"`
}

// ==========================
// Auth
// ==========================

// Register creates an account and returns the server's message.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var out messageBody
	err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, credentials(username, password), &out)
	return out.Message, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, credentials(username, password), &out); err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, errors.New("login succeeded but no token returned")
	}
	return out, nil
}

func credentials(username, password string) map[string]string {
	return map[string]string{"username": username, "password": password}
}

// ==========================
// Cards
// ==========================

// SearchCards runs a search. A 404 from the API comes back as an error wrapping common.ErrNotFound.
func (c *Client) SearchCards(ctx context.Context, p SearchParams) ([]models.Card, error) {
	var out struct {
		Cards []models.Card `json:"cards"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cards", p.values(), nil, &out); err != nil {
		return nil, err
	}
	if out.Cards == nil {
		out.Cards = []models.Card{}
	}
	return out.Cards, nil
}

// OwnedCards returns the ids the user owns.
func (c *Client) OwnedCards(ctx context.Context, userID string) ([]string, error) {
	var out struct {
		OwnedCardIDs []string `json:"ownedCardIds"`
	}
	err := c.do(ctx, http.MethodGet, "/api/cards/owned", userQuery(userID), nil, &out)
	return out.OwnedCardIDs, err
}

// Ratings returns the ids the user rated good and bad.
func (c *Client) Ratings(ctx context.Context, userID string) (good, bad []string, err error) {
	var out struct {
		GoodCardIDs []string `json:"goodCardIds"`
		BadCardIDs  []string `json:"badCardIds"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cards/ratings", userQuery(userID), nil, &out); err != nil {
		return nil, nil, err
	}
	return out.GoodCardIDs, out.BadCardIDs, nil
}

func userQuery(userID string) url.Values {
	v := url.Values{}
	if userID != "" {
		v.Set("userId", userID)
	}
	return v
}

func (c *Client) Own(ctx context.Context, userID, cardID string) error {
	return c.annotate(ctx, "/api/cards/own", userID, cardID)
}

func (c *Client) Unown(ctx context.Context, userID, cardID string) error {
	return c.annotate(ctx, "/api/cards/unown", userID, cardID)
}

func (c *Client) ThumbsUp(ctx context.Context, userID, cardID string) error {
	return c.annotate(ctx, "/api/cards/thumbs-up", userID, cardID)
}

func (c *Client) ThumbsDown(ctx context.Context, userID, cardID string) error {
	return c.annotate(ctx, "/api/cards/thumbs-down", userID, cardID)
}

func (c *Client) UnmarkGood(ctx context.Context, userID, cardID string) error {
	return c.annotate(ctx, "/api/cards/unmark-good", userID, cardID)
}

func (c *Client) UnmarkBad(ctx context.Context, userID, cardID string) error {
	return c.annotate(ctx, "/api/cards/unmark-bad", userID, cardID)
}

func (c *Client) annotate(ctx context.Context, path, userID, cardID string) error {
	body := map[string]string{"cardId": cardID}
	if userID != "" {
		body["userId"] = userID
	}
	return c.do(ctx, http.MethodPost, path, nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, common.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %v: %w", method, path, err, common.ErrUpstreamUnavailable)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var msg messageBody
		_ = json.Unmarshal(data, &msg)
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return nil
}
