// Package catalog talks to the upstream card catalog (magicthegathering.io v1 shape)
// and maps its cards onto models.Card.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/crucial707/mtg-cards/internal/common"
	"github.com/crucial707/mtg-cards/internal/metrics"
	"github.com/crucial707/mtg-cards/internal/models"
	"golang.org/x/time/rate"
)

// MaxPageSize is the largest page the upstream catalog serves.
const MaxPageSize = 100

// Query is a card search. The zero Query asks for the unfiltered catalog.
type Query struct {
	Name         string
	Color        string
	Rarity       string
	CreatureType string
	Keywords     string
	Page         int
	PageSize     int
}

// IsEmpty reports whether the query carries no term and no facet.
func (q Query) IsEmpty() bool {
	return q.Name == "" && q.Color == "" && q.Rarity == "" && q.CreatureType == "" && q.Keywords == ""
}

// Values renders the query as upstream URL parameters. Empty fields are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("name", q.Name)
	set("colors", q.Color)
	set("rarity", q.Rarity)
	set("subtypes", q.CreatureType)
	set("text", q.Keywords)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(min(q.PageSize, MaxPageSize)))
	}
	return v
}

type upstreamCard struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ImageURL string   `json:"imageUrl"`
	Colors   []string `json:"colors"`
	Rarity   string   `json:"rarity"`
	Types    []string `json:"types"`
	Subtypes []string `json:"subtypes"`
	Keywords []string `json:"keywords"`
}

type upstreamResponse struct {
	Cards []upstreamCard `json:"cards"`
}

func (u upstreamCard) toCard() models.Card {
	return models.Card{
		ID:            u.ID,
		Name:          u.Name,
		ImageURL:      u.ImageURL,
		Colors:        u.Colors,
		Rarity:        u.Rarity,
		Types:         u.Types,
		CreatureTypes: u.Subtypes,
		Keywords:      u.Keywords,
	}
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New returns a catalog client. timeout bounds each request end to end;
// rps caps the outbound request rate (burst 1). rps <= 0 disables the cap.
func New(baseURL string, timeout time.Duration, rps float64) *Client {
	lim := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: lim,
	}
}

// Search returns the catalog cards matching q that have an image.
// An empty, non-nil slice means the catalog had no (displayable) match.
func (c *Client) Search(ctx context.Context, q Query) ([]models.Card, error) {
	var out upstreamResponse
	if err := c.get(ctx, "/cards", q.Values(), &out); err != nil {
		metrics.IncCatalogRequests(metrics.CatalogOutcomeError)
		return nil, err
	}

	cards := make([]models.Card, 0, len(out.Cards))
	for _, uc := range out.Cards {
		cards = append(cards, uc.toCard())
	}
	cards = models.WithImages(cards)

	if len(cards) == 0 {
		metrics.IncCatalogRequests(metrics.CatalogOutcomeEmpty)
	} else {
		metrics.IncCatalogRequests(metrics.CatalogOutcomeOK)
	}
	return cards, nil
}

// Ping issues the smallest possible search to check the catalog is answering.
func (c *Client) Ping(ctx context.Context) error {
	var out upstreamResponse
	return c.get(ctx, "/cards", Query{PageSize: 1}.Values(), &out)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("catalog rate limit: %v: %w", err, common.ErrUpstreamUnavailable)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog get: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog status %d: %s: %w", resp.StatusCode, body, common.ErrUpstreamUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog decode: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	return nil
}
