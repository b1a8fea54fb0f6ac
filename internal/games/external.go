package games

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/pkg/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 40
)

var (
	ErrNotConfigured = errors.New("catalog not configured")
	ErrGameNotFound  = errors.New("game not found in catalog")
	ErrUpstream      = errors.New("catalog request failed")
)

// ExternalSource is a read-only game catalog.
type ExternalSource interface {
	Search(ctx context.Context, query string, pageSize int) ([]models.Game, error)
	GetGameByID(ctx context.Context, id int64) (*models.GameDetails, error)
}

// RAWGSource talks to the RAWG video game database. The API key travels as
// the "key" query parameter.
type RAWGSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewRAWGSource(baseURL, apiKey string) *RAWGSource {
	if baseURL == "" {
		baseURL = "https://api.rawg.io/api"
	}
	return &RAWGSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  strings.TrimSpace(apiKey),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type rawgNamed struct {
	Name string `json:"name"`
}

type rawgGame struct {
	ID              int64   `json:"id"`
	Slug            string  `json:"slug"`
	Name            string  `json:"name"`
	Released        string  `json:"released"`
	BackgroundImage string  `json:"background_image"`
	Rating          float64 `json:"rating"`
	Platforms       []struct {
		Platform rawgNamed `json:"platform"`
	} `json:"platforms"`
	Genres []rawgNamed `json:"genres"`
}

type rawgSearchRes struct {
	Count   int        `json:"count"`
	Results []rawgGame `json:"results"`
}

type rawgDetailRes struct {
	rawgGame
	DescriptionRaw string      `json:"description_raw"`
	Description    string      `json:"description"`
	Website        string      `json:"website"`
	Metacritic     int         `json:"metacritic"`
	Playtime       int         `json:"playtime"`
	Developers     []rawgNamed `json:"developers"`
	Publishers     []rawgNamed `json:"publishers"`
}

func (r *RAWGSource) Search(ctx context.Context, q string, pageSize int) ([]models.Game, error) {
	if r.APIKey == "" {
		return nil, ErrNotConfigured
	}
	pageSize = ClampPageSize(pageSize)

	qs := url.Values{}
	qs.Set("search", q)
	qs.Set("page_size", strconv.Itoa(pageSize))

	var res rawgSearchRes
	if err := r.get(ctx, "/games", qs, &res); err != nil {
		return nil, err
	}

	out := make([]models.Game, 0, len(res.Results))
	for _, g := range res.Results {
		out = append(out, g.toModel())
	}
	return out, nil
}

func (r *RAWGSource) GetGameByID(ctx context.Context, id int64) (*models.GameDetails, error) {
	if r.APIKey == "" {
		return nil, ErrNotConfigured
	}

	var res rawgDetailRes
	if err := r.get(ctx, fmt.Sprintf("/games/%d", id), url.Values{}, &res); err != nil {
		return nil, err
	}

	description := res.DescriptionRaw
	if description == "" {
		description = res.Description
	}
	return &models.GameDetails{
		Game:        res.toModel(),
		Description: description,
		Website:     res.Website,
		Metacritic:  res.Metacritic,
		Playtime:    res.Playtime,
		Developers:  names(res.Developers),
		Publishers:  names(res.Publishers),
	}, nil
}

func (r *RAWGSource) get(ctx context.Context, path string, qs url.Values, out interface{}) error {
	qs.Set("key", r.APIKey)
	u := r.BaseURL + path + "?" + qs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "GameShelf/1.0 (+github.com/binhbb2204/GameShelf)")

	res, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ErrGameNotFound
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s", ErrUpstream, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}

func (g rawgGame) toModel() models.Game {
	platforms := make([]string, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		if p.Platform.Name != "" {
			platforms = append(platforms, p.Platform.Name)
		}
	}
	return models.Game{
		ID:              g.ID,
		Slug:            g.Slug,
		Name:            g.Name,
		BackgroundImage: g.BackgroundImage,
		Released:        g.Released,
		Rating:          g.Rating,
		Platforms:       platforms,
		Genres:          names(g.Genres),
	}
}

func names(items []rawgNamed) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.Name != "" {
			out = append(out, it.Name)
		}
	}
	return out
}

// ClampPageSize applies the default and the upper bound the catalog accepts.
func ClampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	}
	return n
}
