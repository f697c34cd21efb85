// Package tmdb implements a minimal client for The Movie Database API:
// keyword search plus per-title detail lookups used by the sync jobs.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/xiaozhang/xiaoblog/config"
)

// Client calls the TMDB REST API.
type Client struct {
	apiKey   string
	baseURL  string
	imageURL string
	language string
	http     *http.Client
}

// NewClient builds a Client from application configuration.
func NewClient(cfg config.AppConfig) *Client {
	return &Client{
		apiKey:   cfg.TMDBAPIKey,
		baseURL:  cfg.TMDBBaseURL,
		imageURL: cfg.TMDBImageBaseURL,
		language: cfg.TMDBLanguage,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// SearchResult is one entry of a TMDB search response, normalized across
// movie and TV payloads with absolute artwork URLs.
type SearchResult struct {
	TmdbID        int     `json:"tmdb_id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	PosterPath    string  `json:"poster_path,omitempty"`
	BackdropPath  string  `json:"backdrop_path,omitempty"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	VoteAverage   float64 `json:"vote_average"`
	MediaType     string  `json:"media_type"`
}

// SearchPage wraps paginated search results.
type SearchPage struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
}

// Details is a TMDB movie or TV detail payload.
type Details struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Genres        []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// DisplayTitle returns the localized title regardless of media type.
func (d *Details) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// DisplayOriginalTitle returns the original title regardless of media type.
func (d *Details) DisplayOriginalTitle() string {
	if d.OriginalTitle != "" {
		return d.OriginalTitle
	}
	return d.OriginalName
}

// ImageURL maps a TMDB relative artwork path onto the configured image host.
func (c *Client) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return c.imageURL + path
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build tmdb request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

type rawSearchPage struct {
	Results []struct {
		ID            int     `json:"id"`
		Title         string  `json:"title"`
		Name          string  `json:"name"`
		OriginalTitle string  `json:"original_title"`
		OriginalName  string  `json:"original_name"`
		PosterPath    string  `json:"poster_path"`
		BackdropPath  string  `json:"backdrop_path"`
		Overview      string  `json:"overview"`
		ReleaseDate   string  `json:"release_date"`
		FirstAirDate  string  `json:"first_air_date"`
		VoteAverage   float64 `json:"vote_average"`
	} `json:"results"`
	TotalResults int `json:"total_results"`
	Page         int `json:"page"`
	TotalPages   int `json:"total_pages"`
}

func (c *Client) search(ctx context.Context, endpoint, mediaType, query string, page int) (*SearchPage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var raw rawSearchPage
	if err := c.get(ctx, endpoint, params, &raw); err != nil {
		return nil, err
	}

	out := &SearchPage{
		Results:      make([]SearchResult, 0, len(raw.Results)),
		TotalResults: raw.TotalResults,
		Page:         raw.Page,
		TotalPages:   raw.TotalPages,
	}
	for _, item := range raw.Results {
		r := SearchResult{
			TmdbID:       item.ID,
			PosterPath:   c.ImageURL(item.PosterPath),
			BackdropPath: c.ImageURL(item.BackdropPath),
			Overview:     item.Overview,
			VoteAverage:  item.VoteAverage,
			MediaType:    mediaType,
		}
		if mediaType == "tv" {
			r.Title = item.Name
			r.OriginalTitle = item.OriginalName
			r.ReleaseDate = item.FirstAirDate
		} else {
			r.Title = item.Title
			r.OriginalTitle = item.OriginalTitle
			r.ReleaseDate = item.ReleaseDate
		}
		out.Results = append(out.Results, r)
	}
	return out, nil
}

// SearchMovies searches TMDB movies by keyword.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*SearchPage, error) {
	return c.search(ctx, "/search/movie", "movie", query, page)
}

// SearchTV searches TMDB TV shows by keyword.
func (c *Client) SearchTV(ctx context.Context, query string, page int) (*SearchPage, error) {
	return c.search(ctx, "/search/tv", "tv", query, page)
}

// Details fetches the detail payload for a movie or TV show by TMDB id.
// mediaType must be "movie" or "tv".
func (c *Client) Details(ctx context.Context, mediaType string, tmdbID int) (*Details, error) {
	var d Details
	err := c.get(ctx, fmt.Sprintf("/%s/%d", mediaType, tmdbID), nil, &d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
