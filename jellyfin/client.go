// Package jellyfin implements a read-only client for the Jellyfin server
// API, scoped to what the media sync jobs need: the user's library listing
// and per-item details.
package jellyfin

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/xiaozhang/xiaoblog/config"
)

// UserData carries per-user playback state for a library item.
type UserData struct {
	Played           bool    `json:"Played"`
	PlayedPercentage float64 `json:"PlayedPercentage"`
	UserRating       float64 `json:"UserRating"`
	LastPlayedDate   string  `json:"LastPlayedDate"`
}

// Studio names a production studio attached to an item.
type Studio struct {
	Name string `json:"Name"`
}

// Item is a Jellyfin library entry.
type Item struct {
	ID           string            `json:"Id"`
	Name         string            `json:"Name"`
	ProviderIDs  map[string]string `json:"ProviderIds"`
	UserData     UserData          `json:"UserData"`
	Studios      []Studio          `json:"Studios"`
	PremiereDate string            `json:"PremiereDate"`
}

// TmdbID returns the item's TMDB provider id, if any.
func (it *Item) TmdbID() (string, bool) {
	id, ok := it.ProviderIDs["Tmdb"]
	return id, ok && id != ""
}

// Client calls the Jellyfin REST API with an API token.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	http    *http.Client
}

// NewClient builds a Client from application configuration.
func NewClient(cfg config.AppConfig) *Client {
	transport := http.DefaultTransport
	if cfg.JellyfinIgnoreSSL {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		baseURL: cfg.JellyfinURL,
		apiKey:  cfg.JellyfinAPIKey,
		userID:  cfg.JellyfinUserID,
		http:    &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build jellyfin request: %w", err)
	}
	req.Header.Set("X-MediaBrowser-Token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jellyfin request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jellyfin %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode jellyfin response: %w", err)
	}
	return nil
}

// LibraryItems lists the user's library entries of the given type
// ("Movie" or "Series"), newest first.
func (c *Client) LibraryItems(ctx context.Context, itemType string) ([]Item, error) {
	params := url.Values{}
	params.Set("IncludeItemTypes", itemType)
	params.Set("Recursive", "true")
	params.Set("Fields", "ProviderIds,DateCreated,UserData,PremiereDate,Studios,Genres")
	params.Set("SortBy", "DateCreated,SortName")
	params.Set("SortOrder", "Descending")

	var payload struct {
		Items []Item `json:"Items"`
	}
	err := c.get(ctx, fmt.Sprintf("/Users/%s/Items", c.userID), params, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// ItemDetails fetches a single library item with full user data.
func (c *Client) ItemDetails(ctx context.Context, itemID string) (*Item, error) {
	var item Item
	err := c.get(ctx, fmt.Sprintf("/Users/%s/Items/%s", c.userID, itemID), nil, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
