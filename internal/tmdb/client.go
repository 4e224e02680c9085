// Package tmdb provides a small TMDb API client covering search, external
// IDs, episode naming and collection lookups.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/cinesync/internal/logging"
)

const (
	defaultAPIBase = "https://api.themoviedb.org/3"
	defaultWebBase = "https://www.themoviedb.org"
)

// MediaType selects between the movie and TV endpoint families.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// ErrEpisodeNotFound is returned when a season/episode pair does not exist
// for a show. Callers use it to trigger absolute-numbering remaps.
var ErrEpisodeNotFound = errors.New("episode not found")

// Result is a single TMDb match. Movies populate Title/ReleaseDate,
// TV shows populate Name/FirstAirDate.
type Result struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

// DisplayTitle returns the title field appropriate for the media type.
func (r Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Year returns the release/first-air year, or 0 when unknown.
func (r Result) Year() int {
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// ExternalIDs holds cross-provider identifiers for a movie or show.
type ExternalIDs struct {
	IMDbID string `json:"imdb_id"`
	TVDBID int64  `json:"tvdb_id"`
}

// Collection identifies a TMDb movie collection.
type Collection struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type movieDetailsResponse struct {
	Result
	BelongsToCollection *Collection `json:"belongs_to_collection"`
}

type episodeResponse struct {
	Name string `json:"name"`
}

type seasonResponse struct {
	Episodes []struct {
		EpisodeNumber int `json:"episode_number"`
	} `json:"episodes"`
}

// API is the metadata surface the organizer consumes. *Client implements it;
// tests substitute stubs.
type API interface {
	HasKey() bool
	Search(ctx context.Context, media MediaType, query string, year int) ([]Result, error)
	Details(ctx context.Context, media MediaType, id int64) (*Result, error)
	ExternalIDs(ctx context.Context, media MediaType, id int64) (ExternalIDs, error)
	EpisodeName(ctx context.Context, showID int64, season, episode int) (string, error)
	SeasonEpisodeCount(ctx context.Context, showID int64, season int) (int, error)
	MovieCollection(ctx context.Context, movieID int64) (*Collection, error)
	WebFallbackSearch(ctx context.Context, media MediaType, query string) (int64, error)
}

// Client talks to the TMDb v3 API. BaseURL and WebBaseURL are overridable
// for tests.
type Client struct {
	APIKey     string
	Language   string
	BaseURL    string
	WebBaseURL string
	HTTPClient *http.Client

	log     *logging.Logger
	keyWarn sync.Once
}

var _ API = (*Client)(nil)

// NewClient creates a TMDb client. An empty API key is allowed: searches
// then log a single warning and return no results, so runs degrade to
// unresolved items instead of failing.
func NewClient(apiKey, language string, log *logging.Logger) *Client {
	return &Client{
		APIKey:     strings.TrimSpace(apiKey),
		Language:   strings.TrimSpace(language),
		BaseURL:    defaultAPIBase,
		WebBaseURL: defaultWebBase,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool {
	return c.APIKey != ""
}

func (c *Client) warnMissingKey() {
	c.keyWarn.Do(func() {
		c.log.Warn("tmdb", "no API key configured, metadata lookups disabled")
	})
}

// getJSON performs a GET against the API base and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.APIKey)
	if c.Language != "" {
		params.Set("language", c.Language)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Search queries TMDb for movies or TV shows. A year of 0 means no year
// filter. With no API key configured it returns no results.
func (c *Client) Search(ctx context.Context, media MediaType, query string, year int) ([]Result, error) {
	if !c.HasKey() {
		c.warnMissingKey()
		return nil, nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		if media == MediaTV {
			params.Set("first_air_date_year", strconv.Itoa(year))
		} else {
			params.Set("primary_release_year", strconv.Itoa(year))
		}
	}

	var payload searchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/search/%s", media), params, &payload); err != nil {
		return nil, err
	}

	return payload.Results, nil
}

// Details fetches a movie or show by TMDb ID.
func (c *Client) Details(ctx context.Context, media MediaType, id int64) (*Result, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid tmdb id: %d", id)
	}

	var payload Result
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/%d", media, id), nil, &payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

// ExternalIDs fetches IMDb/TVDB identifiers for a movie or show.
func (c *Client) ExternalIDs(ctx context.Context, media MediaType, id int64) (ExternalIDs, error) {
	var payload ExternalIDs
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/%d/external_ids", media, id), nil, &payload); err != nil {
		return ExternalIDs{}, err
	}
	return payload, nil
}

// EpisodeName fetches the title of a single episode. Returns
// ErrEpisodeNotFound when the season/episode pair does not exist, which
// callers treat as a signal to remap absolute episode numbers.
func (c *Client) EpisodeName(ctx context.Context, showID int64, season, episode int) (string, error) {
	params := url.Values{}
	params.Set("api_key", c.APIKey)
	if c.Language != "" {
		params.Set("language", c.Language)
	}

	endpoint := fmt.Sprintf("%s/tv/%d/season/%d/episode/%d?%s",
		strings.TrimRight(c.BaseURL, "/"), showID, season, episode, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrEpisodeNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tmdb returned status %d for episode lookup", resp.StatusCode)
	}

	var payload episodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return payload.Name, nil
}

// SeasonEpisodeCount returns the number of episodes in a season.
func (c *Client) SeasonEpisodeCount(ctx context.Context, showID int64, season int) (int, error) {
	var payload seasonResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/tv/%d/season/%d", showID, season), nil, &payload); err != nil {
		return 0, err
	}
	return len(payload.Episodes), nil
}

// MovieCollection returns the collection a movie belongs to, or nil when
// it is not part of one.
func (c *Client) MovieCollection(ctx context.Context, movieID int64) (*Collection, error) {
	var payload movieDetailsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", movieID), nil, &payload); err != nil {
		return nil, err
	}
	return payload.BelongsToCollection, nil
}
