package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/config"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Movie is a TMDB movie search entry
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
}

// Year returns the release year, or "" when the date is unknown
func (m *Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

// Show is a TMDB TV search entry
type Show struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	FirstAirDate string `json:"first_air_date"`
	Overview     string `json:"overview"`
}

// Season is one season entry of a show's detail payload
type Season struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
}

// Episode is an upcoming episode reference
type Episode struct {
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

// ShowDetails is the full TV detail payload
type ShowDetails struct {
	Show
	Status           string   `json:"status"`
	InProduction     bool     `json:"in_production"`
	NumberOfSeasons  int      `json:"number_of_seasons"`
	Seasons          []Season `json:"seasons"`
	NextEpisodeToAir *Episode `json:"next_episode_to_air"`
}

// MovieDetails is the full movie detail payload
type MovieDetails struct {
	Movie
	Status  string `json:"status"`
	Runtime int    `json:"runtime"`
}

// Client handles TMDB API communication
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new TMDB client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB API key is required")
	}

	baseURL := cfg.TMDBBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:  cfg.TMDBAPIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// doRequest performs an authenticated GET and decodes the JSON response
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("TMDB API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.WithFields(logrus.Fields{
			"path":        path,
			"status_code": resp.StatusCode,
			"body":        string(body),
		}).Error("TMDB API returned non-OK status")
		return fmt.Errorf("TMDB API returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse TMDB response: %w", err)
	}
	return nil
}

// SearchMovie searches TMDB for movies matching the query
func (c *Client) SearchMovie(ctx context.Context, query string) ([]Movie, error) {
	params := url.Values{}
	params.Set("query", query)

	var payload struct {
		Results []Movie `json:"results"`
	}
	if err := c.doRequest(ctx, "/search/movie", params, &payload); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"count": len(payload.Results),
	}).Debug("TMDB movie search completed")
	return payload.Results, nil
}

// SearchTV searches TMDB for TV shows matching the query
func (c *Client) SearchTV(ctx context.Context, query string) ([]Show, error) {
	params := url.Values{}
	params.Set("query", query)

	var payload struct {
		Results []Show `json:"results"`
	}
	if err := c.doRequest(ctx, "/search/tv", params, &payload); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"count": len(payload.Results),
	}).Debug("TMDB TV search completed")
	return payload.Results, nil
}

// GetMovieDetails fetches the full detail payload for a movie
func (c *Client) GetMovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d", id), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetTVDetails fetches the full detail payload for a show, including the
// season list and the next episode to air when one is scheduled
func (c *Client) GetTVDetails(ctx context.Context, id int) (*ShowDetails, error) {
	var details ShowDetails
	if err := c.doRequest(ctx, fmt.Sprintf("/tv/%d", id), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetUpcomingMovies lists movies releasing within the next 30 days,
// most popular first
func (c *Client) GetUpcomingMovies(ctx context.Context, now time.Time) ([]Movie, error) {
	params := url.Values{}
	params.Set("primary_release_date.gte", now.Format("2006-01-02"))
	params.Set("primary_release_date.lte", now.AddDate(0, 0, 30).Format("2006-01-02"))
	params.Set("sort_by", "popularity.desc")

	var payload struct {
		Results []Movie `json:"results"`
	}
	if err := c.doRequest(ctx, "/discover/movie", params, &payload); err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(payload.Results)).Debug("TMDB upcoming movie discovery completed")
	return payload.Results, nil
}
