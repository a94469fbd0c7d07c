package prowlarr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/config"
	"github.com/qbitremote/qbitremote/internal/models"
	"github.com/qbitremote/qbitremote/internal/utils"
)

// Hard ceiling against mislabeled entries
const maxSizeBytes = int64(150) * 1024 * 1024 * 1024

const minSeeders = 1

// Results requested from the API per search; filtering happens locally,
// so over-fetch to keep pagination meaningful.
const apiLimit = 50

// Prowlarr category IDs per content type
var (
	movieCategories     = []int{2000, 2010, 2030, 2040, 2045, 2050, 2070, 2080}
	tvEpisodeCategories = []int{100032}
	tvBoxsetCategories  = []int{100027}
)

// Client wraps direct Prowlarr API HTTP calls
type Client struct {
	baseURL    string
	apiKey     string
	indexerIDs string
	pageSize   int
	blacklist  *utils.Blacklist
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new Prowlarr client with direct HTTP calls
func NewClient(cfg *config.Config, blacklist *utils.Blacklist, logger *logrus.Logger) (*Client, error) {
	if cfg.ProwlarrBaseURL == "" {
		return nil, fmt.Errorf("prowlarr URL is required")
	}
	if cfg.ProwlarrAPIKey == "" {
		return nil, fmt.Errorf("prowlarr API key is required")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.ProwlarrBaseURL, "/"),
		apiKey:     cfg.ProwlarrAPIKey,
		indexerIDs: cfg.ProwlarrIndexerIDs,
		pageSize:   cfg.ResultsPerPage,
		blacklist:  blacklist,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// Search queries the indexer aggregator and runs the raw payload through
// the filter/dedup/pagination pipeline. existingNames are the raw names of
// torrents already known to the download client.
func (c *Client) Search(query string, category models.Category, page int, existingNames []string) (*SearchPage, error) {
	searchURL, err := url.Parse(c.baseURL + "/api/v1/search")
	if err != nil {
		return nil, fmt.Errorf("invalid prowlarr URL: %w", err)
	}

	params := url.Values{}
	params.Add("query", query)
	params.Add("indexerIds", c.indexerIDs)
	params.Add("limit", fmt.Sprintf("%d", apiLimit))
	// Always fetch from offset 0; pagination is applied after filtering
	params.Add("offset", "0")
	params.Add("type", "search")
	for _, id := range categoryIDs(category) {
		params.Add("categories", fmt.Sprintf("%d", id))
	}
	searchURL.RawQuery = params.Encode()

	c.logger.WithFields(logrus.Fields{
		"query":    query,
		"category": category,
		"page":     page,
	}).Debug("Performing Prowlarr search")

	req, err := http.NewRequest("GET", searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prowlarr API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"body":        string(body),
		}).Error("Prowlarr API returned non-OK status")
		return nil, fmt.Errorf("prowlarr API returned status %d", resp.StatusCode)
	}

	var rawResults []RawResult
	if err := json.NewDecoder(resp.Body).Decode(&rawResults); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	c.logger.WithField("count", len(rawResults)).Debug("Prowlarr search completed")

	return c.FilterAndPaginate(rawResults, page, c.pageSize, existingNames), nil
}

// categoryIDs maps a category label to the Prowlarr category ID list
func categoryIDs(category models.Category) []int {
	switch category {
	case models.CategoryMovies:
		return movieCategories
	case models.CategoryTVEpisodes:
		return tvEpisodeCategories
	case models.CategoryTVBoxsets:
		return tvBoxsetCategories
	default:
		return nil
	}
}
