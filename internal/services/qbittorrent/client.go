package qbittorrent

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/config"
	"github.com/qbitremote/qbitremote/internal/utils"
)

var btihRegex = regexp.MustCompile(`(?i)urn:btih:([a-f0-9]{40})`)

// Torrent is one entry of the torrents/info payload
type Torrent struct {
	Hash     string  `json:"hash"`
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Progress float64 `json:"progress"`
	State    string  `json:"state"`
	SavePath string  `json:"save_path"`
	Category string  `json:"category"`
}

// IsComplete reports whether the torrent has finished downloading
func (t *Torrent) IsComplete() bool {
	return t.Progress >= 1.0
}

// TransferStats is the transfer/info payload
type TransferStats struct {
	DownloadSpeed int64  `json:"dl_info_speed"`
	UploadSpeed   int64  `json:"up_info_speed"`
	Connection    string `json:"connection_status"`
}

// Client wraps the qBittorrent Web API v2. Authentication is cookie based;
// the session cookie lives in the jar and login is retried on expiry.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a qBittorrent client and verifies credentials
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := &Client{
		baseURL:  cfg.QBittorrentBaseURL(),
		username: cfg.QBittorrentUsername,
		password: cfg.QBittorrentPassword,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}

	if err := client.login(); err != nil {
		return nil, fmt.Errorf("qbittorrent login failed: %w", err)
	}

	return client, nil
}

// login authenticates against the Web API and stores the session cookie
func (c *Client) login() error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	resp, err := c.httpClient.PostForm(c.baseURL+"/api/v2/auth/login", form)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	// The API answers 200 with a body of "Fails." on bad credentials
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "Ok." {
		return fmt.Errorf("login rejected (status %d, body %q)", resp.StatusCode, string(body))
	}

	c.logger.Debug("qBittorrent login successful")
	return nil
}

// doGet performs an authenticated GET, re-logging in once on a 403
func (c *Client) doGet(path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	for attempt := 0; attempt < 2; attempt++ {
		resp, err := c.httpClient.Get(endpoint)
		if err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", path, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
		}

		if resp.StatusCode == http.StatusForbidden && attempt == 0 {
			c.logger.Debug("Session expired, re-authenticating")
			if err := c.login(); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode)
		}

		return body, nil
	}

	return nil, fmt.Errorf("%s failed after re-authentication", path)
}

// doPost performs an authenticated form POST, re-logging in once on a 403
func (c *Client) doPost(path string, form url.Values) error {
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := c.httpClient.PostForm(c.baseURL+path, form)
		if err != nil {
			return fmt.Errorf("request to %s failed: %w", path, err)
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden && attempt == 0 {
			c.logger.Debug("Session expired, re-authenticating")
			if err := c.login(); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s returned status %d (body %q)", path, resp.StatusCode, string(body))
		}

		return nil
	}

	return fmt.Errorf("%s failed after re-authentication", path)
}

// ListTorrents returns every torrent the client knows about
func (c *Client) ListTorrents() ([]Torrent, error) {
	body, err := c.doGet("/api/v2/torrents/info", nil)
	if err != nil {
		return nil, err
	}

	var torrents []Torrent
	if err := json.Unmarshal(body, &torrents); err != nil {
		return nil, fmt.Errorf("failed to parse torrent list: %w", err)
	}
	return torrents, nil
}

// TorrentNames returns the raw names of all known torrents
func (c *Client) TorrentNames() ([]string, error) {
	torrents, err := c.ListTorrents()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(torrents))
	for _, t := range torrents {
		names = append(names, t.Name)
	}
	return names, nil
}

// AddMagnet adds a magnet link with an explicit save path and category,
// returning the info hash parsed out of the URI, or "" when the link
// has none.
func (c *Client) AddMagnet(magnetLink, savePath, category string) (string, error) {
	form := url.Values{}
	form.Set("urls", magnetLink)
	form.Set("savepath", savePath)
	if category != "" {
		form.Set("category", category)
	}

	if err := c.doPost("/api/v2/torrents/add", form); err != nil {
		return "", err
	}

	c.logger.WithField("save_path", savePath).Info("Magnet added to qBittorrent")
	return ExtractHash(magnetLink), nil
}

// ExtractHash pulls the lowercased btih info hash out of a magnet URI
func ExtractHash(magnetLink string) string {
	if m := btihRegex.FindStringSubmatch(magnetLink); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// FindTorrentByHash looks a torrent up by its info hash
func (c *Client) FindTorrentByHash(hash string) (*Torrent, error) {
	if hash == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("hashes", hash)

	body, err := c.doGet("/api/v2/torrents/info", params)
	if err != nil {
		return nil, err
	}

	var torrents []Torrent
	if err := json.Unmarshal(body, &torrents); err != nil {
		return nil, fmt.Errorf("failed to parse torrent list: %w", err)
	}
	if len(torrents) == 0 {
		return nil, nil
	}
	return &torrents[0], nil
}

// FindTorrentByName matches a recorded title against the live torrent
// list using normalized-title containment. Used when a download was
// added without a parseable info hash.
func (c *Client) FindTorrentByName(title string) (*Torrent, error) {
	torrents, err := c.ListTorrents()
	if err != nil {
		return nil, err
	}

	key := utils.ComparisonKey(utils.ExtractTitle(title))
	for i := range torrents {
		candidate := utils.ComparisonKey(utils.ExtractTitle(torrents[i].Name))
		if utils.IsDuplicate(key, candidate) {
			return &torrents[i], nil
		}
	}
	return nil, nil
}

// TransferInfo returns global transfer statistics
func (c *Client) TransferInfo() (*TransferStats, error) {
	body, err := c.doGet("/api/v2/transfer/info", nil)
	if err != nil {
		return nil, err
	}

	var stats TransferStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse transfer info: %w", err)
	}
	return &stats, nil
}
