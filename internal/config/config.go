package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Telegram
	TelegramBotToken string
	AuthorizedUsers  []int64

	// Prowlarr
	ProwlarrBaseURL    string
	ProwlarrAPIKey     string
	ProwlarrIndexerIDs string

	// qBittorrent
	QBittorrentHost     string
	QBittorrentPort     int
	QBittorrentUsername string
	QBittorrentPassword string

	// TMDB
	TMDBAPIKey  string
	TMDBBaseURL string

	// Download paths
	MoviesDownloadPath  string
	TVShowsDownloadPath string

	// RSS feed to attach auto-download rules to; empty means use the
	// first feed qBittorrent reports.
	RSSFeedName string

	// Search
	ResultsPerPage int

	// Retention
	RetentionHours int // Hours to keep download records (default: 24)

	// Server
	ServerPort string

	// Paths
	BlacklistFile string // $CONFIG_DIR/blacklist.txt
	DatabaseFile  string // $CONFIG_DIR/qbitremote.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("PROWLARR_BASE_URL", "http://localhost:9696")
	viper.SetDefault("PROWLARR_INDEXER_IDS", "1")
	viper.SetDefault("QBITTORRENT_HOST", "localhost")
	viper.SetDefault("QBITTORRENT_PORT", 8080)
	viper.SetDefault("QBITTORRENT_USERNAME", "admin")
	viper.SetDefault("QBITTORRENT_PASSWORD", "admin")
	viper.SetDefault("RESULTS_PER_PAGE", 8)
	viper.SetDefault("RETENTION_HOURS", 24)
	viper.SetDefault("SERVER_PORT", "8081")
	viper.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "qbitremote")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	authorizedUsers, err := parseUserList(viper.GetString("AUTHORIZED_USERS"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse AUTHORIZED_USERS: %w", err)
	}

	config := &Config{
		// Telegram
		TelegramBotToken: viper.GetString("TELEGRAM_BOT_TOKEN"),
		AuthorizedUsers:  authorizedUsers,

		// Prowlarr
		ProwlarrBaseURL:    viper.GetString("PROWLARR_BASE_URL"),
		ProwlarrAPIKey:     viper.GetString("PROWLARR_API_KEY"),
		ProwlarrIndexerIDs: viper.GetString("PROWLARR_INDEXER_IDS"),

		// qBittorrent
		QBittorrentHost:     viper.GetString("QBITTORRENT_HOST"),
		QBittorrentPort:     viper.GetInt("QBITTORRENT_PORT"),
		QBittorrentUsername: viper.GetString("QBITTORRENT_USERNAME"),
		QBittorrentPassword: viper.GetString("QBITTORRENT_PASSWORD"),

		// TMDB
		TMDBAPIKey:  viper.GetString("TMDB_API_KEY"),
		TMDBBaseURL: viper.GetString("TMDB_BASE_URL"),

		// Download paths
		MoviesDownloadPath:  viper.GetString("MOVIES_DOWNLOAD_PATH"),
		TVShowsDownloadPath: viper.GetString("TVSHOWS_DOWNLOAD_PATH"),

		// RSS
		RSSFeedName: viper.GetString("RSS_FEED_NAME"),

		// Search
		ResultsPerPage: viper.GetInt("RESULTS_PER_PAGE"),

		// Retention
		RetentionHours: viper.GetInt("RETENTION_HOURS"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Paths
		BlacklistFile: filepath.Join(configDir, "blacklist.txt"),
		DatabaseFile:  filepath.Join(configDir, "qbitremote.db"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if config.ProwlarrAPIKey == "" {
		return nil, fmt.Errorf("PROWLARR_API_KEY is required")
	}
	if config.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	if len(config.AuthorizedUsers) == 0 {
		return nil, fmt.Errorf("AUTHORIZED_USERS is required")
	}
	if config.MoviesDownloadPath == "" {
		return nil, fmt.Errorf("MOVIES_DOWNLOAD_PATH is required")
	}
	if config.TVShowsDownloadPath == "" {
		return nil, fmt.Errorf("TVSHOWS_DOWNLOAD_PATH is required")
	}

	return config, nil
}

// QBittorrentBaseURL builds the qBittorrent Web API base URL
func (c *Config) QBittorrentBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.QBittorrentHost, c.QBittorrentPort)
}

// IsAuthorized reports whether a Telegram user ID is on the allow-list
func (c *Config) IsAuthorized(userID int64) bool {
	for _, id := range c.AuthorizedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// parseUserList parses a comma-separated list of Telegram user IDs
func parseUserList(raw string) ([]int64, error) {
	var users []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		users = append(users, id)
	}
	return users, nil
}
