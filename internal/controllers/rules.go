package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/config"
	"github.com/qbitremote/qbitremote/internal/models"
	"github.com/qbitremote/qbitremote/internal/services/qbittorrent"
	"github.com/qbitremote/qbitremote/internal/services/tmdb"
)

// RuleOutcome reports what happened to a rule creation request. A
// collision carries the existing rule so the caller can offer an
// explicit replace.
type RuleOutcome struct {
	Created  bool
	RuleName string
	Existing *qbittorrent.Rule

	// Metadata shown alongside the confirmation
	Detail string
}

// RuleController synthesizes RSS auto-download rules from metadata
type RuleController struct {
	qbClient   *qbittorrent.Client
	tmdbClient *tmdb.Client
	cfg        *config.Config
	logger     *logrus.Logger
}

// NewRuleController creates a new rule controller
func NewRuleController(qbClient *qbittorrent.Client, tmdbClient *tmdb.Client, cfg *config.Config, logger *logrus.Logger) *RuleController {
	return &RuleController{
		qbClient:   qbClient,
		tmdbClient: tmdbClient,
		cfg:        cfg,
		logger:     logger,
	}
}

// CreateMovieRule creates an auto-download rule for a movie. A rule
// whose name already references the title, whatever its quality, counts
// as a collision and nothing is written.
func (c *RuleController) CreateMovieRule(ctx context.Context, title, quality string) (*RuleOutcome, error) {
	existing, err := c.qbClient.FindRuleByTitle(title)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing rules: %w", err)
	}
	if existing != nil {
		return &RuleOutcome{RuleName: existing.Name, Existing: existing}, nil
	}
	return c.writeMovieRule(ctx, title, quality)
}

// ReplaceMovieRule removes a colliding rule and creates the new one
func (c *RuleController) ReplaceMovieRule(ctx context.Context, existingName, title, quality string) (*RuleOutcome, error) {
	if err := c.qbClient.RemoveRule(existingName); err != nil {
		return nil, fmt.Errorf("failed to remove existing rule: %w", err)
	}
	return c.writeMovieRule(ctx, title, quality)
}

func (c *RuleController) writeMovieRule(ctx context.Context, title, quality string) (*RuleOutcome, error) {
	year := ""
	upcoming := false
	detail := "release date unknown"

	movies, err := c.tmdbClient.SearchMovie(ctx, title)
	if err != nil {
		c.logger.WithError(err).Warn("Movie metadata lookup failed, building rule without it")
	} else if len(movies) > 0 {
		year = movies[0].Year()
		upcoming = tmdb.IsUpcomingMovie(movies[0].ReleaseDate, time.Now())
		if upcoming {
			detail = fmt.Sprintf("upcoming (releases %s)", movies[0].ReleaseDate)
		} else {
			detail = fmt.Sprintf("released %s", movies[0].ReleaseDate)
		}
	}

	feeds := c.resolveFeeds()

	savePath := qbittorrent.DownloadPath(c.cfg, models.CategoryMovies, title)
	name := qbittorrent.RuleName(title, quality, nil)
	rule := qbittorrent.MovieRule(title, year, quality, savePath, feeds, upcoming)

	if err := c.qbClient.SetRule(name, rule); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"rule":     name,
		"upcoming": upcoming,
	}).Info("Movie rule created")

	return &RuleOutcome{Created: true, RuleName: name, Detail: detail}, nil
}

// CreateTVRule creates an auto-download rule for a TV show. The query
// may carry an SxxEyy or Sxx reference; without one, show metadata
// decides between the current season of an in-production show and a
// season 1 catch-all.
func (c *RuleController) CreateTVRule(ctx context.Context, query, quality string) (*RuleOutcome, error) {
	title := qbittorrent.StripSeasonEpisode(query)

	existing, err := c.qbClient.FindRuleByTitle(title)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing rules: %w", err)
	}
	if existing != nil {
		return &RuleOutcome{RuleName: existing.Name, Existing: existing}, nil
	}
	return c.writeTVRule(ctx, query, quality)
}

// ReplaceTVRule removes a colliding rule and creates the new one
func (c *RuleController) ReplaceTVRule(ctx context.Context, existingName, query, quality string) (*RuleOutcome, error) {
	if err := c.qbClient.RemoveRule(existingName); err != nil {
		return nil, fmt.Errorf("failed to remove existing rule: %w", err)
	}
	return c.writeTVRule(ctx, query, quality)
}

func (c *RuleController) writeTVRule(ctx context.Context, query, quality string) (*RuleOutcome, error) {
	se := qbittorrent.ParseSeasonEpisode(query)
	title := qbittorrent.StripSeasonEpisode(query)

	feeds := c.resolveFeeds()

	savePath := qbittorrent.DownloadPath(c.cfg, models.CategoryTV, title)
	name := qbittorrent.RuleName(title, quality, se)

	var rule qbittorrent.RuleDef
	detail := "matching all episodes"

	switch {
	case se != nil && se.Episode > 0:
		rule = qbittorrent.TVRule(title, quality, savePath, feeds, se)
		detail = fmt.Sprintf("matching S%02dE%02d only", se.Season, se.Episode)
	case se != nil:
		rule = qbittorrent.TVRule(title, quality, savePath, feeds, se)
		detail = fmt.Sprintf("matching season %d", se.Season)
	default:
		rule, detail = c.seasonScopedRule(ctx, title, quality, savePath, feeds)
	}

	if err := c.qbClient.SetRule(name, rule); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"rule":   name,
		"filter": rule.EpisodeFilter,
	}).Info("TV rule created")

	return &RuleOutcome{Created: true, RuleName: name, Detail: detail}, nil
}

// seasonScopedRule consults show metadata to scope a reference-free rule.
// An in-production show gets its latest season with the real episode
// count; anything else falls back to the season 1 catch-all.
func (c *RuleController) seasonScopedRule(ctx context.Context, title, quality, savePath string, feeds []string) (qbittorrent.RuleDef, string) {
	shows, err := c.tmdbClient.SearchTV(ctx, title)
	if err != nil || len(shows) == 0 {
		if err != nil {
			c.logger.WithError(err).Warn("Show metadata lookup failed, building catch-all rule")
		}
		return qbittorrent.TVRule(title, quality, savePath, feeds, nil), "matching all episodes"
	}

	details, err := c.tmdbClient.GetTVDetails(ctx, shows[0].ID)
	if err != nil {
		c.logger.WithError(err).Warn("Show detail lookup failed, building catch-all rule")
		return qbittorrent.TVRule(title, quality, savePath, feeds, nil), "matching all episodes"
	}

	if !details.IsInProduction() {
		return qbittorrent.TVRule(title, quality, savePath, feeds, nil),
			fmt.Sprintf("show is %s, matching all episodes", details.StatusLabel())
	}

	season, count := details.LastSeason()
	if season == 0 {
		return qbittorrent.TVRule(title, quality, savePath, feeds, nil), "matching all episodes"
	}

	detail := fmt.Sprintf("show is %s, matching season %d", details.StatusLabel(), season)
	return qbittorrent.TVRuleForSeason(title, quality, savePath, feeds, season, count), detail
}

// resolveFeeds looks up the feed URLs a new rule should attach to. A
// failed lookup degrades to no feed assignment: the rule is still
// created and starts firing once feeds are attached.
func (c *RuleController) resolveFeeds() []string {
	feeds, err := c.qbClient.FeedURLs(c.cfg.RSSFeedName)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to resolve RSS feeds, creating rule without feed assignment")
		return []string{}
	}
	return feeds
}

// UpcomingMovies lists movies releasing within the next 30 days
func (c *RuleController) UpcomingMovies(ctx context.Context) ([]tmdb.Movie, error) {
	return c.tmdbClient.GetUpcomingMovies(ctx, time.Now())
}

// ListRules returns all auto-download rules, sorted by name
func (c *RuleController) ListRules() ([]qbittorrent.Rule, error) {
	return c.qbClient.Rules()
}

// DeleteRule removes an auto-download rule by name
func (c *RuleController) DeleteRule(name string) error {
	return c.qbClient.RemoveRule(name)
}
