package qbittorrent

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var seasonEpisodeRegex = regexp.MustCompile(`(?i)\bS(\d{1,2})(?:E(\d{1,2}))?\b`)

// RuleDef mirrors the qBittorrent RSS auto-download rule JSON
type RuleDef struct {
	Enabled                   bool     `json:"enabled"`
	MustContain               string   `json:"mustContain"`
	MustNotContain            string   `json:"mustNotContain"`
	UseRegex                  bool     `json:"useRegex"`
	EpisodeFilter             string   `json:"episodeFilter"`
	SmartFilter               bool     `json:"smartFilter"`
	PreviouslyMatchedEpisodes []string `json:"previouslyMatchedEpisodes"`
	AffectedFeeds             []string `json:"affectedFeeds"`
	IgnoreDays                int      `json:"ignoreDays"`
	LastMatch                 string   `json:"lastMatch"`
	AddPaused                 bool     `json:"addPaused"`
	AssignedCategory          string   `json:"assignedCategory"`
	SavePath                  string   `json:"savePath"`
}

// Rule pairs a rule name with its definition
type Rule struct {
	Name string
	Def  RuleDef
}

// SeasonEpisode is an optional season/episode reference parsed from a
// query string. Episode 0 means the query named a season only.
type SeasonEpisode struct {
	Season  int
	Episode int
}

// ParseSeasonEpisode finds the first SxxEyy or Sxx token in a query
func ParseSeasonEpisode(query string) *SeasonEpisode {
	m := seasonEpisodeRegex.FindStringSubmatch(query)
	if m == nil {
		return nil
	}

	season, _ := strconv.Atoi(m[1])
	se := &SeasonEpisode{Season: season}
	if m[2] != "" {
		se.Episode, _ = strconv.Atoi(m[2])
	}
	return se
}

// StripSeasonEpisode removes the SxxEyy token from a query so the bare
// title can be matched against metadata lookups
func StripSeasonEpisode(query string) string {
	cleaned := seasonEpisodeRegex.ReplaceAllString(query, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// EscapeTitle turns a plain title into a regex fragment: runs of spaces
// become \s+ and regex metacharacters are escaped literally.
func EscapeTitle(title string) string {
	parts := strings.Fields(title)
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return strings.Join(parts, `\s+`)
}

// MovieRule builds the auto-download rule for a movie. Year may be
// empty. ignoreDays 365 suppresses re-matching for upcoming releases
// added long before their actual availability.
func MovieRule(title, year, quality, savePath string, feeds []string, upcoming bool) RuleDef {
	pattern := EscapeTitle(title)
	if year != "" {
		pattern += `.*` + regexp.QuoteMeta(year)
	}
	pattern += `.*` + regexp.QuoteMeta(quality)

	ignoreDays := 0
	if upcoming {
		ignoreDays = 365
	}

	return RuleDef{
		Enabled:                   true,
		MustContain:               pattern,
		UseRegex:                  true,
		SmartFilter:               false,
		PreviouslyMatchedEpisodes: []string{},
		AffectedFeeds:             feeds,
		IgnoreDays:                ignoreDays,
		AssignedCategory:          "movies",
		SavePath:                  savePath,
	}
}

// TVRule builds the auto-download rule for a TV show. The episode filter
// narrows matching to the referenced episode, the referenced season, or
// season 1 when the query named neither.
func TVRule(title, quality, savePath string, feeds []string, se *SeasonEpisode) RuleDef {
	pattern := EscapeTitle(title) + `.*` + regexp.QuoteMeta(quality)

	var filter string
	switch {
	case se != nil && se.Episode > 0:
		pattern = EscapeTitle(title) +
			fmt.Sprintf(`.*S%02dE%02d`, se.Season, se.Episode) +
			`.*` + regexp.QuoteMeta(quality)
		filter = fmt.Sprintf("%dx%02d;", se.Season, se.Episode)
	case se != nil:
		pattern = EscapeTitle(title) +
			fmt.Sprintf(`.*S%02d`, se.Season) +
			`.*` + regexp.QuoteMeta(quality)
		filter = fmt.Sprintf("%dx01-99;", se.Season)
	default:
		filter = "1x01-99;"
	}

	return RuleDef{
		Enabled:                   true,
		MustContain:               pattern,
		UseRegex:                  true,
		EpisodeFilter:             filter,
		SmartFilter:               true,
		PreviouslyMatchedEpisodes: []string{},
		AffectedFeeds:             feeds,
		AssignedCategory:          "tv",
		SavePath:                  savePath,
	}
}

// TVRuleForSeason builds a rule scoped to one season with a known
// episode count, as reported by the metadata provider. A zero count
// falls back to the open 01-99 window.
func TVRuleForSeason(title, quality, savePath string, feeds []string, season, episodeCount int) RuleDef {
	rule := TVRule(title, quality, savePath, feeds, &SeasonEpisode{Season: season})
	if episodeCount > 0 {
		rule.EpisodeFilter = fmt.Sprintf("%dx01-%02d;", season, episodeCount)
	}
	return rule
}

// RuleName builds the canonical rule name for a title/quality pair. A
// season or episode reference is folded into the name so rules scoped
// to different parts of the same show stay distinct.
func RuleName(title, quality string, se *SeasonEpisode) string {
	name := "Auto_" + strings.Join(strings.Fields(title), "_") + "_" + quality
	switch {
	case se != nil && se.Episode > 0:
		name += fmt.Sprintf("_S%02dE%02d", se.Season, se.Episode)
	case se != nil:
		name += fmt.Sprintf("_S%02d", se.Season)
	}
	return name
}

// Rules fetches all auto-download rules, normalized to a slice sorted by
// name. The API returns a JSON object keyed by rule name, which loses
// ordering; sorting keeps the listing stable across calls.
func (c *Client) Rules() ([]Rule, error) {
	body, err := c.doGet("/api/v2/rss/rules", nil)
	if err != nil {
		return nil, err
	}

	var ruleMap map[string]RuleDef
	if err := json.Unmarshal(body, &ruleMap); err != nil {
		return nil, fmt.Errorf("failed to parse rule list: %w", err)
	}

	rules := make([]Rule, 0, len(ruleMap))
	for name, def := range ruleMap {
		rules = append(rules, Rule{Name: name, Def: def})
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Name < rules[j].Name
	})
	return rules, nil
}

// FindRuleByTitle reports the first existing rule whose name contains
// the title, case-insensitively and independent of quality. Used for
// collision detection before creating a rule.
func (c *Client) FindRuleByTitle(title string) (*Rule, error) {
	rules, err := c.Rules()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.Join(strings.Fields(title), "_"))
	if needle == "" {
		return nil, nil
	}

	for i := range rules {
		if strings.Contains(strings.ToLower(rules[i].Name), needle) {
			return &rules[i], nil
		}
	}
	return nil, nil
}

// SetRule creates or replaces an auto-download rule
func (c *Client) SetRule(name string, def RuleDef) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode rule: %w", err)
	}

	form := url.Values{}
	form.Set("ruleName", name)
	form.Set("ruleDef", string(payload))

	if err := c.doPost("/api/v2/rss/setRule", form); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"rule":  name,
		"feeds": len(def.AffectedFeeds),
	}).Info("RSS rule saved")
	return nil
}

// RemoveRule deletes an auto-download rule
func (c *Client) RemoveRule(name string) error {
	form := url.Values{}
	form.Set("ruleName", name)

	if err := c.doPost("/api/v2/rss/removeRule", form); err != nil {
		return err
	}

	c.logger.WithField("rule", name).Info("RSS rule removed")
	return nil
}

// FeedURLs resolves the feed URLs a new rule should attach to. The
// configured feed name wins when it exists; otherwise the first feed
// qBittorrent reports is used. No feeds at all yields an empty list,
// which qBittorrent accepts as a rule matching nothing yet.
func (c *Client) FeedURLs(preferredName string) ([]string, error) {
	body, err := c.doGet("/api/v2/rss/items", url.Values{"withData": {"false"}})
	if err != nil {
		return nil, err
	}

	var feeds map[string]struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &feeds); err != nil {
		return nil, fmt.Errorf("failed to parse feed list: %w", err)
	}

	if preferredName != "" {
		if feed, ok := feeds[preferredName]; ok && feed.URL != "" {
			return []string{feed.URL}, nil
		}
		c.logger.WithField("feed", preferredName).Warn("Configured RSS feed not found, falling back")
	}

	names := make([]string, 0, len(feeds))
	for name := range feeds {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if feeds[name].URL != "" {
			return []string{feeds[name].URL}, nil
		}
	}

	c.logger.Warn("No RSS feeds configured in qBittorrent, rule will have no feeds")
	return []string{}, nil
}
