package prowlarr

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/models"
	"github.com/qbitremote/qbitremote/internal/utils"
)

// flexInt64 tolerates numeric fields arriving as JSON numbers, strings,
// or null. Some indexers are sloppy about this.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt64(v)
	return nil
}

// rawCategory handles both the {id, name} object form and the bare
// integer form Prowlarr emits depending on the indexer.
type rawCategory struct {
	ID int `json:"id"`
}

func (rc *rawCategory) UnmarshalJSON(data []byte) error {
	var id int
	if err := json.Unmarshal(data, &id); err == nil {
		rc.ID = id
		return nil
	}
	var obj struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		rc.ID = 0
		return nil
	}
	rc.ID = obj.ID
	return nil
}

// RawResult is one entry of the Prowlarr search payload
type RawResult struct {
	GUID         string        `json:"guid"`
	Title        string        `json:"title"`
	Size         flexInt64     `json:"size"`
	Seeders      flexInt64     `json:"seeders"`
	Leechers     flexInt64     `json:"leechers"`
	Categories   []rawCategory `json:"categories"`
	DownloadURL  string        `json:"downloadUrl"`
	MagnetURL    string        `json:"magnetUrl"`
	IndexerFlags []string      `json:"indexerFlags"`
}

// Result is a filtered, enriched search result ready for display
type Result struct {
	ID          string
	Name        string
	SizeBytes   int64
	Seeders     int64
	Leechers    int64
	Category    models.Category
	Freeleech   bool
	Year        string
	Quality     string
	Resolution  string
	Codec       string
	Group       string
	MagnetLink  string
	DownloadURL string
}

// SearchPage is one page of filtered results. TotalResults and TotalPages
// always describe the full filtered set, even when the requested page is
// out of range and Results comes back empty.
type SearchPage struct {
	Results      []Result
	CurrentPage  int
	TotalPages   int
	TotalResults int
}

// Freeleech keywords, matched as plain substrings of the lowercased
// title. Deliberately eager: a false positive only decorates a result.
var freeleechSubstrings = []string{
	"freeleech", "free leech", "free-leech", "free_leech",
	"fl", "free", "0%", "0x",
}

// FilterAndPaginate runs the raw payload through the filter pipeline and
// slices out the requested 1-based page.
func (c *Client) FilterAndPaginate(raw []RawResult, page, pageSize int, existingNames []string) *SearchPage {
	existingKeys := make([]string, 0, len(existingNames))
	for _, name := range existingNames {
		existingKeys = append(existingKeys, utils.ComparisonKey(utils.ExtractTitle(name)))
	}

	var filtered []Result
	var seenKeys []string

	for _, r := range raw {
		if int64(r.Size) >= maxSizeBytes {
			c.logger.WithFields(logrus.Fields{
				"title": r.Title,
				"size":  int64(r.Size),
			}).Debug("Dropping oversized result")
			continue
		}
		if int64(r.Seeders) < minSeeders {
			continue
		}
		if c.blacklist != nil {
			if blocked, term := c.blacklist.IsBlacklisted(r.Title); blocked {
				c.logger.WithFields(logrus.Fields{
					"title": r.Title,
					"term":  term,
				}).Debug("Dropping blacklisted result")
				continue
			}
		}

		key := utils.ComparisonKey(utils.ExtractTitle(r.Title))
		if isKnown(key, existingKeys) || isKnown(key, seenKeys) {
			c.logger.WithField("title", r.Title).Debug("Dropping duplicate result")
			continue
		}
		seenKeys = append(seenKeys, key)

		filtered = append(filtered, Result{
			ID:          r.GUID,
			Name:        r.Title,
			SizeBytes:   int64(r.Size),
			Seeders:     int64(r.Seeders),
			Leechers:    int64(r.Leechers),
			Category:    mapCategory(r.Categories),
			Freeleech:   isFreeleech(r),
			Year:        utils.ExtractYear(r.Title),
			Quality:     utils.ExtractQuality(r.Title),
			Resolution:  utils.ExtractResolution(r.Title),
			Codec:       utils.ExtractCodec(r.Title),
			Group:       utils.ExtractGroup(r.Title),
			MagnetLink:  r.MagnetURL,
			DownloadURL: r.DownloadURL,
		})
	}

	return paginate(filtered, page, pageSize)
}

// isKnown reports whether key duplicates any key in the list
func isKnown(key string, keys []string) bool {
	for _, k := range keys {
		if utils.IsDuplicate(key, k) {
			return true
		}
	}
	return false
}

// mapCategory normalizes raw Prowlarr category IDs to a content label
func mapCategory(cats []rawCategory) models.Category {
	if len(cats) == 0 {
		return models.CategoryUnknown
	}
	for _, cat := range cats {
		switch cat.ID {
		case 100027:
			return models.CategoryTVBoxsets
		case 100032:
			return models.CategoryTVEpisodes
		case 2000:
			return models.CategoryMovies
		case 5000:
			return models.CategoryTV
		}
	}
	return models.CategoryOther
}

// isFreeleech checks the indexer flags first, then falls back to keyword
// sniffing in the release title.
func isFreeleech(r RawResult) bool {
	for _, flag := range r.IndexerFlags {
		if strings.EqualFold(flag, "freeleech") {
			return true
		}
	}

	lower := strings.ToLower(r.Title)
	for _, sub := range freeleechSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// paginate slices out a 1-based page. An out-of-range page yields empty
// results but keeps the true totals so callers can still render counters.
func paginate(results []Result, page, pageSize int) *SearchPage {
	total := len(results)
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	if page < 1 || page > totalPages {
		return &SearchPage{
			Results:      nil,
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalResults: total,
		}
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	return &SearchPage{
		Results:      results[start:end],
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalResults: total,
	}
}
