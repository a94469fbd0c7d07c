package qbittorrent

import (
	"path"
	"regexp"
	"strings"

	"github.com/qbitremote/qbitremote/internal/config"
	"github.com/qbitremote/qbitremote/internal/models"
)

var unsafePathChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// CleanTitleForPath strips filesystem-unsafe characters from a title so
// it can be used as a directory name
func CleanTitleForPath(title string) string {
	cleaned := unsafePathChars.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// DownloadPath builds the save path for a download: the configured
// movies or TV root plus a per-title directory
func DownloadPath(cfg *config.Config, category models.Category, title string) string {
	root := cfg.MoviesDownloadPath
	if category.IsTV() {
		root = cfg.TVShowsDownloadPath
	}

	dir := CleanTitleForPath(title)
	if dir == "" {
		return root
	}
	return path.Join(root, dir)
}
