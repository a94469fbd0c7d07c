package tmdb

import "time"

// IsUpcomingMovie reports whether a release date lies in the future.
// Unknown or malformed dates count as upcoming: a movie without a
// confirmed release is not out yet.
func IsUpcomingMovie(releaseDate string, now time.Time) bool {
	if releaseDate == "" {
		return true
	}
	release, err := time.Parse("2006-01-02", releaseDate)
	if err != nil {
		return true
	}
	return release.After(now)
}

// IsInProduction reports whether a show is still producing episodes
func (d *ShowDetails) IsInProduction() bool {
	return d.InProduction || d.NextEpisodeToAir != nil
}

// LastSeason returns the highest regular season number and its episode
// count. Season 0 (specials) is skipped. Returns zeros when the payload
// carries no regular seasons.
func (d *ShowDetails) LastSeason() (int, int) {
	season, count := 0, 0
	for _, s := range d.Seasons {
		if s.SeasonNumber > season {
			season = s.SeasonNumber
			count = s.EpisodeCount
		}
	}
	return season, count
}

// StatusLabel renders a short human-readable production status
func (d *ShowDetails) StatusLabel() string {
	if d.NextEpisodeToAir != nil {
		return "airing"
	}
	if d.InProduction {
		return "in production"
	}
	if d.Status == "Ended" || d.Status == "Canceled" {
		return "ended"
	}
	return "unknown"
}
