package tmdb

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func TestIsUpcomingMovie(t *testing.T) {
	cases := []struct {
		releaseDate string
		want        bool
	}{
		{"2026-12-25", true},
		{"2020-01-01", false},
		{"2026-08-01", false}, // releases today are out
		{"", true},
		{"not-a-date", true},
	}

	for _, tc := range cases {
		if got := IsUpcomingMovie(tc.releaseDate, testNow); got != tc.want {
			t.Errorf("IsUpcomingMovie(%q) = %v, want %v", tc.releaseDate, got, tc.want)
		}
	}
}

func TestIsInProduction(t *testing.T) {
	ended := &ShowDetails{Status: "Ended"}
	if ended.IsInProduction() {
		t.Error("ended show reported as in production")
	}

	airing := &ShowDetails{NextEpisodeToAir: &Episode{SeasonNumber: 3, EpisodeNumber: 1}}
	if !airing.IsInProduction() {
		t.Error("show with a scheduled episode must count as in production")
	}

	producing := &ShowDetails{InProduction: true}
	if !producing.IsInProduction() {
		t.Error("in_production flag ignored")
	}
}

func TestLastSeason(t *testing.T) {
	d := &ShowDetails{Seasons: []Season{
		{SeasonNumber: 0, EpisodeCount: 3}, // specials
		{SeasonNumber: 1, EpisodeCount: 10},
		{SeasonNumber: 2, EpisodeCount: 8},
	}}

	season, count := d.LastSeason()
	if season != 2 || count != 8 {
		t.Errorf("LastSeason() = (%d, %d), want (2, 8)", season, count)
	}

	empty := &ShowDetails{}
	if season, count := empty.LastSeason(); season != 0 || count != 0 {
		t.Errorf("empty payload must yield zeros, got (%d, %d)", season, count)
	}
}

func TestStatusLabel(t *testing.T) {
	cases := []struct {
		details *ShowDetails
		want    string
	}{
		{&ShowDetails{NextEpisodeToAir: &Episode{}}, "airing"},
		{&ShowDetails{InProduction: true}, "in production"},
		{&ShowDetails{Status: "Ended"}, "ended"},
		{&ShowDetails{Status: "Canceled"}, "ended"},
		{&ShowDetails{}, "unknown"},
	}

	for _, tc := range cases {
		if got := tc.details.StatusLabel(); got != tc.want {
			t.Errorf("StatusLabel() = %q, want %q", got, tc.want)
		}
	}
}

func TestMovieYear(t *testing.T) {
	m := &Movie{ReleaseDate: "1999-03-31"}
	if got := m.Year(); got != "1999" {
		t.Errorf("Year() = %q, want 1999", got)
	}
	undated := &Movie{}
	if got := undated.Year(); got != "" {
		t.Errorf("expected empty year, got %q", got)
	}
}
