package qbittorrent

import "testing"

func TestParseSeasonEpisode(t *testing.T) {
	cases := []struct {
		query string
		want  *SeasonEpisode
	}{
		{"Breaking Show S03E05", &SeasonEpisode{Season: 3, Episode: 5}},
		{"Breaking Show s3e5", &SeasonEpisode{Season: 3, Episode: 5}},
		{"Breaking Show S02", &SeasonEpisode{Season: 2}},
		{"Breaking Show", nil},
		{"Superman 2025", nil},
	}

	for _, tc := range cases {
		got := ParseSeasonEpisode(tc.query)
		if (got == nil) != (tc.want == nil) {
			t.Errorf("ParseSeasonEpisode(%q) = %+v, want %+v", tc.query, got, tc.want)
			continue
		}
		if got != nil && (got.Season != tc.want.Season || got.Episode != tc.want.Episode) {
			t.Errorf("ParseSeasonEpisode(%q) = %+v, want %+v", tc.query, got, tc.want)
		}
	}
}

func TestStripSeasonEpisode(t *testing.T) {
	if got := StripSeasonEpisode("Breaking Show S03E05"); got != "Breaking Show" {
		t.Errorf("expected bare title, got %q", got)
	}
	if got := StripSeasonEpisode("Breaking Show"); got != "Breaking Show" {
		t.Errorf("token-free query must pass through, got %q", got)
	}
}

func TestEscapeTitle(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"The Matrix", `The\s+Matrix`},
		{"Mission Impossible (2025)", `Mission\s+Impossible\s+\(2025\)`},
		{"Plain", "Plain"},
	}

	for _, tc := range cases {
		if got := EscapeTitle(tc.title); got != tc.want {
			t.Errorf("EscapeTitle(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestMovieRule(t *testing.T) {
	rule := MovieRule("The Matrix", "1999", "1080p", "/movies/The Matrix", []string{"http://feed"}, false)

	if rule.MustContain != `The\s+Matrix.*1999.*1080p` {
		t.Errorf("unexpected pattern: %q", rule.MustContain)
	}
	if !rule.UseRegex || !rule.Enabled {
		t.Error("rule must be enabled with regex matching")
	}
	if rule.SmartFilter {
		t.Error("movie rules must not use the smart episode filter")
	}
	if rule.IgnoreDays != 0 {
		t.Errorf("released movie must have ignoreDays 0, got %d", rule.IgnoreDays)
	}
	if rule.SavePath != "/movies/The Matrix" {
		t.Errorf("unexpected save path: %q", rule.SavePath)
	}
	if rule.AssignedCategory != "movies" {
		t.Errorf("unexpected category: %q", rule.AssignedCategory)
	}
}

func TestMovieRuleUpcoming(t *testing.T) {
	rule := MovieRule("Future Film", "", "2160p", "/movies/Future Film", nil, true)

	if rule.MustContain != `Future\s+Film.*2160p` {
		t.Errorf("unexpected pattern without year: %q", rule.MustContain)
	}
	if rule.IgnoreDays != 365 {
		t.Errorf("upcoming movie must have ignoreDays 365, got %d", rule.IgnoreDays)
	}
}

func TestTVRuleWithEpisode(t *testing.T) {
	se := &SeasonEpisode{Season: 3, Episode: 5}
	rule := TVRule("Breaking Show", "1080p", "/tv/Breaking Show", nil, se)

	if rule.MustContain != `Breaking\s+Show.*S03E05.*1080p` {
		t.Errorf("unexpected pattern: %q", rule.MustContain)
	}
	if rule.EpisodeFilter != "3x05;" {
		t.Errorf("unexpected episode filter: %q", rule.EpisodeFilter)
	}
	if !rule.SmartFilter {
		t.Error("TV rules must use the smart episode filter")
	}
}

func TestTVRuleSeasonOnly(t *testing.T) {
	rule := TVRule("Breaking Show", "1080p", "/tv/Breaking Show", nil, &SeasonEpisode{Season: 2})

	if rule.EpisodeFilter != "2x01-99;" {
		t.Errorf("unexpected episode filter: %q", rule.EpisodeFilter)
	}
	if rule.MustContain != `Breaking\s+Show.*S02.*1080p` {
		t.Errorf("unexpected pattern: %q", rule.MustContain)
	}
	if rule.AssignedCategory != "tv" {
		t.Errorf("unexpected category: %q", rule.AssignedCategory)
	}
}

func TestTVRuleNoReference(t *testing.T) {
	rule := TVRule("Breaking Show", "720p", "/tv/Breaking Show", nil, nil)

	if rule.EpisodeFilter != "1x01-99;" {
		t.Errorf("unexpected episode filter: %q", rule.EpisodeFilter)
	}
}

func TestTVRuleForSeason(t *testing.T) {
	rule := TVRuleForSeason("Breaking Show", "1080p", "/tv/Breaking Show", nil, 4, 10)
	if rule.EpisodeFilter != "4x01-10;" {
		t.Errorf("unexpected episode filter: %q", rule.EpisodeFilter)
	}

	// Unknown episode count keeps the open window
	open := TVRuleForSeason("Breaking Show", "1080p", "/tv/Breaking Show", nil, 4, 0)
	if open.EpisodeFilter != "4x01-99;" {
		t.Errorf("unexpected fallback filter: %q", open.EpisodeFilter)
	}
}

func TestRuleName(t *testing.T) {
	if got := RuleName("The Matrix", "1080p", nil); got != "Auto_The_Matrix_1080p" {
		t.Errorf("unexpected rule name: %q", got)
	}

	se := &SeasonEpisode{Season: 3, Episode: 5}
	if got := RuleName("Breaking Show", "720p", se); got != "Auto_Breaking_Show_720p_S03E05" {
		t.Errorf("unexpected rule name: %q", got)
	}

	// Season-only references carry a season suffix so season-scoped
	// rules for the same show do not collide with each other
	if got := RuleName("Breaking Show", "720p", &SeasonEpisode{Season: 3}); got != "Auto_Breaking_Show_720p_S03" {
		t.Errorf("unexpected rule name: %q", got)
	}
}

func TestExtractHash(t *testing.T) {
	magnet := "magnet:?xt=urn:btih:C12FE1C06BB254907E355B8B655A1C1017C64CEB&dn=test"
	if got := ExtractHash(magnet); got != "c12fe1c06bb254907e355b8b655a1c1017c64ceb" {
		t.Errorf("unexpected hash: %q", got)
	}
	if got := ExtractHash("magnet:?dn=no-hash-here"); got != "" {
		t.Errorf("expected empty hash, got %q", got)
	}
}
