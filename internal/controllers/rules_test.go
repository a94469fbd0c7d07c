package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/config"
	"github.com/qbitremote/qbitremote/internal/services/qbittorrent"
	"github.com/qbitremote/qbitremote/internal/services/tmdb"
)

// fakeQBittorrent serves just enough of the Web API for rule creation
// and records every setRule call it receives.
type fakeQBittorrent struct {
	srv      *httptest.Server
	setRules map[string]qbittorrent.RuleDef
	feedsErr bool
}

func newFakeQBittorrent(t *testing.T) *fakeQBittorrent {
	t.Helper()
	f := &fakeQBittorrent{setRules: make(map[string]qbittorrent.RuleDef)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Ok.")
	})
	mux.HandleFunc("/api/v2/rss/rules", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/api/v2/rss/items", func(w http.ResponseWriter, r *http.Request) {
		if f.feedsErr {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"Main": {"url": "http://indexer/main"}}`)
	})
	mux.HandleFunc("/api/v2/rss/setRule", func(w http.ResponseWriter, r *http.Request) {
		var def qbittorrent.RuleDef
		if err := json.Unmarshal([]byte(r.FormValue("ruleDef")), &def); err != nil {
			t.Errorf("setRule received unparseable ruleDef: %v", err)
		}
		f.setRules[r.FormValue("ruleName")] = def
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestRuleController(t *testing.T, qb *fakeQBittorrent) *RuleController {
	t.Helper()

	tmdbSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": []}`)
	}))
	t.Cleanup(tmdbSrv.Close)

	u, err := url.Parse(qb.srv.URL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("failed to parse server port: %v", err)
	}

	cfg := &config.Config{
		QBittorrentHost:     u.Hostname(),
		QBittorrentPort:     port,
		TMDBAPIKey:          "test-key",
		TMDBBaseURL:         tmdbSrv.URL,
		MoviesDownloadPath:  "/downloads/movies",
		TVShowsDownloadPath: "/downloads/tv",
		RSSFeedName:         "Main",
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	qbClient, err := qbittorrent.NewClient(cfg, logger)
	if err != nil {
		t.Fatalf("failed to create qbittorrent client: %v", err)
	}
	tmdbClient, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		t.Fatalf("failed to create tmdb client: %v", err)
	}

	return NewRuleController(qbClient, tmdbClient, cfg, logger)
}

func TestCreateMovieRuleAttachesFeed(t *testing.T) {
	qb := newFakeQBittorrent(t)
	c := newTestRuleController(t, qb)

	outcome, err := c.CreateMovieRule(context.Background(), "Blade Runner", "1080p")
	if err != nil {
		t.Fatalf("CreateMovieRule failed: %v", err)
	}
	if !outcome.Created {
		t.Fatalf("expected a created rule, got %+v", outcome)
	}

	def, ok := qb.setRules[outcome.RuleName]
	if !ok {
		t.Fatalf("rule %q was never written", outcome.RuleName)
	}
	if len(def.AffectedFeeds) != 1 || def.AffectedFeeds[0] != "http://indexer/main" {
		t.Errorf("configured feed not attached: %v", def.AffectedFeeds)
	}
}

func TestCreateMovieRuleSurvivesFeedLookupFailure(t *testing.T) {
	qb := newFakeQBittorrent(t)
	qb.feedsErr = true
	c := newTestRuleController(t, qb)

	outcome, err := c.CreateMovieRule(context.Background(), "Blade Runner", "1080p")
	if err != nil {
		t.Fatalf("CreateMovieRule failed on a feed lookup error: %v", err)
	}
	if !outcome.Created {
		t.Fatalf("expected a created rule, got %+v", outcome)
	}

	def, ok := qb.setRules[outcome.RuleName]
	if !ok {
		t.Fatalf("rule %q was never written", outcome.RuleName)
	}
	if len(def.AffectedFeeds) != 0 {
		t.Errorf("expected an empty feed list, got %v", def.AffectedFeeds)
	}
}

func TestCreateTVRuleSurvivesFeedLookupFailure(t *testing.T) {
	qb := newFakeQBittorrent(t)
	qb.feedsErr = true
	c := newTestRuleController(t, qb)

	outcome, err := c.CreateTVRule(context.Background(), "Breaking Show S02", "1080p")
	if err != nil {
		t.Fatalf("CreateTVRule failed on a feed lookup error: %v", err)
	}
	if !outcome.Created {
		t.Fatalf("expected a created rule, got %+v", outcome)
	}

	def, ok := qb.setRules[outcome.RuleName]
	if !ok {
		t.Fatalf("rule %q was never written", outcome.RuleName)
	}
	if len(def.AffectedFeeds) != 0 {
		t.Errorf("expected an empty feed list, got %v", def.AffectedFeeds)
	}
	if def.EpisodeFilter != "2x01-99;" {
		t.Errorf("unexpected episode filter: %q", def.EpisodeFilter)
	}
}
