package prowlarr

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/models"
)

func testClient() *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Client{
		pageSize: 8,
		logger:   logger,
	}
}

func rawResult(title string, size, seeders int64) RawResult {
	return RawResult{
		GUID:       title,
		Title:      title,
		Size:       flexInt64(size),
		Seeders:    flexInt64(seeders),
		Categories: []rawCategory{{ID: 2000}},
	}
}

func TestFilterDropsOversized(t *testing.T) {
	c := testClient()
	raw := []RawResult{
		rawResult("Huge Release 2020 1080p", maxSizeBytes, 10),
		rawResult("Normal Release 2020 1080p", maxSizeBytes-1, 10),
	}

	page := c.FilterAndPaginate(raw, 1, 8, nil)
	if page.TotalResults != 1 {
		t.Fatalf("expected 1 result, got %d", page.TotalResults)
	}
	if page.Results[0].Name != "Normal Release 2020 1080p" {
		t.Errorf("wrong survivor: %q", page.Results[0].Name)
	}
}

func TestFilterDropsUnseeded(t *testing.T) {
	c := testClient()
	raw := []RawResult{
		rawResult("Dead Release 2020 1080p", 1024, 0),
		rawResult("Alive Release 2020 1080p", 1024, 1),
	}

	page := c.FilterAndPaginate(raw, 1, 8, nil)
	if page.TotalResults != 1 {
		t.Fatalf("expected 1 result, got %d", page.TotalResults)
	}
	if page.Results[0].Seeders != 1 {
		t.Errorf("expected the single-seeder result to survive")
	}
}

func TestFilterDropsDuplicatesOfExisting(t *testing.T) {
	c := testClient()
	raw := []RawResult{
		rawResult("The.Matrix.1999.1080p.BluRay.x264-GRP", 1024, 5),
		rawResult("Blade Runner 2049 2160p WEB-DL", 1024, 5),
	}
	existing := []string{"The Matrix 1999 720p HDTV"}

	page := c.FilterAndPaginate(raw, 1, 8, existing)
	if page.TotalResults != 1 {
		t.Fatalf("expected 1 result, got %d", page.TotalResults)
	}
	if page.Results[0].Category != models.CategoryMovies {
		t.Errorf("expected movies category, got %s", page.Results[0].Category)
	}
}

func TestFilterDropsDuplicatesWithinResults(t *testing.T) {
	c := testClient()
	raw := []RawResult{
		rawResult("Dune Part Two 2024 1080p WEB-DL", 1024, 5),
		rawResult("Dune.Part.Two.2024.2160p.BluRay", 1024, 5),
	}

	page := c.FilterAndPaginate(raw, 1, 8, nil)
	if page.TotalResults != 1 {
		t.Fatalf("expected 1 result after dedup, got %d", page.TotalResults)
	}
}

func TestCategoryMapping(t *testing.T) {
	cases := []struct {
		cats []rawCategory
		want models.Category
	}{
		{[]rawCategory{{ID: 2000}}, models.CategoryMovies},
		{[]rawCategory{{ID: 5000}}, models.CategoryTV},
		{[]rawCategory{{ID: 100027}}, models.CategoryTVBoxsets},
		{[]rawCategory{{ID: 100032}}, models.CategoryTVEpisodes},
		// Sub-category IDs alone do not map; only the exact parent IDs do
		{[]rawCategory{{ID: 2045}}, models.CategoryOther},
		{[]rawCategory{{ID: 5070}}, models.CategoryOther},
		{[]rawCategory{{ID: 2045}, {ID: 2000}}, models.CategoryMovies},
		{[]rawCategory{{ID: 7000}}, models.CategoryOther},
		{nil, models.CategoryUnknown},
	}

	for _, tc := range cases {
		if got := mapCategory(tc.cats); got != tc.want {
			t.Errorf("mapCategory(%v) = %s, want %s", tc.cats, got, tc.want)
		}
	}
}

func TestFreeleechDetection(t *testing.T) {
	cases := []struct {
		result RawResult
		want   bool
	}{
		{RawResult{Title: "Movie 2020", IndexerFlags: []string{"freeleech"}}, true},
		{RawResult{Title: "Movie 2020", IndexerFlags: []string{"FreeLeech"}}, true},
		{RawResult{Title: "Movie 2020 [FreeLeech]"}, true},
		{RawResult{Title: "Movie 2020 FL"}, true},
		{RawResult{Title: "Movie 2020 free leech"}, true},
		{RawResult{Title: "Movie 2020 0% DL"}, true},
		// Keywords match as substrings, even inside larger words
		{RawResult{Title: "The.Flash.2023.S01E01.1080p.WEB-DL"}, true},
		{RawResult{Title: "Freeform 2020 1080p"}, true},
		{RawResult{Title: "Movie 2020 1080p"}, false},
	}

	for _, tc := range cases {
		if got := isFreeleech(tc.result); got != tc.want {
			t.Errorf("isFreeleech(%q %v) = %v, want %v",
				tc.result.Title, tc.result.IndexerFlags, got, tc.want)
		}
	}
}

func TestPagination(t *testing.T) {
	c := testClient()
	var raw []RawResult
	for i := 0; i < 20; i++ {
		raw = append(raw, rawResult(
			// Distinct titles so dedup leaves them alone
			"Unique Show "+string(rune('A'+i))+" 2020 1080p", 1024, 5))
	}

	page1 := c.FilterAndPaginate(raw, 1, 8, nil)
	if len(page1.Results) != 8 {
		t.Errorf("page 1: expected 8 results, got %d", len(page1.Results))
	}
	if page1.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", page1.TotalPages)
	}
	if page1.TotalResults != 20 {
		t.Errorf("expected 20 total results, got %d", page1.TotalResults)
	}

	page3 := c.FilterAndPaginate(raw, 3, 8, nil)
	if len(page3.Results) != 4 {
		t.Errorf("page 3: expected 4 results, got %d", len(page3.Results))
	}
}

func TestPaginationOutOfRange(t *testing.T) {
	c := testClient()
	raw := []RawResult{
		rawResult("Only Release 2020 1080p", 1024, 5),
	}

	page := c.FilterAndPaginate(raw, 5, 8, nil)
	if len(page.Results) != 0 {
		t.Errorf("out-of-range page must be empty, got %d results", len(page.Results))
	}
	if page.TotalResults != 1 {
		t.Errorf("totals must survive an out-of-range page, got %d", page.TotalResults)
	}
	if page.TotalPages != 1 {
		t.Errorf("expected 1 total page, got %d", page.TotalPages)
	}
}

func TestRawResultTolerantDecoding(t *testing.T) {
	payload := `[
		{"guid": "a", "title": "Numbers", "size": 1024, "seeders": 3, "categories": [2000]},
		{"guid": "b", "title": "Strings", "size": "2048", "seeders": "5", "categories": [{"id": 5000, "name": "TV"}]},
		{"guid": "c", "title": "Nulls", "size": null, "seeders": null, "categories": []}
	]`

	var results []RawResult
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if int64(results[0].Size) != 1024 || int64(results[0].Seeders) != 3 {
		t.Errorf("numeric fields mis-decoded: %+v", results[0])
	}
	if int64(results[1].Size) != 2048 || int64(results[1].Seeders) != 5 {
		t.Errorf("string fields mis-decoded: %+v", results[1])
	}
	if results[1].Categories[0].ID != 5000 {
		t.Errorf("object category mis-decoded: %+v", results[1].Categories)
	}
	if int64(results[2].Size) != 0 || int64(results[2].Seeders) != 0 {
		t.Errorf("null fields mis-decoded: %+v", results[2])
	}
	if results[0].Categories[0].ID != 2000 {
		t.Errorf("bare int category mis-decoded: %+v", results[0].Categories)
	}
}
