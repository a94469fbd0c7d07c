package utils

import (
	"regexp"
	"strings"
)

// Release names bury the title under quality/codec/audio/group noise.
// The title is whatever comes before the first metadata marker; the
// leftmost match in the string wins, not any marker's priority.
var (
	extensionRegex = regexp.MustCompile(`(?i)\.[a-z0-9]{2,4}$`)
	separatorRegex = regexp.MustCompile(`[._]+`)
	spaceRegex     = regexp.MustCompile(`\s+`)
	keyCharRegex   = regexp.MustCompile(`[^a-z0-9.]`)

	metadataMarkerRegex = regexp.MustCompile(`(?i)` + strings.Join([]string{
		`\b\d{4}\b`,                    // year
		`\b(720|1080|2160)p\b`,         // resolution
		`\b(UHD|HDR|HDR10|DV|SDR)\b`,   // dynamic range
		`\b(BluRay|WEB[- ]?DL|HDRip|DVDRip|HDTV|NF|AMZN)\b`, // source
		`\b(HEVC|H\.?264|H\.?265|x264|x265)\b`,              // codec
		`\b(DTS|DDP?|AAC|TrueHD|FLAC)\b`,                    // audio format
		`\b(MA|ATMOS|5\.1|7\.1|2\.0|2\.1|Mono|Stereo)\b`,    // channel layout
		`\b(REMUX|HYBRID|REPACK|EXTENDED|PROPER|UNRATED|LIMITED)\b`, // edition
		`-[A-Za-z0-9]+$`, // release group
	}, "|"))
)

// ExtractTitle extracts the clean title from a release filename by
// stripping everything from the first metadata marker onward. A title
// with no markers is returned unchanged (aside from separator cleanup).
func ExtractTitle(filename string) string {
	name := extensionRegex.ReplaceAllString(filename, "")
	clean := separatorRegex.ReplaceAllString(name, " ")

	if loc := metadataMarkerRegex.FindStringIndex(clean); loc != nil {
		clean = clean[:loc[0]]
	}

	return strings.TrimSpace(clean)
}

// ComparisonKey converts a title into the canonical dot-joined token used
// for duplicate detection: lowercased, whitespace runs collapsed to a
// single dot, everything else but alphanumerics and dots removed.
func ComparisonKey(title string) string {
	key := strings.ToLower(strings.TrimSpace(title))
	key = spaceRegex.ReplaceAllString(key, ".")
	return keyCharRegex.ReplaceAllString(key, "")
}

// IsDuplicate reports whether two comparison keys denote the same
// release. The test is symmetric containment, not equality. Empty keys
// never match.
func IsDuplicate(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
