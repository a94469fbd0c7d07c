package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	yearParenRegex  = regexp.MustCompile(`\((\d{4})\)`)
	resolutionRegex = regexp.MustCompile(`(\d{3,4}p)`)
	groupRegex      = regexp.MustCompile(`-([A-Za-z0-9]+)$`)

	// Ordered: first match wins
	qualityTokens = []string{"BluRay", "WEB-DL", "HDRip", "BRRip", "DVDRip", "HDTV"}
	codecTokens   = []string{"x264", "x265", "H.264", "H.265", "AVC", "HEVC"}
)

// ExtractYear returns the first 4-digit year inside parentheses, or ""
func ExtractYear(title string) string {
	if m := yearParenRegex.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}

// ExtractQuality returns the first known source-quality token, or ""
func ExtractQuality(title string) string {
	lower := strings.ToLower(title)
	for _, quality := range qualityTokens {
		if strings.Contains(lower, strings.ToLower(quality)) {
			return quality
		}
	}
	return ""
}

// ExtractResolution returns the first resolution token (e.g. 1080p), or ""
func ExtractResolution(title string) string {
	if m := resolutionRegex.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}

// ExtractCodec returns the first known codec token, or ""
func ExtractCodec(title string) string {
	lower := strings.ToLower(title)
	for _, codec := range codecTokens {
		if strings.Contains(lower, strings.ToLower(codec)) {
			return codec
		}
	}
	return ""
}

// ExtractGroup returns the trailing release group token, or ""
func ExtractGroup(title string) string {
	if m := groupRegex.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}

// FormatSize formats a byte count as a human readable string
func FormatSize(sizeBytes int64) string {
	if sizeBytes == 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(sizeBytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}

	return fmt.Sprintf("%.1f %s", size, units[i])
}

// FormatSpeed formats a bytes-per-second rate as a human readable string
func FormatSpeed(speedBytes int64) string {
	if speedBytes == 0 {
		return "0 B/s"
	}

	units := []string{"B/s", "KB/s", "MB/s", "GB/s"}
	speed := float64(speedBytes)
	i := 0
	for speed >= 1024 && i < len(units)-1 {
		speed /= 1024
		i++
	}

	return fmt.Sprintf("%.1f %s", speed, units[i])
}
