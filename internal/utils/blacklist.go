package utils

import (
	"bufio"
	"os"
	"strings"
)

// Blacklist holds terms that disqualify a search result
type Blacklist struct {
	terms []string
}

// LoadBlacklist loads blacklist terms from a file, one per line.
// A missing file yields an empty blacklist, not an error.
func LoadBlacklist(path string) (*Blacklist, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Blacklist{}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var terms []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		if term != "" && !strings.HasPrefix(term, "#") {
			terms = append(terms, term)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Blacklist{terms: terms}, nil
}

// IsBlacklisted checks a release title against the term list.
// Returns the matching term alongside the verdict.
func (b *Blacklist) IsBlacklisted(title string) (bool, string) {
	titleLower := strings.ToLower(title)

	for _, term := range b.terms {
		if strings.Contains(titleLower, strings.ToLower(term)) {
			return true, term
		}
	}

	return false, ""
}
