package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrCitationLeak is returned when generated text cites a URL outside the allowlist
var ErrCitationLeak = errors.New("citation leak")

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]"'<>]+`)

// CitedURLs extracts the distinct http(s) URLs mentioned in text, in order
func CitedURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, u := range matches {
		u = strings.TrimRight(u, ".,;:!?")
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}
	return unique
}

// CheckCitations enforces strict evidence mode: every URL cited in text
// must appear in allowed.
func CheckCitations(text string, allowed []string) error {
	set := make(map[string]bool, len(allowed))
	for _, u := range allowed {
		set[normalizeURL(u)] = true
	}
	for _, cited := range CitedURLs(text) {
		if !set[normalizeURL(cited)] {
			return fmt.Errorf("%w: model cited disallowed URL %s", ErrCitationLeak, cited)
		}
	}
	return nil
}

// AllowedURL reports whether u is in allowed, ignoring a trailing slash
func AllowedURL(u string, allowed []string) bool {
	n := normalizeURL(u)
	for _, a := range allowed {
		if normalizeURL(a) == n {
			return true
		}
	}
	return false
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(strings.TrimSpace(u), "/")
}
