package intake

import (
	"regexp"
	"strings"
)

var (
	httpURLPattern = regexp.MustCompile(`https?://[^\s<>"']+`)
	wwwURLPattern  = regexp.MustCompile(`(^|\s)(www\.[^\s<>"']+)`)
)

// ExtractURLs pulls candidate article URLs out of free-form message text.
// Bare www. hosts get an https:// prefix. Results keep first-seen order
// with duplicates removed.
func ExtractURLs(text string) []string {
	var found []string

	found = append(found, httpURLPattern.FindAllString(text, -1)...)

	for _, m := range wwwURLPattern.FindAllStringSubmatch(text, -1) {
		found = append(found, "https://"+m[2])
	}

	seen := make(map[string]struct{}, len(found))
	var urls []string
	for _, u := range found {
		u = trimTrailingPunct(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// trimTrailingPunct drops sentence punctuation that message text glues onto
// a URL ("read this: https://example.com/a!").
func trimTrailingPunct(u string) string {
	return strings.TrimRight(u, ".,;:!?)]}'\"")
}
