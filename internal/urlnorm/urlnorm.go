// Package urlnorm canonicalizes article URLs and derives the fingerprint
// used as the per-owner dedup key.
package urlnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"
)

// ErrInvalidURL is returned for input that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// Normalize canonicalizes a raw URL: lower-cases scheme and host, drops
// default ports and the fragment, removes tracking query parameters from
// stripParams, sorts the remaining query, and trims the trailing slash
// from non-root paths. Two submissions of the same page that differ only
// in tracking noise normalize to the same string.
func Normalize(raw string, stripParams []string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidURL
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrInvalidURL
	}
	if u.Host == "" {
		return "", ErrInvalidURL
	}
	u.Scheme = scheme

	host := strings.ToLower(u.Host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host

	u.Fragment = ""
	u.RawQuery = cleanQuery(u.Query(), stripParams)

	// "/a/" and "/a" are the same page, as are "host/" and "host".
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}

// Fingerprint returns the hex SHA-256 of a normalized URL.
func Fingerprint(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// cleanQuery drops stripped parameters and re-encodes the rest in sorted
// key order so parameter order never affects the fingerprint.
func cleanQuery(values url.Values, stripParams []string) string {
	for _, p := range stripParams {
		for name := range values {
			if strings.EqualFold(name, p) {
				delete(values, name)
			}
		}
	}
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
