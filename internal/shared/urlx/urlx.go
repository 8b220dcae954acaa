// Package urlx holds the URL normalization helpers shared by the
// detectors.
package urlx

import (
	"net/url"
	"strings"
)

// UnknownHost is the placeholder hostname for unparseable URLs. Detection
// passes degrade to it instead of failing.
const UnknownHost = "unknown"

// Hostname extracts the hostname from a raw URL with any www. prefix
// stripped.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return UnknownHost
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// PathSegments splits a URL path into its non-empty segments.
func PathSegments(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
