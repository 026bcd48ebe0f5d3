package models

import (
	"net/url"
	"strings"
)

// JobIdentity reduces a posting URL to scheme, host and path so that
// query strings, fragments and a trailing slash do not split one job into
// several cache keys.
func JobIdentity(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(stripSuffixes(raw), "/")
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + path
}

func stripSuffixes(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
