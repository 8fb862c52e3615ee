package crawler

import (
	"net/url"
	"strings"
)

// DefaultDeniedPaths are the administrative and login paths excluded from every crawl.
var DefaultDeniedPaths = []string{"/wp-admin", "/wp-login.php"}

// pathDenylist matches URLs whose path contains any configured substring.
type pathDenylist struct {
	patterns []string
}

func newPathDenylist(patterns []string) *pathDenylist {
	matcher := &pathDenylist{}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		matcher.add(value)
	}
	if len(matcher.patterns) == 0 {
		return nil
	}
	return matcher
}

func (d *pathDenylist) add(pattern string) {
	for _, existing := range d.patterns {
		if existing == pattern {
			return
		}
	}
	d.patterns = append(d.patterns, pattern)
}

// IsDenied reports whether the URL path matches a denylisted substring. Query and
// fragment are not considered.
func (d *pathDenylist) IsDenied(rawURL string) bool {
	if d == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	lowered := strings.ToLower(u.Path)
	for _, pattern := range d.patterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}
