package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL marks hrefs that cannot become a crawlable absolute URL.
var ErrInvalidURL = errors.New("invalid url")

// Canonicalize standardizes an absolute URL into the key used by the frontier and result store.
// It lowercases the scheme and host, removes default ports, drops the fragment and strips
// trailing slashes from the path. Only http and https URLs are accepted.
func Canonicalize(rawURL string) (string, error) {
	u, err := parseAbsolute(rawURL)
	if err != nil {
		return "", err
	}
	return canonicalString(u), nil
}

// Resolve resolves href against the page it was found on and canonicalizes the result.
func Resolve(href, base string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("%w: empty href", ErrInvalidURL)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: parse base %q: %v", ErrInvalidURL, base, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: parse href %q: %v", ErrInvalidURL, href, err)
	}
	return Canonicalize(baseURL.ResolveReference(ref).String())
}

// Origin returns scheme://host[:port] of a canonical URL.
func Origin(rawURL string) (string, error) {
	u, err := parseAbsolute(rawURL)
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host, nil
}

func parseAbsolute(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", ErrInvalidURL, rawURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, rawURL)
	}
	u.Host = strings.ToLower(u.Host)
	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	return u, nil
}

func canonicalString(u *url.URL) string {
	cp := *u
	cp.Fragment = ""
	cp.RawFragment = ""
	// Only literal slashes are trimmed; an escaped %2F is part of the last segment.
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return cp.String()
	}
	cp.Path = path
	cp.RawPath = escaped
	return cp.String()
}
