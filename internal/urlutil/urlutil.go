package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// IsAbsolute reports whether raw parses as an absolute URL with a host.
func IsAbsolute(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}

// IsHTTPURL reports whether raw is an absolute http or https URL.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}

// Normalize returns the canonical form of an http(s) URL:
// lowercased scheme and host, default ports stripped, fragment removed,
// and a bare root path ("/") dropped.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !IsHTTPURL(raw) {
		return "", fmt.Errorf("url must be an absolute http or https url: %q", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && u.Port() == "80") || (u.Scheme == "https" && u.Port() == "443") {
		u.Host = strings.TrimSuffix(u.Host, ":"+u.Port())
	}
	u.Fragment = ""
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String(), nil
}

// JoinPath appends path segments to an absolute base URL. It returns "" when
// base is not absolute.
func JoinPath(base string, elem ...string) string {
	if !IsAbsolute(base) {
		return ""
	}
	out, err := url.JoinPath(strings.TrimSpace(base), elem...)
	if err != nil {
		return ""
	}
	return out
}
