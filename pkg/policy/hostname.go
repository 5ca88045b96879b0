package policy

import (
	"net"
	"net/url"
	"strings"
)

// MaxPatternLength bounds a stored hostname pattern.
const MaxPatternLength = 500

// NormalizePattern turns user input such as "https://www.Example.com/feed"
// into the bare hostname pattern "example.com".
func NormalizePattern(raw string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
	}
	if i := strings.IndexAny(p, "/?#"); i >= 0 {
		p = p[:i]
	}
	if i := strings.LastIndex(p, "@"); i >= 0 {
		p = p[i+1:]
	}
	if host, _, err := net.SplitHostPort(p); err == nil {
		p = host
	}
	p = strings.TrimPrefix(p, "www.")
	p = strings.TrimSuffix(p, ".")

	if p == "" {
		return "", invalid("pattern", "must name a site")
	}
	if len(p) > MaxPatternLength {
		return "", invalid("pattern", "is too long")
	}
	if strings.ContainsAny(p, " \t\r\n") {
		return "", invalid("pattern", "must not contain whitespace")
	}
	return p, nil
}

// HostnameOf extracts the lower-cased hostname from a navigated URL. Bare
// hostnames without a scheme are accepted.
func HostnameOf(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", invalid("url", "is empty")
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", invalid("url", "cannot be parsed")
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", invalid("url", "has no hostname")
	}
	return host, nil
}

// MatchesHost reports whether a normalised pattern applies to host. Patterns
// match by substring, so "reddit.com" also covers "old.reddit.com".
func MatchesHost(pattern, host string) bool {
	if pattern == "" || host == "" {
		return false
	}
	return strings.Contains(host, pattern)
}
