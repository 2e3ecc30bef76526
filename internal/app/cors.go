package app

import (
	"net/url"
	"strings"
)

// extractOriginHost returns the lowercased "host[:port]" portion of an
// origin URL, or the raw value when it does not parse as a URL.
func extractOriginHost(origin string) string {
	origin = strings.TrimSpace(origin)
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return strings.ToLower(origin)
	}
	return strings.ToLower(u.Host)
}

// matchOriginPattern reports whether host matches pattern. "*.example.com"
// matches the bare domain and any subdomain; "localhost:*" matches any port.
func matchOriginPattern(pattern, host string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}
	if pattern == host {
		return true
	}
	if domain, ok := strings.CutPrefix(pattern, "*."); ok {
		return host == domain || strings.HasSuffix(host, "."+domain)
	}
	if name, ok := strings.CutSuffix(pattern, ":*"); ok {
		return host == name || strings.HasPrefix(host, name+":")
	}
	return false
}
